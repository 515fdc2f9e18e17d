package service

import "sync"

// EventHub fans session events out to any number of subscribers (SSE
// clients). Slow subscribers lose non-terminal events rather than stall the
// publisher; the last buffer slot is kept for the terminal event.
type EventHub struct {
	mu     sync.Mutex
	subs   map[uint64]chan Event
	nextID uint64
	closed bool
}

func NewEventHub() *EventHub {
	return &EventHub{subs: make(map[uint64]chan Event)}
}

// Subscribe registers a subscriber with the given buffer (at least 2). The
// returned cancel func unregisters and closes the channel; it is safe to call
// more than once.
func (h *EventHub) Subscribe(buf int) (<-chan Event, func()) {
	if buf < 2 {
		buf = 2
	}
	ch := make(chan Event, buf)

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		close(ch)
		return ch, func() {}
	}

	id := h.nextID
	h.nextID++
	h.subs[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()
			if c, ok := h.subs[id]; ok {
				delete(h.subs, id)
				close(c)
			}
		})
	}
}

// Publish delivers ev to every subscriber that has room. Non-terminal events
// never take a subscriber's last free slot. A terminal event that still finds
// the buffer full evicts the oldest queued event.
func (h *EventHub) Publish(ev Event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, ch := range h.subs {
		if !ev.Terminal() {
			if len(ch) < cap(ch)-1 {
				ch <- ev
			}
			continue
		}
		select {
		case ch <- ev:
			continue
		default:
		}
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- ev:
		default:
		}
	}
}

// Subscribers reports the current subscriber count.
func (h *EventHub) Subscribers() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

// Close closes every subscriber channel; later subscriptions get a closed
// channel.
func (h *EventHub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.closed = true
	for id, ch := range h.subs {
		delete(h.subs, id)
		close(ch)
	}
}
