package processmgr

import "sync"

// DefaultRetainedSessions bounds how many sessions' encoder output is kept.
const DefaultRetainedSessions = 32

// LogManager keeps encoder output buffers keyed by session ID.
//   - Creates buffers lazily
//   - Evicts the oldest session once more than `retain` are held
//   - Thread-safe access
type LogManager struct {
	mu     sync.RWMutex          // guards bufs and order
	bufs   map[string]*logBuffer // session ID → log buffer
	order  []string              // insertion order, oldest first
	retain int
}

// NewLogManager initializes an empty log-buffer registry retaining at most
// retain sessions (DefaultRetainedSessions if retain <= 0).
func NewLogManager(retain int) *LogManager {
	if retain <= 0 {
		retain = DefaultRetainedSessions
	}
	return &LogManager{
		bufs:   make(map[string]*logBuffer),
		retain: retain,
	}
}

// get returns the log buffer for a session, creating it if missing.
func (lm *LogManager) get(id string) *logBuffer {
	lm.mu.Lock()
	defer lm.mu.Unlock()

	if buf, ok := lm.bufs[id]; ok {
		return buf
	}

	buf := new(logBuffer)
	lm.bufs[id] = buf
	lm.order = append(lm.order, id)

	for len(lm.order) > lm.retain {
		oldest := lm.order[0]
		lm.order = lm.order[1:]
		delete(lm.bufs, oldest)
	}
	return buf
}

// Tail returns the last n output lines of a session (chronological order).
// ok is false if the session is unknown or has been evicted.
func (lm *LogManager) Tail(id string, n int) (lines []string, ok bool) {
	lm.mu.RLock()
	buf, ok := lm.bufs[id]
	lm.mu.RUnlock()

	if !ok {
		return nil, false
	}
	return buf.Tail(n), true
}
