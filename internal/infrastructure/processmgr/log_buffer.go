package processmgr

import "sync"

// LogBufferSize is the number of encoder output lines retained per session.
const LogBufferSize = 500

// logBuffer is a thread-safe circular buffer of encoder output lines with O(1)
// append and O(N) read.
type logBuffer struct {
	entries [LogBufferSize]string // Fixed-size circular buffer (no heap allocations)
	head    int                   // Next write position
	size    int                   // Current number of entries
	mu      sync.RWMutex          // Protects all fields
}

// Append adds a line, overwriting the oldest one when full.
func (b *logBuffer) Append(entry string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.entries[b.head] = entry
	b.head = (b.head + 1) % LogBufferSize
	if b.size < LogBufferSize {
		b.size++
	}
}

// Tail returns the last n lines in chronological order (oldest → newest).
// Returns a NEW slice (caller owns memory).
//
// Semantics:
//   - If n <= 0 or n > capacity: returns everything retained
//   - Empty buffer: returns nil
func (b *logBuffer) Tail(n int) []string {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.size == 0 {
		return nil
	}
	if n <= 0 || n > b.size {
		n = b.size
	}

	out := make([]string, n)
	// head is one past the newest entry; the first wanted entry is n behind it.
	start := (b.head - n + LogBufferSize) % LogBufferSize
	for i := 0; i < n; i++ {
		out[i] = b.entries[(start+i)%LogBufferSize]
	}
	return out
}

// Len reports the number of retained lines.
func (b *logBuffer) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.size
}
