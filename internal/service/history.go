package service

import (
	"context"
	"sync"
	"time"
)

// Record is the persisted summary of a finished session.
type Record struct {
	ID              string    `json:"id"`
	State           State     `json:"state"`
	StartedAt       time.Time `json:"started_at"`
	EndedAt         time.Time `json:"ended_at"`
	DurationSeconds float64   `json:"duration_seconds"`
	OutputPath      string    `json:"output_path"`
	Argv            []string  `json:"argv"`
	Requested       bool      `json:"requested"`
	ExitCode        int       `json:"exit_code"`
	Signal          string    `json:"signal,omitempty"`
	Error           string    `json:"error,omitempty"`
}

// record summarizes a finished session. Caller holds the recorder lock.
func (s *Session) record() Record {
	rec := Record{
		ID:         s.id,
		State:      s.state,
		StartedAt:  s.startedAt,
		EndedAt:    s.endedAt,
		OutputPath: s.output,
		Argv:       append([]string(nil), s.argv...),
		Requested:  s.requested,
		ExitCode:   -1,
		Error:      s.errMsg,
	}
	if s.exit != nil {
		rec.ExitCode = s.exit.Code
		rec.Signal = s.exit.Signal
	}
	if !s.startedAt.IsZero() {
		rec.DurationSeconds = s.endedAt.Sub(s.startedAt).Seconds()
	}
	return rec
}

// HistoryStore persists finished sessions, newest first.
type HistoryStore interface {
	Append(ctx context.Context, rec Record) error
	List(ctx context.Context, limit int) ([]Record, error)
}

// DefaultHistoryLimit bounds the number of retained records.
const DefaultHistoryLimit = 100

// MemoryHistory is the in-process HistoryStore used when no Redis is
// configured. It keeps the newest `limit` records.
type MemoryHistory struct {
	mu    sync.RWMutex
	recs  []Record // newest first
	limit int
}

func NewMemoryHistory(limit int) *MemoryHistory {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	return &MemoryHistory{limit: limit}
}

func (h *MemoryHistory) Append(_ context.Context, rec Record) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.recs = append([]Record{rec}, h.recs...)
	if len(h.recs) > h.limit {
		h.recs = h.recs[:h.limit]
	}
	return nil
}

func (h *MemoryHistory) List(_ context.Context, limit int) ([]Record, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if limit <= 0 || limit > len(h.recs) {
		limit = len(h.recs)
	}
	out := make([]Record, limit)
	copy(out, h.recs[:limit])
	return out, nil
}
