package service

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/edirooss/zrec-server/internal/domain/capture"
	"github.com/edirooss/zrec-server/internal/infrastructure/processmgr"
	"github.com/edirooss/zrec-server/pkg/ffmpegcmd"
)

// -----------------------------------------------------------------------------
// RecordingService
// -----------------------------------------------------------------------------
//
// Composes the Recorder with everything the HTTP API needs around it:
//   • finished sessions are persisted to a HistoryStore (best-effort, bounded)
//   • each session's event stream is pumped into an EventHub for SSE clients
//   • encoder output tails are served from the LogManager by session ID

// historyWriteTimeout bounds one history append.
const historyWriteTimeout = 3 * time.Second

// RecordingService is the application-level facade over one Recorder.
type RecordingService struct {
	log     *zap.Logger
	rec     *Recorder
	history HistoryStore
	logs    *processmgr.LogManager
	hub     *EventHub

	pumps sync.WaitGroup
}

// NewRecordingService wires a Recorder whose finished sessions are appended to
// history. opts.OnFinish, if set, is still called after the append.
func NewRecordingService(
	log *zap.Logger,
	platform ffmpegcmd.Platform,
	spawner processmgr.Spawner,
	logs *processmgr.LogManager,
	history HistoryStore,
	opts RecorderOptions,
) *RecordingService {
	log = log.Named("recording_service")

	svc := &RecordingService{
		log:     log,
		history: history,
		logs:    logs,
		hub:     NewEventHub(),
	}

	next := opts.OnFinish
	opts.OnFinish = func(rec Record) {
		svc.persist(rec)
		if next != nil {
			next(rec)
		}
	}
	svc.rec = NewRecorder(log, platform, spawner, opts)
	return svc
}

func (s *RecordingService) persist(rec Record) {
	ctx, cancel := context.WithTimeout(context.Background(), historyWriteTimeout)
	defer cancel()

	if err := s.history.Append(ctx, rec); err != nil {
		s.log.Warn("history append failed", zap.String("session_id", rec.ID), zap.Error(err))
	}
}

// Recorder exposes the underlying controller.
func (s *RecordingService) Recorder() *Recorder { return s.rec }

// Start starts a session and returns its status. The session's events are
// published on the hub.
func (s *RecordingService) Start(cfg capture.Configuration) (SessionStatus, error) {
	sess, err := s.rec.Start(cfg.WithDefaults())
	if err != nil {
		return SessionStatus{}, err
	}

	s.pumps.Add(1)
	go func() {
		defer s.pumps.Done()
		for ev := range sess.Events() {
			s.hub.Publish(ev)
		}
	}()

	st, _ := s.rec.Status()
	return st, nil
}

// Stop requests a graceful stop of the active session.
func (s *RecordingService) Stop() error { return s.rec.Stop() }

// Current returns the active (or last) session status.
func (s *RecordingService) Current() (SessionStatus, bool) { return s.rec.Status() }

// Preview synthesizes the encoder argv for cfg without spawning it.
func (s *RecordingService) Preview(cfg capture.Configuration) (*ffmpegcmd.Command, error) {
	return s.rec.Preview(cfg.WithDefaults())
}

// Binary is the encoder executable used for spawning and previews.
func (s *RecordingService) Binary() string { return s.rec.Binary() }

// Subscribe registers an event-stream subscriber.
func (s *RecordingService) Subscribe(buf int) (<-chan Event, func()) { return s.hub.Subscribe(buf) }

// Listeners reports the number of live event-stream subscribers.
func (s *RecordingService) Listeners() int { return s.hub.Subscribers() }

// Logs returns the encoder output tail of a session.
func (s *RecordingService) Logs(id string, n int) ([]string, bool) { return s.logs.Tail(id, n) }

// History lists finished sessions, newest first.
func (s *RecordingService) History(ctx context.Context, limit int) ([]Record, error) {
	return s.history.List(ctx, limit)
}

// Shutdown stops an active recording and waits (bounded by ctx) for the
// escalation to finish and the last events to be published, then closes the
// hub. A session still starting is stopped once its spawn completes.
func (s *RecordingService) Shutdown(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		s.rec.awaitStart()
		if err := s.rec.Stop(); err == nil {
			s.log.Info("stopping active recording for shutdown")
		}
		s.rec.Wait()
		s.pumps.Wait()
		close(done)
	}()

	defer s.hub.Close()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
