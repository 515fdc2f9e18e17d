package service

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/edirooss/zrec-server/internal/domain/capture"
	"github.com/edirooss/zrec-server/internal/infrastructure/processmgr"
	"github.com/edirooss/zrec-server/internal/observability"
	"github.com/edirooss/zrec-server/pkg/ffmpegcmd"
)

// -----------------------------------------------------------------------------
// Recorder
// -----------------------------------------------------------------------------
//
// Runtime model
//   • One active session per Recorder; instances are independent.
//   • Start/Stop are non-blocking control signals guarded by the state machine:
//       Idle → Starting → Recording → Stopping → {Stopped, Failed} → Idle
//   • Each session owns one monitor goroutine. Stop runs its escalation on a
//     separate goroutine so callers never block on the encoder.
//
// Shutdown escalation (all waits bounded)
//   • write "q" to stdin, wait ≤ Grace
//   • terminate (SIGTERM to the group / taskkill), wait ≤ Terminate
//   • kill
//   A failed quit write skips straight to terminate.
//
// Event stream (per session)
//   • Started → DurationTick* (strictly increasing seconds) → one terminal event
//     (Stopped or Error), then the channel is closed.
//   • Ticks are dropped when the consumer lags; one slot is always reserved for
//     the terminal event, so it is never dropped and never blocks.

// State is a recorder/session lifecycle state.
type State string

const (
	StateIdle      State = "idle"
	StateStarting  State = "starting"
	StateRecording State = "recording"
	StateStopping  State = "stopping"
	StateStopped   State = "stopped"
	StateFailed    State = "failed"
)

// Terminal reports whether s ends a session.
func (s State) Terminal() bool { return s == StateStopped || s == StateFailed }

var (
	// ErrSessionActive is returned by Start unless the recorder is idle.
	ErrSessionActive = errors.New("a recording session is already active")
	// ErrNotRecording is returned by Stop unless a session is recording.
	ErrNotRecording = errors.New("no recording in progress")
	// ErrInvalidConfiguration wraps capture configuration validation errors.
	ErrInvalidConfiguration = errors.New("invalid capture configuration")
)

// EventType names a session event.
type EventType string

const (
	EventStarted      EventType = "started"
	EventDurationTick EventType = "duration_tick"
	EventStopped      EventType = "stopped"
	EventError        EventType = "error"
)

// Event is one entry of a session's event stream.
type Event struct {
	Type      EventType              `json:"type"`
	SessionID string                 `json:"session_id"`
	At        time.Time              `json:"at"`
	Elapsed   int                    `json:"elapsed_seconds"`     // DurationTick, Stopped
	Requested bool                   `json:"requested,omitempty"` // Stopped: whether Stop was called
	Exit      *processmgr.ExitStatus `json:"exit,omitempty"`      // Stopped
	Message   string                 `json:"message,omitempty"`   // Error
}

// Terminal reports whether e is the last event of its session.
func (e Event) Terminal() bool { return e.Type == EventStopped || e.Type == EventError }

// Timings are the controller's time constants, all derived from one unit.
type Timings struct {
	Unit      time.Duration // elapsed-seconds granularity
	Grace     time.Duration // wait after the quit key
	Terminate time.Duration // wait after terminate
	Tick      time.Duration // monitor cadence
}

// DefaultTimeUnit is one second; tests shrink it.
const DefaultTimeUnit = time.Second

// TimingsFromUnit derives Grace = 5u, Terminate = 2u and Tick = 1u.
func TimingsFromUnit(unit time.Duration) Timings {
	if unit <= 0 {
		unit = DefaultTimeUnit
	}
	return Timings{
		Unit:      unit,
		Grace:     5 * unit,
		Terminate: 2 * unit,
		Tick:      unit,
	}
}

// SessionStatus is a point-in-time snapshot of a session.
type SessionStatus struct {
	ID             string                 `json:"id"`
	State          State                  `json:"state"`
	StartedAt      *time.Time             `json:"started_at,omitempty"`
	EndedAt        *time.Time             `json:"ended_at,omitempty"`
	ElapsedSeconds int                    `json:"elapsed_seconds"`
	OutputPath     string                 `json:"output_path"`
	Argv           []string               `json:"argv"`
	Pid            int                    `json:"pid,omitempty"`
	Requested      bool                   `json:"requested"`
	Exit           *processmgr.ExitStatus `json:"exit,omitempty"`
	Error          string                 `json:"error,omitempty"`
}

// Session is the caller's view of one recording. All mutable fields are
// guarded by the owning Recorder's mutex.
type Session struct {
	id     string
	argv   []string
	output string
	events chan Event

	state     State
	startedAt time.Time
	endedAt   time.Time
	elapsed   int
	requested bool
	handle    processmgr.Handle
	exit      *processmgr.ExitStatus
	errMsg    string
}

func (s *Session) ID() string { return s.id }

// Events is the session's event stream; it is closed after the terminal event.
func (s *Session) Events() <-chan Event { return s.events }

// Argv is the exact process argv the session was spawned with.
func (s *Session) Argv() []string { return append([]string(nil), s.argv...) }

func (s *Session) status() SessionStatus {
	st := SessionStatus{
		ID:             s.id,
		State:          s.state,
		ElapsedSeconds: s.elapsed,
		OutputPath:     s.output,
		Argv:           append([]string(nil), s.argv...),
		Requested:      s.requested,
		Exit:           s.exit,
		Error:          s.errMsg,
	}
	if !s.startedAt.IsZero() {
		t := s.startedAt
		st.StartedAt = &t
	}
	if !s.endedAt.IsZero() {
		t := s.endedAt
		st.EndedAt = &t
	}
	if s.handle != nil && !s.state.Terminal() {
		st.Pid = s.handle.Pid()
	}
	return st
}

// RecorderOptions configures a Recorder. Zero values take defaults.
type RecorderOptions struct {
	Binary      string  // encoder executable; default "ffmpeg"
	Timings     Timings // default TimingsFromUnit(DefaultTimeUnit)
	EventBuffer int     // per-session event channel capacity; default 64, min 2
	Metrics     *observability.Metrics
	// OnFinish is called once per session, after its terminal event.
	OnFinish func(Record)
	Now      func() time.Time
}

func (o *RecorderOptions) setDefaults() {
	if o.Binary == "" {
		o.Binary = "ffmpeg"
	}
	if o.Timings.Unit <= 0 {
		o.Timings = TimingsFromUnit(DefaultTimeUnit)
	}
	if o.EventBuffer <= 0 {
		o.EventBuffer = 64
	}
	if o.EventBuffer < 2 {
		o.EventBuffer = 2
	}
	if o.Now == nil {
		o.Now = time.Now
	}
}

// Recorder is the recording session controller.
type Recorder struct {
	log      *zap.Logger
	platform ffmpegcmd.Platform
	spawner  processmgr.Spawner
	opts     RecorderOptions

	mu    sync.Mutex
	state State
	cur   *Session // active session; nil when idle
	last  *Session // most recently finished session

	active int        // in-flight Start calls + monitor and escalation goroutines
	idle   *sync.Cond // signalled on every active decrement; L is &mu
}

// NewRecorder wires a controller to its platform vocabulary and spawner.
func NewRecorder(log *zap.Logger, platform ffmpegcmd.Platform, spawner processmgr.Spawner, opts RecorderOptions) *Recorder {
	opts.setDefaults()
	r := &Recorder{
		log:      log.Named("recorder"),
		platform: platform,
		spawner:  spawner,
		opts:     opts,
		state:    StateIdle,
	}
	r.idle = sync.NewCond(&r.mu)
	return r
}

// Timings returns the controller's time constants.
func (r *Recorder) Timings() Timings { return r.opts.Timings }

// State returns the controller state.
func (r *Recorder) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// Status returns the active session, or the last finished one. ok is false
// when no session has ever run.
func (r *Recorder) Status() (st SessionStatus, ok bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s := r.cur
	if s == nil {
		s = r.last
	}
	if s == nil {
		return SessionStatus{State: r.state}, false
	}
	return s.status(), true
}

// Preview synthesizes the argv Start would spawn for cfg, without spawning.
func (r *Recorder) Preview(cfg capture.Configuration) (*ffmpegcmd.Command, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfiguration, err)
	}
	return ffmpegcmd.Synthesize(&cfg, r.platform), nil
}

// Binary is the encoder executable sessions are spawned with.
func (r *Recorder) Binary() string { return r.opts.Binary }

// Start validates cfg, synthesizes the encoder command and spawns it.
//
// Configuration errors and ErrSessionActive are returned synchronously with no
// state change. A spawn failure is not returned: the session ends Failed and
// its stream carries exactly one Error event.
func (r *Recorder) Start(cfg capture.Configuration) (*Session, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfiguration, err)
	}

	r.mu.Lock()
	if r.state != StateIdle {
		r.mu.Unlock()
		return nil, ErrSessionActive
	}
	cmd := ffmpegcmd.Synthesize(&cfg, r.platform)
	sess := &Session{
		id:     uuid.NewString(),
		argv:   cmd.Argv(r.opts.Binary),
		output: cmd.OutputPath(),
		events: make(chan Event, r.opts.EventBuffer),
		state:  StateStarting,
	}
	r.state = StateStarting
	r.cur = sess
	r.active++
	r.mu.Unlock()
	defer r.done()

	log := r.log.With(zap.String("session_id", sess.id))
	log.Info("starting recording",
		zap.String("platform", r.platform.Name()),
		zap.String("output", sess.output),
		zap.Strings("argv", sess.argv))

	h, err := r.spawner.Spawn(sess.id, sess.argv)
	if err != nil {
		log.Error("spawn failed", zap.Error(err))
		r.opts.Metrics.SpawnFailed()
		r.finish(sess, StateFailed, nil, fmt.Sprintf("spawn encoder: %v", err))
		return sess, nil
	}

	r.mu.Lock()
	sess.handle = h
	sess.startedAt = r.opts.Now()
	sess.state = StateRecording
	r.state = StateRecording
	sess.events <- Event{Type: EventStarted, SessionID: sess.id, At: sess.startedAt}
	r.active++
	r.mu.Unlock()

	r.opts.Metrics.SessionStarted()
	log.Info("recording started", zap.Int("cmd_pid", h.Pid()))

	go r.monitor(sess, h)
	return sess, nil
}

// Stop requests a graceful shutdown of the recording session and returns
// immediately. Valid only while Recording.
func (r *Recorder) Stop() error {
	r.mu.Lock()
	if r.state != StateRecording {
		r.mu.Unlock()
		return ErrNotRecording
	}
	sess := r.cur
	sess.state = StateStopping
	sess.requested = true
	r.state = StateStopping
	h := sess.handle
	r.active++
	r.mu.Unlock()

	go r.escalate(sess.id, h)
	return nil
}

// Wait blocks until no Start call is in flight and every monitor and
// escalation goroutine has returned.
func (r *Recorder) Wait() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for r.active > 0 {
		r.idle.Wait()
	}
}

// awaitStart blocks while a Start call is between Idle and Recording.
func (r *Recorder) awaitStart() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for r.state == StateStarting {
		r.idle.Wait()
	}
}

func (r *Recorder) done() {
	r.mu.Lock()
	r.active--
	r.idle.Broadcast()
	r.mu.Unlock()
}

// escalate drives quit → terminate → kill, stopping as soon as the process
// exits. Signal errors are logged and never abort the escalation.
func (r *Recorder) escalate(sessionID string, h processmgr.Handle) {
	defer r.done()

	log := r.log.With(zap.String("session_id", sessionID), zap.Int("cmd_pid", h.Pid()))
	t := r.opts.Timings

	r.opts.Metrics.Escalation("quit")
	if err := h.Quit(); err != nil {
		log.Warn("quit request failed; escalating to terminate", zap.Error(err))
	} else if h.Wait(t.Grace) {
		log.Info("encoder exited after quit")
		return
	} else {
		log.Warn("encoder ignored quit", zap.Duration("grace", t.Grace))
	}

	r.opts.Metrics.Escalation("terminate")
	if err := h.Terminate(); err != nil {
		log.Warn("terminate request failed", zap.Error(err))
	}
	if h.Wait(t.Terminate) {
		log.Info("encoder exited after terminate")
		return
	}

	r.opts.Metrics.Escalation("kill")
	log.Warn("encoder ignored terminate; killing", zap.Duration("timeout", t.Terminate))
	if err := h.Kill(); err != nil {
		log.Error("kill request failed", zap.Error(err))
	}
}

// monitor emits duration ticks until the process exits, then finishes the
// session as Stopped regardless of exit code.
func (r *Recorder) monitor(sess *Session, h processmgr.Handle) {
	defer r.done()

	t := r.opts.Timings
	ticker := time.NewTicker(t.Tick)
	defer ticker.Stop()

	last := -1
	tick := func() {
		now := r.opts.Now()
		elapsed := int(now.Sub(sess.startedAt) / t.Unit)
		if elapsed <= last {
			return
		}
		last = elapsed

		r.mu.Lock()
		sess.elapsed = elapsed
		r.mu.Unlock()

		// Keep the last slot free for the terminal event.
		if len(sess.events) < cap(sess.events)-1 {
			sess.events <- Event{Type: EventDurationTick, SessionID: sess.id, At: now, Elapsed: elapsed}
		}
	}

	tick()
	for {
		select {
		case <-h.Done():
			status := h.ExitStatus()
			r.finish(sess, StateStopped, &status, "")
			return
		case <-ticker.C:
			tick()
		}
	}
}

// finish records the terminal state, emits the terminal event, closes the
// stream and returns the recorder to Idle.
func (r *Recorder) finish(sess *Session, state State, exit *processmgr.ExitStatus, errMsg string) {
	r.mu.Lock()
	now := r.opts.Now()
	sess.state = state
	sess.endedAt = now
	sess.exit = exit
	sess.errMsg = errMsg
	if !sess.startedAt.IsZero() {
		sess.elapsed = int(now.Sub(sess.startedAt) / r.opts.Timings.Unit)
	}

	ev := Event{Type: EventStopped, SessionID: sess.id, At: now, Elapsed: sess.elapsed, Requested: sess.requested, Exit: exit}
	if state == StateFailed {
		ev = Event{Type: EventError, SessionID: sess.id, At: now, Message: errMsg}
	}
	sess.events <- ev
	close(sess.events)

	r.state = StateIdle
	r.cur = nil
	r.last = sess
	rec := sess.record()
	r.mu.Unlock()

	fields := []zap.Field{zap.String("session_id", sess.id), zap.String("state", string(state)), zap.Bool("requested", sess.requested)}
	if exit != nil {
		fields = append(fields, zap.Int("exit_code", exit.Code), zap.String("signal", exit.Signal))
	}
	if state == StateStopped && !sess.requested {
		r.log.Warn("encoder exited without a stop request", fields...)
	} else {
		r.log.Info("recording finished", fields...)
	}

	r.opts.Metrics.SessionFinished(string(state), sess.requested, rec.DurationSeconds)
	if r.opts.OnFinish != nil {
		r.opts.OnFinish(rec)
	}
}
