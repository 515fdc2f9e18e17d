package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/edirooss/zrec-server/internal/domain/capture"
	"github.com/edirooss/zrec-server/internal/infrastructure/processmgr"
	"github.com/edirooss/zrec-server/pkg/ffmpegcmd"
)

type failingHistory struct{ MemoryHistory }

func (*failingHistory) Append(context.Context, Record) error { return errors.New("store down") }

func newTestService(sp processmgr.Spawner, history HistoryStore, onFinish func(Record)) *RecordingService {
	return NewRecordingService(
		zap.NewNop(),
		ffmpegcmd.X11Grab{Display: ":0"},
		sp,
		processmgr.NewLogManager(4),
		history,
		RecorderOptions{Binary: "ffmpeg", Timings: TimingsFromUnit(testUnit), OnFinish: onFinish},
	)
}

func collectUntilTerminal(t *testing.T, ch <-chan Event, within time.Duration) []Event {
	t.Helper()
	var out []Event
	deadline := time.After(within)
	for {
		select {
		case ev, ok := <-ch:
			require.True(t, ok, "hub closed before terminal event")
			out = append(out, ev)
			if ev.Terminal() {
				return out
			}
		case <-deadline:
			t.Fatalf("no terminal event within %s", within)
			return out
		}
	}
}

func TestRecordingService_StartStopPersistsHistory(t *testing.T) {
	h := newFakeHandle("quit")
	history := NewMemoryHistory(10)

	chained := make(chan Record, 1)
	svc := newTestService(&fakeSpawner{handle: h}, history, func(r Record) { chained <- r })

	events, cancel := svc.Subscribe(64)
	defer cancel()

	st, err := svc.Start(testConfig())
	require.NoError(t, err)
	assert.NotEmpty(t, st.ID)
	assert.Equal(t, "ffmpeg", st.Argv[0])

	cur, ok := svc.Current()
	require.True(t, ok)
	assert.Equal(t, st.ID, cur.ID)

	require.NoError(t, svc.Stop())
	evs := collectUntilTerminal(t, events, time.Second)
	assert.Equal(t, EventStarted, evs[0].Type)
	last := evs[len(evs)-1]
	assert.Equal(t, EventStopped, last.Type)
	assert.True(t, last.Requested)

	ctx, cancelCtx := context.WithTimeout(context.Background(), time.Second)
	defer cancelCtx()
	require.NoError(t, svc.Shutdown(ctx))

	recs, err := svc.History(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, st.ID, recs[0].ID)
	assert.Equal(t, StateStopped, recs[0].State)

	select {
	case r := <-chained:
		assert.Equal(t, st.ID, r.ID)
	default:
		t.Fatal("caller OnFinish hook not chained")
	}
}

func TestRecordingService_HistoryFailureIsNotFatal(t *testing.T) {
	h := newFakeHandle("quit")
	chained := make(chan Record, 1)
	svc := newTestService(&fakeSpawner{handle: h}, &failingHistory{}, func(r Record) { chained <- r })

	_, err := svc.Start(testConfig())
	require.NoError(t, err)
	require.NoError(t, svc.Stop())

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, svc.Shutdown(ctx))

	select {
	case <-chained:
	default:
		t.Fatal("OnFinish must still run when the history append fails")
	}
}

func TestRecordingService_StartAppliesDefaults(t *testing.T) {
	sp := &fakeSpawner{handle: newFakeHandle("quit")}
	svc := newTestService(sp, NewMemoryHistory(1), nil)

	cfg := testConfig()
	cfg.FrameRate, cfg.VideoCodec, cfg.AudioCodec, cfg.Quality = 0, "", "", ""

	st, err := svc.Start(cfg)
	require.NoError(t, err)
	assert.Contains(t, st.Argv, "libx264")
	assert.Contains(t, st.Argv, "23") // medium CRF

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, svc.Shutdown(ctx))
}

func TestRecordingService_StartRejectsInvalid(t *testing.T) {
	sp := &fakeSpawner{handle: newFakeHandle("quit")}
	svc := newTestService(sp, NewMemoryHistory(1), nil)

	cfg := testConfig()
	cfg.OutputPath = ""
	_, err := svc.Start(cfg)
	assert.ErrorIs(t, err, ErrInvalidConfiguration)
	assert.Zero(t, sp.spawned)

	require.NoError(t, svc.Shutdown(context.Background()))
}

func TestRecordingService_ShutdownStopsActiveRecording(t *testing.T) {
	h := newFakeHandle("quit")
	svc := newTestService(&fakeSpawner{handle: h}, NewMemoryHistory(1), nil)

	events, _ := svc.Subscribe(64)
	_, err := svc.Start(testConfig())
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, svc.Shutdown(ctx))

	assert.Equal(t, []string{"quit"}, h.Calls())
	assert.Equal(t, StateIdle, svc.Recorder().State())

	// hub is closed after shutdown
	for range events {
	}
}

// gatedSpawner holds Spawn until release is closed.
type gatedSpawner struct {
	*fakeSpawner
	entered chan struct{}
	release chan struct{}
}

func (s *gatedSpawner) Spawn(id string, argv []string) (processmgr.Handle, error) {
	close(s.entered)
	<-s.release
	return s.fakeSpawner.Spawn(id, argv)
}

func TestRecordingService_ShutdownWhileStarting(t *testing.T) {
	h := newFakeHandle("quit")
	sp := &gatedSpawner{
		fakeSpawner: &fakeSpawner{handle: h},
		entered:     make(chan struct{}),
		release:     make(chan struct{}),
	}
	history := NewMemoryHistory(4)
	svc := newTestService(sp, history, nil)

	started := make(chan error, 1)
	go func() {
		_, err := svc.Start(testConfig())
		started <- err
	}()
	<-sp.entered
	require.Equal(t, StateStarting, svc.Recorder().State())

	shut := make(chan error, 1)
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		shut <- svc.Shutdown(ctx)
	}()

	time.Sleep(20 * time.Millisecond)
	close(sp.release)

	require.NoError(t, <-started)
	require.NoError(t, <-shut)
	assert.Equal(t, []string{"quit"}, h.Calls())
	assert.Equal(t, StateIdle, svc.Recorder().State())

	recs, err := history.List(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.True(t, recs[0].Requested)
}

func TestRecordingService_Preview(t *testing.T) {
	svc := newTestService(&fakeSpawner{}, NewMemoryHistory(1), nil)
	defer svc.Shutdown(context.Background())

	cmd, err := svc.Preview(testConfig())
	require.NoError(t, err)
	assert.Equal(t, "x11grab", cmd.Platform())
	assert.Equal(t, "ffmpeg", svc.Binary())

	_, err = svc.Preview(capture.Configuration{})
	assert.ErrorIs(t, err, ErrInvalidConfiguration)
}

func TestRecordingService_LogsUnknownSession(t *testing.T) {
	svc := newTestService(&fakeSpawner{}, NewMemoryHistory(1), nil)
	defer svc.Shutdown(context.Background())

	_, ok := svc.Logs("nope", 10)
	assert.False(t, ok)
}
