package service

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edirooss/zrec-server/internal/domain/capture"
)

type countingEnumerator struct {
	calls atomic.Int32
}

func (e *countingEnumerator) ListVideoSources(context.Context) []capture.VideoSource {
	e.calls.Add(1)
	return []capture.VideoSource{{ID: ":0", DisplayName: "Screen :0", Kind: capture.VideoKindFullDesktop}}
}

func (e *countingEnumerator) ListAudioSources(_ context.Context, role capture.AudioRole) []capture.AudioSource {
	if role == capture.AudioRoleSystemLoopback {
		return []capture.AudioSource{{ID: "sink.monitor", Role: role}}
	}
	return []capture.AudioSource{{ID: "mic", Role: role}}
}

func (e *countingEnumerator) ListWindows(context.Context) []capture.WindowTarget {
	return []capture.WindowTarget{{TitleOrID: "0x1", Title: "Terminal", Geometry: capture.DefaultGeometry}}
}

func TestDeviceCatalog_CachesUntilTTL(t *testing.T) {
	enum := &countingEnumerator{}
	cat := NewDeviceCatalog(enum, time.Minute)

	now := time.Unix(1_700_000_000, 0)
	cat.now = func() time.Time { return now }

	ctx := context.Background()
	_, err := cat.Inventory(ctx)
	require.NoError(t, err)
	_, err = cat.Video(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, enum.calls.Load())

	now = now.Add(2 * time.Minute)
	_, err = cat.Inventory(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 2, enum.calls.Load())

	cat.Invalidate()
	_, err = cat.Inventory(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 3, enum.calls.Load())
}

func TestDeviceCatalog_ReturnsCopies(t *testing.T) {
	cat := NewDeviceCatalog(&countingEnumerator{}, 0)
	ctx := context.Background()

	v, err := cat.Video(ctx)
	require.NoError(t, err)
	v[0].ID = "mutated"

	again, err := cat.Video(ctx)
	require.NoError(t, err)
	assert.Equal(t, ":0", again[0].ID)
}

func TestDeviceCatalog_AudioByRole(t *testing.T) {
	cat := NewDeviceCatalog(&countingEnumerator{}, 0)
	ctx := context.Background()

	mics, err := cat.Audio(ctx, capture.AudioRoleMicrophone)
	require.NoError(t, err)
	require.Len(t, mics, 1)
	assert.Equal(t, "mic", mics[0].ID)

	loop, err := cat.Audio(ctx, capture.AudioRoleSystemLoopback)
	require.NoError(t, err)
	require.Len(t, loop, 1)
	assert.Equal(t, "sink.monitor", loop[0].ID)

	wins, err := cat.Windows(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Terminal", wins[0].Title)
}

func TestDeviceCatalog_CancelledContext(t *testing.T) {
	cat := NewDeviceCatalog(&countingEnumerator{}, 0)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := cat.Inventory(ctx)
	assert.Error(t, err)
}
