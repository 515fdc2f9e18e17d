package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/edirooss/zrec-server/internal/domain/capture"
	"github.com/edirooss/zrec-server/internal/infrastructure/devices"
)

// DeviceCatalog returns the capturable-source inventory with a small
// in-memory cache.
// Primary use case: populate source dropdowns in a UI without re-probing
// pactl/xdpyinfo/ffmpeg on every request.
//
// Design choices:
// - Read-heavy usage => RWMutex; return copies so callers cannot mutate the cache.
// - TTL is configurable; Invalidate forces a refresh (e.g. after plugging a mic).
type DeviceCatalog struct {
	enum devices.Enumerator

	mu      sync.RWMutex
	cache   *devices.Inventory
	expires time.Time
	ttl     time.Duration
	now     func() time.Time // for tests; default time.Now
}

// DefaultDeviceTTL is the inventory cache lifetime.
const DefaultDeviceTTL = 15 * time.Second

// NewDeviceCatalog wraps an enumerator; ttl <= 0 takes DefaultDeviceTTL.
func NewDeviceCatalog(enum devices.Enumerator, ttl time.Duration) *DeviceCatalog {
	if ttl <= 0 {
		ttl = DefaultDeviceTTL
	}
	return &DeviceCatalog{enum: enum, ttl: ttl, now: time.Now}
}

// Invalidate clears the cache so the next call re-probes immediately.
func (s *DeviceCatalog) Invalidate() {
	s.mu.Lock()
	s.cache = nil
	s.expires = time.Time{}
	s.mu.Unlock()
}

// Inventory returns the (cached) full inventory.
func (s *DeviceCatalog) Inventory(ctx context.Context) (devices.Inventory, error) {
	// Fast path: read lock when cache is fresh
	s.mu.RLock()
	if s.cache != nil && s.now().Before(s.expires) {
		inv := cloneInventory(*s.cache)
		s.mu.RUnlock()
		return inv, nil
	}
	s.mu.RUnlock()

	// Slow path: refresh
	s.mu.Lock()
	defer s.mu.Unlock()

	// Another goroutine could have already refreshed; re-check
	if s.cache != nil && s.now().Before(s.expires) {
		return cloneInventory(*s.cache), nil
	}

	inv, err := devices.Collect(ctx, s.enum)
	if err != nil {
		return devices.Inventory{}, fmt.Errorf("enumerate devices: %w", err)
	}
	s.cache = &inv
	s.expires = s.now().Add(s.ttl)
	return cloneInventory(inv), nil
}

// Video returns the cached video sources.
func (s *DeviceCatalog) Video(ctx context.Context) ([]capture.VideoSource, error) {
	inv, err := s.Inventory(ctx)
	return inv.Video, err
}

// Audio returns the cached audio sources of one role.
func (s *DeviceCatalog) Audio(ctx context.Context, role capture.AudioRole) ([]capture.AudioSource, error) {
	inv, err := s.Inventory(ctx)
	if role == capture.AudioRoleSystemLoopback {
		return inv.Loopback, err
	}
	return inv.Microphones, err
}

// Windows returns the cached window list.
func (s *DeviceCatalog) Windows(ctx context.Context) ([]capture.WindowTarget, error) {
	inv, err := s.Inventory(ctx)
	return inv.Windows, err
}

func cloneInventory(in devices.Inventory) devices.Inventory {
	return devices.Inventory{
		Video:       append([]capture.VideoSource{}, in.Video...),
		Microphones: append([]capture.AudioSource{}, in.Microphones...),
		Loopback:    append([]capture.AudioSource{}, in.Loopback...),
		Windows:     append([]capture.WindowTarget{}, in.Windows...),
	}
}
