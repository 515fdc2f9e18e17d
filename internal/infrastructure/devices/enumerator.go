// Package devices discovers capturable screens, cameras, audio sources and
// windows by probing platform tools (xdpyinfo, pactl, wmctrl, ffmpeg dshow,
// PowerShell).
//
// Enumeration is best-effort: every list is non-nil and falls back to a sane
// default entry when the probing tool is missing or fails.
package devices

import (
	"context"
	"fmt"
	"unicode/utf8"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/edirooss/zrec-server/internal/domain/capture"
	"github.com/edirooss/zrec-server/pkg/ffmpegcmd"
)

// Enumerator lists capture sources for one platform family.
type Enumerator interface {
	ListVideoSources(ctx context.Context) []capture.VideoSource
	ListAudioSources(ctx context.Context, role capture.AudioRole) []capture.AudioSource
	ListWindows(ctx context.Context) []capture.WindowTarget
}

// Inventory is a full snapshot of everything capturable.
type Inventory struct {
	Video       []capture.VideoSource  `json:"video"`
	Microphones []capture.AudioSource  `json:"microphones"`
	Loopback    []capture.AudioSource  `json:"loopback"`
	Windows     []capture.WindowTarget `json:"windows"`
}

// Collect gathers all four lists concurrently.
func Collect(ctx context.Context, e Enumerator) (Inventory, error) {
	var inv Inventory
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		inv.Video = e.ListVideoSources(ctx)
		return ctx.Err()
	})
	g.Go(func() error {
		inv.Microphones = e.ListAudioSources(ctx, capture.AudioRoleMicrophone)
		return ctx.Err()
	})
	g.Go(func() error {
		inv.Loopback = e.ListAudioSources(ctx, capture.AudioRoleSystemLoopback)
		return ctx.Err()
	})
	g.Go(func() error {
		inv.Windows = e.ListWindows(ctx)
		return ctx.Err()
	})

	if err := g.Wait(); err != nil {
		return Inventory{}, fmt.Errorf("collect inventory: %w", err)
	}
	return inv, nil
}

// Options configures the platform enumerators.
type Options struct {
	FFmpegPath string // used for dshow device listing; default "ffmpeg"
	Display    string // X11 display; default $DISPLAY or ":0"
	Runner     Runner // default ExecRunner
}

// New returns the enumerator matching a platform vocabulary.
func New(log *zap.Logger, p ffmpegcmd.Platform, opts Options) (Enumerator, error) {
	if opts.Runner == nil {
		opts.Runner = ExecRunner{}
	}
	if opts.FFmpegPath == "" {
		opts.FFmpegPath = "ffmpeg"
	}

	switch p.Name() {
	case ffmpegcmd.PlatformX11Grab:
		display := opts.Display
		if x, ok := p.(ffmpegcmd.X11Grab); ok && display == "" {
			display = x.Display
		}
		return NewX11(log, opts.Runner, display), nil
	case ffmpegcmd.PlatformGDIGrab:
		return NewDShow(log, opts.Runner, opts.FFmpegPath), nil
	}
	return nil, fmt.Errorf("%w: no enumerator for %q", ffmpegcmd.ErrUnknownPlatform, p.Name())
}

// shortName truncates long titles for display (60 runes + "...").
func shortName(s string) string {
	const max = 60
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	r := []rune(s)
	return string(r[:max]) + "..."
}

// ProbeTools lists the external programs an enumerator family shells out to.
func ProbeTools(p ffmpegcmd.Platform) []string {
	switch p.Name() {
	case ffmpegcmd.PlatformX11Grab:
		return []string{"xdpyinfo", "pactl", "wmctrl", "xdotool", "xwininfo"}
	case ffmpegcmd.PlatformGDIGrab:
		return []string{"powershell"}
	}
	return nil
}
