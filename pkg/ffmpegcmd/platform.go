package ffmpegcmd

import (
	"errors"
	"fmt"
	"os"
	"runtime"
	"strings"

	"github.com/edirooss/zrec-server/internal/domain/capture"
)

// ErrUnknownPlatform is returned when no capture vocabulary exists for the
// requested platform family.
var ErrUnknownPlatform = errors.New("unknown capture platform")

// Platform contributes the platform-specific input clauses of a recording
// command. Everything else (mapping, mixing, encoder parameters) is shared.
type Platform interface {
	// Name is the ffmpeg screen-grab device family ("gdigrab", "x11grab").
	Name() string

	// VideoInput appends exactly one video input clause (input index 0).
	VideoInput(b *Builder, c *capture.Configuration)

	// AudioInput appends exactly one audio input clause for src.
	AudioInput(b *Builder, src capture.AudioSource)
}

const (
	PlatformAuto    = "auto"
	PlatformGDIGrab = "gdigrab"
	PlatformX11Grab = "x11grab"
)

// PlatformByName selects a Platform once at startup. "auto" (or "") resolves
// from runtime.GOOS. display is the X11 display used by x11grab; when empty it
// falls back to $DISPLAY, then ":0".
func PlatformByName(name, display string) (Platform, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", PlatformAuto:
		return platformForOS(runtime.GOOS, display)
	case PlatformGDIGrab:
		return GDIGrab{}, nil
	case PlatformX11Grab:
		return NewX11Grab(display), nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownPlatform, name)
}

func platformForOS(goos, display string) (Platform, error) {
	switch goos {
	case "windows":
		return GDIGrab{}, nil
	case "linux", "freebsd", "openbsd", "netbsd":
		return NewX11Grab(display), nil
	}
	return nil, fmt.Errorf("%w: no screen-grab vocabulary for %s", ErrUnknownPlatform, goos)
}

// DefaultDisplay returns $DISPLAY or ":0".
func DefaultDisplay() string {
	if d := os.Getenv("DISPLAY"); d != "" {
		return d
	}
	return ":0"
}

// evenDim rounds n up to the nearest even integer. yuv420p needs even
// dimensions.
func evenDim(n int) int {
	if n%2 != 0 {
		return n + 1
	}
	return n
}
