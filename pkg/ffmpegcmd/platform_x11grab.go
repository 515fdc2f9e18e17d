package ffmpegcmd

import (
	"fmt"
	"strconv"

	"github.com/edirooss/zrec-server/internal/domain/capture"
)

// defaultVideoSize is used when a screen source carries no resolution hint.
const defaultVideoSize = "1920x1080"

// X11Grab is the Linux/BSD vocabulary: x11grab for screens and window regions,
// v4l2 for cameras, PulseAudio for audio.
type X11Grab struct {
	// Display is the X11 display used for window-region capture and for screen
	// sources without an id.
	Display string
}

// NewX11Grab returns an X11Grab bound to display ($DISPLAY or ":0" if empty).
func NewX11Grab(display string) X11Grab {
	if display == "" {
		display = DefaultDisplay()
	}
	return X11Grab{Display: display}
}

func (X11Grab) Name() string { return PlatformX11Grab }

func (p X11Grab) VideoInput(b *Builder, c *capture.Configuration) {
	fps := strconv.Itoa(c.FrameRate)

	if c.Mode == capture.ModeWindow {
		g := c.Window.Geometry
		if g.Width <= 0 || g.Height <= 0 {
			g.Width, g.Height = capture.DefaultGeometry.Width, capture.DefaultGeometry.Height
		}
		size := fmt.Sprintf("%dx%d", evenDim(g.Width), evenDim(g.Height))
		target := fmt.Sprintf("%s+%d,%d", p.Display, g.X, g.Y)
		b.WithInput("x11grab", target, "-framerate", fps, "-video_size", size)
		return
	}

	v := c.Video
	if v != nil && v.Kind == capture.VideoKindCamera {
		b.WithInput("v4l2", v.ID, "-framerate", fps)
		return
	}

	display, size := p.Display, defaultVideoSize
	if v != nil {
		if v.ID != "" {
			display = v.ID
		}
		if w, h, err := capture.ParseResolution(v.ResolutionHint); err == nil {
			size = fmt.Sprintf("%dx%d", evenDim(w), evenDim(h))
		}
	}
	b.WithInput("x11grab", display+"+0,0", "-framerate", fps, "-video_size", size)
}

func (X11Grab) AudioInput(b *Builder, src capture.AudioSource) {
	b.WithInput("pulse", src.ID)
}
