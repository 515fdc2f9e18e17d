package ffmpegcmd

import (
	"strconv"

	"github.com/edirooss/zrec-server/internal/domain/capture"
)

// GDIGrab is the Windows vocabulary: gdigrab for screens and windows, dshow for
// cameras and audio devices.
type GDIGrab struct{}

func (GDIGrab) Name() string { return PlatformGDIGrab }

func (GDIGrab) VideoInput(b *Builder, c *capture.Configuration) {
	fps := strconv.Itoa(c.FrameRate)

	if c.Mode == capture.ModeWindow {
		b.WithInput("gdigrab", "title="+c.Window.TitleOrID, "-framerate", fps)
		return
	}

	if c.Video != nil && c.Video.Kind == capture.VideoKindCamera {
		b.WithInput("dshow", "video="+c.Video.ID, "-framerate", fps)
		return
	}
	b.WithInput("gdigrab", "desktop", "-framerate", fps)
}

func (GDIGrab) AudioInput(b *Builder, src capture.AudioSource) {
	b.WithInput("dshow", "audio="+src.ID)
}
