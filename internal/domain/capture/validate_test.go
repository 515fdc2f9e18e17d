package capture

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validDesktop() Configuration {
	return Configuration{
		Mode:       ModeFullDesktop,
		Video:      &VideoSource{ID: ":0", Kind: VideoKindFullDesktop, ResolutionHint: "2560x1440"},
		FrameRate:  30,
		VideoCodec: "libx264",
		AudioCodec: "aac",
		Quality:    QualityHigh,
		OutputPath: "/tmp/out.mp4",
	}
}

func TestValidateAcceptsWellFormed(t *testing.T) {
	t.Parallel()

	c := validDesktop()
	require.NoError(t, c.Validate())

	w := validDesktop()
	w.Mode = ModeWindow
	w.Video = nil
	w.Window = &WindowTarget{TitleOrID: "0x3a00007", Geometry: Geometry{X: 10, Y: 20, Width: 801, Height: 601}}
	require.NoError(t, w.Validate())
}

func TestValidateReportsAllViolations(t *testing.T) {
	t.Parallel()

	c := Configuration{
		Mode:       ModeFullDesktop,
		Microphone: &AudioSource{ID: " "},
		FrameRate:  0,
	}
	err := c.Validate()
	require.Error(t, err)

	msg := err.Error()
	assert.Contains(t, msg, "video.id is required")
	assert.Contains(t, msg, "frame_rate must be within")
	assert.Contains(t, msg, "microphone.id must not be empty")
	assert.Contains(t, msg, "video_codec must not be empty")
	assert.Contains(t, msg, "audio_codec must not be empty")
	assert.Contains(t, msg, "output_path is required")
}

func TestValidateWindowMode(t *testing.T) {
	t.Parallel()

	c := validDesktop()
	c.Mode = ModeWindow
	err := c.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "window.title_or_id is required")

	c.Window = &WindowTarget{TitleOrID: "Terminal", Geometry: Geometry{Width: -1}}
	err = c.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "non-negative")
}

func TestValidateUnknownMode(t *testing.T) {
	t.Parallel()

	c := validDesktop()
	c.Mode = "region"
	err := c.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), `got "region"`)
}

func TestValidateSystemAudioIgnoredWhenFlagOff(t *testing.T) {
	t.Parallel()

	c := validDesktop()
	c.SystemAudio = &AudioSource{ID: ""}
	c.RecordSystemAudio = false
	assert.NoError(t, c.Validate())

	c.RecordSystemAudio = true
	assert.Error(t, c.Validate())
}

func TestParseResolution(t *testing.T) {
	t.Parallel()

	w, h, err := ParseResolution("1920x1080")
	require.NoError(t, err)
	assert.Equal(t, 1920, w)
	assert.Equal(t, 1080, h)

	for _, bad := range []string{"", "1920", "x1080", "0x0", "-5x10"} {
		_, _, err := ParseResolution(bad)
		assert.Error(t, err, bad)
	}
}

func TestAudioSourcesOrder(t *testing.T) {
	t.Parallel()

	mic := &AudioSource{ID: "mic", Role: AudioRoleMicrophone}
	sys := &AudioSource{ID: "sys.monitor", Role: AudioRoleSystemLoopback}

	c := Configuration{Microphone: mic, SystemAudio: sys}
	assert.Equal(t, []AudioSource{*mic}, c.AudioSources())

	c.RecordSystemAudio = true
	assert.Equal(t, []AudioSource{*mic, *sys}, c.AudioSources())

	c.Microphone = nil
	assert.Equal(t, []AudioSource{*sys}, c.AudioSources())
}

func TestWithDefaults(t *testing.T) {
	t.Parallel()

	c := Configuration{OutputPath: "x.mp4"}.WithDefaults()
	assert.Equal(t, ModeFullDesktop, c.Mode)
	assert.Equal(t, DefaultFrameRate, c.FrameRate)
	assert.Equal(t, DefaultVideoCodec, c.VideoCodec)
	assert.Equal(t, DefaultAudioCodec, c.AudioCodec)
	assert.Equal(t, QualityMedium, c.Quality)
}

func TestParseAudioRole(t *testing.T) {
	t.Parallel()

	r, err := ParseAudioRole("mic")
	require.NoError(t, err)
	assert.Equal(t, AudioRoleMicrophone, r)

	r, err = ParseAudioRole("Loopback")
	require.NoError(t, err)
	assert.Equal(t, AudioRoleSystemLoopback, r)

	_, err = ParseAudioRole("speaker")
	assert.Error(t, err)
}
