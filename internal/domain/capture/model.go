package capture

import (
	"fmt"
	"strings"
)

// VideoKind distinguishes screen grabs from camera devices.
type VideoKind string

const (
	VideoKindFullDesktop VideoKind = "full_desktop"
	VideoKindCamera      VideoKind = "camera"
)

// AudioRole distinguishes microphones from system-output loopback sources.
type AudioRole string

const (
	AudioRoleMicrophone     AudioRole = "microphone"
	AudioRoleSystemLoopback AudioRole = "system_loopback"
)

// ParseAudioRole accepts the canonical role names plus the short aliases used
// by the HTTP API and CLI ("mic", "loopback", "system").
func ParseAudioRole(s string) (AudioRole, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "microphone", "mic":
		return AudioRoleMicrophone, nil
	case "system_loopback", "loopback", "system":
		return AudioRoleSystemLoopback, nil
	}
	return "", fmt.Errorf("unknown audio role %q", s)
}

// Mode selects what the video input captures.
type Mode string

const (
	ModeFullDesktop Mode = "full_desktop"
	ModeWindow      Mode = "window"
)

// VideoSource is a capturable screen or camera as reported by the enumerator.
type VideoSource struct {
	ID             string    `json:"id" yaml:"id"`                                               // x11 display (":0"), "desktop", dshow name or /dev/videoN
	DisplayName    string    `json:"display_name" yaml:"display_name"`                           //
	Kind           VideoKind `json:"kind" yaml:"kind"`                                           //
	ResolutionHint string    `json:"resolution_hint,omitempty" yaml:"resolution_hint,omitempty"` // "WxH"; optional
}

// AudioSource is a capturable audio input as reported by the enumerator.
type AudioSource struct {
	ID          string    `json:"id" yaml:"id"`                     // pulse source name or dshow device name
	DisplayName string    `json:"display_name" yaml:"display_name"` //
	Role        AudioRole `json:"role" yaml:"role"`                 //
}

// Geometry is a screen-space rectangle in pixels.
type Geometry struct {
	X      int `json:"x" yaml:"x"`
	Y      int `json:"y" yaml:"y"`
	Width  int `json:"width" yaml:"width"`
	Height int `json:"height" yaml:"height"`
}

// DefaultGeometry is the full-HD guess used when a window's real geometry
// cannot be determined.
var DefaultGeometry = Geometry{X: 0, Y: 0, Width: 1920, Height: 1080}

// WindowTarget is a top-level application window. Geometry is advisory.
type WindowTarget struct {
	TitleOrID string   `json:"title_or_id" yaml:"title_or_id"` // window title (gdigrab) or X11 window id
	Title     string   `json:"title,omitempty" yaml:"title,omitempty"`
	Geometry  Geometry `json:"geometry" yaml:"geometry"`
}

// Configuration is the complete, declarative input of one recording session.
type Configuration struct {
	Mode              Mode          `json:"mode" yaml:"mode"`                                     //
	Video             *VideoSource  `json:"video,omitempty" yaml:"video,omitempty"`               // used when Mode == full_desktop
	Window            *WindowTarget `json:"window,omitempty" yaml:"window,omitempty"`             // used when Mode == window
	Microphone        *AudioSource  `json:"microphone,omitempty" yaml:"microphone,omitempty"`     // nullable
	SystemAudio       *AudioSource  `json:"system_audio,omitempty" yaml:"system_audio,omitempty"` // nullable; gated by RecordSystemAudio
	RecordSystemAudio bool          `json:"record_system_audio" yaml:"record_system_audio"`       //
	FrameRate         int           `json:"frame_rate" yaml:"frame_rate"`                         //
	VideoCodec        string        `json:"video_codec" yaml:"video_codec"`                       //
	AudioCodec        string        `json:"audio_codec" yaml:"audio_codec"`                       //
	Quality           QualityLevel  `json:"quality" yaml:"quality"`                               // unknown values resolve to medium
	OutputPath        string        `json:"output_path" yaml:"output_path"`                       //
}

const (
	DefaultFrameRate  = 30
	DefaultVideoCodec = "libx264"
	DefaultAudioCodec = "aac"
)

// WithDefaults returns a copy with zero-valued encoder fields filled in.
func (c Configuration) WithDefaults() Configuration {
	if c.Mode == "" {
		c.Mode = ModeFullDesktop
	}
	if c.FrameRate == 0 {
		c.FrameRate = DefaultFrameRate
	}
	if c.VideoCodec == "" {
		c.VideoCodec = DefaultVideoCodec
	}
	if c.AudioCodec == "" {
		c.AudioCodec = DefaultAudioCodec
	}
	if c.Quality == "" {
		c.Quality = QualityMedium
	}
	return c
}

// AudioSources returns the audio inputs synthesis will actually open, in
// input-index order: microphone first, then system loopback when requested.
func (c *Configuration) AudioSources() []AudioSource {
	var out []AudioSource
	if c.Microphone != nil {
		out = append(out, *c.Microphone)
	}
	if c.RecordSystemAudio && c.SystemAudio != nil {
		out = append(out, *c.SystemAudio)
	}
	return out
}
