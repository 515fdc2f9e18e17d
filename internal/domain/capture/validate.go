package capture

import (
	"errors"
	"fmt"
	"strings"
)

const (
	MaxFrameRate     = 240
	maxOutputPathLen = 4096
)

// Validate enforces the semantic rules of a capture configuration at the
// system boundary (HTTP, CLI). Synthesis itself never fails; it relies on
// callers having validated.
//
// All violations are reported together via errors.Join.
func (c *Configuration) Validate() error {
	var errs []error

	switch c.Mode {
	case ModeFullDesktop:
		if c.Video == nil || strings.TrimSpace(c.Video.ID) == "" {
			errs = append(errs, errors.New("video.id is required in full_desktop mode"))
		} else if c.Video.ResolutionHint != "" {
			if _, _, err := ParseResolution(c.Video.ResolutionHint); err != nil {
				errs = append(errs, fmt.Errorf("video.resolution_hint: %w", err))
			}
		}
	case ModeWindow:
		if c.Window == nil || strings.TrimSpace(c.Window.TitleOrID) == "" {
			errs = append(errs, errors.New("window.title_or_id is required in window mode"))
		} else {
			g := c.Window.Geometry
			if g.Width < 0 || g.Height < 0 {
				errs = append(errs, errors.New("window.geometry width/height must be non-negative"))
			}
		}
	default:
		errs = append(errs, fmt.Errorf("mode must be one of [%s, %s], got %q", ModeFullDesktop, ModeWindow, c.Mode))
	}

	if c.FrameRate < 1 || c.FrameRate > MaxFrameRate {
		errs = append(errs, fmt.Errorf("frame_rate must be within [1, %d]", MaxFrameRate))
	}

	if c.Microphone != nil && strings.TrimSpace(c.Microphone.ID) == "" {
		errs = append(errs, errors.New("microphone.id must not be empty"))
	}
	if c.RecordSystemAudio && c.SystemAudio != nil && strings.TrimSpace(c.SystemAudio.ID) == "" {
		errs = append(errs, errors.New("system_audio.id must not be empty"))
	}

	if strings.TrimSpace(c.VideoCodec) == "" {
		errs = append(errs, errors.New("video_codec must not be empty"))
	}
	if len(c.AudioSources()) > 0 && strings.TrimSpace(c.AudioCodec) == "" {
		errs = append(errs, errors.New("audio_codec must not be empty when audio is recorded"))
	}

	switch {
	case strings.TrimSpace(c.OutputPath) == "":
		errs = append(errs, errors.New("output_path is required"))
	case len(c.OutputPath) > maxOutputPathLen:
		errs = append(errs, fmt.Errorf("output_path must be at most %d characters", maxOutputPathLen))
	}

	return errors.Join(errs...)
}

// ParseResolution parses a "WxH" resolution string.
func ParseResolution(s string) (w, h int, err error) {
	if _, err := fmt.Sscanf(s, "%dx%d", &w, &h); err != nil {
		return 0, 0, fmt.Errorf("invalid resolution %q (want WxH)", s)
	}
	if w <= 0 || h <= 0 {
		return 0, 0, fmt.Errorf("invalid resolution %q (dimensions must be positive)", s)
	}
	return w, h, nil
}
