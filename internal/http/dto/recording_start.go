package dto

import (
	"errors"

	"github.com/edirooss/zrec-server/internal/domain/capture"
	"github.com/edirooss/zrec-server/pkg/jsonx"
)

// RecordingStart is the DTO for POST /api/recordings and
// POST /api/commands/preview. All fields are optional; defaults applied.
type RecordingStart struct {
	Mode              jsonx.Field[capture.Mode]         `json:"mode"`                //   optional; "full_desktop" | "window"       (default: "full_desktop")
	Video             jsonx.Field[capture.VideoSource]  `json:"video"`               //   optional; object | null                   (default: null)
	Window            jsonx.Field[capture.WindowTarget] `json:"window"`              //   optional; object | null                   (default: null)
	Microphone        jsonx.Field[AudioSourceRef]       `json:"microphone"`          //   optional; object | null                   (default: null)
	SystemAudio       jsonx.Field[AudioSourceRef]       `json:"system_audio"`        //   optional; object | null                   (default: null)
	RecordSystemAudio jsonx.Field[bool]                 `json:"record_system_audio"` //   optional; bool                            (default: system_audio != null)
	FrameRate         jsonx.Field[int]                  `json:"frame_rate"`          //   optional; int                             (default: 30)
	VideoCodec        jsonx.Field[string]               `json:"video_codec"`         //   optional; string                          (default: "libx264")
	AudioCodec        jsonx.Field[string]               `json:"audio_codec"`         //   optional; string                          (default: "aac")
	Quality           jsonx.Field[capture.QualityLevel] `json:"quality"`             //   optional; low|medium|high|lossless        (default: "medium")
	OutputPath        jsonx.Field[string]               `json:"output_path"`         //   required; string
}

// AudioSourceRef names an audio device. The role is implied by the field it
// appears in.
type AudioSourceRef struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
}

// ToConfiguration maps RecordingStart → capture.Configuration.
// Disallows explicit null assignment to non-nullable fields.
// Semantic validation is left to capture.Configuration.Validate.
func (req *RecordingStart) ToConfiguration() (capture.Configuration, error) {
	var cfg capture.Configuration

	for name, f := range map[string]interface{ IsNull() bool }{
		"mode":                req.Mode,
		"record_system_audio": req.RecordSystemAudio,
		"frame_rate":          req.FrameRate,
		"video_codec":         req.VideoCodec,
		"audio_codec":         req.AudioCodec,
		"quality":             req.Quality,
		"output_path":         req.OutputPath,
	} {
		if f.IsNull() {
			return cfg, errors.New(name + " cannot be null")
		}
	}

	cfg.Mode = req.Mode.Or("")
	cfg.Video = req.Video.Value()
	cfg.Window = req.Window.Value()

	if ref := req.Microphone.Value(); ref != nil {
		cfg.Microphone = ref.source(capture.AudioRoleMicrophone)
	}
	if ref := req.SystemAudio.Value(); ref != nil {
		cfg.SystemAudio = ref.source(capture.AudioRoleSystemLoopback)
	}
	cfg.RecordSystemAudio = req.RecordSystemAudio.Or(cfg.SystemAudio != nil)

	cfg.FrameRate = req.FrameRate.Or(0)
	cfg.VideoCodec = req.VideoCodec.Or("")
	cfg.AudioCodec = req.AudioCodec.Or("")
	cfg.Quality = req.Quality.Or("")
	cfg.OutputPath = req.OutputPath.Or("")

	return cfg.WithDefaults(), nil
}

func (r AudioSourceRef) source(role capture.AudioRole) *capture.AudioSource {
	name := r.DisplayName
	if name == "" {
		name = r.ID
	}
	return &capture.AudioSource{ID: r.ID, DisplayName: name, Role: role}
}
