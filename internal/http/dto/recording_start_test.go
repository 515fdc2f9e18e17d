package dto

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edirooss/zrec-server/internal/domain/capture"
)

func decode(t *testing.T, body string) RecordingStart {
	t.Helper()
	var req RecordingStart
	require.NoError(t, json.Unmarshal([]byte(body), &req))
	return req
}

func TestToConfiguration_Defaults(t *testing.T) {
	req := decode(t, `{"video":{"id":":0","kind":"full_desktop"},"output_path":"/tmp/a.mp4"}`)

	cfg, err := req.ToConfiguration()
	require.NoError(t, err)
	assert.Equal(t, capture.ModeFullDesktop, cfg.Mode)
	assert.Equal(t, 30, cfg.FrameRate)
	assert.Equal(t, "libx264", cfg.VideoCodec)
	assert.Equal(t, "aac", cfg.AudioCodec)
	assert.Equal(t, capture.QualityMedium, cfg.Quality)
	assert.Nil(t, cfg.Microphone)
	assert.False(t, cfg.RecordSystemAudio)
	assert.NoError(t, cfg.Validate())
}

func TestToConfiguration_AudioRoles(t *testing.T) {
	req := decode(t, `{
		"video":{"id":":0","kind":"full_desktop"},
		"microphone":{"id":"alsa_input.usb"},
		"system_audio":{"id":"alsa_output.monitor","display_name":"Speakers"},
		"output_path":"/tmp/a.mp4"
	}`)

	cfg, err := req.ToConfiguration()
	require.NoError(t, err)
	require.NotNil(t, cfg.Microphone)
	assert.Equal(t, capture.AudioRoleMicrophone, cfg.Microphone.Role)
	assert.Equal(t, "alsa_input.usb", cfg.Microphone.DisplayName)
	require.NotNil(t, cfg.SystemAudio)
	assert.Equal(t, capture.AudioRoleSystemLoopback, cfg.SystemAudio.Role)
	assert.True(t, cfg.RecordSystemAudio, "system_audio implies record_system_audio")
	assert.Len(t, cfg.AudioSources(), 2)
}

func TestToConfiguration_ExplicitSystemAudioOff(t *testing.T) {
	req := decode(t, `{
		"video":{"id":":0","kind":"full_desktop"},
		"system_audio":{"id":"x.monitor"},
		"record_system_audio":false,
		"output_path":"/tmp/a.mp4"
	}`)

	cfg, err := req.ToConfiguration()
	require.NoError(t, err)
	assert.False(t, cfg.RecordSystemAudio)
	assert.Empty(t, cfg.AudioSources())
}

func TestToConfiguration_NullMicrophoneAllowed(t *testing.T) {
	req := decode(t, `{"video":{"id":":0","kind":"full_desktop"},"microphone":null,"output_path":"/tmp/a.mp4"}`)
	cfg, err := req.ToConfiguration()
	require.NoError(t, err)
	assert.Nil(t, cfg.Microphone)
}

func TestToConfiguration_NullNotAllowed(t *testing.T) {
	for _, field := range []string{"mode", "frame_rate", "quality", "output_path", "record_system_audio"} {
		t.Run(field, func(t *testing.T) {
			req := decode(t, `{"`+field+`":null}`)
			_, err := req.ToConfiguration()
			assert.ErrorContains(t, err, field+" cannot be null")
		})
	}
}
