package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/edirooss/zrec-server/internal/domain/capture"
	"github.com/edirooss/zrec-server/internal/service"
)

// failRunner makes every probe fail so enumerators use their fallbacks.
type failRunner struct{}

func (failRunner) Run(context.Context, time.Duration, string, ...string) ([]byte, []byte, error) {
	return nil, nil, errors.New("not available")
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	deps := &Dependencies{Log: zap.NewNop(), Runner: failRunner{}}
	cmd := NewRootCmd(deps)

	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append([]string{"--config", filepath.Join(t.TempDir(), "none.yaml")}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func TestArgv_FromFlags(t *testing.T) {
	out, err := run(t, "argv", "--platform", "x11grab", "--display", ":1",
		"--mic", "default", "--system-audio", "sink.monitor", "-q", "high", "-o", "/tmp/a.mp4", "--json")
	require.NoError(t, err)

	var argv []string
	require.NoError(t, json.Unmarshal([]byte(out), &argv))
	assert.Equal(t, []string{"ffmpeg", "-y", "-f", "x11grab"}, argv[:4])
	assert.Contains(t, argv, ":1+0,0")
	assert.Contains(t, argv, "-filter_complex")
	assert.Contains(t, argv, "18")
	assert.Equal(t, "/tmp/a.mp4", argv[len(argv)-1])
}

func TestArgv_ShellString(t *testing.T) {
	out, err := run(t, "argv", "--platform", "gdigrab", "--ffmpeg", "ffmpeg.exe", "-o", "C:/out.mp4")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "'ffmpeg.exe' '-y' '-f' 'gdigrab'"), out)
	assert.Contains(t, out, "'desktop'")
}

func TestArgv_FromFiles(t *testing.T) {
	dir := t.TempDir()

	yamlPath := filepath.Join(dir, "capture.yaml")
	require.NoError(t, os.WriteFile(yamlPath, []byte(`
mode: window
window:
  title_or_id: "0x3a00007"
  geometry: {x: 10, y: 20, width: 801, height: 600}
frame_rate: 24
quality: low
output_path: /tmp/win.mkv
`), 0o644))

	out, err := run(t, "argv", "--platform", "x11grab", "--display", ":0", "-f", yamlPath, "--json")
	require.NoError(t, err)
	var argv []string
	require.NoError(t, json.Unmarshal([]byte(out), &argv))
	assert.Contains(t, argv, "802x600")
	assert.Contains(t, argv, ":0+10,20")
	assert.Contains(t, argv, "ultrafast")
	assert.Equal(t, "/tmp/win.mkv", argv[len(argv)-1])

	// explicit flags override the file
	out, err = run(t, "argv", "--platform", "x11grab", "-f", yamlPath, "-o", "/tmp/other.mkv", "--json")
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal([]byte(out), &argv))
	assert.Equal(t, "/tmp/other.mkv", argv[len(argv)-1])

	jsonPath := filepath.Join(dir, "capture.json")
	require.NoError(t, os.WriteFile(jsonPath, []byte(`{"mode":"full_desktop","video":{"id":"desktop","kind":"full_desktop"},"output_path":"C:/x.mp4"}`), 0o644))
	out, err = run(t, "argv", "--platform", "gdigrab", "-f", jsonPath)
	require.NoError(t, err)
	assert.Contains(t, out, "'C:/x.mp4'")

	badPath := filepath.Join(dir, "capture.json.bak")
	require.NoError(t, os.WriteFile(badPath, []byte(`{}`), 0o644))
	_, err = run(t, "argv", "-f", badPath)
	assert.ErrorContains(t, err, "unsupported capture file extension")
}

func TestArgv_UnknownFieldInFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "c.yaml")
	require.NoError(t, os.WriteFile(path, []byte("mode: full_desktop\nfps: 30\n"), 0o644))
	_, err := run(t, "argv", "--platform", "x11grab", "-f", path)
	assert.Error(t, err)
}

func TestArgv_InvalidConfiguration(t *testing.T) {
	_, err := run(t, "argv", "--platform", "x11grab", "--mode", "window", "-o", "/tmp/a.mp4")
	assert.ErrorContains(t, err, "window.title_or_id is required")

	_, err = run(t, "argv", "--platform", "x11grab", "--fps", "0", "-o", "/tmp/a.mp4")
	assert.ErrorContains(t, err, "frame_rate")
}

func TestArgv_DefaultOutputName(t *testing.T) {
	out, err := run(t, "argv", "--platform", "x11grab", "--json")
	require.NoError(t, err)
	var argv []string
	require.NoError(t, json.Unmarshal([]byte(out), &argv))
	assert.Regexp(t, `^recording_\d{8}_\d{6}\.mp4$`, argv[len(argv)-1])
}

func TestParseGeometry(t *testing.T) {
	g, err := parseGeometry("800x600+10+20")
	require.NoError(t, err)
	assert.Equal(t, capture.Geometry{X: 10, Y: 20, Width: 800, Height: 600}, g)

	g, err = parseGeometry("640x480")
	require.NoError(t, err)
	assert.Equal(t, capture.Geometry{Width: 640, Height: 480}, g)

	for _, bad := range []string{"", "800", "800x600+1", "800x600+a+b"} {
		_, err := parseGeometry(bad)
		assert.Error(t, err, bad)
	}
}

func TestDevices_Fallbacks(t *testing.T) {
	out, err := run(t, "devices", "--platform", "x11grab", "--display", ":7")
	require.NoError(t, err)
	assert.Contains(t, out, "TYPE")
	assert.Contains(t, out, ":7")
	assert.Contains(t, out, "@DEFAULT_MONITOR@")
}

func TestDoctor_MissingFFmpeg(t *testing.T) {
	out, err := run(t, "doctor", "--platform", "x11grab", "--ffmpeg", "/nonexistent/ffmpeg")
	assert.Error(t, err)
	assert.Contains(t, out, "✗ ffmpeg")
	assert.Contains(t, out, "platform    x11grab")
}

func TestVersion(t *testing.T) {
	out, err := run(t, "version")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "zrec dev"), out)
}

func TestPrintEvent(t *testing.T) {
	var buf bytes.Buffer
	unit := time.Second

	require.NoError(t, printEvent(&buf, service.Event{Type: service.EventDurationTick, Elapsed: 65}, unit, "a.mp4"))
	assert.Equal(t, "\r00:01:05 ", buf.String())

	buf.Reset()
	require.NoError(t, printEvent(&buf, service.Event{Type: service.EventStopped, Requested: true, Elapsed: 3}, unit, "a.mp4"))
	assert.Equal(t, "saved a.mp4 (00:00:03)\n", buf.String())

	err := printEvent(&buf, service.Event{Type: service.EventError, Message: "spawn encoder: boom"}, unit, "a.mp4")
	assert.EqualError(t, err, "spawn encoder: boom")
}

func TestPrintEvent_UnsolicitedExit(t *testing.T) {
	var buf bytes.Buffer
	ev := service.Event{Type: service.EventStopped, Requested: false, Elapsed: 2}
	assert.NoError(t, printEvent(&buf, ev, time.Second, "a.mp4"))
	assert.Contains(t, buf.String(), "exited on its own")
}
