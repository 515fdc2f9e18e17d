package devices

import (
	"bufio"
	"context"
	"regexp"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/edirooss/zrec-server/internal/domain/capture"
)

const (
	defaultDShowMic      = "Microphone"
	defaultDShowLoopback = "Stereo Mix"
)

// loopbackTerms identify dshow audio devices that capture system output.
var loopbackTerms = []string{"stereo mix", "what u hear", "loopback", "wave out", "mix"}

// skipWindowTerms filter out shell and IME helper windows.
var skipWindowTerms = []string{"Program Manager", "MSCTFIME", "Default IME", "Windows Input Experience", "TextInputHost"}

const windowTitlesScript = `Get-Process | Where-Object { $_.MainWindowTitle } | ForEach-Object { $_.MainWindowTitle }`

// DShow enumerates a Windows desktop: gdigrab screen, DirectShow devices and
// top-level windows.
type DShow struct {
	log    *zap.Logger
	run    Runner
	ffmpeg string
}

func NewDShow(log *zap.Logger, run Runner, ffmpeg string) *DShow {
	return &DShow{log: log.Named("devices.dshow"), run: run, ffmpeg: ffmpeg}
}

// listDevices runs ffmpeg's dshow listing; ffmpeg always exits non-zero here
// ("dummy" is not an input), so the error is ignored and stderr parsed.
func (d *DShow) listDevices(ctx context.Context, kind string) []string {
	_, stderr, err := d.run.Run(ctx, 15*time.Second, d.ffmpeg, "-hide_banner", "-list_devices", "true", "-f", "dshow", "-i", "dummy")
	if len(stderr) == 0 && err != nil {
		d.log.Debug("dshow listing failed", zap.Error(err))
		return nil
	}
	return parseDShowDevices(string(stderr), kind)
}

func (d *DShow) ListVideoSources(ctx context.Context) []capture.VideoSource {
	out := []capture.VideoSource{{ID: "desktop", DisplayName: "Full Desktop", Kind: capture.VideoKindFullDesktop}}
	for _, dev := range d.listDevices(ctx, "video") {
		out = append(out, capture.VideoSource{ID: dev, DisplayName: "Camera: " + shortName(dev), Kind: capture.VideoKindCamera})
	}
	return out
}

func (d *DShow) ListAudioSources(ctx context.Context, role capture.AudioRole) []capture.AudioSource {
	devs := d.listDevices(ctx, "audio")

	out := []capture.AudioSource{}
	if role == capture.AudioRoleSystemLoopback {
		for _, dev := range devs {
			if isLoopbackName(dev) {
				out = append(out, capture.AudioSource{ID: dev, DisplayName: dev + " (System Audio)", Role: role})
			}
		}
		if len(out) == 0 {
			out = append(out, capture.AudioSource{ID: defaultDShowLoopback, DisplayName: "Stereo Mix (Enable in Sound Settings)", Role: role})
		}
		return out
	}

	for _, dev := range devs {
		out = append(out, capture.AudioSource{ID: dev, DisplayName: dev, Role: role})
	}
	if len(out) == 0 {
		out = append(out, capture.AudioSource{ID: defaultDShowMic, DisplayName: "Default Microphone", Role: role})
	}
	return out
}

// ListWindows returns visible top-level windows by title; gdigrab captures by
// title, so the title is also the id. Geometry is the default guess.
func (d *DShow) ListWindows(ctx context.Context) []capture.WindowTarget {
	out, _, err := d.run.Run(ctx, 10*time.Second, "powershell", "-NoProfile", "-NonInteractive", "-Command", windowTitlesScript)
	if err != nil {
		d.log.Debug("window listing failed", zap.Error(err))
		return []capture.WindowTarget{}
	}

	windows := []capture.WindowTarget{}
	for _, title := range parseWindowTitles(string(out)) {
		windows = append(windows, capture.WindowTarget{TitleOrID: title, Title: title, Geometry: capture.DefaultGeometry})
	}
	return windows
}

var quotedRe = regexp.MustCompile(`"([^"]+)"`)

// parseDShowDevices extracts device names of one kind ("video" or "audio")
// from `ffmpeg -list_devices true -f dshow` output. Both the legacy sectioned
// format ("DirectShow video devices") and the newer per-line "(video)" /
// "(audio)" suffix format are understood. Alternative names ("@device_...")
// are skipped.
func parseDShowDevices(out, kind string) []string {
	var devs []string
	header := "directshow " + kind + " devices"
	inSection := false

	sc := bufio.NewScanner(strings.NewReader(out))
	for sc.Scan() {
		line := sc.Text()
		lower := strings.ToLower(line)

		if strings.Contains(lower, "directshow") && strings.Contains(lower, "devices") {
			inSection = strings.Contains(lower, header)
			continue
		}

		m := quotedRe.FindStringSubmatch(line)
		if m == nil || strings.HasPrefix(m[1], "@") {
			continue
		}
		switch {
		case strings.HasSuffix(strings.TrimSpace(lower), "("+kind+")"):
			devs = append(devs, m[1])
		case inSection && !strings.HasSuffix(strings.TrimSpace(lower), ")"):
			devs = append(devs, m[1])
		}
	}
	return devs
}

func isLoopbackName(name string) bool {
	lower := strings.ToLower(name)
	for _, t := range loopbackTerms {
		if strings.Contains(lower, t) {
			return true
		}
	}
	return false
}

// parseWindowTitles returns unique, non-system window titles in input order.
func parseWindowTitles(out string) []string {
	seen := make(map[string]struct{})
	var titles []string

	sc := bufio.NewScanner(strings.NewReader(out))
next:
	for sc.Scan() {
		title := strings.TrimSpace(sc.Text())
		if title == "" {
			continue
		}
		if _, dup := seen[title]; dup {
			continue
		}
		for _, skip := range skipWindowTerms {
			if strings.Contains(title, skip) {
				continue next
			}
		}
		seen[title] = struct{}{}
		titles = append(titles, title)
	}
	return titles
}
