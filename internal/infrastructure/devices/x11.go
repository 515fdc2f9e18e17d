package devices

import (
	"bufio"
	"context"
	"fmt"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/edirooss/zrec-server/internal/domain/capture"
	"github.com/edirooss/zrec-server/pkg/ffmpegcmd"
)

const (
	defaultResolution  = "1920x1080"
	defaultPulseSource = "default"
	defaultMonitor     = "@DEFAULT_MONITOR@"
	maxXdotoolWindows  = 30
)

// X11 enumerates an X11/PulseAudio desktop.
type X11 struct {
	log     *zap.Logger
	run     Runner
	display string
	glob    func(pattern string) ([]string, error)
}

func NewX11(log *zap.Logger, run Runner, display string) *X11 {
	if display == "" {
		display = ffmpegcmd.DefaultDisplay()
	}
	return &X11{
		log:     log.Named("devices.x11"),
		run:     run,
		display: display,
		glob:    filepath.Glob,
	}
}

// ListVideoSources returns the X11 screen (resolution from xdpyinfo, falling
// back to 1920x1080) followed by /dev/video* cameras.
func (x *X11) ListVideoSources(ctx context.Context) []capture.VideoSource {
	res := ""
	if out, _, err := x.run.Run(ctx, 5*time.Second, "xdpyinfo"); err == nil {
		res = parseXdpyinfoDimensions(string(out))
	} else {
		x.log.Debug("xdpyinfo failed", zap.Error(err))
	}

	screen := capture.VideoSource{
		ID:             x.display,
		DisplayName:    fmt.Sprintf("Full Desktop (%s)", res),
		Kind:           capture.VideoKindFullDesktop,
		ResolutionHint: res,
	}
	if res == "" {
		screen.DisplayName = "Full Desktop (Default)"
		screen.ResolutionHint = defaultResolution
	}
	out := []capture.VideoSource{screen}

	cams, err := x.glob("/dev/video*")
	if err != nil {
		x.log.Debug("camera glob failed", zap.Error(err))
	}
	sort.Strings(cams)
	for _, dev := range cams {
		out = append(out, capture.VideoSource{
			ID:          dev,
			DisplayName: "Camera: " + filepath.Base(dev),
			Kind:        capture.VideoKindCamera,
		})
	}
	return out
}

// ListAudioSources returns PulseAudio sources: non-monitor sources for
// microphones, ".monitor" sources for loopback.
func (x *X11) ListAudioSources(ctx context.Context, role capture.AudioRole) []capture.AudioSource {
	var names []string
	if out, _, err := x.run.Run(ctx, 10*time.Second, "pactl", "list", "sources", "short"); err == nil {
		names = parsePactlSources(string(out))
	} else {
		x.log.Debug("pactl failed", zap.Error(err))
	}

	out := []capture.AudioSource{}
	for _, name := range names {
		monitor := strings.Contains(name, ".monitor")
		switch {
		case role == capture.AudioRoleMicrophone && !monitor:
			out = append(out, capture.AudioSource{ID: name, DisplayName: name, Role: role})
		case role == capture.AudioRoleSystemLoopback && monitor:
			out = append(out, capture.AudioSource{
				ID:          name,
				DisplayName: strings.Replace(name, ".monitor", " (System)", 1),
				Role:        role,
			})
		}
	}

	if len(out) == 0 {
		switch role {
		case capture.AudioRoleSystemLoopback:
			out = append(out, capture.AudioSource{ID: defaultMonitor, DisplayName: "System Audio (Default Monitor)", Role: role})
		default:
			out = append(out, capture.AudioSource{ID: defaultPulseSource, DisplayName: defaultPulseSource, Role: role})
		}
	}
	return out
}

// ListWindows lists top-level windows via wmctrl, falling back to xdotool
// when wmctrl is missing, fails or times out. Geometry comes from xwininfo,
// defaulting to the full-HD guess.
func (x *X11) ListWindows(ctx context.Context) []capture.WindowTarget {
	type entry struct{ id, title string }
	var entries []entry

	if out, _, err := x.run.Run(ctx, 5*time.Second, "wmctrl", "-l"); err == nil {
		for _, w := range parseWmctrl(string(out)) {
			entries = append(entries, entry{w[0], w[1]})
		}
	} else {
		x.log.Debug("wmctrl unusable; trying xdotool", zap.Error(err))
		ids, _, err := x.run.Run(ctx, 5*time.Second, "xdotool", "search", "--name", "")
		if err != nil {
			x.log.Debug("xdotool unusable", zap.Error(err))
		}
		for _, id := range parseXdotoolIDs(string(ids), maxXdotoolWindows) {
			name, _, err := x.run.Run(ctx, 2*time.Second, "xdotool", "getwindowname", id)
			if title := strings.TrimSpace(string(name)); err == nil && title != "" {
				entries = append(entries, entry{id, title})
			}
		}
	}

	windows := []capture.WindowTarget{}
	for _, e := range entries {
		g := capture.DefaultGeometry
		if info, _, err := x.run.Run(ctx, 3*time.Second, "xwininfo", "-id", e.id); err == nil {
			g = parseXwininfo(string(info))
		}
		windows = append(windows, capture.WindowTarget{TitleOrID: e.id, Title: e.title, Geometry: g})
	}
	return windows
}

var dimensionsRe = regexp.MustCompile(`dimensions:\s+(\d+x\d+)`)

// parseXdpyinfoDimensions extracts "WxH" from xdpyinfo output ("" if absent).
func parseXdpyinfoDimensions(out string) string {
	if m := dimensionsRe.FindStringSubmatch(out); m != nil {
		return m[1]
	}
	return ""
}

// parsePactlSources returns the name column of `pactl list sources short`.
func parsePactlSources(out string) []string {
	var names []string
	sc := bufio.NewScanner(strings.NewReader(out))
	for sc.Scan() {
		parts := strings.Split(sc.Text(), "\t")
		if len(parts) >= 2 && strings.TrimSpace(parts[1]) != "" {
			names = append(names, strings.TrimSpace(parts[1]))
		}
	}
	return names
}

// parseWmctrl returns [id, title] pairs from `wmctrl -l`; untitled windows
// are skipped. Titles keep their inner whitespace.
func parseWmctrl(out string) [][2]string {
	var res [][2]string
	sc := bufio.NewScanner(strings.NewReader(out))
	for sc.Scan() {
		// id, desktop, host, title
		head, title, ok := cutFields(sc.Text(), 3)
		if !ok || title == "" || title == "N/A" {
			continue
		}
		res = append(res, [2]string{head[0], title})
	}
	return res
}

// cutFields splits off the first n whitespace-separated fields and returns the
// remainder with its leading whitespace removed. ok is false when the line has
// fewer than n+1 fields.
func cutFields(line string, n int) (head []string, rest string, ok bool) {
	rest = line
	for i := 0; i < n; i++ {
		rest = strings.TrimLeft(rest, " \t")
		j := strings.IndexAny(rest, " \t")
		if j < 0 {
			return nil, "", false
		}
		head = append(head, rest[:j])
		rest = rest[j:]
	}
	rest = strings.TrimLeft(rest, " \t")
	return head, rest, rest != ""
}

// parseXdotoolIDs returns up to limit window ids.
func parseXdotoolIDs(out string, limit int) []string {
	ids := strings.Fields(out)
	if len(ids) > limit {
		ids = ids[:limit]
	}
	return ids
}

// parseXwininfo extracts absolute position and size; missing fields keep the
// default geometry's values.
func parseXwininfo(out string) capture.Geometry {
	g := capture.DefaultGeometry
	sc := bufio.NewScanner(strings.NewReader(out))
	for sc.Scan() {
		key, val, ok := strings.Cut(strings.TrimSpace(sc.Text()), ":")
		if !ok {
			continue
		}
		n, err := strconv.Atoi(strings.TrimSpace(val))
		if err != nil {
			continue
		}
		switch key {
		case "Absolute upper-left X":
			g.X = n
		case "Absolute upper-left Y":
			g.Y = n
		case "Width":
			g.Width = n
		case "Height":
			g.Height = n
		}
	}
	return g
}
