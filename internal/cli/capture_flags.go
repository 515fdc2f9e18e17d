package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/edirooss/zrec-server/internal/domain/capture"
	"github.com/edirooss/zrec-server/pkg/ffmpegcmd"
	"github.com/edirooss/zrec-server/pkg/jsonx"
)

// captureFlags collects a capture.Configuration from the command line, or
// from a YAML/JSON file given with --file (flags that are set explicitly
// override the file).
type captureFlags struct {
	file string

	mode        string
	video       string
	videoKind   string
	resolution  string
	window      string
	geometry    string
	mic         string
	systemAudio string
	fps         int
	vcodec      string
	acodec      string
	quality     string
	output      string
}

func (f *captureFlags) register(cmd *cobra.Command) {
	fl := cmd.Flags()
	fl.StringVarP(&f.file, "file", "f", "", "Capture configuration file (.yaml, .yml or .json)")
	fl.StringVar(&f.mode, "mode", string(capture.ModeFullDesktop), "Capture mode: full_desktop or window")
	fl.StringVar(&f.video, "video", "", "Video source id (default: the platform's desktop)")
	fl.StringVar(&f.videoKind, "video-kind", string(capture.VideoKindFullDesktop), "Video source kind: full_desktop or camera")
	fl.StringVar(&f.resolution, "resolution", "", "Desktop size hint, WxH")
	fl.StringVar(&f.window, "window", "", "Window title (gdigrab) or X11 window id (window mode)")
	fl.StringVar(&f.geometry, "geometry", "", "Window geometry WxH+X+Y (x11grab window mode)")
	fl.StringVar(&f.mic, "mic", "", "Microphone source id")
	fl.StringVar(&f.systemAudio, "system-audio", "", "System-audio loopback source id")
	fl.IntVar(&f.fps, "fps", capture.DefaultFrameRate, "Frame rate")
	fl.StringVar(&f.vcodec, "vcodec", capture.DefaultVideoCodec, "Video codec")
	fl.StringVar(&f.acodec, "acodec", capture.DefaultAudioCodec, "Audio codec")
	fl.StringVarP(&f.quality, "quality", "q", string(capture.QualityMedium), "Quality: low, medium, high or lossless")
	fl.StringVarP(&f.output, "output", "o", "", "Output file (default recording_<timestamp>.mp4)")
}

// configuration builds the capture configuration for platform p.
func (f *captureFlags) configuration(cmd *cobra.Command, p ffmpegcmd.Platform, now time.Time) (capture.Configuration, error) {
	var cfg capture.Configuration
	if f.file != "" {
		c, err := loadCaptureFile(f.file)
		if err != nil {
			return cfg, err
		}
		cfg = c
	}
	changed := func(name string) bool { return f.file == "" || cmd.Flags().Changed(name) }

	if changed("mode") {
		cfg.Mode = capture.Mode(f.mode)
	}
	if changed("video") || changed("video-kind") || changed("resolution") {
		v := capture.VideoSource{
			ID:             f.video,
			Kind:           capture.VideoKind(f.videoKind),
			ResolutionHint: f.resolution,
		}
		if v.ID == "" {
			v.ID = defaultVideoID(p)
		}
		v.DisplayName = v.ID
		cfg.Video = &v
	}
	if f.window != "" {
		w := capture.WindowTarget{TitleOrID: f.window, Title: f.window}
		if f.geometry != "" {
			g, err := parseGeometry(f.geometry)
			if err != nil {
				return cfg, err
			}
			w.Geometry = g
		}
		cfg.Window = &w
	}
	if f.mic != "" {
		cfg.Microphone = &capture.AudioSource{ID: f.mic, DisplayName: f.mic, Role: capture.AudioRoleMicrophone}
	}
	if f.systemAudio != "" {
		cfg.SystemAudio = &capture.AudioSource{ID: f.systemAudio, DisplayName: f.systemAudio, Role: capture.AudioRoleSystemLoopback}
		cfg.RecordSystemAudio = true
	}
	if changed("fps") {
		cfg.FrameRate = f.fps
	}
	if changed("vcodec") {
		cfg.VideoCodec = f.vcodec
	}
	if changed("acodec") {
		cfg.AudioCodec = f.acodec
	}
	if changed("quality") {
		cfg.Quality = capture.QualityLevel(f.quality)
	}
	if f.output != "" {
		cfg.OutputPath = f.output
	}
	if cfg.OutputPath == "" {
		cfg.OutputPath = fmt.Sprintf("recording_%s.mp4", now.Format("20060102_150405"))
	}

	cfg = cfg.WithDefaults()
	return cfg, cfg.Validate()
}

func defaultVideoID(p ffmpegcmd.Platform) string {
	if x, ok := p.(ffmpegcmd.X11Grab); ok {
		return x.Display
	}
	return "desktop"
}

func loadCaptureFile(path string) (capture.Configuration, error) {
	var cfg capture.Configuration

	fh, err := os.Open(path)
	if err != nil {
		return cfg, err
	}
	defer fh.Close()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		err = jsonx.ParseJSONObject(fh, &cfg)
	case ".yaml", ".yml":
		dec := yaml.NewDecoder(fh)
		dec.KnownFields(true)
		err = dec.Decode(&cfg)
	default:
		return cfg, fmt.Errorf("%s: unsupported capture file extension", path)
	}
	if err != nil {
		return cfg, fmt.Errorf("parse %s: %w", path, err)
	}
	return cfg, nil
}

// parseGeometry parses "WxH+X+Y" (the +X+Y part is optional).
func parseGeometry(s string) (capture.Geometry, error) {
	var g capture.Geometry
	size, offset, _ := strings.Cut(s, "+")

	w, h, err := capture.ParseResolution(size)
	if err != nil {
		return g, fmt.Errorf("geometry %q: %w", s, err)
	}
	g.Width, g.Height = w, h

	if offset != "" {
		xs, ys, ok := strings.Cut(offset, "+")
		x, errX := strconv.Atoi(xs)
		y, errY := strconv.Atoi(ys)
		if !ok || errX != nil || errY != nil {
			return g, fmt.Errorf("geometry %q: offset must be +X+Y", s)
		}
		g.X, g.Y = x, y
	}
	return g, nil
}
