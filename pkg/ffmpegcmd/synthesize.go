package ffmpegcmd

import (
	"fmt"
	"strings"

	"github.com/edirooss/zrec-server/internal/domain/capture"
)

const (
	audioBitrate    = "192k"
	audioSampleRate = "44100"
	pixelFormat     = "yuv420p"
	mixedAudioLabel = "aout"
)

// Synthesize maps a capture configuration onto an ffmpeg command for the given
// platform. It is total for configurations that passed Validate and never
// performs I/O. A nil platform is a programming error and panics.
//
// Token layout:
//
//	<video input> <audio input>* [-filter_complex <amix graph>] -map ... \
//	-c:v <codec> -crf <q> -preset <p> -pix_fmt yuv420p [-c:a <codec> -b:a 192k -ar 44100] <output>
func Synthesize(c *capture.Configuration, p Platform) *Command {
	if p == nil {
		panic("ffmpegcmd: Synthesize called with nil platform")
	}

	b := NewBuilder()

	// 1) Video input, always index 0.
	p.VideoInput(b, c)

	// 2) Audio inputs, indices 1..n.
	audio := c.AudioSources()
	for _, src := range audio {
		p.AudioInput(b, src)
	}

	// 3) Mixing / mapping. The filter graph precedes the maps consuming it.
	switch n := len(audio); {
	case n == 0:
		b.WithMap("0:v")
	case n == 1:
		b.WithMap("0:v").WithMap("1:a")
	default:
		refs := make([]string, n)
		for i := range refs {
			refs[i] = fmt.Sprintf("%d:a", i+1)
		}
		b.WithFlag("-filter_complex", MixGraph(refs, mixedAudioLabel)).
			WithMap("0:v").
			WithMap("[" + mixedAudioLabel + "]")
	}

	// 4) Encoder parameters.
	q := c.Quality.Params()
	b.WithFlag("-c:v", c.VideoCodec).
		WithIntFlag("-crf", q.CRF).
		WithFlag("-preset", q.Preset).
		WithFlag("-pix_fmt", pixelFormat)
	if len(audio) > 0 {
		b.WithFlag("-c:a", c.AudioCodec).
			WithFlag("-b:a", audioBitrate).
			WithFlag("-ar", audioSampleRate)
	}

	// 5) Output path, last.
	b.WithString(c.OutputPath)

	return &Command{
		platform:   p.Name(),
		args:       b.Build(),
		outputPath: c.OutputPath,
		audioCount: len(audio),
	}
}

// MixGraph builds an amix filter graph over the given stream references, e.g.
// MixGraph([]string{"1:a", "2:a"}, "aout") ==
// "[1:a][2:a]amix=inputs=2:duration=longest:dropout_transition=2[aout]".
func MixGraph(refs []string, label string) string {
	var sb strings.Builder
	for _, r := range refs {
		sb.WriteString("[" + r + "]")
	}
	fmt.Fprintf(&sb, "amix=inputs=%d:duration=longest:dropout_transition=2[%s]", len(refs), label)
	return sb.String()
}
