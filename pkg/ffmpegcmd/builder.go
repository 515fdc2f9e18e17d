// Package ffmpegcmd builds canonical ffmpeg invocations for screen recording.
//
// Design:
//
//   - This layer is a pure "command construction" module: no execution, no I/O.
//     Synthesize maps a capture.Configuration onto an ordered token sequence
//     through a Platform strategy (gdigrab or x11grab vocabulary). The
//     algorithm's shape (video input, audio inputs, mixing/mapping, encoder
//     parameters, output path) lives here once; platforms only contribute
//     input clauses.
//
// Emission policy is deterministic:
//
//   - Equal configurations produce token-for-token equal commands, except for
//     the trailing output path.
//   - The binary name and the overwrite flag (-y) are spawn concerns; they are
//     added by Command.Argv, never by synthesis.
//
// Usage:
//
//	p, _ := ffmpegcmd.PlatformByName("auto", ":0")
//	cmd  := ffmpegcmd.Synthesize(&cfg, p)
//	argv := cmd.Argv("ffmpeg")   // []string{"ffmpeg", "-y", "-f", "x11grab", ...}
//	s    := cmd.String("ffmpeg") // "'ffmpeg' '-y' '-f' 'x11grab' ..."
package ffmpegcmd

import (
	"strconv"
	"strings"
)

// Builder accumulates ffmpeg tokens.
//
// The Builder implements a fluent API; it is NOT concurrency-safe.
// Treat a Builder as a single-use, short-lived value.
type Builder struct {
	args []string
}

// NewBuilder returns an empty Builder.
func NewBuilder() *Builder {
	return &Builder{}
}

// WithFlag appends flag and value if the value is non-empty.
func (b *Builder) WithFlag(flag, val string) *Builder {
	if val != "" {
		b.args = append(b.args, flag, val)
	}
	return b
}

// WithIntFlag appends a flag with a base-10 int value (always emitted).
func (b *Builder) WithIntFlag(flag string, val int) *Builder {
	b.args = append(b.args, flag, strconv.Itoa(val))
	return b
}

// WithInput appends one input clause: [-f format] [extra...] -i target.
// extra is emitted verbatim between the format and the -i sentinel.
func (b *Builder) WithInput(format string, target string, extra ...string) *Builder {
	b.WithFlag("-f", format)
	b.args = append(b.args, extra...)
	b.args = append(b.args, "-i", target)
	return b
}

// WithMap appends a -map clause.
func (b *Builder) WithMap(stream string) *Builder {
	return b.WithFlag("-map", stream)
}

// WithString appends a positional argument if non-empty.
func (b *Builder) WithString(arg string) *Builder {
	if arg != "" {
		b.args = append(b.args, arg)
	}
	return b
}

// Build returns a defensive copy of the accumulated tokens.
func (b *Builder) Build() []string {
	out := make([]string, len(b.args))
	copy(out, b.args)
	return out
}

// shQuote returns a POSIX-safe single-quoted token.
//
// Empty strings become "''" to preserve round-trippability.
func shQuote(s string) string {
	if s == "" {
		return "''"
	}
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}

// quoteAll shell-quotes and space-joins argv.
func quoteAll(argv []string) string {
	quoted := make([]string, len(argv))
	for i, a := range argv {
		quoted[i] = shQuote(a)
	}
	return strings.Join(quoted, " ")
}
