package ffmpegcmd

// Command is an immutable, synthesized ffmpeg invocation. It holds only
// semantic tokens; the binary and the overwrite flag are added by Argv.
type Command struct {
	platform   string
	args       []string
	outputPath string
	audioCount int
}

// Platform reports the vocabulary the command was synthesized for.
func (c *Command) Platform() string { return c.platform }

// OutputPath is the destination file (the last token).
func (c *Command) OutputPath() string { return c.outputPath }

// AudioInputs is the number of audio input clauses.
func (c *Command) AudioInputs() int { return c.audioCount }

// Args returns a copy of the semantic tokens.
func (c *Command) Args() []string {
	out := make([]string, len(c.args))
	copy(out, c.args)
	return out
}

// Argv returns the full process argv: binary, -y, then the semantic tokens.
func (c *Command) Argv(binary string) []string {
	out := make([]string, 0, len(c.args)+2)
	out = append(out, binary, "-y")
	return append(out, c.args...)
}

// String returns a shell-quoted rendering of Argv(binary), suitable for logs
// and copy-paste.
func (c *Command) String(binary string) string {
	return quoteAll(c.Argv(binary))
}
