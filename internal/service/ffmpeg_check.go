package service

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/edirooss/zrec-server/internal/infrastructure/processmgr"
)

const ffmpegCheckTimeout = 10 * time.Second

// CheckFFmpeg runs `<path> -version` and returns its first output line, e.g.
// "ffmpeg version 6.1.1-3ubuntu5 Copyright (c) 2000-2023 the FFmpeg developers".
func CheckFFmpeg(ctx context.Context, path string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, ffmpegCheckTimeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, path, "-version")
	processmgr.PrepareCommand(cmd)

	out, err := cmd.Output()
	if err != nil {
		return "", fmt.Errorf("%s -version: %w", path, err)
	}

	line, _, _ := bufio.NewReader(bytes.NewReader(out)).ReadLine()
	if v := strings.TrimSpace(string(line)); v != "" {
		return v, nil
	}
	return "", fmt.Errorf("%s -version: empty output", path)
}

// ToolCheck is the availability of one external program.
type ToolCheck struct {
	Name  string `json:"name"`
	Path  string `json:"path,omitempty"`
	Found bool   `json:"found"`
}

// LookTools resolves each name on $PATH.
func LookTools(names []string) []ToolCheck {
	out := make([]ToolCheck, 0, len(names))
	for _, n := range names {
		p, err := exec.LookPath(n)
		out = append(out, ToolCheck{Name: n, Path: p, Found: err == nil})
	}
	return out
}
