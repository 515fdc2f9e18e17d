package devices

import (
	"bytes"
	"context"
	"os/exec"
	"time"

	"github.com/edirooss/zrec-server/internal/infrastructure/processmgr"
)

// Runner executes a probe command and returns its captured output.
type Runner interface {
	Run(ctx context.Context, timeout time.Duration, name string, args ...string) (stdout, stderr []byte, err error)
}

// ExecRunner runs probes as real processes, each bounded by its timeout.
type ExecRunner struct{}

func (ExecRunner) Run(ctx context.Context, timeout time.Duration, name string, args ...string) ([]byte, []byte, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, name, args...)
	processmgr.PrepareCommand(cmd)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	err := cmd.Run()
	return stdout.Bytes(), stderr.Bytes(), err
}
