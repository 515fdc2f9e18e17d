//go:build unix && !linux

package processmgr

import (
	"os/exec"
	"syscall"
)

// setSysProcAttr isolates the child into its own process group.
func setSysProcAttr(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
}
