//go:build linux

package processmgr

import (
	"os/exec"
	"syscall"
)

// setSysProcAttr isolates the child into its own process group and makes the
// kernel SIGKILL it if the server dies.
func setSysProcAttr(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{
		Setpgid:   true,
		Pdeathsig: syscall.SIGKILL,
	}
}
