//go:build windows

package processmgr

import (
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"syscall"

	"golang.org/x/sys/windows"
)

// setSysProcAttr keeps the child from opening a console window.
func setSysProcAttr(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{
		HideWindow:    true,
		CreationFlags: windows.CREATE_NO_WINDOW,
	}
}

// terminate asks the process tree to close via taskkill (no /F).
func terminate(p *os.Process) error {
	return taskkill(p.Pid, false)
}

// kill force-kills the process tree, falling back to TerminateProcess.
func kill(p *os.Process) error {
	if err := taskkill(p.Pid, true); err != nil {
		return p.Kill()
	}
	return nil
}

func taskkill(pid int, force bool) error {
	args := []string{"/T", "/PID", strconv.Itoa(pid)}
	if force {
		args = append([]string{"/F"}, args...)
	}
	cmd := exec.Command("taskkill", args...)
	setSysProcAttr(cmd)
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("taskkill: %w: %s", err, out)
	}
	return nil
}

func exitSignal(*os.ProcessState) string { return "" }
