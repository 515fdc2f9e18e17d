// Package processmgr spawns and supervises encoder processes.
//
// A Handle wraps one child process with:
//   - race-free pipe setup (stdin/stdout/stderr)
//   - continuous stdout/stderr draining into a bounded per-session buffer
//   - a graceful quit request over stdin ("q", flushed)
//   - platform-specific terminate/kill (process group on Unix, taskkill on Windows)
//   - a Done() channel closed exactly once, after the child is reaped
//
// Canonical usage:
//
//	h, err := spawner.Spawn(sessionID, argv)
//	h.Quit()            → h.Wait(grace)
//	h.Terminate()       → h.Wait(grace)
//	h.Kill()
//	<-h.Done(); h.ExitStatus()
package processmgr

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"sync"
	"time"

	"go.uber.org/zap"
)

// ErrProcessExited is returned by control requests issued after the child has
// been reaped.
var ErrProcessExited = errors.New("process already exited")

// ExitStatus describes how a child terminated. Code is -1 when the process was
// killed by a signal or could not be waited on.
type ExitStatus struct {
	Code   int    `json:"code"`
	Signal string `json:"signal,omitempty"`
	Err    string `json:"error,omitempty"`
}

// Success reports a zero exit code.
func (s ExitStatus) Success() bool { return s.Code == 0 && s.Err == "" }

// Handle is the controller's view of a running encoder process.
type Handle interface {
	Pid() int
	// Quit writes the graceful-quit key to stdin and flushes it.
	Quit() error
	// Terminate asks the process (group) to exit.
	Terminate() error
	// Kill forcibly ends the process (group).
	Kill() error
	// Wait blocks until the process exits or timeout elapses; it reports
	// whether the process has exited.
	Wait(timeout time.Duration) bool
	// Done is closed once the process has been reaped.
	Done() <-chan struct{}
	// ExitStatus is valid after Done is closed.
	ExitStatus() ExitStatus
	// Logs returns the last n lines of combined stdout/stderr.
	Logs(n int) []string
}

// Spawner starts encoder processes.
type Spawner interface {
	Spawn(sessionID string, argv []string) (Handle, error)
}

// ExecSpawner spawns real OS processes via os/exec.
type ExecSpawner struct {
	log  *zap.Logger
	logs *LogManager
}

// NewExecSpawner returns a Spawner whose children's output is recorded in logs.
func NewExecSpawner(log *zap.Logger, logs *LogManager) *ExecSpawner {
	return &ExecSpawner{log: log.Named("spawner"), logs: logs}
}

// Spawn starts argv[0] with argv[1:] detached from any console, in its own
// process group, with stdin writable and stdout/stderr captured.
func (s *ExecSpawner) Spawn(sessionID string, argv []string) (Handle, error) {
	if len(argv) == 0 {
		return nil, errors.New("spawn: empty argv")
	}

	cmd := exec.Command(argv[0], argv[1:]...)
	stdout, stderr, stdin, err := pipes(cmd)
	if err != nil {
		return nil, err
	}
	setSysProcAttr(cmd)

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("spawn %s: %w", argv[0], err)
	}

	p := &process{
		log:    s.log.With(zap.String("session_id", sessionID), zap.Int("cmd_pid", cmd.Process.Pid)),
		logBuf: s.logs.get(sessionID),
		cmd:    cmd,
		stdin:  stdin,
		stdinW: bufio.NewWriter(stdin),
		done:   make(chan struct{}),
	}
	p.log.Info("process started", zap.Strings("argv", argv))

	go p.supervise(stdout, stderr)
	return p, nil
}

// process is the os/exec backed Handle.
type process struct {
	log    *zap.Logger
	logBuf *logBuffer

	cmd *exec.Cmd

	// Guards stdin against concurrent writes and post-exit close.
	stdinMu sync.Mutex
	stdin   io.WriteCloser
	stdinW  *bufio.Writer

	// Closed after the process is fully reaped; status is set before.
	done   chan struct{}
	status ExitStatus
}

func (p *process) Pid() int              { return p.cmd.Process.Pid }
func (p *process) Done() <-chan struct{} { return p.done }
func (p *process) Logs(n int) []string   { return p.logBuf.Tail(n) }

func (p *process) exited() bool {
	select {
	case <-p.done:
		return true
	default:
		return false
	}
}

// supervise drains both pipes, reaps the child once, records its exit status,
// closes stdin and fires Done.
func (p *process) supervise(stdout, stderr io.Reader) {
	var wg sync.WaitGroup
	wg.Add(2)
	go func() { defer wg.Done(); p.drain("stdout", stdout) }()
	go func() { defer wg.Done(); p.drain("stderr", stderr) }()

	// exec.Cmd.Wait closes the pipes; all reads must complete first.
	wg.Wait()

	err := p.cmd.Wait()
	status := ExitStatus{Code: -1}
	if ps := p.cmd.ProcessState; ps != nil {
		status.Code = ps.ExitCode()
		status.Signal = exitSignal(ps)
	}

	var eerr *exec.ExitError
	switch {
	case err == nil:
		p.log.Info("process exited cleanly")
	case errors.As(err, &eerr):
		p.log.Info("process exited with error status",
			zap.Int("exit_code", status.Code),
			zap.String("signal", status.Signal))
	default:
		status.Err = err.Error()
		p.log.Error("failed to wait for process", zap.Error(err))
	}

	p.stdinMu.Lock()
	if p.stdin != nil {
		_ = p.stdin.Close()
		p.stdin = nil
	}
	p.status = status
	close(p.done)
	p.stdinMu.Unlock()
}

// drain streams one pipe into the shared log buffer. ffmpeg rewrites its
// progress line with '\r', so both '\r' and '\n' terminate a line.
func (p *process) drain(pipe string, r io.Reader) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 1024*1024)
	sc.Split(scanLines)

	for sc.Scan() {
		if line := sc.Text(); line != "" {
			p.logBuf.Append(line)
		}
	}

	if err := sc.Err(); err != nil {
		p.log.Warn("pipe scanner failure", zap.String("pipe", pipe), zap.Error(err))
	}
}

// scanLines is bufio.ScanLines that also splits on a bare '\r'.
func scanLines(data []byte, atEOF bool) (advance int, token []byte, err error) {
	if atEOF && len(data) == 0 {
		return 0, nil, nil
	}
	if i := bytes.IndexAny(data, "\r\n"); i >= 0 {
		return i + 1, data[:i], nil
	}
	if atEOF {
		return len(data), data, nil
	}
	return 0, nil, nil
}

// Quit writes "q" to the child's stdin and flushes it.
func (p *process) Quit() error {
	p.stdinMu.Lock()
	defer p.stdinMu.Unlock()

	if p.exited() || p.stdin == nil {
		return ErrProcessExited
	}

	if _, err := p.stdinW.WriteString("q"); err != nil {
		return fmt.Errorf("write quit key: %w", err)
	}
	if err := p.stdinW.Flush(); err != nil {
		return fmt.Errorf("flush quit key: %w", err)
	}

	p.log.Info("quit key written to stdin")
	return nil
}

func (p *process) Terminate() error {
	if p.exited() {
		return ErrProcessExited
	}
	p.log.Info("sending terminate")
	return terminate(p.cmd.Process)
}

func (p *process) Kill() error {
	if p.exited() {
		return ErrProcessExited
	}
	p.log.Warn("sending kill")
	return kill(p.cmd.Process)
}

func (p *process) Wait(timeout time.Duration) bool {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-p.done:
		return true
	case <-timer.C:
		return false
	}
}

func (p *process) ExitStatus() ExitStatus {
	p.stdinMu.Lock()
	defer p.stdinMu.Unlock()
	return p.status
}

// pipes prepares stdin, stdout and stderr for exec.Cmd.
//
//   - StdoutPipe(), StderrPipe(), and StdinPipe() each create an os.Pipe().
//   - exec.Cmd does NOT own these pipes until Start() succeeds; if Start()
//     fails, exec.Cmd closes all pipe ends itself.
//
// If any pipe fails, all previously-created pipes are closed and no file
// descriptors leak.
func pipes(cmd *exec.Cmd) (io.ReadCloser, io.ReadCloser, io.WriteCloser, error) {
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, nil, nil, fmt.Errorf("stdout pipe creation failure: %w", err)
	}

	stderr, err := cmd.StderrPipe()
	if err != nil {
		_ = stdout.Close()
		return nil, nil, nil, fmt.Errorf("stderr pipe creation failure: %w", err)
	}

	stdin, err := cmd.StdinPipe()
	if err != nil {
		_ = stdout.Close()
		_ = stderr.Close()
		return nil, nil, nil, fmt.Errorf("stdin pipe creation failure: %w", err)
	}

	return stdout, stderr, stdin, nil
}

// PrepareCommand applies the spawn attributes used for encoders (own process
// group, no console window) to a helper command such as a device probe.
func PrepareCommand(cmd *exec.Cmd) { setSysProcAttr(cmd) }
