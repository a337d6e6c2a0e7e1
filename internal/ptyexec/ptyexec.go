package ptyexec

import (
	"fmt"
	"os"
	"os/exec"

	"github.com/creack/pty"
)

// Winsize mirrors pty.Winsize without exposing the third-party type to
// callers that only need rows/cols.
type Winsize struct {
	Rows uint16
	Cols uint16
}

// DefaultWinsize matches the teacher's terminal session default.
var DefaultWinsize = Winsize{Rows: 24, Cols: 80}

// Handle is a spawned PTY-backed process: its Master descriptor is both
// the write side of the child's stdin and the read side of its stdout.
type Handle struct {
	Pid    int
	Master *os.File
}

// Spawn starts prog (argv[0] is its own name, following exec.Cmd
// convention) behind a new pseudo-terminal. envp, when nil, inherits the
// parent's environment plus TERM=xterm-256color, matching the teacher's
// terminal session setup.
func Spawn(prog string, argv []string, envp []string, ws Winsize) (*Handle, error) {
	if prog == "" {
		return nil, fmt.Errorf("ptyexec: empty program")
	}
	if len(argv) == 0 {
		argv = []string{prog}
	}

	cmd := exec.Command(prog, argv[1:]...)
	if envp == nil {
		envp = append(os.Environ(), "TERM=xterm-256color")
	}
	cmd.Env = envp

	master, err := pty.StartWithSize(cmd, &pty.Winsize{Rows: ws.Rows, Cols: ws.Cols})
	if err != nil {
		return nil, fmt.Errorf("ptyexec: start: %w", err)
	}

	return &Handle{Pid: cmd.Process.Pid, Master: master}, nil
}

// Resize changes the PTY's reported window size.
func (h *Handle) Resize(ws Winsize) error {
	return pty.Setsize(h.Master, &pty.Winsize{Rows: ws.Rows, Cols: ws.Cols})
}

// Close releases the master descriptor. The child is not signaled; reaping
// happens through the normal wait4 path once it exits on its own (e.g. on
// EOF of its controlling terminal).
func (h *Handle) Close() error {
	return h.Master.Close()
}
