package platform

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/bmatcuk/doublestar/v4"
	"golang.org/x/sys/unix"
)

// POSIX is the production Ops implementation, built directly on
// golang.org/x/sys/unix and syscall.ForkExec.
type POSIX struct{}

// New returns a POSIX Ops implementation.
func New() *POSIX { return &POSIX{} }

var _ Ops = (*POSIX)(nil)

func (p *POSIX) Pipe() (int, int, error) {
	var fds [2]int
	if err := unix.Pipe2(fds[:], unix.O_CLOEXEC); err != nil {
		return -1, -1, fmt.Errorf("platform: pipe2: %w", err)
	}
	return fds[0], fds[1], nil
}

func (p *POSIX) SetNonblocking(fd int) error {
	if err := unix.SetNonblock(fd, true); err != nil {
		return fmt.Errorf("platform: set nonblocking fd %d: %w", fd, err)
	}
	return nil
}

// Spawn resolves params.Prog (optionally via $PATH search) and forks+execs
// it. When the program cannot be found or is not executable, the spec's
// "exec failure looks exactly like exit 255" contract is honored by forking
// a stand-in /bin/sh invocation that exits 255, rather than failing Spawn
// itself — Go's syscall.ForkExec reports most exec(2) failures back through
// its own error return before any pid exists to reap, which would leave the
// engine's per-stage state machine with no child to wait on. See DESIGN.md.
func (p *POSIX) Spawn(params SpawnParams) (int, error) {
	if len(params.Argv) == 0 {
		return 0, fmt.Errorf("platform: spawn %s: empty argv", params.Prog)
	}

	path, argv := params.Prog, params.Argv
	var resolveErr error
	var resolved string
	if params.GlobPattern != "" {
		resolved, resolveErr = resolveProgramGlob(params.GlobPattern)
	} else {
		resolved, resolveErr = resolveProgram(params.Prog, params.PathSearch)
	}
	if resolveErr != nil {
		path, argv = "/bin/sh", []string{"/bin/sh", "-c", "exit 255"}
	} else {
		path = resolved
	}

	envp := params.Envp
	if envp == nil {
		envp = os.Environ()
	}

	stdin := uintptr(os.Stdin.Fd())
	if params.StdinFd >= 0 {
		stdin = uintptr(params.StdinFd)
	}
	stdout := uintptr(os.Stdout.Fd())
	if params.StdoutFd >= 0 {
		stdout = uintptr(params.StdoutFd)
	}

	pid, err := syscall.ForkExec(path, argv, &syscall.ProcAttr{
		Env:   envp,
		Files: []uintptr{stdin, stdout, uintptr(os.Stderr.Fd())},
	})
	if err != nil {
		return 0, fmt.Errorf("platform: spawn %s: %w", params.Prog, err)
	}
	return pid, nil
}

// resolveProgram implements the conventional left-to-right $PATH scan when
// pathSearch is set, else requires prog to already name an executable
// regular file.
func resolveProgram(prog string, pathSearch bool) (string, error) {
	if !pathSearch || strings.Contains(prog, "/") {
		return checkExecutable(prog)
	}
	pathEnv := os.Getenv("PATH")
	for _, dir := range strings.Split(pathEnv, ":") {
		if dir == "" {
			continue
		}
		candidate := filepath.Join(dir, prog)
		if _, err := checkExecutable(candidate); err == nil {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("platform: %s not found in $PATH", prog)
}

// resolveProgramGlob scans $PATH left-to-right for the first entry whose
// base name matches pattern (a doublestar glob, e.g. "python3.1*").
func resolveProgramGlob(pattern string) (string, error) {
	pathEnv := os.Getenv("PATH")
	for _, dir := range strings.Split(pathEnv, ":") {
		if dir == "" {
			continue
		}
		entries, err := os.ReadDir(dir)
		if err != nil {
			continue
		}
		for _, entry := range entries {
			matched, err := doublestar.Match(pattern, entry.Name())
			if err != nil || !matched {
				continue
			}
			candidate := filepath.Join(dir, entry.Name())
			if _, err := checkExecutable(candidate); err == nil {
				return candidate, nil
			}
		}
	}
	return "", fmt.Errorf("platform: no $PATH entry matches %q", pattern)
}

func checkExecutable(path string) (string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return "", err
	}
	if info.IsDir() {
		return "", fmt.Errorf("platform: %s is a directory", path)
	}
	if info.Mode()&0111 == 0 {
		return "", fmt.Errorf("platform: %s is not executable", path)
	}
	return path, nil
}

func (p *POSIX) WaitAny() (int, ExitStatus, error) {
	var ws syscall.WaitStatus
	pid, err := syscall.Wait4(-1, &ws, 0, nil)
	if err != nil {
		return 0, ExitStatus{}, fmt.Errorf("platform: wait4: %w", err)
	}
	status := ExitStatus{Raw: int(ws)}
	switch {
	case ws.Exited():
		status.exited = true
		status.code = ws.ExitStatus()
	case ws.Signaled():
		status.signaled = true
		status.signal = int(ws.Signal())
	}
	return pid, status, nil
}

func (p *POSIX) Select(sets ReadySets) (ReadyResult, error) {
	result := ReadyResult{Read: map[int]bool{}, Write: map[int]bool{}}

	var rfds, wfds unix.FdSet
	maxFd := 0
	for _, fd := range sets.Read {
		fdSetSet(&rfds, fd)
		if fd > maxFd {
			maxFd = fd
		}
	}
	for _, fd := range sets.Write {
		fdSetSet(&wfds, fd)
		if fd > maxFd {
			maxFd = fd
		}
	}

	for {
		n, err := unix.Select(maxFd+1, &rfds, &wfds, nil, nil)
		if err == unix.EINTR {
			continue
		}
		if err != nil {
			return result, fmt.Errorf("platform: select: %w", err)
		}
		_ = n
		break
	}

	for _, fd := range sets.Read {
		if fdSetIsSet(&rfds, fd) {
			result.Read[fd] = true
		}
	}
	for _, fd := range sets.Write {
		if fdSetIsSet(&wfds, fd) {
			result.Write[fd] = true
		}
	}
	return result, nil
}

func fdSetSet(set *unix.FdSet, fd int) {
	idx := fd / 64
	bit := uint(fd % 64)
	set.Bits[idx] |= 1 << bit
}

func fdSetIsSet(set *unix.FdSet, fd int) bool {
	idx := fd / 64
	bit := uint(fd % 64)
	return set.Bits[idx]&(1<<bit) != 0
}

func (p *POSIX) Read(fd int, buf []byte) (int, error) {
	n, err := unix.Read(fd, buf)
	if err == nil {
		return n, nil
	}
	switch err {
	case unix.EAGAIN:
		return 0, ErrWouldBlock
	case unix.EINTR:
		return 0, ErrInterrupted
	default:
		return 0, fmt.Errorf("platform: read fd %d: %w", fd, err)
	}
}

func (p *POSIX) Write(fd int, buf []byte) (int, error) {
	n, err := unix.Write(fd, buf)
	if err == nil {
		return n, nil
	}
	switch err {
	case unix.EAGAIN:
		return 0, ErrWouldBlock
	case unix.EINTR:
		return 0, ErrInterrupted
	default:
		return 0, fmt.Errorf("platform: write fd %d: %w", fd, err)
	}
}

func (p *POSIX) OpenRead(path string) (int, error) {
	fd, err := unix.Open(path, unix.O_RDONLY|unix.O_CLOEXEC, 0)
	if err != nil {
		return -1, fmt.Errorf("platform: open %s: %w", path, err)
	}
	return fd, nil
}

func (p *POSIX) OpenWriteTruncate(path string, mode uint32) (int, error) {
	fd, err := unix.Open(path, unix.O_WRONLY|unix.O_CREAT|unix.O_TRUNC|unix.O_CLOEXEC, mode)
	if err != nil {
		return -1, fmt.Errorf("platform: open %s: %w", path, err)
	}
	return fd, nil
}

func (p *POSIX) Close(fd int) error {
	if err := unix.Close(fd); err != nil {
		// A failed close (e.g. a double close) is returned, not fatal here.
		return fmt.Errorf("platform: close fd %d: %w", fd, err)
	}
	return nil
}
