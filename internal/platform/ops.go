package platform

import "errors"

// ErrWouldBlock is returned by Read/Write in place of EAGAIN so callers
// never need to inspect raw errno values.
var ErrWouldBlock = errors.New("platform: operation would block")

// ErrInterrupted is returned in place of EINTR.
var ErrInterrupted = errors.New("platform: interrupted")

// SpawnParams describes a child process to create.
type SpawnParams struct {
	Prog       string
	Argv       []string
	Envp       []string // nil means inherit the parent's environment
	PathSearch bool
	// GlobPattern, when non-empty, replaces the plain $PATH scan for Prog
	// with a doublestar-matched scan: the first PATH entry whose name
	// matches the pattern wins.
	GlobPattern string
	StdinFd     int // -1 to inherit the parent's stdin
	StdoutFd    int // -1 to inherit the parent's stdout
}

// ExitStatus is the normalized result of a reaped child.
type ExitStatus struct {
	Raw      int
	exited   bool
	code     int
	signaled bool
	signal   int
}

// Code returns the normal exit code and true, or (-1, false) if the child
// did not exit normally (e.g. it was signaled).
func (s ExitStatus) Code() (int, bool) {
	if s.exited {
		return s.code, true
	}
	return -1, false
}

// Signal returns the terminating signal and true, or (-1, false) if the
// child was not killed by a signal.
func (s ExitStatus) Signal() (int, bool) {
	if s.signaled {
		return s.signal, true
	}
	return -1, false
}

// ReadySets names the fds the caller wants to know about on the next
// Select call.
type ReadySets struct {
	Read  []int
	Write []int
}

// ReadyResult reports which of the requested fds were actually ready.
type ReadyResult struct {
	Read  map[int]bool
	Write map[int]bool
}

// Ops is the set of OS primitives the pipeline engine depends on. The engine
// never touches syscall/unix packages directly; it only calls through Ops,
// which keeps the core testable against a fake implementation.
type Ops interface {
	// Pipe creates an anonymous unidirectional byte channel and returns
	// (readFd, writeFd). Both ends are created close-on-exec.
	Pipe() (readFd int, writeFd int, err error)

	// SetNonblocking puts fd into non-blocking mode: future Read/Write
	// calls on it return ErrWouldBlock instead of blocking the caller.
	SetNonblocking(fd int) error

	// Spawn forks and execs a child per params, returning its pid.
	Spawn(params SpawnParams) (pid int, err error)

	// WaitAny blocks until any child terminates and returns its pid and
	// exit status.
	WaitAny() (pid int, status ExitStatus, err error)

	// Select blocks until at least one fd in sets is ready for its
	// category, or returns immediately if one already is.
	Select(sets ReadySets) (ReadyResult, error)

	// Read mirrors read(2): n==0 means EOF; ErrWouldBlock/ErrInterrupted
	// signal retry; any other error is fatal for that fd.
	Read(fd int, buf []byte) (n int, err error)

	// Write mirrors write(2) with the same error semantics as Read.
	Write(fd int, buf []byte) (n int, err error)

	// OpenRead opens path read-only, close-on-exec.
	OpenRead(path string) (fd int, err error)

	// OpenWriteTruncate opens path write-only, creating and truncating it
	// with the given permission bits, close-on-exec.
	OpenWriteTruncate(path string, mode uint32) (fd int, err error)

	// Close closes fd. A double-close is not fatal.
	Close(fd int) error
}
