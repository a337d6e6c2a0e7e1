package stage

import (
	"fmt"
	"os"

	"github.com/flowproc/pipeline/internal/platform"
	"github.com/flowproc/pipeline/internal/ringbuf"
)

// Kind discriminates the three stage variants.
type Kind int

const (
	KindExec Kind = iota
	KindFunction
	KindPTYExec
)

func (k Kind) String() string {
	switch k {
	case KindExec:
		return "exec"
	case KindPTYExec:
		return "pty_exec"
	default:
		return "function"
	}
}

// ExecState is the lifecycle of an ExecStage: Pending -> Spawned -> Exited.
type ExecState int

const (
	ExecPending ExecState = iota
	ExecSpawned
	ExecExited
)

// FunctionState is the lifecycle of a FunctionStage:
// Pending -> Active -> EofDelivered -> Drained.
type FunctionState int

const (
	FuncPending FunctionState = iota
	FuncActive
	FuncEofDelivered
	FuncDrained
)

// Writer is the capability a Transformer uses to emit bytes; the engine
// supplies one backed by the stage's own outbuf, so a transformer never
// holds a back-pointer to the engine itself.
type Writer interface {
	Write(p []byte)
}

// Transformer is an in-process byte stream transformer. Process is called
// once per chunk read from upstream; EOF is called exactly once, after the
// last Process call, when upstream reaches end of input.
type Transformer interface {
	Process(data []byte, w Writer)
	EOF(w Writer)
}

// Stage is one position in the linear pipeline.
type Stage struct {
	Kind Kind

	// Exec fields.
	Prog       string
	Argv       []string
	Envp       []string // nil means inherit the parent's environment
	PathSearch bool
	GlobMatch  string // non-empty: resolve Prog as a $PATH glob, see stage.AppendExecGlob

	ExecState  ExecState
	Pid        int
	ExitStatus platform.ExitStatus

	// Function fields. Also used by a KindPTYExec stage: Outbuf queues bytes
	// read from the PTY master on their way to the next stage, and Inbuf
	// (PTY-only) queues bytes read from the previous stage on their way
	// into the master.
	Transformer Transformer
	FuncState   FunctionState
	Outbuf      *ringbuf.Buffer
	Inbuf       *ringbuf.Buffer

	// PTY-exec fields. PTYMaster is retained so the *os.File isn't
	// finalized out from under PTYMasterFd, its raw descriptor; both are
	// set once ptyexec.Spawn succeeds.
	PTYMaster   *os.File
	PTYMasterFd int

	// Owned by the engine during Phase 1/2 planning; -1 means "no
	// parent-owned fd here" (child inherits the parent's stdin/stdout, or
	// this stage doesn't own that side).
	StdinFd  int
	StdoutFd int
}

func newExec(prog string, argv, envp []string, pathSearch bool) *Stage {
	return &Stage{
		Kind:       KindExec,
		Prog:       prog,
		Argv:       argv,
		Envp:       envp,
		PathSearch: pathSearch,
		StdinFd:    -1,
		StdoutFd:   -1,
	}
}

func newFunction(t Transformer) *Stage {
	return &Stage{
		Kind:        KindFunction,
		Transformer: t,
		Outbuf:      ringbuf.New(),
		StdinFd:     -1,
		StdoutFd:    -1,
	}
}

func newPTYExec(prog string, argv, envp []string) *Stage {
	return &Stage{
		Kind:        KindPTYExec,
		Prog:        prog,
		Argv:        argv,
		Envp:        envp,
		Outbuf:      ringbuf.New(),
		Inbuf:       ringbuf.New(),
		PTYMasterFd: -1,
		StdinFd:     -1,
		StdoutFd:    -1,
	}
}

// IsExec reports whether this stage is backed by a spawned child (plain
// exec or PTY-exec).
func (s *Stage) IsExec() bool { return s.Kind == KindExec || s.Kind == KindPTYExec }

// ExitRaw returns the raw platform exit status. Calling this on a function
// stage is a contract violation (spec: querying a function stage's exit
// status is misuse, not a recoverable condition).
func (s *Stage) ExitRaw() int {
	if !s.IsExec() {
		panic("stage: exit_raw queried on a function stage")
	}
	return s.ExitStatus.Raw
}

// ExitCode returns the normal exit code, or -1 if the stage never exited
// normally (signaled, or not yet reaped).
func (s *Stage) ExitCode() int {
	if !s.IsExec() {
		panic("stage: exit_code queried on a function stage")
	}
	code, ok := s.ExitStatus.Code()
	if !ok {
		return -1
	}
	return code
}

// ExitSignal returns the terminating signal, or -1 if the stage was not
// killed by a signal.
func (s *Stage) ExitSignal() int {
	if !s.IsExec() {
		panic("stage: exit_signal queried on a function stage")
	}
	sig, ok := s.ExitStatus.Signal()
	if !ok {
		return -1
	}
	return sig
}

func (s *Stage) String() string {
	switch s.Kind {
	case KindExec:
		return fmt.Sprintf("exec(%s)", s.Prog)
	case KindPTYExec:
		return fmt.Sprintf("pty_exec(%s)", s.Prog)
	default:
		return fmt.Sprintf("function(%T)", s.Transformer)
	}
}
