package pipeline

import (
	"go.uber.org/zap"

	"github.com/flowproc/pipeline/internal/endpoint"
	"github.com/flowproc/pipeline/internal/infrastructure/resilience"
	"github.com/flowproc/pipeline/internal/platform"
	"github.com/flowproc/pipeline/internal/ringbuf"
	"github.com/flowproc/pipeline/internal/stage"
)

// scratchSize is the fixed scratch buffer every read/drain action shares,
// per spec's "scratch buffer (fixed, e.g. 4 KiB)".
const scratchSize = 4096

// Engine orchestrates one linear pipeline run: plan descriptors, spawn
// children, multiplex I/O, reap. Construct with New, configure via Input,
// Output and Stages, then call Run exactly once.
type Engine struct {
	ops platform.Ops

	input  *endpoint.Input
	output *endpoint.Output
	stages *stage.Table

	// Parent-owned endpoint fds; -1 when the corresponding endpoint isn't
	// parent-mediated (None, Fd, or an uncompressed File).
	inputFd  int
	outputFd int

	inputBuf      *ringbuf.Buffer
	inputSource   endpoint.Source
	inputStreamed bool
	inputSrcDone  bool
	outputSink    endpoint.Sink

	scratch [scratchSize]byte

	// childFds are pipe ends that belong exclusively to a child (a plain
	// exec-to-exec edge, or an endpoint Fd/File handed straight to an exec
	// stage): closed in the parent once every exec stage has been spawned.
	childFds []int

	logLevel LogLevel
	logSink  func(string)
	logger   *zap.Logger

	breakerFactory func(prog string) *resilience.Breaker
	breakers       map[string]*resilience.Breaker

	growthHook func()

	ran bool
}

// New returns a configured-but-unrun Engine driven by ops.
func New(ops platform.Ops) *Engine {
	return &Engine{
		ops:      ops,
		input:    endpoint.NewInput(),
		output:   endpoint.NewOutput(),
		stages:   stage.NewTable(),
		inputFd:  -1,
		outputFd: -1,
		logLevel: LogError,
		logger:   zap.NewNop(),
	}
}

// Input exposes the input endpoint builder.
func (e *Engine) Input() *endpoint.Input { return e.input }

// Output exposes the output endpoint builder.
func (e *Engine) Output() *endpoint.Output { return e.output }

// Stages exposes the stage table builder.
func (e *Engine) Stages() *stage.Table { return e.stages }

// WithBreaker registers a factory used to lazily build one circuit
// breaker per distinct exec-stage program path; a stage whose breaker is
// open is short-circuited with a structural RunError instead of paying
// the spawn cost again. Optional — the zero value runs every spawn
// unconditionally.
func (e *Engine) WithBreaker(factory func(prog string) *resilience.Breaker) *Engine {
	e.breakerFactory = factory
	e.breakers = map[string]*resilience.Breaker{}
	return e
}

// WithGrowthHook registers fn to be called once for every ring buffer in
// this run that doubles its backing array — the input buffer (streamed
// input only) and every function/pty-exec stage's Outbuf/Inbuf. Optional;
// exists so a server wrapping Engine can count growth events (e.g. a
// Prometheus counter) without the core depending on a metrics package.
func (e *Engine) WithGrowthHook(fn func()) *Engine {
	e.growthHook = fn
	return e
}

func (e *Engine) applyGrowthHook(stages []*stage.Stage) {
	if e.growthHook == nil {
		return
	}
	if e.inputBuf != nil {
		e.inputBuf.SetGrowthHook(e.growthHook)
	}
	for _, s := range stages {
		if s.Outbuf != nil {
			s.Outbuf.SetGrowthHook(e.growthHook)
		}
		if s.Inbuf != nil {
			s.Inbuf.SetGrowthHook(e.growthHook)
		}
	}
}

func (e *Engine) breakerFor(prog string) *resilience.Breaker {
	if e.breakerFactory == nil {
		return nil
	}
	if b, ok := e.breakers[prog]; ok {
		return b
	}
	b := e.breakerFactory(prog)
	e.breakers[prog] = b
	return b
}
