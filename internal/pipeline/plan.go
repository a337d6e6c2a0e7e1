package pipeline

import (
	"fmt"
	"os"

	"github.com/flowproc/pipeline/internal/endpoint"
	"github.com/flowproc/pipeline/internal/ringbuf"
	"github.com/flowproc/pipeline/internal/stage"
)

// plan implements run()'s Phase 1: wire every endpoint and every adjacent
// stage pair to a pipe (or a directly-handed fd), deciding non-blocking
// mode per the "at least one owner is the parent" rule.
func (e *Engine) plan(stages []*stage.Stage) error {
	n := len(stages)

	if err := e.planInput(stages[0]); err != nil {
		return err
	}
	if stages[0].Kind != stage.KindExec && stages[0].StdinFd >= 0 {
		if err := e.ops.SetNonblocking(stages[0].StdinFd); err != nil {
			return structuralErr("set nonblocking input", err)
		}
	}

	for i := 0; i < n-1; i++ {
		r, w, err := e.ops.Pipe()
		if err != nil {
			return structuralErr("pipe", err)
		}
		if stages[i].Kind != stage.KindExec {
			if err := e.ops.SetNonblocking(w); err != nil {
				return structuralErr("set nonblocking", err)
			}
		} else {
			e.childFds = append(e.childFds, w)
		}
		if stages[i+1].Kind != stage.KindExec {
			if err := e.ops.SetNonblocking(r); err != nil {
				return structuralErr("set nonblocking", err)
			}
		} else {
			e.childFds = append(e.childFds, r)
		}
		stages[i].StdoutFd = w
		stages[i+1].StdinFd = r
	}

	if err := e.planOutput(stages[n-1]); err != nil {
		return err
	}
	if stages[n-1].Kind != stage.KindExec && stages[n-1].StdoutFd >= 0 {
		if err := e.ops.SetNonblocking(stages[n-1].StdoutFd); err != nil {
			return structuralErr("set nonblocking output", err)
		}
	}

	return nil
}

func (e *Engine) planInput(first *stage.Stage) error {
	switch e.input.Kind() {
	case endpoint.InputNone:
		first.StdinFd = -1

	case endpoint.InputFd:
		first.StdinFd = e.input.Fd()
		if first.Kind == stage.KindExec {
			e.childFds = append(e.childFds, e.input.Fd())
		}

	case endpoint.InputFile:
		fd, err := e.ops.OpenRead(e.input.Path())
		if err != nil {
			return structuralErr("open input file", err)
		}
		if !e.input.Compressed() {
			first.StdinFd = fd
			if first.Kind == stage.KindExec {
				e.childFds = append(e.childFds, fd)
			}
			return nil
		}
		src, err := endpoint.NewCompressedFileSource(os.NewFile(uintptr(fd), e.input.Path()))
		if err != nil {
			return structuralErr("gzip reader", err)
		}
		return e.planStreamedInput(first, src)

	case endpoint.InputBytes:
		r, w, err := e.ops.Pipe()
		if err != nil {
			return structuralErr("pipe", err)
		}
		if err := e.ops.SetNonblocking(w); err != nil {
			return structuralErr("set nonblocking", err)
		}
		e.inputFd = w
		first.StdinFd = r
		if first.Kind == stage.KindExec {
			e.childFds = append(e.childFds, r)
		} else if err := e.ops.SetNonblocking(r); err != nil {
			return structuralErr("set nonblocking", err)
		}

	case endpoint.InputCallback:
		return e.planStreamedInput(first, e.input.Source())

	default:
		return structuralErr("plan input", fmt.Errorf("unknown input kind %d", e.input.Kind()))
	}
	return nil
}

func (e *Engine) planStreamedInput(first *stage.Stage, src endpoint.Source) error {
	r, w, err := e.ops.Pipe()
	if err != nil {
		return structuralErr("pipe", err)
	}
	if err := e.ops.SetNonblocking(w); err != nil {
		return structuralErr("set nonblocking", err)
	}
	e.inputFd = w
	first.StdinFd = r
	if first.Kind == stage.KindExec {
		e.childFds = append(e.childFds, r)
	} else if err := e.ops.SetNonblocking(r); err != nil {
		return structuralErr("set nonblocking", err)
	}
	e.inputBuf = ringbuf.New()
	e.inputSource = src
	e.inputStreamed = true
	return nil
}

func (e *Engine) planOutput(last *stage.Stage) error {
	switch e.output.Kind() {
	case endpoint.OutputNone:
		last.StdoutFd = -1

	case endpoint.OutputFd:
		last.StdoutFd = e.output.Fd()
		if last.Kind == stage.KindExec {
			e.childFds = append(e.childFds, e.output.Fd())
		}

	case endpoint.OutputFile:
		fd, err := e.ops.OpenWriteTruncate(e.output.Path(), e.output.Mode())
		if err != nil {
			return structuralErr("open output file", err)
		}
		if !e.output.Compressed() {
			last.StdoutFd = fd
			if last.Kind == stage.KindExec {
				e.childFds = append(e.childFds, fd)
			}
			return nil
		}
		sink := endpoint.NewCompressedFileSink(os.NewFile(uintptr(fd), e.output.Path()))
		return e.planStreamedOutput(last, sink)

	case endpoint.OutputBytes:
		r, w, err := e.ops.Pipe()
		if err != nil {
			return structuralErr("pipe", err)
		}
		if err := e.ops.SetNonblocking(r); err != nil {
			return structuralErr("set nonblocking", err)
		}
		e.outputFd = r
		last.StdoutFd = w
		if last.Kind == stage.KindExec {
			e.childFds = append(e.childFds, w)
		} else if err := e.ops.SetNonblocking(w); err != nil {
			return structuralErr("set nonblocking", err)
		}

	case endpoint.OutputCallback:
		return e.planStreamedOutput(last, e.output.Sink())

	default:
		return structuralErr("plan output", fmt.Errorf("unknown output kind %d", e.output.Kind()))
	}
	return nil
}

func (e *Engine) planStreamedOutput(last *stage.Stage, sink endpoint.Sink) error {
	r, w, err := e.ops.Pipe()
	if err != nil {
		return structuralErr("pipe", err)
	}
	if err := e.ops.SetNonblocking(r); err != nil {
		return structuralErr("set nonblocking", err)
	}
	e.outputFd = r
	last.StdoutFd = w
	if last.Kind == stage.KindExec {
		e.childFds = append(e.childFds, w)
	} else if err := e.ops.SetNonblocking(w); err != nil {
		return structuralErr("set nonblocking", err)
	}
	e.outputSink = sink
	return nil
}
