package pipeline

import (
	"errors"

	"github.com/flowproc/pipeline/internal/endpoint"
	"github.com/flowproc/pipeline/internal/platform"
	"github.com/flowproc/pipeline/internal/stage"
)

// multiplex implements run()'s Phase 3: repeatedly build read/write
// ready-sets, select on them, and drain whichever fds came back ready,
// until no fd remains to wait on. Per-fd I/O errors are logged and close
// only that fd; a select failure is structural and stops the loop.
func (e *Engine) multiplex(stages []*stage.Stage) error {
	for {
		reads, writes := e.buildReadySets(stages)
		if len(reads) == 0 && len(writes) == 0 {
			return nil
		}

		result, err := e.ops.Select(platform.ReadySets{Read: reads, Write: writes})
		if err != nil {
			e.logf(LogError, "select failed: %v", err)
			return structuralErr("select", err)
		}

		e.drainInput(stages[0], result)
		for _, s := range stages {
			switch s.Kind {
			case stage.KindFunction:
				e.drainFunctionStage(s, result)
			case stage.KindPTYExec:
				e.drainPTYStage(s, result)
			}
		}
		e.drainOutput(stages[len(stages)-1], result)
	}
}

func (e *Engine) buildReadySets(stages []*stage.Stage) ([]int, []int) {
	var reads, writes []int

	if e.inputFd >= 0 {
		if e.inputPending() {
			writes = append(writes, e.inputFd)
		} else {
			e.ops.Close(e.inputFd)
			e.inputFd = -1
		}
	}

	for _, s := range stages {
		if s.Kind != stage.KindFunction && s.Kind != stage.KindPTYExec {
			continue
		}
		if s.StdinFd >= 0 {
			reads = append(reads, s.StdinFd)
		}
		done := s.StdinFd < 0 && s.Outbuf.Size() == 0
		if s.Kind == stage.KindPTYExec {
			done = done && s.PTYMasterFd < 0
		}
		if done {
			if s.StdoutFd >= 0 {
				e.ops.Close(s.StdoutFd)
				s.StdoutFd = -1
				s.FuncState = stage.FuncDrained
			}
		} else if s.Outbuf.Size() > 0 && s.StdoutFd >= 0 {
			writes = append(writes, s.StdoutFd)
		}

		if s.Kind == stage.KindPTYExec && s.PTYMasterFd >= 0 {
			reads = append(reads, s.PTYMasterFd)
			if s.Inbuf.Size() > 0 {
				writes = append(writes, s.PTYMasterFd)
			}
		}
	}

	if e.outputFd >= 0 {
		reads = append(reads, e.outputFd)
	}

	return reads, writes
}

// inputPending reports whether there is more input to deliver, polling the
// streamed source (Callback or CompressedFile) exactly once if the ring
// buffer has drained, per the ordering guarantee that poll is only called
// when the buffer is empty.
func (e *Engine) inputPending() bool {
	if e.inputStreamed {
		if e.inputBuf.Size() == 0 && !e.inputSrcDone {
			more := e.inputSource.Poll(e.inputBuf)
			if !more {
				e.inputSrcDone = true
			}
		}
		return e.inputBuf.Size() > 0 || !e.inputSrcDone
	}
	return !e.input.BytesExhausted()
}

func inSet(set map[int]bool, fd int) bool {
	return fd >= 0 && set[fd]
}

func (e *Engine) drainInput(first *stage.Stage, result platform.ReadyResult) {
	if e.inputFd < 0 || !inSet(result.Write, e.inputFd) {
		return
	}
	for {
		var chunk []byte
		if e.inputStreamed {
			chunk = e.inputBuf.BottomView()
		} else {
			chunk = e.input.BytesTail()
		}
		if len(chunk) == 0 {
			break
		}
		n, err := e.ops.Write(e.inputFd, chunk)
		if n > 0 {
			if e.inputStreamed {
				e.inputBuf.Advance(n)
			} else {
				e.input.AdvanceBytes(n)
			}
		}
		if err != nil {
			if errors.Is(err, platform.ErrWouldBlock) || errors.Is(err, platform.ErrInterrupted) {
				break
			}
			e.logf(LogError, "input write failed: %v", err)
			e.ops.Close(e.inputFd)
			e.inputFd = -1
			return
		}
	}

	done := e.inputStreamed && e.inputBuf.Size() == 0 && e.inputSrcDone
	done = done || (!e.inputStreamed && e.input.BytesExhausted())
	if done {
		e.ops.Close(e.inputFd)
		e.inputFd = -1
	}
}

func (e *Engine) drainFunctionStage(s *stage.Stage, result platform.ReadyResult) {
	if s.StdinFd >= 0 && inSet(result.Read, s.StdinFd) {
		for {
			n, err := e.ops.Read(s.StdinFd, e.scratch[:])
			if n > 0 {
				s.Transformer.Process(e.scratch[:n], s.Outbuf)
				if s.FuncState == stage.FuncPending {
					s.FuncState = stage.FuncActive
				}
			}
			if n == 0 && err == nil {
				s.Transformer.EOF(s.Outbuf)
				s.FuncState = stage.FuncEofDelivered
				e.ops.Close(s.StdinFd)
				s.StdinFd = -1
				break
			}
			if err != nil {
				if errors.Is(err, platform.ErrWouldBlock) || errors.Is(err, platform.ErrInterrupted) {
					break
				}
				e.logf(LogError, "function stage read failed: %v", err)
				e.ops.Close(s.StdinFd)
				s.StdinFd = -1
				break
			}
		}
	}

	if s.StdoutFd >= 0 && inSet(result.Write, s.StdoutFd) {
		for s.Outbuf.Size() > 0 {
			view := s.Outbuf.BottomView()
			n, err := e.ops.Write(s.StdoutFd, view)
			if n > 0 {
				s.Outbuf.Advance(n)
			}
			if err != nil {
				if errors.Is(err, platform.ErrWouldBlock) || errors.Is(err, platform.ErrInterrupted) {
					break
				}
				e.logf(LogError, "function stage write failed: %v", err)
				e.ops.Close(s.StdoutFd)
				s.StdoutFd = -1
				break
			}
		}
	}

	if s.StdinFd < 0 && s.Outbuf.Size() == 0 && s.StdoutFd >= 0 {
		e.ops.Close(s.StdoutFd)
		s.StdoutFd = -1
		s.FuncState = stage.FuncDrained
	}
}

// drainPTYStage relays raw bytes between this PTY-exec stage's neighbor
// pipes and its single bidirectional master descriptor: StdinFd -> Inbuf ->
// master, and master -> Outbuf -> StdoutFd. It mirrors drainFunctionStage's
// shape but has no in-process Transformer — the child process itself
// transforms the bytes.
func (e *Engine) drainPTYStage(s *stage.Stage, result platform.ReadyResult) {
	if s.StdinFd >= 0 && inSet(result.Read, s.StdinFd) {
		for {
			n, err := e.ops.Read(s.StdinFd, e.scratch[:])
			if n > 0 {
				s.Inbuf.Write(e.scratch[:n])
				if s.FuncState == stage.FuncPending {
					s.FuncState = stage.FuncActive
				}
			}
			if n == 0 && err == nil {
				s.FuncState = stage.FuncEofDelivered
				e.ops.Close(s.StdinFd)
				s.StdinFd = -1
				break
			}
			if err != nil {
				if errors.Is(err, platform.ErrWouldBlock) || errors.Is(err, platform.ErrInterrupted) {
					break
				}
				e.logf(LogError, "pty stage read failed: %v", err)
				e.ops.Close(s.StdinFd)
				s.StdinFd = -1
				break
			}
		}
	}

	if s.PTYMasterFd >= 0 && inSet(result.Write, s.PTYMasterFd) {
		for s.Inbuf.Size() > 0 {
			view := s.Inbuf.BottomView()
			n, err := e.ops.Write(s.PTYMasterFd, view)
			if n > 0 {
				s.Inbuf.Advance(n)
			}
			if err != nil {
				if errors.Is(err, platform.ErrWouldBlock) || errors.Is(err, platform.ErrInterrupted) {
					break
				}
				e.logf(LogError, "pty master write failed: %v", err)
				break
			}
		}
	}

	if s.PTYMasterFd >= 0 && inSet(result.Read, s.PTYMasterFd) {
		for {
			n, err := e.ops.Read(s.PTYMasterFd, e.scratch[:])
			if n > 0 {
				s.Outbuf.Write(e.scratch[:n])
			}
			if n == 0 && err == nil {
				e.closePTYMaster(s)
				break
			}
			if err != nil {
				if errors.Is(err, platform.ErrWouldBlock) || errors.Is(err, platform.ErrInterrupted) {
					break
				}
				e.logf(LogInfo, "pty master closed: %v", err)
				e.closePTYMaster(s)
				break
			}
		}
	}

	if s.StdoutFd >= 0 && inSet(result.Write, s.StdoutFd) {
		for s.Outbuf.Size() > 0 {
			view := s.Outbuf.BottomView()
			n, err := e.ops.Write(s.StdoutFd, view)
			if n > 0 {
				s.Outbuf.Advance(n)
			}
			if err != nil {
				if errors.Is(err, platform.ErrWouldBlock) || errors.Is(err, platform.ErrInterrupted) {
					break
				}
				e.logf(LogError, "pty stage write failed: %v", err)
				e.ops.Close(s.StdoutFd)
				s.StdoutFd = -1
				break
			}
		}
	}

	if s.StdinFd < 0 && s.Outbuf.Size() == 0 && s.PTYMasterFd < 0 && s.StdoutFd >= 0 {
		e.ops.Close(s.StdoutFd)
		s.StdoutFd = -1
		s.FuncState = stage.FuncDrained
	}
}

// closePTYMaster closes the master through *os.File rather than a raw fd
// close, so Go disarms the file's GC finalizer instead of leaving it to
// close a since-reused descriptor number later.
func (e *Engine) closePTYMaster(s *stage.Stage) {
	if s.PTYMaster != nil {
		s.PTYMaster.Close()
		s.PTYMaster = nil
	}
	s.PTYMasterFd = -1
	if s.StdinFd >= 0 {
		e.ops.Close(s.StdinFd)
		s.StdinFd = -1
	}
}

func (e *Engine) drainOutput(last *stage.Stage, result platform.ReadyResult) {
	if e.outputFd < 0 || !inSet(result.Read, e.outputFd) {
		return
	}
	for {
		n, err := e.ops.Read(e.outputFd, e.scratch[:])
		if n > 0 {
			chunk := append([]byte(nil), e.scratch[:n]...)
			switch e.output.Kind() {
			case endpoint.OutputBytes:
				e.output.AppendBytes(chunk)
			case endpoint.OutputFile, endpoint.OutputCallback:
				if e.outputSink != nil {
					e.outputSink.Process(chunk)
				}
			}
		}
		if n == 0 && err == nil {
			if e.outputSink != nil {
				e.outputSink.EOF()
			}
			e.ops.Close(e.outputFd)
			e.outputFd = -1
			return
		}
		if err != nil {
			if errors.Is(err, platform.ErrWouldBlock) || errors.Is(err, platform.ErrInterrupted) {
				return
			}
			e.logf(LogError, "output read failed: %v", err)
			e.ops.Close(e.outputFd)
			e.outputFd = -1
			return
		}
	}
}
