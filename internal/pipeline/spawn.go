package pipeline

import (
	"github.com/flowproc/pipeline/internal/platform"
	"github.com/flowproc/pipeline/internal/ptyexec"
	"github.com/flowproc/pipeline/internal/stage"
)

// spawn implements run()'s Phase 2: fork+exec every exec stage in order,
// then close every fd that belongs exclusively to a child. A spawn
// failure stops further spawning — already-spawned children are left to
// be reaped normally — and the planned fds of every stage that will now
// never run are closed so nothing leaks.
func (e *Engine) spawn(stages []*stage.Stage) error {
	var spawnErr error

	for _, s := range stages {
		if s.Kind == stage.KindFunction {
			continue
		}
		if spawnErr != nil {
			if s.StdinFd >= 0 {
				e.ops.Close(s.StdinFd)
			}
			if s.StdoutFd >= 0 {
				e.ops.Close(s.StdoutFd)
			}
			continue
		}

		if s.Kind == stage.KindPTYExec {
			h, err := ptyexec.Spawn(s.Prog, s.Argv, s.Envp, ptyexec.DefaultWinsize)
			if err != nil {
				e.logf(LogError, "pty spawn %s failed: %v", s.Prog, err)
				spawnErr = err
				continue
			}
			fd := int(h.Master.Fd())
			if err := e.ops.SetNonblocking(fd); err != nil {
				e.logf(LogError, "pty spawn %s: set nonblocking failed: %v", s.Prog, err)
				spawnErr = err
				continue
			}
			s.Pid = h.Pid
			s.PTYMaster = h.Master
			s.PTYMasterFd = fd
			s.ExecState = stage.ExecSpawned
			continue
		}

		params := platform.SpawnParams{
			Prog:        s.Prog,
			Argv:        s.Argv,
			Envp:        s.Envp,
			PathSearch:  s.PathSearch,
			GlobPattern: s.GlobMatch,
			StdinFd:     s.StdinFd,
			StdoutFd:    s.StdoutFd,
		}

		breaker := e.breakerFor(s.Prog)
		if breaker == nil {
			pid, err := e.ops.Spawn(params)
			if err != nil {
				e.logf(LogError, "spawn %s failed: %v", s.Prog, err)
				spawnErr = err
				continue
			}
			s.Pid = pid
			s.ExecState = stage.ExecSpawned
			continue
		}

		result, err := breaker.Execute(func() (any, error) {
			return e.ops.Spawn(params)
		})
		if err != nil {
			e.logf(LogError, "spawn %s short-circuited: %v", s.Prog, err)
			spawnErr = err
			continue
		}
		s.Pid = result.(int)
		s.ExecState = stage.ExecSpawned
	}

	for _, fd := range e.childFds {
		e.ops.Close(fd)
	}
	e.childFds = nil

	if spawnErr != nil {
		return structuralErr("spawn", spawnErr)
	}
	return nil
}
