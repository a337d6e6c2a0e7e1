package pipeline

import "github.com/flowproc/pipeline/internal/stage"

// reap implements run()'s Phase 4: wait_any until every spawned exec
// stage's pid has been matched and recorded. An unknown pid is logged and
// ignored; if wait_any itself fails, the reap loop exits early and any
// stage still unmatched keeps its default (unexited) status.
func (e *Engine) reap(stages []*stage.Stage) {
	pending := map[int]*stage.Stage{}
	for _, s := range stages {
		if s.IsExec() && s.ExecState == stage.ExecSpawned {
			pending[s.Pid] = s
		}
	}

	for len(pending) > 0 {
		pid, status, err := e.ops.WaitAny()
		if err != nil {
			e.logf(LogError, "wait_any failed: %v", err)
			return
		}
		s, ok := pending[pid]
		if !ok {
			e.logf(LogInfo, "reaped unknown pid %d", pid)
			continue
		}
		s.ExitStatus = status
		s.ExecState = stage.ExecExited
		delete(pending, pid)
	}
}
