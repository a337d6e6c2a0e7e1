package pipeline

import "errors"

// Run executes the full four-phase protocol (plan, spawn, multiplex,
// reap), blocking until every exec stage has been reaped and every
// parent-owned fd has reached EOF or been closed. Calling Run a second
// time on the same Engine is a contract violation and panics — the
// lifecycle is construct, configure, run once, inspect.
func (e *Engine) Run() error {
	if e.ran {
		panic("pipeline: run() called more than once on the same engine")
	}
	e.ran = true

	stages := e.stages.Stages()
	if len(stages) == 0 {
		return structuralErr("run", errors.New("empty pipeline"))
	}

	if err := e.plan(stages); err != nil {
		return err
	}
	e.applyGrowthHook(stages)

	spawnErr := e.spawn(stages)

	multiplexErr := e.multiplex(stages)

	e.reap(stages)

	if spawnErr != nil {
		return spawnErr
	}
	return multiplexErr
}
