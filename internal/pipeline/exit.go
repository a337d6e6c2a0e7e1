package pipeline

// ExitRaw returns the raw platform exit status of stage i.
func (e *Engine) ExitRaw(i int) int { return e.stages.Stages()[i].ExitRaw() }

// ExitCode returns the normal exit code of stage i, or -1 if it never
// exited normally.
func (e *Engine) ExitCode(i int) int { return e.stages.Stages()[i].ExitCode() }

// ExitSignal returns the terminating signal of stage i, or -1 if it was
// not killed by a signal.
func (e *Engine) ExitSignal(i int) int { return e.stages.Stages()[i].ExitSignal() }

// AllExitZero ignores function stages and is true iff every exec stage
// terminated normally with code 0.
func (e *Engine) AllExitZero() bool {
	for _, s := range e.stages.Stages() {
		if !s.IsExec() {
			continue
		}
		code, ok := s.ExitStatus.Code()
		if !ok || code != 0 {
			return false
		}
	}
	return true
}

// ExitCodes returns ExitCode for every stage in table order, including
// function stages (which always report -1).
func (e *Engine) ExitCodes() []int {
	stages := e.stages.Stages()
	codes := make([]int, len(stages))
	for i, s := range stages {
		if !s.IsExec() {
			codes[i] = -1
			continue
		}
		codes[i] = s.ExitCode()
	}
	return codes
}
