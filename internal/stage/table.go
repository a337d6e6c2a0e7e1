package stage

// ExecOption configures an AppendExec call.
type ExecOption func(*execConfig)

type execConfig struct {
	envp       []string
	pathSearch bool
}

// WithEnv overrides the child's environment. Absent, the child inherits the
// parent's.
func WithEnv(envp []string) ExecOption {
	return func(c *execConfig) { c.envp = envp }
}

// WithPathSearch requests a $PATH lookup for the program name instead of
// treating Prog as a literal path.
func WithPathSearch() ExecOption {
	return func(c *execConfig) { c.pathSearch = true }
}

// Table is the ordered, builder-style accumulator of pipeline stages.
// Insertion order is pipeline order.
type Table struct {
	stages []*Stage
}

// NewTable returns an empty stage table.
func NewTable() *Table {
	return &Table{}
}

// AppendExec records an exec stage running prog with arguments args. The
// effective argv is [prog, args...] — argv[0] always defaults to prog. If
// args would produce an empty effective argv (it never can, since prog is
// always present) the call is ignored; an empty prog is rejected the same
// way, defensively mirroring the table's "empty argv is ignored" contract.
func (t *Table) AppendExec(prog string, args []string, opts ...ExecOption) {
	if prog == "" {
		return
	}
	cfg := execConfig{}
	for _, opt := range opts {
		opt(&cfg)
	}
	argv := make([]string, 0, len(args)+1)
	argv = append(argv, prog)
	argv = append(argv, args...)
	t.stages = append(t.stages, newExec(prog, argv, cfg.envp, cfg.pathSearch))
}

// AppendExecWithArgv0 is the exece-shaped variant: argv is used verbatim,
// so argv[0] need not equal prog (busybox-style multicall binaries rely on
// this). envp is required, matching execve's explicit environment vector.
// If argv is empty the call is ignored.
func (t *Table) AppendExecWithArgv0(prog string, argv []string, envp []string) {
	if len(argv) == 0 {
		return
	}
	t.stages = append(t.stages, newExec(prog, argv, envp, false))
}

// AppendExecGlob records a $PATH-search exec stage whose program name is
// resolved at spawn time against pattern (a doublestar glob, e.g.
// "python3.1*") rather than a literal name — the first matching PATH entry
// wins, following the usual left-to-right $PATH scan order.
func (t *Table) AppendExecGlob(pattern string, args []string, opts ...ExecOption) {
	if pattern == "" {
		return
	}
	cfg := execConfig{pathSearch: true}
	for _, opt := range opts {
		opt(&cfg)
	}
	argv := make([]string, 0, len(args)+1)
	argv = append(argv, pattern)
	argv = append(argv, args...)
	s := newExec(pattern, argv, cfg.envp, true)
	s.GlobMatch = pattern
	t.stages = append(t.stages, s)
}

// AppendFunction records an in-process transformer stage.
func (t *Table) AppendFunction(transformer Transformer) {
	t.stages = append(t.stages, newFunction(transformer))
}

// AppendPTYExec records an exec stage spawned behind a pseudo-terminal
// (internal/ptyexec) instead of plain pipes: its single master descriptor
// serves the multiplex loop as both stdin and stdout. Exit-status querying
// and reaping behave exactly as for AppendExec. If prog is empty the call
// is ignored, mirroring AppendExec.
func (t *Table) AppendPTYExec(prog string, args []string, envp []string) {
	if prog == "" {
		return
	}
	argv := make([]string, 0, len(args)+1)
	argv = append(argv, prog)
	argv = append(argv, args...)
	t.stages = append(t.stages, newPTYExec(prog, argv, envp))
}

// Count returns the number of stages appended so far.
func (t *Table) Count() int { return len(t.stages) }

// Stages returns the ordered stage list. The slice is owned by the table;
// callers must not retain it across further Append* calls.
func (t *Table) Stages() []*Stage { return t.stages }
