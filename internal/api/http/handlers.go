package http

import (
	"net/http"
	"sync"
	"time"

	"github.com/bytedance/sonic"
	"github.com/gin-gonic/gin"

	"github.com/flowproc/pipeline/internal/infrastructure/monitoring"
	"github.com/flowproc/pipeline/internal/infrastructure/resilience"
	"github.com/flowproc/pipeline/internal/library"
	"github.com/flowproc/pipeline/internal/pipeline"
	"github.com/flowproc/pipeline/internal/platform"
	"github.com/flowproc/pipeline/internal/shared/id"
	"github.com/flowproc/pipeline/internal/stage"
)

// Handlers holds every dependency a route needs, mirroring the teacher's
// Handlers-struct-plus-one-method-per-route shape.
type Handlers struct {
	store   RunStore
	metrics *monitoring.Metrics

	breakerMu      sync.Mutex
	breakers       map[string]*resilience.Breaker
	breakerEnabled bool

	librarySpecs map[string]*library.Spec
}

// NewHandlers builds a Handlers. specs is the set of pipeline definitions
// loaded at startup by internal/library (possibly empty); breakerEnabled
// turns on the per-program circuit breaker (internal/infrastructure/resilience)
// for every built Engine.
func NewHandlers(store RunStore, metrics *monitoring.Metrics, specs []*library.Spec, breakerEnabled bool) *Handlers {
	named := make(map[string]*library.Spec, len(specs))
	for _, s := range specs {
		if s.Name != "" {
			named[s.Name] = s
		}
	}
	return &Handlers{
		store:          store,
		metrics:        metrics,
		breakers:       map[string]*resilience.Breaker{},
		breakerEnabled: breakerEnabled,
		librarySpecs:   named,
	}
}

// Health reports liveness plus a few headline numbers, in the teacher's
// Health-handler spirit.
func (h *Handlers) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":         "healthy",
		"runs_recorded":  h.store.Len(),
		"library_loaded": len(h.librarySpecs),
	})
}

// CreatePipeline handles POST /v1/pipelines: decode an ad-hoc pipeline
// definition, build and run it synchronously, record the result, and
// return it.
func (h *Handlers) CreatePipeline(c *gin.Context) {
	body, err := c.GetRawData()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to read request body"})
		return
	}

	var req PipelineRequest
	if err := sonic.Unmarshal(body, &req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid JSON: " + err.Error()})
		return
	}
	if len(req.Stages) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "at least one stage is required"})
		return
	}

	e := pipeline.New(platform.New())
	if h.breakerEnabled {
		e.WithBreaker(h.breakerFor)
	}
	if h.metrics != nil {
		e.WithGrowthHook(h.metrics.IncRingBufferGrowths)
	}

	if len(req.InputBase64) > 0 {
		e.Input().SetBytes(req.InputBase64)
	}
	var out []byte
	e.Output().SetBytes(&out)

	table := e.Stages()
	for _, st := range req.Stages {
		AppendStage(table, st)
	}

	rec := h.run(e, req.Name, &out)
	c.JSON(http.StatusOK, recordToResponse(rec))
}

// GetPipeline handles GET /v1/pipelines/:id.
func (h *Handlers) GetPipeline(c *gin.Context) {
	runID := id.RunID(c.Param("id"))
	rec, ok := h.store.Get(runID)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "run not found"})
		return
	}
	c.JSON(http.StatusOK, recordToResponse(rec))
}

// ListLibrary handles GET /v1/library: the names of every pipeline
// definition loaded from the library directory (internal/library).
func (h *Handlers) ListLibrary(c *gin.Context) {
	names := make([]string, 0, len(h.librarySpecs))
	for name := range h.librarySpecs {
		names = append(names, name)
	}
	c.JSON(http.StatusOK, gin.H{"pipelines": names})
}

// RunLibrary handles POST /v1/library/:name/run: build and run a named
// library pipeline synchronously. When the definition leaves its output
// endpoint unset (or "none"), the run's output is captured as bytes and
// returned in the response; a definition with its own file or
// compressed_file output is honored as configured, and the response
// carries no output bytes for that run.
func (h *Handlers) RunLibrary(c *gin.Context) {
	name := c.Param("name")
	spec, ok := h.librarySpecs[name]
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "no library pipeline named " + name})
		return
	}

	e, err := library.Build(spec)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if h.breakerEnabled {
		e.WithBreaker(h.breakerFor)
	}
	if h.metrics != nil {
		e.WithGrowthHook(h.metrics.IncRingBufferGrowths)
	}

	var out []byte
	if spec.Output.Kind == "" || spec.Output.Kind == "none" {
		e.Output().SetBytes(&out)
	}

	rec := h.run(e, name, &out)
	c.JSON(http.StatusOK, recordToResponse(rec))
}

func (h *Handlers) breakerFor(prog string) *resilience.Breaker {
	h.breakerMu.Lock()
	defer h.breakerMu.Unlock()
	if b, ok := h.breakers[prog]; ok {
		return b
	}
	b := resilience.New(prog, resilience.Settings{
		ReadyToTrip: func(counts resilience.Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
	})
	h.breakers[prog] = b
	return b
}

// run executes e, recording the outcome into the run registry and
// updating pipeline-run metrics around the call.
func (h *Handlers) run(e *pipeline.Engine, name string, out *[]byte) *RunRecord {
	runID := id.NewRunID()
	started := time.Now()

	if h.metrics != nil {
		h.metrics.IncRunsStarted()
		h.metrics.SetRunsActive(1)
	}

	runErr := e.Run()

	if h.metrics != nil {
		h.metrics.SetRunsActive(0)
		if runErr != nil || !e.AllExitZero() {
			h.metrics.IncRunsFailed()
		}
		if out != nil {
			h.metrics.AddBytesTransferred("output", "bytes", len(*out))
		}
	}

	rec := &RunRecord{
		ID:        runID,
		Name:      name,
		StartedAt: started,
		Duration:  time.Since(started),
	}
	if out != nil {
		rec.Output = *out
	}
	if runErr != nil {
		rec.Err = runErr.Error()
	} else {
		rec.ExitCodes = e.ExitCodes()
		rec.AllExitZero = e.AllExitZero()
	}

	h.store.Put(rec)
	if h.metrics != nil {
		h.metrics.SetRegistryRuns(h.store.Len())
	}
	return rec
}

// AppendStage translates one StageRequest into a call on table, shared by
// the HTTP and WebSocket ad-hoc pipeline builders.
func AppendStage(table *stage.Table, st StageRequest) {
	switch st.Kind {
	case "pty_exec":
		table.AppendPTYExec(st.Prog, st.Args, st.Env)
	default:
		var opts []stage.ExecOption
		if len(st.Env) > 0 {
			opts = append(opts, stage.WithEnv(st.Env))
		}
		if st.PathSearch {
			opts = append(opts, stage.WithPathSearch())
		}
		if st.Glob != "" {
			table.AppendExecGlob(st.Glob, st.Args, opts...)
		} else {
			table.AppendExec(st.Prog, st.Args, opts...)
		}
	}
}

func recordToResponse(rec *RunRecord) PipelineResponse {
	return PipelineResponse{
		ID:          rec.ID.String(),
		Name:        rec.Name,
		ExitCodes:   rec.ExitCodes,
		AllExitZero: rec.AllExitZero,
		Output:      rec.Output,
		Error:       rec.Err,
		StartedAt:   rec.StartedAt.Format(time.RFC3339),
		DurationMS:  rec.Duration.Milliseconds(),
	}
}
