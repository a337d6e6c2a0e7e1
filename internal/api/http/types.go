package http

import (
	"time"

	"github.com/flowproc/pipeline/internal/shared/id"
)

// StageRequest describes one stage of an ad-hoc pipeline submitted over
// HTTP. Kind "pty_exec" selects a PTY-backed stage; any other value
// (including empty) is a plain exec stage. A non-empty Glob resolves the
// program by glob instead of by Prog.
type StageRequest struct {
	Kind       string   `json:"kind"`
	Prog       string   `json:"prog"`
	Args       []string `json:"args"`
	Env        []string `json:"env"`
	PathSearch bool     `json:"path_search"`
	Glob       string   `json:"glob"`
}

// PipelineRequest is the POST /v1/pipelines request body: an input byte
// sequence (optional — omitted means no input), an optional name, and an
// ordered stage list.
type PipelineRequest struct {
	Name        string         `json:"name"`
	InputBase64 []byte         `json:"input"` // encoding/json base64-decodes a []byte field automatically
	Stages      []StageRequest `json:"stages"`
}

// PipelineResponse is the POST /v1/pipelines and GET /v1/pipelines/:id
// response body.
type PipelineResponse struct {
	ID          string `json:"id"`
	Name        string `json:"name,omitempty"`
	ExitCodes   []int  `json:"exit_codes"`
	AllExitZero bool   `json:"all_exit_zero"`
	Output      []byte `json:"output,omitempty"`
	Error       string `json:"error,omitempty"`
	StartedAt   string `json:"started_at"`
	DurationMS  int64  `json:"duration_ms"`
}

// RunRecord is one completed run, as kept by a RunStore. Declared here
// (rather than in internal/server, which constructs the concrete store)
// so this package never has to import internal/server — internal/server
// imports this package to assemble its routes, and a reverse import would
// cycle.
type RunRecord struct {
	ID          id.RunID
	Name        string
	StartedAt   time.Time
	Duration    time.Duration
	ExitCodes   []int
	AllExitZero bool
	Output      []byte
	Err         string
}

// RunStore is the subset of internal/server.Registry the handlers need.
type RunStore interface {
	Put(rec *RunRecord)
	Get(runID id.RunID) (*RunRecord, bool)
	Len() int
}
