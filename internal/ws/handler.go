// Package ws streams a running pipeline's output endpoint to a WebSocket
// client as it arrives, by registering an endpoint.Sink that forwards
// chunks to the socket instead of buffering them.
package ws

import (
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	apihttp "github.com/flowproc/pipeline/internal/api/http"
	"github.com/flowproc/pipeline/internal/endpoint"
	"github.com/flowproc/pipeline/internal/infrastructure/monitoring"
	"github.com/flowproc/pipeline/internal/pipeline"
	"github.com/flowproc/pipeline/internal/platform"
	"github.com/flowproc/pipeline/internal/shared/id"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Handler upgrades HTTP connections to WebSockets and runs one ad-hoc
// pipeline per connection, streaming its output as it is produced.
type Handler struct {
	store   apihttp.RunStore
	metrics *monitoring.Metrics
}

// NewHandler builds a Handler.
func NewHandler(store apihttp.RunStore, metrics *monitoring.Metrics) *Handler {
	return &Handler{store: store, metrics: metrics}
}

// request is the single JSON message a client sends right after the
// upgrade to describe the pipeline it wants run.
type request struct {
	Name   string                 `json:"name"`
	Input  []byte                 `json:"input"`
	Stages []apihttp.StageRequest `json:"stages"`
}

// HandleConnection upgrades the connection, reads one request message,
// runs the described pipeline with its output streamed back as binary
// frames, then sends a final JSON summary frame and closes.
func (h *Handler) HandleConnection(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("ws: upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	if h.metrics != nil {
		h.metrics.IncWSConnections()
		defer h.metrics.DecWSConnections()
	}

	var req request
	if err := conn.ReadJSON(&req); err != nil {
		h.sendError(conn, "invalid request: "+err.Error())
		return
	}
	if len(req.Stages) == 0 {
		h.sendError(conn, "at least one stage is required")
		return
	}

	e := pipeline.New(platform.New())
	if len(req.Input) > 0 {
		e.Input().SetBytes(req.Input)
	}
	sink := &socketSink{conn: conn, metrics: h.metrics}
	e.Output().SetCallback(sink)

	table := e.Stages()
	for _, st := range req.Stages {
		apihttp.AppendStage(table, st)
	}

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
	}

	rec := &apihttp.RunRecord{
		ID:        id.NewRunID(),
		Name:      req.Name,
		StartedAt: time.Now().Add(-sink.elapsed()),
		Duration:  sink.elapsed(),
		Output:    sink.collected(),
	}
	if runErr != nil {
		rec.Err = runErr.Error()
	} else {
		rec.ExitCodes = e.ExitCodes()
		rec.AllExitZero = e.AllExitZero()
	}
	if h.store != nil {
		h.store.Put(rec)
	}

	msg := gin.H{
		"type":          "complete",
		"id":            rec.ID.String(),
		"exit_codes":    rec.ExitCodes,
		"all_exit_zero": rec.AllExitZero,
	}
	if rec.Err != "" {
		msg["error"] = rec.Err
	}
	h.send(conn, msg)
}

func (h *Handler) send(conn *websocket.Conn, data interface{}) error {
	return conn.WriteJSON(data)
}

func (h *Handler) sendError(conn *websocket.Conn, reason string) error {
	return h.send(conn, gin.H{"type": "error", "message": reason})
}

// socketSink forwards output chunks to a WebSocket as binary frames,
// satisfying endpoint.Sink. Writes are serialized since gorilla/websocket
// connections are not safe for concurrent writers, and collected so a
// run record can be kept alongside the streamed bytes.
type socketSink struct {
	conn    *websocket.Conn
	metrics *monitoring.Metrics

	mu    sync.Mutex
	buf   []byte
	start time.Time
	end   time.Time
}

func (s *socketSink) Process(data []byte) {
	s.mu.Lock()
	if s.start.IsZero() {
		s.start = time.Now()
	}
	s.buf = append(s.buf, data...)
	s.mu.Unlock()

	if s.metrics != nil {
		s.metrics.AddBytesTransferred("output", "bytes", len(data))
	}
	if err := s.conn.WriteMessage(websocket.BinaryMessage, data); err != nil {
		log.Printf("ws: write failed: %v", err)
	}
}

func (s *socketSink) EOF() {
	s.mu.Lock()
	s.end = time.Now()
	s.mu.Unlock()
}

func (s *socketSink) collected() []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]byte, len(s.buf))
	copy(out, s.buf)
	return out
}

func (s *socketSink) elapsed() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.start.IsZero() {
		return 0
	}
	end := s.end
	if end.IsZero() {
		end = time.Now()
	}
	return end.Sub(s.start)
}

var _ endpoint.Sink = (*socketSink)(nil)
