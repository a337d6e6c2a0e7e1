package ws

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	apihttp "github.com/flowproc/pipeline/internal/api/http"
	"github.com/flowproc/pipeline/internal/shared/id"
)

type memStore struct {
	records map[id.RunID]*apihttp.RunRecord
}

func (m *memStore) Put(rec *apihttp.RunRecord) { m.records[rec.ID] = rec }
func (m *memStore) Get(runID id.RunID) (*apihttp.RunRecord, bool) {
	r, ok := m.records[runID]
	return r, ok
}
func (m *memStore) Len() int { return len(m.records) }

func TestHandleConnection_StreamsOutputAndSummarizes(t *testing.T) {
	gin.SetMode(gin.TestMode)
	store := &memStore{records: map[id.RunID]*apihttp.RunRecord{}}
	h := NewHandler(store, nil)

	r := gin.New()
	r.GET("/pipelines/:id/stream", h.HandleConnection)
	srv := httptest.NewServer(r)
	defer srv.Close()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/pipelines/run_test/stream"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	req := request{Stages: []apihttp.StageRequest{
		{Prog: "/bin/echo", Args: []string{"streamed"}},
	}}
	if err := conn.WriteJSON(req); err != nil {
		t.Fatalf("write request: %v", err)
	}

	conn.SetReadDeadline(time.Now().Add(5 * time.Second))

	var collected []byte
	var summary map[string]any
	for {
		msgType, data, err := conn.ReadMessage()
		if err != nil {
			t.Fatalf("read message: %v", err)
		}
		if msgType == websocket.BinaryMessage {
			collected = append(collected, data...)
			continue
		}
		if err := json.Unmarshal(data, &summary); err != nil {
			t.Fatalf("unmarshal summary: %v", err)
		}
		break
	}

	if string(collected) != "streamed\n" {
		t.Fatalf("expected streamed output %q, got %q", "streamed\n", collected)
	}
	if summary["type"] != "complete" {
		t.Fatalf("expected completion summary, got %+v", summary)
	}
	if store.Len() != 1 {
		t.Fatalf("expected run recorded, store has %d entries", store.Len())
	}
}
