package server

import (
	"sync"

	apihttp "github.com/flowproc/pipeline/internal/api/http"
	"github.com/flowproc/pipeline/internal/shared/id"
)

// Registry is a fixed-capacity, in-memory store of completed pipeline
// runs, evicting the oldest entry once full. It satisfies apihttp.RunStore
// structurally so internal/api/http never needs to import this package.
type Registry struct {
	mu       sync.Mutex
	capacity int
	order    []id.RunID
	records  map[id.RunID]*apihttp.RunRecord
}

// NewRegistry returns an empty Registry holding at most capacity runs.
func NewRegistry(capacity int) *Registry {
	if capacity <= 0 {
		capacity = 200
	}
	return &Registry{
		capacity: capacity,
		records:  make(map[id.RunID]*apihttp.RunRecord, capacity),
	}
}

// Put records rec, evicting the oldest run if the registry is at capacity.
func (r *Registry) Put(rec *apihttp.RunRecord) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.records[rec.ID]; !exists {
		r.order = append(r.order, rec.ID)
	}
	r.records[rec.ID] = rec

	for len(r.order) > r.capacity {
		oldest := r.order[0]
		r.order = r.order[1:]
		delete(r.records, oldest)
	}
}

// Get returns the record for runID, if still retained.
func (r *Registry) Get(runID id.RunID) (*apihttp.RunRecord, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.records[runID]
	return rec, ok
}

// Len reports how many runs are currently retained.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.records)
}
