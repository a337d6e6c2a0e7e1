package pipeline

import (
	"sync/atomic"

	"github.com/flowproc/pipeline/internal/platform"
)

// Handle is a reference-counted front-end over one shared Engine: every
// copy of a Handle sees the same underlying engine and its mutations, so
// Run (which mutates the engine in place) is visible to all copies. This
// models spec §9's "shared ownership with interior mutability" preference
// as a pointer plus an atomic refcount rather than a mutex, since the
// engine itself is single-threaded by contract.
type Handle struct {
	engine *Engine
	refs   *int32
}

// NewHandle returns a Handle wrapping a fresh Engine with one reference.
func NewHandle(ops platform.Ops) Handle {
	refs := int32(1)
	return Handle{engine: New(ops), refs: &refs}
}

// Clone returns a second Handle sharing the same engine, bumping the
// refcount.
func (h Handle) Clone() Handle {
	atomic.AddInt32(h.refs, 1)
	return h
}

// Engine returns the shared engine instance.
func (h Handle) Engine() *Engine { return h.engine }

// Close drops this Handle's reference. The underlying engine has no
// separate teardown of its own — Run already closes every fd it owns by
// the time it returns — so Close only exists to keep the refcount
// accurate for callers tracking handle lifetime themselves.
func (h Handle) Close() {
	atomic.AddInt32(h.refs, -1)
}

// RefCount reports the number of live Handle copies sharing this engine.
func (h Handle) RefCount() int32 {
	return atomic.LoadInt32(h.refs)
}
