package script

import (
	"fmt"

	"github.com/dop251/goja"

	"github.com/flowproc/pipeline/internal/stage"
)

// Stage is a stage.Transformer driven by a JavaScript program: one goja VM
// per Stage, reused across every Process/EOF call for the life of a run.
type Stage struct {
	vm      *goja.Runtime
	onChunk goja.Callable
	onEOF   goja.Callable
}

var _ stage.Transformer = (*Stage)(nil)

// New evaluates source in a fresh VM. source must declare a top-level
// function onChunk(chunk, emit): chunk is an ArrayBuffer of the bytes read
// from upstream, and emit(bytes) forwards a byte string or ArrayBuffer to
// the next stage, callable zero or more times per call. An optional
// function onEOF(emit) runs once, after the last onChunk call, when
// upstream reaches end of input.
func New(source string) (*Stage, error) {
	vm := goja.New()
	vm.Set("require", goja.Undefined())
	vm.Set("process", goja.Undefined())
	vm.Set("module", goja.Undefined())
	vm.Set("setTimeout", func(goja.FunctionCall) goja.Value { return goja.Undefined() })
	vm.Set("setInterval", func(goja.FunctionCall) goja.Value { return goja.Undefined() })

	if _, err := vm.RunString(source); err != nil {
		return nil, fmt.Errorf("script: evaluate: %w", err)
	}

	onChunk, ok := goja.AssertFunction(vm.Get("onChunk"))
	if !ok {
		return nil, fmt.Errorf("script: source must declare function onChunk(chunk, emit)")
	}
	s := &Stage{vm: vm, onChunk: onChunk}
	if onEOF, ok := goja.AssertFunction(vm.Get("onEOF")); ok {
		s.onEOF = onEOF
	}
	return s, nil
}

// Process hands data to the script's onChunk as an ArrayBuffer, forwarding
// every emit(...) call to w as it happens.
func (s *Stage) Process(data []byte, w stage.Writer) {
	chunk := make([]byte, len(data))
	copy(chunk, data)

	if _, err := s.onChunk(goja.Undefined(), s.vm.ToValue(s.vm.NewArrayBuffer(chunk)), s.emitFunc(w)); err != nil {
		// A script error drops this chunk rather than aborting the run: the
		// byte-stream protocol has no channel for a mid-stream structural
		// error, and the exec side of a pipeline has the same property (a
		// child that crashes just stops producing bytes).
		return
	}
}

// EOF calls the script's optional onEOF export, if declared.
func (s *Stage) EOF(w stage.Writer) {
	if s.onEOF == nil {
		return
	}
	s.onEOF(goja.Undefined(), s.emitFunc(w))
}

func (s *Stage) emitFunc(w stage.Writer) goja.Value {
	return s.vm.ToValue(func(call goja.FunctionCall) goja.Value {
		if len(call.Arguments) == 0 {
			return goja.Undefined()
		}
		if b := toBytes(call.Arguments[0]); b != nil {
			w.Write(b)
		}
		return goja.Undefined()
	})
}

func toBytes(v goja.Value) []byte {
	if v == nil || goja.IsUndefined(v) || goja.IsNull(v) {
		return nil
	}
	switch x := v.Export().(type) {
	case string:
		return []byte(x)
	case []byte:
		return x
	case goja.ArrayBuffer:
		return x.Bytes()
	default:
		return nil
	}
}
