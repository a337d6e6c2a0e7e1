package endpoint

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInput_SetTwiceePanics(t *testing.T) {
	in := NewInput()
	in.SetFd(3)
	assert.Panics(t, func() { in.SetFile("/etc/hosts") })
}

func TestInput_BytesCursor(t *testing.T) {
	in := NewInput()
	in.SetBytes([]byte("hello"))
	require.Equal(t, InputBytes, in.Kind())
	assert.Equal(t, []byte("hello"), in.BytesTail())
	in.AdvanceBytes(3)
	assert.Equal(t, []byte("lo"), in.BytesTail())
	assert.False(t, in.BytesExhausted())
	in.AdvanceBytes(2)
	assert.True(t, in.BytesExhausted())
}

func TestOutput_SetTwicePanics(t *testing.T) {
	out := NewOutput()
	var dst []byte
	out.SetBytes(&dst)
	assert.Panics(t, func() { out.SetFd(4) })
}

func TestOutput_AppendBytes(t *testing.T) {
	out := NewOutput()
	var dst []byte
	out.SetBytes(&dst)
	out.AppendBytes([]byte("ab"))
	out.AppendBytes([]byte("cd"))
	assert.Equal(t, "abcd", string(dst))
}

func TestOutput_DefaultFileMode(t *testing.T) {
	out := NewOutput()
	out.SetFile("/tmp/x", DefaultFileMode)
	assert.Equal(t, uint32(DefaultFileMode), out.Mode())
}

type fakeSource struct {
	chunks [][]byte
	i      int
}

func (f *fakeSource) Poll(w Writer) bool {
	if f.i >= len(f.chunks) {
		return false
	}
	w.Write(f.chunks[f.i])
	f.i++
	return f.i < len(f.chunks)
}

func TestInput_Callback(t *testing.T) {
	in := NewInput()
	src := &fakeSource{chunks: [][]byte{[]byte("a"), []byte("b")}}
	in.SetCallback(src)
	assert.Equal(t, InputCallback, in.Kind())
	assert.Same(t, src, in.Source())
}
