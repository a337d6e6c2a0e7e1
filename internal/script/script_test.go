package script

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flowproc/pipeline/internal/ringbuf"
)

func TestNew_RejectsMissingOnChunk(t *testing.T) {
	_, err := New(`function notOnChunk() {}`)
	require.Error(t, err)
}

func TestStage_UppercasesEachChunk(t *testing.T) {
	s, err := New(`
function onChunk(chunk, emit) {
	var bytes = new Uint8Array(chunk);
	var out = new Uint8Array(bytes.length);
	for (var i = 0; i < bytes.length; i++) {
		var c = bytes[i];
		if (c >= 97 && c <= 122) {
			c -= 32;
		}
		out[i] = c;
	}
	emit(out.buffer);
}
`)
	require.NoError(t, err)

	buf := ringbuf.New()
	s.Process([]byte("hello"), buf)
	assert.Equal(t, "HELLO", string(buf.BottomView()))
}

func TestStage_OnEOFEmitsTrailer(t *testing.T) {
	s, err := New(`
function onChunk(chunk, emit) {
	emit(chunk);
}
function onEOF(emit) {
	emit("--done--");
}
`)
	require.NoError(t, err)

	buf := ringbuf.New()
	s.Process([]byte("x"), buf)
	s.EOF(buf)
	assert.Equal(t, "x--done--", string(buf.BottomView()))
}

func TestStage_ScriptErrorDropsChunkWithoutPanicking(t *testing.T) {
	s, err := New(`
function onChunk(chunk, emit) {
	throw new Error("boom");
}
`)
	require.NoError(t, err)

	buf := ringbuf.New()
	require.NotPanics(t, func() { s.Process([]byte("x"), buf) })
	assert.Equal(t, 0, buf.Size())
}
