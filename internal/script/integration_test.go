package script_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flowproc/pipeline/internal/pipeline"
	"github.com/flowproc/pipeline/internal/platform"
	"github.com/flowproc/pipeline/internal/script"
)

func TestScriptStage_WiredIntoPipeline(t *testing.T) {
	s, err := script.New(`
function onChunk(chunk, emit) {
	var bytes = new Uint8Array(chunk);
	var out = new Uint8Array(bytes.length);
	for (var i = 0; i < bytes.length; i++) {
		out[i] = bytes[bytes.length - 1 - i];
	}
	emit(out.buffer);
}
`)
	require.NoError(t, err)

	e := pipeline.New(platform.New())
	e.Input().SetBytes([]byte("abcdef"))
	e.Stages().AppendFunction(s)
	var out []byte
	e.Output().SetBytes(&out)

	require.NoError(t, e.Run())
	assert.Equal(t, "fedcba", string(out))
}
