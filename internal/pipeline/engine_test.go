package pipeline

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flowproc/pipeline/internal/endpoint"
	"github.com/flowproc/pipeline/internal/platform"
	"github.com/flowproc/pipeline/internal/stage"
)

func newTestEngine() *Engine {
	return New(platform.New())
}

func TestEngine_E1_EchoToBytes(t *testing.T) {
	e := newTestEngine()
	e.Stages().AppendExec("/bin/echo", []string{"test123"})
	var out []byte
	e.Output().SetBytes(&out)

	require.NoError(t, e.Run())
	assert.Equal(t, "test123\n", string(out))
	assert.True(t, e.AllExitZero())
}

func TestEngine_E5_EmptyPipelineStructuralError(t *testing.T) {
	e := newTestEngine()
	var out []byte
	e.Output().SetBytes(&out)

	err := e.Run()
	require.Error(t, err)
	var runErr *RunError
	require.ErrorAs(t, err, &runErr)
	assert.Empty(t, out)
}

func TestEngine_E6_MissingProgram(t *testing.T) {
	e := newTestEngine()
	e.Stages().AppendExec("/no/such/program/anywhere", nil)
	var out []byte
	e.Output().SetBytes(&out)

	require.NotPanics(t, func() {
		err := e.Run()
		require.NoError(t, err)
	})
	assert.Equal(t, 255, e.ExitCode(0))
	assert.False(t, e.AllExitZero())
}

func TestEngine_ExitReporting(t *testing.T) {
	e := newTestEngine()
	e.Stages().AppendExec("/bin/sh", []string{"-c", "exit 3"})
	var out []byte
	e.Output().SetBytes(&out)

	require.NoError(t, e.Run())
	assert.Equal(t, 3, e.ExitCode(0))
	assert.Equal(t, -1, e.ExitSignal(0))
	assert.False(t, e.AllExitZero())
}

func TestEngine_EnvironmentPassthrough(t *testing.T) {
	e := newTestEngine()
	e.Stages().AppendExecWithArgv0("/bin/sh", []string{"/bin/sh", "-c", "echo $TEST"}, []string{"TEST=123"})
	var out []byte
	e.Output().SetBytes(&out)

	require.NoError(t, e.Run())
	assert.Equal(t, "123\n", string(out))
}

func TestEngine_Transparency(t *testing.T) {
	e := newTestEngine()
	prefix := []byte("abcdefg")
	body := bytes.Repeat([]byte{0x5a}, 1<<20)
	input := append(append([]byte(nil), prefix...), body...)

	e.Input().SetBytes(input)
	e.Stages().AppendExec("/bin/cat", nil)
	var out []byte
	e.Output().SetBytes(&out)

	require.NoError(t, e.Run())
	assert.Equal(t, input, out)
	assert.True(t, e.AllExitZero())
}

// incrementalDigest forwards bytes unchanged while accumulating a running
// sha256 over everything seen, exposed once EOF fires.
type incrementalDigest struct {
	acc    []byte
	result string
}

func (d *incrementalDigest) Process(data []byte, w stage.Writer) {
	d.acc = append(d.acc, data...)
	w.Write(data)
}

func (d *incrementalDigest) EOF(w stage.Writer) {
	sum := sha256.Sum256(d.acc)
	d.result = hex.EncodeToString(sum[:])
}

func TestEngine_ComposabilityWithDigestFunctionStage(t *testing.T) {
	pattern := make([]byte, 1000)
	for i := range pattern {
		pattern[i] = byte(i)
	}
	input := bytes.Repeat(pattern, 100) // 100 KiB

	e := newTestEngine()
	e.Input().SetBytes(input)
	e.Stages().AppendExec("/bin/cat", nil)
	digest := &incrementalDigest{}
	e.Stages().AppendFunction(digest)
	var out []byte
	e.Output().SetBytes(&out)

	require.NoError(t, e.Run())
	assert.Equal(t, input, out)

	want := sha256.Sum256(input)
	assert.Equal(t, hex.EncodeToString(want[:]), digest.result)
}

type countingSource struct {
	remaining int
	pattern   byte
}

func (s *countingSource) Poll(w endpoint.Writer) bool {
	if s.remaining <= 0 {
		return false
	}
	n := 4096
	if n > s.remaining {
		n = s.remaining
	}
	chunk := bytes.Repeat([]byte{s.pattern}, n)
	w.Write(chunk)
	s.remaining -= n
	return s.remaining > 0
}

func TestEngine_BackPressureSafety(t *testing.T) {
	e := newTestEngine()
	e.Input().SetCallback(&countingSource{remaining: 100 * 1024, pattern: 0x42})
	e.Stages().AppendExec("/bin/cat", nil)
	var out []byte
	e.Output().SetBytes(&out)

	require.NoError(t, e.Run())
	assert.Len(t, out, 100*1024)
	assert.True(t, bytes.Equal(out, bytes.Repeat([]byte{0x42}, 100*1024)))
}

func TestEngine_PTYExecStage(t *testing.T) {
	e := newTestEngine()
	e.Input().SetBytes([]byte("hello\n"))
	e.Stages().AppendPTYExec("/bin/sh", []string{"-c", "read x; echo got:$x"}, nil)
	var out []byte
	e.Output().SetBytes(&out)

	require.NoError(t, e.Run())
	assert.Contains(t, string(out), "got:hello")
}

func TestEngine_RunTwicePanics(t *testing.T) {
	e := newTestEngine()
	e.Stages().AppendExec("/bin/true", nil)
	require.NoError(t, e.Run())
	assert.Panics(t, func() { e.Run() })
}
