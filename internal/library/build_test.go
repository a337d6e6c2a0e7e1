package library

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuild_FileToFilePipeline(t *testing.T) {
	dir := t.TempDir()
	inPath := filepath.Join(dir, "in.txt")
	outPath := filepath.Join(dir, "out.txt")
	require.NoError(t, os.WriteFile(inPath, []byte("hello\nworld\n"), 0o644))

	spec := &Spec{
		Name:  "grep-hello",
		Input: EndpointSpec{Kind: "file", Path: inPath},
		Output: EndpointSpec{Kind: "file", Path: outPath},
		Stages: []StageSpec{
			{Prog: "/usr/bin/grep", Args: []string{"hello"}, PathSearch: true},
		},
	}

	e, err := Build(spec)
	require.NoError(t, err)
	require.NoError(t, e.Run())

	out, err := os.ReadFile(outPath)
	require.NoError(t, err)
	assert.Equal(t, "hello\n", string(out))
}

func TestBuild_MultiStagePipeline(t *testing.T) {
	dir := t.TempDir()
	outPath := filepath.Join(dir, "out.txt")

	spec := &Spec{
		Name:   "echo-through-cat",
		Output: EndpointSpec{Kind: "file", Path: outPath},
		Stages: []StageSpec{
			{Prog: "/bin/echo", Args: []string{"through"}},
			{Prog: "/bin/cat"},
		},
	}

	e, err := Build(spec)
	require.NoError(t, err)
	require.NoError(t, e.Run())

	out, err := os.ReadFile(outPath)
	require.NoError(t, err)
	assert.Equal(t, "through\n", string(out))
}

func TestBuild_RejectsUnknownStageKind(t *testing.T) {
	spec := &Spec{
		Stages: []StageSpec{{Kind: "weird", Prog: "/bin/true"}},
	}
	_, err := Build(spec)
	require.Error(t, err)
}

func TestBuild_PTYExecStage(t *testing.T) {
	dir := t.TempDir()
	outPath := filepath.Join(dir, "out.txt")

	spec := &Spec{
		Name:   "pty-echo",
		Output: EndpointSpec{Kind: "file", Path: outPath},
		Stages: []StageSpec{
			{Kind: "pty_exec", Prog: "/bin/sh", Args: []string{"-c", "echo from-pty"}},
		},
	}

	e, err := Build(spec)
	require.NoError(t, err)
	require.NoError(t, e.Run())

	out, err := os.ReadFile(outPath)
	require.NoError(t, err)
	assert.Contains(t, string(out), "from-pty")
}
