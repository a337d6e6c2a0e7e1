package library

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writePipelineFile(t *testing.T, dir, rel, content string) {
	t.Helper()
	path := filepath.Join(dir, rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestLoad_MatchesDefaultPattern(t *testing.T) {
	dir := t.TempDir()
	writePipelineFile(t, dir, "count.pipeline.yaml", `
name: count
stages:
  - prog: /bin/cat
`)
	writePipelineFile(t, dir, "nested/sub.pipeline.yaml", `
name: sub
stages:
  - prog: /bin/echo
    args: ["hi"]
`)
	writePipelineFile(t, dir, "notes.txt", "ignore me")

	specs, err := Load(dir, "")
	require.NoError(t, err)
	require.Len(t, specs, 2)

	names := map[string]bool{}
	for _, s := range specs {
		names[s.Name] = true
	}
	assert.True(t, names["count"])
	assert.True(t, names["sub"])
}

func TestLoad_InvalidSpecReportsError(t *testing.T) {
	dir := t.TempDir()
	writePipelineFile(t, dir, "broken.pipeline.yaml", `
name: broken
stages: []
`)

	_, err := Load(dir, "")
	require.Error(t, err)
}

func TestLoad_CustomPattern(t *testing.T) {
	dir := t.TempDir()
	writePipelineFile(t, dir, "a.yml", `
name: a
stages:
  - prog: /bin/true
`)

	specs, err := Load(dir, "**/*.yml")
	require.NoError(t, err)
	require.Len(t, specs, 1)
	assert.Equal(t, "a", specs[0].Name)
}
