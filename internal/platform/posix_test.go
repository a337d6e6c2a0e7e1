package platform

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPOSIX_PipeRoundTrip(t *testing.T) {
	p := New()
	r, w, err := p.Pipe()
	require.NoError(t, err)
	defer p.Close(r)
	defer p.Close(w)

	n, err := p.Write(w, []byte("hello"))
	require.NoError(t, err)
	require.Equal(t, 5, n)

	buf := make([]byte, 16)
	n, err = p.Read(r, buf)
	require.NoError(t, err)
	require.Equal(t, "hello", string(buf[:n]))
}

func TestPOSIX_NonblockingReadWouldBlock(t *testing.T) {
	p := New()
	r, w, err := p.Pipe()
	require.NoError(t, err)
	defer p.Close(r)
	defer p.Close(w)

	require.NoError(t, p.SetNonblocking(r))

	buf := make([]byte, 16)
	_, err = p.Read(r, buf)
	require.ErrorIs(t, err, ErrWouldBlock)
}

func TestPOSIX_PipeEOFAfterWriterClose(t *testing.T) {
	p := New()
	r, w, err := p.Pipe()
	require.NoError(t, err)
	defer p.Close(r)

	require.NoError(t, p.Close(w))

	buf := make([]byte, 16)
	n, err := p.Read(r, buf)
	require.NoError(t, err)
	require.Equal(t, 0, n)
}

func TestPOSIX_SpawnAndWait(t *testing.T) {
	p := New()
	pid, err := p.Spawn(SpawnParams{
		Prog:     "/bin/sh",
		Argv:     []string{"/bin/sh", "-c", "exit 7"},
		StdinFd:  -1,
		StdoutFd: -1,
	})
	require.NoError(t, err)
	require.Greater(t, pid, 0)

	gotPid, status, err := p.WaitAny()
	require.NoError(t, err)
	require.Equal(t, pid, gotPid)
	code, ok := status.Code()
	require.True(t, ok)
	require.Equal(t, 7, code)
}

func TestPOSIX_SpawnMissingProgramExits255(t *testing.T) {
	p := New()
	pid, err := p.Spawn(SpawnParams{
		Prog:     "/no/such/program/anywhere",
		Argv:     []string{"/no/such/program/anywhere"},
		StdinFd:  -1,
		StdoutFd: -1,
	})
	require.NoError(t, err)
	require.Greater(t, pid, 0)

	gotPid, status, err := p.WaitAny()
	require.NoError(t, err)
	require.Equal(t, pid, gotPid)
	code, ok := status.Code()
	require.True(t, ok)
	require.Equal(t, 255, code)
}

func TestPOSIX_OpenWriteTruncateThenOpenRead(t *testing.T) {
	p := New()
	path := filepath.Join(t.TempDir(), "out.txt")

	wfd, err := p.OpenWriteTruncate(path, 0o644)
	require.NoError(t, err)
	_, err = p.Write(wfd, []byte("contents"))
	require.NoError(t, err)
	require.NoError(t, p.Close(wfd))

	rfd, err := p.OpenRead(path)
	require.NoError(t, err)
	buf := make([]byte, 32)
	n, err := p.Read(rfd, buf)
	require.NoError(t, err)
	require.Equal(t, "contents", string(buf[:n]))
	require.NoError(t, p.Close(rfd))
}

func TestPOSIX_SelectReportsReadReady(t *testing.T) {
	p := New()
	r, w, err := p.Pipe()
	require.NoError(t, err)
	defer p.Close(r)
	defer p.Close(w)

	_, err = p.Write(w, []byte("x"))
	require.NoError(t, err)

	result, err := p.Select(ReadySets{Read: []int{r}})
	require.NoError(t, err)
	require.True(t, result.Read[r])
}

func TestResolveProgram_PathSearchFindsSh(t *testing.T) {
	t.Setenv("PATH", "/usr/bin:/bin")
	path, err := resolveProgram("sh", true)
	require.NoError(t, err)
	require.True(t, filepath.IsAbs(path))
	_, err = os.Stat(path)
	require.NoError(t, err)
}
