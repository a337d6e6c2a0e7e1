package ptyexec

import (
	"bufio"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestSpawn_EchoRoundTrip(t *testing.T) {
	h, err := Spawn("/bin/sh", []string{"/bin/sh", "-c", "read x; echo \"got:$x\""}, nil, DefaultWinsize)
	require.NoError(t, err)
	defer h.Close()

	_, err = h.Master.Write([]byte("hello\n"))
	require.NoError(t, err)

	h.Master.SetReadDeadline(time.Now().Add(5 * time.Second))
	// The terminal echoes the written "hello" line before the child's own
	// output, so read past it to the line the child printed.
	reader := bufio.NewReader(h.Master)
	var line string
	for !strings.Contains(line, "got:") {
		line, err = reader.ReadString('\n')
		require.NoError(t, err)
	}
	require.Contains(t, line, "got:hello")
}

func TestSpawn_EmptyProgramErrors(t *testing.T) {
	_, err := Spawn("", nil, nil, DefaultWinsize)
	require.Error(t, err)
}

func TestSpawn_Resize(t *testing.T) {
	h, err := Spawn("/bin/sh", []string{"/bin/sh", "-c", "sleep 1"}, nil, DefaultWinsize)
	require.NoError(t, err)
	defer h.Close()

	require.NoError(t, h.Resize(Winsize{Rows: 40, Cols: 100}))
}
