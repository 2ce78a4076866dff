package xserverproc

import (
	"os"
	"os/exec"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func waitDone(t *testing.T, p *Process) {
	t.Helper()
	select {
	case <-p.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("process did not exit in time")
	}
}

func TestSpawnUnknownBinaryReturnsError(t *testing.T) {
	_, err := Spawn("does-not-exist-xwayland-binary", ":0", nil, nil)
	require.Error(t, err)
}

func TestSpawnBuildsListenfdAndExtensionArgs(t *testing.T) {
	r, wp, err := os.Pipe() // listen fds must be open in this process
	require.NoError(t, err)
	defer r.Close()
	defer wp.Close()
	p, err := Spawn("/bin/true", ":7", []int{int(r.Fd()), int(wp.Fd())}, []string{"MIT-SHM"})
	require.NoError(t, err)
	require.Equal(t, []string{":7", "-listenfd", "3", "-listenfd", "4", "+extension", "MIT-SHM"}, p.cmd.Args[1:])
	waitDone(t, p)
}

func TestExitCodeMirrorsChildStatus(t *testing.T) {
	p, err := Spawn("/bin/false", "", nil, nil)
	require.NoError(t, err)
	waitDone(t, p)
	require.Equal(t, 1, p.ExitCode())
}

func TestExitCodeZeroOnCleanExit(t *testing.T) {
	p, err := Spawn("/bin/true", "", nil, nil)
	require.NoError(t, err)
	waitDone(t, p)
	require.Equal(t, 0, p.ExitCode())
	require.NoError(t, p.Err())
}

func TestExitCodeBeforeExitIsNegativeOne(t *testing.T) {
	p := &Process{cmd: exec.Command("/bin/true")}
	require.Equal(t, -1, p.ExitCode())
}
