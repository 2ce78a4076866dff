package sdnotify

import (
	"net"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestNewReturnsNilWhenDisabled(t *testing.T) {
	require.Nil(t, New(false, "/tmp/whatever"))
}

func TestNewReturnsNilWhenSocketEmpty(t *testing.T) {
	require.Nil(t, New(true, ""))
}

func TestReadyOnNilNotifierIsNoOp(t *testing.T) {
	var n *Notifier
	require.NoError(t, n.Ready())
}

func TestReadySendsReadyDatagram(t *testing.T) {
	sockPath := filepath.Join(t.TempDir(), "notify.sock")
	l, err := net.ListenUnixgram("unixgram", &net.UnixAddr{Name: sockPath, Net: "unixgram"})
	require.NoError(t, err)
	defer l.Close()

	n := New(true, sockPath)
	require.NoError(t, n.Ready())

	buf := make([]byte, 32)
	require.NoError(t, l.SetReadDeadline(time.Now().Add(time.Second)))
	nRead, err := l.Read(buf)
	require.NoError(t, err)
	require.Equal(t, "READY=1", string(buf[:nRead]))
}

func TestReadyOnMissingSocketReturnsError(t *testing.T) {
	n := New(true, filepath.Join(os.TempDir(), "does-not-exist.sock"))
	require.Error(t, n.Ready())
}
