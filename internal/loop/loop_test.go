package loop

import (
	"net"
	"testing"

	"github.com/bnema/satellite/internal/x11wire"
	"github.com/stretchr/testify/require"
)

func TestRunReturnsErrorWhenX11ConnHasNoFD(t *testing.T) {
	server, client := net.Pipe() // in-memory, no underlying fd
	defer server.Close()
	defer client.Close()

	conn := x11wire.NewOverConn(client, x11wire.Setup{Root: 1, ResourceIDBase: 0x400, ResourceIDMask: 0xff})
	l := New(conn, nil, nil, nil)

	err := l.Run()
	require.Error(t, err)
}

func TestLogAndContinueSwallowsNilError(t *testing.T) {
	LogAndContinue("test", nil) // must not panic, logs nothing
}

func TestLogAndContinueLogsNonNilError(t *testing.T) {
	LogAndContinue("test", net.ErrClosed) // must not panic
}

func TestStopClosesWithoutPanicBeforeRun(t *testing.T) {
	l := New(nil, nil, nil, nil)
	l.Stop() // must be safe even if Run never started
}
