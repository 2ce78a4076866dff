package xserverproc

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPickDisplayNumberReturnsNumericString(t *testing.T) {
	n, err := PickDisplayNumber()
	require.NoError(t, err)
	var parsed int
	_, err = fmt.Sscanf(n, "%d", &parsed)
	require.NoError(t, err)
	require.GreaterOrEqual(t, parsed, 0)
}

func TestPickDisplayNumberSkipsExistingSockets(t *testing.T) {
	if os.Geteuid() != 0 && !canWriteX11Unix(t) {
		t.Skip("requires write access to /tmp/.X11-unix")
	}
	path := "/tmp/.X11-unix/X0"
	if _, err := os.Stat(path); err == nil {
		t.Skip("display :0 already in use on this machine")
	}
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	f, err := os.Create(path)
	require.NoError(t, err)
	defer func() {
		f.Close()
		os.Remove(path)
	}()

	n, err := PickDisplayNumber()
	require.NoError(t, err)
	require.NotEqual(t, "0", n)
}

func canWriteX11Unix(t *testing.T) bool {
	t.Helper()
	if err := os.MkdirAll("/tmp/.X11-unix", 0755); err != nil {
		return false
	}
	f, err := os.CreateTemp("/tmp/.X11-unix", "probe")
	if err != nil {
		return false
	}
	name := f.Name()
	f.Close()
	os.Remove(name)
	return true
}
