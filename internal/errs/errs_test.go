package errs

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestStartupWrapsWithFatalStartupCategory(t *testing.T) {
	err := Startup("claim WM_Sn", errors.New("already owned"))
	require.True(t, Is(err, FatalStartup))
	require.False(t, Is(err, PerObjectProtocol))
	require.EqualError(t, err, "claim WM_Sn: already owned")
}

func TestProtocolWrapsWithPerObjectProtocolCategory(t *testing.T) {
	err := Protocol("decode request", errors.New("short read"))
	require.True(t, Is(err, PerObjectProtocol))
	require.False(t, Is(err, FatalStartup))
}

func TestStartupNilErrReturnsNil(t *testing.T) {
	require.NoError(t, Startup("op", nil))
}

func TestIsFalseForPlainError(t *testing.T) {
	require.False(t, Is(errors.New("plain"), FatalStartup))
}

func TestErrorUnwraps(t *testing.T) {
	cause := errors.New("cause")
	err := Startup("op", cause)
	require.ErrorIs(t, err, cause)
}

func TestCategoryString(t *testing.T) {
	require.Equal(t, "fatal-startup", fmt.Sprint(FatalStartup))
	require.Equal(t, "protocol", fmt.Sprint(PerObjectProtocol))
	require.Equal(t, "recoverable", fmt.Sprint(Recoverable))
	require.Equal(t, "logged", fmt.Sprint(LoggedAndContinued))
}
