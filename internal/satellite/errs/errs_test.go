package errs

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestKindOfClassifiesConstructedErrors(t *testing.T) {
	require.Equal(t, KindFatal, KindOf(Fatal("missing global %s", "xdg_wm_base")))
	require.Equal(t, KindProtocol, KindOf(Protocol("bad opcode %d", 99)))
	require.Equal(t, KindRecoverable, KindOf(Recoverable("read failed")))
	require.Equal(t, KindLogged, KindOf(Logged("unknown atom")))
}

func TestKindOfDefaultsPlainErrorsToRecoverable(t *testing.T) {
	require.Equal(t, KindRecoverable, KindOf(errors.New("plain")))
}

func TestIsFatal(t *testing.T) {
	require.True(t, IsFatal(Fatal("cannot claim WM_S0")))
	require.False(t, IsFatal(Recoverable("transient")))
}

func TestErrorUnwraps(t *testing.T) {
	inner := errors.New("boom")
	wrapped := &Error{Kind: KindRecoverable, Err: inner}
	require.ErrorIs(t, wrapped, inner)
}
