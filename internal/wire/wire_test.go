package wire

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	buf, err := Encode(7, 3, uint32(42), "hello", NewFixed(1.5))
	require.NoError(t, err)

	var hdr [8]byte
	copy(hdr[:], buf[:8])
	objectID, opcode, size := DecodeHeader(hdr)
	require.EqualValues(t, 7, objectID)
	require.EqualValues(t, 3, opcode)
	require.EqualValues(t, len(buf), size)

	r := NewReader(buf[8:])
	n, err := r.Uint32()
	require.NoError(t, err)
	require.EqualValues(t, 42, n)

	s, err := r.String()
	require.NoError(t, err)
	require.Equal(t, "hello", s)

	f, err := r.Fixed()
	require.NoError(t, err)
	require.InDelta(t, 1.5, f.Float64(), 0.01)
}

func TestEncodeArrayRoundTrip(t *testing.T) {
	buf, err := Encode(1, 0, []byte{1, 2, 3})
	require.NoError(t, err)
	r := NewReader(buf[8:])
	got, err := r.Array()
	require.NoError(t, err)
	require.Equal(t, []byte{1, 2, 3}, got)
}

func TestEncodeRejectsUnsupportedArg(t *testing.T) {
	_, err := Encode(1, 0, 3.14)
	require.Error(t, err)
}

func TestFixedConversion(t *testing.T) {
	f := NewFixed(100.0)
	require.Equal(t, 100.0, f.Float64())
}
