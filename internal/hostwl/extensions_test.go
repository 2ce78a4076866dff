package hostwl

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDecodeU32(t *testing.T) {
	require.Equal(t, uint32(0x04030201), decodeU32([]byte{1, 2, 3, 4}))
	require.Equal(t, uint32(0), decodeU32([]byte{1, 2}))
}

func TestDecodeU32Array(t *testing.T) {
	// length=8 (two uint32 states), then the two states themselves.
	data := []byte{
		8, 0, 0, 0,
		1, 0, 0, 0,
		4, 0, 0, 0,
	}
	got := decodeU32Array(data)
	require.Equal(t, []uint32{1, 4}, got)
}

func TestDecodeU32ArrayEmpty(t *testing.T) {
	data := []byte{0, 0, 0, 0}
	require.Empty(t, decodeU32Array(data))
}
