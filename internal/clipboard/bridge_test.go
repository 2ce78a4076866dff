package clipboard

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDecodeAtomListSplitsFourByteWords(t *testing.T) {
	data := []byte{
		1, 0, 0, 0,
		2, 0, 0, 0,
		3, 0, 0, 0,
	}
	require.Equal(t, []uint32{1, 2, 3}, decodeAtomList(data))
}

func TestDecodeAtomListEmpty(t *testing.T) {
	require.Equal(t, []uint32{}, decodeAtomList(nil))
}
