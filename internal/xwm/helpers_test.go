package xwm

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDecodeWMClassTakesSecondString(t *testing.T) {
	v := append([]byte("firefox\x00"), []byte("Firefox\x00")...)
	require.Equal(t, "Firefox", decodeWMClass(v))
}

func TestDecodeWMClassSingleStringFallsBack(t *testing.T) {
	require.Equal(t, "nonul", decodeWMClass([]byte("nonul")))
}

func TestLeUint32(t *testing.T) {
	require.Equal(t, uint32(0x04030201), leUint32([]byte{1, 2, 3, 4}))
}

func TestIsPopupWindowType(t *testing.T) {
	a := &atoms{typeMenu: 10, typeDropdownMenu: 11, typePopupMenu: 12, typeTooltip: 13, typeCombo: 14}
	require.True(t, a.isPopupWindowType(13))
	require.False(t, a.isPopupWindowType(999))
	require.False(t, a.isPopupWindowType(0))
}

func TestBitmapToXYFormatPadsToWordBoundary(t *testing.T) {
	rows := [16]uint16{0x8000}
	out := bitmapToXYFormat(rows[:], 16, 16)
	require.Len(t, out, 4*16) // 16 rows, each padded to a 4-byte stride
	require.Equal(t, byte(0x80), out[0])
}
