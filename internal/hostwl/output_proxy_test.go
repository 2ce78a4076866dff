package hostwl

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func encodeWlString(s string) []byte {
	n := uint32(len(s) + 1)
	out := []byte{byte(n), byte(n >> 8), byte(n >> 16), byte(n >> 24)}
	out = append(out, s...)
	out = append(out, 0)
	for len(out)%4 != 0 {
		out = append(out, 0)
	}
	return out
}

func TestDecodeString(t *testing.T) {
	data := encodeWlString("eDP-1")
	s, n := decodeString(data)
	assert.Equal(t, "eDP-1", s)
	assert.Equal(t, len(data), n)
}

func TestDecodeStringEmpty(t *testing.T) {
	data := []byte{0, 0, 0, 0}
	s, n := decodeString(data)
	assert.Equal(t, "", s)
	assert.Equal(t, 4, n)
}

func TestDecodeStringTruncated(t *testing.T) {
	data := []byte{1}
	s, n := decodeString(data)
	assert.Equal(t, "", s)
	assert.Equal(t, 1, n)
}
