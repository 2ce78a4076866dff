package xwayserver

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bnema/satellite/internal/hostwl"
)

func TestTranslateWithScale(t *testing.T) {
	rootX, rootY := TranslateWithScale(100, 200, 10.4, 3.6, 2)
	// 100 + 10.4*2 + 0.5 = 121.3 -> 121 ; 200 + 3.6*2 + 0.5 = 207.7 -> 207
	assert.Equal(t, int32(121), rootX)
	assert.Equal(t, int32(207), rootY)
}

func TestTranslateWithScaleFloorsScaleAtOne(t *testing.T) {
	rootX, rootY := TranslateWithScale(0, 0, 5, 5, 0)
	assert.Equal(t, int32(5), rootX)
	assert.Equal(t, int32(5), rootY)
}

func TestPointerTranslatorUnknownOutput(t *testing.T) {
	p := &pointerTranslator{layout: newOutputLayout()}
	_, _, ok := p.Translate(99, 1, 1, 1)
	assert.False(t, ok)
}

func TestPointerTranslatorKnownOutput(t *testing.T) {
	layout := newOutputLayout()
	layout.Recompute([]*hostwl.Output{
		{Name: 1, Width: 1920, Height: 1080, Scale: 1},
		{Name: 2, Width: 1280, Height: 720, Scale: 2},
	})
	p := &pointerTranslator{layout: layout}

	rootX, rootY, ok := p.Translate(2, 10, 10, 2)
	require.True(t, ok)
	// output 2 starts at PixelX=1920 (after output 1's 1920-wide slot)
	assert.Equal(t, int32(1920+20), rootX)
	assert.Equal(t, int32(20), rootY)
}
