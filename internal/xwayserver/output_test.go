package xwayserver

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bnema/satellite/internal/hostwl"
)

func TestOutputLayoutRecomputeLaysOutLeftToRight(t *testing.T) {
	l := newOutputLayout()
	l.Recompute([]*hostwl.Output{
		{Name: 1, Width: 1920, Height: 1080, Scale: 1},
		{Name: 2, Width: 1280, Height: 720, Scale: 2},
	})

	o1, ok := l.Get(1)
	require.True(t, ok)
	assert.Equal(t, int32(0), o1.PixelX)
	assert.Equal(t, int32(1920), o1.PixelW)
	assert.Equal(t, int32(1080), o1.PixelH)

	o2, ok := l.Get(2)
	require.True(t, ok)
	assert.Equal(t, int32(1920), o2.PixelX, "second output starts where the first ends")
	assert.Equal(t, int32(2560), o2.PixelW, "1280 logical * scale 2")
	assert.Equal(t, int32(1440), o2.PixelH)
}

func TestOutputLayoutRecomputeFloorsScaleAtOne(t *testing.T) {
	l := newOutputLayout()
	l.Recompute([]*hostwl.Output{{Name: 1, Width: 800, Height: 600, Scale: 0}})

	o, ok := l.Get(1)
	require.True(t, ok)
	assert.Equal(t, int32(800), o.PixelW)
	assert.Equal(t, int32(600), o.PixelH)
}

func TestOutputLayoutOutputAt(t *testing.T) {
	l := newOutputLayout()
	l.Recompute([]*hostwl.Output{
		{Name: 1, Width: 1920, Height: 1080, Scale: 1},
		{Name: 2, Width: 1280, Height: 720, Scale: 1},
	})

	o, ok := l.OutputAt(1921, 10)
	require.True(t, ok)
	assert.Equal(t, uint32(2), o.hostName)

	_, ok = l.OutputAt(5000, 5000)
	assert.False(t, ok)
}

func TestOutputLayoutRecomputeZeroOutputsYieldsSynthetic(t *testing.T) {
	l := newOutputLayout()
	l.Recompute(nil)

	o, ok := l.Get(syntheticOutputName)
	require.True(t, ok)
	assert.Equal(t, int32(1), o.PixelW)
	assert.Equal(t, int32(1), o.PixelH)
}

func TestOutputLayoutBindOutputBeforeRecompute(t *testing.T) {
	l := newOutputLayout()
	l.bindOutput(5, 1)

	o, ok := l.Get(1)
	require.True(t, ok)
	assert.Equal(t, int32(1), o.PixelW)
}

func TestOutputLayoutRecomputeReplacesPriorState(t *testing.T) {
	l := newOutputLayout()
	l.Recompute([]*hostwl.Output{{Name: 1, Width: 100, Height: 100, Scale: 1}})
	l.Recompute([]*hostwl.Output{{Name: 2, Width: 100, Height: 100, Scale: 1}})

	_, ok := l.Get(1)
	assert.False(t, ok, "stale output from a prior Recompute must not linger")
	_, ok = l.Get(2)
	assert.True(t, ok)
}
