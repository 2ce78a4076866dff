package hostwl

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSmallestScaleOutputPicksLowestScale(t *testing.T) {
	outputs := []*Output{
		{Name: 1, Scale: 2},
		{Name: 2, Scale: 1},
		{Name: 3, Scale: 3},
	}
	best := SmallestScaleOutput(outputs)
	require.Equal(t, uint32(2), best.Name)
}

func TestSmallestScaleOutputTiesBreakByName(t *testing.T) {
	outputs := []*Output{
		{Name: 5, Scale: 1},
		{Name: 2, Scale: 1},
		{Name: 9, Scale: 1},
	}
	best := SmallestScaleOutput(outputs)
	require.Equal(t, uint32(2), best.Name)
}

func TestSmallestScaleOutputEmpty(t *testing.T) {
	require.Nil(t, SmallestScaleOutput(nil))
}
