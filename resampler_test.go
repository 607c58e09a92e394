package regrid_test

import (
	"context"
	"math"
	"testing"

	"github.com/alecthomas/assert/v2"

	"github.com/phollemans/cwutils-sub013"
)

// sourceValues fills a 6x6 source grid with value 10*row+col so that
// resampled values identify the source pixel they came from.
func sourceValues() []float64 {
	values := make([]float64, 36)
	for r := range 6 {
		for c := range 6 {
			values[r*6+c] = float64(10*r + c)
		}
	}
	return values
}

// checkOffsetDest verifies a 10x10 destination grid resampled from
// the 6x6 source offset two rows north. Destination pixels with no
// source pixel must be NaN.
func checkOffsetDest(t *testing.T, dest *regrid.MemoryGrid) {
	t.Helper()
	for i := range 10 {
		for j := range 10 {
			got := dest.Value(i, j)
			if i >= 2 && i <= 7 && j <= 5 {
				assertNear(t, float64(10*(i-2)+j), got, 1e-9)
			} else {
				assert.True(t, math.IsNaN(got))
			}
		}
	}
}

func TestDirectResampler(t *testing.T) {
	sourceTrans := linearGrid(t, 6, 6, 0.55, 0.05, 0.1)
	destTrans := linearGrid(t, 10, 10, 0.75, 0.05, 0.1)

	source := regrid.NewMemoryGrid(6, 6, regrid.WithValues(sourceValues()))
	dest := regrid.NewMemoryGrid(10, 10)

	resampler := regrid.NewDirectResampler(sourceTrans, destTrans)
	resampler.AddGrid(source, dest)
	assert.NoError(t, resampler.Perform(context.Background()))

	checkOffsetDest(t, dest)
}

func TestDirectResampler_Identity(t *testing.T) {
	trans := linearGrid(t, 6, 6, 0.55, 0.05, 0.1)

	source := regrid.NewMemoryGrid(6, 6, regrid.WithValues(sourceValues()))
	dest := regrid.NewMemoryGrid(6, 6)

	resampler := regrid.NewDirectResampler(trans, trans)
	resampler.AddGrid(source, dest)
	assert.NoError(t, resampler.Perform(context.Background()))

	for r := range 6 {
		for c := range 6 {
			assertNear(t, source.Value(r, c), dest.Value(r, c), 1e-9)
		}
	}
}

func TestDirectResampler_Canceled(t *testing.T) {
	trans := linearGrid(t, 6, 6, 0.55, 0.05, 0.1)

	resampler := regrid.NewDirectResampler(trans, trans)
	resampler.AddGrid(regrid.NewMemoryGrid(6, 6), regrid.NewMemoryGrid(6, 6))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.IsError(t, resampler.Perform(ctx), context.Canceled)
}

func TestInverseResampler(t *testing.T) {
	sourceTrans := linearGrid(t, 6, 6, 0.55, 0.05, 0.1)
	destTrans := linearGrid(t, 10, 10, 0.75, 0.05, 0.1)

	source := regrid.NewMemoryGrid(6, 6, regrid.WithValues(sourceValues()))
	dest := regrid.NewMemoryGrid(10, 10)

	resampler := regrid.NewInverseResampler(sourceTrans, destTrans, 10000)
	resampler.AddGrid(source, dest)
	assert.NoError(t, resampler.Perform(context.Background()))

	checkOffsetDest(t, dest)
}

func TestInverseResampler_Identity(t *testing.T) {
	trans := linearGrid(t, 6, 6, 0.55, 0.05, 0.1)

	source := regrid.NewMemoryGrid(6, 6, regrid.WithValues(sourceValues()))
	dest := regrid.NewMemoryGrid(6, 6)

	resampler := regrid.NewInverseResampler(trans, trans, 10000)
	resampler.AddGrid(source, dest)
	assert.NoError(t, resampler.Perform(context.Background()))

	for r := range 6 {
		for c := range 6 {
			assertNear(t, source.Value(r, c), dest.Value(r, c), 1e-9)
		}
	}
}

func TestInverseResampler_Navigation(t *testing.T) {
	trans := linearGrid(t, 6, 6, 0.55, 0.05, 0.1)

	// A navigation shift of one row on the source grid moves every
	// destination value down by one source row.
	source := regrid.NewMemoryGrid(6, 6,
		regrid.WithValues(sourceValues()),
		regrid.WithNavigation(regrid.TranslationAffine(1, 0)))
	dest := regrid.NewMemoryGrid(6, 6)

	resampler := regrid.NewInverseResampler(trans, trans, 10000)
	resampler.AddGrid(source, dest)
	assert.NoError(t, resampler.Perform(context.Background()))

	for r := range 5 {
		for c := range 6 {
			assertNear(t, source.Value(r+1, c), dest.Value(r, c), 1e-9)
		}
	}
	for c := range 6 {
		assert.True(t, math.IsNaN(dest.Value(5, c)))
	}
}

func TestInverseResampler_NoGrids(t *testing.T) {
	trans := linearGrid(t, 6, 6, 0.55, 0.05, 0.1)
	resampler := regrid.NewInverseResampler(trans, trans, 10000)
	assert.NoError(t, resampler.Perform(context.Background()))
}
