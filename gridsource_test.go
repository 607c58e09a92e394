package regrid_test

import (
	"math"
	"testing"

	"github.com/alecthomas/assert/v2"

	"github.com/phollemans/cwutils-sub013"
)

func TestMemoryGrid(t *testing.T) {
	grid := regrid.NewMemoryGrid(2, 3)
	assert.Equal(t, []int{2, 3}, grid.Dimensions())

	// Unset pixels start at zero.
	assertNear(t, 0, grid.Value(0, 0), 0)

	grid.SetValue(1, 2, 42)
	assertNear(t, 42, grid.Value(1, 2), 0)

	// Out of bounds access is missing, and out of bounds writes are
	// ignored.
	assert.True(t, math.IsNaN(grid.Value(2, 0)))
	assert.True(t, math.IsNaN(grid.Value(0, -1)))
	grid.SetValue(5, 5, 1)
	assert.True(t, math.IsNaN(grid.Value(5, 5)))

	withValues := regrid.NewMemoryGrid(2, 2, regrid.WithValues([]float64{1, 2, 3, 4}))
	assertNear(t, 3, withValues.Value(1, 0), 0)
	assert.Equal(t, []float64{1, 2, 3, 4}, withValues.Values())

	assert.Zero(t, grid.Navigation())
	nav := regrid.TranslationAffine(1, 0)
	assert.Equal(t, nav, regrid.NewMemoryGrid(2, 2, regrid.WithNavigation(nav)).Navigation())

	assert.Panics(t, func() {
		regrid.NewMemoryGrid(2, 2, regrid.WithValues([]float64{1}))
	})
}

func TestGridSource(t *testing.T) {
	grid := regrid.NewMemoryGrid(2, 2, regrid.WithValues([]float64{1, 2, 3, 4}))
	source := regrid.NewGridSource(grid)

	// Integer locations read the pixel exactly.
	assertNear(t, 1, source.ValueAt(regrid.Loc2(0, 0)), 1e-12)
	assertNear(t, 4, source.ValueAt(regrid.Loc2(1, 1)), 1e-12)

	// The grid center averages all four pixels.
	assertNear(t, 2.5, source.ValueAt(regrid.Loc2(0.5, 0.5)), 1e-12)

	// Interpolation along an edge.
	assertNear(t, 1.25, source.ValueAt(regrid.Loc2(0, 0.25)), 1e-12)
	assertNear(t, 2, source.ValueAt(regrid.Loc2(0.5, 0)), 1e-12)

	assert.True(t, math.IsNaN(source.ValueAt(regrid.InvalidLocation(2))))
	assert.True(t, math.IsNaN(source.ValueAt(regrid.DataLocation{0.5})))
}

func TestGridSource_MissingNeighbors(t *testing.T) {
	grid := regrid.NewMemoryGrid(2, 2, regrid.WithValues([]float64{1, 2, 3, math.NaN()}))
	source := regrid.NewGridSource(grid)

	// A missing pixel poisons queries it contributes weight to, and
	// only those.
	assert.True(t, math.IsNaN(source.ValueAt(regrid.Loc2(0.5, 0.5))))
	assert.True(t, math.IsNaN(source.ValueAt(regrid.Loc2(1, 1))))
	assertNear(t, 2, source.ValueAt(regrid.Loc2(0.5, 0)), 1e-12)
	assertNear(t, 1.5, source.ValueAt(regrid.Loc2(0, 0.5)), 1e-12)
}
