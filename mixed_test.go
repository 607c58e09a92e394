package regrid_test

import (
	"context"
	"math"
	"testing"

	"github.com/alecthomas/assert/v2"

	"github.com/phollemans/cwutils-sub013"
)

// A mirrorTransform folds a 10x4 grid onto a five degree latitude
// band, so that rows 0 to 4 and rows 5 to 9 cover the same earth
// locations in opposite row order. It stands in for a satellite swath
// that passes over the same area twice.
type mirrorTransform struct{}

func (mirrorTransform) Transform(loc regrid.DataLocation) regrid.EarthLocation {
	return regrid.NewEarthLocation(math.Abs(loc[regrid.Rows]-4.5), loc[regrid.Cols]+0.5)
}

func (mirrorTransform) Inverse(earth regrid.EarthLocation) regrid.DataLocation {
	return regrid.Loc2(earth.Lat+4.5, earth.Lon-0.5)
}

func (mirrorTransform) Dimensions() []int { return []int{10, 4} }

func (mirrorTransform) Datum() regrid.Datum { return regrid.WGS84 }

// mirrorDest returns a 5x4 destination transform covering the
// latitude band of mirrorTransform, with latitude increasing by row.
func mirrorDest(t *testing.T) *regrid.LinearTransform {
	t.Helper()
	trans, err := regrid.NewLinearTransform([]int{5, 4}, regrid.NewAffine(0.5, 1, 0, 0.5, 0, 1))
	assert.NoError(t, err)
	return trans
}

func TestMixedResampler_OverwriteModes(t *testing.T) {
	// Source rows 0-4 map to destination rows 4-0, and source rows
	// 5-9 map to destination rows 0-4, so the two rectangles write
	// every destination pixel and the overwrite mode decides which
	// half wins.
	values := make([]float64, 40)
	for r := range 10 {
		for c := range 4 {
			values[r*4+c] = float64(10*r + c)
		}
	}

	tests := []struct {
		name  string
		mode  regrid.OverwriteMode
		value func(d, c int) float64
	}{
		{"Always", regrid.OverwriteAlways, func(d, c int) float64 { return float64(10*(d+5) + c) }},
		{"Never", regrid.OverwriteNever, func(d, c int) float64 { return float64(10*(4-d) + c) }},
		{"IfCloser", regrid.OverwriteIfCloser, func(d, c int) float64 { return float64(10*(4-d) + c) }},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			source := regrid.NewMemoryGrid(10, 4, regrid.WithValues(values))
			dest := regrid.NewMemoryGrid(5, 4)

			resampler := regrid.NewMixedResampler(mirrorTransform{}, mirrorDest(t), 4, 5,
				regrid.WithOverwriteMode(test.mode))
			resampler.AddGrid(source, dest)
			assert.NoError(t, resampler.Perform(context.Background()))

			for d := range 5 {
				for c := range 4 {
					assertNear(t, test.value(d, c), dest.Value(d, c), 1e-9)
				}
			}
		})
	}
}

func TestMixedResampler_Identity(t *testing.T) {
	trans := linearGrid(t, 6, 6, 0.55, 0.05, 0.1)

	source := regrid.NewMemoryGrid(6, 6, regrid.WithValues(sourceValues()))
	dest := regrid.NewMemoryGrid(6, 6)

	resampler := regrid.NewMixedResampler(trans, trans, 6, 6)
	resampler.AddGrid(source, dest)
	assert.NoError(t, resampler.Perform(context.Background()))

	for r := range 6 {
		for c := range 6 {
			assertNear(t, source.Value(r, c), dest.Value(r, c), 1e-9)
		}
	}
}

func TestMixedResampler_PartialFootprint(t *testing.T) {
	sourceTrans := linearGrid(t, 6, 6, 0.55, 0.05, 0.1)
	destTrans := linearGrid(t, 10, 10, 0.75, 0.05, 0.1)

	source := regrid.NewMemoryGrid(6, 6, regrid.WithValues(sourceValues()))
	dest := regrid.NewMemoryGrid(10, 10)

	resampler := regrid.NewMixedResampler(sourceTrans, destTrans, 6, 6)
	resampler.AddGrid(source, dest)
	assert.NoError(t, resampler.Perform(context.Background()))

	// Destination pixels outside the source footprint are marked
	// missing rather than left at the grid's initial value.
	checkOffsetDest(t, dest)
}

func TestMixedResampler_CloseGaps(t *testing.T) {
	trans := linearGrid(t, 6, 6, 0.55, 0.05, 0.1)

	source := regrid.NewMemoryGrid(6, 6, regrid.WithValues(sourceValues()))
	dest := regrid.NewMemoryGrid(6, 6)

	// Filtering out one interior source pixel leaves a single pixel
	// gap surrounded by assigned pixels, which gap closing fills with
	// the median of its eight neighbors.
	filter := regrid.LocationFilterFunc(func(loc regrid.DataLocation) bool {
		return loc[regrid.Rows] != 2 || loc[regrid.Cols] != 2
	})

	resampler := regrid.NewMixedResampler(trans, trans, 6, 6, regrid.WithSourceFilter(filter))
	resampler.AddGrid(source, dest)
	assert.NoError(t, resampler.Perform(context.Background()))

	// Neighbors of (2, 2) sorted are 11 12 13 21 23 31 32 33.
	assertNear(t, 23, dest.Value(2, 2), 1e-9)

	for r := range 6 {
		for c := range 6 {
			if r == 2 && c == 2 {
				continue
			}
			assertNear(t, source.Value(r, c), dest.Value(r, c), 1e-9)
		}
	}
}

func TestMixedResampler_Canceled(t *testing.T) {
	trans := linearGrid(t, 6, 6, 0.55, 0.05, 0.1)

	resampler := regrid.NewMixedResampler(trans, trans, 6, 6)
	resampler.AddGrid(regrid.NewMemoryGrid(6, 6), regrid.NewMemoryGrid(6, 6))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.IsError(t, resampler.Perform(ctx), context.Canceled)
}
