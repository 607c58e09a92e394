package regrid_test

import (
	"math"
	"testing"

	"github.com/alecthomas/assert/v2"

	"github.com/phollemans/cwutils-sub013"
)

// A lineTransform is a rank 1 transform along a meridian with a tenth
// of a degree per pixel.
type lineTransform struct{}

func (lineTransform) Transform(loc regrid.DataLocation) regrid.EarthLocation {
	if loc.Invalid() || len(loc) != 1 {
		return regrid.InvalidEarthLocation()
	}
	return regrid.NewEarthLocation(0.75-0.1*loc[0], 0.05)
}

func (lineTransform) Inverse(earth regrid.EarthLocation) regrid.DataLocation {
	if earth.Invalid() {
		return regrid.InvalidLocation(1)
	}
	return regrid.DataLocation{(0.75 - earth.Lat) / 0.1}
}

func (lineTransform) Dimensions() []int { return []int{16} }

func (lineTransform) Datum() regrid.Datum { return regrid.WGS84 }

func TestVariableEstimator(t *testing.T) {
	trans := linearGrid(t, 16, 16, 0.75, 0.05, 0.1)
	src := valueFunc(func(loc regrid.DataLocation) float64 {
		return 2*loc[regrid.Rows] + 3*loc[regrid.Cols] + 1
	})

	est, err := regrid.NewVariableEstimator(src, []int{16, 16}, trans, 10000)
	assert.NoError(t, err)

	var cache regrid.PartitionCache
	for _, loc := range []regrid.DataLocation{
		regrid.Loc2(0, 0),
		regrid.Loc2(3.5, 12.25),
		regrid.Loc2(15, 15),
	} {
		assertNear(t, src.ValueAt(loc), est.Value(loc, &cache), 1e-6)
	}

	// Outside the partitioned region.
	assert.True(t, math.IsNaN(est.Value(regrid.Loc2(20, 0), nil)))
}

func TestVariableEstimator_Share(t *testing.T) {
	trans := linearGrid(t, 16, 16, 0.75, 0.05, 0.1)
	latSrc := valueFunc(func(loc regrid.DataLocation) float64 {
		return 2*loc[regrid.Rows] + 3*loc[regrid.Cols] + 1
	})
	lonSrc := valueFunc(func(loc regrid.DataLocation) float64 {
		return loc[regrid.Rows] * loc[regrid.Cols]
	})

	est, err := regrid.NewVariableEstimator(latSrc, []int{16, 16}, trans, 10000)
	assert.NoError(t, err)
	shared := est.Share(lonSrc)

	loc := regrid.Loc2(5.5, 9)
	assertNear(t, latSrc.ValueAt(loc), est.Value(loc, nil), 1e-6)
	assertNear(t, lonSrc.ValueAt(loc), shared.Value(loc, nil), 1e-6)
}

func TestVariableEstimator_ValueFilter(t *testing.T) {
	trans := linearGrid(t, 16, 16, 0.75, 0.05, 0.1)
	src := valueFunc(func(loc regrid.DataLocation) float64 {
		return loc[regrid.Rows]
	})
	filter := regrid.ValueFilter(func(values []float64) {
		for i := range values {
			values[i] += 360
		}
	})

	est, err := regrid.NewVariableEstimator(src, []int{16, 16}, trans, 10000,
		regrid.WithValueFilter(filter))
	assert.NoError(t, err)

	assertNear(t, 364, est.Value(regrid.Loc2(4, 4), nil), 1e-6)
}

func TestVariableEstimator_MissingValues(t *testing.T) {
	trans := linearGrid(t, 16, 16, 0.75, 0.05, 0.1)
	src := valueFunc(func(loc regrid.DataLocation) float64 {
		if loc[regrid.Rows] == 8 && loc[regrid.Cols] == 8 {
			return math.NaN()
		}
		return loc[regrid.Rows]
	})

	// A NaN at a sample point leaves the leaf without a polynomial.
	est, err := regrid.NewVariableEstimator(src, []int{16, 16}, trans, 10000)
	assert.NoError(t, err)
	assert.True(t, math.IsNaN(est.Value(regrid.Loc2(4, 4), nil)))
}

func TestVariableEstimator_Rank1(t *testing.T) {
	src := valueFunc(func(loc regrid.DataLocation) float64 {
		return loc[0]*loc[0] + 2*loc[0] + 3
	})

	est, err := regrid.NewVariableEstimator(src, []int{16}, lineTransform{}, 10000)
	assert.NoError(t, err)

	for _, x := range []float64{0, 4.5, 15} {
		loc := regrid.DataLocation{x}
		assertNear(t, src.ValueAt(loc), est.Value(loc, nil), 1e-6)
	}
}

func TestVariableEstimator_BadRank(t *testing.T) {
	trans := linearGrid(t, 16, 16, 0.75, 0.05, 0.1)
	src := valueFunc(func(regrid.DataLocation) float64 { return 0 })

	_, err := regrid.NewVariableEstimator(src, []int{4, 4, 4}, trans, 10000)
	assert.Error(t, err)
}
