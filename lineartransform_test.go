package regrid_test

import (
	"testing"

	"github.com/alecthomas/assert/v2"

	"github.com/phollemans/cwutils-sub013"
)

func TestLinearTransform(t *testing.T) {
	// One degree cells from 49.5N 10.5W southeast.
	trans, err := regrid.NewLinearTransform([]int{50, 100},
		regrid.NewAffine(49.5, -1, 0, -10.5, 0, 1))
	assert.NoError(t, err)
	assert.Equal(t, []int{50, 100}, trans.Dimensions())
	assert.Equal(t, regrid.WGS84, trans.Datum())

	earth := trans.Transform(regrid.Loc2(10, 20))
	assertNear(t, 39.5, earth.Lat, 1e-12)
	assertNear(t, 9.5, earth.Lon, 1e-12)

	loc := trans.Inverse(earth)
	assertNear(t, 10, loc[regrid.Rows], 1e-9)
	assertNear(t, 20, loc[regrid.Cols], 1e-9)

	// The inverse is not bounds checked against the dimensions.
	loc = trans.Inverse(regrid.NewEarthLocation(60.5, -20.5))
	assertNear(t, -11, loc[regrid.Rows], 1e-9)
	assertNear(t, -10, loc[regrid.Cols], 1e-9)
}

func TestLinearTransform_InvalidInputs(t *testing.T) {
	trans := linearGrid(t, 10, 10, 0.75, 0.05, 0.1)

	assert.True(t, trans.Transform(regrid.InvalidLocation(2)).Invalid())
	assert.True(t, trans.Transform(regrid.DataLocation{1}).Invalid())
	assert.True(t, trans.Inverse(regrid.InvalidEarthLocation()).Invalid())

	// A location mapping past the pole has no earth location.
	polar, err := regrid.NewLinearTransform([]int{10, 10},
		regrid.NewAffine(89.5, -1, 0, 0.5, 0, 1))
	assert.NoError(t, err)
	assert.True(t, polar.Transform(regrid.Loc2(-5, 0)).Invalid())
}

func TestLinearTransform_Datum(t *testing.T) {
	trans, err := regrid.NewLinearTransform([]int{10, 10},
		regrid.NewAffine(0.75, -0.1, 0, 0.05, 0, 0.1),
		regrid.WithLinearDatum(regrid.Datum("NAD83")))
	assert.NoError(t, err)
	assert.Equal(t, regrid.Datum("NAD83"), trans.Datum())
	assert.Equal(t, regrid.Datum("NAD83"), trans.Transform(regrid.Loc2(0, 0)).Datum)
}

func TestLinearTransform_Singular(t *testing.T) {
	_, err := regrid.NewLinearTransform([]int{10, 10},
		regrid.NewAffine(0, 1, 2, 0, 2, 4))
	assert.IsError(t, err, regrid.ErrNoNavigation)
}
