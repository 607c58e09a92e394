package regrid_test

import (
	"errors"
	"io/fs"
	"math"
	"os"
	"testing"

	"github.com/alecthomas/assert/v2"

	"github.com/phollemans/cwutils-sub013"
)

func openTestGrid(t *testing.T) *regrid.GeoTIFFGrid {
	t.Helper()
	grid, err := regrid.NewGeoTIFFGrid(os.DirFS("testdata"), "etopo_subset.tif")
	if errors.Is(err, fs.ErrNotExist) {
		t.Skip(err)
	}
	assert.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, grid.Close())
	})
	return grid
}

func TestGeoTIFFGrid(t *testing.T) {
	grid := openTestGrid(t)

	dims := grid.Dimensions()
	assert.True(t, dims[regrid.Rows] > 0)
	assert.True(t, dims[regrid.Cols] > 0)
	assert.NotZero(t, grid.Georeference())
	assert.NotZero(t, grid.CRS())

	// Every pixel reads without panicking; missing pixels are NaN.
	valid := 0
	for row := range dims[regrid.Rows] {
		for col := range dims[regrid.Cols] {
			if !math.IsNaN(grid.Value(row, col)) {
				valid++
			}
		}
	}
	assert.True(t, valid > 0)

	// Out of bounds pixels are missing.
	assert.True(t, math.IsNaN(grid.Value(-1, 0)))
	assert.True(t, math.IsNaN(grid.Value(dims[regrid.Rows], 0)))
}

func TestGeoTIFFGrid_Georeference(t *testing.T) {
	grid := openTestGrid(t)

	// The georeference maps pixel coordinates to projected (x, y) and
	// must be invertible for use in an earth transform.
	georef := grid.Georeference()
	assert.True(t, georef.Invertible())

	dims := grid.Dimensions()
	center := regrid.Loc2(float64(dims[regrid.Rows]/2), float64(dims[regrid.Cols]/2))
	x, y := georef.Apply(center[regrid.Rows], center[regrid.Cols])
	row, col := georef.Inverse().Apply(x, y)
	assertNear(t, center[regrid.Rows], row, 1e-6)
	assertNear(t, center[regrid.Cols], col, 1e-6)
}

func TestGeoTIFFGrid_Missing(t *testing.T) {
	_, err := regrid.NewGeoTIFFGrid(os.DirFS("testdata"), "no_such_file.tif")
	assert.Error(t, err)
}
