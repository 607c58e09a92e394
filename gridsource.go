package regrid

import "math"

// A GridSource adapts a Grid to a ValueSource, sampling fractional
// locations by bilinear interpolation of the four surrounding pixels.
// Zero-weight corners are skipped, so integer locations read a single
// pixel and locations adjacent to missing data are not poisoned by
// it.
type GridSource struct {
	grid Grid
}

// NewGridSource returns a ValueSource backed by grid.
func NewGridSource(grid Grid) *GridSource {
	return &GridSource{grid: grid}
}

// ValueAt returns the bilinearly interpolated value at loc, or NaN if
// loc is invalid, not 2D, or any contributing pixel is missing.
func (s *GridSource) ValueAt(loc DataLocation) float64 {
	if loc.Invalid() || len(loc) != 2 {
		return math.NaN()
	}
	row0 := math.Floor(loc[Rows])
	col0 := math.Floor(loc[Cols])
	dr := loc[Rows] - row0
	dc := loc[Cols] - col0
	weights := [4]float64{
		(1 - dr) * (1 - dc),
		(1 - dr) * dc,
		dr * (1 - dc),
		dr * dc,
	}
	value := 0.0
	for i, weight := range weights {
		if weight == 0 {
			continue
		}
		value += weight * s.grid.Value(int(row0)+i/2, int(col0)+i%2)
	}
	return value
}
