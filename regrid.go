// Package regrid resamples raster data between independently
// geo-referenced grids. Each grid supplies only a forward geolocation
// function (pixel to earth location) and its approximate inverse, so
// the package builds spatial approximations (partition trees with
// per-leaf polynomial fits) to avoid composing the expensive exact
// transforms for every output pixel.
package regrid

// Indexes of the two axes of a 2D data location.
const (
	Rows = 0
	Cols = 1
)

// A Datum identifies the geodetic reference system an earth location is
// expressed in.
type Datum string

// WGS84 is the default datum.
const WGS84 Datum = "WGS84"

// A DatumShift converts an earth location to a different datum. Geodesy
// is an external collaborator; implementations are supplied by the
// caller when source and destination transforms disagree on datum.
type DatumShift func(loc EarthLocation, to Datum) EarthLocation

// An EarthTransform maps between data locations in a grid's pixel space
// and earth locations. Transforms are assumed immutable and safe for
// concurrent use; they may be arbitrarily expensive per call.
type EarthTransform interface {
	// Transform converts a data location to an earth location. The
	// result is invalid if the data location has no earth location.
	Transform(loc DataLocation) EarthLocation

	// Inverse converts an earth location to a data location. The result
	// is invalid if the earth location is outside the transform's
	// region, and is not bounds-checked against Dimensions.
	Inverse(earth EarthLocation) DataLocation

	// Dimensions returns the transform's pixel dimensions per axis.
	Dimensions() []int

	// Datum returns the datum of earth locations produced by Transform.
	Datum() Datum
}

// Distance returns the physical distance in kilometers between two data
// locations measured through trans. The result is NaN if either
// location has no valid earth location.
func Distance(trans EarthTransform, a, b DataLocation) float64 {
	return trans.Transform(a).Distance(trans.Transform(b))
}

// Resolution returns the per-axis physical size in kilometers of the
// pixel at loc, measured as the distance across loc from -0.5 to +0.5
// along each axis.
func Resolution(trans EarthTransform, loc DataLocation) []float64 {
	rank := len(loc)
	res := make([]float64, rank)
	lo := loc.Clone()
	hi := loc.Clone()
	for i := range rank {
		lo[i] = loc[i] - 0.5
		hi[i] = loc[i] + 0.5
		res[i] = Distance(trans, lo, hi)
		lo[i] = loc[i]
		hi[i] = loc[i]
	}
	return res
}

// A Grid is a read-only 2D raster of values addressed by (row, column).
// Missing values are NaN. The navigation correction, if any, is applied
// by the InverseResampler through its location estimator.
type Grid interface {
	// Value returns the value at (row, col). Out-of-range coordinates
	// read as NaN.
	Value(row, col int) float64

	// Dimensions returns the grid dimensions as [rows, cols].
	Dimensions() []int

	// Navigation returns the grid's navigation correction affine, or
	// nil for identity.
	Navigation() *Affine
}

// A WritableGrid is a Grid whose values can be set.
type WritableGrid interface {
	Grid
	SetValue(row, col int, value float64)
}

// A Function approximates a real-valued function of one or more
// variables.
type Function interface {
	// Evaluate returns the function value at the variable values.
	Evaluate(vars []float64) float64

	// Coefficients returns the flattened coefficient vector in row-major
	// order, sufficient to reconstruct the function.
	Coefficients() []float64
}

// A ValueSource supplies data values by location, for example a grid
// variable. Missing values are NaN.
type ValueSource interface {
	ValueAt(loc DataLocation) float64
}

// A LocationFilter reports whether a source location should take part
// in resampling. Filters exclude, for example, sensor-specific deleted
// pixels.
type LocationFilter interface {
	UseLocation(loc DataLocation) bool
}

// LocationFilterFunc adapts a function to the LocationFilter interface.
type LocationFilterFunc func(loc DataLocation) bool

func (f LocationFilterFunc) UseLocation(loc DataLocation) bool { return f(loc) }
