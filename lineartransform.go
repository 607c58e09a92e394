package regrid

// A LinearTransform is an EarthTransform for a grid whose pixel
// coordinates map to latitude and longitude by an affine, the common
// case of regularly gridded geographic data. It is safe for
// concurrent use.
type LinearTransform struct {
	forward *Affine
	inverse *Affine
	dims    []int
	datum   Datum
}

// A LinearTransformOption sets an option on a LinearTransform.
type LinearTransformOption func(*LinearTransform)

// WithLinearDatum sets the transform's datum tag. The default is
// WGS84.
func WithLinearDatum(datum Datum) LinearTransformOption {
	return func(t *LinearTransform) {
		t.datum = datum
	}
}

// NewLinearTransform creates a transform for a grid of the given
// dimensions whose affine maps pixel (row, col) to (lat, lon). The
// affine must be invertible.
func NewLinearTransform(dims []int, affine *Affine, options ...LinearTransformOption) (*LinearTransform, error) {
	if !affine.Invertible() {
		return nil, ErrNoNavigation
	}
	t := &LinearTransform{
		forward: affine,
		inverse: affine.Inverse(),
		dims:    dims,
		datum:   WGS84,
	}
	for _, option := range options {
		option(t)
	}
	return t, nil
}

// Dimensions returns the grid dimensions as [rows, cols].
func (t *LinearTransform) Dimensions() []int { return t.dims }

// Datum returns the transform's datum tag.
func (t *LinearTransform) Datum() Datum { return t.datum }

// Transform maps a pixel coordinate to its earth location.
func (t *LinearTransform) Transform(loc DataLocation) EarthLocation {
	if loc.Invalid() || len(loc) != 2 {
		return InvalidEarthLocation()
	}
	lat, lon := t.forward.Apply(loc[Rows], loc[Cols])
	if lat < -90 || lat > 90 {
		return InvalidEarthLocation()
	}
	return EarthLocation{Lat: lat, Lon: lonRange(lon), Datum: t.datum}
}

// Inverse maps an earth location to its pixel coordinate, which may
// fall outside the grid dimensions.
func (t *LinearTransform) Inverse(loc EarthLocation) DataLocation {
	if loc.Invalid() {
		return InvalidLocation(2)
	}
	row, col := t.inverse.Apply(loc.Lat, loc.Lon)
	return Loc2(row, col)
}
