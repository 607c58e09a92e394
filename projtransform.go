package regrid

import (
	"errors"
	"sync"

	"github.com/twpayne/go-proj/v11"
)

// ErrNoNavigation is returned when a projected transform is created
// with a non-invertible pixel-to-projected affine.
var ErrNoNavigation = errors.New("regrid: pixel affine is not invertible")

// A ProjTransform is an EarthTransform for a grid in a projected
// coordinate reference system handled by PROJ. Pixel coordinates map
// to projected coordinates through an affine, and projected
// coordinates to geographic ones through the CRS transformation.
//
// PROJ transformation objects are not safe for concurrent use, so a
// ProjTransform serializes its transform calls internally.
type ProjTransform struct {
	mutex   sync.Mutex
	pj      *proj.PJ
	forward *Affine
	inverse *Affine
	dims    []int
	datum   Datum
}

// A ProjTransformOption sets an option on a ProjTransform.
type ProjTransformOption func(*ProjTransform)

// WithProjDatum sets the transform's datum tag. The default is WGS84.
func WithProjDatum(datum Datum) ProjTransformOption {
	return func(t *ProjTransform) {
		t.datum = datum
	}
}

// NewProjTransform creates a transform for a grid of the given
// dimensions in the coordinate reference system crs, such as
// "EPSG:3035". The affine maps pixel (row, col) to projected (x, y)
// and must be invertible.
func NewProjTransform(crs string, dims []int, affine *Affine, options ...ProjTransformOption) (*ProjTransform, error) {
	if !affine.Invertible() {
		return nil, ErrNoNavigation
	}
	pj, err := proj.NewCRSToCRS("EPSG:4326", crs, nil)
	if err != nil {
		return nil, err
	}
	t := &ProjTransform{
		pj:      pj,
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
func (t *ProjTransform) Dimensions() []int { return t.dims }

// Datum returns the transform's datum tag.
func (t *ProjTransform) Datum() Datum { return t.datum }

// Transform maps a pixel coordinate to its earth location. The
// location is invalid if the projection has no result there.
func (t *ProjTransform) Transform(loc DataLocation) EarthLocation {
	if loc.Invalid() || len(loc) != 2 {
		return InvalidEarthLocation()
	}
	x, y := t.forward.Apply(loc[Rows], loc[Cols])

	t.mutex.Lock()
	coord, err := t.pj.Inverse(proj.NewCoord(x, y, 0, 0))
	t.mutex.Unlock()
	if err != nil {
		return InvalidEarthLocation()
	}
	return EarthLocation{Lat: coord.X(), Lon: lonRange(coord.Y()), Datum: t.datum}
}

// Inverse maps an earth location to its pixel coordinate. The
// coordinate is invalid if the projection has no result there; it may
// fall outside the grid dimensions.
func (t *ProjTransform) Inverse(loc EarthLocation) DataLocation {
	if loc.Invalid() {
		return InvalidLocation(2)
	}

	t.mutex.Lock()
	coord, err := t.pj.Forward(proj.NewCoord(loc.Lat, loc.Lon, 0, 0))
	t.mutex.Unlock()
	if err != nil {
		return InvalidLocation(2)
	}
	row, col := t.inverse.Apply(coord.X(), coord.Y())
	return Loc2(row, col)
}
