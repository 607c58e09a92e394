package regrid

import (
	"fmt"
	"math"

	"github.com/golang/geo/s1"
	"github.com/golang/geo/s2"
)

// EarthRadiusKm is the standard spherical earth radius in kilometers
// used for all great-circle distances.
const EarthRadiusKm = 6370.997

// An EarthLocation is a geographic latitude/longitude pair in degrees,
// tagged with its datum. Latitude is in [-90, 90] and longitude is
// normalized to [-180, 180). A location with a NaN coordinate is
// invalid.
type EarthLocation struct {
	Lat   float64
	Lon   float64
	Datum Datum
}

// NewEarthLocation returns a WGS84 location with the longitude
// normalized to [-180, 180).
func NewEarthLocation(lat, lon float64) EarthLocation {
	return EarthLocation{Lat: lat, Lon: lonRange(lon), Datum: WGS84}
}

// InvalidEarthLocation returns an invalid WGS84 location.
func InvalidEarthLocation() EarthLocation {
	return EarthLocation{Lat: math.NaN(), Lon: math.NaN(), Datum: WGS84}
}

// lonRange normalizes a longitude in degrees to [-180, 180).
func lonRange(lon float64) float64 {
	for lon < -180 {
		lon += 360
	}
	for lon >= 180 {
		lon -= 360
	}
	return lon
}

// Valid reports whether both coordinates are non-NaN.
func (e EarthLocation) Valid() bool {
	return !math.IsNaN(e.Lat) && !math.IsNaN(e.Lon)
}

// Invalid reports whether either coordinate is NaN.
func (e EarthLocation) Invalid() bool { return !e.Valid() }

// LatLng returns the location as an s2 lat/lng.
func (e EarthLocation) LatLng() s2.LatLng {
	return s2.LatLngFromDegrees(e.Lat, e.Lon)
}

// Distance returns the great-circle distance in kilometers from e to o,
// or NaN if either location is invalid.
func (e EarthLocation) Distance(o EarthLocation) float64 {
	if e.Invalid() || o.Invalid() {
		return math.NaN()
	}
	return float64(e.LatLng().Distance(o.LatLng())) * EarthRadiusKm
}

// DistanceProxy returns a value that is cheaper to compute than
// Distance and monotonic with it, for nearest-point searches. Use
// DistanceFromProxy to recover kilometers.
func (e EarthLocation) DistanceProxy(o EarthLocation) float64 {
	if e.Invalid() || o.Invalid() {
		return math.NaN()
	}
	a := s2.PointFromLatLng(e.LatLng())
	b := s2.PointFromLatLng(o.LatLng())
	return float64(s2.ChordAngleBetweenPoints(a, b))
}

// DistanceFromProxy converts a DistanceProxy value to kilometers.
func DistanceFromProxy(proxy float64) float64 {
	return float64(s1.ChordAngle(proxy).Angle()) * EarthRadiusKm
}

// Translate returns e moved by the given increments in degrees. A
// translation across a pole continues down the far side; longitude
// wraps at the antimeridian.
func (e EarthLocation) Translate(latInc, lonInc float64) EarthLocation {
	loc := e
	loc.Lat += latInc
	if loc.Lat > 90 {
		loc.Lat = 180 - loc.Lat
		loc.Lon += 180
	} else if loc.Lat < -90 {
		loc.Lat = -180 - loc.Lat
		loc.Lon += 180
	}
	loc.Lon = lonRange(loc.Lon + lonInc)
	return loc
}

// IsNorth reports whether e is north of o.
func (e EarthLocation) IsNorth(o EarthLocation) bool { return e.Lat > o.Lat }

// IsSouth reports whether e is south of o.
func (e EarthLocation) IsSouth(o EarthLocation) bool { return e.Lat < o.Lat }

// IsEast reports whether e is east of o in the shorter-arc sense.
func (e EarthLocation) IsEast(o EarthLocation) bool {
	abs := math.Abs(e.Lon - o.Lon)
	switch {
	case abs < 180:
		return e.Lon > o.Lon
	case abs > 180:
		return e.Lon < o.Lon
	default:
		return false
	}
}

// IsWest reports whether e is west of o in the shorter-arc sense.
func (e EarthLocation) IsWest(o EarthLocation) bool {
	abs := math.Abs(e.Lon - o.Lon)
	switch {
	case abs < 180:
		return e.Lon < o.Lon
	case abs > 180:
		return e.Lon > o.Lon
	default:
		return false
	}
}

// Shift returns e converted to the datum to using the supplied shift,
// or e unchanged if shift is nil or the datums already agree.
func (e EarthLocation) Shift(to Datum, shift DatumShift) EarthLocation {
	if shift == nil || e.Datum == to {
		return e
	}
	return shift(e, to)
}

func (e EarthLocation) String() string {
	return fmt.Sprintf("(%.4f, %.4f)", e.Lat, e.Lon)
}
