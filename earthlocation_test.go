package regrid_test

import (
	"math"
	"strconv"
	"testing"

	"github.com/alecthomas/assert/v2"

	"github.com/phollemans/cwutils-sub013"
)

func TestEarthLocation_Normalization(t *testing.T) {
	assert.Equal(t, -170.0, regrid.NewEarthLocation(10, 190).Lon)
	assert.Equal(t, 170.0, regrid.NewEarthLocation(10, -190).Lon)
	assert.Equal(t, -180.0, regrid.NewEarthLocation(10, 180).Lon)
	assert.Equal(t, regrid.WGS84, regrid.NewEarthLocation(10, 20).Datum)
}

func TestEarthLocation_Valid(t *testing.T) {
	assert.True(t, regrid.NewEarthLocation(45, -120).Valid())
	assert.False(t, regrid.InvalidEarthLocation().Valid())
	assert.True(t, regrid.EarthLocation{Lat: math.NaN(), Lon: 0}.Invalid())
}

func TestEarthLocation_Distance(t *testing.T) {
	equator := regrid.NewEarthLocation(0, 0)

	// A degree of latitude along a meridian is 1/360 of the earth's
	// circumference.
	oneDegree := 2 * math.Pi * regrid.EarthRadiusKm / 360
	assertNear(t, oneDegree, equator.Distance(regrid.NewEarthLocation(1, 0)), 0.01)
	assertNear(t, 0, equator.Distance(equator), 1e-9)
	assert.True(t, math.IsNaN(equator.Distance(regrid.InvalidEarthLocation())))
}

func TestEarthLocation_DistanceProxy(t *testing.T) {
	a := regrid.NewEarthLocation(10, 20)
	near := regrid.NewEarthLocation(10.1, 20.1)
	far := regrid.NewEarthLocation(12, 25)

	// The proxy is monotonic with distance and converts back to
	// kilometers.
	assert.True(t, a.DistanceProxy(near) < a.DistanceProxy(far))
	assertNear(t, a.Distance(far), regrid.DistanceFromProxy(a.DistanceProxy(far)), 1e-6)
}

func TestEarthLocation_Translate(t *testing.T) {
	for i, tc := range []struct {
		loc      regrid.EarthLocation
		latInc   float64
		lonInc   float64
		expected regrid.EarthLocation
	}{
		{regrid.NewEarthLocation(10, 20), 1, 1, regrid.NewEarthLocation(11, 21)},
		{regrid.NewEarthLocation(10, 179.5), 0, 1, regrid.NewEarthLocation(10, -179.5)},
		// Crossing the north pole continues down the far meridian.
		{regrid.NewEarthLocation(89.5, 0), 1, 0, regrid.NewEarthLocation(89.5, -180)},
		{regrid.NewEarthLocation(-89.5, 0), -1, 0, regrid.NewEarthLocation(-89.5, -180)},
	} {
		t.Run(strconv.Itoa(i), func(t *testing.T) {
			got := tc.loc.Translate(tc.latInc, tc.lonInc)
			assertNear(t, tc.expected.Lat, got.Lat, 1e-9)
			assertNear(t, tc.expected.Lon, got.Lon, 1e-9)
		})
	}
}

func TestEarthLocation_Directions(t *testing.T) {
	a := regrid.NewEarthLocation(10, 20)
	b := regrid.NewEarthLocation(5, 30)
	assert.True(t, a.IsNorth(b))
	assert.True(t, b.IsSouth(a))
	assert.True(t, b.IsEast(a))
	assert.True(t, a.IsWest(b))

	// Across the antimeridian the shorter arc decides.
	c := regrid.NewEarthLocation(0, 175)
	d := regrid.NewEarthLocation(0, -175)
	assert.True(t, d.IsEast(c))
	assert.True(t, c.IsWest(d))
}

func TestEarthLocation_Shift(t *testing.T) {
	nad83 := regrid.Datum("NAD83")
	shift := func(loc regrid.EarthLocation, to regrid.Datum) regrid.EarthLocation {
		loc.Lat += 0.001
		loc.Datum = to
		return loc
	}

	loc := regrid.NewEarthLocation(40, -100)
	assert.Equal(t, loc, loc.Shift(regrid.WGS84, shift))
	assert.Equal(t, loc, loc.Shift(nad83, nil))

	shifted := loc.Shift(nad83, shift)
	assert.Equal(t, nad83, shifted.Datum)
	assertNear(t, 40.001, shifted.Lat, 1e-9)
}
