package regrid

import (
	"errors"
	"iter"
	"math"

	"github.com/bits-and-blooms/bitset"
)

// ErrNoAreaStart is returned when area exploration cannot begin because
// the center of the coordinate bounds has no valid earth location.
var ErrNoAreaStart = errors.New("regrid: data center has no valid earth location")

const areaSquares = 360 * 180

// An EarthArea represents an irregularly shaped area on the earth as a
// set of 1 by 1 degree grid squares. Each square is referenced by its
// lower-left corner, so square (10, 20) covers 10N to 11N and 20E to
// 21E. It answers containment queries for shapes that simple
// north/south/east/west bounds describe poorly, such as satellite
// swaths.
type EarthArea struct {
	bits *bitset.BitSet
}

// NewEarthArea creates an empty area containing no squares.
func NewEarthArea() *EarthArea {
	return &EarthArea{bits: bitset.New(areaSquares)}
}

// ExploreEarthArea creates an area covering all earth locations that
// trans maps into the coordinate box [min, max]. Exploration starts at
// the center of the box and flood-fills outward, then the result is
// expanded by one square in all directions so that the area bounds the
// coverage conservatively.
func ExploreEarthArea(trans EarthTransform, min, max DataLocation) (*EarthArea, error) {
	a := NewEarthArea()
	center := Loc2((min[Rows]+max[Rows])/2, (min[Cols]+max[Cols])/2)
	start := trans.Transform(center)
	if squareIndex(start) < 0 {
		return nil, ErrNoAreaStart
	}
	a.Explore(trans, min, max, start)
	a.Expand()
	return a, nil
}

// squareIndexAt computes the index of the square with the given
// lower-left corner, or -1 if the corner is out of range.
func squareIndexAt(lat, lon int) int {
	if lat < -90 || lat > 89 {
		return -1
	}
	if lon < -180 || lon > 179 {
		return -1
	}
	return (lat+90)*360 + (lon + 180)
}

// squareIndex computes the index of the square containing loc, or -1 if
// loc is invalid.
func squareIndex(loc EarthLocation) int {
	if loc.Invalid() {
		return -1
	}
	lat := int(math.Floor(loc.Lat))
	if lat == 90 {
		lat = 89
	}
	lon := int(math.Floor(loc.Lon))
	return squareIndexAt(lat, lon)
}

// square returns the lower-left corner of the square at index as
// [lat, lon].
func square(index int) [2]int {
	return [2]int{index/360 - 90, index%360 - 180}
}

// squareCenter returns the earth location at the center of the square
// at index.
func squareCenter(index int) EarthLocation {
	s := square(index)
	return NewEarthLocation(float64(s[0])+0.5, float64(s[1])+0.5)
}

// Contains reports whether loc falls in a square of this area.
func (a *EarthArea) Contains(loc EarthLocation) bool {
	index := squareIndex(loc)
	return index >= 0 && a.bits.Test(uint(index))
}

// ContainsSquare reports whether the square with lower-left corner
// (lat, lon) is in this area.
func (a *EarthArea) ContainsSquare(lat, lon int) bool {
	index := squareIndexAt(lat, lon)
	return index >= 0 && a.bits.Test(uint(index))
}

// Add adds the square containing loc to this area. Invalid locations
// are ignored.
func (a *EarthArea) Add(loc EarthLocation) {
	if index := squareIndex(loc); index >= 0 {
		a.bits.Set(uint(index))
	}
}

// AddAll adds every square on the earth to this area.
func (a *EarthArea) AddAll() {
	for i := range uint(areaSquares) {
		a.bits.Set(i)
	}
}

// Remove removes the square containing loc from this area.
func (a *EarthArea) Remove(loc EarthLocation) {
	if index := squareIndex(loc); index >= 0 {
		a.bits.Clear(uint(index))
	}
}

// IsEmpty reports whether this area contains no squares.
func (a *EarthArea) IsEmpty() bool { return a.bits.None() }

// Len returns the number of squares in this area.
func (a *EarthArea) Len() int { return int(a.bits.Count()) }

// Clone returns an independent copy of this area.
func (a *EarthArea) Clone() *EarthArea {
	return &EarthArea{bits: a.bits.Clone()}
}

// Equal reports whether this area contains exactly the same squares as
// other.
func (a *EarthArea) Equal(other *EarthArea) bool {
	return a.bits.Equal(other.bits)
}

// Intersection returns a new area containing only the squares that
// occur in both this area and other.
func (a *EarthArea) Intersection(other *EarthArea) *EarthArea {
	return &EarthArea{bits: a.bits.Intersection(other.bits)}
}

// Union returns a new area containing the squares of this area and
// other combined.
func (a *EarthArea) Union(other *EarthArea) *EarthArea {
	return &EarthArea{bits: a.bits.Union(other.bits)}
}

// Squares iterates over the lower-left corners of all squares in this
// area as [lat, lon].
func (a *EarthArea) Squares() iter.Seq[[2]int] {
	return func(yield func([2]int) bool) {
		for i, ok := a.bits.NextSet(0); ok; i, ok = a.bits.NextSet(i + 1) {
			if !yield(square(int(i))) {
				return
			}
		}
	}
}

// Expand grows the area by one square in all directions, adding the
// eight neighbors of every square currently in the area.
func (a *EarthArea) Expand() {
	base := a.bits.Clone()
	for i, ok := base.NextSet(0); ok; i, ok = base.NextSet(i + 1) {
		center := squareCenter(int(i))
		for _, d := range [8][2]float64{
			{1, -1}, {1, 0}, {1, 1},
			{0, -1}, {0, 1},
			{-1, -1}, {-1, 0}, {-1, 1},
		} {
			a.Add(center.Translate(d[0], d[1]))
		}
	}
}

// Explore flood-fills squares into the area starting from start,
// keeping only squares whose centers trans maps to valid coordinates
// inside [min, max]. Exploration stops at squares already in the area,
// at the coordinate bounds, and at invalid transform results. An
// invalid start location leaves the area unchanged.
func (a *EarthArea) Explore(trans EarthTransform, min, max DataLocation, start EarthLocation) {
	probes := [8][2]float64{
		{1, 0}, {0, 1}, {-1, 0}, {0, -1},
		{1, 1}, {-1, 1}, {-1, -1}, {1, -1},
	}

	// Seed the work set with the start square and all eight of its
	// neighbors, in case the start square itself maps outside the
	// bounds.
	work := bitset.New(areaSquares)
	startIndex := squareIndex(start)
	if startIndex < 0 {
		return
	}
	work.Set(uint(startIndex))
	for _, d := range probes {
		if index := squareIndex(start.Translate(d[0], d[1])); index >= 0 {
			work.Set(uint(index))
		}
	}

	for {
		index, ok := work.NextSet(0)
		if !ok {
			break
		}
		work.Clear(index)
		if a.bits.Test(index) {
			continue
		}

		earthLoc := squareCenter(int(index))
		dataLoc := trans.Inverse(earthLoc)
		if dataLoc.Invalid() || !dataLoc.Contained(min, max) {
			continue
		}

		a.bits.Set(index)
		for _, d := range probes[:4] {
			probeIndex := squareIndex(earthLoc.Translate(d[0], d[1]))
			if probeIndex >= 0 && !a.bits.Test(uint(probeIndex)) {
				work.Set(uint(probeIndex))
			}
		}
	}

	// The start square may have been skipped if its center maps
	// outside the bounds while the start location itself is inside.
	if !a.bits.Test(uint(startIndex)) {
		startLoc := trans.Inverse(start)
		if startLoc.Valid() && startLoc.Contained(min, max) {
			a.bits.Set(uint(startIndex))
		}
	}
}

// Extremes returns the geographic extremes of this area as upper
// bounds [north, east] and lower bounds [south, west] in degrees. If
// the area crosses the 180E/180W boundary, east and west are both
// shifted into the range [0, 360] so that west <= east still holds.
// An empty area has all zero extremes.
func (a *EarthArea) Extremes() (north, south, east, west int) {
	i, ok := a.bits.NextSet(0)
	if !ok {
		return 0, 0, 0, 0
	}

	s := square(int(i))
	north, south = s[0], s[0]
	east, west = s[1], s[1]
	lonMod := func(lon int) int {
		if lon < 0 {
			return lon + 360
		}
		return lon
	}
	eastMod := lonMod(s[1])
	westMod := eastMod

	for i, ok = a.bits.NextSet(i + 1); ok; i, ok = a.bits.NextSet(i + 1) {
		s = square(int(i))
		north = max(s[0], north)
		south = min(s[0], south)
		east = max(s[1], east)
		west = min(s[1], west)
		eastMod = max(lonMod(s[1]), eastMod)
		westMod = min(lonMod(s[1]), westMod)
	}

	// An area touching both sides of the 180E/180W boundary shows up
	// as spanning the full longitude range. Switch to [0, 360]
	// longitudes in that case.
	if west == -180 && east == 179 {
		east = eastMod
		west = westMod
	}

	return north + 1, south, east + 1, west
}
