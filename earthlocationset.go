package regrid

import (
	"math"

	"github.com/golang/geo/s2"
)

// Used to nudge longitudes just inside a neighboring bin.
const binEpsilon = 1e-6

type setEntry[T any] struct {
	loc   EarthLocation
	point s2.Point
	data  T
}

// A LocationSet holds earth locations with associated data and finds
// the nearest held location to a query point quickly. Locations are
// hashed into latitude/longitude bins that shrink in longitude count
// toward the poles, so bins have roughly equal area; a nearest query
// searches the query's bin and its neighbors. The implementation
// assumes inserted locations are contiguous or highly clustered, as
// the pixels of a satellite swath are, so that occupied bins are
// adjacent to other occupied bins.
type LocationSet[T any] struct {
	latRings         int
	latDegreesPerBin float64
	binsAtRing       []int
	lonDegreesAtRing []float64
	firstBinAtRing   []int
	bins             map[int][]setEntry[T]
}

// A SetSearchContext memoizes bin adjacency lookups across repeated
// nearest queries. It must not be shared between goroutines.
type SetSearchContext struct {
	adjacency map[int][]int
}

// NewSetSearchContext creates an empty search context for use with
// Nearest.
func NewSetSearchContext() *SetSearchContext {
	return &SetSearchContext{adjacency: make(map[int][]int)}
}

// NewLocationSet creates an empty set with the given number of bins
// per degree of latitude, minimum 1.
func NewLocationSet[T any](binsPerDegree int) *LocationSet[T] {
	s := &LocationSet[T]{
		latRings:         180 * binsPerDegree,
		latDegreesPerBin: 1 / float64(binsPerDegree),
		bins:             make(map[int][]setEntry[T]),
	}

	// Scale the bin count at each latitude ring by the ring's
	// circumference so bins cover roughly equal areas.
	binsAtEquator := 360 * binsPerDegree
	s.binsAtRing = make([]int, s.latRings)
	s.lonDegreesAtRing = make([]float64, s.latRings)
	for i := range s.latRings {
		baseLat := s.latDegreesPerBin*float64(i) - 90
		binFactor := (math.Sin(rad(baseLat+s.latDegreesPerBin)) - math.Sin(rad(baseLat))) /
			math.Sin(rad(s.latDegreesPerBin))
		bins := max(int(math.Round(float64(binsAtEquator)*binFactor)), 1)
		s.binsAtRing[i] = bins
		s.lonDegreesAtRing[i] = 360 / float64(bins)
	}

	s.firstBinAtRing = make([]int, s.latRings)
	binIndex := 0
	for i := range s.latRings {
		s.firstBinAtRing[i] = binIndex
		binIndex += s.binsAtRing[i]
	}

	return s
}

func rad(degrees float64) float64 { return degrees * math.Pi / 180 }

// Len returns the number of locations in the set.
func (s *LocationSet[T]) Len() int {
	n := 0
	for _, entries := range s.bins {
		n += len(entries)
	}
	return n
}

// BinCount returns the number of occupied bins.
func (s *LocationSet[T]) BinCount() int { return len(s.bins) }

// Clear removes all locations from the set.
func (s *LocationSet[T]) Clear() { clear(s.bins) }

// latRing returns the ring index for a latitude, or -1 if the
// latitude is out of range.
func (s *LocationSet[T]) latRing(lat float64) int {
	if math.IsNaN(lat) {
		return -1
	}
	ring := int(math.Floor((lat + 90) / s.latDegreesPerBin))
	if ring == s.latRings {
		ring = s.latRings - 1
	}
	if ring < 0 || ring > s.latRings-1 {
		return -1
	}
	return ring
}

// lonBin returns the longitude bin index within a ring, or -1 if the
// longitude is out of range.
func (s *LocationSet[T]) lonBin(ring int, lon float64) int {
	if lon >= 180 {
		lon -= 360
	}
	bin := int(math.Floor((lon + 180) / s.lonDegreesAtRing[ring]))
	if bin < 0 || bin > s.binsAtRing[ring]-1 {
		return -1
	}
	return bin
}

func (s *LocationSet[T]) binIndex(ring, lonBin int) int {
	return s.firstBinAtRing[ring] + lonBin
}

// Insert adds a location and its data to the set. Invalid locations
// are ignored.
func (s *LocationSet[T]) Insert(loc EarthLocation, data T) {
	ring := s.latRing(loc.Lat)
	if ring < 0 {
		return
	}
	lonBin := s.lonBin(ring, loc.Lon)
	if lonBin < 0 {
		return
	}
	index := s.binIndex(ring, lonBin)
	s.bins[index] = append(s.bins[index], setEntry[T]{
		loc:   loc,
		point: s2.PointFromLatLng(loc.LatLng()),
		data:  data,
	})
}

// adjacentBins returns the bin indices of the bin at (ring, lonBin)
// and all its neighbors, including the wrapped-around longitude
// neighbors and the overlapping bins in the rings above and below.
func (s *LocationSet[T]) adjacentBins(ring, lonBin int) []int {
	lonBinLeft := lonBin - 1
	if lonBin == 0 {
		lonBinLeft = s.binsAtRing[ring] - 1
	}
	lonBinRight := lonBin + 1
	if lonBin == s.binsAtRing[ring]-1 {
		lonBinRight = 0
	}

	leftEdge := float64(lonBinLeft)*s.lonDegreesAtRing[ring] + binEpsilon - 180
	rightEdge := float64(lonBinRight+1)*s.lonDegreesAtRing[ring] - binEpsilon - 180

	// The rings above and below have different bin widths, so the
	// neighbor span there runs from the bin under the left edge to
	// the bin under the right edge.
	ringSpan := func(other int) (first, count int) {
		first = s.lonBin(other, leftEdge)
		last := s.lonBin(other, rightEdge)
		count = 1
		for bin := first; bin != last; bin = (bin + 1) % s.binsAtRing[other] {
			count++
		}
		return first, count
	}

	var adjacent []int
	if ring < s.latRings-1 {
		first, count := ringSpan(ring + 1)
		for i := range count {
			adjacent = append(adjacent, s.binIndex(ring+1, (first+i)%s.binsAtRing[ring+1]))
		}
	}
	adjacent = append(adjacent,
		s.binIndex(ring, lonBinLeft),
		s.binIndex(ring, lonBin),
		s.binIndex(ring, lonBinRight))
	if ring > 0 {
		first, count := ringSpan(ring - 1)
		for i := range count {
			adjacent = append(adjacent, s.binIndex(ring-1, (first+i)%s.binsAtRing[ring-1]))
		}
	}
	return adjacent
}

// Nearest returns the location in the set nearest to loc and its
// data. It reports false if the set holds no location in the bins
// adjacent to loc. The context, if non-nil, speeds up repeated
// queries with clustered locations.
func (s *LocationSet[T]) Nearest(loc EarthLocation, context *SetSearchContext) (EarthLocation, T, bool) {
	var nearest setEntry[T]
	found := false

	ring := s.latRing(loc.Lat)
	if ring < 0 {
		return nearest.loc, nearest.data, false
	}
	lonBin := s.lonBin(ring, loc.Lon)
	if lonBin < 0 {
		return nearest.loc, nearest.data, false
	}

	var adjacent []int
	if context != nil {
		index := s.binIndex(ring, lonBin)
		adjacent = context.adjacency[index]
		if adjacent == nil {
			adjacent = s.adjacentBins(ring, lonBin)
			context.adjacency[index] = adjacent
		}
	} else {
		adjacent = s.adjacentBins(ring, lonBin)
	}

	query := s2.PointFromLatLng(loc.LatLng())
	minDist2 := math.MaxFloat64
	for _, index := range adjacent {
		for _, entry := range s.bins[index] {
			dist2 := entry.point.Sub(query.Vector).Norm2()
			if dist2 < minDist2 {
				minDist2 = dist2
				nearest = entry
				found = true
			}
		}
	}
	return nearest.loc, nearest.data, found
}
