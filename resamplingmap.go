package regrid

import (
	"errors"
	"fmt"
	"log/slog"
	"math"

	lru "github.com/hashicorp/golang-lru/v2"
)

// ErrUnknownResolution is returned when the source transform's
// resolution cannot be estimated because the locations around its
// center are invalid.
var ErrUnknownResolution = errors.New("regrid: cannot determine source transform resolution")

// Marks an unmapped destination pixel in the map arrays.
const unmappedPixel = math.MinInt32

// A ResamplingMap holds a precomputed mapping from the destination
// pixels of one tile to their nearest source pixels.
type ResamplingMap struct {
	start  [2]int
	length [2]int
	rows   []int32
	cols   []int32
}

// NewResamplingMap creates a map for the tile at start with the given
// length. The rows and cols slices hold the source coordinates of
// each destination pixel in row-major tile order.
func NewResamplingMap(start, length [2]int, rows, cols []int32) *ResamplingMap {
	return &ResamplingMap{start: start, length: length, rows: rows, cols: cols}
}

// Map returns the source pixel mapped to the destination pixel. It
// reports false if the destination pixel is outside this map's tile
// or has no source mapping.
func (m *ResamplingMap) Map(destRow, destCol int) (sourceRow, sourceCol int, ok bool) {
	i := destRow - m.start[Rows]
	j := destCol - m.start[Cols]
	if i < 0 || i >= m.length[Rows] || j < 0 || j >= m.length[Cols] {
		return 0, 0, false
	}
	index := i*m.length[Cols] + j
	if m.rows[index] == unmappedPixel {
		return 0, 0, false
	}
	return int(m.rows[index]), int(m.cols[index]), true
}

// A ResamplingMapFactory creates resampling maps for tiles of a
// destination coordinate system on demand. Create returns a nil map,
// with no error, for a tile that maps no pixels at all.
// Implementations must be safe for concurrent Create calls so that
// tiles can be resampled in parallel.
type ResamplingMapFactory interface {
	Create(start, length [2]int) (*ResamplingMap, error)
}

// A ResamplingSource answers source-specific validity queries during
// resampling. The window size bounds, in source pixels, how far a
// mapped pixel can be from the true nearest pixel; diagnostics search
// a window of this size for the optimum.
type ResamplingSource interface {
	ValidLocation(loc DataLocation) bool
	ValidNearest(earthLoc EarthLocation, sourceLoc DataLocation) bool
	WindowSize() int
}

// An AcceptAllSource is a ResamplingSource that accepts every source
// location, with a 3x3 diagnostic search window.
type AcceptAllSource struct{}

func (AcceptAllSource) ValidLocation(DataLocation) bool { return true }

func (AcceptAllSource) ValidNearest(EarthLocation, DataLocation) bool { return true }

func (AcceptAllSource) WindowSize() int { return 3 }

// A DirectResamplingMapFactory creates resampling maps by composing
// the destination and source transforms at every destination pixel
// and rounding to the nearest source pixel. It needs no construction
// pass, so it suits cheap transform pairs and serves as the baseline
// the bucket factory is measured against.
type DirectResamplingMapFactory struct {
	sourceTrans EarthTransform
	destTrans   EarthTransform
	source      ResamplingSource
	datumShift  DatumShift
	shiftNeeded bool
}

// A DirectResamplingMapFactoryOption sets an option on a
// DirectResamplingMapFactory.
type DirectResamplingMapFactoryOption func(*DirectResamplingMapFactory)

// WithDirectResamplingSource sets the source validity rules. The
// default accepts all locations.
func WithDirectResamplingSource(source ResamplingSource) DirectResamplingMapFactoryOption {
	return func(f *DirectResamplingMapFactory) {
		f.source = source
	}
}

// WithDirectDatumShift sets the function used to shift destination
// earth locations onto the source datum.
func WithDirectDatumShift(shift DatumShift) DirectResamplingMapFactoryOption {
	return func(f *DirectResamplingMapFactory) {
		f.datumShift = shift
	}
}

// NewDirectResamplingMapFactory creates a factory mapping destination
// pixels under destTrans to source pixels under sourceTrans by direct
// transform composition.
func NewDirectResamplingMapFactory(sourceTrans, destTrans EarthTransform, options ...DirectResamplingMapFactoryOption) (*DirectResamplingMapFactory, error) {
	f := &DirectResamplingMapFactory{
		sourceTrans: sourceTrans,
		destTrans:   destTrans,
		source:      AcceptAllSource{},
	}
	for _, option := range options {
		option(f)
	}
	f.shiftNeeded = sourceTrans.Datum() != destTrans.Datum()
	if f.shiftNeeded && f.datumShift == nil {
		return nil, fmt.Errorf("regrid: datum shift needed from %q to %q but no shift function set", destTrans.Datum(), sourceTrans.Datum())
	}
	return f, nil
}

// Create builds the resampling map for one destination tile. A nil
// map is returned, with no error, if no destination pixel in the tile
// maps to a source pixel.
func (f *DirectResamplingMapFactory) Create(start, length [2]int) (*ResamplingMap, error) {
	sourceDims := f.sourceTrans.Dimensions()
	entries := length[Rows] * length[Cols]
	rows := make([]int32, entries)
	cols := make([]int32, entries)
	empty := true

	destIndex := 0
	for i := start[Rows]; i < start[Rows]+length[Rows]; i++ {
		for j := start[Cols]; j < start[Cols]+length[Cols]; j++ {
			valid := false
			destEarthLoc := f.destTrans.Transform(Loc2(float64(i), float64(j)))
			if destEarthLoc.Valid() {
				if f.shiftNeeded {
					destEarthLoc = destEarthLoc.Shift(f.sourceTrans.Datum(), f.datumShift)
				}
				sourceLoc := f.sourceTrans.Inverse(destEarthLoc).Round()
				if sourceLoc.Valid() && sourceLoc.ContainedIn(sourceDims) &&
					f.source.ValidLocation(sourceLoc) &&
					f.source.ValidNearest(destEarthLoc, sourceLoc) {
					rows[destIndex] = int32(sourceLoc[Rows])
					cols[destIndex] = int32(sourceLoc[Cols])
					valid = true
					empty = false
				}
			}
			if !valid {
				rows[destIndex] = unmappedPixel
				cols[destIndex] = unmappedPixel
			}
			destIndex++
		}
	}

	if empty {
		return nil, nil
	}
	return NewResamplingMap(start, length, rows, cols), nil
}

// A BucketResamplingMapFactory creates resampling maps by hashing the
// source transform's earth locations into buckets and searching the
// buckets for the closest source pixel to each destination pixel.
// Construction walks the full source coordinate system once; Create
// then only searches buckets, so tiles are cheap and independent.
type BucketResamplingMapFactory struct {
	sourceTrans EarthTransform
	destTrans   EarthTransform
	source      ResamplingSource
	datumShift  DatumShift
	shiftNeeded bool
	locations   *LocationSet[[2]int32]
	sourceArea  *EarthArea
	logger      *slog.Logger
}

// A BucketResamplingMapFactoryOption sets an option on a
// BucketResamplingMapFactory.
type BucketResamplingMapFactoryOption func(*BucketResamplingMapFactory)

// WithResamplingSource sets the source validity rules. The default
// accepts all locations.
func WithResamplingSource(source ResamplingSource) BucketResamplingMapFactoryOption {
	return func(f *BucketResamplingMapFactory) {
		f.source = source
	}
}

// WithDatumShift sets the function used to shift destination earth
// locations onto the source datum when the two transforms use
// different datums.
func WithDatumShift(shift DatumShift) BucketResamplingMapFactoryOption {
	return func(f *BucketResamplingMapFactory) {
		f.datumShift = shift
	}
}

// WithBucketLogger sets the logger for construction diagnostics.
func WithBucketLogger(logger *slog.Logger) BucketResamplingMapFactoryOption {
	return func(f *BucketResamplingMapFactory) {
		f.logger = logger
	}
}

// NewBucketResamplingMapFactory creates a factory mapping destination
// pixels under destTrans to their nearest source pixels under
// sourceTrans.
func NewBucketResamplingMapFactory(sourceTrans, destTrans EarthTransform, options ...BucketResamplingMapFactoryOption) (*BucketResamplingMapFactory, error) {
	f := &BucketResamplingMapFactory{
		sourceTrans: sourceTrans,
		destTrans:   destTrans,
		source:      AcceptAllSource{},
		logger:      slog.Default(),
	}
	for _, option := range options {
		option(f)
	}
	f.shiftNeeded = sourceTrans.Datum() != destTrans.Datum()
	if f.shiftNeeded && f.datumShift == nil {
		return nil, fmt.Errorf("regrid: datum shift needed from %q to %q but no shift function set", destTrans.Datum(), sourceTrans.Datum())
	}

	// Estimate the source resolution at its center to size the
	// buckets at roughly 5x5 source pixels each.
	sourceDims := sourceTrans.Dimensions()
	center := Loc2(float64(sourceDims[Rows]/2), float64(sourceDims[Cols]/2))
	horizRes := sourceTrans.Transform(center.Translate(0, -1)).Distance(sourceTrans.Transform(center.Translate(0, 1))) / 2
	vertRes := sourceTrans.Transform(center.Translate(-1, 0)).Distance(sourceTrans.Transform(center.Translate(1, 0))) / 2
	res := math.NaN()
	switch {
	case math.IsNaN(horizRes) || horizRes == 0:
		res = vertRes
	case math.IsNaN(vertRes) || vertRes == 0:
		res = horizRes
	default:
		res = math.Max(horizRes, vertRes)
	}
	if math.IsNaN(res) || res == 0 {
		return nil, ErrUnknownResolution
	}

	resInDegrees := (res / EarthRadiusKm) * 180 / math.Pi
	binsPerDegree := max(int(math.Round(1/(5*resInDegrees))), 1)
	f.locations = NewLocationSet[[2]int32](binsPerDegree)
	f.logger.Debug("sized location buckets", "resolutionKm", res, "binsPerDegree", binsPerDegree)

	// Only source pixels that fall in the destination coverage area
	// go into the buckets; the rest can never be the nearest pixel
	// to a mapped destination pixel.
	destDims := destTrans.Dimensions()
	destArea, err := ExploreEarthArea(destTrans,
		Loc2(0, 0),
		Loc2(float64(destDims[Rows]-1), float64(destDims[Cols]-1)))
	if err != nil {
		return nil, err
	}

	f.sourceArea = NewEarthArea()
	for i := range sourceDims[Rows] {
		for j := range sourceDims[Cols] {
			sourceLoc := Loc2(float64(i), float64(j))
			if !f.source.ValidLocation(sourceLoc) {
				continue
			}
			earthLoc := sourceTrans.Transform(sourceLoc)
			if earthLoc.Invalid() {
				continue
			}
			f.sourceArea.Add(earthLoc)
			if destArea.Contains(earthLoc) {
				f.locations.Insert(earthLoc, [2]int32{int32(i), int32(j)})
			}
		}
	}

	return f, nil
}

// Create builds the resampling map for one destination tile. A nil
// map is returned, with no error, if no destination pixel in the tile
// maps to a source pixel.
func (f *BucketResamplingMapFactory) Create(start, length [2]int) (*ResamplingMap, error) {
	entries := length[Rows] * length[Cols]
	rows := make([]int32, entries)
	cols := make([]int32, entries)
	empty := true

	searchContext := NewSetSearchContext()
	destIndex := 0
	for i := start[Rows]; i < start[Rows]+length[Rows]; i++ {
		for j := start[Cols]; j < start[Cols]+length[Cols]; j++ {
			valid := false
			destEarthLoc := f.destTrans.Transform(Loc2(float64(i), float64(j)))
			if destEarthLoc.Valid() {
				if f.shiftNeeded {
					destEarthLoc = destEarthLoc.Shift(f.sourceTrans.Datum(), f.datumShift)
				}
				if f.sourceArea.Contains(destEarthLoc) {
					if _, coords, ok := f.locations.Nearest(destEarthLoc, searchContext); ok {
						sourceLoc := Loc2(float64(coords[Rows]), float64(coords[Cols]))
						if f.source.ValidNearest(destEarthLoc, sourceLoc) {
							rows[destIndex] = coords[Rows]
							cols[destIndex] = coords[Cols]
							valid = true
							empty = false
						}
					}
				}
			}
			if !valid {
				rows[destIndex] = unmappedPixel
				cols[destIndex] = unmappedPixel
			}
			destIndex++
		}
	}

	if empty {
		return nil, nil
	}
	return NewResamplingMap(start, length, rows, cols), nil
}

// A CachedMapFactory wraps another factory with an LRU cache of
// created maps, so that repeated resampling passes over the same
// tiles, one per registered grid chunk, reuse the mapping instead of
// recomputing it.
type CachedMapFactory struct {
	factory ResamplingMapFactory
	cache   *lru.Cache[[4]int, *ResamplingMap]
}

// NewCachedMapFactory creates a caching wrapper around factory
// holding at most capacity tile maps.
func NewCachedMapFactory(factory ResamplingMapFactory, capacity int) (*CachedMapFactory, error) {
	cache, err := lru.New[[4]int, *ResamplingMap](capacity)
	if err != nil {
		return nil, err
	}
	return &CachedMapFactory{factory: factory, cache: cache}, nil
}

// Create returns the cached map for the tile, creating and caching it
// on a miss. Empty tiles are cached as nil maps.
func (f *CachedMapFactory) Create(start, length [2]int) (*ResamplingMap, error) {
	key := [4]int{start[Rows], start[Cols], length[Rows], length[Cols]}
	if m, ok := f.cache.Get(key); ok {
		mapCacheHits.Inc()
		return m, nil
	}
	mapCacheMisses.Inc()
	m, err := f.factory.Create(start, length)
	if err != nil {
		return nil, err
	}
	f.cache.Add(key, m)
	return m, nil
}
