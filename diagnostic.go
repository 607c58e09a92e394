package regrid

import (
	"fmt"
	"log/slog"
	"math"
	"sync"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// A DiagnosticSample holds the resampling diagnostic data for a
// single remapped destination pixel.
type DiagnosticSample struct {
	// DestCoords is the destination pixel.
	DestCoords [2]int

	// SourceCoords is the source pixel the resampling map assigned.
	SourceCoords [2]int

	// OptimalCoords is the source pixel nearest to the destination
	// pixel of all pixels in the search window.
	OptimalCoords [2]int

	// ActualDist is the distance in kilometers from the center of the
	// destination pixel to the center of the assigned source pixel.
	ActualDist float64

	// OptimalDist is the distance in kilometers from the center of
	// the destination pixel to the center of the optimal source
	// pixel.
	OptimalDist float64

	destEarthLoc EarthLocation
}

// Optimal reports whether the assigned source pixel is the optimal
// one.
func (s *DiagnosticSample) Optimal() bool {
	return s.SourceCoords == s.OptimalCoords
}

// DistanceError returns the distance in kilometers by which the
// assigned pixel misses the optimal pixel.
func (s *DiagnosticSample) DistanceError() float64 {
	return s.ActualDist - s.OptimalDist
}

// Omega returns the normalized error index 1 - (dist-opt)/(dist+opt),
// where dist is the assigned pixel distance and opt the optimal pixel
// distance. Omega is 1 when the assigned pixel is optimal, and less
// than 1 otherwise. If both distances are zero, omega is 1.
func (s *DiagnosticSample) Omega() float64 {
	if s.ActualDist == s.OptimalDist {
		return 1
	}
	return 1 - (s.ActualDist-s.OptimalDist)/(s.ActualDist+s.OptimalDist)
}

// DiagnosticStats summarizes one diagnostic quantity over all
// samples.
type DiagnosticStats struct {
	Count int
	Min   float64
	Max   float64
	Mean  float64
}

func summarize(values []float64) DiagnosticStats {
	if len(values) == 0 {
		return DiagnosticStats{}
	}
	return DiagnosticStats{
		Count: len(values),
		Min:   floats.Min(values),
		Max:   floats.Max(values),
		Mean:  stat.Mean(values, nil),
	}
}

// GridStats summarizes the valid values of g.
func GridStats(g Grid) DiagnosticStats {
	dims := g.Dimensions()
	values := make([]float64, 0, dims[Rows]*dims[Cols])
	for row := range dims[Rows] {
		for col := range dims[Cols] {
			if value := g.Value(row, col); !math.IsNaN(value) {
				values = append(values, value)
			}
		}
	}
	return summarize(values)
}

// A ResamplingDiagnostic measures how far a resampling map strays
// from the ideal mapping between a source and destination coordinate
// system. It wraps the ResamplingMapFactory that the resampling will
// use: pass the diagnostic to the resampling in the factory's place,
// and it samples a fraction of the remapped pixels as maps are
// created. After resampling, Complete searches a window around each
// sampled pixel for the truly nearest source pixel and summarizes the
// differences.
type ResamplingDiagnostic struct {
	sourceTrans EarthTransform
	destTrans   EarthTransform
	source      ResamplingSource
	factory     ResamplingMapFactory
	factor      float64
	datumShift  DatumShift
	shiftNeeded bool
	logger      *slog.Logger

	mu      sync.Mutex
	samples []*DiagnosticSample

	distStats      DiagnosticStats
	distErrorStats DiagnosticStats
	omegaStats     DiagnosticStats
}

// A ResamplingDiagnosticOption sets an option on a
// ResamplingDiagnostic.
type ResamplingDiagnosticOption func(*ResamplingDiagnostic)

// WithDiagnosticSource sets the source validity rules, which also
// size the optimal-pixel search window. The default accepts all
// locations with a 3x3 window.
func WithDiagnosticSource(source ResamplingSource) ResamplingDiagnosticOption {
	return func(d *ResamplingDiagnostic) {
		d.source = source
	}
}

// WithDiagnosticDatumShift sets the function used to shift
// destination earth locations onto the source datum.
func WithDiagnosticDatumShift(shift DatumShift) ResamplingDiagnosticOption {
	return func(d *ResamplingDiagnostic) {
		d.datumShift = shift
	}
}

// WithDiagnosticLogger sets the logger for progress reporting.
func WithDiagnosticLogger(logger *slog.Logger) ResamplingDiagnosticOption {
	return func(d *ResamplingDiagnostic) {
		d.logger = logger
	}
}

// NewResamplingDiagnostic creates a diagnostic proxy around factory.
// The factor in (0, 1] selects the fraction of remapped pixels to
// sample; 0.01, sampling 1% of pixels, is a reasonable choice.
func NewResamplingDiagnostic(sourceTrans, destTrans EarthTransform, factory ResamplingMapFactory, factor float64, options ...ResamplingDiagnosticOption) (*ResamplingDiagnostic, error) {
	if factor <= 0 || factor > 1 {
		return nil, fmt.Errorf("regrid: invalid diagnostic sampling factor %g", factor)
	}
	d := &ResamplingDiagnostic{
		sourceTrans: sourceTrans,
		destTrans:   destTrans,
		source:      AcceptAllSource{},
		factory:     factory,
		factor:      factor,
		logger:      slog.Default(),
	}
	for _, option := range options {
		option(d)
	}
	d.shiftNeeded = sourceTrans.Datum() != destTrans.Datum()
	if d.shiftNeeded && d.datumShift == nil {
		return nil, fmt.Errorf("regrid: datum shift needed from %q to %q but no shift function set", destTrans.Datum(), sourceTrans.Datum())
	}
	return d, nil
}

// Create proxies map creation to the wrapped factory, sampling the
// remapped pixels of the created map.
func (d *ResamplingDiagnostic) Create(start, length [2]int) (*ResamplingMap, error) {
	m, err := d.factory.Create(start, length)
	if err != nil || m == nil {
		return m, err
	}

	stride := int(math.Sqrt(1 / d.factor))
	samples := 0
	for i := 0; i < length[Rows]; i += stride {
		for j := 0; j < length[Cols]; j += stride {
			destRow := start[Rows] + i
			destCol := start[Cols] + j
			sourceRow, sourceCol, ok := m.Map(destRow, destCol)
			if !ok {
				continue
			}
			sample := &DiagnosticSample{
				DestCoords:   [2]int{destRow, destCol},
				SourceCoords: [2]int{sourceRow, sourceCol},
			}
			d.mu.Lock()
			d.samples = append(d.samples, sample)
			d.mu.Unlock()
			samples++
		}
	}
	d.logger.Debug("accumulated diagnostic samples", "count", samples, "start", start)

	return m, nil
}

// Complete finishes the diagnostic: for each sample it computes the
// actual remapped distance, searches the window around the assigned
// source pixel for the optimal pixel, and summarizes the results.
func (d *ResamplingDiagnostic) Complete() {
	d.mu.Lock()
	samples := d.samples
	d.mu.Unlock()
	d.logger.Info("running diagnostic", "samples", len(samples))

	sourceDims := d.sourceTrans.Dimensions()
	radius := (d.source.WindowSize() - 1) / 2

	for _, sample := range samples {
		destEarthLoc := d.destTrans.Transform(Loc2(float64(sample.DestCoords[Rows]), float64(sample.DestCoords[Cols])))
		if d.shiftNeeded {
			destEarthLoc = destEarthLoc.Shift(d.sourceTrans.Datum(), d.datumShift)
		}
		sample.destEarthLoc = destEarthLoc
		sourceEarthLoc := d.sourceTrans.Transform(Loc2(float64(sample.SourceCoords[Rows]), float64(sample.SourceCoords[Cols])))
		sample.ActualDist = destEarthLoc.Distance(sourceEarthLoc)
		sample.OptimalDist = math.MaxFloat64
	}

	// Search for the optimal source pixel near each assigned pixel,
	// using the cheap distance proxy inside the loop.
	for _, sample := range samples {
		rowStart := max(sample.SourceCoords[Rows]-radius, 0)
		rowEnd := min(sample.SourceCoords[Rows]+radius, sourceDims[Rows]-1)
		colStart := max(sample.SourceCoords[Cols]-radius, 0)
		colEnd := min(sample.SourceCoords[Cols]+radius, sourceDims[Cols]-1)

		for row := rowStart; row <= rowEnd; row++ {
			for col := colStart; col <= colEnd; col++ {
				sourceLoc := Loc2(float64(row), float64(col))
				if !d.source.ValidLocation(sourceLoc) {
					continue
				}
				sourceEarthLoc := d.sourceTrans.Transform(sourceLoc)
				if sourceEarthLoc.Invalid() {
					continue
				}
				if dist := sample.destEarthLoc.DistanceProxy(sourceEarthLoc); dist < sample.OptimalDist {
					sample.OptimalDist = dist
					sample.OptimalCoords = [2]int{row, col}
				}
			}
		}
	}

	// Drop samples with no computable optimum or actual distance,
	// and convert optimal proxies back to kilometers.
	kept := samples[:0]
	for _, sample := range samples {
		if sample.OptimalDist == math.MaxFloat64 || math.IsNaN(sample.ActualDist) {
			continue
		}
		sample.OptimalDist = DistanceFromProxy(sample.OptimalDist)
		if sample.OptimalDist > sample.ActualDist {
			d.logger.Warn("optimal distance exceeds actual resampled distance", "destCoords", sample.DestCoords)
		}
		kept = append(kept, sample)
	}

	dist := make([]float64, len(kept))
	distError := make([]float64, len(kept))
	omega := make([]float64, len(kept))
	for i, sample := range kept {
		dist[i] = sample.ActualDist
		distError[i] = sample.DistanceError()
		omega[i] = sample.Omega()
	}

	d.mu.Lock()
	d.samples = kept
	d.distStats = summarize(dist)
	d.distErrorStats = summarize(distError)
	d.omegaStats = summarize(omega)
	d.mu.Unlock()
}

// SampleCount returns the number of samples used to generate
// statistics.
func (d *ResamplingDiagnostic) SampleCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.samples)
}

// SuboptimalCount returns the number of samples whose assigned pixel
// did not match the optimal pixel.
func (d *ResamplingDiagnostic) SuboptimalCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	count := 0
	for _, sample := range d.samples {
		if !sample.Optimal() {
			count++
		}
	}
	return count
}

// SuboptimalSamples returns the samples whose assigned pixel did not
// match the optimal pixel.
func (d *ResamplingDiagnostic) SuboptimalSamples() []*DiagnosticSample {
	d.mu.Lock()
	defer d.mu.Unlock()
	var suboptimal []*DiagnosticSample
	for _, sample := range d.samples {
		if !sample.Optimal() {
			suboptimal = append(suboptimal, sample)
		}
	}
	return suboptimal
}

// DistStats returns statistics on the distance from destination
// pixels to their assigned source pixels, in kilometers.
func (d *ResamplingDiagnostic) DistStats() DiagnosticStats { return d.distStats }

// DistErrorStats returns statistics on the distance error relative to
// the optimal source pixels, in kilometers.
func (d *ResamplingDiagnostic) DistErrorStats() DiagnosticStats { return d.distErrorStats }

// OmegaStats returns statistics on the omega normalized error index.
func (d *ResamplingDiagnostic) OmegaStats() DiagnosticStats { return d.omegaStats }
