package regrid

import (
	"context"
	"log/slog"
	"math"
)

// An InverseResampler resamples by building a LocationEstimator from
// destination coordinates to source coordinates and evaluating it at
// every destination pixel. The estimator replaces the expensive
// forward-then-inverse transform chain with a pair of polynomial
// evaluations, at the cost of a construction pass, so this method
// suits transforms that are slow to evaluate, such as swath
// navigation.
type InverseResampler struct {
	resamplerBase
	polySize float64
}

// An InverseResamplerOption sets an option on an InverseResampler.
type InverseResamplerOption func(*InverseResampler)

// WithInverseLogger sets the logger used for progress reporting.
func WithInverseLogger(logger *slog.Logger) InverseResamplerOption {
	return func(r *InverseResampler) {
		r.logger = logger
	}
}

// NewInverseResampler creates a resampler from coordinates under
// sourceTrans to coordinates under destTrans, using estimation
// polynomials of at most polySize kilometers per side.
func NewInverseResampler(sourceTrans, destTrans EarthTransform, polySize float64, options ...InverseResamplerOption) *InverseResampler {
	r := &InverseResampler{
		resamplerBase: newResamplerBase(sourceTrans, destTrans),
		polySize:      polySize,
	}
	for _, option := range options {
		option(r)
	}
	return r
}

// Perform transfers values from each source grid to its destination
// grid. Destination pixels whose estimated source coordinate is
// invalid or falls outside the source grid are set to NaN. Source
// coordinates are admitted out to the half-pixel edges of the grid, so
// an estimate of -0.3 still rounds into row zero.
func (r *InverseResampler) Perform(ctx context.Context) error {
	grids := len(r.sources)
	r.logger.Info("found grids for resampling", "count", grids)
	if grids == 0 {
		return nil
	}

	sourceDims := r.sources[0].Dimensions()
	destDims := r.dests[0].Dimensions()
	r.logger.Info("resampling",
		"destRows", destDims[Rows], "destCols", destDims[Cols],
		"sourceRows", sourceDims[Rows], "sourceCols", sourceDims[Cols])

	r.logger.Info("creating location estimator", "polySize", r.polySize)
	options := []LocationEstimatorOption{
		WithReferenceDimensions(destDims),
	}
	if nav := navigationOf(r.sources[0]); nav != nil {
		options = append(options, WithTargetNavigation(nav))
	}
	estimator, err := NewLocationEstimator(r.destTrans, r.sourceTrans, r.polySize, options...)
	if err != nil {
		return err
	}
	r.logger.Info("location estimator complete, starting resampling")

	sourceMin := Loc2(-0.5, -0.5)
	sourceMax := Loc2(float64(sourceDims[Rows])-0.5, float64(sourceDims[Cols])-0.5)

	var cache PartitionCache
	for i := range destDims[Rows] {
		if err := ctx.Err(); err != nil {
			return err
		}
		for j := range destDims[Cols] {
			destLoc := Loc2(float64(i), float64(j))

			sourceValid := false
			var sourceRow, sourceCol int
			if r.destTrans.Transform(destLoc).Valid() {
				sourceLoc := estimator.Location(destLoc, &cache)
				if sourceLoc.Valid() && sourceLoc.Contained(sourceMin, sourceMax) {
					sourceRow = int(math.Round(sourceLoc[Rows]))
					sourceCol = int(math.Round(sourceLoc[Cols]))
					sourceValid = true
				}
			}

			if sourceValid {
				pixelsResampled.Inc()
			}
			for k := range grids {
				value := math.NaN()
				if sourceValid {
					value = r.sources[k].Value(sourceRow, sourceCol)
				}
				r.dests[k].SetValue(i, j, value)
			}
		}
		r.logProgress(i+1, destDims[Rows])
	}
	return nil
}
