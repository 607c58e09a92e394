package regrid

import (
	"context"
	"log/slog"
	"math"
)

// A DirectResampler resamples by computing, for each destination
// pixel, its earth location under the destination transform and then
// the corresponding source coordinate under the source transform. It
// suits transform pairs whose forward and inverse are both cheap, such
// as map projections; for expensive transforms an InverseResampler
// amortizes the cost with polynomial estimation.
type DirectResampler struct {
	resamplerBase
}

// A DirectResamplerOption sets an option on a DirectResampler.
type DirectResamplerOption func(*DirectResampler)

// WithDirectLogger sets the logger used for progress reporting.
func WithDirectLogger(logger *slog.Logger) DirectResamplerOption {
	return func(r *DirectResampler) {
		r.logger = logger
	}
}

// NewDirectResampler creates a resampler from coordinates under
// sourceTrans to coordinates under destTrans.
func NewDirectResampler(sourceTrans, destTrans EarthTransform, options ...DirectResamplerOption) *DirectResampler {
	r := &DirectResampler{
		resamplerBase: newResamplerBase(sourceTrans, destTrans),
	}
	for _, option := range options {
		option(r)
	}
	return r
}

// Perform transfers values from each source grid to its destination
// grid. Destination pixels with no valid source coordinate are set to
// NaN.
func (r *DirectResampler) Perform(ctx context.Context) error {
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

	for i := range destDims[Rows] {
		if err := ctx.Err(); err != nil {
			return err
		}
		for j := range destDims[Cols] {
			destLoc := Loc2(float64(i), float64(j))
			earthLoc := r.destTrans.Transform(destLoc)

			sourceValid := false
			var sourceRow, sourceCol int
			if earthLoc.Valid() {
				sourceLoc := r.sourceTrans.Inverse(earthLoc)
				if sourceLoc.Valid() && sourceLoc.ContainedIn(sourceDims) {
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
