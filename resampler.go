package regrid

import (
	"context"
	"log/slog"
)

// A Resampler transfers data values between grids registered to two
// different coordinate systems. Grids are added in source/destination
// pairs; all source grids must share dimensions, as must all
// destination grids. Perform computes the pixel correspondence once
// and applies it to every registered pair.
type Resampler interface {
	AddGrid(source Grid, dest WritableGrid)
	Perform(ctx context.Context) error
}

type resamplerBase struct {
	sourceTrans EarthTransform
	destTrans   EarthTransform
	sources     []Grid
	dests       []WritableGrid
	logger      *slog.Logger
}

func newResamplerBase(sourceTrans, destTrans EarthTransform) resamplerBase {
	return resamplerBase{
		sourceTrans: sourceTrans,
		destTrans:   destTrans,
		logger:      slog.Default(),
	}
}

// AddGrid registers a source grid and the destination grid that
// receives its resampled values.
func (r *resamplerBase) AddGrid(source Grid, dest WritableGrid) {
	r.sources = append(r.sources, source)
	r.dests = append(r.dests, dest)
}

// logProgress logs completion percentage at roughly 10% intervals of
// the outer loop.
func (r *resamplerBase) logProgress(done, total int) {
	step := total / 10
	if step > 0 && done%step == 0 {
		r.logger.Info("resampling progress", "percent", int(float64(done)*100/float64(total)+0.5))
	}
}

// navigationOf returns the navigation correction of a grid, or nil if
// the correction is the identity.
func navigationOf(g Grid) *Affine {
	nav := g.Navigation()
	if nav == nil || nav.IsIdentity() {
		return nil
	}
	return nav
}
