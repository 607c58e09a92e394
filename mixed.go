package regrid

import (
	"context"
	"log/slog"
	"math"
	"slices"
)

// An OverwriteMode decides what happens when more than one source
// pixel maps to the same destination pixel during mixed resampling.
type OverwriteMode int

const (
	// OverwriteAlways overwrites the destination value with each new
	// value. This is the default.
	OverwriteAlways OverwriteMode = iota

	// OverwriteNever keeps the first value written.
	OverwriteNever

	// OverwriteIfCloser overwrites only if the new source pixel is
	// closer to the destination pixel than the previous one, measured
	// by the rounding residual of the estimated source coordinate.
	OverwriteIfCloser
)

// A MixedResampler resamples using a mix of forward and inverse
// methods. The source grid is divided into rectangles; for each
// rectangle a polynomial pair mapping destination coordinates back to
// source coordinates is fitted from nine sample points, the
// rectangle's footprint in the destination grid is computed, and every
// destination pixel in the footprint pulls its value from the
// estimated source pixel. Rectangles that straddle a transform
// discontinuity, or whose sample points repeat so that no polynomial
// fit exists, are skipped; single-pixel gaps left behind are closed by
// a median fill, and larger unassigned regions are marked missing.
type MixedResampler struct {
	resamplerBase
	rectWidth  int
	rectHeight int
	mode       OverwriteMode
	filter     LocationFilter
}

// A MixedResamplerOption sets an option on a MixedResampler.
type MixedResamplerOption func(*MixedResampler)

// WithMixedLogger sets the logger used for progress reporting.
func WithMixedLogger(logger *slog.Logger) MixedResamplerOption {
	return func(r *MixedResampler) {
		r.logger = logger
	}
}

// WithOverwriteMode sets the overwrite mode for destination pixels
// written more than once.
func WithOverwriteMode(mode OverwriteMode) MixedResamplerOption {
	return func(r *MixedResampler) {
		r.mode = mode
	}
}

// WithSourceFilter restricts resampling to source locations accepted
// by filter. By default all source locations that map to a
// destination pixel are used.
func WithSourceFilter(filter LocationFilter) MixedResamplerOption {
	return func(r *MixedResampler) {
		r.filter = filter
	}
}

// NewMixedResampler creates a resampler from coordinates under
// sourceTrans to coordinates under destTrans, fitting one polynomial
// pair per source rectangle of rectHeight by rectWidth pixels.
func NewMixedResampler(sourceTrans, destTrans EarthTransform, rectWidth, rectHeight int, options ...MixedResamplerOption) *MixedResampler {
	r := &MixedResampler{
		resamplerBase: newResamplerBase(sourceTrans, destTrans),
		rectWidth:     rectWidth,
		rectHeight:    rectHeight,
	}
	for _, option := range options {
		option(r)
	}
	return r
}

// crossProductSign computes the sign of the z component of the cross
// product p1p2 x p1p3 of points indexed into x and y, as 0 for
// negative and 1 for positive.
func crossProductSign(x, y []float64, p1, p2, p3 int) int {
	v1x := x[p2] - x[p1]
	v1y := y[p2] - y[p1]
	v2x := x[p3] - x[p1]
	v2y := y[p3] - y[p1]
	if v1x*v2y-v1y*v2x < 0 {
		return 0
	}
	return 1
}

// Perform transfers values from each source grid to its destination
// grid.
func (r *MixedResampler) Perform(ctx context.Context) error {
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

	// Track which destination pixels have been assigned, and for the
	// closer-overwrite mode, the rounding residual of the assignment.
	target := make([]bool, destDims[Rows]*destDims[Cols])
	var roundDist []float32
	if r.mode == OverwriteIfCloser {
		roundDist = make([]float32, len(target))
	}

	sourceRows := make([]float64, 9)
	sourceCols := make([]float64, 9)
	destRows := make([]float64, 9)
	destCols := make([]float64, 9)
	edgeRows := make([]float64, 9)
	edgeCols := make([]float64, 9)

	for i := 0; i < sourceDims[Rows]; i += r.rectHeight {
		if err := ctx.Err(); err != nil {
			return err
		}
		for j := 0; j < sourceDims[Cols]; j += r.rectWidth {
			if !r.resampleRect(i, j, sourceDims, destDims, target, roundDist,
				sourceRows, sourceCols, destRows, destCols, edgeRows, edgeCols) {
				rectanglesSkipped.Inc()
			}
		}
	}

	r.logger.Info("interpolating single pixel gaps")
	r.closeGaps(destDims, target)
	return nil
}

// resampleRect processes one source rectangle with top-left pixel
// (i, j). It reports false if the rectangle was skipped: a sample had
// no valid location, the mapped samples change orientation, or a fit
// failed. The scratch slices are reused across rectangles.
func (r *MixedResampler) resampleRect(i, j int, sourceDims, destDims []int, target []bool, roundDist []float32,
	sourceRows, sourceCols, destRows, destCols, edgeRows, edgeCols []float64) bool {

	// Sample the rectangle at pixel centers in a 3x3 pattern from
	// top-left to bottom-right:
	//
	//   0-----1-----2
	//   |     |     |
	//   3-----4-----5
	//   |     |     |
	//   6-----7-----8
	rowMin := i
	rowMax := min(i+r.rectHeight-1, sourceDims[Rows]-1)
	colMin := j
	colMax := min(j+r.rectWidth-1, sourceDims[Cols]-1)
	rowMid := (rowMin + rowMax) / 2
	colMid := (colMin + colMax) / 2

	for k := range 9 {
		sourceRows[k] = float64([3]int{rowMin, rowMid, rowMax}[k/3])
		sourceCols[k] = float64([3]int{colMin, colMid, colMax}[k%3])
	}

	for k := range 9 {
		earthLoc := r.sourceTrans.Transform(Loc2(sourceRows[k], sourceCols[k]))
		if earthLoc.Invalid() {
			return false
		}
		destLoc := r.destTrans.Inverse(earthLoc)
		if destLoc.Invalid() {
			return false
		}
		destRows[k] = destLoc[Rows]
		destCols[k] = destLoc[Cols]
	}

	// The z components of cross products over the mapped sample
	// points must all point the same way, otherwise the rectangle
	// straddles a discontinuity in the destination coordinate system
	// and cannot be fitted by a polynomial.
	sum := crossProductSign(destRows, destCols, 0, 1, 3) +
		crossProductSign(destRows, destCols, 1, 2, 4) +
		crossProductSign(destRows, destCols, 3, 4, 6) +
		crossProductSign(destRows, destCols, 4, 5, 7) +
		crossProductSign(destRows, destCols, 8, 7, 5)
	if sum != 0 && sum != 5 {
		return false
	}

	// Fit destination-to-source polynomials for the value transfer.
	// A singular fit means the sample points repeat, usually because
	// the rectangle is clipped too small at the grid edge; the
	// rectangle is skipped in that case.
	sourceRowEst, err := NewBivariateEstimator(destRows, destCols, sourceRows, 2)
	if err != nil {
		return false
	}
	sourceColEst, err := NewBivariateEstimator(destRows, destCols, sourceCols, 2)
	if err != nil {
		return false
	}

	// Fit source-to-destination polynomials as well, to compute the
	// full footprint of the rectangle in the destination grid out to
	// the corners of the edge pixels.
	destRowEst, err := NewBivariateEstimator(sourceRows, sourceCols, destRows, 2)
	if err != nil {
		return false
	}
	destColEst, err := NewBivariateEstimator(sourceRows, sourceCols, destCols, 2)
	if err != nil {
		return false
	}

	for k := range 9 {
		edgeRows[k] = float64([3]int{rowMin, rowMid, rowMax}[k/3])
		edgeCols[k] = float64([3]int{colMin, colMid, colMax}[k%3])
	}
	for k := range 3 {
		edgeRows[k] = float64(rowMin) - 0.5
		edgeRows[6+k] = float64(rowMax) + 0.5
		edgeCols[3*k] = float64(colMin) - 0.5
		edgeCols[3*k+2] = float64(colMax) + 0.5
	}

	destRowMin, destColMin := math.MaxInt32, math.MaxInt32
	destRowMax, destColMax := math.MinInt32, math.MinInt32
	for k := range 9 {
		coords := []float64{edgeRows[k], edgeCols[k]}
		destRow := destRowEst.Evaluate(coords)
		destCol := destColEst.Evaluate(coords)
		if destRow < float64(destRowMin) {
			destRowMin = int(math.Floor(destRow))
		}
		if destCol < float64(destColMin) {
			destColMin = int(math.Floor(destCol))
		}
		if destRow > float64(destRowMax) {
			destRowMax = int(math.Ceil(destRow))
		}
		if destCol > float64(destColMax) {
			destColMax = int(math.Ceil(destCol))
		}
	}
	destRowMin--
	destColMin--
	destRowMax++
	destColMax++

	// Intersect the footprint with the destination grid; it may fall
	// partly or wholly outside.
	if destRowMin > destDims[Rows]-1 || destRowMax < 0 ||
		destColMin > destDims[Cols]-1 || destColMax < 0 {
		return true
	}
	interRowMin := max(destRowMin, 0)
	interColMin := max(destColMin, 0)
	interRowMax := min(destRowMax, destDims[Rows]-1)
	interColMax := min(destColMax, destDims[Cols]-1)

	grids := len(r.sources)
	for destRow := interRowMin; destRow <= interRowMax; destRow++ {
		for destCol := interColMin; destCol <= interColMax; destCol++ {
			destIndex := destRow*destDims[Cols] + destCol
			if target[destIndex] && r.mode == OverwriteNever {
				continue
			}

			coords := []float64{float64(destRow), float64(destCol)}
			fSourceRow := sourceRowEst.Evaluate(coords)
			sourceRow := int(math.Round(fSourceRow))
			if sourceRow < rowMin || sourceRow > rowMax {
				continue
			}
			fSourceCol := sourceColEst.Evaluate(coords)
			sourceCol := int(math.Round(fSourceCol))
			if sourceCol < colMin || sourceCol > colMax {
				continue
			}

			if r.filter != nil && !r.filter.UseLocation(Loc2(float64(sourceRow), float64(sourceCol))) {
				continue
			}

			if r.mode == OverwriteIfCloser {
				deltaRow := float32(fSourceRow - float64(sourceRow))
				deltaCol := float32(fSourceCol - float64(sourceCol))
				d := deltaRow*deltaRow + deltaCol*deltaCol
				if target[destIndex] && d >= roundDist[destIndex] {
					continue
				}
				roundDist[destIndex] = d
			}

			for k := range grids {
				r.dests[k].SetValue(destRow, destCol, r.sources[k].Value(sourceRow, sourceCol))
			}
			target[destIndex] = true
			pixelsResampled.Inc()
		}
	}
	return true
}

// closeGaps fills unassigned destination pixels that are completely
// surrounded by assigned pixels with the median of their neighbors.
// These single-pixel gaps arise from rounding at the seams between
// adjacent rectangle footprints. Neighbors outside the grid count as
// assigned, so a corner pixel with all in-grid neighbors assigned is
// also filled. Unassigned pixels that are not single-pixel gaps are
// set to NaN so that no destination pixel is left at its initial
// value.
func (r *MixedResampler) closeGaps(destDims []int, target []bool) {
	assigned := func(row, col int) bool {
		if row < 0 || row >= destDims[Rows] || col < 0 || col >= destDims[Cols] {
			return true
		}
		return target[row*destDims[Cols]+col]
	}

	neighbors := make([]float64, 0, 8)
	for i := range destDims[Rows] {
		for j := range destDims[Cols] {
			if target[i*destDims[Cols]+j] {
				continue
			}

			singlePixel := true
			for iOff := -1; iOff <= 1 && singlePixel; iOff++ {
				for jOff := -1; jOff <= 1; jOff++ {
					if iOff == 0 && jOff == 0 {
						continue
					}
					if !assigned(i+iOff, j+jOff) {
						singlePixel = false
						break
					}
				}
			}
			if !singlePixel {
				for k := range r.dests {
					r.dests[k].SetValue(i, j, math.NaN())
				}
				continue
			}

			for k := range r.dests {
				neighbors = neighbors[:0]
				for iOff := -1; iOff <= 1; iOff++ {
					for jOff := -1; jOff <= 1; jOff++ {
						if iOff == 0 && jOff == 0 {
							continue
						}
						row, col := i+iOff, j+jOff
						if row < 0 || row >= destDims[Rows] || col < 0 || col >= destDims[Cols] {
							continue
						}
						if value := r.dests[k].Value(row, col); !math.IsNaN(value) {
							neighbors = append(neighbors, value)
						}
					}
				}
				median := math.NaN()
				if len(neighbors) > 0 {
					slices.Sort(neighbors)
					median = neighbors[len(neighbors)/2]
				}
				r.dests[k].SetValue(i, j, median)
			}
		}
	}
}
