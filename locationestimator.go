package regrid

import (
	"fmt"
)

// A QueryMode selects how a LocationEstimator answers queries in leaves
// where no polynomial fit was possible.
type QueryMode int

const (
	// QueryAccurate computes locations exactly through the transforms
	// in unfit leaves that still have some earth location coverage.
	QueryAccurate QueryMode = iota

	// QueryFast returns an invalid location from unfit leaves rather
	// than falling back to exact computation.
	QueryFast
)

const (
	// Sampling intervals per leaf axis double from minSampleIntervals
	// up to maxSampleIntervals until enough valid correspondences are
	// found for a quadratic fit.
	minSampleIntervals = 2
	maxSampleIntervals = 8

	// A bivariate quadratic has nine coefficients, so a fit needs at
	// least nine correspondences.
	minFitTargets = 9

	// With fewer than this many targets at the coarsest sampling, the
	// leaf is assumed to be mostly outside the target coordinate
	// system and denser sampling is not attempted.
	minCoarseTargets = 6
)

type estimatorLeaf struct {
	row, col *BivariateEstimator

	// valid means the polynomial fit succeeded; coverage means at
	// least one sampled location mapped into the target system.
	valid    bool
	coverage bool
}

// A LocationEstimator approximates the mapping from coordinates in a
// reference coordinate system to coordinates in a target coordinate
// system. The reference region is partitioned until each leaf spans at
// most a bounded physical size, and a quadratic polynomial pair is
// fitted per leaf from sampled transform correspondences. Queries then
// cost two polynomial evaluations instead of a forward and an inverse
// earth transform.
//
// A LocationEstimator is safe for concurrent queries as long as each
// goroutine uses its own PartitionCache.
type LocationEstimator struct {
	refTrans    EarthTransform
	targetTrans EarthTransform
	refDims     []int
	targetNav   *Affine
	mode        QueryMode
	tree        *Partition[estimatorLeaf]
}

// A LocationEstimatorOption sets an option on a LocationEstimator.
type LocationEstimatorOption func(*LocationEstimator)

// WithQueryMode sets the query mode. The default is QueryAccurate.
func WithQueryMode(mode QueryMode) LocationEstimatorOption {
	return func(e *LocationEstimator) {
		e.mode = mode
	}
}

// WithReferenceDimensions overrides the reference coordinate system
// dimensions, which default to those reported by the reference
// transform. Resampling uses this to estimate over a grid smaller than
// the transform's full extent.
func WithReferenceDimensions(dims []int) LocationEstimatorOption {
	return func(e *LocationEstimator) {
		e.refDims = dims
	}
}

// WithTargetNavigation applies an affine correction to every estimated
// target coordinate.
func WithTargetNavigation(nav *Affine) LocationEstimatorOption {
	return func(e *LocationEstimator) {
		e.targetNav = nav
	}
}

// NewLocationEstimator creates a LocationEstimator from reference
// coordinates under refTrans to target coordinates under targetTrans,
// with polynomial patches of at most maxSize kilometers per side.
func NewLocationEstimator(refTrans, targetTrans EarthTransform, maxSize float64, options ...LocationEstimatorOption) (*LocationEstimator, error) {
	e := &LocationEstimator{
		refTrans:    refTrans,
		targetTrans: targetTrans,
		refDims:     refTrans.Dimensions(),
	}
	for _, option := range options {
		option(e)
	}
	if len(e.refDims) != 2 {
		return nil, fmt.Errorf("regrid: location estimation requires a 2D reference, got rank %d", len(e.refDims))
	}

	min := Loc2(0, 0)
	max := Loc2(float64(e.refDims[Rows]), float64(e.refDims[Cols]))
	tree, err := NewPartition[estimatorLeaf](refTrans, min, max, maxSize)
	if err != nil {
		return nil, err
	}
	e.tree = tree

	for _, leaf := range tree.Leaves() {
		tree.SetData(leaf, e.fitLeaf(tree.Min(leaf), tree.Max(leaf)))
	}
	return e, nil
}

// fitLeaf samples transform correspondences over the leaf box and fits
// the row and column quadratics. Sampling density doubles until enough
// valid correspondences exist, except that a nearly empty leaf at the
// coarsest density is abandoned immediately.
func (e *LocationEstimator) fitLeaf(min, max DataLocation) estimatorLeaf {
	var refRows, refCols, targetRows, targetCols []float64

	for intervals := minSampleIntervals; intervals <= maxSampleIntervals; intervals *= 2 {
		refRows = refRows[:0]
		refCols = refCols[:0]
		targetRows = targetRows[:0]
		targetCols = targetCols[:0]

		steps := intervals + 1
		for i := range steps {
			row := min[Rows] + (max[Rows]-min[Rows])*float64(i)/float64(intervals)
			for j := range steps {
				col := min[Cols] + (max[Cols]-min[Cols])*float64(j)/float64(intervals)
				target := e.exact(Loc2(row, col))
				if target.Invalid() {
					continue
				}
				refRows = append(refRows, row)
				refCols = append(refCols, col)
				targetRows = append(targetRows, target[Rows])
				targetCols = append(targetCols, target[Cols])
			}
		}

		if intervals == minSampleIntervals && len(targetRows) < minCoarseTargets {
			break
		}
		if len(targetRows) >= minFitTargets {
			break
		}
	}

	leaf := estimatorLeaf{coverage: len(targetRows) > 0}
	if len(targetRows) < minFitTargets {
		return leaf
	}

	rowEst, err := NewBivariateEstimator(refRows, refCols, targetRows, 2)
	if err != nil {
		return leaf
	}
	colEst, err := NewBivariateEstimator(refRows, refCols, targetCols, 2)
	if err != nil {
		return leaf
	}
	leaf.row = rowEst
	leaf.col = colEst
	leaf.valid = true
	return leaf
}

// exact maps a reference coordinate to a target coordinate through the
// transforms, with the navigation correction applied.
func (e *LocationEstimator) exact(refLoc DataLocation) DataLocation {
	targetLoc := e.targetTrans.Inverse(e.refTrans.Transform(refLoc))
	if e.targetNav != nil && !e.targetNav.IsIdentity() {
		targetLoc = e.targetNav.Transform(targetLoc)
	}
	return targetLoc
}

// SetQueryMode sets the query mode for subsequent Location calls.
func (e *LocationEstimator) SetQueryMode(mode QueryMode) { e.mode = mode }

// Location estimates the target coordinate corresponding to refLoc.
// The returned location is invalid if refLoc is outside the reference
// region, or if the containing leaf could not be fitted and either the
// mode is QueryFast or the leaf has no target coverage. The cache, if
// non-nil, must be owned by the calling goroutine.
func (e *LocationEstimator) Location(refLoc DataLocation, cache *PartitionCache) DataLocation {
	id, ok := e.tree.Find(refLoc, cache)
	if !ok {
		return InvalidLocation(2)
	}
	leaf := e.tree.Data(id)
	if !leaf.valid {
		if !leaf.coverage || e.mode == QueryFast {
			return InvalidLocation(2)
		}
		estimatorExactQueries.Inc()
		return e.exact(refLoc)
	}
	estimatorPolynomialQueries.Inc()
	vars := []float64(refLoc)
	return Loc2(leaf.row.Evaluate(vars), leaf.col.Evaluate(vars))
}
