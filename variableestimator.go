package regrid

import (
	"fmt"
	"math"
)

// A ValueFilter adjusts the sampled values of one partition leaf
// before the polynomial fit. Longitude variables use this to unwrap
// values that straddle the 180E/180W boundary.
type ValueFilter func(values []float64)

// A VariableEstimator approximates the values of a gridded variable,
// such as swath latitude or longitude data, with one low-order
// polynomial per leaf of a spatial partition. Values are sampled at 3
// points per leaf for rank 1 variables and 9 points for rank 2, so
// queries cost a polynomial evaluation instead of reading the
// variable. A leaf whose samples include a NaN, or whose sample
// points coincide, gets no polynomial and estimates NaN everywhere.
//
// Several variables over the same coordinate system can share one
// partitioning: estimators created with Share reuse the receiver's
// tree and only add their own per-leaf polynomials.
type VariableEstimator struct {
	tree   *Partition[[]Function]
	leaves []int32
	rank   int

	// index selects this estimator's function in the shared per-leaf
	// function lists.
	index int
}

// A VariableEstimatorOption sets an option on a VariableEstimator.
type VariableEstimatorOption func(*variableEstimatorConfig)

type variableEstimatorConfig struct {
	filter ValueFilter
}

// WithValueFilter sets a filter applied to each leaf's sampled values
// before fitting.
func WithValueFilter(filter ValueFilter) VariableEstimatorOption {
	return func(c *variableEstimatorConfig) {
		c.filter = filter
	}
}

// NewVariableEstimator creates an estimator for the variable read
// from src with the given dimensions, partitioned through trans into
// leaves of at most maxSize kilometers per side.
func NewVariableEstimator(src ValueSource, dims []int, trans EarthTransform, maxSize float64, options ...VariableEstimatorOption) (*VariableEstimator, error) {
	rank := len(dims)
	if rank != 1 && rank != 2 {
		return nil, fmt.Errorf("regrid: unsupported variable rank %d", rank)
	}

	min := NewDataLocation(rank)
	max := NewDataLocation(rank)
	for i, dim := range dims {
		max[i] = float64(dim - 1)
	}
	tree, err := NewPartition[[]Function](trans, min, max, maxSize)
	if err != nil {
		return nil, err
	}

	e := &VariableEstimator{
		tree:   tree,
		leaves: tree.Leaves(),
		rank:   rank,
	}
	e.addVariable(src, options...)
	return e, nil
}

// Share creates an estimator for another variable over the same
// coordinate system, reusing this estimator's partitioning. The
// variable must have the same dimensions as the one this estimator
// was built from.
func (e *VariableEstimator) Share(src ValueSource, options ...VariableEstimatorOption) *VariableEstimator {
	shared := &VariableEstimator{
		tree:   e.tree,
		leaves: e.leaves,
		rank:   e.rank,
		index:  len(e.tree.Data(e.leaves[0])),
	}
	shared.addVariable(src, options...)
	return shared
}

func (e *VariableEstimator) addVariable(src ValueSource, options ...VariableEstimatorOption) {
	var config variableEstimatorConfig
	for _, option := range options {
		option(&config)
	}
	for _, leaf := range e.leaves {
		funcs := e.tree.Data(leaf)
		funcs = append(funcs, e.fitLeaf(src, leaf, config.filter))
		e.tree.SetData(leaf, funcs)
	}
}

// fitLeaf fits the leaf's polynomial from rounded sample coordinates,
// or returns nil if the samples coincide or contain missing values.
func (e *VariableEstimator) fitLeaf(src ValueSource, leaf int32, filter ValueFilter) Function {
	min := e.tree.Min(leaf)
	max := e.tree.Max(leaf)

	if e.rank == 1 {
		x := []float64{
			math.Round(min[0]),
			math.Round((min[0] + max[0]) / 2),
			math.Round(max[0]),
		}
		if x[0] == x[1] || x[1] == x[2] {
			return nil
		}
		f := make([]float64, len(x))
		for i := range x {
			f[i] = src.ValueAt(DataLocation{x[i]})
			if math.IsNaN(f[i]) {
				return nil
			}
		}
		if filter != nil {
			filter(f)
		}
		est, err := NewUnivariateEstimator(x, f, 2)
		if err != nil {
			return nil
		}
		return est
	}

	rows := [3]float64{
		math.Round(min[Rows]),
		math.Round((min[Rows] + max[Rows]) / 2),
		math.Round(max[Rows]),
	}
	cols := [3]float64{
		math.Round(min[Cols]),
		math.Round((min[Cols] + max[Cols]) / 2),
		math.Round(max[Cols]),
	}
	if rows[0] == rows[1] || rows[1] == rows[2] {
		return nil
	}
	if cols[0] == cols[1] || cols[1] == cols[2] {
		return nil
	}

	x := make([]float64, 9)
	y := make([]float64, 9)
	f := make([]float64, 9)
	for i := range 9 {
		x[i] = rows[i%3]
		y[i] = cols[i/3]
		f[i] = src.ValueAt(Loc2(x[i], y[i]))
		if math.IsNaN(f[i]) {
			return nil
		}
	}
	if filter != nil {
		filter(f)
	}
	est, err := NewBivariateEstimator(x, y, f, 2)
	if err != nil {
		return nil
	}
	return est
}

// Value estimates the variable value at loc. It returns NaN if loc is
// outside the partitioned region or the containing leaf has no
// polynomial. The cache, if non-nil, must be owned by the calling
// goroutine.
func (e *VariableEstimator) Value(loc DataLocation, cache *PartitionCache) float64 {
	id, ok := e.tree.Find(loc, cache)
	if !ok {
		return math.NaN()
	}
	f := e.tree.Data(id)[e.index]
	if f == nil {
		return math.NaN()
	}
	return f.Evaluate(loc)
}
