package regrid

import (
	"encoding/gob"
	"errors"
	"fmt"
	"io"
	"slices"

	"github.com/golang/snappy"
)

// ErrEncodingVersion is returned when a decoded record carries an
// unsupported version number.
var ErrEncodingVersion = errors.New("regrid: unsupported encoding version")

// ErrBadEncoding is returned when a decoded record is structurally
// inconsistent.
var ErrBadEncoding = errors.New("regrid: malformed encoding")

const (
	partitionEncodingVersion         = 1
	locationEstimatorEncodingVersion = 1
	variableEstimatorEncodingVersion = 1
)

// A PartitionEncoding is the persistent form of a partition tree's
// structure and bounds, independent of leaf payloads and of the
// transform the tree was built with.
type PartitionEncoding struct {
	Version int
	Rank    int
	Nodes   int

	// Structure holds the preorder leaf flags: Structure[i] is true
	// if the node with preorder rank i is a leaf. The flag of the
	// final node is implied and not stored.
	Structure []bool

	// Bounds holds each node's min and max corner in preorder,
	// 2*Rank values per node.
	Bounds []float64
}

// Encoding returns this tree's persistent form. Leaf payloads are not
// included; estimator types save them alongside.
func (p *Partition[T]) Encoding() *PartitionEncoding {
	rank := p.Rank()
	enc := &PartitionEncoding{
		Version: partitionEncodingVersion,
		Rank:    rank,
		Nodes:   len(p.nodes),
		Bounds:  make([]float64, 0, len(p.nodes)*2*rank),
	}
	if len(p.nodes) > 1 {
		enc.Structure = make([]bool, len(p.nodes)-1)
	}
	for i := range p.nodes {
		n := &p.nodes[i]
		enc.Bounds = append(enc.Bounds, n.min...)
		enc.Bounds = append(enc.Bounds, n.max...)
		if i < len(enc.Structure) {
			enc.Structure[i] = n.isLeaf()
		}
	}
	return enc
}

// NewPartitionFromEncoding rebuilds a partition tree from its
// persistent form. All leaf payloads are zero values.
func NewPartitionFromEncoding[T any](enc *PartitionEncoding) (*Partition[T], error) {
	if enc.Version != partitionEncodingVersion {
		return nil, fmt.Errorf("%w: partition version %d", ErrEncodingVersion, enc.Version)
	}
	if enc.Rank < 1 || enc.Nodes < 1 || len(enc.Bounds) != enc.Nodes*2*enc.Rank {
		return nil, fmt.Errorf("%w: partition bounds", ErrBadEncoding)
	}

	p := &Partition[T]{nodes: make([]partitionNode[T], enc.Nodes)}
	pos := 0
	var build func() (int32, error)
	build = func() (int32, error) {
		if pos >= enc.Nodes {
			return 0, fmt.Errorf("%w: truncated partition structure", ErrBadEncoding)
		}
		id := int32(pos)
		pos++

		bounds := enc.Bounds[int(id)*2*enc.Rank:]
		n := &p.nodes[id]
		n.min = DataLocation(slices.Clone(bounds[:enc.Rank]))
		n.max = DataLocation(slices.Clone(bounds[enc.Rank : 2*enc.Rank]))
		n.left, n.right = -1, -1

		if int(id) >= len(enc.Structure) || enc.Structure[id] {
			return id, nil
		}
		left, err := build()
		if err != nil {
			return 0, err
		}
		right, err := build()
		if err != nil {
			return 0, err
		}
		n.left, n.right = left, right
		return id, nil
	}
	if _, err := build(); err != nil {
		return nil, err
	}
	if pos != enc.Nodes {
		return nil, fmt.Errorf("%w: partition structure covers %d of %d nodes", ErrBadEncoding, pos, enc.Nodes)
	}
	return p, nil
}

// An EstimatorLeafEncoding holds one location estimator leaf's fitted
// coefficients. Row and Col are nil for a leaf with no fit.
type EstimatorLeafEncoding struct {
	Row      []float64
	Col      []float64
	Coverage bool
}

// A LocationEstimatorEncoding is the persistent form of a
// LocationEstimator. It rebuilds the estimator's polynomial fast path
// without refitting, though queries through a decoded estimator still
// need the original transforms for the exact fallback.
type LocationEstimatorEncoding struct {
	Version   int
	Partition *PartitionEncoding
	Leaves    []EstimatorLeafEncoding
}

// Encoding returns this estimator's persistent form.
func (e *LocationEstimator) Encoding() *LocationEstimatorEncoding {
	leaves := e.tree.Leaves()
	enc := &LocationEstimatorEncoding{
		Version:   locationEstimatorEncodingVersion,
		Partition: e.tree.Encoding(),
		Leaves:    make([]EstimatorLeafEncoding, len(leaves)),
	}
	for i, id := range leaves {
		leaf := e.tree.Data(id)
		enc.Leaves[i].Coverage = leaf.coverage
		if leaf.valid {
			enc.Leaves[i].Row = leaf.row.Coefficients()
			enc.Leaves[i].Col = leaf.col.Coefficients()
		}
	}
	return enc
}

// NewLocationEstimatorFromEncoding rebuilds a LocationEstimator from
// its persistent form. The transforms and options must match the ones
// the estimator was built with.
func NewLocationEstimatorFromEncoding(enc *LocationEstimatorEncoding, refTrans, targetTrans EarthTransform, options ...LocationEstimatorOption) (*LocationEstimator, error) {
	if enc.Version != locationEstimatorEncodingVersion {
		return nil, fmt.Errorf("%w: location estimator version %d", ErrEncodingVersion, enc.Version)
	}
	tree, err := NewPartitionFromEncoding[estimatorLeaf](enc.Partition)
	if err != nil {
		return nil, err
	}
	leaves := tree.Leaves()
	if len(leaves) != len(enc.Leaves) {
		return nil, fmt.Errorf("%w: %d leaf records for %d leaves", ErrBadEncoding, len(enc.Leaves), len(leaves))
	}

	e := &LocationEstimator{
		refTrans:    refTrans,
		targetTrans: targetTrans,
		refDims:     refTrans.Dimensions(),
		tree:        tree,
	}
	for _, option := range options {
		option(e)
	}

	for i, id := range leaves {
		record := enc.Leaves[i]
		leaf := estimatorLeaf{coverage: record.Coverage}
		if record.Row != nil && record.Col != nil {
			row, err := NewBivariateEstimatorFromCoefficients(record.Row)
			if err != nil {
				return nil, fmt.Errorf("%w: leaf %d row coefficients: %v", ErrBadEncoding, i, err)
			}
			col, err := NewBivariateEstimatorFromCoefficients(record.Col)
			if err != nil {
				return nil, fmt.Errorf("%w: leaf %d col coefficients: %v", ErrBadEncoding, i, err)
			}
			leaf.row, leaf.col = row, col
			leaf.valid = true
		}
		tree.SetData(id, leaf)
	}
	return e, nil
}

// A VariableEstimatorEncoding is the persistent form of a
// VariableEstimator. A decoded estimator answers value queries
// without the original variable data or transform.
type VariableEstimatorEncoding struct {
	Version   int
	Partition *PartitionEncoding

	// Coefficients holds one record per leaf in preorder: nil for a
	// leaf with no polynomial, 3 values for a univariate fit, 9 for a
	// bivariate fit.
	Coefficients [][]float64
}

// Encoding returns this estimator's persistent form. Only this
// estimator's own variable is encoded, not others sharing its tree.
func (e *VariableEstimator) Encoding() *VariableEstimatorEncoding {
	enc := &VariableEstimatorEncoding{
		Version:      variableEstimatorEncodingVersion,
		Partition:    e.tree.Encoding(),
		Coefficients: make([][]float64, len(e.leaves)),
	}
	for i, id := range e.leaves {
		if f := e.tree.Data(id)[e.index]; f != nil {
			enc.Coefficients[i] = f.Coefficients()
		}
	}
	return enc
}

// NewVariableEstimatorFromEncoding rebuilds a VariableEstimator from
// its persistent form.
func NewVariableEstimatorFromEncoding(enc *VariableEstimatorEncoding) (*VariableEstimator, error) {
	if enc.Version != variableEstimatorEncodingVersion {
		return nil, fmt.Errorf("%w: variable estimator version %d", ErrEncodingVersion, enc.Version)
	}
	tree, err := NewPartitionFromEncoding[[]Function](enc.Partition)
	if err != nil {
		return nil, err
	}
	leaves := tree.Leaves()
	if len(leaves) != len(enc.Coefficients) {
		return nil, fmt.Errorf("%w: %d coefficient records for %d leaves", ErrBadEncoding, len(enc.Coefficients), len(leaves))
	}

	for i, id := range leaves {
		var f Function
		switch coeffs := enc.Coefficients[i]; len(coeffs) {
		case 0:
		case 3:
			f, err = NewUnivariateEstimatorFromCoefficients(coeffs)
		case 9:
			f, err = NewBivariateEstimatorFromCoefficients(coeffs)
		default:
			err = fmt.Errorf("unexpected coefficient count %d", len(coeffs))
		}
		if err != nil {
			return nil, fmt.Errorf("%w: leaf %d: %v", ErrBadEncoding, i, err)
		}
		tree.SetData(id, []Function{f})
	}

	return &VariableEstimator{
		tree:   tree,
		leaves: leaves,
		rank:   enc.Partition.Rank,
	}, nil
}

// WriteEncoding writes an encoding record to w as a snappy-compressed
// gob stream.
func WriteEncoding(w io.Writer, enc any) error {
	sw := snappy.NewBufferedWriter(w)
	if err := gob.NewEncoder(sw).Encode(enc); err != nil {
		return err
	}
	return sw.Close()
}

// ReadEncoding reads an encoding record written by WriteEncoding.
func ReadEncoding[E any](r io.Reader) (*E, error) {
	var enc E
	if err := gob.NewDecoder(snappy.NewReader(r)).Decode(&enc); err != nil {
		return nil, err
	}
	return &enc, nil
}
