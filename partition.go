package regrid

import (
	"errors"
	"fmt"
	"math"
)

// ErrDegeneratePartition is returned when partitioning would split a
// box below one pixel along an axis. The tree cannot be built; the
// caller must supply a larger size bound or a different transform.
var ErrDegeneratePartition = errors.New("regrid: degenerate partition")

// ErrPartitionSize is returned when a box's physical size cannot be
// determined because no location in it has a valid earth location.
var ErrPartitionSize = errors.New("regrid: cannot determine partition size")

// rootSampleSpan is the pixel span above which the root partition's
// size is measured with a coarser multi-point sampling, to approximate
// wraparound and polar distortion in earth-wrapping swaths.
const rootSampleSpan = 10

// A Partition recursively bisects a rectangular coordinate region until
// no leaf's physical extent, measured through a reference transform,
// exceeds a size bound. Each leaf carries a payload of type T. The tree
// structure is immutable after construction; only leaf payloads and
// caller-owned lookup caches are mutable.
//
// Axis selection is greedy and axis-major: axis 0 is split until it
// satisfies the bound before axis 1 is ever considered at descendant
// nodes. This produces possibly unbalanced trees; it is the documented
// contract, relied on for approximation-quality characteristics, not a
// defect to optimize away.
type Partition[T any] struct {
	nodes []partitionNode[T]
}

// Nodes are stored in preorder, so a node's slice index is also its
// preorder rank, which the structural encoding relies on.
type partitionNode[T any] struct {
	min, max    DataLocation
	left, right int32 // -1 for a leaf
	data        T
}

func (n *partitionNode[T]) isLeaf() bool { return n.left < 0 }

// A PartitionCache holds the most recently found leaf for one caller.
// Resampling access patterns are spatially local, so rechecking the
// last leaf before descending avoids most tree walks. The zero value is
// ready to use. A cache must not be shared between goroutines.
type PartitionCache struct {
	leaf int32
}

// NewPartition builds a partitioning of the box [min, max] such that no
// leaf's physical size along any axis, measured via trans, exceeds
// maxSize kilometers.
func NewPartition[T any](trans EarthTransform, min, max DataLocation, maxSize float64) (*Partition[T], error) {
	if len(min) != len(max) {
		return nil, fmt.Errorf("regrid: mismatched bound ranks %d, %d", len(min), len(max))
	}
	p := &Partition[T]{}
	if _, err := p.build(trans, min, max, maxSize, true); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *Partition[T]) build(trans EarthTransform, min, max DataLocation, maxSize float64, isRoot bool) (int32, error) {
	id := int32(len(p.nodes))
	p.nodes = append(p.nodes, partitionNode[T]{
		min:  min.Clone(),
		max:  max.Clone(),
		left: -1, right: -1,
	})

	for axis := range min {
		if math.Abs(min[axis]-max[axis]) < 1 {
			return 0, fmt.Errorf("%w between %v and %v", ErrDegeneratePartition, min, max)
		}

		size, err := partitionSize(trans, min, max, axis, isRoot)
		if err != nil {
			return 0, err
		}
		if size <= maxSize {
			continue
		}

		center := (min[axis] + max[axis]) / 2
		leftMax := max.Clone()
		leftMax[axis] = center
		left, err := p.build(trans, min, leftMax, maxSize, false)
		if err != nil {
			return 0, err
		}
		rightMin := min.Clone()
		rightMin[axis] = center
		right, err := p.build(trans, rightMin, max, maxSize, false)
		if err != nil {
			return 0, err
		}
		p.nodes[id].left = left
		p.nodes[id].right = right
		break
	}
	return id, nil
}

// partitionSize measures the physical size of the box along one axis in
// kilometers. The root of a wide box is sampled at five points so that
// a swath wrapping the earth is not measured as the short way around.
// If the edge distance cannot be computed, an endpoint's per-pixel
// resolution times the pixel span serves as a size proxy.
func partitionSize(trans EarthTransform, min, max DataLocation, axis int, isRoot bool) (float64, error) {
	dataSize := max[axis] - min[axis]

	var size float64
	if isRoot && dataSize > rootSampleSpan {
		points := make([]DataLocation, 5)
		points[0] = min
		for i := 1; i <= 3; i++ {
			points[i] = min.Clone()
			points[i][axis] = min[axis] + dataSize*0.25*float64(i)
		}
		points[4] = max
		for i := range 4 {
			size += Distance(trans, points[i], points[i+1])
		}
	} else {
		axisMax := min.Clone()
		axisMax[axis] = max[axis]
		size = Distance(trans, min, axisMax)
	}
	if !math.IsNaN(size) {
		return size, nil
	}

	minValid := trans.Transform(min).Valid()
	maxValid := trans.Transform(max).Valid()
	if minValid || maxValid {
		loc := min
		if !minValid {
			loc = max
		}
		res := Resolution(trans, loc)
		if size := res[axis] * dataSize; !math.IsNaN(size) {
			return size, nil
		}
	}

	return 0, fmt.Errorf("%w between %v and %v", ErrPartitionSize, min, max)
}

// Len returns the total number of nodes in the tree.
func (p *Partition[T]) Len() int { return len(p.nodes) }

// Rank returns the coordinate rank of the partitioned box.
func (p *Partition[T]) Rank() int { return len(p.nodes[0].min) }

// Leaves returns the ids of all leaf nodes in preorder.
func (p *Partition[T]) Leaves() []int32 {
	var leaves []int32
	for i := range p.nodes {
		if p.nodes[i].isLeaf() {
			leaves = append(leaves, int32(i))
		}
	}
	return leaves
}

// Min returns a copy of the minimum bound of the node id.
func (p *Partition[T]) Min(id int32) DataLocation { return p.nodes[id].min.Clone() }

// Max returns a copy of the maximum bound of the node id.
func (p *Partition[T]) Max(id int32) DataLocation { return p.nodes[id].max.Clone() }

// Data returns the payload of the node id.
func (p *Partition[T]) Data(id int32) T { return p.nodes[id].data }

// SetData sets the payload of the node id.
func (p *Partition[T]) SetData(id int32, data T) { p.nodes[id].data = data }

// Contains reports whether the root box contains loc.
func (p *Partition[T]) Contains(loc DataLocation) bool {
	root := &p.nodes[0]
	return loc.Contained(root.min, root.max)
}

// Find returns the id of the leaf containing loc. It reports false if
// loc is outside the root box. The cache, if non-nil, is checked first
// and updated with the found leaf.
func (p *Partition[T]) Find(loc DataLocation, cache *PartitionCache) (int32, bool) {
	if cache != nil && int(cache.leaf) < len(p.nodes) {
		if n := &p.nodes[cache.leaf]; n.isLeaf() && loc.Contained(n.min, n.max) {
			partitionCacheHits.Inc()
			return cache.leaf, true
		}
	}
	partitionCacheMisses.Inc()

	if !p.Contains(loc) {
		return -1, false
	}
	id := int32(0)
	for {
		n := &p.nodes[id]
		if n.isLeaf() {
			break
		}
		if left := &p.nodes[n.left]; loc.Contained(left.min, left.max) {
			id = n.left
		} else {
			id = n.right
		}
	}
	if cache != nil {
		cache.leaf = id
	}
	return id, true
}
