package regrid

import (
	"fmt"
	"math"
)

// A MemoryGrid is a dense in-memory grid of float64 values with an
// optional navigation correction. Values outside the grid bounds read
// as NaN; writes outside the bounds are dropped.
type MemoryGrid struct {
	dims   [2]int
	values []float64
	nav    *Affine
}

// A MemoryGridOption sets an option on a MemoryGrid.
type MemoryGridOption func(*MemoryGrid)

// WithNavigation sets the grid's navigation correction.
func WithNavigation(nav *Affine) MemoryGridOption {
	return func(g *MemoryGrid) {
		g.nav = nav
	}
}

// WithValues sets the grid's backing values in row-major order. The
// slice is used directly, not copied.
func WithValues(values []float64) MemoryGridOption {
	return func(g *MemoryGrid) {
		g.values = values
	}
}

// NewMemoryGrid creates a grid of the given dimensions. Unless
// WithValues is given, all values start at zero.
func NewMemoryGrid(rows, cols int, options ...MemoryGridOption) *MemoryGrid {
	g := &MemoryGrid{
		dims: [2]int{rows, cols},
	}
	for _, option := range options {
		option(g)
	}
	if g.values == nil {
		g.values = make([]float64, rows*cols)
	} else if len(g.values) != rows*cols {
		panic(fmt.Sprintf("regrid: %d values for %dx%d grid", len(g.values), rows, cols))
	}
	return g
}

// Dimensions returns the grid dimensions as [rows, cols].
func (g *MemoryGrid) Dimensions() []int { return g.dims[:] }

// Navigation returns the grid's navigation correction, or nil for
// none.
func (g *MemoryGrid) Navigation() *Affine { return g.nav }

// Value returns the value at (row, col), or NaN if the coordinate is
// outside the grid.
func (g *MemoryGrid) Value(row, col int) float64 {
	if row < 0 || row >= g.dims[Rows] || col < 0 || col >= g.dims[Cols] {
		return math.NaN()
	}
	return g.values[row*g.dims[Cols]+col]
}

// SetValue sets the value at (row, col). Coordinates outside the grid
// are ignored.
func (g *MemoryGrid) SetValue(row, col int, value float64) {
	if row < 0 || row >= g.dims[Rows] || col < 0 || col >= g.dims[Cols] {
		return
	}
	g.values[row*g.dims[Cols]+col] = value
}

// Values returns the grid's backing values in row-major order.
func (g *MemoryGrid) Values() []float64 { return g.values }
