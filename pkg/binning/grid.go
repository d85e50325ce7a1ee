package binning

import (
	"github.com/matzehuels/mtxspy/pkg/errors"
)

// Grid holds the nonzero count of every block of a binned matrix.
//
// A Grid is immutable once built. The sum of all counts equals NNZ: every
// nonzero of the source matrix is counted in exactly one cell.
type Grid struct {
	Layout

	// NNZ is the number of nonzeros that were binned. For symmetric
	// storage this counts both triangles.
	NNZ int64

	counts []int64
}

// At returns the count of cell (r, c).
func (g *Grid) At(r, c int) int64 {
	return g.counts[r*g.Cols+c]
}

// Density returns the local nonzero density of cell (r, c): its count
// divided by the number of matrix entries the cell stands for
// (see [Layout.Area]). Cells with zero area have zero density.
func (g *Grid) Density(r, c int, nominal bool) float64 {
	area := g.Area(r, c, nominal)
	if area == 0 {
		return 0
	}
	return float64(g.At(r, c)) / float64(area)
}

// GlobalDensity returns NNZ / (M·N).
func (g *Grid) GlobalDensity() float64 {
	return float64(g.NNZ) / (float64(g.M) * float64(g.N))
}

// NonEmpty returns the number of cells holding at least one nonzero.
func (g *Grid) NonEmpty() int {
	n := 0
	for _, v := range g.counts {
		if v > 0 {
			n++
		}
	}
	return n
}

// Each calls fn for every non-empty cell in row-major order.
func (g *Grid) Each(fn func(r, c int, count int64)) {
	for i, v := range g.counts {
		if v > 0 {
			fn(i/g.Cols, i%g.Cols, v)
		}
	}
}

// Equal reports whether two grids have the same layout and counts.
func (g *Grid) Equal(o *Grid) bool {
	if g.Layout != o.Layout || g.NNZ != o.NNZ || len(g.counts) != len(o.counts) {
		return false
	}
	for i := range g.counts {
		if g.counts[i] != o.counts[i] {
			return false
		}
	}
	return true
}

// Accumulator builds a Grid from a stream of coordinates or cell counts.
// It is not safe for concurrent use; parallel binning gives every worker its
// own Accumulator and merges them.
type Accumulator struct {
	layout Layout
	counts []int64
	nnz    int64
}

// NewAccumulator returns an empty accumulator for the layout.
func NewAccumulator(l Layout) *Accumulator {
	return &Accumulator{layout: l, counts: make([]int64, l.Cells())}
}

// Add counts the nonzero at 0-based matrix coordinate (row, col).
func (a *Accumulator) Add(row, col int) error {
	r, c, err := a.layout.Locate(row, col)
	if err != nil {
		return err
	}
	a.counts[r*a.layout.Cols+c]++
	a.nnz++
	return nil
}

// AddCell adds count nonzeros to grid cell (r, c) directly. The total of a
// cell may not exceed the number of matrix entries it covers, so cells past
// the matrix edge stay empty.
func (a *Accumulator) AddCell(r, c int, count int64) error {
	if r < 0 || r >= a.layout.Rows || c < 0 || c >= a.layout.Cols {
		return errors.New(errors.ErrCodeMalformedInput,
			"cell (%d, %d) outside grid bounds [0,%d)x[0,%d)", r, c, a.layout.Rows, a.layout.Cols)
	}
	if count < 0 {
		return errors.New(errors.ErrCodeMalformedInput, "cell (%d, %d) has negative count %d", r, c, count)
	}
	i := r*a.layout.Cols + c
	if area := a.layout.Area(r, c, false); count > area-a.counts[i] {
		return errors.New(errors.ErrCodeMalformedInput,
			"cell (%d, %d) holds %d nonzeros but covers only %d entries", r, c, a.counts[i]+count, area)
	}
	a.counts[i] += count
	a.nnz += count
	return nil
}

// Merge adds the counts of b into a. Both must share the same layout.
func (a *Accumulator) Merge(b *Accumulator) {
	for i, v := range b.counts {
		a.counts[i] += v
	}
	a.nnz += b.nnz
}

// NNZ returns the number of nonzeros accumulated so far.
func (a *Accumulator) NNZ() int64 {
	return a.nnz
}

// Grid returns the accumulated grid. The accumulator must not be used
// afterwards.
func (a *Accumulator) Grid() *Grid {
	g := &Grid{Layout: a.layout, NNZ: a.nnz, counts: a.counts}
	a.counts = nil
	return g
}
