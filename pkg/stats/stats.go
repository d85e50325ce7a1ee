// Package stats summarizes the density distribution of a binned grid.
package stats

import (
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/matzehuels/mtxspy/pkg/binning"
)

// Summary describes a grid and the local densities of its non-empty cells.
type Summary struct {
	Rows    int     `json:"rows"`
	Cols    int     `json:"cols"`
	NNZ     int64   `json:"nnz"`
	Density float64 `json:"density"`

	GridRows int `json:"grid_rows"`
	GridCols int `json:"grid_cols"`
	MRate    int `json:"m_rate"`
	NRate    int `json:"n_rate"`

	NonEmpty  int     `json:"non_empty"`
	Occupancy float64 `json:"occupancy"` // NonEmpty over all cells

	Min    float64 `json:"min"`
	Mean   float64 `json:"mean"`
	Max    float64 `json:"max"`
	StdDev float64 `json:"stddev"`
	P50    float64 `json:"p50"`
	P90    float64 `json:"p90"`
	P99    float64 `json:"p99"`

	// DiagonalShare is the fraction of nonzeros in cells that intersect
	// the main diagonal.
	DiagonalShare float64 `json:"diagonal_share"`

	// PeakRow and PeakCol locate the densest cell.
	PeakRow int `json:"peak_row"`
	PeakCol int `json:"peak_col"`
}

// Summarize computes the summary of g. Densities use the true cell extent
// unless nominal is set.
func Summarize(g *binning.Grid, nominal bool) Summary {
	s := Summary{
		Rows:     g.M,
		Cols:     g.N,
		NNZ:      g.NNZ,
		Density:  g.GlobalDensity(),
		GridRows: g.Rows,
		GridCols: g.Cols,
		MRate:    g.MRate,
		NRate:    g.NRate,
		NonEmpty: g.NonEmpty(),
	}
	s.Occupancy = float64(s.NonEmpty) / float64(g.Cells())

	densities := make([]float64, 0, s.NonEmpty)
	var diagonal int64
	g.Each(func(r, c int, count int64) {
		densities = append(densities, g.Density(r, c, nominal))
		if onDiagonal(g.Layout, r, c) {
			diagonal += count
		}
	})
	if g.NNZ > 0 {
		s.DiagonalShare = float64(diagonal) / float64(g.NNZ)
	}
	if len(densities) == 0 {
		return s
	}

	s.Mean, s.StdDev = stat.MeanStdDev(densities, nil)
	if len(densities) == 1 {
		s.StdDev = 0
	}

	sorted := append([]float64(nil), densities...)
	sort.Float64s(sorted)
	s.Min, s.Max = sorted[0], sorted[len(sorted)-1]
	s.P50 = stat.Quantile(0.5, stat.Empirical, sorted, nil)
	s.P90 = stat.Quantile(0.9, stat.Empirical, sorted, nil)
	s.P99 = stat.Quantile(0.99, stat.Empirical, sorted, nil)

	dense := DensityMatrix(g, nominal)
	s.PeakRow, s.PeakCol = argmax(dense)
	return s
}

// DensityMatrix returns the local density of every cell as a Rows×Cols
// matrix.
func DensityMatrix(g *binning.Grid, nominal bool) *mat.Dense {
	d := mat.NewDense(g.Rows, g.Cols, nil)
	g.Each(func(r, c int, _ int64) {
		d.Set(r, c, g.Density(r, c, nominal))
	})
	return d
}

// RowProfile returns the nonzero count of every grid row.
func RowProfile(g *binning.Grid) []float64 {
	counts := mat.NewDense(g.Rows, g.Cols, nil)
	g.Each(func(r, c int, count int64) {
		counts.Set(r, c, float64(count))
	})
	out := make([]float64, g.Rows)
	for r := range out {
		out[r] = floats.Sum(counts.RawRowView(r))
	}
	return out
}

func argmax(d *mat.Dense) (row, col int) {
	rows, _ := d.Dims()
	best := -1.0
	for r := range rows {
		v := d.RawRowView(r)
		c := floats.MaxIdx(v)
		if v[c] > best {
			best, row, col = v[c], r, c
		}
	}
	return row, col
}

// onDiagonal reports whether block (r, c) covers any entry (i, i).
func onDiagonal(l binning.Layout, r, c int) bool {
	r0, r1 := l.RowSpan(r)
	c0, c1 := l.ColSpan(c)
	return r0 < c1 && c0 < r1
}
