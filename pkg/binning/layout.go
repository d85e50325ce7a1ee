package binning

import (
	"math"

	"github.com/matzehuels/mtxspy/pkg/errors"
)

// Layout maps an M×N matrix onto a Rows×Cols grid of blocks.
//
// Every grid row covers MRate consecutive matrix rows and every grid column
// covers NRate consecutive matrix columns. Rates are ceiling-divided, so the
// last block along an axis may cover fewer indices than the nominal rate;
// [Layout.Extent] reports the true coverage.
type Layout struct {
	M, N         int // matrix shape
	Rows, Cols   int // grid shape
	MRate, NRate int // matrix rows/cols per grid cell
}

// NewLayout derives the grid for an m×n matrix under a resolution budget.
//
// The longer matrix axis is split into at most resolution blocks. The other
// axis gets ceil(resolution·short/long) blocks so that cells stay roughly
// square in matrix coordinates. For m ≥ n this reduces to
// m_rate = ceil(m/resolution), n_rate = ceil(n/ceil(resolution·n/m)).
func NewLayout(m, n, resolution int) (Layout, error) {
	if m < 1 || n < 1 {
		return Layout{}, errors.New(errors.ErrCodeMalformedInput, "matrix shape must be positive, got %dx%d", m, n)
	}
	if err := errors.ValidateResolution(resolution); err != nil {
		return Layout{}, err
	}

	var mRate, nRate int
	if m >= n {
		mRate = ceilDiv(m, resolution)
		nRate = ceilDiv(n, scaledBlocks(resolution, n, m))
	} else {
		nRate = ceilDiv(n, resolution)
		mRate = ceilDiv(m, scaledBlocks(resolution, m, n))
	}
	return LayoutFromRates(m, n, mRate, nRate, ceilDiv(n, nRate))
}

// LayoutFromRates builds a layout from explicit rates, as found in the
// header of an exchange stream. The number of grid rows is implied by m and
// mRate. cols may not fall short of the columns n needs at nRate. It may
// exceed them by one, or by more when nRate is what ceil(n/cols) gives
// (the column budget older tools wrote); trailing columns are then always
// empty.
func LayoutFromRates(m, n, mRate, nRate, cols int) (Layout, error) {
	switch {
	case m < 1 || n < 1:
		return Layout{}, errors.New(errors.ErrCodeMalformedInput, "matrix shape must be positive, got %dx%d", m, n)
	case mRate < 1 || nRate < 1:
		return Layout{}, errors.New(errors.ErrCodeMalformedInput, "rates must be positive, got %d and %d", mRate, nRate)
	case mRate > m || nRate > n:
		return Layout{}, errors.New(errors.ErrCodeMalformedInput,
			"rates %d and %d exceed matrix shape %dx%d", mRate, nRate, m, n)
	case cols < 1 || cols < ceilDiv(n, nRate):
		return Layout{}, errors.New(errors.ErrCodeMalformedInput,
			"%d grid columns cannot cover %d matrix columns at rate %d", cols, n, nRate)
	case !columnBudget(n, nRate, cols):
		return Layout{}, errors.New(errors.ErrCodeMalformedInput,
			"%d grid columns are far more than %d matrix columns need at rate %d", cols, n, nRate)
	}
	rows := ceilDiv(m, mRate)
	if rows < 1 {
		return Layout{}, errors.New(errors.ErrCodeMalformedInput, "no grid rows for %d matrix rows at rate %d", m, mRate)
	}
	return Layout{
		M:     m,
		N:     n,
		Rows:  rows,
		Cols:  cols,
		MRate: mRate,
		NRate: nRate,
	}, nil
}

// columnBudget reports whether cols is a plausible column count for n
// matrix columns at rate nRate.
func columnBudget(n, nRate, cols int) bool {
	need := ceilDiv(n, nRate)
	if cols <= need+1 {
		return true
	}
	return cols <= n && ceilDiv(n, cols) == nRate
}

// Cells returns the number of grid cells.
func (l Layout) Cells() int {
	return l.Rows * l.Cols
}

// Locate returns the grid cell holding the matrix entry (row, col).
// Coordinates are 0-based; anything outside [0,M)×[0,N) is malformed input.
func (l Layout) Locate(row, col int) (r, c int, err error) {
	if row < 0 || row >= l.M || col < 0 || col >= l.N {
		return 0, 0, errors.New(errors.ErrCodeMalformedInput,
			"entry (%d, %d) outside matrix bounds [0,%d)x[0,%d)", row, col, l.M, l.N)
	}
	return row / l.MRate, col / l.NRate, nil
}

// RowSpan returns the half-open range of matrix rows covered by grid row r.
func (l Layout) RowSpan(r int) (lo, hi int) {
	return span(r, l.MRate, l.M)
}

// ColSpan returns the half-open range of matrix columns covered by grid
// column c.
func (l Layout) ColSpan(c int) (lo, hi int) {
	return span(c, l.NRate, l.N)
}

// Extent returns how many matrix rows and columns cell (r, c) really covers.
// Cells past the matrix edge (possible only for layouts read from an
// exchange stream) have zero extent.
func (l Layout) Extent(r, c int) (rows, cols int) {
	r0, r1 := l.RowSpan(r)
	c0, c1 := l.ColSpan(c)
	return r1 - r0, c1 - c0
}

// Area returns the number of matrix entries a cell stands for. With nominal
// set every cell counts MRate·NRate entries regardless of where it sits.
// Areas beyond the int64 range saturate.
func (l Layout) Area(r, c int, nominal bool) int64 {
	if nominal {
		return mulSat(int64(l.MRate), int64(l.NRate))
	}
	rows, cols := l.Extent(r, c)
	return mulSat(int64(rows), int64(cols))
}

func mulSat(a, b int64) int64 {
	if a == 0 || b == 0 {
		return 0
	}
	if a > math.MaxInt64/b {
		return math.MaxInt64
	}
	return a * b
}

// span clips [i·rate, (i+1)·rate) to [0, limit) without forming products
// that can overflow.
func span(i, rate, limit int) (lo, hi int) {
	if i < 0 || limit <= 0 || i > (limit-1)/rate {
		return limit, limit
	}
	lo = i * rate
	if rate >= limit-lo {
		return lo, limit
	}
	return lo, lo + rate
}

// ceilDiv returns ceil(a/b) for b ≥ 1. It does not overflow.
func ceilDiv(a, b int) int {
	if a <= 0 {
		return 0
	}
	return (a-1)/b + 1
}

// scaledBlocks returns ceil(resolution·short/long) without overflowing on
// 32-bit platforms.
func scaledBlocks(resolution, short, long int) int {
	blocks := (int64(resolution)*int64(short) + int64(long) - 1) / int64(long)
	return int(max(blocks, 1))
}
