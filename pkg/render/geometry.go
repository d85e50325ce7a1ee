package render

import (
	"image"
	"math"

	"github.com/matzehuels/mtxspy/pkg/binning"
	"github.com/matzehuels/mtxspy/pkg/errors"
)

// Geometry places grid cells on the pixel canvas.
//
// The canvas covers the matrix extent [0,M)x[0,N) with columns along x.
// Cell boundaries follow the matrix coordinates of the blocks, so a short
// last block gets a proportionally narrow strip. Neighboring cells share
// their boundary pixel column or row, which leaves no seams.
type Geometry struct {
	Width, Height int

	xs []int // Cols+1 column boundaries
	ys []int // Rows+1 row boundaries
}

// NewGeometry scales the layout so that its longest side is size pixels.
// Every cell is at least one pixel wide and tall. It fails with
// INVALID_OPTION when that needs a side longer than [errors.MaxImageSize].
func NewGeometry(l binning.Layout, size int) (Geometry, error) {
	if l.Rows > errors.MaxImageSize || l.Cols > errors.MaxImageSize {
		return Geometry{}, errors.New(errors.ErrCodeInvalidOption,
			"%dx%d grid needs more than %d pixels per side", l.Rows, l.Cols, errors.MaxImageSize)
	}
	var w, h int
	if l.M >= l.N {
		h = max(size, l.Rows)
		w = max(int(math.Round(float64(h)*float64(l.N)/float64(l.M))), l.Cols)
	} else {
		w = max(size, l.Cols)
		h = max(int(math.Round(float64(w)*float64(l.M)/float64(l.N))), l.Rows)
	}

	if w > errors.MaxImageSize || h > errors.MaxImageSize {
		return Geometry{}, errors.New(errors.ErrCodeInvalidOption,
			"%dx%d canvas exceeds %d pixels per side", w, h, errors.MaxImageSize)
	}

	return Geometry{
		Width:  w,
		Height: h,
		xs:     boundaries(l.Cols, l.NRate, l.N, w),
		ys:     boundaries(l.Rows, l.MRate, l.M, h),
	}, nil
}

// Cell returns the pixel rectangle of grid cell (r, c).
func (g Geometry) Cell(r, c int) image.Rectangle {
	return image.Rect(g.xs[c], g.ys[r], g.xs[c+1], g.ys[r+1])
}

// boundaries maps the block starts k·rate (clipped to extent) onto
// [0, pixels] and keeps the result strictly increasing. pixels must be at
// least cells.
func boundaries(cells, rate, extent, pixels int) []int {
	b := make([]int, cells+1)
	for k := 1; k < cells; k++ {
		lo := min(k*rate, extent)
		b[k] = max(int(math.Round(float64(lo)*float64(pixels)/float64(extent))), b[k-1]+1)
	}
	b[cells] = pixels
	for k := cells - 1; k > 0; k-- {
		b[k] = min(b[k], b[k+1]-1)
	}
	return b
}
