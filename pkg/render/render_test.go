package render

import (
	"image"
	"image/color"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/mtxspy/pkg/binning"
	"github.com/matzehuels/mtxspy/pkg/colormap"
	"github.com/matzehuels/mtxspy/pkg/errors"
)

type coords struct {
	m, n    int
	entries [][2]int
}

func (c coords) Dims() (int, int) { return c.m, c.n }

func (c coords) Scan(fn func(row, col int) error) error {
	for _, e := range c.entries {
		if err := fn(e[0], e[1]); err != nil {
			return err
		}
	}
	return nil
}

// uniform places one nonzero every step entries in row-major order.
func uniform(m, n, step int) coords {
	src := coords{m: m, n: n}
	for k := 0; k < m*n; k += step {
		src.entries = append(src.entries, [2]int{k / n, k % n})
	}
	return src
}

func bin(t *testing.T, src binning.Source, res int) *binning.Grid {
	t.Helper()
	g, err := binning.Bin(src, res)
	require.NoError(t, err)
	return g
}

func colorsOf(img image.Image) map[color.RGBA]int {
	seen := map[color.RGBA]int{}
	b := img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			r, g, bl, a := img.At(x, y).RGBA()
			seen[color.RGBA{uint8(r >> 8), uint8(g >> 8), uint8(bl >> 8), uint8(a >> 8)}]++
		}
	}
	return seen
}

func TestUniformDensityIsFlat(t *testing.T) {
	// A checkerboard has density 0.5 in every 4x4 block.
	src := coords{m: 40, n: 40}
	for i := range 40 {
		for j := range 40 {
			if (i+j)%2 == 0 {
				src.entries = append(src.entries, [2]int{i, j})
			}
		}
	}
	g := bin(t, src, 10)

	r, err := Render(g, Options{Size: 100})
	require.NoError(t, err)

	seen := colorsOf(r.Image)
	assert.Len(t, seen, 1, "got %v", seen)
	assert.NotContains(t, seen, colormap.Under)
}

func TestUniformDensityFlatOnUnevenDims(t *testing.T) {
	// 7x7 fully dense matrix at resolution 3: rate 3, last block covers 1.
	g := bin(t, uniform(7, 7, 1), 3)
	require.Equal(t, 3, g.MRate)

	p, err := Prepare(g, Options{Delta: 0.6})
	// A full matrix has d = 1, which leaves no window.
	assert.True(t, errors.Is(err, errors.ErrCodeInvalidWindow))
	assert.Nil(t, p)

	// Half density on uneven dims: true extents give every cell the same
	// density, nominal rates under-report the edges.
	src := coords{m: 7, n: 8}
	for i := range 7 {
		for j := range 8 {
			if j%2 == 0 {
				src.entries = append(src.entries, [2]int{i, j})
			}
		}
	}
	g = bin(t, src, 4)
	require.Equal(t, 2, g.MRate)
	require.Equal(t, 4, g.Rows)

	p, err = Prepare(g, Options{})
	require.NoError(t, err)
	for _, c := range p.Cells {
		assert.InDelta(t, 0.5, c.Density, 1e-12, "cell (%d, %d)", c.Row, c.Col)
		assert.Equal(t, p.Cells[0].Color, c.Color)
	}

	// The last grid row covers a single matrix row.
	assert.InDelta(t, 0.25, g.Density(3, 0, true), 1e-12)
	nominal, err := Prepare(g, Options{NominalDensity: true})
	require.NoError(t, err)
	assert.Len(t, p.Cells, 16)
	assert.Len(t, nominal.Cells, 12, "edge cells fall below the window")
}

func TestPrepareZeroCellsAreUnder(t *testing.T) {
	g := bin(t, coords{m: 1000, n: 1000, entries: [][2]int{{0, 0}, {999, 999}}}, 10)

	p, err := Prepare(g, Options{})
	require.NoError(t, err)
	assert.Len(t, p.Cells, 2)
	for _, c := range p.Cells {
		assert.NotEqual(t, colormap.Under, c.Color)
	}
}

func TestPrepareEmptyGrid(t *testing.T) {
	l, err := binning.NewLayout(10, 10, 5)
	require.NoError(t, err)
	g := binning.NewAccumulator(l).Grid()

	_, err = Prepare(g, Options{})
	assert.True(t, errors.Is(err, errors.ErrCodeEmptyMatrix))
}

func TestPrepareInvalidOptions(t *testing.T) {
	g := bin(t, uniform(100, 100, 7), 10)

	tests := []struct {
		name string
		opts Options
		code errors.Code
	}{
		{"negative delta", Options{Delta: -0.6}, errors.ErrCodeInvalidWindow},
		{"nan delta", Options{Delta: math.NaN()}, errors.ErrCodeInvalidWindow},
		{"one sample", Options{Samples: 1}, errors.ErrCodeInvalidOption},
		{"negative size", Options{Size: -1}, errors.ErrCodeInvalidOption},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Prepare(g, tt.opts)
			assert.True(t, errors.Is(err, tt.code), "got %v", err)
		})
	}
}

func TestDefaultOptions(t *testing.T) {
	o := DefaultOptions()
	assert.Equal(t, 0.6, o.Delta)
	assert.Equal(t, 100, o.Samples)
	assert.Equal(t, 800, o.Size)
	assert.False(t, o.Legend)
	assert.False(t, o.NominalDensity)
	assert.NoError(t, o.Validate())
}

func TestGeometryProportions(t *testing.T) {
	l, err := binning.NewLayout(1000, 500, 100)
	require.NoError(t, err)

	geo, err := NewGeometry(l, 800)
	require.NoError(t, err)
	assert.Equal(t, 800, geo.Height)
	assert.Equal(t, 400, geo.Width)
	assert.Equal(t, image.Rect(0, 0, 8, 8), geo.Cell(0, 0))
	assert.Equal(t, image.Rect(392, 792, 400, 800), geo.Cell(99, 49))
}

func TestGeometryShortLastBlock(t *testing.T) {
	// 1050 rows at rate 11: 96 blocks, the last covering 5 rows.
	l, err := binning.NewLayout(1050, 1050, 96)
	require.NoError(t, err)
	require.Equal(t, 11, l.MRate)
	require.Equal(t, 96, l.Rows)

	geo, err := NewGeometry(l, 1050)
	require.NoError(t, err)
	last := geo.Cell(95, 95)
	assert.Equal(t, 5, last.Dy())
	assert.Equal(t, 5, last.Dx())
	assert.Equal(t, 11, geo.Cell(0, 0).Dy())
}

func TestGeometryTilesCanvas(t *testing.T) {
	for _, dims := range [][3]int{{1000, 1000, 120}, {7, 3000, 50}, {12345, 77, 120}, {5, 5, 120}} {
		l, err := binning.NewLayout(dims[0], dims[1], dims[2])
		require.NoError(t, err)
		geo, err := NewGeometry(l, 300)
		require.NoError(t, err)

		area := 0
		for r := 0; r < l.Rows; r++ {
			for c := 0; c < l.Cols; c++ {
				cell := geo.Cell(r, c)
				require.False(t, cell.Empty(), "dims %v cell (%d, %d)", dims, r, c)
				area += cell.Dx() * cell.Dy()
			}
		}
		assert.Equal(t, geo.Width*geo.Height, area, "dims %v", dims)
	}
}

func TestGeometryRaisedToCells(t *testing.T) {
	l, err := binning.NewLayout(4000, 4000, 400)
	require.NoError(t, err)
	geo, err := NewGeometry(l, 100)
	require.NoError(t, err)
	assert.Equal(t, 400, geo.Width)
	assert.Equal(t, 400, geo.Height)
}

func TestGeometryRejectsOversizedCanvas(t *testing.T) {
	// One matrix row over the maximum number of columns per side.
	l, err := binning.LayoutFromRates(1, errors.MaxImageSize+1, 1, 1, errors.MaxImageSize+1)
	require.NoError(t, err)
	_, err = NewGeometry(l, 100)
	assert.True(t, errors.Is(err, errors.ErrCodeInvalidOption), "got %v", err)

	l, err = binning.LayoutFromRates(2, 2, 1, 1, 3)
	require.NoError(t, err)
	_, err = NewGeometry(l, errors.MaxImageSize)
	assert.NoError(t, err)
}

func TestPrepareRejectsOversizedGrid(t *testing.T) {
	n := errors.MaxImageSize + 1
	l, err := binning.LayoutFromRates(1, n, 1, 1, n)
	require.NoError(t, err)
	acc := binning.NewAccumulator(l)
	require.NoError(t, acc.AddCell(0, 0, 1))

	_, err = Prepare(acc.Grid(), DefaultOptions())
	assert.True(t, errors.Is(err, errors.ErrCodeInvalidOption), "got %v", err)
}

func TestDrawPlacesCells(t *testing.T) {
	g := bin(t, coords{m: 100, n: 100, entries: block(0, 10, 0, 10)}, 10)
	r, err := Render(g, Options{Size: 100})
	require.NoError(t, err)

	assert.Equal(t, image.Rect(0, 0, 100, 100), r.Image.Bounds())
	inside := color.RGBAModel.Convert(r.Image.At(5, 5)).(color.RGBA)
	outside := color.RGBAModel.Convert(r.Image.At(50, 50)).(color.RGBA)
	assert.Equal(t, r.Cells[0].Color, inside)
	assert.Equal(t, colormap.Under, outside)
}

func TestLegend(t *testing.T) {
	g := bin(t, uniform(1000, 1000, 997), 50)

	r, err := Render(g, Options{Size: 200, Legend: true, Samples: 4})
	require.NoError(t, err)

	assert.Equal(t, 200+legendWidth, r.Image.Bounds().Dx())
	lg, ok := r.Legend()
	require.True(t, ok)
	assert.NotEmpty(t, lg.Ticks)
	for _, tick := range lg.Ticks {
		assert.GreaterOrEqual(t, tick.Value, r.Window.Min)
		assert.LessOrEqual(t, tick.Value, r.Window.Max)
		assert.GreaterOrEqual(t, tick.Pos, 0.0)
		assert.LessOrEqual(t, tick.Pos, 1.0)
	}

	// Top of the bar is the densest color.
	top := color.RGBAModel.Convert(r.Image.At(lg.X+lg.Width/2, lg.Y+10)).(color.RGBA)
	assert.Equal(t, r.Ramp.At(1), top)

	noLegend, err := Render(g, Options{Size: 200})
	require.NoError(t, err)
	_, ok = noLegend.Legend()
	assert.False(t, ok)
}

func TestTicksWithoutDecade(t *testing.T) {
	p := &Plot{Options: Options{Legend: true}}
	w, err := colormap.NewWindow(0.5, 0.1)
	require.NoError(t, err)
	p.Window = w

	ticks := p.Ticks()
	require.Len(t, ticks, 3)
	assert.Equal(t, 0.0, ticks[0].Pos)
	assert.Equal(t, 0.5, ticks[1].Pos)
	assert.Equal(t, 1.0, ticks[2].Pos)
	assert.InDelta(t, w.Min, ticks[0].Value, 1e-12)
	assert.InDelta(t, 0.5, ticks[1].Value, 1e-12)
	assert.InDelta(t, w.Max, ticks[2].Value, 1e-12)
}

func block(r0, r1, c0, c1 int) [][2]int {
	var out [][2]int
	for i := r0; i < r1; i++ {
		for j := c0; j < c1; j++ {
			out = append(out, [2]int{i, j})
		}
	}
	return out
}
