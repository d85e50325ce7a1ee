package render

import (
	"image/color"

	"github.com/matzehuels/mtxspy/pkg/binning"
	"github.com/matzehuels/mtxspy/pkg/colormap"
	"github.com/matzehuels/mtxspy/pkg/errors"
)

// Cell is a grid cell that renders in a gradient color.
type Cell struct {
	Row     int
	Col     int
	Count   int64
	Density float64
	Color   color.RGBA
}

// Plot is a grid with its densities normalized and colored, ready to be
// drawn by any sink. Cells below the window are not listed; they keep the
// background color.
type Plot struct {
	Grid     *binning.Grid
	Window   colormap.Window
	Ramp     *colormap.Ramp
	Geometry Geometry
	Cells    []Cell
	Options  Options
}

// Prepare validates opts, computes the density window of g and colors its
// cells. It fails with EMPTY_MATRIX for a grid without nonzeros and with
// INVALID_WINDOW when the window is degenerate and with INVALID_OPTION when
// the canvas would be too large, so nothing is drawn for an invalid
// configuration.
func Prepare(g *binning.Grid, opts Options) (*Plot, error) {
	opts.SetDefaults()
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if g.NNZ == 0 {
		return nil, errors.New(errors.ErrCodeEmptyMatrix, "%dx%d matrix has no nonzeros", g.M, g.N)
	}

	window, err := colormap.NewWindow(g.GlobalDensity(), opts.Delta)
	if err != nil {
		return nil, err
	}
	ramp, err := colormap.NewRamp(opts.Samples)
	if err != nil {
		return nil, err
	}
	geo, err := NewGeometry(g.Layout, opts.Size)
	if err != nil {
		return nil, err
	}

	p := &Plot{
		Grid:     g,
		Window:   window,
		Ramp:     ramp,
		Geometry: geo,
		Options:  opts,
	}
	g.Each(func(r, c int, count int64) {
		d := g.Density(r, c, opts.NominalDensity)
		if window.IsUnder(d) {
			return
		}
		p.Cells = append(p.Cells, Cell{
			Row:     r,
			Col:     c,
			Count:   count,
			Density: d,
			Color:   window.Color(ramp, d),
		})
	})
	return p, nil
}

// Bounds returns the size of the full canvas, legend included.
func (p *Plot) Bounds() (width, height int) {
	if !p.Options.Legend {
		return p.Geometry.Width, p.Geometry.Height
	}
	return p.Geometry.Width + legendWidth, max(p.Geometry.Height, legendMinHeight)
}
