package render

import (
	"image"

	"github.com/fogleman/gg"
	"golang.org/x/image/font/basicfont"

	"github.com/matzehuels/mtxspy/pkg/binning"
	"github.com/matzehuels/mtxspy/pkg/colormap"
)

// Raster is a drawn plot.
type Raster struct {
	*Plot
	Image image.Image
}

// Render normalizes, colors and draws g. Nothing is drawn unless the whole
// configuration is valid.
func Render(g *binning.Grid, opts Options) (*Raster, error) {
	p, err := Prepare(g, opts)
	if err != nil {
		return nil, err
	}
	return &Raster{Plot: p, Image: p.Draw()}, nil
}

// Draw rasterizes the plot on a white canvas.
func (p *Plot) Draw() image.Image {
	w, h := p.Bounds()
	dc := gg.NewContext(w, h)
	dc.SetColor(colormap.Under)
	dc.Clear()

	for _, cell := range p.Cells {
		r := p.Geometry.Cell(cell.Row, cell.Col)
		dc.DrawRectangle(float64(r.Min.X), float64(r.Min.Y), float64(r.Dx()), float64(r.Dy()))
		dc.SetColor(cell.Color)
		dc.Fill()
	}

	if lg, ok := p.Legend(); ok {
		drawLegend(dc, lg, p.Ramp)
	}
	return dc.Image()
}

func drawLegend(dc *gg.Context, lg Legend, ramp *colormap.Ramp) {
	x, y := float64(lg.X), float64(lg.Y)
	bw, bh := float64(lg.Width), float64(lg.Height)

	colors := ramp.Colors()
	stripe := bh / float64(len(colors))
	for i, c := range colors {
		top := y + bh - float64(i+1)*stripe
		dc.DrawRectangle(x, top, bw, stripe)
		dc.SetColor(c)
		dc.Fill()
	}

	dc.SetRGB(0, 0, 0)
	dc.SetLineWidth(1)
	dc.DrawRectangle(x+0.5, y+0.5, bw-1, bh-1)
	dc.Stroke()

	dc.SetFontFace(basicfont.Face7x13)
	for _, t := range lg.Ticks {
		ty := y + bh - t.Pos*bh
		dc.DrawLine(x+bw, ty, x+bw+4, ty)
		dc.Stroke()
		dc.DrawStringAnchored(t.Label, x+bw+7, ty, 0, 0.35)
	}
}
