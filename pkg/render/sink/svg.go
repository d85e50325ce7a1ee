package sink

import (
	"bytes"
	"fmt"
	"image/color"
	"math"

	svg "github.com/ajstarks/svgo"

	"github.com/matzehuels/mtxspy/pkg/render"
)

// SVGOption configures SVG rendering.
type SVGOption func(*svgRenderer)

type svgRenderer struct {
	title   string
	tooltip bool
}

// WithTitle sets the document title.
func WithTitle(s string) SVGOption { return func(r *svgRenderer) { r.title = s } }

// WithTooltips adds a count and density tooltip to every cell.
func WithTooltips() SVGOption { return func(r *svgRenderer) { r.tooltip = true } }

// RenderSVG draws the plot as one rectangle per colored cell, using the
// same pixel geometry as the raster output.
func RenderSVG(p *render.Plot, opts ...SVGOption) []byte {
	var r svgRenderer
	for _, opt := range opts {
		opt(&r)
	}

	var buf bytes.Buffer
	w, h := p.Bounds()
	canvas := svg.New(&buf)
	canvas.Start(w, h)
	if r.title != "" {
		canvas.Title(r.title)
	}
	canvas.Rect(0, 0, w, h, "fill:white")

	canvas.Gstyle("shape-rendering:crispEdges;stroke:none")
	for _, cell := range p.Cells {
		rect := p.Geometry.Cell(cell.Row, cell.Col)
		style := fill(cell.Color)
		if !r.tooltip {
			canvas.Rect(rect.Min.X, rect.Min.Y, rect.Dx(), rect.Dy(), style)
			continue
		}
		canvas.Group()
		canvas.Title(fmt.Sprintf("cell (%d, %d): %d nonzeros, density %.3g", cell.Row, cell.Col, cell.Count, cell.Density))
		canvas.Rect(rect.Min.X, rect.Min.Y, rect.Dx(), rect.Dy(), style)
		canvas.Gend()
	}
	canvas.Gend()

	if lg, ok := p.Legend(); ok {
		renderSVGLegend(canvas, lg, p)
	}
	canvas.End()
	return buf.Bytes()
}

func renderSVGLegend(canvas *svg.SVG, lg render.Legend, p *render.Plot) {
	colors := p.Ramp.Colors()
	n := len(colors)

	canvas.Gstyle("shape-rendering:crispEdges;stroke:none")
	for i, c := range colors {
		// Stripe i runs from the bottom up; boundaries are rounded so that
		// stripes tile the bar exactly.
		lo := lg.Y + lg.Height - int(math.Round(float64(i)*float64(lg.Height)/float64(n)))
		hi := lg.Y + lg.Height - int(math.Round(float64(i+1)*float64(lg.Height)/float64(n)))
		if lo > hi {
			canvas.Rect(lg.X, hi, lg.Width, lo-hi, fill(c))
		}
	}
	canvas.Gend()

	canvas.Rect(lg.X, lg.Y, lg.Width, lg.Height, "fill:none;stroke:black;stroke-width:1")
	canvas.Gstyle("font-family:monospace;font-size:11px;fill:black;stroke:black;stroke-width:1")
	for _, t := range lg.Ticks {
		y := lg.Y + lg.Height - int(math.Round(t.Pos*float64(lg.Height)))
		canvas.Line(lg.X+lg.Width, y, lg.X+lg.Width+4, y)
		canvas.Text(lg.X+lg.Width+7, y+4, t.Label, "stroke:none")
	}
	canvas.Gend()
}

func fill(c color.RGBA) string {
	return fmt.Sprintf("fill:#%02x%02x%02x", c.R, c.G, c.B)
}
