package render

import (
	"math"
	"strconv"
)

const (
	legendWidth     = 96
	legendMinHeight = 120
	legendGap       = 16
	legendBarWidth  = 18
	legendPad       = 8
)

// Tick is a labeled position on the colorbar.
type Tick struct {
	Value float64
	Pos   float64 // normalized position, 0 at the bottom
	Label string
}

// Legend describes the colorbar next to the plot.
type Legend struct {
	X, Y          int // top left corner of the bar
	Width, Height int
	Ticks         []Tick
}

// Legend lays out the colorbar. It returns false when the plot has none.
func (p *Plot) Legend() (Legend, bool) {
	if !p.Options.Legend {
		return Legend{}, false
	}
	_, h := p.Bounds()
	return Legend{
		X:      p.Geometry.Width + legendGap,
		Y:      legendPad,
		Width:  legendBarWidth,
		Height: h - 2*legendPad,
		Ticks:  p.Ticks(),
	}, true
}

// Ticks returns one tick per power of ten inside the window. A window
// without a decade gets ticks at its two ends and its geometric middle.
func (p *Plot) Ticks() []Tick {
	w := p.Window
	var ticks []Tick
	if w.Min > 0 {
		lo := int(math.Ceil(math.Log10(w.Min) - 1e-9))
		hi := int(math.Floor(math.Log10(w.Max) + 1e-9))
		for k := lo; k <= hi; k++ {
			v := math.Pow(10, float64(k))
			ticks = append(ticks, Tick{Value: v, Pos: clamp01(w.Normalize(v)), Label: "1e" + strconv.Itoa(k)})
		}
	}
	if len(ticks) == 0 {
		for _, pos := range []float64{0, 0.5, 1} {
			v := w.Denormalize(pos)
			ticks = append(ticks, Tick{Value: v, Pos: pos, Label: formatDensity(v)})
		}
	}
	return ticks
}

func formatDensity(v float64) string {
	return strconv.FormatFloat(v, 'g', 2, 64)
}

func clamp01(x float64) float64 {
	return math.Max(0, math.Min(1, x))
}
