package colormap

import (
	"image/color"
	"math"

	"github.com/lucasb-eyer/go-colorful"

	"github.com/matzehuels/mtxspy/pkg/errors"
)

// DefaultSamples is the number of entries in a ramp's lookup table.
const DefaultSamples = 100

// DefaultStops runs from pale yellow for the sparsest data through pale
// cyan and medium blue to black for the densest.
var DefaultStops = []colorful.Color{
	{R: 1, G: 1, B: 0.5},
	{R: 0.5, G: 1, B: 1},
	{R: 0, G: 0.5, B: 1},
	{R: 0, G: 0, B: 0},
}

// Under is the color of cells without data or below the window.
var Under = color.RGBA{R: 255, G: 255, B: 255, A: 255}

// Ramp is a quantized gradient through equally spaced color stops.
type Ramp struct {
	lut []color.RGBA
}

// NewRamp samples the gradient through stops at n evenly spaced points.
// With no stops, [DefaultStops] is used.
func NewRamp(n int, stops ...colorful.Color) (*Ramp, error) {
	if err := errors.ValidateSamples(n); err != nil {
		return nil, err
	}
	if len(stops) == 0 {
		stops = DefaultStops
	}

	lut := make([]color.RGBA, n)
	for i := range lut {
		c := blend(stops, float64(i)/float64(n-1))
		r, g, b := c.Clamped().RGB255()
		lut[i] = color.RGBA{R: r, G: g, B: b, A: 255}
	}
	return &Ramp{lut: lut}, nil
}

// DefaultRamp returns the default gradient with [DefaultSamples] entries.
func DefaultRamp() *Ramp {
	r, err := NewRamp(DefaultSamples)
	if err != nil {
		panic(err)
	}
	return r
}

// Samples returns the size of the lookup table.
func (r *Ramp) Samples() int {
	return len(r.lut)
}

// At returns the color for a normalized value. Values below 0 (and NaN)
// map to [Under]; values at or above 1 saturate at the last stop.
func (r *Ramp) At(x float64) color.RGBA {
	if !(x >= 0) {
		return Under
	}
	n := len(r.lut)
	i := int(math.Min(x*float64(n), float64(n-1)))
	return r.lut[i]
}

// Colors returns a copy of the lookup table, sparsest first.
func (r *Ramp) Colors() []color.RGBA {
	return append([]color.RGBA(nil), r.lut...)
}

// blend interpolates linearly in RGB between the two stops around t.
func blend(stops []colorful.Color, t float64) colorful.Color {
	if len(stops) == 1 {
		return stops[0]
	}
	pos := t * float64(len(stops)-1)
	k := int(pos)
	if k >= len(stops)-1 {
		return stops[len(stops)-1]
	}
	return stops[k].BlendRgb(stops[k+1], pos-float64(k))
}
