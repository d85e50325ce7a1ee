package colormap

import (
	"image/color"
	"math"

	"github.com/matzehuels/mtxspy/pkg/errors"
)

// DefaultDelta widens the window by 60% of log(d) on either side.
const DefaultDelta = 0.6

// Window is a logarithmic density range centered on the global density d.
// Min = d^(1+delta) and Max = d^(1-delta).
type Window struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`

	// Log bounds stay exact where Min underflows.
	lnMin, lnMax float64
}

// NewWindow builds the window for global density d. It fails with
// INVALID_WINDOW when d is not in (0, 1) or the resulting range is empty.
func NewWindow(d, delta float64) (Window, error) {
	if err := errors.ValidateDelta(delta); err != nil {
		return Window{}, err
	}
	if !(d > 0) || math.IsInf(d, 0) {
		return Window{}, errors.New(errors.ErrCodeInvalidWindow, "global density %g must be positive", d)
	}

	ln := math.Log(d)
	w := Window{lnMin: (1 + delta) * ln, lnMax: (1 - delta) * ln}
	if !(w.lnMin < w.lnMax) {
		return Window{}, errors.New(errors.ErrCodeInvalidWindow,
			"degenerate window for density %g and delta %g", d, delta)
	}
	w.Min, w.Max = math.Exp(w.lnMin), math.Exp(w.lnMax)
	return w, nil
}

// Normalize maps v onto the window in log space: Min maps to 0 and Max
// to 1. Zero and negative values return negative infinity.
func (w Window) Normalize(v float64) float64 {
	if !(v > 0) {
		return math.Inf(-1)
	}
	return (math.Log(v) - w.lnMin) / (w.lnMax - w.lnMin)
}

// Denormalize is the inverse of Normalize.
func (w Window) Denormalize(x float64) float64 {
	return math.Exp(w.lnMin + x*(w.lnMax-w.lnMin))
}

// Color maps a local density through the window and the ramp.
func (w Window) Color(r *Ramp, v float64) color.RGBA {
	return r.At(w.Normalize(v))
}

// IsUnder reports whether v renders in the under-range color.
func (w Window) IsUnder(v float64) bool {
	return !(w.Normalize(v) >= 0)
}
