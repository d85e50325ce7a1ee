package render

import (
	"github.com/matzehuels/mtxspy/pkg/colormap"
	"github.com/matzehuels/mtxspy/pkg/errors"
)

// DefaultSize is the default length in pixels of the image's longest side.
const DefaultSize = 800

// Options configures density normalization and drawing.
type Options struct {
	// Delta widens the logarithmic window around the global density.
	Delta float64

	// Samples is the number of distinct gradient colors.
	Samples int

	// Size is the length of the longest side of the plot in pixels. It is
	// raised to the number of grid cells on that axis if smaller.
	Size int

	// Legend adds a colorbar to the right of the plot.
	Legend bool

	// NominalDensity divides every count by m_rate·n_rate, including edge
	// cells that cover fewer matrix entries. This reproduces the output of
	// older tools; by default the true covered extent is used.
	NominalDensity bool
}

// DefaultOptions returns options with every field set to its default.
func DefaultOptions() Options {
	var o Options
	o.SetDefaults()
	return o
}

// SetDefaults fills zero fields with their defaults.
func (o *Options) SetDefaults() {
	if o.Delta == 0 {
		o.Delta = colormap.DefaultDelta
	}
	if o.Samples == 0 {
		o.Samples = colormap.DefaultSamples
	}
	if o.Size == 0 {
		o.Size = DefaultSize
	}
}

// Validate checks the options. A degenerate delta is INVALID_WINDOW;
// other bad values are INVALID_OPTION.
func (o Options) Validate() error {
	if err := errors.ValidateDelta(o.Delta); err != nil {
		return err
	}
	if err := errors.ValidateSamples(o.Samples); err != nil {
		return err
	}
	return errors.ValidateImageSize(o.Size)
}
