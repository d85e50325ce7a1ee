package cli

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/mtxspy/pkg/pipeline"
)

// pipelineFlags holds the flags shared by commands that run the pipeline.
type pipelineFlags struct {
	resolution int
	workers    int
	skipZeros  bool
	bins       bool
	refresh    bool

	delta   float64
	samples int
	size    int
	legend  bool
	nominal bool
	formats string

	cache cacheFlags
}

// registerBin adds the load and binning flags.
func (f *pipelineFlags) registerBin(cmd *cobra.Command) {
	cmd.Flags().IntVarP(&f.resolution, "resolution", "r", pipeline.DefaultResolution, "grid blocks along the longer axis")
	cmd.Flags().IntVarP(&f.workers, "workers", "j", 1, "parallel binning workers")
	cmd.Flags().BoolVar(&f.skipZeros, "skip-zeros", false, "ignore entries whose stored value is zero")
	cmd.Flags().BoolVar(&f.bins, "bins", false, "inputs are exchange files instead of Matrix Market")
}

// registerCache adds the cache selection flags.
func (f *pipelineFlags) registerCache(cmd *cobra.Command) {
	cmd.Flags().BoolVar(&f.refresh, "refresh", false, "bypass cached results")
	f.cache.register(cmd)
}

// registerRender adds the normalization and drawing flags.
func (f *pipelineFlags) registerRender(cmd *cobra.Command) {
	cmd.Flags().Float64Var(&f.delta, "delta", pipeline.DefaultDelta, "widening of the log density window")
	cmd.Flags().IntVar(&f.samples, "samples", pipeline.DefaultSamples, "number of gradient colors")
	cmd.Flags().IntVar(&f.size, "size", pipeline.DefaultSize, "length of the longest image side in pixels")
	cmd.Flags().BoolVar(&f.legend, "legend", false, "draw a colorbar next to the plot")
	cmd.Flags().BoolVar(&f.nominal, "nominal", false, "divide counts by the nominal block area")
	cmd.Flags().StringVarP(&f.formats, "format", "f", "", "output format(s): png (default), jpeg, gif, tiff, bmp, svg, json, bins (comma-separated)")
}

// applyConfig copies config file values into flags the user did not set.
func (f *pipelineFlags) applyConfig(cmd *cobra.Command, cfg Config) {
	unset := func(name string) bool {
		fl := cmd.Flags().Lookup(name)
		return fl != nil && !fl.Changed
	}

	if unset("resolution") && cfg.Resolution != 0 {
		f.resolution = cfg.Resolution
	}
	if unset("workers") && cfg.Workers != 0 {
		f.workers = cfg.Workers
	}
	if unset("skip-zeros") && cfg.SkipZeros {
		f.skipZeros = true
	}
	if unset("delta") && cfg.Delta != 0 {
		f.delta = cfg.Delta
	}
	if unset("samples") && cfg.Samples != 0 {
		f.samples = cfg.Samples
	}
	if unset("size") && cfg.Size != 0 {
		f.size = cfg.Size
	}
	if unset("legend") && cfg.Legend {
		f.legend = true
	}
	if unset("nominal") && cfg.NominalDensity {
		f.nominal = true
	}
	if unset("format") && len(cfg.Formats) > 0 {
		f.formats = strings.Join(cfg.Formats, ",")
	}
}

// options converts the flags to pipeline options for one input.
func (f *pipelineFlags) options(input string) pipeline.Options {
	return pipeline.Options{
		Input:          input,
		Bins:           f.bins,
		SkipZeros:      f.skipZeros,
		Refresh:        f.refresh,
		Resolution:     f.resolution,
		Workers:        f.workers,
		Delta:          f.delta,
		Samples:        f.samples,
		Size:           f.size,
		Legend:         f.legend,
		NominalDensity: f.nominal,
	}
}

// parseFormats parses a comma-separated format string into a slice.
// Empty items are dropped.
func parseFormats(s string) []string {
	var formats []string
	for _, f := range strings.Split(s, ",") {
		if f = strings.TrimSpace(f); f != "" {
			formats = append(formats, f)
		}
	}
	return formats
}
