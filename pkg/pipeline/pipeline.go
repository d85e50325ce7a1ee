// Package pipeline provides the load → bin → render pipeline of mtxspy.
//
// The CLI and the HTTP service both run matrices through a [Runner], which
// keeps caching and stage logic in one place. The pipeline has three
// stages:
//
//  1. Load: open a Matrix Market file (or in-memory upload)
//  2. Bin: reduce the matrix to a grid of nonzero counts
//  3. Render: normalize densities and write the requested formats
//
// Grids and artifacts are cached. A grid is keyed by the matrix
// fingerprint and the binning options; an artifact by the grid content and
// the render options.
//
//	runner := pipeline.NewRunner(c, nil, logger)
//	result, err := runner.Execute(ctx, pipeline.Options{
//	    Input:   "bcsstk01.mtx",
//	    Formats: []string{"png"},
//	})
//	if err != nil {
//	    return err
//	}
//	png := result.Artifacts["png"]
//
// Batch runs report failures per matrix and continue:
//
//	for _, item := range runner.ExecuteBatch(ctx, batch) {
//	    if item.Err != nil { ... }
//	}
package pipeline

import (
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/mtxspy/pkg/binning"
	"github.com/matzehuels/mtxspy/pkg/cache"
	"github.com/matzehuels/mtxspy/pkg/colormap"
	"github.com/matzehuels/mtxspy/pkg/errors"
	"github.com/matzehuels/mtxspy/pkg/render"
	"github.com/matzehuels/mtxspy/pkg/render/sink"
	"github.com/matzehuels/mtxspy/pkg/stats"
)

// =============================================================================
// Default Values - Single Source of Truth for CLI and Service
// =============================================================================

const (
	// DefaultResolution is the number of grid blocks along the longer axis.
	DefaultResolution = binning.DefaultResolution

	// DefaultDelta is the fractional widening of the density window.
	DefaultDelta = colormap.DefaultDelta

	// DefaultSamples is the number of gradient colors.
	DefaultSamples = colormap.DefaultSamples

	// DefaultSize is the length of the image's longest side in pixels.
	DefaultSize = render.DefaultSize

	// DefaultFormat is the output format when none is requested.
	DefaultFormat = string(sink.FormatPNG)
)

// =============================================================================
// Options - Pipeline Configuration
// =============================================================================

// Options contains all configuration for one pipeline run.
// This struct supports JSON serialization for service requests.
type Options struct {
	// Load options
	Input     string `json:"input,omitempty"` // path of the matrix file
	Data      []byte `json:"-"`               // matrix contents, used instead of Input when set
	Name      string `json:"name,omitempty"`  // label for logs and outputs
	Bins      bool   `json:"bins,omitempty"`  // input is exchange text, not Matrix Market
	SkipZeros bool   `json:"skip_zeros,omitempty"`
	Refresh   bool   `json:"refresh,omitempty"` // bypass cached results

	// Bin options
	Resolution int `json:"resolution,omitempty"`
	Workers    int `json:"workers,omitempty"`

	// Render options
	Formats        []string `json:"formats,omitempty"`
	Delta          float64  `json:"delta,omitempty"`
	Samples        int      `json:"samples,omitempty"`
	Size           int      `json:"size,omitempty"`
	Legend         bool     `json:"legend,omitempty"`
	NominalDensity bool     `json:"nominal_density,omitempty"`

	// Runtime options (not serialized)
	Logger *log.Logger `json:"-"`

	// validated tracks whether ValidateAndSetDefaults has been called.
	validated bool
}

// Result contains the outputs of a pipeline run.
type Result struct {
	// Grid is the binned matrix.
	Grid *binning.Grid

	// GridHash is the content hash of the grid's exchange encoding.
	GridHash string

	// Window is the density window the artifacts were rendered with.
	Window colormap.Window

	// Summary describes the density distribution of the grid.
	Summary stats.Summary

	// Artifacts contains rendered outputs keyed by format.
	Artifacts map[string][]byte

	// Stats contains timing and size information.
	Stats Stats

	// CacheInfo tracks which stages hit the cache.
	CacheInfo CacheInfo
}

// Stats contains pipeline execution statistics.
type Stats struct {
	Rows       int
	Cols       int
	Entries    int64 // stored entries declared by the file
	NNZ        int64
	LoadTime   time.Duration
	BinTime    time.Duration
	RenderTime time.Duration
}

// CacheInfo tracks cache hits for each pipeline stage.
type CacheInfo struct {
	GridHit   bool // Whether the grid came from cache
	RenderHit bool // Whether all artifacts came from cache
}

// =============================================================================
// Validation Functions
// =============================================================================

// ValidateFormat checks that a format is supported. Aliases such as "jpg"
// are accepted.
func ValidateFormat(format string) error {
	_, err := sink.ParseFormat(format)
	return err
}

// ValidateFormats checks that all formats are valid.
func ValidateFormats(formats []string) error {
	for _, f := range formats {
		if err := ValidateFormat(f); err != nil {
			return err
		}
	}
	return nil
}

// =============================================================================
// Options Methods
// =============================================================================

// ValidateAndSetDefaults checks required fields and applies defaults for the full pipeline.
// This method is idempotent - calling it multiple times has the same effect as calling it once.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	if err := o.ValidateForBin(); err != nil {
		return err
	}
	if err := o.ValidateForRender(); err != nil {
		return err
	}
	o.validated = true
	return nil
}

// ValidateForBin checks the input and binning options.
func (o *Options) ValidateForBin() error {
	if o.Input == "" && o.Data == nil {
		return errors.New(errors.ErrCodeInvalidOption, "input file or data is required")
	}
	o.SetBinDefaults()
	if err := errors.ValidateResolution(o.Resolution); err != nil {
		return err
	}
	if o.Workers < 1 {
		return errors.New(errors.ErrCodeInvalidOption, "workers must be at least 1, got %d", o.Workers)
	}
	return nil
}

// SetBinDefaults sets default values for loading and binning.
func (o *Options) SetBinDefaults() {
	if o.Resolution == 0 {
		o.Resolution = DefaultResolution
	}
	if o.Workers == 0 {
		o.Workers = 1
	}
	if o.Name == "" {
		o.Name = NameOf(o.Input)
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
}

// SetRenderDefaults sets default values for rendering.
func (o *Options) SetRenderDefaults() {
	if len(o.Formats) == 0 {
		o.Formats = []string{DefaultFormat}
	}
	if o.Delta == 0 {
		o.Delta = DefaultDelta
	}
	if o.Samples == 0 {
		o.Samples = DefaultSamples
	}
	if o.Size == 0 {
		o.Size = DefaultSize
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
}

// ValidateForRender validates and sets defaults for rendering. Formats are
// normalized to their canonical names.
func (o *Options) ValidateForRender() error {
	o.SetRenderDefaults()
	o.Formats = append([]string(nil), o.Formats...)
	for i, f := range o.Formats {
		format, err := sink.ParseFormat(f)
		if err != nil {
			return err
		}
		o.Formats[i] = string(format)
	}
	return o.RenderOptions().Validate()
}

// RenderOptions returns the options for the render package.
func (o *Options) RenderOptions() render.Options {
	return render.Options{
		Delta:          o.Delta,
		Samples:        o.Samples,
		Size:           o.Size,
		Legend:         o.Legend,
		NominalDensity: o.NominalDensity,
	}
}

// GridKeyOpts returns cache key options for binning.
func (o *Options) GridKeyOpts() cache.GridKeyOpts {
	return cache.GridKeyOpts{
		Resolution: o.Resolution,
		SkipZeros:  o.SkipZeros,
	}
}

// ArtifactKeyOpts returns cache key options for artifact rendering.
func (o *Options) ArtifactKeyOpts(format string) cache.ArtifactKeyOpts {
	return cache.ArtifactKeyOpts{
		Format:  format,
		Delta:   o.Delta,
		Samples: o.Samples,
		Size:    o.Size,
		Legend:  o.Legend,
		Nominal: o.NominalDensity,
	}
}

// NameOf strips directories and matrix extensions from a path:
// "data/bcsstk01.mtx.gz" becomes "bcsstk01".
func NameOf(path string) string {
	if path == "" {
		return "matrix"
	}
	name := filepath.Base(path)
	for _, ext := range []string{".gz", ".zst", ".zstd", ".mtx", ".bins", ".txt"} {
		name = strings.TrimSuffix(name, ext)
	}
	return name
}
