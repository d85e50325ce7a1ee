package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/mtxspy/pkg/binning"
	"github.com/matzehuels/mtxspy/pkg/cache"
	"github.com/matzehuels/mtxspy/pkg/exchange"
	"github.com/matzehuels/mtxspy/pkg/observability"
	"github.com/matzehuels/mtxspy/pkg/render"
	"github.com/matzehuels/mtxspy/pkg/render/sink"
	"github.com/matzehuels/mtxspy/pkg/stats"
)

// Runner encapsulates pipeline execution with caching.
//
// The Runner is stateless except for the cache and logger - it doesn't
// store pipeline results. Multiple goroutines can safely use the same
// Runner with different options; the batch hooks Progress and Done are
// called from the goroutine running ExecuteBatch.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger

	// Progress, if set, is called by ExecuteBatch before item i of total
	// starts.
	Progress func(i, total int, opts Options)

	// Done, if set, is called by ExecuteBatch as soon as item i of total
	// finished, successfully or not. It may consume the item's artifacts
	// and drop them to bound memory over a long batch.
	Done func(i, total int, item *BatchResult)
}

// NewRunner creates a runner with the given cache and keyer.
// If keyer is nil, a DefaultKeyer is used.
// If cache is nil, a NullCache is used (caching disabled).
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Cache:  c,
		Keyer:  keyer,
		Logger: logger,
	}
}

// Execute runs the complete load → bin → render pipeline with caching.
// The context is checked between stages.
func (r *Runner) Execute(ctx context.Context, opts Options) (*Result, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}

	result := &Result{}

	// Stage 1 and 2: Load and bin
	g, gridHit, err := r.BinWithCacheInfo(ctx, opts, &result.Stats)
	if err != nil {
		return nil, err
	}
	result.Grid = g
	result.CacheInfo.GridHit = gridHit
	result.Summary = stats.Summarize(g, opts.NominalDensity)

	opts.Logger.Info("binned matrix",
		"matrix", opts.Name,
		"shape", fmt.Sprintf("%dx%d", g.M, g.N),
		"nnz", g.NNZ,
		"grid", fmt.Sprintf("%dx%d", g.Rows, g.Cols),
		"cached", gridHit)

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// Stage 3: Render
	renderStart := time.Now()
	plot, artifacts, renderHit, err := r.renderStage(ctx, g, opts, &result.Summary)
	if err != nil {
		return nil, err
	}
	result.Window = plot.Window
	result.GridHash = gridHash(g)
	result.Artifacts = artifacts
	result.Stats.RenderTime = time.Since(renderStart)
	result.CacheInfo.RenderHit = renderHit

	opts.Logger.Info("rendered outputs",
		"matrix", opts.Name,
		"formats", opts.Formats,
		"duration", result.Stats.RenderTime,
		"cached", renderHit)

	return result, nil
}

// BinWithCacheInfo loads and bins the input with caching and returns cache
// hit info. Exchange inputs are read directly and never cached. When st is
// not nil it receives shape and timing information.
func (r *Runner) BinWithCacheInfo(ctx context.Context, opts Options, st *Stats) (*binning.Grid, bool, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateForBin(); err != nil {
		return nil, false, err
	}
	if st == nil {
		st = &Stats{}
	}

	if opts.Bins {
		start := time.Now()
		g, err := ReadBins(opts)
		if err != nil {
			return nil, false, err
		}
		st.Rows, st.Cols, st.NNZ = g.M, g.N, g.NNZ
		st.LoadTime = time.Since(start)
		return g, false, nil
	}

	fp, err := fingerprint(opts)
	if err != nil {
		// Missing files are reported by Load with a proper code.
		fp = ""
	}
	cacheKey := r.Keyer.GridKey(fp, opts.GridKeyOpts())

	if !opts.Refresh && fp != "" {
		if g, ok := r.cachedGrid(ctx, cacheKey); ok {
			st.Rows, st.Cols, st.NNZ = g.M, g.N, g.NNZ
			return g, true, nil
		}
	}

	loadStart := time.Now()
	m, err := Load(ctx, opts)
	if err != nil {
		return nil, false, err
	}
	defer m.Close()
	st.Rows, st.Cols, st.Entries = m.Rows, m.Cols, m.Entries
	st.LoadTime = time.Since(loadStart)

	if err := ctx.Err(); err != nil {
		return nil, false, err
	}

	binStart := time.Now()
	g, err := Bin(ctx, m, opts)
	if err != nil {
		return nil, false, err
	}
	st.NNZ = g.NNZ
	st.BinTime = time.Since(binStart)

	if fp != "" {
		var buf bytes.Buffer
		if err := exchange.Write(&buf, g); err == nil {
			if err := r.Cache.Set(ctx, cacheKey, buf.Bytes(), cache.TTLGrid); err != nil {
				opts.Logger.Warn("cache write failed", "key", cacheKey, "err", err)
			} else {
				observability.Cache().OnCacheSet(ctx, "grid", buf.Len())
			}
		}
	}
	return g, false, nil
}

// Bin is a convenience wrapper that calls BinWithCacheInfo and discards the cache hit info.
func (r *Runner) Bin(ctx context.Context, opts Options) (*binning.Grid, error) {
	g, _, err := r.BinWithCacheInfo(ctx, opts, nil)
	return g, err
}

func (r *Runner) cachedGrid(ctx context.Context, key string) (*binning.Grid, bool) {
	data, hit, err := r.Cache.Get(ctx, key)
	if err != nil || !hit {
		observability.Cache().OnCacheMiss(ctx, "grid")
		return nil, false
	}
	g, err := exchange.Read(bytes.NewReader(data))
	if err != nil {
		// Unreadable entries are recomputed and overwritten.
		observability.Cache().OnCacheMiss(ctx, "grid")
		return nil, false
	}
	observability.Cache().OnCacheHit(ctx, "grid")
	return g, true
}

// RenderWithCacheInfo renders g in every requested format with caching and
// returns cache hit info. The plot is always prepared, so an invalid
// window fails even when artifacts are cached.
func (r *Runner) RenderWithCacheInfo(ctx context.Context, g *binning.Grid, opts Options) (*render.Plot, map[string][]byte, bool, error) {
	return r.renderStage(ctx, g, opts, nil)
}

// renderStage implements RenderWithCacheInfo. summary, when not nil, is the
// already computed summary of g.
func (r *Runner) renderStage(ctx context.Context, g *binning.Grid, opts Options, summary *stats.Summary) (*render.Plot, map[string][]byte, bool, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateForRender(); err != nil {
		return nil, nil, false, err
	}

	hooks := observability.Pipeline()
	hooks.OnRenderStart(ctx, opts.Formats)
	start := time.Now()

	plot, err := render.Prepare(g, opts.RenderOptions())
	if err != nil {
		hooks.OnRenderComplete(ctx, opts.Formats, time.Since(start), err)
		return nil, nil, false, err
	}

	hash := gridHash(g)
	artifacts := make(map[string][]byte, len(opts.Formats))
	if !opts.Refresh {
		for _, format := range opts.Formats {
			key := r.Keyer.ArtifactKey(hash, opts.ArtifactKeyOpts(format))
			data, hit, err := r.Cache.Get(ctx, key)
			if err != nil || !hit {
				observability.Cache().OnCacheMiss(ctx, "artifact")
				break
			}
			observability.Cache().OnCacheHit(ctx, "artifact")
			artifacts[format] = data
		}
		if len(artifacts) == len(opts.Formats) {
			hooks.OnRenderComplete(ctx, opts.Formats, time.Since(start), nil)
			return plot, artifacts, true, nil
		}
	}

	rendered, err := renderPlot(plot, opts, summary)
	if err != nil {
		hooks.OnRenderComplete(ctx, opts.Formats, time.Since(start), err)
		return nil, nil, false, err
	}

	for format, data := range rendered {
		key := r.Keyer.ArtifactKey(hash, opts.ArtifactKeyOpts(format))
		if err := r.Cache.Set(ctx, key, data, cache.TTLArtifact); err != nil {
			opts.Logger.Warn("cache write failed", "key", key, "err", err)
			continue
		}
		observability.Cache().OnCacheSet(ctx, "artifact", len(data))
	}

	hooks.OnRenderComplete(ctx, opts.Formats, time.Since(start), nil)
	return plot, rendered, false, nil
}

// Render is a convenience wrapper that calls RenderWithCacheInfo and discards the cache hit info.
func (r *Runner) Render(ctx context.Context, g *binning.Grid, opts Options) (map[string][]byte, error) {
	_, artifacts, _, err := r.RenderWithCacheInfo(ctx, g, opts)
	return artifacts, err
}

// renderPlot produces every requested format. All formats are rendered
// before any is returned. A nil summary is computed when JSON needs it.
func renderPlot(p *render.Plot, opts Options, summary *stats.Summary) (map[string][]byte, error) {
	artifacts := make(map[string][]byte, len(opts.Formats))
	for _, name := range opts.Formats {
		format, err := sink.ParseFormat(name)
		if err != nil {
			return nil, err
		}

		var data []byte
		switch format {
		case sink.FormatSVG:
			data = sink.RenderSVG(p, sink.WithTitle(opts.Name), sink.WithTooltips())
		case sink.FormatJSON:
			if summary == nil {
				s := stats.Summarize(p.Grid, opts.NominalDensity)
				summary = &s
			}
			data, err = sink.RenderJSON(p,
				sink.WithJSONName(opts.Name),
				sink.WithJSONStats(*summary))
		default:
			data, err = sink.Render(p, format)
		}
		if err != nil {
			return nil, fmt.Errorf("render %s: %w", name, err)
		}
		artifacts[name] = data
	}
	return artifacts, nil
}

// BatchResult is the outcome of one matrix in a batch run.
type BatchResult struct {
	Options Options
	Result  *Result
	Err     error
}

// ExecuteBatch runs every options set in order. A failing matrix is
// reported in its BatchResult and does not stop the batch; only context
// cancellation does, leaving the remaining items with the context error.
func (r *Runner) ExecuteBatch(ctx context.Context, batch []Options) []BatchResult {
	results := make([]BatchResult, len(batch))
	for i, opts := range batch {
		results[i].Options = opts
		if err := ctx.Err(); err != nil {
			results[i].Err = err
			continue
		}
		if r.Progress != nil {
			r.Progress(i, len(batch), opts)
		}
		res, err := r.Execute(ctx, opts)
		if err != nil {
			r.Logger.Error("matrix failed", "matrix", opts.Name, "input", opts.Input, "err", err)
		}
		results[i].Result, results[i].Err = res, err
		if r.Done != nil {
			r.Done(i, len(batch), &results[i])
		}
	}
	return results
}

// Close releases resources held by the runner (primarily the cache).
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

// applyLogger sets the runner's logger on options if not already set.
func (r *Runner) applyLogger(opts *Options) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
}

func gridHash(g *binning.Grid) string {
	var buf bytes.Buffer
	_ = exchange.Write(&buf, g)
	return cache.Hash(buf.Bytes())
}
