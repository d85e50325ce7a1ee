package pipeline

import (
	"bytes"
	"context"
	"os"
	"time"

	"github.com/matzehuels/mtxspy/pkg/binning"
	"github.com/matzehuels/mtxspy/pkg/cache"
	"github.com/matzehuels/mtxspy/pkg/errors"
	"github.com/matzehuels/mtxspy/pkg/exchange"
	"github.com/matzehuels/mtxspy/pkg/mtx"
	"github.com/matzehuels/mtxspy/pkg/observability"
)

// Load opens the matrix named by opts. The caller must Close it.
func Load(ctx context.Context, opts Options) (*mtx.Matrix, error) {
	hooks := observability.Pipeline()
	hooks.OnLoadStart(ctx, opts.Name)
	start := time.Now()

	var mtxOpts []mtx.Option
	if opts.SkipZeros {
		mtxOpts = append(mtxOpts, mtx.WithSkipZeros())
	}

	var (
		m   *mtx.Matrix
		err error
	)
	if opts.Data != nil {
		m, err = mtx.Parse(opts.Data, mtxOpts...)
	} else {
		m, err = mtx.Open(opts.Input, mtxOpts...)
	}
	if err != nil {
		hooks.OnLoadComplete(ctx, opts.Name, 0, 0, 0, time.Since(start), err)
		return nil, err
	}
	hooks.OnLoadComplete(ctx, opts.Name, m.Rows, m.Cols, m.Entries, time.Since(start), nil)
	return m, nil
}

// Bin reduces src to a grid using the binning options of opts.
func Bin(ctx context.Context, src binning.Source, opts Options) (*binning.Grid, error) {
	hooks := observability.Pipeline()
	hooks.OnBinStart(ctx, opts.Name, opts.Resolution)
	start := time.Now()

	g, err := binning.Bin(src, opts.Resolution, binning.WithWorkers(opts.Workers))
	if err != nil {
		hooks.OnBinComplete(ctx, opts.Name, 0, time.Since(start), err)
		return nil, err
	}
	hooks.OnBinComplete(ctx, opts.Name, g.NNZ, time.Since(start), nil)
	return g, nil
}

// ReadBins reads a grid in exchange format from opts.Data or opts.Input.
func ReadBins(opts Options) (*binning.Grid, error) {
	data := opts.Data
	if data == nil {
		var err error
		data, err = os.ReadFile(opts.Input)
		if os.IsNotExist(err) {
			return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "open %s", opts.Input)
		}
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInternal, err, "read %s", opts.Input)
		}
	}
	return exchange.Read(bytes.NewReader(data))
}

// fingerprint identifies the input for grid caching.
func fingerprint(opts Options) (string, error) {
	if opts.Data != nil {
		return cache.Hash(opts.Data), nil
	}
	return cache.FileFingerprint(opts.Input)
}
