package binning

import (
	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/mtxspy/pkg/errors"
)

// DefaultResolution is the default number of blocks along the longer axis.
const DefaultResolution = 120

// Source is a read-only stream of nonzero coordinates.
type Source interface {
	// Dims returns the matrix shape.
	Dims() (rows, cols int)

	// Scan calls fn once for every nonzero with 0-based coordinates and
	// stops at the first error fn returns.
	Scan(fn func(row, col int) error) error
}

// Sharded is a Source that can be split into independently scannable parts.
type Sharded interface {
	Source

	// Shards splits the source into at most n parts that together visit
	// every nonzero exactly once.
	Shards(n int) []Source

	// Finish validates the stream as a whole once every shard returned by
	// the latest Shards call has been scanned.
	Finish() error
}

// Option configures [Bin].
type Option func(*config)

type config struct {
	workers int
}

// WithWorkers bins sharded sources on n goroutines. Each worker owns a
// private partial grid; partial grids are summed element-wise at the end,
// which gives the same result as a sequential pass because cell counting
// is order independent. Sources that are not [Sharded] are always binned
// sequentially.
func WithWorkers(n int) Option {
	return func(c *config) { c.workers = n }
}

// Bin reduces src to a grid of nonzero counts with at most resolution
// blocks along the longer axis.
//
// Bin makes a single pass over the nonzeros and never materializes the
// matrix. It fails with MALFORMED_INPUT when a coordinate falls outside the
// matrix and with EMPTY_MATRIX when there are no nonzeros at all.
func Bin(src Source, resolution int, opts ...Option) (*Grid, error) {
	cfg := config{workers: 1}
	for _, opt := range opts {
		opt(&cfg)
	}

	m, n := src.Dims()
	layout, err := NewLayout(m, n, resolution)
	if err != nil {
		return nil, err
	}

	var acc *Accumulator
	if sh, ok := src.(Sharded); ok && cfg.workers > 1 {
		acc, err = binSharded(sh, layout, cfg.workers)
	} else {
		acc = NewAccumulator(layout)
		err = src.Scan(acc.Add)
	}
	if err != nil {
		return nil, err
	}

	if acc.NNZ() == 0 {
		return nil, errors.New(errors.ErrCodeEmptyMatrix, "%dx%d matrix has no nonzeros", m, n)
	}
	return acc.Grid(), nil
}

func binSharded(src Sharded, layout Layout, workers int) (*Accumulator, error) {
	shards := src.Shards(workers)
	partials := make([]*Accumulator, len(shards))

	var g errgroup.Group
	for i, shard := range shards {
		partials[i] = NewAccumulator(layout)
		acc := partials[i]
		g.Go(func() error {
			return shard.Scan(acc.Add)
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := src.Finish(); err != nil {
		return nil, err
	}

	total := NewAccumulator(layout)
	for _, p := range partials {
		total.Merge(p)
	}
	return total, nil
}
