package binning

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/mtxspy/pkg/errors"
)

func TestNewLayout(t *testing.T) {
	tests := []struct {
		name      string
		m, n, res int
		want      Layout
	}{
		{
			"square exact", 1000, 1000, 100,
			Layout{M: 1000, N: 1000, Rows: 100, Cols: 100, MRate: 10, NRate: 10},
		},
		{
			"square coarse", 1000, 1000, 10,
			Layout{M: 1000, N: 1000, Rows: 10, Cols: 10, MRate: 100, NRate: 100},
		},
		{
			"square not divisible", 1050, 1050, 100,
			Layout{M: 1050, N: 1050, Rows: 96, Cols: 96, MRate: 11, NRate: 11},
		},
		{
			"tall", 1000, 100, 100,
			Layout{M: 1000, N: 100, Rows: 100, Cols: 10, MRate: 10, NRate: 10},
		},
		{
			"wide keeps the budget on columns", 10, 1_000_000, 120,
			Layout{M: 10, N: 1_000_000, Rows: 1, Cols: 120, MRate: 10, NRate: 8334},
		},
		{
			"smaller than resolution", 7, 5, 120,
			Layout{M: 7, N: 5, Rows: 7, Cols: 5, MRate: 1, NRate: 1},
		},
		{
			"single entry", 1, 1, 1,
			Layout{M: 1, N: 1, Rows: 1, Cols: 1, MRate: 1, NRate: 1},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NewLayout(tt.m, tt.n, tt.res)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.GreaterOrEqual(t, got.Rows*got.MRate, tt.m)
			assert.GreaterOrEqual(t, got.Cols*got.NRate, tt.n)
		})
	}
}

func TestNewLayoutErrors(t *testing.T) {
	_, err := NewLayout(0, 10, 10)
	assert.True(t, errors.Is(err, errors.ErrCodeMalformedInput), "zero rows: %v", err)

	_, err = NewLayout(10, -1, 10)
	assert.True(t, errors.Is(err, errors.ErrCodeMalformedInput), "negative cols: %v", err)

	_, err = NewLayout(10, 10, 0)
	assert.True(t, errors.Is(err, errors.ErrCodeInvalidOption), "zero resolution: %v", err)
}

func TestLayoutFromRates(t *testing.T) {
	l, err := LayoutFromRates(1000, 1000, 10, 10, 100)
	require.NoError(t, err)
	assert.Equal(t, 100, l.Rows)

	// Extra trailing columns are accepted.
	l, err = LayoutFromRates(1000, 1000, 10, 10, 105)
	require.NoError(t, err)
	assert.Equal(t, 105, l.Cols)
	rows, cols := l.Extent(0, 104)
	assert.Equal(t, 10, rows)
	assert.Equal(t, 0, cols)

	_, err = LayoutFromRates(1000, 1000, 10, 10, 99)
	assert.True(t, errors.Is(err, errors.ErrCodeMalformedInput))

	_, err = LayoutFromRates(1000, 1000, 0, 10, 100)
	assert.True(t, errors.Is(err, errors.ErrCodeMalformedInput))
}

func TestLayoutFromRatesRejects(t *testing.T) {
	const huge = math.MaxInt - 1
	tests := []struct {
		name                     string
		m, n, mRate, nRate, cols int
	}{
		{"row rate near max int", 3, 3, huge, 1, 3},
		{"col rate near max int", 3, 3, 1, huge, 1},
		{"row rate above rows", 10, 10, 11, 5, 2},
		{"col rate above cols", 10, 10, 5, 11, 1},
		{"zero cols", 10, 10, 5, 5, 0},
		{"cols far beyond matrix", 2, 2, 1, 1, 1 << 25},
		{"cols beyond budget", 10, 10, 2, 2, 11},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LayoutFromRates(tt.m, tt.n, tt.mRate, tt.nRate, tt.cols)
			assert.True(t, errors.Is(err, errors.ErrCodeMalformedInput), "got %v", err)
		})
	}
}

func TestLayoutHugeShape(t *testing.T) {
	l, err := LayoutFromRates(math.MaxInt, math.MaxInt, math.MaxInt/2, math.MaxInt/2, 3)
	require.NoError(t, err)
	assert.Equal(t, 3, l.Rows)

	lo, hi := l.ColSpan(2)
	assert.Equal(t, math.MaxInt-1, lo)
	assert.Equal(t, math.MaxInt, hi)
	assert.EqualValues(t, math.MaxInt64, l.Area(0, 0, false))
}

func TestLayoutExtent(t *testing.T) {
	l, err := NewLayout(1050, 1050, 100)
	require.NoError(t, err)

	rows, cols := l.Extent(0, 0)
	assert.Equal(t, 11, rows)
	assert.Equal(t, 11, cols)

	// 95*11 = 1045, so the last block covers 5 indices.
	rows, cols = l.Extent(95, 95)
	assert.Equal(t, 5, rows)
	assert.Equal(t, 5, cols)

	assert.EqualValues(t, 25, l.Area(95, 95, false))
	assert.EqualValues(t, 121, l.Area(95, 95, true))

	lo, hi := l.RowSpan(95)
	assert.Equal(t, 1045, lo)
	assert.Equal(t, 1050, hi)
}

func TestLayoutLocate(t *testing.T) {
	l, err := NewLayout(1000, 1000, 10)
	require.NoError(t, err)

	r, c, err := l.Locate(999, 999)
	require.NoError(t, err)
	assert.Equal(t, 9, r)
	assert.Equal(t, 9, c)

	for _, p := range [][2]int{{-1, 0}, {0, -1}, {1000, 0}, {0, 1000}} {
		_, _, err := l.Locate(p[0], p[1])
		assert.True(t, errors.Is(err, errors.ErrCodeMalformedInput), "Locate(%d, %d)", p[0], p[1])
	}
}
