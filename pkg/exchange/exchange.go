// Package exchange encodes binned grids as plain text.
//
// The format is used between processes and as the cache encoding of a
// grid. The first line holds five integers:
//
//	M N m_rate n_rate grid_cols
//
// followed by one "row col count" line per non-empty cell:
//
//	1000 1000 10 10 100
//	0 0 100
//	99 99 1
//
// Readers accept cells in any order; omitted cells are zero and repeated
// cells add up.
package exchange

import (
	"bufio"
	"io"
	"strconv"
	"strings"

	"github.com/matzehuels/mtxspy/pkg/binning"
	"github.com/matzehuels/mtxspy/pkg/errors"
)

// MaxCells bounds the grid size a reader will allocate.
const MaxCells = 1 << 26

// Write encodes g to w, listing non-empty cells in row-major order.
func Write(w io.Writer, g *binning.Grid) error {
	bw := bufio.NewWriter(w)
	buf := make([]byte, 0, 64)

	buf = appendInts(buf[:0], g.M, g.N, g.MRate, g.NRate, g.Cols)
	if _, err := bw.Write(buf); err != nil {
		return err
	}

	var werr error
	g.Each(func(r, c int, count int64) {
		if werr != nil {
			return
		}
		buf = strconv.AppendInt(buf[:0], int64(r), 10)
		buf = append(buf, ' ')
		buf = strconv.AppendInt(buf, int64(c), 10)
		buf = append(buf, ' ')
		buf = strconv.AppendInt(buf, count, 10)
		buf = append(buf, '\n')
		_, werr = bw.Write(buf)
	})
	if werr != nil {
		return werr
	}
	return bw.Flush()
}

// Read decodes a grid written by [Write]. It fails with MALFORMED_INPUT on
// a bad header, a cell outside the grid, a negative count or a count larger
// than the number of matrix entries the cell covers.
func Read(r io.Reader) (*binning.Grid, error) {
	sc := bufio.NewScanner(r)
	lineNo := 0
	next := func() (string, bool) {
		for sc.Scan() {
			lineNo++
			if line := strings.TrimSpace(sc.Text()); line != "" {
				return line, true
			}
		}
		return "", false
	}

	header, ok := next()
	if !ok {
		if err := sc.Err(); err != nil {
			return nil, errors.Wrap(errors.ErrCodeMalformedInput, err, "read exchange header")
		}
		return nil, errors.New(errors.ErrCodeMalformedInput, "exchange header not found")
	}
	h, err := parseInts(header, 5, strconv.IntSize)
	if err != nil {
		return nil, errors.New(errors.ErrCodeMalformedInput, "exchange header %q: %v", header, err)
	}
	layout, err := binning.LayoutFromRates(int(h[0]), int(h[1]), int(h[2]), int(h[3]), int(h[4]))
	if err != nil {
		return nil, err
	}
	if float64(layout.Rows)*float64(layout.Cols) > MaxCells {
		return nil, errors.New(errors.ErrCodeMalformedInput, "exchange grid of %dx%d cells is too large", layout.Rows, layout.Cols)
	}

	acc := binning.NewAccumulator(layout)
	for {
		line, ok := next()
		if !ok {
			break
		}
		v, err := parseInts(line, 3, 64)
		if err != nil {
			return nil, errors.New(errors.ErrCodeMalformedInput, "line %d %q: %v", lineNo, line, err)
		}
		if err := acc.AddCell(int(v[0]), int(v[1]), v[2]); err != nil {
			return nil, errors.Wrap(errors.ErrCodeMalformedInput, err, "line %d", lineNo)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeMalformedInput, err, "read exchange cells")
	}
	return acc.Grid(), nil
}

// parseInts parses exactly want integers that fit in bitSize bits.
func parseInts(line string, want, bitSize int) ([]int64, error) {
	fields := strings.Fields(line)
	if len(fields) != want {
		return nil, errors.New(errors.ErrCodeMalformedInput, "want %d integers, got %d fields", want, len(fields))
	}
	out := make([]int64, want)
	for i, f := range fields {
		v, err := strconv.ParseInt(f, 10, bitSize)
		if err != nil {
			return nil, errors.New(errors.ErrCodeMalformedInput, "%q is not an integer", f)
		}
		out[i] = v
	}
	return out, nil
}

func appendInts(buf []byte, vals ...int) []byte {
	for i, v := range vals {
		if i > 0 {
			buf = append(buf, ' ')
		}
		buf = strconv.AppendInt(buf, int64(v), 10)
	}
	return append(buf, '\n')
}
