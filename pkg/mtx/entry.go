package mtx

import (
	"strconv"

	"github.com/matzehuels/mtxspy/pkg/errors"
)

// entryParser turns coordinate lines into 0-based nonzero coordinates.
type entryParser struct {
	header    Header
	skipZeros bool
}

// parse handles one entry line and calls emit for each nonzero it stands
// for: one for general storage, two for a mirrored off-diagonal entry and
// none for a skipped explicit zero. It returns the number of stored entries
// the line held (0 for blank and comment lines).
func (p *entryParser) parse(line []byte, emit func(row, col int) error) (int64, error) {
	if isSkippable(line) {
		return 0, nil
	}

	i, rest, ok := parseIndex(line)
	if !ok {
		return 0, malformedEntry(line)
	}
	j, rest, ok := parseIndex(rest)
	if !ok {
		return 0, malformedEntry(line)
	}

	if p.skipZeros && p.header.Field != FieldPattern {
		zero, err := p.isZero(rest)
		if err != nil {
			return 0, malformedEntry(line)
		}
		if zero {
			return 1, nil
		}
	}

	// Matrix Market indices are 1-based.
	row, col := i-1, j-1
	if err := emit(row, col); err != nil {
		return 0, err
	}
	if p.header.Mirrored() && row != col {
		if err := emit(col, row); err != nil {
			return 0, err
		}
	}
	return 1, nil
}

// isZero reports whether the value tokens of an entry are all zero.
func (p *entryParser) isZero(rest []byte) (bool, error) {
	want := 1
	if p.header.Field == FieldComplex {
		want = 2
	}
	for range want {
		var tok []byte
		tok, rest = nextToken(rest)
		if tok == nil {
			return false, errors.New(errors.ErrCodeMalformedInput, "missing value")
		}
		v, err := strconv.ParseFloat(string(tok), 64)
		if err != nil {
			return false, err
		}
		if v != 0 {
			return false, nil
		}
	}
	return true, nil
}

func malformedEntry(line []byte) error {
	const maxShown = 80
	if len(line) > maxShown {
		line = line[:maxShown]
	}
	return errors.New(errors.ErrCodeMalformedInput, "invalid entry line %q", line)
}

// parseIndex reads a non-negative decimal integer after optional leading
// blanks. The integer must be followed by a blank or the end of the line.
func parseIndex(b []byte) (int, []byte, bool) {
	b = skipBlanks(b)
	n, i := 0, 0
	for ; i < len(b) && b[i] >= '0' && b[i] <= '9'; i++ {
		if n > (maxIndex-int(b[i]-'0'))/10 {
			return 0, nil, false
		}
		n = n*10 + int(b[i]-'0')
	}
	if i == 0 || (i < len(b) && !isBlank(b[i])) {
		return 0, nil, false
	}
	return n, b[i:], true
}

// maxIndex keeps parsed indices within 32-bit range on every platform.
const maxIndex = 1<<31 - 1

func nextToken(b []byte) (tok, rest []byte) {
	b = skipBlanks(b)
	i := 0
	for i < len(b) && !isBlank(b[i]) {
		i++
	}
	if i == 0 {
		return nil, b
	}
	return b[:i], b[i:]
}

func skipBlanks(b []byte) []byte {
	for len(b) > 0 && isBlank(b[0]) {
		b = b[1:]
	}
	return b
}

func isBlank(c byte) bool {
	return c == ' ' || c == '\t' || c == '\r'
}
