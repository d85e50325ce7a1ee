package mtx

import (
	"bytes"
	"strconv"
	"strings"

	"github.com/matzehuels/mtxspy/pkg/errors"
)

// Banner is the first token of every Matrix Market file.
const Banner = "%%MatrixMarket"

// Field is the value type of the stored entries.
type Field string

// Supported fields. Only the presence of an entry matters for binning, so
// every field is accepted; values are only parsed to detect explicit zeros.
const (
	FieldReal    Field = "real"
	FieldInteger Field = "integer"
	FieldComplex Field = "complex"
	FieldPattern Field = "pattern"
)

// Symmetry describes which entries are stored.
type Symmetry string

// Supported symmetry kinds. For anything but general storage only one
// triangle is stored and the other is implied.
const (
	General       Symmetry = "general"
	Symmetric     Symmetry = "symmetric"
	SkewSymmetric Symmetry = "skew-symmetric"
	Hermitian     Symmetry = "hermitian"
)

var validFields = map[Field]bool{
	FieldReal:    true,
	FieldInteger: true,
	FieldComplex: true,
	FieldPattern: true,
}

var validSymmetries = map[Symmetry]bool{
	General:       true,
	Symmetric:     true,
	SkewSymmetric: true,
	Hermitian:     true,
}

// Header is the parsed banner and size line of a coordinate file.
type Header struct {
	Field    Field
	Symmetry Symmetry
	Rows     int
	Cols     int
	Entries  int64 // stored entries declared on the size line
}

// Mirrored reports whether off-diagonal entries imply their transpose.
func (h Header) Mirrored() bool {
	return h.Symmetry != General
}

// String returns the banner line for the header.
func (h Header) String() string {
	return Banner + " matrix coordinate " + string(h.Field) + " " + string(h.Symmetry)
}

// readHeader consumes the banner, comments and size line. next returns the
// following line without its terminator, or ok=false at end of input.
func readHeader(next func() (line []byte, ok bool)) (Header, error) {
	line, ok := next()
	if !ok {
		return Header{}, errors.New(errors.ErrCodeMalformedInput, "empty input: Matrix Market banner not found")
	}
	h, err := parseBanner(string(line))
	if err != nil {
		return Header{}, err
	}

	for {
		line, ok = next()
		if !ok {
			return Header{}, errors.New(errors.ErrCodeMalformedInput, "size line not found")
		}
		if isSkippable(line) {
			continue
		}
		break
	}

	fields := strings.Fields(string(line))
	if len(fields) != 3 {
		return Header{}, errors.New(errors.ErrCodeMalformedInput, "size line must hold rows, cols and entries: %q", line)
	}
	rows, err1 := strconv.Atoi(fields[0])
	cols, err2 := strconv.Atoi(fields[1])
	entries, err3 := strconv.ParseInt(fields[2], 10, 64)
	if err1 != nil || err2 != nil || err3 != nil {
		return Header{}, errors.New(errors.ErrCodeMalformedInput, "size line does not parse as integers: %q", line)
	}
	if rows < 1 || cols < 1 || entries < 0 {
		return Header{}, errors.New(errors.ErrCodeMalformedInput, "invalid size %dx%d with %d entries", rows, cols, entries)
	}
	if h.Mirrored() && rows != cols {
		return Header{}, errors.New(errors.ErrCodeMalformedInput, "%s matrix must be square, got %dx%d", h.Symmetry, rows, cols)
	}

	h.Rows, h.Cols, h.Entries = rows, cols, entries
	return h, nil
}

func parseBanner(line string) (Header, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 || !strings.EqualFold(fields[0], Banner) {
		return Header{}, errors.New(errors.ErrCodeMalformedInput, "Matrix Market banner not found")
	}
	if len(fields) != 5 {
		return Header{}, errors.New(errors.ErrCodeMalformedInput, "banner must have 5 fields: %q", line)
	}
	for i := range fields {
		fields[i] = strings.ToLower(fields[i])
	}

	if fields[1] != "matrix" {
		return Header{}, errors.New(errors.ErrCodeUnsupported, "object %q is not a matrix", fields[1])
	}
	switch fields[2] {
	case "coordinate":
	case "array":
		return Header{}, errors.New(errors.ErrCodeUnsupported, "dense array format is not a sparse matrix")
	default:
		return Header{}, errors.New(errors.ErrCodeMalformedInput, "unknown format %q", fields[2])
	}

	h := Header{Field: Field(fields[3]), Symmetry: Symmetry(fields[4])}
	if !validFields[h.Field] {
		return Header{}, errors.New(errors.ErrCodeMalformedInput, "unknown field %q", fields[3])
	}
	if !validSymmetries[h.Symmetry] {
		return Header{}, errors.New(errors.ErrCodeMalformedInput, "unknown symmetry %q", fields[4])
	}
	return h, nil
}

// isSkippable reports whether a line is blank or a comment.
func isSkippable(line []byte) bool {
	line = bytes.TrimLeft(line, " \t\r")
	return len(line) == 0 || line[0] == '%'
}
