package mtx

import (
	"bufio"
	"bytes"
	"io"
	"sync"
	"sync/atomic"

	"github.com/matzehuels/mtxspy/pkg/binning"
	"github.com/matzehuels/mtxspy/pkg/errors"
)

// Option configures how entries are read.
type Option func(*entryParser)

// WithSkipZeros drops stored entries whose value is exactly zero. Pattern
// matrices have no values and keep every entry.
func WithSkipZeros() Option {
	return func(p *entryParser) { p.skipZeros = true }
}

// Matrix is a Matrix Market coordinate file that can be scanned for its
// nonzero coordinates. It satisfies [binning.Sharded].
//
// A Matrix is backed either by bytes (memory-mapped or in memory), which
// can be scanned repeatedly and split into shards, or by a stream, which is
// reopened on every scan and is never split. A Matrix created by
// [NewReader] can be scanned once.
type Matrix struct {
	Header

	parser entryParser
	body   []byte // entry lines for byte-backed matrices

	reopen func() (io.ReadCloser, error) // compressed files
	lines  *lineReader                   // single-use readers
	used   bool

	closeOnce sync.Once
	closer    func() error

	seen atomic.Int64 // stored entries counted by shards since Shards
}

var _ binning.Sharded = (*Matrix)(nil)

// Dims returns the matrix shape.
func (m *Matrix) Dims() (rows, cols int) {
	return m.Rows, m.Cols
}

// Scan calls fn for every nonzero with 0-based coordinates. Entries of
// symmetric, skew-symmetric and hermitian matrices are mirrored across the
// diagonal. Scan fails with MALFORMED_INPUT if the file holds a different
// number of entries than its size line declares.
func (m *Matrix) Scan(fn func(row, col int) error) error {
	n, err := m.scanAll(fn)
	if err != nil {
		return err
	}
	return m.checkCount(n)
}

func (m *Matrix) scanAll(fn func(row, col int) error) (int64, error) {
	switch {
	case m.body != nil:
		return m.scanBytes(m.body, fn)
	case m.reopen != nil:
		rc, err := m.reopen()
		if err != nil {
			return 0, err
		}
		defer rc.Close()
		lr := newLineReader(rc)
		if _, err := readHeader(lr.next); err != nil {
			return 0, err
		}
		return m.scanLines(lr, fn)
	case m.lines != nil:
		if m.used {
			return 0, errors.New(errors.ErrCodeUnsupported, "stream matrix can only be scanned once")
		}
		m.used = true
		return m.scanLines(m.lines, fn)
	default:
		// Header-only input with no entry lines.
		return 0, nil
	}
}

// Shards splits a byte-backed matrix into at most n parts at line
// boundaries. Stream-backed matrices yield a single shard. Calling Shards
// resets the entry count checked by [Matrix.Finish].
func (m *Matrix) Shards(n int) []binning.Source {
	m.seen.Store(0)
	if m.body == nil || n <= 1 {
		return []binning.Source{shard{m: m}}
	}

	var shards []binning.Source
	rest := m.body
	size := len(rest)/n + 1
	for len(rest) > 0 {
		cut := min(size, len(rest))
		if i := bytes.IndexByte(rest[cut-1:], '\n'); i >= 0 {
			cut += i
		} else {
			cut = len(rest)
		}
		shards = append(shards, shard{m: m, body: rest[:cut]})
		rest = rest[cut:]
	}
	if len(shards) == 0 {
		shards = append(shards, shard{m: m, body: []byte{}})
	}
	return shards
}

// Finish checks the entries seen by all shards against the size line.
func (m *Matrix) Finish() error {
	return m.checkCount(m.seen.Load())
}

// Close releases the mapping or file behind the matrix.
func (m *Matrix) Close() error {
	var err error
	m.closeOnce.Do(func() {
		if m.closer != nil {
			err = m.closer()
		}
	})
	return err
}

func (m *Matrix) checkCount(n int64) error {
	if n != m.Entries {
		return errors.New(errors.ErrCodeMalformedInput, "size line declares %d entries, found %d", m.Entries, n)
	}
	return nil
}

func (m *Matrix) scanBytes(body []byte, fn func(row, col int) error) (int64, error) {
	var count int64
	for len(body) > 0 {
		line := body
		if i := bytes.IndexByte(body, '\n'); i >= 0 {
			line, body = body[:i], body[i+1:]
		} else {
			body = nil
		}
		n, err := m.parser.parse(line, fn)
		if err != nil {
			return count, err
		}
		count += n
	}
	return count, nil
}

func (m *Matrix) scanLines(lr *lineReader, fn func(row, col int) error) (int64, error) {
	var count int64
	for {
		line, ok := lr.next()
		if !ok {
			return count, lr.err()
		}
		n, err := m.parser.parse(line, fn)
		if err != nil {
			return count, err
		}
		count += n
	}
}

// shard is one part of the entry lines of a matrix.
type shard struct {
	m    *Matrix
	body []byte
}

func (s shard) Dims() (rows, cols int) { return s.m.Dims() }

func (s shard) Scan(fn func(row, col int) error) error {
	var (
		n   int64
		err error
	)
	if s.body != nil {
		n, err = s.m.scanBytes(s.body, fn)
	} else {
		n, err = s.m.scanAll(fn)
	}
	s.m.seen.Add(n)
	return err
}

// lineReader yields lines from a stream without their terminators.
type lineReader struct {
	sc *bufio.Scanner
}

// maxLineBytes bounds a single line, which bounds comment lines in practice.
const maxLineBytes = 16 << 20

func newLineReader(r io.Reader) *lineReader {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64<<10), maxLineBytes)
	return &lineReader{sc: sc}
}

func (lr *lineReader) next() ([]byte, bool) {
	if !lr.sc.Scan() {
		return nil, false
	}
	return lr.sc.Bytes(), true
}

func (lr *lineReader) err() error {
	if err := lr.sc.Err(); err != nil {
		return errors.Wrap(errors.ErrCodeMalformedInput, err, "read matrix")
	}
	return nil
}

// byteLines returns a next function over data and a function reporting
// the offset just past the last line returned.
func byteLines(data []byte) (next func() ([]byte, bool), offset func() int) {
	off := 0
	next = func() ([]byte, bool) {
		if off >= len(data) {
			return nil, false
		}
		rest := data[off:]
		if i := bytes.IndexByte(rest, '\n'); i >= 0 {
			off += i + 1
			return rest[:i], true
		}
		off = len(data)
		return rest, true
	}
	return next, func() int { return off }
}
