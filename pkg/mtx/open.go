package mtx

import (
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/edsrzf/mmap-go"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"

	"github.com/matzehuels/mtxspy/pkg/errors"
)

// Open opens a Matrix Market file. Plain files are memory-mapped; files
// ending in .gz, .zst or .zstd are decompressed as a stream on every scan.
// The caller must Close the returned matrix.
func Open(path string, opts ...Option) (*Matrix, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".gz":
		return openCompressed(path, opts, func(r io.Reader) (io.ReadCloser, error) {
			return gzip.NewReader(r)
		})
	case ".zst", ".zstd":
		return openCompressed(path, opts, func(r io.Reader) (io.ReadCloser, error) {
			dec, err := zstd.NewReader(r)
			if err != nil {
				return nil, err
			}
			return dec.IOReadCloser(), nil
		})
	default:
		return openMapped(path, opts)
	}
}

// Parse reads a matrix held in memory. data must not change while the
// matrix is in use.
func Parse(data []byte, opts ...Option) (*Matrix, error) {
	next, offset := byteLines(data)
	h, err := readHeader(next)
	if err != nil {
		return nil, err
	}
	m := newMatrix(h, opts)
	m.body = data[offset():]
	return m, nil
}

// NewReader reads a matrix from a stream. The header is consumed
// immediately; the entries can be scanned once.
func NewReader(r io.Reader, opts ...Option) (*Matrix, error) {
	lr := newLineReader(r)
	h, err := readHeader(lr.next)
	if err != nil {
		if rerr := lr.err(); rerr != nil {
			return nil, rerr
		}
		return nil, err
	}
	m := newMatrix(h, opts)
	m.lines = lr
	return m, nil
}

func newMatrix(h Header, opts []Option) *Matrix {
	m := &Matrix{Header: h}
	m.parser.header = h
	for _, opt := range opts {
		opt(&m.parser)
	}
	return m
}

func openFile(path string) (*os.File, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "open %s", path)
		}
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "open %s", path)
	}
	return f, nil
}

func openMapped(path string, opts []Option) (*Matrix, error) {
	f, err := openFile(path)
	if err != nil {
		return nil, err
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "stat %s", path)
	}
	if info.Size() == 0 {
		f.Close()
		return nil, errors.New(errors.ErrCodeMalformedInput, "%s is empty", path)
	}

	data, err := mmap.Map(f, mmap.RDONLY, 0)
	if err != nil {
		f.Close()
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "mmap %s", path)
	}
	release := func() error {
		uerr := data.Unmap()
		cerr := f.Close()
		if uerr != nil {
			return uerr
		}
		return cerr
	}

	m, err := Parse(data, opts...)
	if err != nil {
		release()
		return nil, err
	}
	m.closer = release
	return m, nil
}

type decompressor func(io.Reader) (io.ReadCloser, error)

func openCompressed(path string, opts []Option, decompress decompressor) (*Matrix, error) {
	reopen := func() (io.ReadCloser, error) {
		f, err := openFile(path)
		if err != nil {
			return nil, err
		}
		dec, err := decompress(f)
		if err != nil {
			f.Close()
			return nil, errors.Wrap(errors.ErrCodeMalformedInput, err, "decompress %s", path)
		}
		return &stackedCloser{ReadCloser: dec, file: f}, nil
	}

	rc, err := reopen()
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	lr := newLineReader(rc)
	h, err := readHeader(lr.next)
	if err != nil {
		if rerr := lr.err(); rerr != nil {
			return nil, rerr
		}
		return nil, err
	}
	m := newMatrix(h, opts)
	m.reopen = reopen
	return m, nil
}

// stackedCloser closes a decompressor and then the file beneath it.
type stackedCloser struct {
	io.ReadCloser
	file *os.File
}

func (c *stackedCloser) Close() error {
	err := c.ReadCloser.Close()
	if ferr := c.file.Close(); err == nil {
		err = ferr
	}
	return err
}
