package compression

import (
	"bufio"
	"compress/bzip2"
	"compress/gzip"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/ulikunitz/xz"
)

// Format is a single-stream compression format.
type Format string

const (
	FormatNone  Format = ""
	FormatGzip  Format = "gz"
	FormatXz    Format = "xz"
	FormatBzip2 Format = "bz2" // read only
)

// DefaultMaxDecompressed caps how much a compressed import may expand to.
const DefaultMaxDecompressed = 4 << 30

// ErrSizeLimit is returned when decompressed data exceeds its limit.
var ErrSizeLimit = errors.New("decompression size limit exceeded")

// FormatFromPath picks a format from the file extension.
func FormatFromPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".gz", ".gzip":
		return FormatGzip
	case ".xz":
		return FormatXz
	case ".bz2":
		return FormatBzip2
	default:
		return FormatNone
	}
}

// StripExtension removes a recognised compression suffix, so
// "rows.csv.xz" becomes "rows.csv".
func StripExtension(path string) string {
	if FormatFromPath(path) == FormatNone {
		return path
	}
	return strings.TrimSuffix(path, filepath.Ext(path))
}

// NewWriter wraps w so writes are compressed in format. Closing the returned
// writer flushes the compressor but does not close w.
func NewWriter(w io.Writer, format Format) (io.WriteCloser, error) {
	switch format {
	case FormatNone:
		return nopWriteCloser{w}, nil
	case FormatGzip:
		return gzip.NewWriter(w), nil
	case FormatXz:
		xzw, err := xz.NewWriter(w)
		if err != nil {
			return nil, fmt.Errorf("failed to create xz writer: %w", err)
		}
		return xzw, nil
	default:
		return nil, fmt.Errorf("unsupported output compression %q", format)
	}
}

// NewReader wraps r so reads are decompressed from format, failing with
// ErrSizeLimit past maxBytes of output. maxBytes <= 0 uses
// DefaultMaxDecompressed.
func NewReader(r io.Reader, format Format, maxBytes int64) (io.ReadCloser, error) {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxDecompressed
	}

	switch format {
	case FormatNone:
		return io.NopCloser(r), nil
	case FormatGzip:
		gzr, err := gzip.NewReader(r)
		if err != nil {
			return nil, fmt.Errorf("failed to create gzip reader: %w", err)
		}
		return readCloser{NewLimitedReader(gzr, maxBytes), gzr}, nil
	case FormatXz:
		xzr, err := xz.NewReader(bufio.NewReader(r))
		if err != nil {
			return nil, fmt.Errorf("failed to create xz reader: %w", err)
		}
		return io.NopCloser(NewLimitedReader(xzr, maxBytes)), nil
	case FormatBzip2:
		return io.NopCloser(NewLimitedReader(bzip2.NewReader(r), maxBytes)), nil
	default:
		return nil, fmt.Errorf("unsupported input compression %q", format)
	}
}

// LimitedReader wraps an io.Reader and limits the total bytes that can be read.
type LimitedReader struct {
	R         io.Reader
	Remaining int64
}

// NewLimitedReader creates a new LimitedReader with the specified size limit.
func NewLimitedReader(r io.Reader, maxBytes int64) *LimitedReader {
	return &LimitedReader{R: r, Remaining: maxBytes}
}

// Read implements io.Reader with size limits. Reaching the limit exactly at
// the end of the stream is not an error.
func (l *LimitedReader) Read(p []byte) (int, error) {
	if l.Remaining <= 0 {
		var probe [1]byte
		if n, err := l.R.Read(probe[:]); n == 0 && err != nil {
			return 0, err
		}
		return 0, ErrSizeLimit
	}
	if int64(len(p)) > l.Remaining {
		p = p[:l.Remaining]
	}
	n, err := l.R.Read(p)
	l.Remaining -= int64(n)
	return n, err
}

type nopWriteCloser struct{ io.Writer }

func (nopWriteCloser) Close() error { return nil }

type readCloser struct {
	io.Reader
	io.Closer
}
