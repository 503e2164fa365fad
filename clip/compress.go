package clip

import (
	"fmt"
	"io"

	"github.com/andybalholm/brotli"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
	"github.com/ulikunitz/xz"
)

// decompress wraps r in a reader for c. The returned close function
// releases decoder resources; it does not close r.
func decompress(r io.Reader, c Compression) (io.Reader, func(), error) {
	switch c {
	case Uncompressed:
		return r, func() {}, nil
	case Gzip:
		zr, err := gzip.NewReader(r)
		if err != nil {
			return nil, nil, fmt.Errorf("clip: gzip: %w", err)
		}
		return zr, func() { _ = zr.Close() }, nil
	case Zstd:
		zr, err := zstd.NewReader(r)
		if err != nil {
			return nil, nil, fmt.Errorf("clip: zstd: %w", err)
		}
		return zr, zr.Close, nil
	case XZ:
		xr, err := xz.NewReader(r)
		if err != nil {
			return nil, nil, fmt.Errorf("clip: xz: %w", err)
		}
		return xr, func() {}, nil
	case LZ4:
		return lz4.NewReader(r), func() {}, nil
	case Brotli:
		return brotli.NewReader(r), func() {}, nil
	default:
		return nil, nil, fmt.Errorf("%w: compression %v", ErrUnsupported, c)
	}
}

// Compress returns a writer that compresses into w with c. Closing it
// flushes the stream but leaves w open.
func Compress(w io.Writer, c Compression) (io.WriteCloser, error) {
	switch c {
	case Uncompressed:
		return nopWriteCloser{w}, nil
	case Gzip:
		return gzip.NewWriter(w), nil
	case Zstd:
		zw, err := zstd.NewWriter(w)
		if err != nil {
			return nil, fmt.Errorf("clip: zstd: %w", err)
		}
		return zw, nil
	case XZ:
		xw, err := xz.NewWriter(w)
		if err != nil {
			return nil, fmt.Errorf("clip: xz: %w", err)
		}
		return xw, nil
	case LZ4:
		return lz4.NewWriter(w), nil
	case Brotli:
		return brotli.NewWriter(w), nil
	default:
		return nil, fmt.Errorf("%w: compression %v", ErrUnsupported, c)
	}
}

type nopWriteCloser struct{ io.Writer }

func (nopWriteCloser) Close() error { return nil }
