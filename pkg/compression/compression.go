// Package compression wraps file streams with transparent compression so
// any input, output, or diagnostics file can be gzip, zstd, s2, or lz4.
// The algorithm is picked explicitly or detected from the file extension.
package compression

import (
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/s2"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"

	"github.com/ajitpratap0/reshape/pkg/errors"
)

// Algorithm identifies a stream compression codec.
type Algorithm string

const (
	// None passes bytes through untouched.
	None Algorithm = "none"
	// Gzip uses the klauspost gzip implementation.
	Gzip Algorithm = "gzip"
	// Zstd offers the best ratio/speed balance for large runs.
	Zstd Algorithm = "zstd"
	// S2 is the fastest option, an extended snappy format.
	S2 Algorithm = "s2"
	// LZ4 favors decompression speed.
	LZ4 Algorithm = "lz4"
	// Auto selects the algorithm from the file extension.
	Auto Algorithm = "auto"
)

// Level selects the speed/ratio trade-off for codecs that support one.
type Level string

const (
	LevelFastest Level = "fastest"
	LevelDefault Level = "default"
	LevelBetter  Level = "better"
	LevelBest    Level = "best"
)

// ParseAlgorithm validates an algorithm name from a flag or config value.
func ParseAlgorithm(s string) (Algorithm, error) {
	switch Algorithm(strings.ToLower(s)) {
	case None, Gzip, Zstd, S2, LZ4, Auto:
		return Algorithm(strings.ToLower(s)), nil
	case "":
		return Auto, nil
	default:
		return "", errors.Newf(errors.ErrorTypeConfig, "unsupported compression algorithm %q", s)
	}
}

// ParseLevel validates a compression level name.
func ParseLevel(s string) (Level, error) {
	switch Level(strings.ToLower(s)) {
	case LevelFastest, LevelDefault, LevelBetter, LevelBest:
		return Level(strings.ToLower(s)), nil
	case "":
		return LevelDefault, nil
	default:
		return "", errors.Newf(errors.ErrorTypeConfig, "unsupported compression level %q", s)
	}
}

// extensions maps file suffixes to their codec.
var extensions = map[string]Algorithm{
	".gz":   Gzip,
	".gzip": Gzip,
	".zst":  Zstd,
	".zstd": Zstd,
	".s2":   S2,
	".lz4":  LZ4,
}

// Detect resolves Auto against a path's extension; every other algorithm
// passes through unchanged. Unrecognized extensions mean no compression.
func Detect(algo Algorithm, path string) Algorithm {
	if algo != Auto {
		return algo
	}
	if a, ok := extensions[strings.ToLower(filepath.Ext(path))]; ok {
		return a
	}
	return None
}

// NewReader wraps r with the decompressor for algo. The returned reader
// must be closed to release codec resources; closing it does not close r.
func NewReader(r io.Reader, algo Algorithm) (io.ReadCloser, error) {
	switch algo {
	case None:
		return io.NopCloser(r), nil
	case Gzip:
		gr, err := gzip.NewReader(r)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrorTypeFile, "failed to open gzip stream")
		}
		return gr, nil
	case Zstd:
		zr, err := zstd.NewReader(r)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrorTypeFile, "failed to open zstd stream")
		}
		return readCloser{zr.IOReadCloser(), func() error { return nil }}, nil
	case S2:
		return io.NopCloser(s2.NewReader(r)), nil
	case LZ4:
		return io.NopCloser(lz4.NewReader(r)), nil
	default:
		return nil, errors.Newf(errors.ErrorTypeConfig, "unsupported compression algorithm %q", algo)
	}
}

// NewWriter wraps w with the compressor for algo at the given level. The
// returned writer must be closed to flush the codec; closing it does not
// close w.
func NewWriter(w io.Writer, algo Algorithm, level Level) (io.WriteCloser, error) {
	switch algo {
	case None:
		return nopWriteCloser{w}, nil
	case Gzip:
		gw, err := gzip.NewWriterLevel(w, gzipLevel(level))
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrorTypeFile, "failed to create gzip stream")
		}
		return gw, nil
	case Zstd:
		zw, err := zstd.NewWriter(w, zstd.WithEncoderLevel(zstdLevel(level)))
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrorTypeFile, "failed to create zstd stream")
		}
		return zw, nil
	case S2:
		return s2.NewWriter(w), nil
	case LZ4:
		lw := lz4.NewWriter(w)
		if err := lw.Apply(lz4.CompressionLevelOption(lz4Level(level))); err != nil {
			return nil, errors.Wrap(err, errors.ErrorTypeFile, "failed to create lz4 stream")
		}
		return lw, nil
	default:
		return nil, errors.Newf(errors.ErrorTypeConfig, "unsupported compression algorithm %q", algo)
	}
}

// OpenInput opens a file for reading, wrapped with the (possibly detected)
// decompressor. Closing the returned reader closes the file too.
func OpenInput(path string, algo Algorithm) (io.ReadCloser, error) {
	f, err := os.Open(path) //nolint:gosec // G304: path comes from the operator
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeFile, "failed to open input file").
			WithDetail("path", path)
	}
	r, err := NewReader(f, Detect(algo, path))
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	return readCloser{r, f.Close}, nil
}

// CreateOutput creates a file for writing, wrapped with the (possibly
// detected) compressor. Closing the returned writer flushes the codec and
// closes the file.
func CreateOutput(path string, algo Algorithm, level Level) (io.WriteCloser, error) {
	f, err := os.Create(path) //nolint:gosec // G304: path comes from the operator
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeFile, "failed to create output file").
			WithDetail("path", path)
	}
	w, err := NewWriter(f, Detect(algo, path), level)
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	return writeCloser{w, f.Close}, nil
}

func gzipLevel(level Level) int {
	switch level {
	case LevelFastest:
		return gzip.BestSpeed
	case LevelBetter, LevelBest:
		return gzip.BestCompression
	default:
		return gzip.DefaultCompression
	}
}

func zstdLevel(level Level) zstd.EncoderLevel {
	switch level {
	case LevelFastest:
		return zstd.SpeedFastest
	case LevelBetter:
		return zstd.SpeedBetterCompression
	case LevelBest:
		return zstd.SpeedBestCompression
	default:
		return zstd.SpeedDefault
	}
}

func lz4Level(level Level) lz4.CompressionLevel {
	switch level {
	case LevelFastest, LevelDefault:
		return lz4.Fast
	case LevelBetter:
		return lz4.Level5
	default:
		return lz4.Level9
	}
}

// readCloser closes the codec first, then the underlying file.
type readCloser struct {
	io.Reader
	closeFile func() error
}

func (rc readCloser) Close() error {
	if c, ok := rc.Reader.(io.Closer); ok {
		if err := c.Close(); err != nil {
			_ = rc.closeFile()
			return err
		}
	}
	return rc.closeFile()
}

// writeCloser flushes the codec first, then closes the underlying file.
type writeCloser struct {
	io.Writer
	closeFile func() error
}

func (wc writeCloser) Close() error {
	if c, ok := wc.Writer.(io.Closer); ok {
		if err := c.Close(); err != nil {
			_ = wc.closeFile()
			return err
		}
	}
	return wc.closeFile()
}

type nopWriteCloser struct{ io.Writer }

func (nopWriteCloser) Close() error { return nil }
