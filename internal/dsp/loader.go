package dsp

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	units "github.com/docker/go-units"
	"github.com/pierrec/lz4/v4"
	"github.com/ulikunitz/xz"
)

// Defaults applied when corresponding Loader fields are unset.
const (
	DefaultMaxBlock       = 2048
	DefaultMaxFileSize    = 64 * units.MiB
	DefaultMaxDecodedSize = 256 * units.MiB
)

// Loader turns model files into primed, ready-to-run models. It is meant to run
// in the worker context: it blocks on I/O and allocates freely.
type Loader struct {
	// MaxBlock is the longest block the host will ever pass to Run. The model is
	// primed with a silent block of this length.
	MaxBlock int
	// MaxFileSize bounds the size of the file on disk (before decompression).
	MaxFileSize int64
	// MaxDecodedSize bounds the bytes read after decompression.
	MaxDecodedSize int64
	// Normalize enables loudness normalisation on models that support it.
	Normalize bool
}

// NewLoader returns a loader with defaults applied.
func NewLoader(maxBlock int, maxFileSize int64) Loader {
	l := Loader{MaxBlock: maxBlock, MaxFileSize: maxFileSize, MaxDecodedSize: DefaultMaxDecodedSize, Normalize: true}
	if l.MaxBlock <= 0 {
		l.MaxBlock = DefaultMaxBlock
	}
	if l.MaxFileSize <= 0 {
		l.MaxFileSize = DefaultMaxFileSize
	}
	return l
}

// Load instantiates the model stored at path. An empty path means "no model" and
// returns (nil, nil). Every failure is a *ModelLoadError and leaves nothing
// behind, including a panic inside an architecture factory or the first run.
func (l Loader) Load(path string) (m Model, err error) {
	if path == "" {
		return nil, nil
	}
	defer func() {
		if r := recover(); r != nil {
			if m != nil {
				closeQuietly(m)
			}
			m, err = nil, &ModelLoadError{Path: path, Err: fmt.Errorf("%w: %v", errPanic, r)}
		}
	}()
	f, err := l.readFile(path)
	if err != nil {
		return nil, &ModelLoadError{Path: path, Err: err}
	}
	fn, ok := lookup(f.Architecture)
	if !ok {
		return nil, &ModelLoadError{Path: path, Err: fmt.Errorf("%w: %q", errUnknownArchitecture, f.Architecture)}
	}
	m, err = fn(f)
	if err != nil {
		return nil, &ModelLoadError{Path: path, Err: err}
	}
	if n, ok := m.(Normalizer); ok {
		n.SetNormalize(l.Normalize)
	}
	l.prime(m)
	return m, nil
}

// closeQuietly releases a half-initialised model; a second panic is dropped.
func closeQuietly(m Model) {
	defer func() { _ = recover() }()
	_ = m.Close()
}

// prime runs the model once over silence so that buffers sized by block length
// are allocated here rather than on the first real audio block.
func (l Loader) prime(m Model) {
	n := l.MaxBlock
	if n <= 0 {
		n = DefaultMaxBlock
	}
	silence := make([]float32, n)
	m.Process(silence, silence)
	m.Finalize(n)
}

func (l Loader) readFile(path string) (*File, error) {
	fh, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer fh.Close()
	fi, err := fh.Stat()
	if err != nil {
		return nil, err
	}
	if fi.IsDir() {
		return nil, fmt.Errorf("%s is a directory", path)
	}
	limit := l.MaxFileSize
	if limit <= 0 {
		limit = DefaultMaxFileSize
	}
	if fi.Size() > limit {
		return nil, fmt.Errorf("%w: %s exceeds %s", errTooLarge, units.BytesSize(float64(fi.Size())), units.BytesSize(float64(limit)))
	}
	r, err := decompressor(path, fh)
	if err != nil {
		return nil, err
	}
	decoded := l.MaxDecodedSize
	if decoded <= 0 {
		decoded = DefaultMaxDecodedSize
	}
	var f File
	dec := json.NewDecoder(&cappedReader{r: r, left: decoded})
	if err := dec.Decode(&f); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	if f.Architecture == "" {
		return nil, fmt.Errorf("decode: missing architecture")
	}
	return &f, nil
}

// cappedReader fails once more than left bytes have been read. Unlike
// io.LimitReader it reports the overrun instead of a silent EOF.
type cappedReader struct {
	r    io.Reader
	left int64
}

func (c *cappedReader) Read(p []byte) (int, error) {
	if c.left <= 0 {
		return 0, fmt.Errorf("%w: decompressed content exceeds limit", errTooLarge)
	}
	if int64(len(p)) > c.left {
		p = p[:c.left]
	}
	n, err := c.r.Read(p)
	c.left -= int64(n)
	return n, err
}

// decompressor picks a reader from the file suffix: .xz and .lz4 are unpacked
// transparently, anything else is read as plain JSON.
func decompressor(path string, r io.Reader) (io.Reader, error) {
	switch lower := strings.ToLower(path); {
	case strings.HasSuffix(lower, ".xz"):
		zr, err := xz.NewReader(r)
		if err != nil {
			return nil, fmt.Errorf("xz: %w", err)
		}
		return zr, nil
	case strings.HasSuffix(lower, ".lz4"):
		return lz4.NewReader(r), nil
	default:
		return r, nil
	}
}

// IsModelFile reports whether name looks like a loadable model file.
func IsModelFile(name string) bool {
	lower := strings.ToLower(name)
	for _, ext := range []string{".nam", ".nam.xz", ".nam.lz4"} {
		if strings.HasSuffix(lower, ext) {
			return true
		}
	}
	return false
}
