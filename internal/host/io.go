package host

import (
	"encoding/binary"
	"errors"
	"io"
	"math"
)

// Source fills buf with up to len(buf) samples and reports how many it wrote.
// It returns io.EOF once exhausted.
type Source interface {
	ReadBlock(buf []float32) (int, error)
}

// Sink consumes a processed block.
type Sink interface {
	WriteBlock(buf []float32) error
}

// Sine is a test-tone source.
type Sine struct {
	step  float64
	phase float64
	amp   float32
}

// NewSine returns a sine of freq Hz at amplitude amp.
func NewSine(freq float64, amp float32, rate float64) *Sine {
	return &Sine{step: 2 * math.Pi * freq / rate, amp: amp}
}

func (s *Sine) ReadBlock(buf []float32) (int, error) {
	for i := range buf {
		buf[i] = s.amp * float32(math.Sin(s.phase))
		s.phase += s.step
		if s.phase >= 2*math.Pi {
			s.phase -= 2 * math.Pi
		}
	}
	return len(buf), nil
}

// Silence never runs out of zeros.
type Silence struct{}

func (Silence) ReadBlock(buf []float32) (int, error) {
	clear(buf)
	return len(buf), nil
}

// Discard drops every block.
type Discard struct{}

func (Discard) WriteBlock([]float32) error { return nil }

// RawReader reads mono little-endian float32 samples.
type RawReader struct {
	r   io.Reader
	b   []byte
	eof bool
}

// NewRawReader reads from r in blocks of at most maxBlock samples.
func NewRawReader(r io.Reader, maxBlock int) *RawReader {
	return &RawReader{r: r, b: make([]byte, 4*maxBlock)}
}

func (r *RawReader) ReadBlock(buf []float32) (int, error) {
	if r.eof {
		return 0, io.EOF
	}
	want := 4 * min(len(buf), len(r.b)/4)
	n, err := io.ReadFull(r.r, r.b[:want])
	switch {
	case errors.Is(err, io.EOF):
		r.eof = true
		return 0, io.EOF
	case errors.Is(err, io.ErrUnexpectedEOF):
		r.eof = true
	case err != nil:
		return 0, err
	}
	samples := n / 4
	for i := 0; i < samples; i++ {
		buf[i] = math.Float32frombits(binary.LittleEndian.Uint32(r.b[4*i:]))
	}
	if samples == 0 {
		return 0, io.EOF
	}
	return samples, nil
}

// RawWriter writes mono little-endian float32 samples.
type RawWriter struct {
	w io.Writer
	b []byte
}

// NewRawWriter writes to w; maxBlock sizes the conversion buffer.
func NewRawWriter(w io.Writer, maxBlock int) *RawWriter {
	return &RawWriter{w: w, b: make([]byte, 4*maxBlock)}
}

func (w *RawWriter) WriteBlock(buf []float32) error {
	if need := 4 * len(buf); need > len(w.b) {
		w.b = make([]byte, need)
	}
	for i, v := range buf {
		binary.LittleEndian.PutUint32(w.b[4*i:], math.Float32bits(v))
	}
	_, err := w.w.Write(w.b[:4*len(buf)])
	return err
}
