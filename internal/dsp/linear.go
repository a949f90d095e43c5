package dsp

import (
	"encoding/json"
	"fmt"
	"math"
)

type linearConfig struct {
	ReceptiveField int  `json:"receptive_field"`
	Bias           bool `json:"bias"`
}

// Linear is an FIR model: each output sample is a weighted sum over the last
// ReceptiveField input samples plus an optional bias.
type Linear struct {
	taps      []float32
	bias      float32
	history   []float32 // len(taps)-1 samples of history followed by the block
	loudness  *float64
	normalize bool
	scale     float32
}

func newLinear(f *File) (Model, error) {
	var cfg linearConfig
	if err := json.Unmarshal(f.Config, &cfg); err != nil {
		return nil, fmt.Errorf("linear config: %w", err)
	}
	if cfg.ReceptiveField <= 0 {
		return nil, fmt.Errorf("linear config: receptive_field must be positive")
	}
	want := cfg.ReceptiveField
	if cfg.Bias {
		want++
	}
	if len(f.Weights) != want {
		return nil, fmt.Errorf("%w: have %d, want %d", errWeightCount, len(f.Weights), want)
	}
	m := &Linear{
		taps:     append([]float32(nil), f.Weights[:cfg.ReceptiveField]...),
		loudness: f.Metadata.Loudness,
		scale:    1,
	}
	if cfg.Bias {
		m.bias = f.Weights[cfg.ReceptiveField]
	}
	m.history = make([]float32, len(m.taps)-1)
	return m, nil
}

// Process implements Model. The history buffer only grows when a block is longer
// than any seen before; loaders prime with the maximum block to make that happen
// off the audio thread.
func (m *Linear) Process(in, out []float32) {
	n := len(in)
	if len(out) < n {
		n = len(out)
	}
	keep := len(m.taps) - 1
	if cap(m.history) < keep+n {
		grown := make([]float32, keep+n)
		copy(grown, m.history[:keep])
		m.history = grown
	}
	m.history = m.history[:keep+n]
	copy(m.history[keep:], in[:n])
	for i := 0; i < n; i++ {
		acc := m.bias
		window := m.history[i : i+len(m.taps)]
		for j, w := range m.taps {
			acc += w * window[j]
		}
		out[i] = acc * m.scale
	}
}

// Finalize implements Model.
func (m *Linear) Finalize(n int) {
	keep := len(m.taps) - 1
	if keep == 0 || n <= 0 || len(m.history) < keep+n {
		return
	}
	copy(m.history[:keep], m.history[n:n+keep])
	m.history = m.history[:keep]
}

// Close implements Model.
func (m *Linear) Close() error {
	m.history = nil
	return nil
}

// SetNormalize implements Normalizer.
func (m *Linear) SetNormalize(on bool) {
	m.normalize = on
	m.scale = 1
	if on && m.loudness != nil {
		m.scale = float32(math.Pow(10, (TargetLoudness-*m.loudness)/20))
	}
}

// Loudness implements Normalizer.
func (m *Linear) Loudness() (float64, bool) {
	if m.loudness == nil {
		return 0, false
	}
	return *m.loudness, true
}
