// Package dsp defines the inference model contract used by the plugin and loads
// models from .nam files.
//
// Concrete architectures register a Factory under the name found in the file's
// "architecture" field. The architecture is resolved once, at load time, in the
// worker context; the audio thread only ever sees the Model interface.
package dsp

// Model is a loaded inference model. Process and Finalize are called from the
// audio thread and must not block; Close is only ever called from the worker.
type Model interface {
	// Process reads len(in) samples from in and writes them to out. in and out
	// may be the same slice.
	Process(in, out []float32)
	// Finalize advances internal history by n samples after Process.
	Finalize(n int)
	// Close releases resources held by the model.
	Close() error
}

// Normalizer is implemented by models that can scale their output to a
// reference loudness.
type Normalizer interface {
	SetNormalize(on bool)
	Loudness() (db float64, ok bool)
}

// TargetLoudness is the reference output loudness, in dB, used when
// normalisation is enabled.
const TargetLoudness = -18.0
