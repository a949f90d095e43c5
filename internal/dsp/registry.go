package dsp

import (
	"encoding/json"
	"sort"
	"sync"
)

// File is the decoded .nam container. Config is left raw for the architecture
// factory to interpret.
type File struct {
	Version      string          `json:"version"`
	Architecture string          `json:"architecture"`
	Config       json.RawMessage `json:"config"`
	Weights      []float32       `json:"weights"`
	SampleRate   float64         `json:"sample_rate,omitempty"`
	Metadata     Metadata        `json:"metadata"`
}

// Metadata carries the optional descriptive fields of a .nam file.
type Metadata struct {
	Name     string   `json:"name,omitempty"`
	Modeled  string   `json:"modeled_by,omitempty"`
	Gear     string   `json:"gear_make,omitempty"`
	Loudness *float64 `json:"loudness,omitempty"`
}

// Factory builds a Model from a decoded file.
type Factory func(f *File) (Model, error)

var (
	factoriesMu sync.RWMutex
	factories   = map[string]Factory{}
)

// Register installs a factory for an architecture name, replacing any previous
// registration.
func Register(arch string, fn Factory) {
	factoriesMu.Lock()
	factories[arch] = fn
	factoriesMu.Unlock()
}

// Architectures lists the registered architecture names.
func Architectures() []string {
	factoriesMu.RLock()
	defer factoriesMu.RUnlock()
	out := make([]string, 0, len(factories))
	for k := range factories {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func lookup(arch string) (Factory, bool) {
	factoriesMu.RLock()
	defer factoriesMu.RUnlock()
	fn, ok := factories[arch]
	return fn, ok
}

func init() {
	Register("Linear", newLinear)
}
