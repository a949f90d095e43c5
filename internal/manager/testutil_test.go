package manager

import (
	"os"
	"path/filepath"
	"sync"
	"testing"

	"namd/internal/host"
	"namd/pkg/types"
)

// fakeEngine records requests instead of processing audio.
type fakeEngine struct {
	mu       sync.Mutex
	set      []string
	gets     int
	saved    []string
	restored []string
	setErr   error
	running  bool
	in, out  float32
}

func (f *fakeEngine) SetModel(path string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.setErr != nil {
		return f.setErr
	}
	f.set = append(f.set, path)
	return nil
}

func (f *fakeEngine) RequestPath() error { f.gets++; return nil }

// Model reports the last requested path as if it had already been swapped in.
func (f *fakeEngine) Model() types.ModelResponse {
	f.mu.Lock()
	defer f.mu.Unlock()
	r := types.ModelResponse{SwapState: "load_requested"}
	if n := len(f.set); n > 0 {
		r.Path = f.set[n-1]
	}
	return r
}

func (f *fakeEngine) Status() types.StatusResponse {
	return types.StatusResponse{State: host.StateRunning}
}

func (f *fakeEngine) SetGain(in, out *float32) {
	if in != nil {
		f.in = *in
	}
	if out != nil {
		f.out = *out
	}
}

func (f *fakeEngine) Subscribe(buf int) (<-chan types.Notification, func()) {
	return make(chan types.Notification, buf), func() {}
}

func (f *fakeEngine) SaveFile(path string) error {
	f.saved = append(f.saved, path)
	return os.WriteFile(path, []byte("plugin: x\n"), 0o644)
}

func (f *fakeEngine) RestoreFile(path string) error {
	f.restored = append(f.restored, path)
	return nil
}

func (f *fakeEngine) Running() bool { return f.running }

func writeModels(t *testing.T, dir string, names ...string) {
	t.Helper()
	for _, n := range names {
		p := filepath.Join(dir, filepath.FromSlash(n))
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			t.Fatalf("mkdir: %v", err)
		}
		if err := os.WriteFile(p, []byte("{}"), 0o644); err != nil {
			t.Fatalf("write: %v", err)
		}
	}
}
