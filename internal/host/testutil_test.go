package host

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"namd/internal/dsp"
	"namd/pkg/types"
)

type gainModel struct {
	gain   float32
	mu     sync.Mutex
	closed int
}

func (m *gainModel) Process(in, out []float32) {
	for i := range in {
		out[i] = in[i] * m.gain
	}
}

func (m *gainModel) Finalize(int) {}

func (m *gainModel) Close() error {
	m.mu.Lock()
	m.closed++
	m.mu.Unlock()
	return nil
}

func (m *gainModel) closes() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

// testLoader hands out a fresh gainModel per load so reloads are observable.
type testLoader struct {
	mu     sync.Mutex
	gains  map[string]float32
	loads  map[string]int
	models []*gainModel
}

func newTestLoader(gains map[string]float32) *testLoader {
	return &testLoader{gains: gains, loads: map[string]int{}}
}

func (l *testLoader) Load(path string) (dsp.Model, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if path == "" {
		return nil, nil
	}
	g, ok := l.gains[path]
	if !ok {
		return nil, &dsp.ModelLoadError{Path: path, Err: fmt.Errorf("not found")}
	}
	l.loads[path]++
	m := &gainModel{gain: g}
	l.models = append(l.models, m)
	return m, nil
}

func (l *testLoader) count(path string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.loads[path]
}

func (l *testLoader) all() []*gainModel {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]*gainModel(nil), l.models...)
}

func newTestEngine(t *testing.T, l *testLoader, mod func(*Config)) *Engine {
	t.Helper()
	cfg := Config{SampleRate: 48000, BlockSize: 64, MaxBlock: 256, Loader: l.Load, Log: zerolog.Nop()}
	if mod != nil {
		mod(&cfg)
	}
	e, err := New(cfg)
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	t.Cleanup(func() { _ = e.Close() })
	return e
}

// pump processes blocks of ones until cond holds or the deadline passes.
func pump(t *testing.T, e *Engine, cond func() bool) {
	t.Helper()
	in := make([]float32, e.cfg.BlockSize)
	out := make([]float32, e.cfg.BlockSize)
	for i := range in {
		in[i] = 1
	}
	deadline := time.Now().Add(3 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("condition not reached")
		}
		e.Process(in, out)
		time.Sleep(time.Millisecond)
	}
}

func waitNote(t *testing.T, ch <-chan types.Notification, kind string) types.Notification {
	t.Helper()
	timeout := time.After(3 * time.Second)
	for {
		select {
		case n := <-ch:
			if n.Kind == kind {
				return n
			}
		case <-timeout:
			t.Fatalf("no %q notification", kind)
		}
	}
}

func activated(t *testing.T, e *Engine) {
	t.Helper()
	if err := e.activate(context.Background()); err != nil {
		t.Fatalf("activate: %v", err)
	}
}
