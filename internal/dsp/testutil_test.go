package dsp

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/pierrec/lz4/v4"
	"github.com/ulikunitz/xz"
)

// linearJSON is an identity-with-gain Linear model: y[n] = 0.5*x[n].
const linearJSON = `{
  "version": "0.5.2",
  "architecture": "Linear",
  "config": {"receptive_field": 3, "bias": false},
  "weights": [0, 0, 0.5],
  "metadata": {"name": "half", "loudness": -24.0}
}`

func writeModel(t *testing.T, dir, name, content string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	var data []byte
	switch filepath.Ext(name) {
	case ".xz":
		var buf bytes.Buffer
		w, err := xz.NewWriter(&buf)
		if err != nil {
			t.Fatalf("xz writer: %v", err)
		}
		if _, err := w.Write([]byte(content)); err != nil {
			t.Fatalf("xz write: %v", err)
		}
		if err := w.Close(); err != nil {
			t.Fatalf("xz close: %v", err)
		}
		data = buf.Bytes()
	case ".lz4":
		var buf bytes.Buffer
		w := lz4.NewWriter(&buf)
		if _, err := w.Write([]byte(content)); err != nil {
			t.Fatalf("lz4 write: %v", err)
		}
		if err := w.Close(); err != nil {
			t.Fatalf("lz4 close: %v", err)
		}
		data = buf.Bytes()
	default:
		data = []byte(content)
	}
	if err := os.WriteFile(p, data, 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return p
}

// countingModel records calls so tests can observe priming.
type countingModel struct {
	processed int
	finalized int
	closed    int
}

func (c *countingModel) Process(in, out []float32) {
	c.processed += len(in)
	copy(out, in)
}
func (c *countingModel) Finalize(n int) { c.finalized += n }
func (c *countingModel) Close() error   { c.closed++; return nil }

// panicModel blows up on its first block.
type panicModel struct{ closed int }

func (*panicModel) Process(in, out []float32) { panic("process") }
func (*panicModel) Finalize(int)              {}
func (p *panicModel) Close() error            { p.closed++; return nil }
