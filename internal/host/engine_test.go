package host

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"
	"time"

	"namd/internal/pathbuf"
	"namd/internal/plugin"
	"namd/internal/state"
	"namd/pkg/types"
)

func (e *Engine) queued() int {
	e.reqMu.Lock()
	defer e.reqMu.Unlock()
	return e.reqs.Length()
}

func settled(e *Engine) func() bool {
	return func() bool { return e.queued() == 0 && e.SwapState() == plugin.SwapIdle }
}

func TestSetModelSwapsAndNotifies(t *testing.T) {
	l := newTestLoader(map[string]float32{"/m/a.nam": 2})
	e := newTestEngine(t, l, nil)
	notes, cancel := e.Subscribe(8)
	defer cancel()
	activated(t, e)

	if err := e.SetModel("/m/a.nam"); err != nil {
		t.Fatalf("set: %v", err)
	}
	pump(t, e, func() bool { return e.LastPath() == "/m/a.nam" })
	if n := waitNote(t, notes, types.NotifyModel); n.Path != "/m/a.nam" || n.Block == 0 {
		t.Fatalf("model note %+v", n)
	}
	waitNote(t, notes, types.NotifyChanged)

	in := []float32{1, 1, 1, 1}
	out := make([]float32, 4)
	e.Process(in, out)
	for i, v := range out {
		if v != 2 {
			t.Fatalf("out[%d]=%v", i, v)
		}
	}
	if e.CurrentPath() != "/m/a.nam" || e.Model().SwapState != "idle" && e.Model().SwapState != "pending_free" {
		t.Fatalf("model=%+v", e.Model())
	}
}

func TestFailedLoadKeepsModel(t *testing.T) {
	l := newTestLoader(map[string]float32{"/m/a.nam": 2})
	e := newTestEngine(t, l, nil)
	activated(t, e)
	_ = e.SetModel("/m/a.nam")
	pump(t, e, func() bool { return e.LastPath() == "/m/a.nam" })

	_ = e.SetModel("/m/missing.nam")
	pump(t, e, settled(e))
	if e.CurrentPath() != "/m/a.nam" {
		t.Fatalf("current=%q", e.CurrentPath())
	}
	if st := e.Status(); !strings.Contains(st.LastLoadError, "/m/missing.nam") || st.LastError != "" {
		t.Fatalf("load error=%q host error=%q", st.LastLoadError, st.LastError)
	}
}

func TestRequestPathReportsCurrent(t *testing.T) {
	l := newTestLoader(map[string]float32{"/m/a.nam": 2})
	e := newTestEngine(t, l, nil)
	activated(t, e)
	_ = e.SetModel("/m/a.nam")
	pump(t, e, settled(e))

	notes, cancel := e.Subscribe(8)
	defer cancel()
	if err := e.RequestPath(); err != nil {
		t.Fatalf("get: %v", err)
	}
	var got types.Notification
	pump(t, e, func() bool {
		select {
		case got = <-notes:
			return true
		default:
			return false
		}
	})
	if got.Kind != types.NotifyModel || got.Path != "/m/a.nam" {
		t.Fatalf("note=%+v", got)
	}
}

func TestSetModelValidation(t *testing.T) {
	e := newTestEngine(t, newTestLoader(nil), nil)
	if err := e.SetModel(""); err == nil {
		t.Fatalf("expected error for empty path")
	}
	if err := e.SetModel("/" + strings.Repeat("x", pathbuf.MaxPathLen)); !errors.Is(err, ErrPathTooLong) {
		t.Fatalf("expected ErrPathTooLong, got %v", err)
	}
	for i := 0; i < maxPendingRequests; i++ {
		if err := e.RequestPath(); err != nil {
			t.Fatalf("request %d: %v", i, err)
		}
	}
	if err := e.SetModel("/m/a.nam"); !IsBusy(err) {
		t.Fatalf("expected busy, got %v", err)
	}
}

func TestControlOverflowCarriesOver(t *testing.T) {
	l := newTestLoader(map[string]float32{"/m/a.nam": 2})
	// Room for the sequence header and one Set per block.
	e := newTestEngine(t, l, func(c *Config) { c.ControlSize = 128 })
	activated(t, e)
	for i := 0; i < 4; i++ {
		_ = e.SetModel("/m/a.nam")
	}
	e.Process(make([]float32, 8), make([]float32, 8))
	if q := e.queued(); q == 0 || q == 4 {
		t.Fatalf("expected a partial drain, %d left", q)
	}
	pump(t, e, settled(e))
	if l.count("/m/a.nam") != 4 {
		t.Fatalf("loads=%d", l.count("/m/a.nam"))
	}
}

func TestRenderUsesRequestedModel(t *testing.T) {
	l := newTestLoader(map[string]float32{"/m/a.nam": 3})
	e := newTestEngine(t, l, nil)
	if err := e.SetModel("/m/a.nam"); err != nil {
		t.Fatalf("set: %v", err)
	}
	var src bytes.Buffer
	ones := make([]float32, 100)
	for i := range ones {
		ones[i] = 1
	}
	if err := NewRawWriter(&src, 128).WriteBlock(ones); err != nil {
		t.Fatalf("write: %v", err)
	}
	var dst bytes.Buffer
	n, err := e.Render(context.Background(), NewRawReader(&src, 256), NewRawWriter(&dst, 256))
	if err != nil || n != 100 {
		t.Fatalf("render n=%d err=%v", n, err)
	}
	out := make([]float32, 128)
	got, _ := NewRawReader(&dst, 128).ReadBlock(out)
	if got != 100 {
		t.Fatalf("read back %d samples", got)
	}
	for i := 0; i < got; i++ {
		if out[i] != 3 {
			t.Fatalf("out[%d]=%v", i, out[i])
		}
	}
	if e.Running() {
		t.Fatalf("engine still running after render")
	}
}

func TestSaveRestoreFile(t *testing.T) {
	dir := t.TempDir()
	model := filepath.Join(dir, "amps", "a.nam")
	l := newTestLoader(map[string]float32{model: 2})
	withPaths := func(c *Config) { c.Paths = state.Mapper{Base: dir} }

	e := newTestEngine(t, l, withPaths)
	activated(t, e)
	_ = e.SetModel(model)
	pump(t, e, func() bool { return e.CurrentPath() == model })

	preset := filepath.Join(dir, "live.yaml")
	if err := e.SaveFile(preset); err != nil {
		t.Fatalf("save: %v", err)
	}
	b, err := os.ReadFile(preset)
	if err != nil {
		t.Fatalf("read preset: %v", err)
	}
	if !strings.Contains(string(b), "amps/a.nam") || strings.Contains(string(b), dir) {
		t.Fatalf("preset does not hold a relative path:\n%s", b)
	}

	// A stopped engine restores synchronously.
	e2 := newTestEngine(t, l, withPaths)
	if err := e2.RestoreFile(preset); err != nil {
		t.Fatalf("restore: %v", err)
	}
	if e2.CurrentPath() != model {
		t.Fatalf("restored path %q", e2.CurrentPath())
	}
}

func TestSaveWithoutModelStoresNothing(t *testing.T) {
	e := newTestEngine(t, newTestLoader(nil), nil)
	s := state.New(e.table)
	if err := e.Save(s); err != nil || s.Len() != 0 {
		t.Fatalf("save: err=%v len=%d", err, s.Len())
	}
}

func TestCloseReleasesEveryModel(t *testing.T) {
	l := newTestLoader(map[string]float32{"/m/a.nam": 2, "/m/b.nam": 4})
	e := newTestEngine(t, l, nil)
	activated(t, e)
	_ = e.SetModel("/m/a.nam")
	pump(t, e, func() bool { return e.CurrentPath() == "/m/a.nam" })
	_ = e.SetModel("/m/b.nam")
	pump(t, e, func() bool { return e.CurrentPath() == "/m/b.nam" })
	if err := e.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	models := l.all()
	if len(models) != 2 {
		t.Fatalf("models=%d", len(models))
	}
	for i, m := range models {
		if m.closes() != 1 {
			t.Fatalf("model %d closed %d times", i, m.closes())
		}
	}
	if err := e.activate(context.Background()); !errors.Is(err, errClosed) {
		t.Fatalf("activate after close: %v", err)
	}
}

func TestStartStop(t *testing.T) {
	e := newTestEngine(t, newTestLoader(nil), nil)
	ctx := context.Background()
	if err := e.Start(ctx, Silence{}, Discard{}); err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := e.Start(ctx, Silence{}, Discard{}); !errors.Is(err, errAlreadyRunning) {
		t.Fatalf("second start: %v", err)
	}
	deadline := time.Now().Add(3 * time.Second)
	for e.Status().Blocks == 0 {
		if time.Now().After(deadline) {
			t.Fatalf("no blocks processed")
		}
		time.Sleep(5 * time.Millisecond)
	}
	st := e.Status()
	if st.State != StateRunning || st.InstanceID != e.ID().String() || st.BlockSize != 64 {
		t.Fatalf("status=%+v", st)
	}
	if !st.Activated || st.InFlight != (types.SwapCounters{}) || !slices.Contains(st.Architectures, "Linear") {
		t.Fatalf("status=%+v", st)
	}
	e.Stop()
	if st := e.Status(); e.Running() || st.State != StateStopped || st.Activated {
		t.Fatalf("still running")
	}
}

func TestGain(t *testing.T) {
	e := newTestEngine(t, newTestLoader(nil), func(c *Config) { c.InputDB = -6 })
	in, out := e.Gain()
	if in != -6 || out != 0 {
		t.Fatalf("gain=%v/%v", in, out)
	}
	v := float32(3)
	e.SetGain(nil, &v)
	if in, out = e.Gain(); in != -6 || out != 3 {
		t.Fatalf("gain=%v/%v", in, out)
	}
}

func TestWatchReloadsModelFile(t *testing.T) {
	dir := t.TempDir()
	model := filepath.Join(dir, "a.nam")
	if err := os.WriteFile(model, []byte("v1"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	l := newTestLoader(map[string]float32{model: 2})
	e := newTestEngine(t, l, nil)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	if err := e.Watch(ctx); err != nil {
		t.Fatalf("watch: %v", err)
	}
	if err := e.Start(ctx, Silence{}, Discard{}); err != nil {
		t.Fatalf("start: %v", err)
	}
	_ = e.SetModel(model)

	deadline := time.Now().Add(5 * time.Second)
	for l.count(model) < 1 {
		if time.Now().After(deadline) {
			t.Fatalf("initial load did not happen")
		}
		time.Sleep(10 * time.Millisecond)
	}
	// The reload fires only once the debounce window passes without events,
	// so writes must be spaced well beyond it. A second write covers the case
	// where the first lands before the watcher has picked up the directory.
	var wrote time.Time
	for l.count(model) < 2 {
		if time.Now().After(deadline) {
			t.Fatalf("model was not reloaded after the file changed")
		}
		if time.Since(wrote) > 4*reloadDebounce {
			if err := os.WriteFile(model, []byte("v2"), 0o644); err != nil {
				t.Fatalf("rewrite: %v", err)
			}
			wrote = time.Now()
		}
		time.Sleep(20 * time.Millisecond)
	}
}
