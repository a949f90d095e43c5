package manager

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"namd/internal/host"
	"namd/internal/registry"
	"namd/pkg/types"
)

func newTestManager(t *testing.T, models ...string) (*Manager, *fakeEngine, *MemoryPublisher, string) {
	t.Helper()
	dir := t.TempDir()
	writeModels(t, dir, models...)
	cat, err := registry.OpenDir(dir)
	if err != nil {
		t.Fatalf("catalog: %v", err)
	}
	eng := &fakeEngine{}
	pub := NewMemoryPublisher()
	m := NewWithConfig(ManagerConfig{Engine: eng, Catalog: cat, ModelsDir: dir, StateDir: dir, Publisher: pub})
	return m, eng, pub, dir
}

func TestSetModelByID(t *testing.T) {
	m, eng, pub, dir := newTestManager(t, "amps/plexi.nam")
	resp, err := m.SetModel(types.SetModelRequest{ID: "amps/plexi.nam"})
	if err != nil {
		t.Fatalf("set: %v", err)
	}
	want := filepath.Join(dir, "amps", "plexi.nam")
	if len(eng.set) != 1 || eng.set[0] != want {
		t.Fatalf("engine got %v", eng.set)
	}
	if resp.SwapState != "load_requested" || resp.ID != "amps/plexi.nam" || resp.Name == "" {
		t.Fatalf("resp=%+v", resp)
	}
	ev := pub.Events()
	if len(ev) != 1 || ev[0].Name != EventModelRequested || ev[0].Path != want {
		t.Fatalf("events=%+v", ev)
	}
}

func TestSetModelByPath(t *testing.T) {
	m, eng, _, dir := newTestManager(t, "a.nam")
	if _, err := m.SetModel(types.SetModelRequest{Path: "a.nam"}); err != nil {
		t.Fatalf("relative: %v", err)
	}
	if _, err := m.SetModel(types.SetModelRequest{Path: filepath.Join(dir, "a.nam")}); err != nil {
		t.Fatalf("absolute: %v", err)
	}
	if len(eng.set) != 2 || eng.set[0] != eng.set[1] {
		t.Fatalf("engine got %v", eng.set)
	}
	if r := m.Model(); r.ID != "a.nam" {
		t.Fatalf("catalog entry not matched by path: %+v", r)
	}

	outside := filepath.Join(t.TempDir(), "b.nam")
	if err := os.WriteFile(outside, []byte("{}"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	r, err := m.SetModel(types.SetModelRequest{Path: outside})
	if err != nil || r.Path != outside || r.ID != "" || r.Name != "" {
		t.Fatalf("uncatalogued model: %+v %v", r, err)
	}
}

func TestSetModelErrors(t *testing.T) {
	m, eng, _, _ := newTestManager(t, "a.nam")
	if _, err := m.SetModel(types.SetModelRequest{ID: "missing.nam"}); !IsModelNotFound(err) {
		t.Fatalf("unknown id: %v", err)
	}
	if _, err := m.SetModel(types.SetModelRequest{Path: "/nope/x.nam"}); !IsNotFound(err) {
		t.Fatalf("missing file: %v", err)
	}
	if _, err := m.SetModel(types.SetModelRequest{}); !IsInvalid(err) {
		t.Fatalf("empty request: %v", err)
	}
	eng.setErr = errors.Join(errors.New("queue"), host.ErrPathTooLong)
	if _, err := m.SetModel(types.SetModelRequest{ID: "a.nam"}); !IsInvalid(err) {
		t.Fatalf("too long: %v", err)
	}
	eng.setErr = errors.New("boom")
	if _, err := m.SetModel(types.SetModelRequest{ID: "a.nam"}); err == nil || IsInvalid(err) || IsTooBusy(err) {
		t.Fatalf("passthrough: %v", err)
	}
}

func TestApplyDefaultModel(t *testing.T) {
	m, eng, _, dir := newTestManager(t, "a.nam")
	m.defaultModel = "a.nam"
	if err := m.ApplyDefaultModel(); err != nil || len(eng.set) != 1 {
		t.Fatalf("by id: %v %v", err, eng.set)
	}
	m.defaultModel = filepath.Join(dir, "a.nam")
	if err := m.ApplyDefaultModel(); err != nil || len(eng.set) != 2 {
		t.Fatalf("by path: %v %v", err, eng.set)
	}
	m.defaultModel = ""
	if err := m.ApplyDefaultModel(); err != nil || len(eng.set) != 2 {
		t.Fatalf("none: %v %v", err, eng.set)
	}
}

func TestStateFiles(t *testing.T) {
	m, eng, pub, dir := newTestManager(t)
	p, err := m.SaveState("")
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if p != filepath.Join(dir, defaultStateFile) || len(eng.saved) != 1 {
		t.Fatalf("saved to %q (%v)", p, eng.saved)
	}
	if _, err := m.RestoreState(""); err != nil || len(eng.restored) != 1 {
		t.Fatalf("restore: %v", err)
	}
	if _, err := m.RestoreState("absent.toml"); !IsNotFound(err) {
		t.Fatalf("absent: %v", err)
	}
	if _, err := m.SaveState("preset.txt"); !IsInvalid(err) {
		t.Fatalf("extension: %v", err)
	}
	names := []string{}
	for _, e := range pub.Events() {
		names = append(names, e.Name)
	}
	if strings.Join(names, ",") != EventStateSaved+","+EventStateRestored {
		t.Fatalf("events=%v", names)
	}
}

func TestRescanPicksUpNewModels(t *testing.T) {
	m, _, _, dir := newTestManager(t, "a.nam")
	writeModels(t, dir, "b.nam.xz")
	if err := m.Rescan(); err != nil {
		t.Fatalf("rescan: %v", err)
	}
	if got := m.ListModels(); len(got) != 2 || got[1].Compression != "xz" {
		t.Fatalf("models=%+v", got)
	}
}

func TestGainAndReady(t *testing.T) {
	m, eng, _, _ := newTestManager(t)
	in := float32(-3)
	m.SetGain(types.GainRequest{InputDB: &in})
	if eng.in != -3 || eng.out != 0 {
		t.Fatalf("gain %v/%v", eng.in, eng.out)
	}
	if m.Ready() {
		t.Fatalf("ready before running")
	}
	eng.running = true
	if !m.Ready() {
		t.Fatalf("not ready while running")
	}
}
