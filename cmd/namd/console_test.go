package main

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"namd/pkg/types"
)

type fakeTarget struct {
	models   []types.Model
	lastSet  types.SetModelRequest
	lastGain types.GainRequest
	saved    string
	gets     int
}

func (f *fakeTarget) ListModels() []types.Model    { return f.models }
func (f *fakeTarget) Rescan() error                { return nil }
func (f *fakeTarget) Status() types.StatusResponse { return types.StatusResponse{State: "running"} }
func (f *fakeTarget) Model() types.ModelResponse {
	return types.ModelResponse{Path: "/m/a.nam", SwapState: "idle"}
}
func (f *fakeTarget) SetModel(req types.SetModelRequest) (types.ModelResponse, error) {
	f.lastSet = req
	return types.ModelResponse{Path: req.Path + req.ID, SwapState: "load_requested"}, nil
}
func (f *fakeTarget) RequestPath() error                    { f.gets++; return nil }
func (f *fakeTarget) SetGain(req types.GainRequest)         { f.lastGain = req }
func (f *fakeTarget) SaveState(file string) (string, error) { f.saved = file; return "/s/" + file, nil }
func (f *fakeTarget) RestoreState(file string) (string, error) {
	if file == "missing.yaml" {
		return "", errors.New("state file not found")
	}
	return "/s/" + file, nil
}

func TestConsoleSetPrefersCatalogID(t *testing.T) {
	f := &fakeTarget{models: []types.Model{{ID: "amps/plexi.nam"}}}
	var out bytes.Buffer
	if err := execConsole(f, &out, "set amps/plexi.nam"); err != nil {
		t.Fatal(err)
	}
	if f.lastSet.ID != "amps/plexi.nam" || f.lastSet.Path != "" {
		t.Fatalf("req=%+v", f.lastSet)
	}
	if err := execConsole(f, &out, "set /tmp/my model.nam"); err != nil {
		t.Fatal(err)
	}
	if f.lastSet.Path != "/tmp/my model.nam" {
		t.Fatalf("req=%+v", f.lastSet)
	}
	if err := execConsole(f, &out, "set"); err == nil {
		t.Fatal("expected usage error")
	}
}

func TestConsoleGain(t *testing.T) {
	f := &fakeTarget{}
	if err := execConsole(f, &bytes.Buffer{}, "gain -6 3.5"); err != nil {
		t.Fatal(err)
	}
	if *f.lastGain.InputDB != -6 || *f.lastGain.OutputDB != 3.5 {
		t.Fatalf("gain=%+v", f.lastGain)
	}
	if err := execConsole(f, &bytes.Buffer{}, "gain 1"); err != nil {
		t.Fatal(err)
	}
	if f.lastGain.OutputDB != nil {
		t.Fatal("output gain should be untouched")
	}
	if err := execConsole(f, &bytes.Buffer{}, "gain loud"); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestConsoleMisc(t *testing.T) {
	f := &fakeTarget{}
	var out bytes.Buffer
	if err := execConsole(f, &out, "get"); err != nil || f.gets != 1 {
		t.Fatalf("get: err=%v gets=%d", err, f.gets)
	}
	if !strings.Contains(out.String(), "/m/a.nam") {
		t.Fatalf("out=%q", out.String())
	}
	if err := execConsole(f, &out, "save live.yaml"); err != nil || f.saved != "live.yaml" {
		t.Fatalf("save: err=%v saved=%q", err, f.saved)
	}
	if err := execConsole(f, &out, "restore missing.yaml"); err == nil {
		t.Fatal("expected restore error")
	}
	if err := execConsole(f, &out, "   "); err != nil {
		t.Fatal(err)
	}
	if err := execConsole(f, &out, "frobnicate"); err == nil {
		t.Fatal("expected unknown command error")
	}
	if err := execConsole(f, &out, "quit"); !errors.Is(err, errQuit) {
		t.Fatalf("quit err=%v", err)
	}
}

func TestFormatNote(t *testing.T) {
	if got := formatNote(types.Notification{Kind: types.NotifyModel, Block: 2}); got != "[block 2] model (none)" {
		t.Fatalf("got %q", got)
	}
	if got := formatNote(types.Notification{Kind: types.NotifyChanged, Block: 5}); got != "[block 5] changed" {
		t.Fatalf("got %q", got)
	}
}
