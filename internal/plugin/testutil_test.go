package plugin

import (
	"errors"
	"fmt"
	"testing"

	"namd/internal/atom"
	"namd/internal/dsp"
	"namd/internal/urid"
)

var errQueueFull = errors.New("queue full")

// fakeScheduler is a fixed-capacity queue standing in for the host worker. It
// copies messages into pre-allocated slots, like a real scheduler must.
type fakeScheduler struct {
	slots [16]WorkMessage
	n     int
	limit int // 0 means len(slots)
	// refuse makes ScheduleWork fail for the given kind.
	refuse WorkKind
}

func (s *fakeScheduler) ScheduleWork(msg *WorkMessage) error {
	limit := s.limit
	if limit == 0 {
		limit = len(s.slots)
	}
	if s.n >= limit || (s.refuse != 0 && msg.Kind == s.refuse) {
		return errQueueFull
	}
	s.slots[s.n] = *msg
	s.n++
	return nil
}

func (s *fakeScheduler) pending(kind WorkKind) int {
	c := 0
	for i := 0; i < s.n; i++ {
		if s.slots[i].Kind == kind {
			c++
		}
	}
	return c
}

// runWorker executes every queued message in order and returns the responses.
func (s *fakeScheduler) runWorker(t *testing.T, p *Plugin) []WorkMessage {
	t.Helper()
	var out []WorkMessage
	for i := 0; i < s.n; i++ {
		msg := s.slots[i]
		_ = p.Work(func(r *WorkMessage) error {
			out = append(out, *r)
			return nil
		}, &msg)
		s.slots[i] = WorkMessage{}
	}
	s.n = 0
	return out
}

func deliver(t *testing.T, p *Plugin, responses []WorkMessage) {
	t.Helper()
	for i := range responses {
		if err := p.WorkResponse(&responses[i]); err != nil {
			t.Fatalf("WorkResponse: %v", err)
		}
	}
}

type fakeModel struct {
	name   string
	gain   float32
	closed int
}

func (m *fakeModel) Process(in, out []float32) {
	for i := range in {
		out[i] = in[i] * m.gain
	}
}
func (m *fakeModel) Finalize(int) {}
func (m *fakeModel) Close() error { m.closed++; return nil }

type fakeLoader struct {
	models map[string]*fakeModel
	calls  []string
}

func newFakeLoader(names ...string) *fakeLoader {
	l := &fakeLoader{models: map[string]*fakeModel{}}
	for i, n := range names {
		l.models[n] = &fakeModel{name: n, gain: float32(i + 2)}
	}
	return l
}

func (l *fakeLoader) Load(path string) (dsp.Model, error) {
	l.calls = append(l.calls, path)
	if path == "" {
		return nil, nil
	}
	m, ok := l.models[path]
	if !ok {
		return nil, &dsp.ModelLoadError{Path: path, Err: fmt.Errorf("no such model")}
	}
	return m, nil
}

type fixture struct {
	p      *Plugin
	sched  *fakeScheduler
	loader *fakeLoader
	u      urid.URIs
	notify []byte
	ctrl   []byte
}

func newFixture(t *testing.T, models ...string) *fixture {
	t.Helper()
	sched := &fakeScheduler{}
	loader := newFakeLoader(models...)
	p, err := Instantiate(48000, Features{Map: urid.NewMap(), Schedule: sched, MaxBlockLength: 64}, Options{Loader: loader.Load})
	if err != nil {
		t.Fatalf("instantiate: %v", err)
	}
	p.Activate()
	return &fixture{p: p, sched: sched, loader: loader, u: p.URIs(), notify: make([]byte, 4096), ctrl: make([]byte, 4096)}
}

// control builds a control sequence with fn writing the events.
func (f *fixture) control(t *testing.T, fn func(fg *atom.Forge)) []byte {
	t.Helper()
	fg := atom.NewForge(f.u)
	fg.Reset(f.ctrl)
	seq := fg.BeginSequence(0)
	fn(&fg)
	fg.Pop(seq)
	if err := fg.Err(); err != nil {
		t.Fatalf("forge: %v", err)
	}
	return f.ctrl[:fg.Len()]
}

func (f *fixture) setPath(t *testing.T, path string) []byte {
	return f.control(t, func(fg *atom.Forge) {
		if err := atom.WriteSetPath(fg, f.u, 0, f.u.ModelPath, []byte(path)); err != nil {
			t.Fatalf("set: %v", err)
		}
	})
}

func (f *fixture) get(t *testing.T, n int) []byte {
	return f.control(t, func(fg *atom.Forge) {
		for i := 0; i < n; i++ {
			_ = atom.WriteGet(fg, f.u, int64(i), 0)
		}
	})
}

// run processes one block of ones and returns the output and notifications.
func (f *fixture) run(t *testing.T, ctrl []byte, n int) ([]float32, []note) {
	t.Helper()
	in := make([]float32, n)
	for i := range in {
		in[i] = 1
	}
	out := make([]float32, n)
	f.p.Run(&Block{Control: ctrl, Notify: f.notify, In: in, Out: out})
	return out, decodeNotes(t, f.u, f.notify)
}

type note struct {
	kind   string // "path" or "changed"
	path   string
	frames int64
}

func decodeNotes(t *testing.T, u urid.URIs, buf []byte) []note {
	t.Helper()
	it, err := atom.NewSequenceIter(buf, u.AtomSequence)
	if err != nil {
		return nil
	}
	var out []note
	for it.Next() {
		ev := it.Event()
		obj, ok := atom.AsObject(ev.Body, u.AtomObject)
		if !ok {
			t.Fatalf("notification is not an object")
		}
		switch obj.OType {
		case u.PatchSet:
			v, _ := obj.Get(u.PatchValue)
			out = append(out, note{kind: "path", path: string(v.CString()), frames: ev.Frames})
		case u.StateChanged:
			out = append(out, note{kind: "changed", frames: ev.Frames})
		default:
			t.Fatalf("unexpected notification otype %d", obj.OType)
		}
	}
	if it.Err() != nil {
		t.Fatalf("notify sequence malformed: %v", it.Err())
	}
	return out
}

func countNotes(notes []note, kind string) int {
	n := 0
	for _, x := range notes {
		if x.kind == kind {
			n++
		}
	}
	return n
}
