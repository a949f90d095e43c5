package atom

import (
	"errors"
	"testing"

	"namd/internal/urid"
)

func testURIs(t *testing.T) urid.URIs {
	t.Helper()
	return urid.Resolve(urid.NewMap())
}

func writeSequence(t *testing.T, u urid.URIs, size int, fn func(f *Forge)) []byte {
	t.Helper()
	buf := make([]byte, size)
	f := NewForge(u)
	f.Reset(buf)
	seq := f.BeginSequence(0)
	fn(&f)
	f.Pop(seq)
	if err := f.Err(); err != nil {
		t.Fatalf("forge: %v", err)
	}
	return buf[:f.Len()]
}

func TestSetPathRoundTrip(t *testing.T) {
	u := testURIs(t)
	buf := writeSequence(t, u, 512, func(f *Forge) {
		if err := WriteSetPath(f, u, 0, u.ModelPath, []byte("/a/b/model.nam")); err != nil {
			t.Fatalf("set: %v", err)
		}
		if err := WriteGet(f, u, 7, 0); err != nil {
			t.Fatalf("get: %v", err)
		}
	})

	it, err := NewSequenceIter(buf, u.AtomSequence)
	if err != nil {
		t.Fatalf("iter: %v", err)
	}
	var seen int
	for it.Next() {
		ev := it.Event()
		obj, ok := AsObject(ev.Body, u.AtomObject)
		if !ok {
			t.Fatalf("event %d is not an object", seen)
		}
		switch seen {
		case 0:
			if obj.OType != u.PatchSet || ev.Frames != 0 {
				t.Fatalf("first event otype=%d frames=%d", obj.OType, ev.Frames)
			}
			prop, ok := obj.Get(u.PatchProperty)
			if id, _ := prop.URID(); !ok || id != u.ModelPath {
				t.Fatalf("property=%d", id)
			}
			val, ok := obj.Get(u.PatchValue)
			if !ok || val.Type != u.AtomPath || string(val.CString()) != "/a/b/model.nam" {
				t.Fatalf("value=%q type=%d", val.CString(), val.Type)
			}
		case 1:
			if obj.OType != u.PatchGet || ev.Frames != 7 {
				t.Fatalf("second event otype=%d frames=%d", obj.OType, ev.Frames)
			}
			if _, ok := obj.Get(u.PatchProperty); ok {
				t.Fatalf("bare get carries a property")
			}
		}
		seen++
	}
	if it.Err() != nil || seen != 2 {
		t.Fatalf("seen=%d err=%v", seen, it.Err())
	}
}

func TestForgeOverflowRewinds(t *testing.T) {
	u := testURIs(t)
	buf := make([]byte, 40)
	f := NewForge(u)
	f.Reset(buf)
	seq := f.BeginSequence(0)
	err := WriteSetPath(&f, u, 0, u.ModelPath, []byte("/this/path/does/not/fit.nam"))
	if !errors.Is(err, ErrOverflow) {
		t.Fatalf("expected overflow, got %v", err)
	}
	if err := WriteMarker(&f, u, 0, u.StateChanged); err != nil {
		t.Fatalf("marker after rewind: %v", err)
	}
	f.Pop(seq)
	it, err := NewSequenceIter(f.Bytes(), u.AtomSequence)
	if err != nil {
		t.Fatalf("iter: %v", err)
	}
	n := 0
	for it.Next() {
		n++
	}
	if n != 1 || it.Err() != nil {
		t.Fatalf("events=%d err=%v", n, it.Err())
	}
}

func TestMalformedInputs(t *testing.T) {
	u := testURIs(t)
	if _, err := NewSequenceIter([]byte{1, 2, 3}, u.AtomSequence); !errors.Is(err, ErrMalformed) {
		t.Fatalf("short buffer: %v", err)
	}
	good := writeSequence(t, u, 256, func(f *Forge) {
		_ = WriteSetPath(f, u, 0, u.ModelPath, []byte("/m.nam"))
	})
	// Claim a body larger than the buffer for the event atom.
	bad := append([]byte(nil), good...)
	le.PutUint32(bad[24:28], 4096)
	it, err := NewSequenceIter(bad, u.AtomSequence)
	if err != nil {
		t.Fatalf("outer header should still parse: %v", err)
	}
	if it.Next() {
		t.Fatalf("expected iteration to stop on malformed event")
	}
	if !errors.Is(it.Err(), ErrMalformed) {
		t.Fatalf("err=%v", it.Err())
	}
	wrongType := append([]byte(nil), good...)
	le.PutUint32(wrongType[4:8], uint32(u.AtomObject))
	if _, err := NewSequenceIter(wrongType, u.AtomSequence); !errors.Is(err, ErrNotSequence) {
		t.Fatalf("wrong type: %v", err)
	}
}

func TestDecodeDoesNotAllocate(t *testing.T) {
	u := testURIs(t)
	buf := writeSequence(t, u, 512, func(f *Forge) {
		_ = WriteSetPath(f, u, 0, u.ModelPath, []byte("/a.nam"))
		_ = WriteGet(f, u, 0, u.ModelPath)
	})
	allocs := testing.AllocsPerRun(100, func() {
		it, _ := NewSequenceIter(buf, u.AtomSequence)
		for it.Next() {
			if obj, ok := AsObject(it.Event().Body, u.AtomObject); ok {
				_, _ = obj.Get(u.PatchValue)
			}
		}
	})
	if allocs != 0 {
		t.Fatalf("decode allocated %v times", allocs)
	}
}

func TestObjectGetSkipsEarlierProperties(t *testing.T) {
	u := testURIs(t)
	buf := writeSequence(t, u, 256, func(f *Forge) {
		f.FrameTime(3)
		obj := f.BeginObject(0, u.PatchSet)
		f.Key(u.PatchProperty)
		f.URID(u.ModelPath)
		f.Key(u.PatchValue)
		f.Path([]byte("odd-length.nam"))
		f.Pop(obj)
	})
	it, _ := NewSequenceIter(buf, u.AtomSequence)
	if !it.Next() {
		t.Fatalf("no event: %v", it.Err())
	}
	obj, _ := AsObject(it.Event().Body, u.AtomObject)
	v, ok := obj.Get(u.PatchValue)
	if !ok || v.Type != u.AtomPath || string(v.CString()) != "odd-length.nam" {
		t.Fatalf("value=%q ok=%v", v.CString(), ok)
	}
	prop, ok := obj.Get(u.PatchProperty)
	if id, _ := prop.URID(); !ok || id != u.ModelPath {
		t.Fatalf("property=%d", id)
	}
	if _, ok := obj.Get(u.AtomInt); ok {
		t.Fatalf("absent key found")
	}
}
