package atom

import "namd/internal/urid"

// Frame marks an open container (sequence or object) in a Forge.
type Frame struct {
	off int
	ok  bool
}

// Forge writes atoms into a fixed buffer. It never grows the buffer: once a
// write does not fit, the forge latches ErrOverflow and ignores further writes
// until Reset. Callers may Mark before a group of writes and Rewind to drop a
// partial group.
type Forge struct {
	buf []byte
	off int
	err error
	u   urid.URIs
}

// NewForge returns a forge that tags atoms with the given vocabulary.
func NewForge(u urid.URIs) Forge { return Forge{u: u} }

// Reset points the forge at buf and clears any latched error.
func (f *Forge) Reset(buf []byte) {
	f.buf = buf
	f.off = 0
	f.err = nil
}

// Err reports the latched error, if any.
func (f *Forge) Err() error { return f.err }

// Len reports the number of bytes written.
func (f *Forge) Len() int { return f.off }

// Bytes returns the written prefix of the buffer.
func (f *Forge) Bytes() []byte { return f.buf[:f.off] }

// Mark returns a position Rewind can return to.
func (f *Forge) Mark() int { return f.off }

// Rewind discards everything written after mark and clears an overflow.
func (f *Forge) Rewind(mark int) {
	if mark <= f.off {
		f.off = mark
	}
	f.err = nil
}

func (f *Forge) reserve(n int) []byte {
	if f.err != nil {
		return nil
	}
	if f.off+n > len(f.buf) {
		f.err = ErrOverflow
		return nil
	}
	b := f.buf[f.off : f.off+n]
	f.off += n
	return b
}

func (f *Forge) pad() {
	n := Pad(f.off) - f.off
	if n == 0 {
		return
	}
	if b := f.reserve(n); b != nil {
		for i := range b {
			b[i] = 0
		}
	}
}

func (f *Forge) header(size int, typ urid.URID) bool {
	b := f.reserve(headerSize)
	if b == nil {
		return false
	}
	le.PutUint32(b[0:4], uint32(size))
	le.PutUint32(b[4:8], uint32(typ))
	return true
}

func (f *Forge) begin(typ urid.URID, a, b uint32) Frame {
	start := f.off
	if !f.header(0, typ) {
		return Frame{}
	}
	body := f.reserve(8)
	if body == nil {
		return Frame{}
	}
	le.PutUint32(body[0:4], a)
	le.PutUint32(body[4:8], b)
	return Frame{off: start, ok: true}
}

// BeginSequence opens a sequence with the given time unit (0 for frames).
func (f *Forge) BeginSequence(unit urid.URID) Frame {
	return f.begin(f.u.AtomSequence, uint32(unit), 0)
}

// BeginObject opens an object with the given id and type.
func (f *Forge) BeginObject(id, otype urid.URID) Frame {
	return f.begin(f.u.AtomObject, uint32(id), uint32(otype))
}

// Pop closes a container, fixing up its size.
func (f *Forge) Pop(fr Frame) {
	if !fr.ok || f.err != nil {
		return
	}
	le.PutUint32(f.buf[fr.off:fr.off+4], uint32(f.off-fr.off-headerSize))
}

// FrameTime starts an event at the given frame offset inside a sequence.
func (f *Forge) FrameTime(frames int64) {
	if b := f.reserve(8); b != nil {
		le.PutUint64(b, uint64(frames))
	}
}

// Key starts an object property.
func (f *Forge) Key(key urid.URID) {
	if b := f.reserve(8); b != nil {
		le.PutUint32(b[0:4], uint32(key))
		le.PutUint32(b[4:8], 0)
	}
}

// URID writes an atom:URID.
func (f *Forge) URID(v urid.URID) {
	f.word(f.u.AtomURID, uint32(v))
}

func (f *Forge) word(typ urid.URID, v uint32) {
	if !f.header(4, typ) {
		return
	}
	if b := f.reserve(4); b != nil {
		le.PutUint32(b, v)
	}
	f.pad()
}

// Path writes an atom:Path from p, appending the NUL terminator.
func (f *Forge) Path(p []byte) { f.cstring(f.u.AtomPath, p) }

func (f *Forge) cstring(typ urid.URID, p []byte) {
	if n := len(p); n > 0 && p[n-1] == 0 {
		p = p[:n-1]
	}
	if !f.header(len(p)+1, typ) {
		return
	}
	b := f.reserve(len(p) + 1)
	if b == nil {
		return
	}
	copy(b, p)
	b[len(p)] = 0
	f.pad()
}
