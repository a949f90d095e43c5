// Package atom reads and writes the binary event format exchanged between the
// plugin and its host on the control and notify ports.
//
// Every atom is a little-endian {size uint32, type URID} header followed by size
// bytes of body, padded to 8 bytes. Readers return views into the host buffer and
// writers never grow the buffer they are given, so both are usable from the
// audio thread.
package atom

import (
	"encoding/binary"
	"errors"

	"namd/internal/urid"
)

const (
	headerSize = 8
	align      = 8
)

var (
	// ErrMalformed reports an atom whose declared sizes do not fit its buffer.
	ErrMalformed = errors.New("atom: malformed")
	// ErrOverflow reports a write that would exceed the forge buffer.
	ErrOverflow = errors.New("atom: buffer overflow")
	// ErrNotSequence reports a buffer whose outer atom is not a sequence.
	ErrNotSequence = errors.New("atom: not a sequence")
)

var le = binary.LittleEndian

// Atom is a typed view into a buffer.
type Atom struct {
	Type urid.URID
	Body []byte
}

// Pad rounds n up to the atom alignment.
func Pad(n int) int { return (n + align - 1) &^ (align - 1) }

// Parse reads the atom at the start of buf and returns it with the number of
// bytes it occupies including padding. Padding missing at the very end of buf is
// tolerated.
func Parse(buf []byte) (Atom, int, error) {
	if len(buf) < headerSize {
		return Atom{}, 0, ErrMalformed
	}
	size := int(le.Uint32(buf[0:4]))
	typ := urid.URID(le.Uint32(buf[4:8]))
	end := headerSize + size
	if size < 0 || end > len(buf) || end < headerSize {
		return Atom{}, 0, ErrMalformed
	}
	n := Pad(end)
	if n > len(buf) {
		n = len(buf)
	}
	return Atom{Type: typ, Body: buf[headerSize:end]}, n, nil
}

// URID decodes an atom:URID body.
func (a Atom) URID() (urid.URID, bool) {
	if len(a.Body) < 4 {
		return 0, false
	}
	return urid.URID(le.Uint32(a.Body)), true
}

// CString returns a string-like body (atom:Path, atom:String) without its NUL
// terminator. Bodies that are not terminated are returned whole.
func (a Atom) CString() []byte {
	b := a.Body
	if n := len(b); n > 0 && b[n-1] == 0 {
		return b[:n-1]
	}
	return b
}
