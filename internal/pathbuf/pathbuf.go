// Package pathbuf holds a model path in a fixed, inline buffer so that it can be
// reassigned from the audio thread without touching the allocator.
package pathbuf

import "errors"

// MaxPathLen is the longest path (in bytes, excluding the terminating NUL) the
// plugin accepts. Paths must be strictly shorter than this.
const MaxPathLen = 1024

// ErrPathTooLong is returned when a path does not fit the buffer.
var ErrPathTooLong = errors.New("path too long")

// Buffer is a NUL-terminated path stored inline. The zero value is an empty path.
// Copying a Buffer copies the bytes; it never aliases.
type Buffer struct {
	n   int
	buf [MaxPathLen + 1]byte
}

// Cap reports the storage capacity, which is constant for every Buffer.
func (b *Buffer) Cap() int { return len(b.buf) }

// Len reports the path length without the terminator.
func (b *Buffer) Len() int { return b.n }

// Set replaces the contents with p. A trailing NUL in p is ignored. On error the
// buffer is left unchanged.
func (b *Buffer) Set(p []byte) error {
	p = trimNUL(p)
	if len(p) >= MaxPathLen {
		return ErrPathTooLong
	}
	b.n = copy(b.buf[:], p)
	b.buf[b.n] = 0
	return nil
}

// SetString is Set for strings. copy from a string does not allocate.
func (b *Buffer) SetString(s string) error {
	if len(s) > 0 && s[len(s)-1] == 0 {
		s = s[:len(s)-1]
	}
	if len(s) >= MaxPathLen {
		return ErrPathTooLong
	}
	b.n = copy(b.buf[:], s)
	b.buf[b.n] = 0
	return nil
}

// Reset empties the buffer.
func (b *Buffer) Reset() {
	b.n = 0
	b.buf[0] = 0
}

// Bytes returns a view of the path without the terminator. The view is only valid
// until the next Set.
func (b *Buffer) Bytes() []byte { return b.buf[:b.n] }

// String copies the path out. It allocates and is not meant for the audio thread.
func (b *Buffer) String() string { return string(b.buf[:b.n]) }

// Empty reports whether no path is stored.
func (b *Buffer) Empty() bool { return b.n == 0 }

func trimNUL(p []byte) []byte {
	if n := len(p); n > 0 && p[n-1] == 0 {
		return p[:n-1]
	}
	return p
}
