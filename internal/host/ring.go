package host

import "sync/atomic"

// ring is a fixed-capacity single-producer single-consumer queue. Cells are
// allocated once; Push and Pop copy through pointers so neither side allocates.
type ring[T any] struct {
	data []T
	mask uint64
	head atomic.Uint64
	_    [56]byte // keep producer and consumer indices on separate cache lines
	tail atomic.Uint64
}

// newRing allocates a ring; size must be a power of two.
func newRing[T any](size int) *ring[T] {
	if size <= 0 || size&(size-1) != 0 {
		panic("ring size must be power of two")
	}
	return &ring[T]{data: make([]T, size), mask: uint64(size - 1)}
}

// push copies *v into the ring; false when full. Producer side only.
func (r *ring[T]) push(v *T) bool {
	tail := r.tail.Load()
	if tail-r.head.Load() == uint64(len(r.data)) {
		return false
	}
	r.data[tail&r.mask] = *v
	r.tail.Store(tail + 1)
	return true
}

// pop moves the oldest item into *dst and zeroes its cell; false when empty.
// Consumer side only.
func (r *ring[T]) pop(dst *T) bool {
	head := r.head.Load()
	if head == r.tail.Load() {
		return false
	}
	var zero T
	cell := &r.data[head&r.mask]
	*dst = *cell
	*cell = zero
	r.head.Store(head + 1)
	return true
}

// peek copies the oldest item into *dst without consuming it; false when
// empty. Consumer side only.
func (r *ring[T]) peek(dst *T) bool {
	head := r.head.Load()
	if head == r.tail.Load() {
		return false
	}
	*dst = r.data[head&r.mask]
	return true
}

// drop zeroes and consumes the oldest item after a successful peek. Consumer
// side only.
func (r *ring[T]) drop() {
	head := r.head.Load()
	var zero T
	r.data[head&r.mask] = zero
	r.head.Store(head + 1)
}

func (r *ring[T]) len() int { return int(r.tail.Load() - r.head.Load()) }

func (r *ring[T]) cap() int { return len(r.data) }
