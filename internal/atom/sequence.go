package atom

import "namd/internal/urid"

// Event is one timestamped atom of a sequence.
type Event struct {
	Frames int64
	Body   Atom
}

// SequenceIter walks the events of a sequence atom in order. It stops at the
// first malformed event and reports it through Err.
type SequenceIter struct {
	data []byte
	off  int
	ev   Event
	err  error
}

// NewSequenceIter parses the sequence atom at the start of buf. seqType is the
// host's atom:Sequence URID.
func NewSequenceIter(buf []byte, seqType urid.URID) (SequenceIter, error) {
	a, _, err := Parse(buf)
	if err != nil {
		return SequenceIter{}, err
	}
	if a.Type != seqType {
		return SequenceIter{}, ErrNotSequence
	}
	if len(a.Body) < 8 {
		return SequenceIter{}, ErrMalformed
	}
	// Body starts with {unit, pad}.
	return SequenceIter{data: a.Body[8:]}, nil
}

// Next advances to the next event.
func (it *SequenceIter) Next() bool {
	if it.err != nil || it.off >= len(it.data) {
		return false
	}
	rest := it.data[it.off:]
	if len(rest) < 8+headerSize {
		it.err = ErrMalformed
		return false
	}
	frames := int64(le.Uint64(rest[0:8]))
	a, n, err := Parse(rest[8:])
	if err != nil {
		it.err = err
		return false
	}
	it.ev = Event{Frames: frames, Body: a}
	it.off += 8 + n
	return true
}

// Event returns the current event. The body is a view into the sequence buffer.
func (it *SequenceIter) Event() Event { return it.ev }

// Err reports why iteration stopped early, if it did.
func (it *SequenceIter) Err() error { return it.err }
