package atom

import "namd/internal/urid"

// Object is a parsed atom:Object: an id, an object type and a property list.
type Object struct {
	ID    urid.URID
	OType urid.URID
	props []byte
}

// AsObject interprets a as an object if its type is objType.
func AsObject(a Atom, objType urid.URID) (Object, bool) {
	if a.Type != objType || len(a.Body) < 8 {
		return Object{}, false
	}
	return Object{
		ID:    urid.URID(le.Uint32(a.Body[0:4])),
		OType: urid.URID(le.Uint32(a.Body[4:8])),
		props: a.Body[8:],
	}, true
}

// Get returns the value of the first property with the given key. A malformed
// property list ends the search.
func (o Object) Get(key urid.URID) (Atom, bool) {
	off := 0
	for off+8 <= len(o.props) {
		k := urid.URID(le.Uint32(o.props[off : off+4]))
		v, n, err := Parse(o.props[off+8:])
		if err != nil {
			return Atom{}, false
		}
		if k == key {
			return v, true
		}
		off += 8 + n
	}
	return Atom{}, false
}
