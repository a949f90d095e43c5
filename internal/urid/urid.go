// Package urid interns URIs into small integers, the way a plugin host does for
// every vocabulary term it exchanges with plugins.
package urid

import "sync"

// URID is an interned URI. Zero is never a valid URID.
type URID uint32

// Mapper interns URIs. Implementations must be safe for concurrent use and must
// return the same URID for the same URI for the lifetime of the mapper.
type Mapper interface {
	Map(uri string) URID
}

// Unmapper reverses Map.
type Unmapper interface {
	Unmap(id URID) (string, bool)
}

// Map is the host-side URI table.
type Map struct {
	mu   sync.RWMutex
	ids  map[string]URID
	uris []string
}

// NewMap returns an empty table.
func NewMap() *Map {
	return &Map{ids: make(map[string]URID)}
}

// Map returns the URID for uri, assigning the next free id on first use.
func (m *Map) Map(uri string) URID {
	m.mu.RLock()
	id, ok := m.ids[uri]
	m.mu.RUnlock()
	if ok {
		return id
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if id, ok := m.ids[uri]; ok {
		return id
	}
	m.uris = append(m.uris, uri)
	id = URID(len(m.uris))
	m.ids[uri] = id
	return id
}

// Unmap returns the URI for id.
func (m *Map) Unmap(id URID) (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if id == 0 || int(id) > len(m.uris) {
		return "", false
	}
	return m.uris[id-1], true
}

// Len reports how many URIs are interned.
func (m *Map) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.uris)
}
