// Package state keeps plugin state on the host side: an in-memory property
// store that the plugin saves into and restores from, persisted as a preset
// file, plus the path mapper that makes stored model paths relocatable.
package state

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"namd/internal/plugin"
	"namd/internal/urid"
)

// Table is the host URI table. Properties are persisted by URI because URIDs
// are only meaningful inside one process.
type Table interface {
	urid.Mapper
	urid.Unmapper
}

// Property is one stored value.
type Property struct {
	Key   string `json:"key" yaml:"key" toml:"key"`
	Type  string `json:"type" yaml:"type" toml:"type"`
	Flags uint32 `json:"flags" yaml:"flags" toml:"flags"`
	Value string `json:"value" yaml:"value" toml:"value"`
}

// Preset is the on-disk form of a Store.
type Preset struct {
	Plugin     string     `json:"plugin" yaml:"plugin" toml:"plugin"`
	SavedAt    time.Time  `json:"saved_at" yaml:"saved_at" toml:"saved_at"`
	Properties []Property `json:"properties" yaml:"properties" toml:"properties"`
}

// ErrUnsupportedType is returned for values the preset format cannot hold.
var ErrUnsupportedType = errors.New("state: unsupported value type")

// Store holds properties between a plugin Save and a later Restore. Only text
// values (atom:Path, atom:String) are supported.
type Store struct {
	mu    sync.Mutex
	table Table
	props map[string]Property
}

// New returns an empty store resolving keys through t.
func New(t Table) *Store {
	return &Store{table: t, props: make(map[string]Property)}
}

func (s *Store) textType(uri string) bool {
	return uri == urid.AtomPath || uri == urid.AtomString
}

// Store records one property. It has the shape of plugin.StoreFunc.
func (s *Store) Store(key urid.URID, value []byte, typ urid.URID, flags plugin.StateFlags) error {
	k, ok := s.table.Unmap(key)
	if !ok {
		return fmt.Errorf("state: unknown key %d", key)
	}
	t, ok := s.table.Unmap(typ)
	if !ok || !s.textType(t) {
		return fmt.Errorf("%w: %q", ErrUnsupportedType, t)
	}
	if i := bytes.IndexByte(value, 0); i >= 0 {
		value = value[:i]
	}
	s.mu.Lock()
	s.props[k] = Property{Key: k, Type: t, Flags: uint32(flags), Value: string(value)}
	s.mu.Unlock()
	return nil
}

// Retrieve returns a property NUL-terminated, as it was stored. It has the
// shape of plugin.RetrieveFunc.
func (s *Store) Retrieve(key urid.URID) ([]byte, urid.URID, plugin.StateFlags, bool) {
	k, ok := s.table.Unmap(key)
	if !ok {
		return nil, 0, 0, false
	}
	s.mu.Lock()
	p, ok := s.props[k]
	s.mu.Unlock()
	if !ok {
		return nil, 0, 0, false
	}
	value := make([]byte, len(p.Value)+1)
	copy(value, p.Value)
	return value, s.table.Map(p.Type), plugin.StateFlags(p.Flags), true
}

// Get returns the property stored under uri.
func (s *Store) Get(uri string) (Property, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.props[uri]
	return p, ok
}

// Len reports how many properties are stored.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.props)
}

// Reset drops every property.
func (s *Store) Reset() {
	s.mu.Lock()
	clear(s.props)
	s.mu.Unlock()
}

// Snapshot returns the store as a preset with properties ordered by key.
func (s *Store) Snapshot() Preset {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := Preset{Plugin: urid.PluginURI, Properties: make([]Property, 0, len(s.props))}
	for _, p := range s.props {
		out.Properties = append(out.Properties, p)
	}
	sort.Slice(out.Properties, func(i, j int) bool { return out.Properties[i].Key < out.Properties[j].Key })
	return out
}

// SaveFile writes the store to path. The format follows the extension:
// .yaml/.yml, .json or .toml. The file is replaced atomically.
func (s *Store) SaveFile(path string) error {
	preset := s.Snapshot()
	preset.SavedAt = time.Now().UTC().Truncate(time.Second)
	var (
		b   []byte
		err error
	)
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		b, err = yaml.Marshal(preset)
	case ".json":
		b, err = json.MarshalIndent(preset, "", "  ")
	case ".toml":
		b, err = toml.Marshal(preset)
	default:
		return fmt.Errorf("unsupported state extension: %s", ext)
	}
	if err != nil {
		return fmt.Errorf("encode state: %w", err)
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("state dir: %w", err)
		}
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, b, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

// LoadFile replaces the store's contents with the preset at path. Presets
// written for another plugin are rejected.
func (s *Store) LoadFile(path string) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	var preset Preset
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(b, &preset)
	case ".json":
		err = json.Unmarshal(b, &preset)
	case ".toml":
		err = toml.Unmarshal(b, &preset)
	default:
		return fmt.Errorf("unsupported state extension: %s", ext)
	}
	if err != nil {
		return fmt.Errorf("decode state: %w", err)
	}
	if preset.Plugin != "" && preset.Plugin != urid.PluginURI {
		return fmt.Errorf("state written for %q", preset.Plugin)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	clear(s.props)
	for _, p := range preset.Properties {
		if p.Key == "" || !s.textType(p.Type) {
			continue
		}
		s.props[p.Key] = p
	}
	return nil
}
