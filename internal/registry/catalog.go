package registry

import (
	"errors"
	"sync"

	"github.com/google/btree"

	"namd/pkg/types"
)

// ErrNotFound is returned for unknown model IDs.
var ErrNotFound = errors.New("model not found")

// Catalog is the ordered, concurrently readable set of known models.
type Catalog struct {
	mu   sync.RWMutex
	dir  string
	tree *btree.BTreeG[types.Model]
}

func lessByID(a, b types.Model) bool { return a.ID < b.ID }

// NewCatalog builds a catalog from models. Later duplicates replace earlier ones.
func NewCatalog(models []types.Model) *Catalog {
	c := &Catalog{tree: btree.NewG(8, lessByID)}
	for _, m := range models {
		c.tree.ReplaceOrInsert(m)
	}
	return c
}

// OpenDir scans dir into a new catalog that Rescan can refresh.
func OpenDir(dir string) (*Catalog, error) {
	models, err := LoadDir(dir)
	if err != nil {
		return nil, err
	}
	c := NewCatalog(models)
	c.dir = dir
	return c, nil
}

// Rescan reloads the catalog from its directory. Catalogs built from a slice
// have nothing to rescan.
func (c *Catalog) Rescan() error {
	if c.dir == "" {
		return nil
	}
	models, err := LoadDir(c.dir)
	if err != nil {
		return err
	}
	tree := btree.NewG(8, lessByID)
	for _, m := range models {
		tree.ReplaceOrInsert(m)
	}
	c.mu.Lock()
	c.tree = tree
	c.mu.Unlock()
	return nil
}

// Get returns the model with the given ID.
func (c *Catalog) Get(id string) (types.Model, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	m, ok := c.tree.Get(types.Model{ID: id})
	if !ok {
		return types.Model{}, ErrNotFound
	}
	return m, nil
}

// ByPath finds the entry for an absolute file path.
func (c *Catalog) ByPath(path string) (types.Model, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	var found types.Model
	ok := false
	c.tree.Ascend(func(m types.Model) bool {
		if m.Path == path {
			found, ok = m, true
			return false
		}
		return true
	})
	return found, ok
}

// List returns every model ordered by ID.
func (c *Catalog) List() []types.Model {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]types.Model, 0, c.tree.Len())
	c.tree.Ascend(func(m types.Model) bool {
		out = append(out, m)
		return true
	})
	return out
}

// Prefix returns the models whose ID starts with prefix, e.g. a subdirectory.
func (c *Catalog) Prefix(prefix string) []types.Model {
	c.mu.RLock()
	defer c.mu.RUnlock()
	var out []types.Model
	c.tree.AscendGreaterOrEqual(types.Model{ID: prefix}, func(m types.Model) bool {
		if len(m.ID) < len(prefix) || m.ID[:len(prefix)] != prefix {
			return false
		}
		out = append(out, m)
		return true
	})
	return out
}

// Len reports the number of models.
func (c *Catalog) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.tree.Len()
}
