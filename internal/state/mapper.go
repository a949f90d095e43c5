package state

import (
	"path/filepath"
	"strings"

	"namd/internal/common/fsutil"
)

// Mapper stores paths under Base relative to it, so a preset and its models can
// move together. Paths outside Base stay absolute.
type Mapper struct {
	Base string
}

// NewMapper resolves base (with ~ expansion) to an absolute directory.
func NewMapper(base string) (Mapper, error) {
	abs, err := fsutil.Resolve(base, "")
	if err != nil {
		return Mapper{}, err
	}
	return Mapper{Base: abs}, nil
}

// AbstractPath implements plugin.PathMapper.
func (m Mapper) AbstractPath(absolute string) string {
	if m.Base == "" || !filepath.IsAbs(absolute) {
		return absolute
	}
	rel, err := filepath.Rel(m.Base, absolute)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return absolute
	}
	return filepath.ToSlash(rel)
}

// AbsolutePath implements plugin.PathMapper.
func (m Mapper) AbsolutePath(abstract string) string {
	if filepath.IsAbs(abstract) || m.Base == "" {
		return abstract
	}
	return filepath.Join(m.Base, filepath.FromSlash(abstract))
}
