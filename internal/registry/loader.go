package registry

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/docker/go-units"

	"namd/internal/common/fsutil"
	"namd/internal/dsp"
	"namd/pkg/types"
)

// LoadDir walks dir for model files (.nam, .nam.xz, .nam.lz4) and builds
// registry entries. ID is the slash-separated path relative to dir; Path is
// absolute. Hidden directories are skipped.
func LoadDir(dir string) ([]types.Model, error) {
	base, err := fsutil.ExpandHome(dir)
	if err != nil {
		return nil, err
	}
	abs, err := filepath.Abs(base)
	if err != nil {
		return nil, fmt.Errorf("abs path: %w", err)
	}
	var models []types.Model
	err = filepath.WalkDir(abs, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if p != abs && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if !dsp.IsModelFile(d.Name()) {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return nil
		}
		rel, err := filepath.Rel(abs, p)
		if err != nil {
			return nil
		}
		models = append(models, types.Model{
			ID:          filepath.ToSlash(rel),
			Name:        displayName(d.Name()),
			Path:        p,
			SizeBytes:   info.Size(),
			Size:        units.BytesSize(float64(info.Size())),
			Compression: compression(d.Name()),
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("read dir: %w", err)
	}
	return models, nil
}

func compression(name string) string {
	lower := strings.ToLower(name)
	switch {
	case strings.HasSuffix(lower, ".xz"):
		return "xz"
	case strings.HasSuffix(lower, ".lz4"):
		return "lz4"
	}
	return ""
}

// displayName strips the model extensions: "plexi-crunch.nam.xz" -> "plexi-crunch".
func displayName(name string) string {
	lower := strings.ToLower(name)
	for _, ext := range []string{".nam.xz", ".nam.lz4", ".nam"} {
		if strings.HasSuffix(lower, ext) {
			return name[:len(name)-len(ext)]
		}
	}
	return name
}
