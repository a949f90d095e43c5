package plugin

import (
	"path/filepath"

	"namd/internal/pathbuf"
	"namd/internal/urid"
)

// StateFlags describe a stored property.
type StateFlags uint32

const (
	// StatePOD marks plain-old-data values that contain no pointers.
	StatePOD StateFlags = 1 << iota
	// StatePortable marks values that are meaningful on another machine.
	StatePortable
)

// StoreFunc persists one property. value is copied by the host.
type StoreFunc func(key urid.URID, value []byte, typ urid.URID, flags StateFlags) error

// RetrieveFunc reads back one property.
type RetrieveFunc func(key urid.URID) (value []byte, typ urid.URID, flags StateFlags, ok bool)

// PathMapper converts between absolute paths and host-relocatable abstract
// paths.
type PathMapper interface {
	AbstractPath(absolute string) string
	AbsolutePath(abstract string) string
}

// Save stores the active model's abstract path. Without a model there is
// nothing to store. A path that does not fit is ErrPathTooLong and nothing is
// stored.
func (p *Plugin) Save(store StoreFunc, paths PathMapper) error {
	if p.model == nil {
		return nil
	}
	abs := p.path.String()
	abstract := abs
	if paths != nil {
		abstract = paths.AbstractPath(abs)
	}
	if len(abstract) >= pathbuf.MaxPathLen {
		return ErrPathTooLong
	}
	value := make([]byte, len(abstract)+1)
	copy(value, abstract)
	if err := store(p.uris.ModelPath, value, p.uris.AtomPath, StatePOD|StatePortable); err != nil {
		return err
	}
	p.log.Debug().Str("path", abstract).Msg("state saved")
	return nil
}

// Restore reads the stored model path and loads it. Before activation the load
// happens synchronously; afterwards it goes through the same worker request a
// control event would issue. A missing or mistyped property leaves the instance
// unchanged.
func (p *Plugin) Restore(retrieve RetrieveFunc, paths PathMapper) error {
	value, typ, _, ok := retrieve(p.uris.ModelPath)
	if !ok || typ != p.uris.AtomPath {
		return nil
	}
	abstract := cstring(value)
	if abstract == "" {
		return nil
	}
	abs := abstract
	if !filepath.IsAbs(abstract) && paths != nil {
		abs = paths.AbsolutePath(abstract)
	}
	if len(abs) >= pathbuf.MaxPathLen {
		return ErrPathTooLong
	}
	p.log.Info().Str("path", abs).Bool("activated", p.activated).Msg("restoring model")
	if p.activated {
		if !p.requestLoad([]byte(abs)) {
			return errScheduleRefused
		}
		return nil
	}
	return p.loadNow(abs)
}

// loadNow installs a model synchronously. Only valid while not activated, when
// there is no audio thread to protect.
func (p *Plugin) loadNow(path string) error {
	m, err := p.load(path)
	p.noteLoad(err)
	if err != nil {
		loadFailures.Inc()
		p.log.Error().Err(err).Str("path", path).Msg("model load failed; keeping current model")
		return err
	}
	old := p.model
	p.model = m
	_ = p.path.SetString(path)
	p.notifyChanged = true
	p.notifyPath = true
	swapsTotal.Inc()
	if old != nil {
		if err := old.Close(); err != nil {
			p.log.Warn().Err(err).Msg("close replaced model")
		}
	}
	return nil
}

func cstring(b []byte) string {
	for i, c := range b {
		if c == 0 {
			return string(b[:i])
		}
	}
	return string(b)
}
