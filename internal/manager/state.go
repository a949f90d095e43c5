package manager

import (
	"path/filepath"

	"namd/internal/common/fsutil"
)

// stateFilePath picks the preset file for a request: the given name or the
// configured default, relative to the state directory.
func (m *Manager) stateFilePath(file string) (string, error) {
	if file == "" {
		file = m.stateFile
	}
	switch filepath.Ext(file) {
	case ".yaml", ".yml", ".json", ".toml":
	default:
		return "", ErrInvalid("state file must be .yaml, .yml, .json or .toml")
	}
	base, err := fsutil.ExpandHome(m.stateDir)
	if err != nil {
		return "", err
	}
	return fsutil.Resolve(file, base)
}

// SaveState writes the plugin state to a preset file and returns its path.
func (m *Manager) SaveState(file string) (string, error) {
	p, err := m.stateFilePath(file)
	if err != nil {
		return "", err
	}
	if err := m.eng.SaveFile(p); err != nil {
		return "", mapEngineErr(err)
	}
	m.pub.Publish(Event{Name: EventStateSaved, Path: p})
	return p, nil
}

// RestoreState applies a preset file and returns its path.
func (m *Manager) RestoreState(file string) (string, error) {
	p, err := m.stateFilePath(file)
	if err != nil {
		return "", err
	}
	if !fsutil.PathExists(p) {
		return "", stateNotFoundError{path: p}
	}
	if err := m.eng.RestoreFile(p); err != nil {
		return "", mapEngineErr(err)
	}
	m.pub.Publish(Event{Name: EventStateRestored, Path: p})
	return p, nil
}
