package manager

import (
	"errors"
	"strings"

	"namd/internal/common/fsutil"
	"namd/internal/host"
	"namd/internal/registry"
	"namd/pkg/types"
)

// Engine is the audio side the manager drives; *host.Engine implements it.
type Engine interface {
	SetModel(path string) error
	RequestPath() error
	Model() types.ModelResponse
	Status() types.StatusResponse
	SetGain(inputDB, outputDB *float32)
	Subscribe(buf int) (<-chan types.Notification, func())
	SaveFile(path string) error
	RestoreFile(path string) error
	Running() bool
}

type Manager struct {
	eng          Engine
	catalog      *registry.Catalog
	modelsDir    string
	stateDir     string
	stateFile    string
	defaultModel string
	pub          EventPublisher
}

// New builds a manager with package defaults.
func New(eng Engine, catalog *registry.Catalog, modelsDir string) *Manager {
	return NewWithConfig(ManagerConfig{Engine: eng, Catalog: catalog, ModelsDir: modelsDir})
}

// Ready reports whether audio is being processed.
func (m *Manager) Ready() bool { return m.eng.Running() }

// ListModels returns the catalog ordered by ID.
func (m *Manager) ListModels() []types.Model { return m.catalog.List() }

// Rescan refreshes the catalog from disk.
func (m *Manager) Rescan() error {
	if err := m.catalog.Rescan(); err != nil {
		return err
	}
	m.pub.Publish(Event{Name: EventRescanned, Fields: map[string]any{"models": m.catalog.Len()}})
	return nil
}

// Status reports the engine status.
func (m *Manager) Status() types.StatusResponse { return m.eng.Status() }

// Model reports the active model, named from the catalog when it is listed.
func (m *Manager) Model() types.ModelResponse { return m.describe(m.eng.Model()) }

func (m *Manager) describe(r types.ModelResponse) types.ModelResponse {
	if r.Path == "" {
		return r
	}
	if mdl, ok := m.catalog.ByPath(r.Path); ok {
		r.ID, r.Name = mdl.ID, mdl.Name
	}
	return r
}

// RequestPath asks the plugin to re-announce its model path.
func (m *Manager) RequestPath() error { return mapEngineErr(m.eng.RequestPath()) }

// SetGain applies gain changes.
func (m *Manager) SetGain(req types.GainRequest) { m.eng.SetGain(req.InputDB, req.OutputDB) }

// Subscribe streams plugin notifications.
func (m *Manager) Subscribe(buf int) (<-chan types.Notification, func()) {
	if buf <= 0 {
		buf = defaultEventBuf
	}
	return m.eng.Subscribe(buf)
}

// Resolve maps a request to a model file: a catalog ID wins, otherwise Path
// (relative paths are taken from the models directory) must name an existing
// file.
func (m *Manager) Resolve(req types.SetModelRequest) (string, error) {
	id, path := strings.TrimSpace(req.ID), strings.TrimSpace(req.Path)
	switch {
	case id != "":
		mdl, err := m.catalog.Get(id)
		if errors.Is(err, registry.ErrNotFound) {
			return "", ErrModelNotFound(id)
		}
		if err != nil {
			return "", err
		}
		return mdl.Path, nil
	case path != "":
		base, err := fsutil.ExpandHome(m.modelsDir)
		if err != nil {
			return "", err
		}
		abs, err := fsutil.Resolve(path, base)
		if err != nil {
			return "", ErrInvalid(err.Error())
		}
		if !fsutil.IsRegularFile(abs) {
			return "", ErrModelNotFound(path)
		}
		return abs, nil
	default:
		return "", ErrInvalid("id or path is required")
	}
}

// SetModel resolves and requests a model change. The swap completes
// asynchronously; the returned response reflects the state at request time.
func (m *Manager) SetModel(req types.SetModelRequest) (types.ModelResponse, error) {
	path, err := m.Resolve(req)
	if err != nil {
		return types.ModelResponse{}, err
	}
	if err := m.eng.SetModel(path); err != nil {
		return types.ModelResponse{}, mapEngineErr(err)
	}
	m.pub.Publish(Event{Name: EventModelRequested, Path: path})
	return m.Model(), nil
}

// ApplyDefaultModel requests the configured default model, if any.
func (m *Manager) ApplyDefaultModel() error {
	if m.defaultModel == "" {
		return nil
	}
	if _, err := m.catalog.Get(m.defaultModel); err == nil {
		_, err = m.SetModel(types.SetModelRequest{ID: m.defaultModel})
		return err
	}
	_, err := m.SetModel(types.SetModelRequest{Path: m.defaultModel})
	return err
}

func mapEngineErr(err error) error {
	switch {
	case err == nil:
		return nil
	case host.IsBusy(err):
		return tooBusyError{what: err.Error()}
	case errors.Is(err, host.ErrPathTooLong):
		return ErrInvalid(err.Error())
	default:
		return err
	}
}
