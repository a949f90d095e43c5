package manager

import (
	"namd/internal/registry"
)

// Defaults applied when corresponding ManagerConfig fields are unset.
const (
	defaultStateFile = "namd-state.yaml"
	defaultEventBuf  = 32
)

// ManagerConfig encapsulates all tunables for Manager construction.
type ManagerConfig struct {
	Engine  Engine
	Catalog *registry.Catalog
	// ModelsDir resolves relative model paths.
	ModelsDir string
	// StateDir resolves relative preset files; StateFile is used when a request
	// names none.
	StateDir  string
	StateFile string
	// DefaultModel is a catalog ID or path applied by ApplyDefaultModel.
	DefaultModel string
	Publisher    EventPublisher
}

// NewWithConfig constructs a Manager from ManagerConfig.
func NewWithConfig(cfg ManagerConfig) *Manager {
	m := &Manager{
		eng:          cfg.Engine,
		catalog:      cfg.Catalog,
		modelsDir:    cfg.ModelsDir,
		stateDir:     cfg.StateDir,
		stateFile:    cfg.StateFile,
		defaultModel: cfg.DefaultModel,
		pub:          cfg.Publisher,
	}
	if m.catalog == nil {
		m.catalog = registry.NewCatalog(nil)
	}
	if m.stateFile == "" {
		m.stateFile = defaultStateFile
	}
	if m.pub == nil {
		m.pub = noopPublisher{}
	}
	return m
}
