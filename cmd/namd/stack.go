package main

import (
	"namd/internal/common/fsutil"
	"namd/internal/host"
	"namd/internal/manager"
	"namd/internal/registry"
	"namd/internal/state"
)

// stack is the engine plus the manager in front of it, shared by serve and
// console.
type stack struct {
	eng *host.Engine
	mgr *manager.Manager
}

func (o *options) buildStack() (*stack, error) {
	cfg := o.cfg
	catalog, err := registry.OpenDir(cfg.ModelsDir)
	if err != nil {
		// A missing models dir is not fatal: absolute paths still load.
		o.log.Warn().Err(err).Str("dir", cfg.ModelsDir).Msg("models directory unavailable")
		catalog = registry.NewCatalog(nil)
	}
	stateDir, err := fsutil.ExpandHome(cfg.StateDir)
	if err != nil {
		return nil, err
	}
	mapper, err := state.NewMapper(stateDir)
	if err != nil {
		return nil, err
	}
	maxSize, err := cfg.MaxModelSizeBytes()
	if err != nil {
		return nil, err
	}
	modelsDir, err := fsutil.ExpandHome(cfg.ModelsDir)
	if err != nil {
		return nil, err
	}
	eng, err := host.New(host.Config{
		SampleRate:   float64(cfg.SampleRate),
		BlockSize:    cfg.BlockSize,
		MaxBlock:     cfg.MaxBlock,
		MaxModelSize: maxSize,
		InputDB:      cfg.InputDB,
		OutputDB:     cfg.OutputDB,
		Paths:        mapper,
		Log:          o.log,
	})
	if err != nil {
		return nil, err
	}
	mgr := manager.NewWithConfig(manager.ManagerConfig{
		Engine:       eng,
		Catalog:      catalog,
		ModelsDir:    modelsDir,
		StateDir:     stateDir,
		StateFile:    cfg.StateFile,
		DefaultModel: cfg.DefaultModel,
		Publisher:    manager.LogPublisher{Log: o.log},
	})
	o.log.Info().Int("models", catalog.Len()).Str("dir", modelsDir).Msg("catalog loaded")
	return &stack{eng: eng, mgr: mgr}, nil
}

// restoreOrDefault restores the configured state file when it exists and
// otherwise requests the default model.
func (s *stack) restoreOrDefault(o *options) {
	file, err := s.mgr.RestoreState("")
	switch {
	case err == nil:
		o.log.Info().Str("file", file).Msg("state restored")
		return
	case manager.IsNotFound(err):
		o.log.Debug().Err(err).Msg("no saved state")
	default:
		o.log.Error().Err(err).Msg("restore state failed")
	}
	if err := s.mgr.ApplyDefaultModel(); err != nil {
		o.log.Error().Err(err).Str("model", o.cfg.DefaultModel).Msg("default model failed")
	}
}
