package manager

import (
	"maps"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"embedd/internal/config"
	"embedd/internal/errs"
	"embedd/internal/model"
	"embedd/internal/registry"
)

type Manager struct {
	// reloadMu is held exclusively by Reload and shared by everything that
	// touches models, so a reload never interleaves with a request.
	reloadMu sync.RWMutex

	mu       sync.RWMutex
	state    State
	err      string
	cfg      config.ModelsConfig
	cache    *embedCache
	breakers *breakerSet

	reg       *registry.Registry
	factory   model.Factory
	log       zerolog.Logger
	publisher EventPublisher

	stats      requestStats
	loadsTotal atomic.Uint64
	startTime  time.Time
}

// Config returns a copy of the current models configuration.
func (m *Manager) Config() config.ModelsConfig {
	m.mu.RLock()
	defer m.mu.RUnlock()
	cfg := m.cfg
	cfg.Models = maps.Clone(m.cfg.Models)
	return cfg
}

// current returns the live configuration. m.cfg is replaced, never mutated,
// so callers may read it without holding mu.
func (m *Manager) current() config.ModelsConfig {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.cfg
}

// DefaultModel returns the configured default model key.
func (m *Manager) DefaultModel() string {
	cfg := m.current()
	if mc, ok := cfg.Default(); ok {
		return mc.Key
	}
	return cfg.Global.DefaultModel
}

// Ready reports whether the default model is loaded and servable.
func (m *Manager) Ready() bool {
	mdl, ok := m.reg.Get(m.DefaultModel())
	return ok && mdl.IsReady()
}

// IsModelLoaded reports whether name (key or display name) is loaded.
func (m *Manager) IsModelLoaded(name string) bool {
	_, _, err := m.resolve(name)
	return err == nil
}

// ModelInfo returns the snapshot of a loaded model.
func (m *Manager) ModelInfo(name string) (model.Info, error) {
	key, _, err := m.resolve(name)
	if err != nil {
		return model.Info{}, err
	}
	info, ok := m.reg.Info(key)
	if !ok {
		return model.Info{}, errs.ModelNotFound(name)
	}
	return info, nil
}

// LoadedModels returns snapshots of all loaded models, sorted by name.
func (m *Manager) LoadedModels() []model.Info { return m.reg.Infos() }

// ListModels returns every configured model with its load status, sorted by key.
func (m *Manager) ListModels() []model.Info {
	cfg := m.current()
	out := make([]model.Info, 0, len(cfg.Models))
	for _, key := range cfg.Keys() {
		out = append(out, m.infoFor(cfg.Models[key]))
	}
	return out
}

// ModelsByGroup returns the configured members of a group independent of
// load state. ok is false for an unknown group.
func (m *Manager) ModelsByGroup(group string) ([]model.Info, bool) {
	members, ok := m.current().Group(group)
	if !ok {
		return nil, false
	}
	out := make([]model.Info, 0, len(members))
	for _, mc := range members {
		out = append(out, m.infoFor(mc))
	}
	return out, true
}

// GPUModels returns loaded models that run on a GPU.
func (m *Manager) GPUModels() []model.Info { return m.reg.GPUModels() }

// resolve maps a requested name to a loaded model. An empty name selects the
// default model. Keys win over display names.
func (m *Manager) resolve(name string) (string, model.Model, error) {
	cfg := m.current()
	if name == "" {
		name = cfg.Global.DefaultModel
	}
	if mdl, ok := m.reg.Get(name); ok {
		return name, mdl, nil
	}
	if mc, ok := cfg.Find(name); ok {
		if mdl, ok := m.reg.Get(mc.Key); ok {
			return mc.Key, mdl, nil
		}
	}
	return "", nil, errs.ModelNotFound(name)
}

func (m *Manager) infoFor(mc config.ModelConfig) model.Info {
	if info, ok := m.reg.Info(mc.Key); ok {
		return info
	}
	return descriptorFor(mc).Info()
}

func (m *Manager) setState(s State, errMsg string) {
	m.mu.Lock()
	m.state = s
	m.err = errMsg
	m.mu.Unlock()
}

func (m *Manager) setErr(errMsg string) {
	m.mu.Lock()
	m.err = errMsg
	m.mu.Unlock()
}

// parts returns the cache and breakers for the current configuration.
func (m *Manager) parts() (*embedCache, *breakerSet) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.cache, m.breakers
}

// ApplyConfigChange forwards a runtime tuning change (embedding.onnx.*) to a
// loaded model. Models without tunable settings return InvalidInput.
func (m *Manager) ApplyConfigChange(name, key, value string) error {
	m.reloadMu.RLock()
	defer m.reloadMu.RUnlock()
	resolved, mdl, err := m.resolve(name)
	if err != nil {
		return err
	}
	cc, ok := mdl.(model.ConfigChanger)
	if !ok {
		return errs.InvalidInput("model " + resolved + " has no tunable settings")
	}
	return cc.ApplyConfigChange(key, value)
}
