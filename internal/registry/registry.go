// Package registry owns the set of loaded models. It is the single source of
// truth for which names are servable; lookups take a read lock only and never
// wait on inference.
package registry

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"embedd/internal/errs"
	"embedd/internal/model"
)

type entry struct {
	model model.Model
	info  model.Info
}

// Registry maps model names to initialized models.
type Registry struct {
	factory model.Factory
	log     zerolog.Logger

	mu      sync.RWMutex
	entries map[string]*entry

	locksMu sync.Mutex
	locks   map[string]*sync.Mutex // per-name load/unload serialization
}

// New returns an empty registry that builds models with factory.
func New(factory model.Factory, log zerolog.Logger) *Registry {
	return &Registry{
		factory: factory,
		log:     log,
		entries: make(map[string]*entry),
		locks:   make(map[string]*sync.Mutex),
	}
}

func (r *Registry) lockName(name string) func() {
	r.locksMu.Lock()
	l, ok := r.locks[name]
	if !ok {
		l = &sync.Mutex{}
		r.locks[name] = l
	}
	r.locksMu.Unlock()
	l.Lock()
	return l.Unlock
}

// Load constructs and fully initializes the model for d, then publishes it.
// On failure the registry is unchanged. Loading a name that is already loaded
// replaces it; the previous instance is shut down after the swap.
func (r *Registry) Load(ctx context.Context, d model.Descriptor) (model.Info, error) {
	unlock := r.lockName(d.Name)
	defer unlock()

	start := time.Now()
	m, err := r.factory(d)
	if err != nil {
		return model.Info{}, asLoadError(d.Name, err)
	}
	if err := m.Initialize(ctx); err != nil {
		_ = m.Shutdown()
		return model.Info{}, asLoadError(d.Name, err)
	}
	if !m.IsReady() {
		_ = m.Shutdown()
		return model.Info{}, errs.ModelLoad(d.Name, errors.New("model not ready after initialize"))
	}
	info := m.Info()
	info.Name = d.Name
	info.Loaded = true
	info.LoadedAt = time.Now()

	r.mu.Lock()
	prev := r.entries[d.Name]
	r.entries[d.Name] = &entry{model: m, info: info}
	r.mu.Unlock()

	r.log.Info().Str("model", d.Name).Str("kind", d.Kind).Dur("dur", time.Since(start)).Msg("registry event=loaded")
	if prev != nil {
		if err := prev.model.Shutdown(); err != nil {
			r.log.Warn().Err(err).Str("model", d.Name).Msg("registry: shutdown of replaced model failed")
		}
	}
	return info, nil
}

func asLoadError(name string, err error) error {
	if errs.IsModelLoad(err) {
		return err
	}
	return errs.ModelLoad(name, err)
}

// Unload removes name and shuts its model down. In-flight calls finish first.
func (r *Registry) Unload(name string) error {
	unlock := r.lockName(name)
	defer unlock()

	r.mu.Lock()
	e, ok := r.entries[name]
	if ok {
		delete(r.entries, name)
	}
	r.mu.Unlock()
	if !ok {
		return errs.ModelNotFound(name)
	}
	err := e.model.Shutdown()
	r.log.Info().Str("model", name).Msg("registry event=unloaded")
	return err
}

// Get returns the loaded model for name.
func (r *Registry) Get(name string) (model.Model, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.entries[name]
	if !ok {
		return nil, false
	}
	return e.model, true
}

// Info returns the snapshot of a loaded model.
func (r *Registry) Info(name string) (model.Info, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.entries[name]
	if !ok {
		return model.Info{}, false
	}
	return e.info, true
}

// IsLoaded reports whether name is loaded.
func (r *Registry) IsLoaded(name string) bool {
	_, ok := r.Get(name)
	return ok
}

// Names returns loaded model names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	names := make([]string, 0, len(r.entries))
	for n := range r.entries {
		names = append(names, n)
	}
	r.mu.RUnlock()
	sort.Strings(names)
	return names
}

// Infos returns snapshots of all loaded models, sorted by name.
func (r *Registry) Infos() []model.Info {
	r.mu.RLock()
	out := make([]model.Info, 0, len(r.entries))
	for _, e := range r.entries {
		out = append(out, e.info)
	}
	r.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// GPUModels returns loaded models that run on a GPU.
func (r *Registry) GPUModels() []model.Info {
	var out []model.Info
	for _, info := range r.Infos() {
		if info.UsesGPU {
			out = append(out, info)
		}
	}
	return out
}

// Len returns the number of loaded models.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}

// ShutdownAll empties the registry and shuts every model down, waiting for
// in-flight inference. Errors are joined.
func (r *Registry) ShutdownAll() error {
	r.mu.Lock()
	entries := r.entries
	r.entries = make(map[string]*entry)
	r.mu.Unlock()

	var errList []error
	for name, e := range entries {
		if err := e.model.Shutdown(); err != nil {
			errList = append(errList, fmt.Errorf("shutdown %s: %w", name, err))
		}
	}
	return errors.Join(errList...)
}
