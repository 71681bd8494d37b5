package manager

import (
	"context"
	"fmt"

	"embedd/internal/config"
)

// ReloadConfig reads a models document from path and applies it with Reload.
func (m *Manager) ReloadConfig(ctx context.Context, path string) error {
	cfg, err := config.LoadModels(path)
	if err != nil {
		return err
	}
	return m.Reload(ctx, cfg)
}

// Reload replaces the models configuration. The new document is validated
// first; an invalid one leaves everything untouched. Otherwise every loaded
// model is shut down (waiting for in-flight work), the configuration is
// swapped and all enabled models are loaded again.
//
// Reload is not transactional: if re-initialization fails, the previous models
// are not restored and the manager stays in StateError until a later reload
// or load succeeds.
func (m *Manager) Reload(ctx context.Context, cfg config.ModelsConfig) error {
	next := withKeys(cfg)
	if err := next.Validate(); err != nil {
		return err
	}

	m.reloadMu.Lock()
	defer m.reloadMu.Unlock()

	m.publisher.Publish(Event{Name: EventReloadStart, Fields: map[string]any{"models": len(next.Models)}})
	m.setState(StateLoading, "")
	if err := m.reg.ShutdownAll(); err != nil {
		m.log.Warn().Err(err).Msg("reload: shutdown of previous models reported errors")
	}

	m.mu.Lock()
	m.cache.purge()
	m.cfg = next
	m.cache = newEmbedCache(next)
	m.breakers = m.newBreakers(next.ErrorHandling)
	m.mu.Unlock()

	if err := m.initialize(ctx); err != nil {
		err = fmt.Errorf("reload: %w", err)
		m.setState(StateError, err.Error())
		m.publisher.Publish(Event{Name: EventReloadFailed, Fields: map[string]any{"error": err.Error()}})
		return err
	}
	m.publisher.Publish(Event{Name: EventReloaded, Fields: map[string]any{"loaded": m.reg.Len()}})
	m.log.Info().Int("loaded", m.reg.Len()).Msg("models configuration reloaded")
	return nil
}
