package manager

import (
	"embedd/internal/errs"
)

// UnloadModel removes a loaded model. The call waits for in-flight inference
// on that model; later requests for it fail with ModelNotFound.
func (m *Manager) UnloadModel(name string) error {
	m.reloadMu.RLock()
	defer m.reloadMu.RUnlock()

	key, _, err := m.resolve(name)
	if err != nil {
		return err
	}
	if err := m.reg.Unload(key); err != nil {
		if errs.IsModelNotFound(err) {
			return err
		}
		m.log.Warn().Err(err).Str("model", key).Msg("shutdown after unload failed")
	}
	cache, breakers := m.parts()
	cache.purgeModel(key)
	breakers.reset(key)
	m.publisher.Publish(Event{Name: EventUnloaded, ModelID: key, Fields: map[string]any{}})
	return nil
}

// Shutdown unloads every model, waiting for in-flight inference.
func (m *Manager) Shutdown() error {
	m.reloadMu.Lock()
	defer m.reloadMu.Unlock()
	err := m.reg.ShutdownAll()
	cache, _ := m.parts()
	cache.purge()
	m.setState(StateLoading, "")
	m.log.Info().Msg("manager shut down")
	return err
}
