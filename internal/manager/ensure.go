package manager

import (
	"context"
	"errors"
	"time"

	"github.com/sethvargo/go-retry"
	"go.opentelemetry.io/otel/attribute"

	"embedd/internal/common/tracing"
	"embedd/internal/config"
	"embedd/internal/errs"
	"embedd/internal/model"
)

// Initialize loads every enabled model. A failure of the default model is
// returned and leaves the manager in StateError; failures of other models are
// logged, published and recorded as the last error.
func (m *Manager) Initialize(ctx context.Context) error {
	m.reloadMu.RLock()
	defer m.reloadMu.RUnlock()
	return m.initialize(ctx)
}

func (m *Manager) initialize(ctx context.Context) error {
	cfg := m.current()
	m.setState(StateLoading, "")
	def, _ := cfg.Default()

	var defErr, lastErr error
	for _, mc := range cfg.Enabled() {
		if _, err := m.load(ctx, cfg, mc); err != nil {
			lastErr = err
			if mc.Key == def.Key {
				defErr = err
			}
		}
	}
	switch {
	case defErr != nil:
		m.setState(StateError, defErr.Error())
		return defErr
	case lastErr != nil:
		m.setState(StateReady, lastErr.Error())
	default:
		m.setState(StateReady, "")
	}
	m.log.Info().Int("loaded", m.reg.Len()).Str("default", def.Key).Msg("manager initialized")
	return nil
}

// LoadModel loads (or replaces) a configured model by key or display name.
// Disabled models can be loaded explicitly.
func (m *Manager) LoadModel(ctx context.Context, name string) (model.Info, error) {
	m.reloadMu.RLock()
	defer m.reloadMu.RUnlock()
	cfg := m.current()
	mc, ok := cfg.Find(name)
	if !ok {
		return model.Info{}, errs.ModelNotFound(name)
	}
	return m.load(ctx, cfg, mc)
}

// load builds and publishes one model, retrying transient failures with a
// constant backoff of error_handling.retry_delay_ms up to max_retries times.
func (m *Manager) load(ctx context.Context, cfg config.ModelsConfig, mc config.ModelConfig) (info model.Info, err error) {
	ctx, span := tracing.StartSpan(ctx, "manager.load",
		attribute.String("model", mc.Key),
		attribute.String("kind", mc.Kind),
	)
	defer func() { tracing.End(span, err) }()

	if t := cfg.Global.InitTimeout; t > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, time.Duration(t)*time.Second)
		defer cancel()
	}

	m.publisher.Publish(Event{Name: EventLoadStart, ModelID: mc.Key, Fields: map[string]any{"kind": mc.Kind}})
	d := descriptorFor(mc)
	attempt := 0
	backoff := retry.WithMaxRetries(uint64(max(cfg.ErrorHandling.MaxRetries, 0)), retry.NewConstant(retryDelay(cfg.ErrorHandling)))
	err = retry.Do(ctx, backoff, func(ctx context.Context) error {
		attempt++
		var lerr error
		info, lerr = m.reg.Load(ctx, d)
		if lerr == nil {
			return nil
		}
		if !retryable(lerr) {
			return lerr
		}
		m.log.Warn().Err(lerr).Str("model", mc.Key).Int("attempt", attempt).Msg("model load failed")
		return retry.RetryableError(lerr)
	})
	if err != nil {
		modelLoadsTotal.WithLabelValues(mc.Key, "error").Inc()
		m.log.Error().Err(err).Str("model", mc.Key).Int("attempts", attempt).Msg("model load failed")
		m.publisher.Publish(Event{Name: EventLoadFailed, ModelID: mc.Key, Fields: map[string]any{"error": err.Error(), "attempts": attempt}})
		m.setErr(err.Error())
		return model.Info{}, err
	}

	cache, breakers := m.parts()
	cache.purgeModel(mc.Key)
	breakers.reset(mc.Key)
	m.loadsTotal.Add(1)
	modelLoadsTotal.WithLabelValues(mc.Key, "ok").Inc()
	m.publisher.Publish(Event{Name: EventLoaded, ModelID: mc.Key, Fields: map[string]any{"attempts": attempt, "device": info.Device}})
	return info, nil
}

// retryable reports whether a load failure may succeed on a later attempt.
// Missing runtimes and cancelled contexts never do.
func retryable(err error) bool {
	return !errs.IsDependencyUnavailable(err) &&
		!errors.Is(err, context.Canceled) &&
		!errors.Is(err, context.DeadlineExceeded)
}
