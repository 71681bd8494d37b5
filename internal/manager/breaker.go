package manager

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/sony/gobreaker/v2"

	"embedd/internal/config"
	"embedd/internal/errs"
)

// breakerSet holds one circuit breaker per model key. A nil *breakerSet runs
// calls directly.
type breakerSet struct {
	settings func(name string) gobreaker.Settings

	mu       sync.Mutex
	breakers map[string]*gobreaker.CircuitBreaker[[][]float32]
}

func (m *Manager) newBreakers(eh config.ErrorHandlingConfig) *breakerSet {
	if !eh.CircuitBreakerEnabled {
		return nil
	}
	trip := uint32(defaultBreakerTrip)
	if eh.CircuitBreakerThreshold > 0 {
		trip = uint32(eh.CircuitBreakerThreshold)
	}
	timeout := defaultBreakerTimeout
	if eh.CircuitBreakerTimeout > 0 {
		timeout = time.Duration(eh.CircuitBreakerTimeout) * time.Second
	}
	return &breakerSet{
		breakers: make(map[string]*gobreaker.CircuitBreaker[[][]float32]),
		settings: func(name string) gobreaker.Settings {
			return gobreaker.Settings{
				Name:        name,
				MaxRequests: 1,
				Timeout:     timeout,
				ReadyToTrip: func(c gobreaker.Counts) bool {
					return c.ConsecutiveFailures >= trip
				},
				IsSuccessful: countsAsSuccess,
				OnStateChange: func(name string, from, to gobreaker.State) {
					m.log.Warn().Str("model", name).Str("from", from.String()).Str("to", to.String()).Msg("circuit breaker state change")
					m.publisher.Publish(Event{Name: EventBreaker, ModelID: name, Fields: map[string]any{"from": from.String(), "to": to.String()}})
				},
			}
		},
	}
}

// countsAsSuccess keeps caller mistakes and cancellations from tripping a breaker.
func countsAsSuccess(err error) bool {
	return err == nil ||
		errs.IsInvalidInput(err) ||
		errors.Is(err, context.Canceled) ||
		errors.Is(err, context.DeadlineExceeded)
}

func (b *breakerSet) get(name string) *gobreaker.CircuitBreaker[[][]float32] {
	b.mu.Lock()
	defer b.mu.Unlock()
	cb, ok := b.breakers[name]
	if !ok {
		cb = gobreaker.NewCircuitBreaker[[][]float32](b.settings(name))
		b.breakers[name] = cb
	}
	return cb
}

// execute runs fn through the breaker of name. An open breaker is reported
// as errs.Unavailable.
func (b *breakerSet) execute(name string, fn func() ([][]float32, error)) ([][]float32, error) {
	if b == nil {
		return fn()
	}
	out, err := b.get(name).Execute(fn)
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return nil, errs.Unavailable(name, err)
	}
	return out, err
}

// state returns the breaker state of name, or "" when breakers are disabled
// or name has not served a request yet.
func (b *breakerSet) state(name string) string {
	if b == nil {
		return ""
	}
	b.mu.Lock()
	cb, ok := b.breakers[name]
	b.mu.Unlock()
	if !ok {
		return ""
	}
	return cb.State().String()
}

// reset forgets the breaker of name.
func (b *breakerSet) reset(name string) {
	if b == nil {
		return
	}
	b.mu.Lock()
	delete(b.breakers, name)
	b.mu.Unlock()
}
