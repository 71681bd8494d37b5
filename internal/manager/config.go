package manager

import (
	"time"

	"github.com/rs/zerolog"

	"embedd/internal/config"
	"embedd/internal/model"
	"embedd/internal/registry"
)

// Defaults applied when the corresponding models config fields are unset.
const (
	defaultRetryDelay     = 100 * time.Millisecond
	defaultBreakerTimeout = 30 * time.Second
	defaultBreakerTrip    = 5
)

// ManagerConfig encapsulates all tunables for Manager construction.
type ManagerConfig struct {
	// Models is the models document. It must pass Validate.
	Models config.ModelsConfig
	// Factory builds models; nil selects model.NewFactory.
	Factory model.Factory
	Logger  zerolog.Logger
	// Publisher receives lifecycle events; nil drops them.
	Publisher EventPublisher
}

// NewWithConfig constructs a Manager from ManagerConfig. No model is loaded
// until Initialize or LoadModel is called.
func NewWithConfig(cfg ManagerConfig) (*Manager, error) {
	models := withKeys(cfg.Models)
	if err := models.Validate(); err != nil {
		return nil, err
	}
	log := cfg.Logger.With().Str("component", "manager").Logger()
	factory := cfg.Factory
	if factory == nil {
		factory = model.NewFactory(cfg.Logger, nil)
	}
	pub := cfg.Publisher
	if pub == nil {
		pub = noopPublisher{}
	}
	m := &Manager{
		state:     StateLoading,
		cfg:       models,
		factory:   factory,
		log:       log,
		publisher: pub,
		startTime: time.Now(),
	}
	m.reg = registry.New(factory, cfg.Logger.With().Str("component", "registry").Logger())
	m.cache = newEmbedCache(models)
	m.breakers = m.newBreakers(models.ErrorHandling)
	return m, nil
}

// withKeys copies c, filling the key and display name of every model so
// lookups work for documents built in code as well as loaded ones.
func withKeys(c config.ModelsConfig) config.ModelsConfig {
	out := c
	out.Models = make(map[string]config.ModelConfig, len(c.Models))
	for key, mc := range c.Models {
		mc.Key = key
		if mc.Name == "" {
			mc.Name = key
		}
		out.Models[key] = mc
	}
	return out
}

func retryDelay(eh config.ErrorHandlingConfig) time.Duration {
	if eh.RetryDelayMS <= 0 {
		return defaultRetryDelay
	}
	return time.Duration(eh.RetryDelayMS) * time.Millisecond
}
