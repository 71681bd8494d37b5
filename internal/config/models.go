package config

import (
	"path/filepath"
	"slices"
	"sort"
	"strings"

	"embedd/internal/common/fsutil"
	"embedd/internal/errs"
)

// ModelsConfig is the models document (embeddingmodels.toml).
type ModelsConfig struct {
	Global        GlobalConfig           `json:"global" yaml:"global" toml:"global"`
	Models        map[string]ModelConfig `json:"models" yaml:"models" toml:"models"`
	ModelGroups   ModelGroups            `json:"model_groups" yaml:"model_groups" toml:"model_groups"`
	Monitoring    ModelMonitoringConfig  `json:"monitoring" yaml:"monitoring" toml:"monitoring"`
	ErrorHandling ErrorHandlingConfig    `json:"error_handling" yaml:"error_handling" toml:"error_handling"`
	Development   DevelopmentConfig      `json:"development" yaml:"development" toml:"development"`
}

type GlobalConfig struct {
	DefaultModel string `json:"default_model" yaml:"default_model" toml:"default_model"`
	MaxBatchSize int    `json:"max_batch_size" yaml:"max_batch_size" toml:"max_batch_size"`
	CacheEnabled bool   `json:"cache_enabled" yaml:"cache_enabled" toml:"cache_enabled"`
	CacheSizeMB  int    `json:"cache_size_mb" yaml:"cache_size_mb" toml:"cache_size_mb"`
	// Seconds.
	InitTimeout      int `json:"init_timeout" yaml:"init_timeout" toml:"init_timeout"`
	InferenceTimeout int `json:"inference_timeout" yaml:"inference_timeout" toml:"inference_timeout"`
	// ModelsDir is the base for relative artifact paths.
	ModelsDir string `json:"models_dir" yaml:"models_dir" toml:"models_dir"`
}

// ModelConfig describes one model. The map key in ModelsConfig.Models is the
// identifier used everywhere (registry, wire requests); Name is the display name
// and is accepted as an alias when resolving.
type ModelConfig struct {
	Key               string `json:"-" yaml:"-" toml:"-"`
	Name              string `json:"name" yaml:"name" toml:"name"`
	Description       string `json:"description" yaml:"description" toml:"description"`
	Version           string `json:"version" yaml:"version" toml:"version"`
	Enabled           bool   `json:"enabled" yaml:"enabled" toml:"enabled"`
	Kind              string `json:"kind" yaml:"kind" toml:"kind"`
	ModelPath         string `json:"model_path" yaml:"model_path" toml:"model_path"`
	TokenizerPath     string `json:"tokenizer_path" yaml:"tokenizer_path" toml:"tokenizer_path"`
	ConfigPath        string `json:"config_path" yaml:"config_path" toml:"config_path"`
	MaxSequenceLength int    `json:"max_sequence_length" yaml:"max_sequence_length" toml:"max_sequence_length"`
	EmbeddingDim      int    `json:"embedding_dimension" yaml:"embedding_dimension" toml:"embedding_dimension"`
	PoolingMode       string `json:"pooling_mode" yaml:"pooling_mode" toml:"pooling_mode"`
	BatchSize         int    `json:"batch_size" yaml:"batch_size" toml:"batch_size"`
	UseGPU            bool   `json:"use_gpu" yaml:"use_gpu" toml:"use_gpu"`
	NumThreads        int    `json:"num_threads" yaml:"num_threads" toml:"num_threads"`
	RuntimePath       string `json:"onnx_runtime_path" yaml:"onnx_runtime_path" toml:"onnx_runtime_path"`
	ExecutionProvider string `json:"execution_provider" yaml:"execution_provider" toml:"execution_provider"`
}

// ModelGroups lists model keys per use case.
type ModelGroups struct {
	General      []string `json:"general" yaml:"general" toml:"general"`
	Multilingual []string `json:"multilingual" yaml:"multilingual" toml:"multilingual"`
	HighDim      []string `json:"high_dim" yaml:"high_dim" toml:"high_dim"`
	GPUModels    []string `json:"gpu_models" yaml:"gpu_models" toml:"gpu_models"`
}

type ModelMonitoringConfig struct {
	MetricsEnabled    bool `json:"metrics_enabled" yaml:"metrics_enabled" toml:"metrics_enabled"`
	LogInferenceTimes bool `json:"log_inference_times" yaml:"log_inference_times" toml:"log_inference_times"`
	TrackUsage        bool `json:"track_usage" yaml:"track_usage" toml:"track_usage"`
	MetricsInterval   int  `json:"metrics_interval" yaml:"metrics_interval" toml:"metrics_interval"`
}

type ErrorHandlingConfig struct {
	MaxRetries              int  `json:"max_retries" yaml:"max_retries" toml:"max_retries"`
	RetryDelayMS            int  `json:"retry_delay_ms" yaml:"retry_delay_ms" toml:"retry_delay_ms"`
	CircuitBreakerEnabled   bool `json:"circuit_breaker_enabled" yaml:"circuit_breaker_enabled" toml:"circuit_breaker_enabled"`
	CircuitBreakerThreshold int  `json:"circuit_breaker_threshold" yaml:"circuit_breaker_threshold" toml:"circuit_breaker_threshold"`
	// Seconds.
	CircuitBreakerTimeout int `json:"circuit_breaker_timeout" yaml:"circuit_breaker_timeout" toml:"circuit_breaker_timeout"`
}

type DevelopmentConfig struct {
	DebugLogging      bool `json:"debug_logging" yaml:"debug_logging" toml:"debug_logging"`
	ValidateOutputs   bool `json:"validate_outputs" yaml:"validate_outputs" toml:"validate_outputs"`
	SaveIntermediates bool `json:"save_intermediates" yaml:"save_intermediates" toml:"save_intermediates"`
}

// Model kinds understood by the model factory.
const (
	KindONNX  = "onnx"
	KindHash  = "hash"
	KindLlama = "llama"
)

// Pooling modes.
const (
	PoolingMean = "mean"
	PoolingCLS  = "cls"
)

// Group names accepted by ModelsConfig.Group.
const (
	GroupGeneral      = "general"
	GroupMultilingual = "multilingual"
	GroupHighDim      = "high_dim"
	GroupGPUModels    = "gpu_models"
)

// DefaultModels returns the built-in models configuration (no models).
func DefaultModels() ModelsConfig {
	return ModelsConfig{
		Global: GlobalConfig{
			DefaultModel:     "all-MiniLM-L6-v2",
			MaxBatchSize:     32,
			CacheEnabled:     true,
			CacheSizeMB:      512,
			InitTimeout:      300,
			InferenceTimeout: 60,
		},
		Models: map[string]ModelConfig{},
		ErrorHandling: ErrorHandlingConfig{
			RetryDelayMS:            100,
			CircuitBreakerThreshold: 5,
			CircuitBreakerTimeout:   30,
		},
	}
}

// normalize fills derived fields: Key, default name, kind and pooling mode,
// and resolves artifact paths against Global.ModelsDir.
func (c *ModelsConfig) normalize() {
	if c.Models == nil {
		c.Models = map[string]ModelConfig{}
	}
	for key, m := range c.Models {
		m.Key = key
		if m.Name == "" {
			m.Name = key
		}
		if m.Kind == "" {
			m.Kind = KindONNX
			if strings.EqualFold(filepath.Ext(m.ModelPath), ".gguf") {
				m.Kind = KindLlama
			}
		}
		m.Kind = strings.ToLower(m.Kind)
		if m.PoolingMode == "" {
			m.PoolingMode = PoolingMean
		}
		m.PoolingMode = strings.ToLower(m.PoolingMode)
		m.ModelPath = c.resolve(m.ModelPath)
		m.TokenizerPath = c.resolve(m.TokenizerPath)
		m.ConfigPath = c.resolve(m.ConfigPath)
		c.Models[key] = m
	}
}

// resolve expands "~" and joins relative paths onto Global.ModelsDir.
func (c ModelsConfig) resolve(p string) string {
	out, err := fsutil.Resolve(c.Global.ModelsDir, p)
	if err != nil {
		return p
	}
	return out
}

// Find resolves name against model keys first, then display names.
func (c ModelsConfig) Find(name string) (ModelConfig, bool) {
	if m, ok := c.Models[name]; ok {
		return m, true
	}
	for _, key := range c.Keys() {
		if m := c.Models[key]; m.Name == name {
			return m, true
		}
	}
	return ModelConfig{}, false
}

// Keys returns model keys in sorted order.
func (c ModelsConfig) Keys() []string {
	keys := make([]string, 0, len(c.Models))
	for k := range c.Models {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Enabled returns enabled models sorted by key.
func (c ModelsConfig) Enabled() []ModelConfig {
	var out []ModelConfig
	for _, k := range c.Keys() {
		if m := c.Models[k]; m.Enabled {
			out = append(out, m)
		}
	}
	return out
}

// Default returns the configured default model.
func (c ModelsConfig) Default() (ModelConfig, bool) {
	return c.Find(c.Global.DefaultModel)
}

// Group returns the configured models of a named group, independent of load
// state. ok is false for an unknown group name.
func (c ModelsConfig) Group(name string) (models []ModelConfig, ok bool) {
	var names []string
	switch name {
	case GroupGeneral:
		names = c.ModelGroups.General
	case GroupMultilingual:
		names = c.ModelGroups.Multilingual
	case GroupHighDim:
		names = c.ModelGroups.HighDim
	case GroupGPUModels:
		names = c.ModelGroups.GPUModels
	default:
		return nil, false
	}
	for _, n := range names {
		if m, found := c.Find(n); found {
			models = append(models, m)
		}
	}
	return models, true
}

var knownKinds = []string{KindONNX, KindHash, KindLlama}

// Validate checks cross references and per-model parameters.
func (c ModelsConfig) Validate() error {
	def, ok := c.Default()
	if !ok {
		return errs.Config("default model %q not found in models", c.Global.DefaultModel)
	}
	if !def.Enabled {
		return errs.Config("default model %q is not enabled", c.Global.DefaultModel)
	}
	groups := map[string][]string{
		GroupGeneral:      c.ModelGroups.General,
		GroupMultilingual: c.ModelGroups.Multilingual,
		GroupHighDim:      c.ModelGroups.HighDim,
		GroupGPUModels:    c.ModelGroups.GPUModels,
	}
	for group, names := range groups {
		for _, n := range names {
			if _, found := c.Find(n); !found {
				return errs.Config("model %q in group %s not found in models", n, group)
			}
		}
	}
	for _, m := range c.Enabled() {
		if !slices.Contains(knownKinds, m.Kind) {
			return errs.Config("model %q: unknown kind %q", m.Key, m.Kind)
		}
		if m.PoolingMode != PoolingMean && m.PoolingMode != PoolingCLS {
			return errs.Config("model %q: unsupported pooling mode %q", m.Key, m.PoolingMode)
		}
		if m.EmbeddingDim <= 0 {
			return errs.Config("model %q: embedding_dimension must be positive", m.Key)
		}
		if m.Kind != KindHash && m.ModelPath == "" {
			return errs.Config("model %q: model_path is required", m.Key)
		}
		if m.Kind == KindONNX && m.TokenizerPath == "" {
			return errs.Config("model %q: tokenizer_path is required", m.Key)
		}
	}
	if c.Global.MaxBatchSize < 0 || c.Global.CacheSizeMB < 0 {
		return errs.Config("global limits must not be negative")
	}
	return nil
}
