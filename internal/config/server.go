package config

import (
	"path/filepath"
	"time"
)

// ServerConfig is the process level document (config.toml).
type ServerConfig struct {
	Network     NetworkConfig     `json:"network" yaml:"network" toml:"network"`
	Performance PerformanceConfig `json:"performance" yaml:"performance" toml:"performance"`
	Embedding   EmbeddingConfig   `json:"embedding" yaml:"embedding" toml:"embedding"`
	Monitoring  MonitoringConfig  `json:"monitoring" yaml:"monitoring" toml:"monitoring"`
	HTTP        HTTPConfig        `json:"http" yaml:"http" toml:"http"`
}

// NetworkConfig configures the OVNT listener. Only socket level options and the
// write timeout are enforced; the remaining timeouts are declarative.
type NetworkConfig struct {
	BindAddress           string `json:"bind_address" yaml:"bind_address" toml:"bind_address"`
	MaxConnections        int    `json:"max_connections" yaml:"max_connections" toml:"max_connections"`
	ConnectionTimeoutSecs int    `json:"connection_timeout_secs" yaml:"connection_timeout_secs" toml:"connection_timeout_secs"`
	ReadTimeoutSecs       int    `json:"read_timeout_secs" yaml:"read_timeout_secs" toml:"read_timeout_secs"`
	WriteTimeoutSecs      int    `json:"write_timeout_secs" yaml:"write_timeout_secs" toml:"write_timeout_secs"`
	KeepAliveIntervalSecs int    `json:"keep_alive_interval_secs" yaml:"keep_alive_interval_secs" toml:"keep_alive_interval_secs"`
	MaxMessageSize        int    `json:"max_message_size" yaml:"max_message_size" toml:"max_message_size"`
	BufferSize            int    `json:"buffer_size" yaml:"buffer_size" toml:"buffer_size"`
}

type PerformanceConfig struct {
	WorkerThreads      int `json:"worker_threads" yaml:"worker_threads" toml:"worker_threads"`
	MessageQueueSize   int `json:"message_queue_size" yaml:"message_queue_size" toml:"message_queue_size"`
	MaxConcurrentTasks int `json:"max_concurrent_tasks" yaml:"max_concurrent_tasks" toml:"max_concurrent_tasks"`
}

type EmbeddingConfig struct {
	ModelsConfig       string `json:"models_config" yaml:"models_config" toml:"models_config"`
	DefaultModel       string `json:"default_model" yaml:"default_model" toml:"default_model"`
	MaxBatchSize       int    `json:"max_batch_size" yaml:"max_batch_size" toml:"max_batch_size"`
	RequestTimeoutSecs int    `json:"request_timeout_secs" yaml:"request_timeout_secs" toml:"request_timeout_secs"`
}

type MonitoringConfig struct {
	EnableMetrics         bool   `json:"enable_metrics" yaml:"enable_metrics" toml:"enable_metrics"`
	MetricsIntervalSecs   int    `json:"metrics_interval_secs" yaml:"metrics_interval_secs" toml:"metrics_interval_secs"`
	EnableDetailedLogging bool   `json:"enable_detailed_logging" yaml:"enable_detailed_logging" toml:"enable_detailed_logging"`
	LogLevel              string `json:"log_level" yaml:"log_level" toml:"log_level"`
	LogFormat             string `json:"log_format" yaml:"log_format" toml:"log_format"`
	EnableConnectionStats bool   `json:"enable_connection_stats" yaml:"enable_connection_stats" toml:"enable_connection_stats"`
	// TracingExporter is "none" (default) or "stdout".
	TracingExporter string `json:"tracing_exporter" yaml:"tracing_exporter" toml:"tracing_exporter"`
}

// HTTPConfig configures the JSON gateway. An empty BindAddress disables it.
type HTTPConfig struct {
	BindAddress  string   `json:"bind_address" yaml:"bind_address" toml:"bind_address"`
	MaxBodyBytes int64    `json:"max_body_bytes" yaml:"max_body_bytes" toml:"max_body_bytes"`
	CORSOrigins  []string `json:"cors_origins" yaml:"cors_origins" toml:"cors_origins"`
}

const (
	DefaultBindAddress     = "0.0.0.0:8787"
	DefaultHTTPBindAddress = "0.0.0.0:8080"
	DefaultMaxConnections  = 100
	DefaultMaxMessageSize  = 5 * 1024 * 1024
	DefaultBufferSize      = 32 * 1024
)

// DefaultServer returns the built-in server configuration.
func DefaultServer() ServerConfig {
	return ServerConfig{
		Network: NetworkConfig{
			BindAddress:           DefaultBindAddress,
			MaxConnections:        DefaultMaxConnections,
			ConnectionTimeoutSecs: 30,
			ReadTimeoutSecs:       30,
			WriteTimeoutSecs:      30,
			KeepAliveIntervalSecs: 60,
			MaxMessageSize:        DefaultMaxMessageSize,
			BufferSize:            DefaultBufferSize,
		},
		Performance: PerformanceConfig{WorkerThreads: 4, MessageQueueSize: 5000, MaxConcurrentTasks: 50},
		Embedding: EmbeddingConfig{
			ModelsConfig:       "embeddingmodels.toml",
			MaxBatchSize:       32,
			RequestTimeoutSecs: 30,
		},
		Monitoring: MonitoringConfig{
			EnableMetrics:         true,
			MetricsIntervalSecs:   60,
			EnableDetailedLogging: true,
			LogLevel:              "info",
			LogFormat:             "console",
			EnableConnectionStats: true,
			TracingExporter:       "none",
		},
		HTTP: HTTPConfig{
			BindAddress:  DefaultHTTPBindAddress,
			MaxBodyBytes: 1 << 20,
			CORSOrigins:  []string{"*"},
		},
	}
}

// ModelsConfigPath resolves embedding.models_config relative to the directory
// holding the server config file.
func (c ServerConfig) ModelsConfigPath(serverConfigPath string) string {
	p := c.Embedding.ModelsConfig
	if p == "" || filepath.IsAbs(p) || serverConfigPath == "" {
		return p
	}
	return filepath.Join(filepath.Dir(serverConfigPath), p)
}

// WriteTimeout returns the per-reply write deadline, zero when disabled.
func (n NetworkConfig) WriteTimeout() time.Duration {
	return time.Duration(n.WriteTimeoutSecs) * time.Second
}

// KeepAlive returns the TCP keep-alive period, zero when disabled.
func (n NetworkConfig) KeepAlive() time.Duration {
	return time.Duration(n.KeepAliveIntervalSecs) * time.Second
}
