package types

// ModelStatus summarizes a loaded model for /status.
type ModelStatus struct {
	// example: all-MiniLM-L6-v2
	ModelID string `json:"model_id" example:"all-MiniLM-L6-v2"`
	// example: ready
	State string `json:"state" example:"ready"`
	// Time the model finished loading (unix seconds).
	// example: 1700000000
	LoadedAt int64 `json:"loaded_at_unix" example:"1700000000"`
	// Circuit breaker state when enabled: closed, half-open or open.
	// example: closed
	Breaker string `json:"breaker,omitempty" example:"closed"`
}

// Metrics is the manager's request accounting.
type Metrics struct {
	// example: 1024
	TotalRequests uint64 `json:"total_requests" example:"1024"`
	// example: 3
	FailedRequests uint64 `json:"failed_requests" example:"3"`
	// Mean inference latency in milliseconds.
	// example: 4.2
	AvgLatencyMS float64 `json:"avg_latency_ms" example:"4.2"`
	// example: 2
	LoadedModels int `json:"loaded_models" example:"2"`
	// example: 512
	CacheHits uint64 `json:"cache_hits" example:"512"`
}

// StatusResponse is returned by GET /status.
type StatusResponse struct {
	// Overall manager state (loading, ready, error).
	// example: ready
	State string `json:"state" example:"ready"`
	// Default model name.
	DefaultModel string `json:"default_model"`
	// Loaded models.
	Models []ModelStatus `json:"models"`
	// Last error observed by the manager (if any).
	LastError string `json:"last_error,omitempty"`
	// Uptime of the server in seconds.
	// example: 3600
	UptimeSeconds int64 `json:"uptime_seconds" example:"3600"`
	// Server time in unix seconds.
	// example: 1700000000
	ServerTimeUnix int64 `json:"server_time_unix" example:"1700000000"`
	// Total number of model loads.
	// example: 12
	LoadsTotal uint64 `json:"loads_total" example:"12"`
	// Request accounting; omitted when metrics are disabled.
	Metrics *Metrics `json:"metrics,omitempty"`
}
