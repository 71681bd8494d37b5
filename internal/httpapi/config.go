package httpapi

import "time"

// maxBodyBytes controls the maximum allowed request body size for JSON endpoints.
// Default remains 1 MiB.
var maxBodyBytes int64 = 1 << 20

// SetMaxBodyBytes allows configuring the maximum request body size.
func SetMaxBodyBytes(n int64) {
	if n <= 0 {
		maxBodyBytes = 1 << 20
		return
	}
	maxBodyBytes = n
}

// embedTimeout bounds a single /embed or /health embedding call.
// Zero means no additional timeout beyond server/connection timeouts.
var embedTimeout = int64(0) // seconds

// SetEmbedTimeoutSeconds sets the embed timeout in seconds (0 disables).
func SetEmbedTimeoutSeconds(sec int64) {
	if sec < 0 {
		sec = 0
	}
	embedTimeout = sec
}

func embedTimeoutDuration() time.Duration { return time.Duration(embedTimeout) * time.Second }

// CORS configuration. If disabled, no CORS middleware is added.
var (
	corsEnabled        bool
	corsAllowedOrigins []string
	corsAllowedMethods []string
	corsAllowedHeaders []string
)

// SetCORSOptions configures CORS behavior for the HTTP server. Empty method
// and header lists fall back to GET/POST/DELETE/OPTIONS and Content-Type.
func SetCORSOptions(enabled bool, origins, methods, headers []string) {
	corsEnabled = enabled
	corsAllowedOrigins = append([]string(nil), origins...)
	corsAllowedMethods = append([]string(nil), methods...)
	corsAllowedHeaders = append([]string(nil), headers...)
}

// metricsEnabled exposes GET /metrics.
var metricsEnabled = true

// SetMetricsEnabled toggles the Prometheus endpoint.
func SetMetricsEnabled(on bool) { metricsEnabled = on }

// serviceName and serviceVersion are reported by GET / and GET /health.
var (
	serviceName    = "embedd"
	serviceVersion = "dev"
)

// SetVersion sets the version reported to clients.
func SetVersion(v string) {
	if v != "" {
		serviceVersion = v
	}
}
