package manager

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"embedd/internal/errs"
	"embedd/pkg/types"
)

var (
	embedRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "embedd",
			Subsystem: "manager",
			Name:      "embed_requests_total",
			Help:      "Embedding requests by model and outcome",
		},
		[]string{"model", "outcome"},
	)

	embedDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "embedd",
			Subsystem: "manager",
			Name:      "embed_duration_seconds",
			Help:      "Duration of embedding calls in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"model"},
	)

	modelLoadsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "embedd",
			Subsystem: "manager",
			Name:      "model_loads_total",
			Help:      "Model load attempts by outcome",
		},
		[]string{"model", "outcome"},
	)
)

func init() {
	prometheus.MustRegister(embedRequestsTotal, embedDuration, modelLoadsTotal)
}

// requestStats is the in-process accounting behind Metrics.
type requestStats struct {
	mu     sync.Mutex
	total  uint64
	failed uint64
	busy   time.Duration
}

func (s *requestStats) observe(model string, d time.Duration, err error) {
	outcome := outcomeOf(err)
	embedRequestsTotal.WithLabelValues(model, outcome).Inc()
	embedDuration.WithLabelValues(model).Observe(d.Seconds())

	s.mu.Lock()
	s.total++
	if err != nil {
		s.failed++
	}
	s.busy += d
	s.mu.Unlock()
}

func outcomeOf(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errs.IsInvalidInput(err):
		return "invalid_input"
	case errs.IsUnavailable(err):
		return "unavailable"
	case errs.IsInference(err):
		return "inference_error"
	default:
		return "error"
	}
}

// Metrics returns request accounting, or nil when monitoring.metrics_enabled
// is false in the models configuration.
func (m *Manager) Metrics() *types.Metrics {
	if !m.current().Monitoring.MetricsEnabled {
		return nil
	}
	cache, _ := m.parts()
	m.stats.mu.Lock()
	out := &types.Metrics{
		TotalRequests:  m.stats.total,
		FailedRequests: m.stats.failed,
	}
	if m.stats.total > 0 {
		out.AvgLatencyMS = float64(m.stats.busy.Microseconds()) / 1000 / float64(m.stats.total)
	}
	m.stats.mu.Unlock()
	out.LoadedModels = m.reg.Len()
	out.CacheHits = cache.hitCount()
	return out
}
