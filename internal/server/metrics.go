package server

import "github.com/prometheus/client_golang/prometheus"

var (
	activeConnections = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "embedd",
			Subsystem: "ovnt",
			Name:      "active_connections",
			Help:      "OVNT connections currently being handled",
		},
	)

	connectionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "embedd",
			Subsystem: "ovnt",
			Name:      "connections_total",
			Help:      "OVNT connections by admission result",
		},
		[]string{"result"},
	)

	acceptErrorsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "embedd",
			Subsystem: "ovnt",
			Name:      "accept_errors_total",
			Help:      "Failed accept calls",
		},
	)

	messagesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "embedd",
			Subsystem: "ovnt",
			Name:      "messages_total",
			Help:      "OVNT requests by outcome",
		},
		[]string{"outcome"},
	)

	protocolErrorsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "embedd",
			Subsystem: "ovnt",
			Name:      "protocol_errors_total",
			Help:      "Framing errors that closed a connection",
		},
	)

	requestDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "embedd",
			Subsystem: "ovnt",
			Name:      "request_duration_seconds",
			Help:      "Time from decoded request to computed reply",
			Buckets:   prometheus.DefBuckets,
		},
	)
)

func init() {
	prometheus.MustRegister(activeConnections, connectionsTotal, acceptErrorsTotal, messagesTotal, protocolErrorsTotal, requestDuration)
}
