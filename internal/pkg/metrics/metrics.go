package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "workshop",
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request latency by route, method and status.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"route", "method", "status"})

	RequisitionsProcessed = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "workshop",
		Name:      "requisitions_processed_total",
		Help:      "Requisitions moved out of pending, by resulting status.",
	}, []string{"status"})

	StockUnitsMoved = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "workshop",
		Name:      "stock_units_moved_total",
		Help:      "Absolute stock units written to the movement ledger, by movement type.",
	}, []string{"movement_type"})

	EventPublishFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "workshop",
		Name:      "event_publish_failures_total",
		Help:      "Domain events that could not be delivered, by event type.",
	}, []string{"event_type"})

	RealtimeConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "workshop",
		Name:      "realtime_connections",
		Help:      "Open websocket connections.",
	})
)
