// Package metrics wires the Outbox Publisher's counters and histograms
// into the process-wide Prometheus registry, scraped at GET /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	OutboxPublished = promauto.NewCounter(prometheus.CounterOpts{
		Name: "outbox_published_total",
		Help: "Outbox records successfully published to the bus.",
	})

	OutboxRetried = promauto.NewCounter(prometheus.CounterOpts{
		Name: "outbox_retry_total",
		Help: "Outbox publish attempts that failed and were scheduled for retry.",
	})

	OutboxExhausted = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "outbox_exhausted_records",
		Help: "Outbox records that reached maxRetries without a successful publish.",
	})

	OutboxCleanedUp = promauto.NewCounter(prometheus.CounterOpts{
		Name: "outbox_cleanup_deleted_total",
		Help: "Published outbox rows deleted by the retention cleanup task.",
	})

	TickDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "outbox_publisher_tick_duration_seconds",
		Help:    "Duration of one outbox publisher tick.",
		Buckets: prometheus.DefBuckets,
	})
)
