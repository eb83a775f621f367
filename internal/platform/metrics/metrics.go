package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds process-wide Prometheus metrics. Module-specific metrics
// live in the module's own metrics subpackage.
type Metrics struct {
	ReportsSubmitted  prometheus.Counter
	IntakeThrottled   prometheus.Counter
	ActiveAssignments prometheus.Gauge
	QueueQueryLatency prometheus.Histogram
}

// New creates and registers all process-wide Prometheus metrics.
func New() *Metrics {
	return &Metrics{
		ReportsSubmitted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "fiu_portal_reports_submitted_total",
			Help: "Total number of reports accepted at intake",
		}),
		IntakeThrottled: promauto.NewCounter(prometheus.CounterOpts{
			Name: "fiu_portal_intake_throttled_total",
			Help: "Total number of report submissions rejected by rate limiting",
		}),
		ActiveAssignments: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "fiu_portal_active_assignments",
			Help: "Number of currently active report assignments",
		}),
		QueueQueryLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "fiu_portal_queue_query_seconds",
			Help:    "Latency of queue resolver reads",
			Buckets: prometheus.DefBuckets,
		}),
	}
}
