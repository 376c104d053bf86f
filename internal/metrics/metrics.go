package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector provides application metrics collection
type Collector struct {
	registry *prometheus.Registry

	// Cycle metrics
	CyclesTotal   *prometheus.CounterVec
	CycleDuration prometheus.Histogram
	CycleErrors   *prometheus.CounterVec

	// Persistence metrics
	RowsWritten   prometheus.Counter
	SchemaChanges prometheus.Counter
	LastSuccess   prometheus.Gauge

	// Source metrics
	StationsReporting prometheus.Gauge

	// Query API metrics
	APIRequestsTotal *prometheus.CounterVec
}

// NewCollector creates a new metrics collector on its own registry
func NewCollector(namespace string) *Collector {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Collector{
		registry: reg,

		CyclesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "poll_cycles_total",
				Help:      "Total number of poll cycles by outcome",
			},
			[]string{"outcome"},
		),

		CycleDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "poll_cycle_duration_seconds",
				Help:      "Duration of poll cycles in seconds",
				Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30, 60},
			},
		),

		CycleErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "poll_cycle_errors_total",
				Help:      "Total number of poll cycle errors by type",
			},
			[]string{"error_type"},
		),

		RowsWritten: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "rows_written_total",
				Help:      "Total number of rows appended to the table",
			},
		),

		SchemaChanges: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "schema_changes_total",
				Help:      "Number of times the table header changed",
			},
		),

		LastSuccess: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "last_success_timestamp_seconds",
				Help:      "Unix time of the last persisted poll",
			},
		),

		StationsReporting: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "stations_reporting",
				Help:      "Number of catalog stations present in the last snapshot",
			},
		),

		APIRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "api_requests_total",
				Help:      "Total number of query API requests by route and status",
			},
			[]string{"route", "status"},
		),
	}
}

// Registry returns the registry backing the collector
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Handler serves the collector's metrics in the Prometheus exposition format
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// RecordCycle counts a finished cycle and observes its duration
func (c *Collector) RecordCycle(outcome string, d time.Duration) {
	c.CyclesTotal.WithLabelValues(outcome).Inc()
	c.CycleDuration.Observe(d.Seconds())
}

// RecordCycleError increments the cycle error counter
func (c *Collector) RecordCycleError(errorType string) {
	c.CycleErrors.WithLabelValues(errorType).Inc()
}

// RecordAPIRequest increments the API request counter
func (c *Collector) RecordAPIRequest(route, status string) {
	c.APIRequestsTotal.WithLabelValues(route, status).Inc()
}
