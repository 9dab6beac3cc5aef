// Package metrics provides Prometheus metrics for the extraction
// service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Collector holds all Prometheus metrics.
type Collector struct {
	// Request metrics
	RequestsTotal    *prometheus.CounterVec
	RequestDuration  *prometheus.HistogramVec
	RequestsInFlight prometheus.Gauge

	// Admission metrics
	AuthFailures    *prometheus.CounterVec
	RateLimitHits   *prometheus.CounterVec
	QuotaRejections *prometheus.CounterVec

	// Extraction metrics
	ExtractionsTotal   *prometheus.CounterVec
	ExtractionDuration prometheus.Histogram

	// Billing metrics
	BilledUnitsTotal *prometheus.CounterVec
	BilledUSDTotal   *prometheus.CounterVec

	// Usage recorder metrics
	UsageFlushes     prometheus.Counter
	UsageFlushErrors prometheus.Counter
	UsageBuffered    prometheus.Gauge

	// Config metrics
	ConfigReloads      prometheus.Counter
	ConfigReloadErrors prometheus.Counter
	ConfigLastReload   prometheus.Gauge
}

// New creates a collector registered on the default registry.
func New() *Collector {
	return newWith(promauto.With(prometheus.DefaultRegisterer))
}

// NewWithRegistry creates a collector on a custom registry. Used in
// tests to avoid global state.
func NewWithRegistry(reg prometheus.Registerer) *Collector {
	return newWith(promauto.With(reg))
}

func newWith(factory promauto.Factory) *Collector {
	return &Collector{
		RequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "cleanreader",
				Name:      "requests_total",
				Help:      "Total requests processed",
			},
			[]string{"path", "status", "tier"},
		),
		RequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "cleanreader",
				Name:      "request_duration_seconds",
				Help:      "Request duration in seconds",
				Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
			},
			[]string{"path", "status"},
		),
		RequestsInFlight: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: "cleanreader",
				Name:      "requests_in_flight",
				Help:      "Requests currently being processed",
			},
		),
		AuthFailures: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "cleanreader",
				Name:      "auth_failures_total",
				Help:      "Authentication failures",
			},
			[]string{"reason"},
		),
		RateLimitHits: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "cleanreader",
				Name:      "rate_limit_hits_total",
				Help:      "Requests denied by the sliding-window limiter",
			},
			[]string{"tier", "scope"},
		),
		QuotaRejections: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "cleanreader",
				Name:      "quota_rejections_total",
				Help:      "Requests denied by the monthly quota",
			},
			[]string{"tier"},
		),
		ExtractionsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "cleanreader",
				Name:      "extractions_total",
				Help:      "Extraction attempts by outcome",
			},
			[]string{"outcome"},
		),
		ExtractionDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: "cleanreader",
				Name:      "extraction_duration_seconds",
				Help:      "Upstream fetch and extraction duration in seconds",
				Buckets:   []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30},
			},
		),
		BilledUnitsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "cleanreader",
				Name:      "billed_units_total",
				Help:      "Billable units charged",
			},
			[]string{"tier"},
		),
		BilledUSDTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "cleanreader",
				Name:      "billed_usd_total",
				Help:      "USD charged",
			},
			[]string{"tier"},
		),
		UsageFlushes: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: "cleanreader",
				Name:      "usage_flushes_total",
				Help:      "Usage recorder flushes",
			},
		),
		UsageFlushErrors: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: "cleanreader",
				Name:      "usage_flush_errors_total",
				Help:      "Usage recorder flush errors",
			},
		),
		UsageBuffered: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: "cleanreader",
				Name:      "usage_buffered_events",
				Help:      "Usage events waiting in the recorder buffer",
			},
		),
		ConfigReloads: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: "cleanreader",
				Name:      "config_reloads_total",
				Help:      "Successful config reloads",
			},
		),
		ConfigReloadErrors: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: "cleanreader",
				Name:      "config_reload_errors_total",
				Help:      "Config reload errors",
			},
		),
		ConfigLastReload: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: "cleanreader",
				Name:      "config_last_reload_timestamp",
				Help:      "Unix timestamp of last successful config reload",
			},
		),
	}
}
