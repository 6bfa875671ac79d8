package reactive

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// MetricsConfig configures the Prometheus collectors created by NewMetrics.
type MetricsConfig struct {
	// Namespace is the metrics namespace (default: "reactive").
	Namespace string

	// Subsystem is the metrics subsystem (default: "store").
	Subsystem string

	// ConstLabels are constant labels added to all metrics.
	ConstLabels prometheus.Labels

	// Buckets are the histogram buckets for trace duration.
	// Default: prometheus.DefBuckets
	Buckets []float64

	// Registry is the Prometheus registry to use.
	// Default: prometheus.DefaultRegisterer
	Registry prometheus.Registerer
}

// MetricsOption configures NewMetrics.
type MetricsOption func(*MetricsConfig)

// WithNamespace sets the metrics namespace.
func WithNamespace(namespace string) MetricsOption {
	return func(c *MetricsConfig) {
		c.Namespace = namespace
	}
}

// WithSubsystem sets the metrics subsystem.
func WithSubsystem(subsystem string) MetricsOption {
	return func(c *MetricsConfig) {
		c.Subsystem = subsystem
	}
}

// WithConstLabels sets constant labels for all metrics.
func WithConstLabels(labels prometheus.Labels) MetricsOption {
	return func(c *MetricsConfig) {
		c.ConstLabels = labels
	}
}

// WithBuckets sets the trace duration histogram buckets.
func WithBuckets(buckets []float64) MetricsOption {
	return func(c *MetricsConfig) {
		c.Buckets = buckets
	}
}

// WithRegistry sets the Prometheus registry.
func WithRegistry(registry prometheus.Registerer) MetricsOption {
	return func(c *MetricsConfig) {
		c.Registry = registry
	}
}

func defaultMetricsConfig() MetricsConfig {
	return MetricsConfig{
		Namespace: "reactive",
		Subsystem: "store",
		Buckets:   prometheus.DefBuckets,
		Registry:  prometheus.DefaultRegisterer,
	}
}

// Metrics holds the Prometheus collectors updated by stores and cells.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	sets           prometheus.Counter
	noopSets       prometheus.Counter
	triggers       prometheus.Counter
	listenerErrors prometheus.Counter
	coalesced      prometheus.Counter
	recomputes     *prometheus.CounterVec
	traceDuration  prometheus.Histogram
	cells          prometheus.Gauge
}

// NewMetrics registers the store collectors.
//
// Metrics collected:
//   - reactive_store_sets_total: value changes that scheduled a notification
//   - reactive_store_noop_sets_total: sets skipped because the value was unchanged
//   - reactive_store_triggers_total: debounced notifications that ran
//   - reactive_store_listener_errors_total: listener calls that failed
//   - reactive_store_debounce_coalesced_total: calls folded into a pending one
//   - reactive_store_computed_recomputes_total: computed re-runs by key
//   - reactive_store_trace_duration_seconds: time spent in traced evaluations
//   - reactive_store_cells: number of live cells
func NewMetrics(opts ...MetricsOption) *Metrics {
	config := defaultMetricsConfig()
	for _, opt := range opts {
		opt(&config)
	}
	factory := promauto.With(config.Registry)

	counter := func(name, help string) prometheus.Counter {
		return factory.NewCounter(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        name,
			Help:        help,
			ConstLabels: config.ConstLabels,
		})
	}

	return &Metrics{
		sets:           counter("sets_total", "Total number of value changes that scheduled a notification"),
		noopSets:       counter("noop_sets_total", "Total number of sets skipped because the value was unchanged"),
		triggers:       counter("triggers_total", "Total number of debounced notifications delivered"),
		listenerErrors: counter("listener_errors_total", "Total number of failed listener calls"),
		coalesced:      counter("debounce_coalesced_total", "Total number of debounced calls folded into a pending call"),

		recomputes: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "computed_recomputes_total",
			Help:        "Total number of computed value re-runs",
			ConstLabels: config.ConstLabels,
		}, []string{"key", "status"}),

		traceDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "trace_duration_seconds",
			Help:        "Duration of traced evaluations in seconds",
			ConstLabels: config.ConstLabels,
			Buckets:     config.Buckets,
		}),

		cells: factory.NewGauge(prometheus.GaugeOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "cells",
			Help:        "Number of live cells",
			ConstLabels: config.ConstLabels,
		}),
	}
}

func (m *Metrics) set() {
	if m != nil {
		m.sets.Inc()
	}
}

func (m *Metrics) noopSet() {
	if m != nil {
		m.noopSets.Inc()
	}
}

func (m *Metrics) trigger() {
	if m != nil {
		m.triggers.Inc()
	}
}

func (m *Metrics) listenerError() {
	if m != nil {
		m.listenerErrors.Inc()
	}
}

func (m *Metrics) coalesce() {
	if m != nil {
		m.coalesced.Inc()
	}
}

func (m *Metrics) recompute(key string, err error) {
	if m == nil {
		return
	}
	status := "success"
	if err != nil {
		status = "error"
	}
	m.recomputes.WithLabelValues(key, status).Inc()
}

func (m *Metrics) traced(d time.Duration) {
	if m != nil {
		m.traceDuration.Observe(d.Seconds())
	}
}

func (m *Metrics) cellAdded() {
	if m != nil {
		m.cells.Inc()
	}
}

func (m *Metrics) cellRemoved() {
	if m != nil {
		m.cells.Dec()
	}
}
