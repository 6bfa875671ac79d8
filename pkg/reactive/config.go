package reactive

import (
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/trace"
)

// Config holds store settings. It is populated through Options.
type Config struct {
	// Debounce is the quiet period before listeners are notified.
	// Default: DefaultDebounce.
	Debounce time.Duration

	// Debouncer coalesces notifications. If nil, a root store creates its
	// own and a child store shares its parent's.
	Debouncer *Debouncer

	// Logger receives store diagnostics. If nil, slog.Default() is used.
	Logger *slog.Logger

	// Metrics records store activity. Optional.
	Metrics *Metrics

	// Tracer creates spans for traced evaluations and computed values.
	// Default: the global OpenTelemetry tracer named "reactive".
	Tracer trace.Tracer

	// Parent is consulted for keys the store does not hold itself.
	Parent *Store
}

// Option configures a Store.
type Option func(*Config)

// WithDebounce sets the notification delay.
func WithDebounce(d time.Duration) Option {
	return func(c *Config) {
		c.Debounce = d
	}
}

// WithDebouncer sets the Debouncer shared by the store's cells and watches.
func WithDebouncer(d *Debouncer) Option {
	return func(c *Config) {
		c.Debouncer = d
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Config) {
		c.Logger = logger
	}
}

// WithMetrics enables Prometheus metrics.
func WithMetrics(m *Metrics) Option {
	return func(c *Config) {
		c.Metrics = m
	}
}

// WithTracer sets the OpenTelemetry tracer.
func WithTracer(t trace.Tracer) Option {
	return func(c *Config) {
		c.Tracer = t
	}
}

// WithParent makes lookups of missing keys fall back to parent.
func WithParent(parent *Store) Option {
	return func(c *Config) {
		c.Parent = parent
	}
}

func defaultConfig() Config {
	return Config{
		Debounce: DefaultDebounce,
	}
}
