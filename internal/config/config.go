package config

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/vango-dev/reactive/internal/errors"
	"github.com/vango-dev/reactive/pkg/reactive"
	"github.com/vango-dev/reactive/pkg/seed"
)

const (
	// ConfigFileName is the name of the configuration file.
	ConfigFileName = "reactive.json"

	// DefaultAddr is the default inspector listen address.
	DefaultAddr = ":7070"

	// DefaultLogLevel is the default log level.
	DefaultLogLevel = "info"

	// DefaultNamespace is the default Prometheus namespace.
	DefaultNamespace = "reactive"
)

// Duration is a time.Duration written as a string such as "10ms" in JSON
// and environment variables.
type Duration time.Duration

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

// Config holds the reactive command's settings.
type Config struct {
	// Addr is the inspector listen address.
	Addr string `json:"addr,omitempty" env:"REACTIVE_ADDR"`

	// Debounce is the store's notification quiet period.
	Debounce Duration `json:"debounce,omitempty" env:"REACTIVE_DEBOUNCE"`

	// Seed is a JSON, YAML or TOML file loaded into the store at start.
	Seed string `json:"seed,omitempty" env:"REACTIVE_SEED"`

	// Watch re-applies Seed whenever it changes.
	Watch bool `json:"watch,omitempty" env:"REACTIVE_WATCH"`

	// LogLevel is one of debug, info, warn or error.
	LogLevel string `json:"logLevel,omitempty" env:"REACTIVE_LOG_LEVEL"`

	Metrics MetricsConfig `json:"metrics,omitempty"`

	// configPath stores the path where the config was loaded from.
	configPath string
}

// MetricsConfig configures the store's Prometheus metrics.
type MetricsConfig struct {
	// Namespace prefixes every metric name.
	Namespace string `json:"namespace,omitempty" env:"REACTIVE_METRICS_NAMESPACE"`
}

// New returns a Config with default values.
func New() *Config {
	return &Config{
		Addr:     DefaultAddr,
		Debounce: Duration(reactive.DefaultDebounce),
		LogLevel: DefaultLogLevel,
		Metrics:  MetricsConfig{Namespace: DefaultNamespace},
	}
}

// Load reads reactive.json from dir if present, applies environment
// overrides and validates the result.
func Load(dir string) (*Config, error) {
	return LoadFile(filepath.Join(dir, ConfigFileName))
}

// LoadFile is like Load for an explicit file path. A missing file is not an
// error; defaults and environment overrides still apply.
func LoadFile(path string) (*Config, error) {
	cfg := New()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, errors.New("R101").
				WithFile(path).
				WithSuggestion("Check that " + ConfigFileName + " is valid JSON").
				Wrap(err)
		}
		cfg.configPath = path
	case !os.IsNotExist(err):
		return nil, errors.New("R101").WithFile(path).Wrap(err)
	}

	if err := env.Parse(cfg); err != nil {
		return nil, errors.New("R102").
			WithSuggestion("Durations use Go syntax, for example REACTIVE_DEBOUNCE=25ms").
			Wrap(err)
	}

	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyDefaults fills fields cleared by the file or environment.
func (c *Config) applyDefaults() {
	if c.Addr == "" {
		c.Addr = DefaultAddr
	}
	if c.LogLevel == "" {
		c.LogLevel = DefaultLogLevel
	}
	if c.Metrics.Namespace == "" {
		c.Metrics.Namespace = DefaultNamespace
	}
}

// Validate checks the configuration for invalid values.
func (c *Config) Validate() error {
	if c.Debounce < 0 {
		return errors.New("R103").
			WithDetail(fmt.Sprintf("debounce must not be negative, got %s", time.Duration(c.Debounce))).
			WithSuggestion("Use 0 to notify on the next timer tick")
	}
	if _, err := parseLevel(c.LogLevel); err != nil {
		return errors.New("R103").
			WithDetail(fmt.Sprintf("unknown log level %q", c.LogLevel)).
			WithSuggestion("Use debug, info, warn or error")
	}
	if c.Seed != "" {
		if _, err := seed.FormatOf(c.Seed); err != nil {
			return errors.New("R201").WithFile(c.Seed).Wrap(err)
		}
	}
	if c.Watch && c.Seed == "" {
		return errors.New("R103").
			WithDetail("watch is enabled but no seed file is set").
			WithSuggestion("Set seed in " + ConfigFileName + " or REACTIVE_SEED")
	}
	return nil
}

// Path returns the path the config was loaded from, or "" when defaults
// were used.
func (c *Config) Path() string {
	return c.configPath
}

// DebounceDuration returns Debounce as a time.Duration.
func (c *Config) DebounceDuration() time.Duration {
	return time.Duration(c.Debounce)
}

// Level returns the configured slog level.
func (c *Config) Level() slog.Level {
	level, _ := parseLevel(c.LogLevel)
	return level
}

func parseLevel(s string) (slog.Level, error) {
	var level slog.Level
	err := level.UnmarshalText([]byte(s))
	return level, err
}
