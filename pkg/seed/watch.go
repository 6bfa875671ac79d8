package seed

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/vango-dev/reactive/pkg/reactive"
)

// WatchConfig configures Watch.
type WatchConfig struct {
	// Debounce is the quiet period after the last file event before the
	// file is re-applied. Default: 100ms.
	Debounce time.Duration

	// Logger receives reload logs. Default: slog.Default().
	Logger *slog.Logger

	// OnApply is called after each reload attempt with its outcome.
	OnApply func(err error)
}

// WatchOption configures Watch.
type WatchOption func(*WatchConfig)

// WithWatchDebounce sets the reload debounce.
func WithWatchDebounce(d time.Duration) WatchOption {
	return func(c *WatchConfig) {
		c.Debounce = d
	}
}

// WithWatchLogger sets the logger.
func WithWatchLogger(logger *slog.Logger) WatchOption {
	return func(c *WatchConfig) {
		c.Logger = logger
	}
}

// WithOnApply registers a callback for reload outcomes.
func WithOnApply(fn func(err error)) WatchOption {
	return func(c *WatchConfig) {
		c.OnApply = fn
	}
}

// Watch re-applies path to store every time the file is written, created or
// renamed into place, until ctx is done. Bursts of events are debounced.
// The file's directory is watched so editors that replace the file on save
// are handled.
//
// Watch does not apply the file on start; call Apply first for that.
func Watch(ctx context.Context, store *reactive.Store, path string, opts ...WatchOption) error {
	config := WatchConfig{Debounce: 100 * time.Millisecond}
	for _, opt := range opts {
		opt(&config)
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}

	if _, err := FormatOf(path); err != nil {
		return err
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("resolve seed path: %w", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		return fmt.Errorf("watch %s: %w", filepath.Dir(abs), err)
	}

	debouncer := reactive.NewDebouncer()
	defer debouncer.Stop()

	reload := func() (any, error) {
		err := Apply(ctx, store, abs)
		if err != nil {
			logger.Warn("seed reload failed", "path", abs, "error", err)
		} else {
			logger.Info("seed reloaded", "path", abs)
		}
		if config.OnApply != nil {
			config.OnApply(err)
		}
		return nil, err
	}

	logger.Debug("seed watch started", "path", abs)
	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != abs {
				continue
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Rename) {
				debouncer.Debounce(abs, config.Debounce, reload)
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("seed watch error", "path", abs, "error", err)
		}
	}
}
