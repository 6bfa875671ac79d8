package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/vango-dev/reactive/internal/config"
	"github.com/vango-dev/reactive/internal/errors"
	"github.com/vango-dev/reactive/pkg/inspect"
	"github.com/vango-dev/reactive/pkg/reactive"
	"github.com/vango-dev/reactive/pkg/seed"
)

type serveFlags struct {
	addr     string
	seed     string
	watch    bool
	debounce time.Duration
	logLevel string
}

func serveCmd() *cobra.Command {
	var flags serveFlags

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve a store over HTTP",
		Long: `Start the inspector for a store.

The store is seeded from the configured seed file, if any. With --watch
the file is re-applied whenever it changes and open WebSocket streams
receive the new values.

Examples:
  reactive serve --seed seed.yaml
  reactive serve --seed seed.toml --watch --addr :8080
  REACTIVE_DEBOUNCE=50ms reactive serve`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if err := flags.apply(cmd, cfg); err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runServe(ctx, cfg)
		},
	}

	cmd.Flags().StringVarP(&flags.addr, "addr", "a", "", "Listen address (default from config)")
	cmd.Flags().StringVarP(&flags.seed, "seed", "s", "", "Seed file (.json, .yaml, .yml, .toml)")
	cmd.Flags().BoolVarP(&flags.watch, "watch", "w", false, "Re-apply the seed file when it changes")
	cmd.Flags().DurationVar(&flags.debounce, "debounce", 0, "Notification quiet period (default from config)")
	cmd.Flags().StringVar(&flags.logLevel, "log-level", "", "Log level: debug, info, warn, error")

	return cmd
}

// apply overrides cfg with the flags that were set and revalidates.
func (f *serveFlags) apply(cmd *cobra.Command, cfg *config.Config) error {
	if f.addr != "" {
		cfg.Addr = f.addr
	}
	if f.seed != "" {
		cfg.Seed = f.seed
	}
	if cmd.Flags().Changed("watch") {
		cfg.Watch = f.watch
	}
	if cmd.Flags().Changed("debounce") {
		cfg.Debounce = config.Duration(f.debounce)
	}
	if f.logLevel != "" {
		cfg.LogLevel = f.logLevel
	}
	return cfg.Validate()
}

func runServe(ctx context.Context, cfg *config.Config) error {
	logger := newLogger(cfg)

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics := reactive.NewMetrics(
		reactive.WithNamespace(cfg.Metrics.Namespace),
		reactive.WithRegistry(registry),
	)

	store := reactive.New(nil,
		reactive.WithDebounce(cfg.DebounceDuration()),
		reactive.WithLogger(logger),
		reactive.WithMetrics(metrics),
	)
	defer store.Close()

	if cfg.Seed != "" {
		if err := seed.Apply(ctx, store, cfg.Seed); err != nil {
			return errors.New("R202").WithFile(cfg.Seed).Wrap(err)
		}
		logger.Info("seed applied", "path", cfg.Seed, "keys", store.Len())
	}

	server := inspect.New(store, &inspect.Config{
		Address:    cfg.Addr,
		Logger:     logger,
		Gatherer:   registry,
		Registerer: registry,
	})

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := server.Run(ctx); err != nil {
			return errors.New("R301").Wrap(err)
		}
		return nil
	})
	if cfg.Watch {
		g.Go(func() error {
			err := seed.Watch(ctx, store, cfg.Seed,
				seed.WithWatchLogger(logger),
				seed.WithWatchDebounce(cfg.DebounceDuration()+100*time.Millisecond),
			)
			if err != nil {
				return errors.New("R202").WithFile(cfg.Seed).Wrap(err)
			}
			return nil
		})
	}

	success("Inspector listening on %s", cfg.Addr)
	return g.Wait()
}
