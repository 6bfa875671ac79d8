package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/vango-dev/reactive/internal/config"
	"github.com/vango-dev/reactive/internal/errors"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// configDir is the directory searched for reactive.json.
var configDir string

func main() {
	if err := rootCmd().Execute(); err != nil {
		errors.PrintError(os.Stderr, err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reactive",
		Short: "Run and inspect a reactive key/value store",
		Long: `reactive hosts an observable key/value store.

Values are loaded from a JSON, YAML or TOML seed file and served over
HTTP, where they can be read, changed and streamed over WebSocket.
Watchers are notified once per burst of changes.

Settings are read from reactive.json and REACTIVE_* environment
variables; command line flags take precedence.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVarP(&configDir, "config", "c", ".", "Directory containing "+config.ConfigFileName)

	cmd.AddCommand(
		serveCmd(),
		dumpCmd(),
		versionCmd(),
	)
	return cmd
}

// loadConfig loads settings from the --config directory.
func loadConfig() (*config.Config, error) {
	return config.Load(configDir)
}

// newLogger builds the command's text logger.
func newLogger(cfg *config.Config) *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.Level()}))
}

// success prints a success message.
func success(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "\033[32m✓\033[0m %s\n", fmt.Sprintf(format, args...))
}
