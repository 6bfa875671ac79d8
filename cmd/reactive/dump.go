package main

import (
	"encoding/json"
	"fmt"

	"github.com/BurntSushi/toml"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/vango-dev/reactive/internal/errors"
	"github.com/vango-dev/reactive/pkg/reactive"
	"github.com/vango-dev/reactive/pkg/seed"
)

func dumpCmd() *cobra.Command {
	var (
		seedPath string
		format   string
	)

	cmd := &cobra.Command{
		Use:   "dump",
		Short: "Load a seed file into a store and print its contents",
		Long: `Load a seed file into a fresh store and print the resulting entries.

Useful for checking how a seed file decodes before serving it. Output
keys are sorted.

Examples:
  reactive dump --seed seed.yaml
  reactive dump --seed seed.json --format toml`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if seedPath == "" {
				seedPath = cfg.Seed
			}
			if seedPath == "" {
				return errors.New("R202").WithSuggestion("Pass --seed or set seed in reactive.json")
			}

			values, err := seed.Load(seedPath)
			if err != nil {
				return errors.New("R202").WithFile(seedPath).Wrap(err)
			}
			store := reactive.New(values, reactive.WithLogger(newLogger(cfg)))
			defer store.Close()

			out, err := encode(store, format)
			if err != nil {
				return errors.New("R302").Wrap(err)
			}
			_, err = cmd.OutOrStdout().Write(out)
			return err
		},
	}

	cmd.Flags().StringVarP(&seedPath, "seed", "s", "", "Seed file (default from config)")
	cmd.Flags().StringVarP(&format, "format", "f", "json", "Output format: json, yaml, toml")
	return cmd
}

// encode renders the store's snapshot in the given format.
func encode(store *reactive.Store, format string) ([]byte, error) {
	snapshot := store.Snapshot()
	switch seed.Format(format) {
	case seed.FormatJSON:
		// Wrapping orders the keys.
		data, err := json.MarshalIndent(reactive.Wrap(snapshot, nil, true), "", "  ")
		if err != nil {
			return nil, err
		}
		return append(data, '\n'), nil
	case seed.FormatYAML:
		return yaml.Marshal(snapshot)
	case seed.FormatTOML:
		return toml.Marshal(snapshot)
	default:
		return nil, fmt.Errorf("%w: %q", seed.ErrUnsupportedFormat, format)
	}
}
