// Package seed loads initial store values from JSON, YAML or TOML files and
// keeps a store in sync with such a file while it changes.
package seed

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/vango-dev/reactive/pkg/reactive"
)

// ErrUnsupportedFormat is returned for file extensions other than .json,
// .yaml, .yml and .toml.
var ErrUnsupportedFormat = errors.New("seed: unsupported format")

// Format is a seed file encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
	FormatTOML Format = "toml"
)

// FormatOf picks the format from the file extension.
func FormatOf(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".toml":
		return FormatTOML, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, filepath.Ext(path))
	}
}

// Decode parses data as a top-level table of key/value pairs. An empty
// document decodes to an empty map.
func Decode(data []byte, format Format) (map[string]any, error) {
	values := make(map[string]any)
	if len(bytes.TrimSpace(data)) == 0 {
		return values, nil
	}

	var err error
	switch format {
	case FormatJSON:
		err = json.Unmarshal(data, &values)
	case FormatYAML:
		err = yaml.Unmarshal(data, &values)
	case FormatTOML:
		err = toml.Unmarshal(data, &values)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
	if err != nil {
		return nil, fmt.Errorf("parse %s seed: %w", format, err)
	}
	if values == nil {
		values = make(map[string]any)
	}
	return values, nil
}

// Load reads and decodes the seed file at path.
func Load(path string) (map[string]any, error) {
	format, err := FormatOf(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed: %w", err)
	}
	return Decode(data, format)
}

// Apply loads path and writes every value into store with Store.Update,
// waiting for the resulting notifications. Keys missing from the file are
// left untouched.
func Apply(ctx context.Context, store *reactive.Store, path string) error {
	values, err := Load(path)
	if err != nil {
		return err
	}
	return store.Update(values).Wait(ctx)
}
