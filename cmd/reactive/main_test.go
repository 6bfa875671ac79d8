package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/vango-dev/reactive/internal/errors"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := rootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestVersionShort(t *testing.T) {
	out, err := execute(t, "version", "--short")
	if err != nil {
		t.Fatal(err)
	}
	if strings.TrimSpace(out) != version {
		t.Errorf("output = %q, want %q", out, version)
	}
}

func TestDumpJSON(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "seed.yaml")
	if err := os.WriteFile(path, []byte("b: 2\na:\n  x: [1, 2]\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	out, err := execute(t, "--config", dir, "dump", "--seed", path)
	if err != nil {
		t.Fatalf("dump: %v", err)
	}

	var got map[string]any
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, out)
	}
	if got["b"] != 2.0 {
		t.Errorf("b = %v", got["b"])
	}
	if strings.Index(out, `"a"`) > strings.Index(out, `"b"`) {
		t.Errorf("keys are not sorted:\n%s", out)
	}
}

func TestDumpFormats(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "seed.json")
	if err := os.WriteFile(path, []byte(`{"name": "ada"}`), 0o644); err != nil {
		t.Fatal(err)
	}

	out, err := execute(t, "--config", dir, "dump", "--seed", path, "--format", "yaml")
	if err != nil || strings.TrimSpace(out) != "name: ada" {
		t.Errorf("yaml output = %q, %v", out, err)
	}

	out, err = execute(t, "--config", dir, "dump", "--seed", path, "--format", "toml")
	if err != nil || strings.TrimSpace(out) != `name = "ada"` {
		t.Errorf("toml output = %q, %v", out, err)
	}

	_, err = execute(t, "--config", dir, "dump", "--seed", path, "--format", "xml")
	if !errors.HasCode(err, "R302") {
		t.Errorf("unknown format error = %v, want R302", err)
	}
}

func TestDumpRequiresSeed(t *testing.T) {
	_, err := execute(t, "--config", t.TempDir(), "dump")
	if !errors.HasCode(err, "R202") {
		t.Errorf("error = %v, want R202", err)
	}
}

func TestServeRejectsBadFlags(t *testing.T) {
	_, err := execute(t, "--config", t.TempDir(), "serve", "--watch")
	if !errors.HasCode(err, "R103") {
		t.Errorf("error = %v, want R103 for --watch without a seed", err)
	}
}
