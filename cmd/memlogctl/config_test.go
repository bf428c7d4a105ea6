package main

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/danmuck/memlogctl/internal/config"
)

func TestParseArgsAliases(t *testing.T) {
	o, err := parseArgs([]string{"-f", "dump.bin", "-d", "-callflow"}, io.Discard)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if o.input != "dump.bin" || !o.display || !o.callflow {
		t.Fatalf("unexpected options: %+v", o)
	}
	if !o.set["file"] || !o.set["display"] || !o.set["callflow"] || o.set["out"] {
		t.Fatalf("unexpected set flags: %v", o.set)
	}
}

func TestParseArgsPositionalInput(t *testing.T) {
	o, err := parseArgs([]string{"-out", "logs", "dumps/"}, io.Discard)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if o.input != "dumps/" || o.outDir != "logs" {
		t.Fatalf("unexpected options: %+v", o)
	}
}

func TestParseArgsMissingInput(t *testing.T) {
	if _, err := parseArgs([]string{"-d"}, io.Discard); err == nil {
		t.Fatalf("expected missing input error")
	}
}

func TestResolveConfigFlagsOverrideFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "memlog.toml")
	body := "output_dir = \"from-file\"\ncallflow = true\ndisplay = true\n"
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	o, err := parseArgs([]string{"-config", path, "-display=false", "-f", "x.bin"}, io.Discard)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	cfg, err := resolveConfig(o)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if cfg.OutputDir != "from-file" || !cfg.CallFlow || cfg.Display {
		t.Fatalf("unexpected config: %+v", cfg)
	}
}

func TestResolveConfigDefaults(t *testing.T) {
	o, err := parseArgs([]string{"-f", "x.bin"}, io.Discard)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	cfg, err := resolveConfig(o)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if cfg.OutputDir != config.DefaultOutputDir || cfg.CallFlow || cfg.Display {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	o.set["out"] = true
	o.outDir = " "
	if _, err := resolveConfig(o); err == nil {
		t.Fatalf("blank output dir must be rejected")
	}
}
