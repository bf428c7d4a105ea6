package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/danmuck/memlogctl/internal/callflow"
	"github.com/danmuck/memlogctl/internal/registry"
	"github.com/danmuck/memlogctl/internal/testutil/testlog"
)

func TestLoadAppliesDefaults(t *testing.T) {
	testlog.Start(t)
	path := filepath.Join(t.TempDir(), "memlog.toml")
	if err := os.WriteFile(path, []byte("callflow = true\n"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !cfg.CallFlow || cfg.Display {
		t.Fatalf("unexpected flags: %+v", cfg)
	}
	if cfg.OutputDir != DefaultOutputDir || cfg.Render.Style != DefaultStyle || cfg.Render.Timeout != DefaultTimeout {
		t.Fatalf("defaults not applied: %+v", cfg)
	}
}

func TestTemplateRoundTrips(t *testing.T) {
	testlog.Start(t)
	path := filepath.Join(t.TempDir(), "memlog.toml")
	if err := WriteTemplate(path, "config", false); err != nil {
		t.Fatalf("write template: %v", err)
	}
	if _, err := Load(path); err != nil {
		t.Fatalf("template must validate: %v", err)
	}
	if err := WriteTemplate(path, "config", false); err == nil {
		t.Fatalf("expected refusal to overwrite")
	}
	if err := WriteTemplate(path, "config", true); err != nil {
		t.Fatalf("forced overwrite: %v", err)
	}
}

func TestDefinitionsTemplateLoads(t *testing.T) {
	testlog.Start(t)
	path := filepath.Join(t.TempDir(), "defs.toml")
	if err := WriteTemplate(path, "definitions", false); err != nil {
		t.Fatalf("write template: %v", err)
	}
	reg, err := registry.Load(path)
	if err != nil {
		t.Fatalf("definitions template must load: %v", err)
	}
	if err := reg.Require("pal_stream_type_t", "stream_state_t"); err != nil {
		t.Fatalf("missing domains: %v", err)
	}
}

func TestTemplateUnknownKind(t *testing.T) {
	if _, err := Template("mirage"); err == nil {
		t.Fatalf("expected unknown kind error")
	}
}

func TestValidateRejects(t *testing.T) {
	testlog.Start(t)
	cases := map[string]func(*Config){
		"output_dir": func(c *Config) { c.OutputDir = " " },
		"log_level":  func(c *Config) { c.LogLevel = "loud" },
		"endpoint":   func(c *Config) { c.Render.Endpoint = "not a url" },
		"format":     func(c *Config) { c.Render.Format = "gif" },
		"timeout":    func(c *Config) { c.Render.Timeout = "-1s" },
	}
	for name, mutate := range cases {
		cfg := Default()
		mutate(&cfg)
		if err := Validate(cfg); err == nil {
			t.Fatalf("%s: expected validation error", name)
		}
	}
	if err := Validate(Default()); err != nil {
		t.Fatalf("default config must validate: %v", err)
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.toml"))
	if !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected not-exist, got %v", err)
	}
	if !strings.Contains(err.Error(), "config load failed") {
		t.Fatalf("unexpected message: %v", err)
	}
}

func TestRenderWebSeq(t *testing.T) {
	ws := Default().Render.WebSeq()
	if ws.Timeout != 20*time.Second || ws.Style != DefaultStyle {
		t.Fatalf("unexpected renderer config: %+v", ws)
	}
	if ws.Endpoint != callflow.DefaultEndpoint || ws.Style != callflow.DefaultStyle || ws.Format != callflow.DefaultFormat {
		t.Fatalf("render defaults drifted from the renderer: %+v", ws)
	}
	if callflow.DefaultTimeout.String() != DefaultTimeout {
		t.Fatalf("timeout default %s does not match renderer %s", DefaultTimeout, callflow.DefaultTimeout)
	}
	bad := RenderConfig{Timeout: "soon"}
	if bad.WebSeq().Timeout != 0 {
		t.Fatalf("bad timeout should fall back to zero")
	}
}
