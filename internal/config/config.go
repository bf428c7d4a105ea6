package config

import (
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/danmuck/memlogctl/internal/callflow"
	"github.com/pelletier/go-toml/v2"
)

const (
	DefaultOutputDir = "parsedLogs"
	DefaultEndpoint  = callflow.DefaultEndpoint
	DefaultStyle     = callflow.DefaultStyle
	DefaultFormat    = callflow.DefaultFormat
	DefaultTimeout   = "20s"
	DefaultLogLevel  = "info"
)

// Config is the memlogctl run configuration. CLI flags override it.
type Config struct {
	OutputDir   string       `toml:"output_dir"`
	Definitions string       `toml:"definitions"`
	Display     bool         `toml:"display"`
	CallFlow    bool         `toml:"callflow"`
	MetricsFile string       `toml:"metrics_file"`
	LogLevel    string       `toml:"log_level"`
	Render      RenderConfig `toml:"render"`
}

type RenderConfig struct {
	Endpoint string `toml:"endpoint"`
	Style    string `toml:"style"`
	Format   string `toml:"format"`
	Timeout  string `toml:"timeout"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	cfg := Config{}
	applyDefaults(&cfg)
	return cfg
}

func Load(path string) (Config, error) {
	var cfg Config
	if err := loadToml(path, &cfg); err != nil {
		return Config{}, err
	}
	applyDefaults(&cfg)
	if err := Validate(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.OutputDir == "" {
		cfg.OutputDir = DefaultOutputDir
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = DefaultLogLevel
	}
	if cfg.Render.Endpoint == "" {
		cfg.Render.Endpoint = DefaultEndpoint
	}
	if cfg.Render.Style == "" {
		cfg.Render.Style = DefaultStyle
	}
	if cfg.Render.Format == "" {
		cfg.Render.Format = DefaultFormat
	}
	if cfg.Render.Timeout == "" {
		cfg.Render.Timeout = DefaultTimeout
	}
}

func loadToml(path string, out any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("config load failed (%s): %w", path, err)
	}
	if err := toml.Unmarshal(data, out); err != nil {
		return fmt.Errorf("config parse failed (%s): %w", path, err)
	}
	return nil
}

func Validate(cfg Config) error {
	if strings.TrimSpace(cfg.OutputDir) == "" {
		return fmt.Errorf("config missing output_dir")
	}
	switch strings.ToLower(strings.TrimSpace(cfg.LogLevel)) {
	case "trace", "debug", "info", "warn", "warning", "error", "disabled", "off":
	default:
		return fmt.Errorf("config log_level invalid: %s", cfg.LogLevel)
	}
	if err := ValidateRender(cfg.Render); err != nil {
		return fmt.Errorf("render invalid: %w", err)
	}
	return nil
}

func ValidateRender(cfg RenderConfig) error {
	u, err := url.Parse(strings.TrimSpace(cfg.Endpoint))
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("endpoint must be an absolute url: %q", cfg.Endpoint)
	}
	if strings.TrimSpace(cfg.Style) == "" {
		return fmt.Errorf("style is required")
	}
	switch cfg.Format {
	case "png", "svg", "pdf":
	default:
		return fmt.Errorf("format must be png, svg or pdf: %q", cfg.Format)
	}
	d, err := time.ParseDuration(cfg.Timeout)
	if err != nil {
		return fmt.Errorf("timeout: %w", err)
	}
	if d <= 0 {
		return fmt.Errorf("timeout must be positive: %s", cfg.Timeout)
	}
	return nil
}
