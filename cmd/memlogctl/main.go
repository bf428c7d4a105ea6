package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/danmuck/memlogctl/internal/callflow"
	"github.com/danmuck/memlogctl/internal/config"
	"github.com/danmuck/memlogctl/internal/logging"
	"github.com/danmuck/memlogctl/internal/observability"
	"github.com/danmuck/memlogctl/internal/parser"
	"github.com/danmuck/memlogctl/internal/registry"
	"github.com/danmuck/memlogctl/internal/report"
	"github.com/rs/zerolog/log"
)

func main() {
	logging.ConfigureRuntime()
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "memlogctl: %v\n", err)
		stop()
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdout *os.File, stderr io.Writer) error {
	opts, err := parseArgs(args, stderr)
	if err != nil {
		return err
	}
	cfg, err := resolveConfig(opts)
	if err != nil {
		return err
	}
	logging.ApplyLevel(cfg.LogLevel)

	reg, err := loadRegistry(cfg)
	if err != nil {
		return err
	}
	log.Debug().Msgf("memlogctl.run defs=%s layouts=%d domains=%d", reg.Source(), len(reg.LayoutNames()), len(reg.DomainNames()))

	var renderer callflow.Renderer
	if cfg.CallFlow {
		renderer = callflow.NewWebSeqRenderer(cfg.Render.WebSeq())
	}
	noColor := os.Getenv(logging.EnvLogNoColor) != ""
	p, err := parser.New(reg, parser.Options{
		OutputDir: cfg.OutputDir,
		Display:   cfg.Display,
		CallFlow:  cfg.CallFlow,
		Stdout:    stdout,
		Style:     report.StyleFor(stdout, noColor),
		Renderer:  renderer,
	})
	if err != nil {
		return err
	}

	results, runErr := p.Run(ctx, opts.input)
	skipped := 0
	for _, r := range results {
		if r.Skipped {
			skipped++
			fmt.Fprintf(stdout, "do not know how to parse file %s\n", r.Path)
		}
	}
	log.Info().Msgf("memlogctl.run files=%d skipped=%d", len(results), skipped)

	if cfg.MetricsFile != "" {
		if err := observability.WriteTextfile(cfg.MetricsFile); err != nil {
			log.Warn().Err(err).Msgf("memlogctl.run metrics write failed path=%s", cfg.MetricsFile)
		}
	}
	return runErr
}

func loadRegistry(cfg config.Config) (*registry.Registry, error) {
	if cfg.Definitions == "" {
		return registry.Default()
	}
	return registry.Load(cfg.Definitions)
}
