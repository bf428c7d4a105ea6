package main

import (
	"flag"
	"fmt"
	"io"
	"strings"

	"github.com/danmuck/memlogctl/internal/config"
)

// cliOptions holds parsed flags. set records which flags were given so only
// explicit flags override the config file.
type cliOptions struct {
	input       string
	display     bool
	callflow    bool
	outDir      string
	configPath  string
	defsPath    string
	metricsFile string
	set         map[string]bool
}

var flagAliases = map[string]string{
	"f": "file",
	"d": "display",
}

func parseArgs(args []string, stderr io.Writer) (cliOptions, error) {
	o := cliOptions{set: map[string]bool{}}
	fs := flag.NewFlagSet("memlogctl", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&o.input, "f", "", "location of bin file or directory to parse")
	fs.StringVar(&o.input, "file", "", "location of bin file or directory to parse")
	fs.BoolVar(&o.display, "d", false, "print output to stdout instead of a file")
	fs.BoolVar(&o.display, "display", false, "print output to stdout instead of a file")
	fs.BoolVar(&o.callflow, "callflow", false, "generate the call flow diagram")
	fs.StringVar(&o.outDir, "out", "", "output directory (default parsedLogs)")
	fs.StringVar(&o.configPath, "config", "", "memlog config file")
	fs.StringVar(&o.defsPath, "defs", "", "layout and enum definitions file")
	fs.StringVar(&o.metricsFile, "metrics-file", "", "write run metrics in textfile format")
	if err := fs.Parse(args); err != nil {
		return cliOptions{}, err
	}
	fs.Visit(func(f *flag.Flag) {
		name := f.Name
		if alias, ok := flagAliases[name]; ok {
			name = alias
		}
		o.set[name] = true
	})
	if o.input == "" && fs.NArg() > 0 {
		o.input = fs.Arg(0)
	}
	if strings.TrimSpace(o.input) == "" {
		return cliOptions{}, fmt.Errorf("missing input: use -f <file|dir>")
	}
	return o, nil
}

// resolveConfig overlays explicit flags on the config file, or on defaults
// when no file is given.
func resolveConfig(o cliOptions) (config.Config, error) {
	cfg := config.Default()
	if o.configPath != "" {
		loaded, err := config.Load(o.configPath)
		if err != nil {
			return config.Config{}, err
		}
		cfg = loaded
	}
	if o.set["display"] {
		cfg.Display = o.display
	}
	if o.set["callflow"] {
		cfg.CallFlow = o.callflow
	}
	if o.set["out"] {
		cfg.OutputDir = strings.TrimSpace(o.outDir)
	}
	if o.set["defs"] {
		cfg.Definitions = strings.TrimSpace(o.defsPath)
	}
	if o.set["metrics-file"] {
		cfg.MetricsFile = strings.TrimSpace(o.metricsFile)
	}
	if err := config.Validate(cfg); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}
