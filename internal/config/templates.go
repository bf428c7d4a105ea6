package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/danmuck/memlogctl/internal/registry"
)

// Template returns the starter file for kind: "config" or "definitions".
func Template(kind string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case "config", "memlog":
		return configTemplate, nil
	case "definitions", "defs":
		return string(registry.DefaultDefinitions()), nil
	default:
		return "", fmt.Errorf("unknown config kind: %s", kind)
	}
}

func WriteTemplate(path, kind string, overwrite bool) error {
	template, err := Template(kind)
	if err != nil {
		return err
	}
	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("config already exists: %s", path)
		}
	}
	return os.WriteFile(path, []byte(template), 0o600)
}

const configTemplate = `output_dir = "parsedLogs"
# definitions = "memlog_defs.toml"
display = false
callflow = false
# metrics_file = "memlog.prom"
log_level = "info"

[render]
endpoint = "http://www.websequencediagrams.com/"
style = "roundgreen"
format = "png"
timeout = "20s"
`
