package main

import (
	"flag"
	"log"

	"github.com/danmuck/memlogctl/internal/config"
	"github.com/danmuck/memlogctl/internal/registry"
)

func main() {
	kind := flag.String("kind", "config", "template kind: config|definitions")
	output := flag.String("output", "", "output path for template")
	validate := flag.Bool("validate", false, "validate an existing file")
	input := flag.String("input", "", "path for validation (defaults to per-kind path)")
	force := flag.Bool("force", false, "overwrite existing file")
	flag.Parse()

	if *validate {
		path := *input
		if path == "" {
			path = defaultPath(*kind)
		}

		switch *kind {
		case "config":
			if _, err := config.Load(path); err != nil {
				log.Fatal(err)
			}
		case "definitions":
			reg, err := registry.Load(path)
			if err != nil {
				log.Fatal(err)
			}
			log.Printf("layouts=%v domains=%d", reg.LayoutNames(), len(reg.DomainNames()))
		default:
			log.Fatalf("unknown kind: %s", *kind)
		}
		log.Printf("Validated %s at %s", *kind, path)
		return
	}

	target := *output
	if target == "" {
		target = defaultPath(*kind)
	}

	if err := config.WriteTemplate(target, *kind, *force); err != nil {
		log.Fatal(err)
	}
	log.Printf("Wrote %s template to %s", *kind, target)
}

func defaultPath(kind string) string {
	switch kind {
	case "config":
		return "cmd/memlogctl/config.toml"
	case "definitions":
		return "cmd/memlogctl/memlog_defs.toml"
	default:
		log.Fatalf("unknown kind: %s", kind)
	}
	return ""
}
