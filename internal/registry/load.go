package registry

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/BurntSushi/toml"
	"github.com/rs/zerolog/log"
	"github.com/santhosh-tekuri/jsonschema/v5"
)

// DefaultSource names the embedded definitions in errors and logs.
const DefaultSource = "embedded:defaults.toml"

//go:embed defaults.toml
var defaultDefinitions []byte

//go:embed definitions.schema.json
var definitionsSchema string

type fileDefinitions struct {
	Layouts []fileLayout `toml:"layout"`
	Enums   []fileEnum   `toml:"enum"`
}

type fileLayout struct {
	Name      string      `toml:"name"`
	ByteOrder string      `toml:"byte_order"`
	Fields    []fileField `toml:"fields"`
}

type fileField struct {
	Name  string `toml:"name"`
	Type  string `toml:"type"`
	Count int    `toml:"count"`
}

type fileEnum struct {
	Name  string     `toml:"name"`
	Items []fileItem `toml:"items"`
}

type fileItem struct {
	Name  string `toml:"name"`
	Value int64  `toml:"value"`
}

var (
	schemaOnce sync.Once
	schema     *jsonschema.Schema
	schemaErr  error
)

// Load reads and validates a definitions document from path.
func Load(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &ConfigError{Kind: "definitions", Name: path, Err: err}
	}
	return Parse(data, path)
}

// Default returns the registry built from the embedded definitions.
func Default() (*Registry, error) {
	return Parse(defaultDefinitions, DefaultSource)
}

// DefaultDefinitions returns a copy of the embedded definitions document.
func DefaultDefinitions() []byte {
	out := make([]byte, len(defaultDefinitions))
	copy(out, defaultDefinitions)
	return out
}

// Parse builds a registry from a TOML definitions document.
func Parse(data []byte, source string) (*Registry, error) {
	if err := validateShape(data); err != nil {
		return nil, &ConfigError{Kind: "definitions", Name: source, Err: err}
	}

	var raw fileDefinitions
	if _, err := toml.Decode(string(data), &raw); err != nil {
		return nil, &ConfigError{Kind: "definitions", Name: source, Err: err}
	}

	reg := &Registry{
		source:  source,
		layouts: make(map[string]Layout, len(raw.Layouts)),
		enums:   make(map[string]EnumTable, len(raw.Enums)),
	}
	for i, fl := range raw.Layouts {
		l, err := buildLayout(fl)
		if err != nil {
			return nil, &ConfigError{Kind: "layout", Name: fl.Name, Source: source, Err: fmt.Errorf("layout[%d]: %w", i, err)}
		}
		if _, dup := reg.layouts[l.Name]; dup {
			return nil, &ConfigError{Kind: "layout", Name: l.Name, Source: source, Err: ErrDuplicateName}
		}
		reg.layouts[l.Name] = l
	}
	for _, fe := range raw.Enums {
		name := strings.TrimSpace(fe.Name)
		if _, dup := reg.enums[name]; dup {
			return nil, &ConfigError{Kind: "enum", Name: name, Source: source, Err: ErrDuplicateName}
		}
		items := make(map[int64]string, len(fe.Items))
		for _, it := range fe.Items {
			// First entry wins, like a linear table scan.
			if _, seen := items[it.Value]; !seen {
				items[it.Value] = it.Name
			}
		}
		reg.enums[name] = EnumTable{Name: name, items: items}
	}

	log.Debug().Msgf("registry.Parse source=%s layouts=%d enums=%d", source, len(reg.layouts), len(reg.enums))
	return reg, nil
}

func buildLayout(fl fileLayout) (Layout, error) {
	order, err := parseByteOrder(fl.ByteOrder)
	if err != nil {
		return Layout{}, err
	}
	fields := make([]Field, 0, len(fl.Fields))
	for i, ff := range fl.Fields {
		kind, err := ParseKind(ff.Type)
		if err != nil {
			return Layout{}, fmt.Errorf("field[%d] %s: %w", i, ff.Name, err)
		}
		f := Field{Name: strings.TrimSpace(ff.Name), Kind: kind, Count: ff.Count}
		if kind.Sized() && f.Count <= 0 {
			return Layout{}, fmt.Errorf("field[%d] %s: %s requires count > 0", i, f.Name, kind)
		}
		if !kind.Sized() && f.Count != 0 {
			return Layout{}, fmt.Errorf("field[%d] %s: count not allowed for %s", i, f.Name, kind)
		}
		fields = append(fields, f)
	}
	return Layout{Name: strings.TrimSpace(fl.Name), Order: order, Fields: fields}, nil
}

func compiledSchema() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		if err := compiler.AddResource("definitions.schema.json", strings.NewReader(definitionsSchema)); err != nil {
			schemaErr = fmt.Errorf("add schema resource: %w", err)
			return
		}
		schema, schemaErr = compiler.Compile("definitions.schema.json")
		if schemaErr != nil {
			schemaErr = fmt.Errorf("compile schema: %w", schemaErr)
		}
	})
	return schema, schemaErr
}

// validateShape checks the generic TOML tree against the definitions schema
// before it is bound to typed structs.
func validateShape(data []byte) error {
	s, err := compiledSchema()
	if err != nil {
		return err
	}
	tree := map[string]any{}
	if _, err := toml.Decode(string(data), &tree); err != nil {
		return err
	}
	raw, err := json.Marshal(tree)
	if err != nil {
		return fmt.Errorf("encode definitions tree: %w", err)
	}
	var payload any
	if err := json.Unmarshal(raw, &payload); err != nil {
		return err
	}
	return s.Validate(payload)
}
