package registry

import (
	"sort"
	"strconv"
)

// Registry is the read-only set of layouts and enum domains for one run.
type Registry struct {
	source  string
	layouts map[string]Layout
	enums   map[string]EnumTable
}

// Source names where the definitions were loaded from.
func (r *Registry) Source() string {
	return r.source
}

// Layout returns the named layout or a *ConfigError.
func (r *Registry) Layout(name string) (Layout, error) {
	l, ok := r.layouts[name]
	if !ok {
		return Layout{}, &ConfigError{Kind: "layout", Name: name, Source: r.source}
	}
	fields := make([]Field, len(l.Fields))
	copy(fields, l.Fields)
	l.Fields = fields
	return l, nil
}

// Domain returns the named enum table or a *ConfigError.
func (r *Registry) Domain(name string) (EnumTable, error) {
	e, ok := r.enums[name]
	if !ok {
		return EnumTable{}, &ConfigError{Kind: "enum", Name: name, Source: r.source}
	}
	return e, nil
}

// Require checks that every named domain exists.
func (r *Registry) Require(domains ...string) error {
	for _, d := range domains {
		if _, err := r.Domain(d); err != nil {
			return err
		}
	}
	return nil
}

// ResolveEnum returns the symbol for value in domain. Misses fall back to the
// decimal form of value.
func (r *Registry) ResolveEnum(domain string, value int64) string {
	if e, ok := r.enums[domain]; ok {
		if name, ok := e.Lookup(value); ok {
			return name
		}
	}
	return strconv.FormatInt(value, 10)
}

// LayoutNames returns layout names in sorted order.
func (r *Registry) LayoutNames() []string {
	out := make([]string, 0, len(r.layouts))
	for name := range r.layouts {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// DomainNames returns enum domain names in sorted order.
func (r *Registry) DomainNames() []string {
	out := make([]string, 0, len(r.enums))
	for name := range r.enums {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}
