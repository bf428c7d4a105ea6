package registry

import (
	"errors"
	"fmt"
)

var (
	ErrConfig           = errors.New("registry: configuration error")
	ErrUnknownType      = errors.New("registry: unknown field type")
	ErrDuplicateName    = errors.New("registry: duplicate name")
	ErrInvalidByteOrder = errors.New("registry: invalid byte order")
)

// ConfigError reports a missing or invalid definition. It matches ErrConfig
// under errors.Is.
type ConfigError struct {
	Kind   string
	Name   string
	Source string
	Err    error
}

func (e *ConfigError) Error() string {
	msg := fmt.Sprintf("registry: %s %q", e.Kind, e.Name)
	if e.Source != "" {
		msg += " (" + e.Source + ")"
	}
	if e.Err != nil {
		return msg + ": " + e.Err.Error()
	}
	return msg + " not defined"
}

func (e *ConfigError) Is(target error) bool {
	return target == ErrConfig
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}
