package core

import (
	"errors"
	"fmt"
)

var (
	ErrMalformedInput = errors.New("malformed effect definition")
	ErrMissingField   = errors.New("missing field")
	ErrInvalidValue   = errors.New("invalid value")
)

type ConfigErrorKind int

const (
	MalformedInput ConfigErrorKind = iota
	MissingField
	InvalidValue
)

func (k ConfigErrorKind) String() string {
	switch k {
	case MalformedInput:
		return "MalformedInput"
	case MissingField:
		return "MissingField"
	case InvalidValue:
		return "InvalidValue"
	default:
		return fmt.Sprintf("ConfigErrorKind(%d)", int(k))
	}
}

// ConfigError is returned by Parse. Field is empty for MalformedInput.
type ConfigError struct {
	Kind  ConfigErrorKind
	Field string
	Err   error
}

func (e *ConfigError) Error() string {
	msg := e.sentinel().Error()
	if e.Field != "" {
		msg = fmt.Sprintf("%s %q", msg, e.Field)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *ConfigError) Unwrap() error { return e.Err }

// Is lets errors.Is match a ConfigError against its kind's sentinel.
func (e *ConfigError) Is(target error) bool {
	return target == e.sentinel()
}

func (e *ConfigError) sentinel() error {
	switch e.Kind {
	case MissingField:
		return ErrMissingField
	case InvalidValue:
		return ErrInvalidValue
	default:
		return ErrMalformedInput
	}
}

func malformed(err error) *ConfigError {
	return &ConfigError{Kind: MalformedInput, Err: err}
}

func missing(field string) *ConfigError {
	return &ConfigError{Kind: MissingField, Field: field}
}

func invalid(field string, format string, args ...any) *ConfigError {
	return &ConfigError{Kind: InvalidValue, Field: field, Err: fmt.Errorf(format, args...)}
}
