package config

import (
	"errors"
	"fmt"
)

// Sentinel error kinds for this package. These allow errors.Is/As from callers.
var (
	ErrInvalidConfig = errors.New("invalid config")
	ErrLoadConfig    = errors.New("load config failed")
)

// WrapInvalid tags a field-level validation failure with ErrInvalidConfig.
func WrapInvalid(field string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrInvalidConfig, field, err)
}

// NewInvalid builds a field-level validation failure from a message.
func NewInvalid(field, msg string) error {
	return fmt.Errorf("%w: %s: %s", ErrInvalidConfig, field, msg)
}
