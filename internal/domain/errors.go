package domain

import (
	"errors"
	"fmt"
)

// Common errors shared across the answer-generation pipeline.
var (
	// ErrInvalidConfiguration indicates a fatal pre-run configuration
	// problem, such as mutually exclusive temperature settings or an
	// unrecognized release identifier. No work starts after it.
	ErrInvalidConfiguration = errors.New("invalid configuration")

	// ErrInvocationFailed indicates a model call failed for one turn.
	// It aborts that question's record; no partial record is written.
	ErrInvocationFailed = errors.New("model invocation failed")

	// ErrUnparseableRecord indicates a JSONL line that could not be
	// decoded. Readers treat it as a best-effort note, not a failure.
	ErrUnparseableRecord = errors.New("unparseable record")
)

// ConfigurationError carries the offending setting for a fatal pre-run
// configuration failure.
type ConfigurationError struct {
	// Setting names the flag or field that is invalid.
	Setting string

	// Reason explains why the value was rejected.
	Reason string
}

// Error implements the error interface for ConfigurationError.
func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration error: %s: %s", e.Setting, e.Reason)
}

// Is reports ErrInvalidConfiguration so callers can match the category
// without knowing the concrete type.
func (e *ConfigurationError) Is(target error) bool {
	return target == ErrInvalidConfiguration
}

// NewConfigurationError creates a ConfigurationError for the given
// setting.
func NewConfigurationError(setting, reason string) *ConfigurationError {
	return &ConfigurationError{Setting: setting, Reason: reason}
}
