package core

import "fmt"

// ConfigError reports a missing or unusable piece of run configuration
// (unknown provider, absent API key, missing tool endpoint). It is terminal:
// retrying the same call cannot succeed.
type ConfigError struct {
	Stage   string // failing stage: "model resolution", "tool registration", ...
	Message string
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	if e.Stage != "" {
		return fmt.Sprintf("configuration error [%s]: %s", e.Stage, e.Message)
	}
	return fmt.Sprintf("configuration error: %s", e.Message)
}

// NewConfigError creates a ConfigError for the given stage.
func NewConfigError(stage, format string, args ...any) *ConfigError {
	return &ConfigError{Stage: stage, Message: fmt.Sprintf(format, args...)}
}

// ValidationError reports caller-facing input problems (blank user input,
// malformed JSON example or schema, unrecoverable structured output). It is
// terminal and never retried.
type ValidationError struct {
	Field   string `json:"field,omitempty"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation error for '%s': %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation error: %s", e.Message)
}

// NewValidationError creates a ValidationError for the given field.
func NewValidationError(field, format string, args ...any) *ValidationError {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}
