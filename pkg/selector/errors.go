package selector

import (
	"errors"
	"fmt"
)

// ErrorClass separates errors that abort construction from errors that are
// shown to the user while the selector stays interactive.
type ErrorClass int

const (
	// ClassFatal marks errors that abort initialization.
	ClassFatal ErrorClass = iota
	// ClassUser marks validation errors rendered next to the input.
	ClassUser
)

// String returns the string representation of ErrorClass
func (c ErrorClass) String() string {
	switch c {
	case ClassFatal:
		return "fatal"
	case ClassUser:
		return "user"
	default:
		return "unknown"
	}
}

var (
	// ErrInvalidConfig is wrapped by every ConfigurationError.
	ErrInvalidConfig = errors.New("invalid selector configuration")

	// ErrInvalidSearch reports that the query does not equal any candidate's filter value.
	ErrInvalidSearch = errors.New("invalid search")

	// ErrRequired reports an empty query on a required selector.
	ErrRequired = errors.New("field is required")

	// ErrClosed is returned by operations on a closed selector.
	ErrClosed = errors.New("selector is closed")
)

// ConfigurationError reports a violated initialization contract.
type ConfigurationError struct {
	Field  string // which input was rejected (e.g. "candidates[2]", "accessors.show")
	Reason string
	Err    error
}

// NewConfigurationError builds a ConfigurationError wrapping ErrInvalidConfig.
func NewConfigurationError(field, reason string) *ConfigurationError {
	return &ConfigurationError{Field: field, Reason: reason, Err: ErrInvalidConfig}
}

// Error implements the error interface
func (e *ConfigurationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("%s: %s", ErrInvalidConfig, e.Reason)
	}
	return fmt.Sprintf("%s: %s: %s", ErrInvalidConfig, e.Field, e.Reason)
}

// Unwrap returns the underlying error
func (e *ConfigurationError) Unwrap() error {
	if e.Err == nil {
		return ErrInvalidConfig
	}
	return e.Err
}

// Classify returns the class of err. Unknown errors are treated as fatal.
func Classify(err error) ErrorClass {
	if errors.Is(err, ErrInvalidSearch) || errors.Is(err, ErrRequired) {
		return ClassUser
	}
	return ClassFatal
}

// IsFatal reports whether err aborts initialization.
func IsFatal(err error) bool {
	if err == nil {
		return false
	}
	var ce *ConfigurationError
	if errors.As(err, &ce) {
		return true
	}
	return Classify(err) == ClassFatal
}

// IsUserFacing reports whether err is a form validation error.
func IsUserFacing(err error) bool {
	return err != nil && Classify(err) == ClassUser
}
