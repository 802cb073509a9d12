package util

import (
	"errors"
	"fmt"
	"strings"
)

// Common error types for pwrotate
var (
	// ErrInvalidConfig indicates a configuration error
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrUnreachable indicates a host did not accept a connection on the SSH port
	ErrUnreachable = errors.New("host unreachable")

	// ErrTimeout indicates an operation timed out
	ErrTimeout = errors.New("operation timed out")

	// ErrCancelled indicates an operation was cancelled
	ErrCancelled = errors.New("operation cancelled")

	// ErrInvalidUsername indicates a username that cannot be safely passed to a remote shell
	ErrInvalidUsername = errors.New("invalid username")

	// ErrRemoteCommand indicates a remote command exited unsuccessfully
	ErrRemoteCommand = errors.New("remote command failed")
)

// HostError wraps an error with host context
type HostError struct {
	Host string
	Err  error
}

// Error implements the error interface
func (e *HostError) Error() string {
	return fmt.Sprintf("host %q: %v", e.Host, e.Err)
}

// Unwrap returns the wrapped error for errors.Is/As compatibility
func (e *HostError) Unwrap() error {
	return e.Err
}

// WrapHostError wraps an error with host context
func WrapHostError(host string, err error) error {
	if err == nil {
		return nil
	}
	return &HostError{
		Host: host,
		Err:  err,
	}
}

// MultiError aggregates multiple errors
type MultiError struct {
	Errors []error
}

// Error implements the error interface
func (m *MultiError) Error() string {
	if len(m.Errors) == 0 {
		return "no errors"
	}
	if len(m.Errors) == 1 {
		return m.Errors[0].Error()
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%d errors occurred:", len(m.Errors)))
	for i, err := range m.Errors {
		if i < 10 {
			sb.WriteString(fmt.Sprintf("\n  %d. %v", i+1, err))
		} else {
			sb.WriteString(fmt.Sprintf("\n  ... and %d more errors", len(m.Errors)-10))
			break
		}
	}
	return sb.String()
}

// Unwrap returns the errors for errors.Is/As compatibility
func (m *MultiError) Unwrap() []error {
	return m.Errors
}

// Add adds an error to the multi-error
func (m *MultiError) Add(err error) {
	if err != nil {
		m.Errors = append(m.Errors, err)
	}
}

// ErrorOrNil returns nil if no errors were added, otherwise returns the MultiError
func (m *MultiError) ErrorOrNil() error {
	if len(m.Errors) == 0 {
		return nil
	}
	return m
}

// ValidationError represents a validation failure
type ValidationError struct {
	Field   string
	Value   interface{}
	Message string
}

// Error implements the error interface
func (v *ValidationError) Error() string {
	if v.Value != nil {
		return fmt.Sprintf("validation failed for field %q (value: %v): %s", v.Field, v.Value, v.Message)
	}
	return fmt.Sprintf("validation failed for field %q: %s", v.Field, v.Message)
}

// Unwrap ties every validation failure to ErrInvalidConfig
func (v *ValidationError) Unwrap() error {
	return ErrInvalidConfig
}

// NewValidationError creates a new validation error
func NewValidationError(field string, value interface{}, message string) *ValidationError {
	return &ValidationError{
		Field:   field,
		Value:   value,
		Message: message,
	}
}

// IsTimeout checks if an error is a timeout error
func IsTimeout(err error) bool {
	return errors.Is(err, ErrTimeout)
}

// IsCancelled checks if an error is a cancellation error
func IsCancelled(err error) bool {
	return errors.Is(err, ErrCancelled)
}

// FriendlyError converts technical errors to user-friendly messages
func FriendlyError(err error) string {
	if err == nil {
		return ""
	}

	switch {
	case IsTimeout(err):
		return "Remote operation timed out."
	case IsCancelled(err):
		return "Operation was cancelled."
	case errors.Is(err, ErrUnreachable):
		return "Host is not reachable on the SSH port."
	case errors.Is(err, ErrInvalidUsername):
		return "Username contains characters that are not allowed in account names."
	case errors.Is(err, ErrInvalidConfig):
		return "Invalid configuration. Please check your config file and command-line flags."
	default:
		return err.Error()
	}
}

// CombineErrors combines multiple errors into a single error
// Returns nil if all errors are nil
func CombineErrors(errs ...error) error {
	m := &MultiError{}
	for _, err := range errs {
		m.Add(err)
	}
	return m.ErrorOrNil()
}
