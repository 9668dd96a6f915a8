package errors

import (
	stderrors "errors"
	"fmt"
)

// CatalogError is the structured error type for catalogmcp.
// It provides rich context for error handling, logging, and user presentation.
type CatalogError struct {
	// Code is the unique error code (e.g., "ERR_401_INVALID_ARGUMENT").
	Code string

	// Message is the human-readable error message.
	Message string

	// Category is the error category (Config, Network, Validation, Internal).
	Category Category

	// Severity is the error severity level.
	Severity Severity

	// Details contains additional context as key-value pairs.
	Details map[string]string

	// Cause is the underlying error that caused this error.
	Cause error

	// Retryable indicates if the operation can be retried.
	Retryable bool

	// Suggestion is an actionable suggestion for the user.
	Suggestion string
}

// Error implements the error interface.
func (e *CatalogError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for error chain support.
func (e *CatalogError) Unwrap() error {
	return e.Cause
}

// Is checks if this error matches the target error by code.
// This enables errors.Is() to work with CatalogError.
func (e *CatalogError) Is(target error) bool {
	if t, ok := target.(*CatalogError); ok {
		return e.Code == t.Code
	}
	return false
}

// WithDetail adds a key-value detail to the error.
// Returns the error for method chaining.
func (e *CatalogError) WithDetail(key, value string) *CatalogError {
	if e.Details == nil {
		e.Details = make(map[string]string)
	}
	e.Details[key] = value
	return e
}

// WithSuggestion adds an actionable suggestion for the user.
// Returns the error for method chaining.
func (e *CatalogError) WithSuggestion(suggestion string) *CatalogError {
	e.Suggestion = suggestion
	return e
}

// New creates a new CatalogError with the given code and message.
// Category, severity, and retryable flag are derived from the code.
func New(code string, message string, cause error) *CatalogError {
	return &CatalogError{
		Code:      code,
		Message:   message,
		Category:  categoryFromCode(code),
		Severity:  severityFromCode(code),
		Cause:     cause,
		Retryable: isRetryableCode(code),
	}
}

// Wrap creates a CatalogError from an existing error.
// The error's message becomes the CatalogError message.
func Wrap(code string, err error) *CatalogError {
	if err == nil {
		return nil
	}
	return New(code, err.Error(), err)
}

// InvalidArgument creates a validation error for a caller bug.
// These are always surfaced and never retried.
func InvalidArgument(message string) *CatalogError {
	return New(ErrCodeInvalidArgument, message, nil)
}

// BackendUnavailable creates an error for an unreachable or misconfigured
// backend. This is a degraded mode, not a fault: the orchestrator skips the
// backend when others can still answer.
func BackendUnavailable(message string, cause error) *CatalogError {
	return New(ErrCodeBackendUnavailable, message, cause)
}

// BackendError creates an error for an engine-side execution fault.
// Always surfaced, never silently swallowed.
func BackendError(message string, cause error) *CatalogError {
	return New(ErrCodeBackendError, message, cause)
}

// Timeout creates an error for a query that exceeded its deadline.
// Surfaced distinctly from "zero results".
func Timeout(message string, cause error) *CatalogError {
	return New(ErrCodeBackendTimeout, message, cause)
}

// ConfigError creates a configuration-related error.
func ConfigError(message string, cause error) *CatalogError {
	return New(ErrCodeConfigInvalid, message, cause)
}

// InternalError creates an internal error.
func InternalError(message string, cause error) *CatalogError {
	return New(ErrCodeInternal, message, cause)
}

// IsRetryable checks if an error is retryable. It unwraps, so a wrapped
// CatalogError still reports its flag.
func IsRetryable(err error) bool {
	var ce *CatalogError
	if stderrors.As(err, &ce) {
		return ce.Retryable
	}
	return false
}

// IsFatal checks if an error has fatal severity.
// Fatal errors should abort the current operation.
func IsFatal(err error) bool {
	var ce *CatalogError
	if stderrors.As(err, &ce) {
		return ce.Severity == SeverityFatal
	}
	return false
}

// GetCode extracts the error code from a CatalogError anywhere in the
// chain. Returns empty string if none is found.
func GetCode(err error) string {
	var ce *CatalogError
	if stderrors.As(err, &ce) {
		return ce.Code
	}
	return ""
}

// GetCategory extracts the category from a CatalogError anywhere in the
// chain. Returns empty string if none is found.
func GetCategory(err error) Category {
	var ce *CatalogError
	if stderrors.As(err, &ce) {
		return ce.Category
	}
	return ""
}
