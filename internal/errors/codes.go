// Package errors provides structured error handling for catalogmcp.
//
// Error codes follow the pattern ERR_XXX_DESCRIPTION where:
//   - 1XX: Configuration errors
//   - 3XX: Network/backend reachability errors
//   - 4XX: Validation errors (caller bugs, never retried)
//   - 5XX: Internal and backend execution errors
package errors

// Category defines error categories for classification.
type Category string

const (
	// CategoryConfig indicates configuration-related errors.
	CategoryConfig Category = "CONFIG"
	// CategoryNetwork indicates backend reachability errors.
	CategoryNetwork Category = "NETWORK"
	// CategoryValidation indicates input validation errors.
	CategoryValidation Category = "VALIDATION"
	// CategoryInternal indicates unexpected internal errors.
	CategoryInternal Category = "INTERNAL"
)

// Severity defines error severity levels.
type Severity string

const (
	// SeverityFatal indicates unrecoverable error, must abort.
	SeverityFatal Severity = "FATAL"
	// SeverityError indicates operation failed but can continue.
	SeverityError Severity = "ERROR"
	// SeverityWarning indicates degraded operation, continuing.
	SeverityWarning Severity = "WARNING"
)

// Error codes organized by category.
const (
	// Config errors (100-199)
	ErrCodeConfigNotFound = "ERR_101_CONFIG_NOT_FOUND"
	ErrCodeConfigInvalid  = "ERR_102_CONFIG_INVALID"
	ErrCodeMissingCreds   = "ERR_103_MISSING_CREDENTIALS"

	// Network errors (300-399)
	ErrCodeBackendTimeout     = "ERR_301_BACKEND_TIMEOUT"
	ErrCodeBackendUnavailable = "ERR_302_BACKEND_UNAVAILABLE"
	ErrCodeBucketListFailed   = "ERR_303_BUCKET_LIST_FAILED"

	// Validation errors (400-499)
	ErrCodeInvalidArgument = "ERR_401_INVALID_ARGUMENT"
	ErrCodeUnknownScope    = "ERR_402_UNKNOWN_SCOPE"
	ErrCodeUnknownBackend  = "ERR_403_UNKNOWN_BACKEND"
	ErrCodeEmptyBucketList = "ERR_404_EMPTY_BUCKET_LIST"
	ErrCodeQueryEmpty      = "ERR_405_QUERY_EMPTY"

	// Internal errors (500-599)
	ErrCodeInternal     = "ERR_501_INTERNAL"
	ErrCodeBadResponse  = "ERR_502_BAD_RESPONSE"
	ErrCodeBackendError = "ERR_503_BACKEND_ERROR"
)

// categoryFromCode extracts category from error code.
func categoryFromCode(code string) Category {
	if len(code) < 7 {
		return CategoryInternal
	}

	// Extract numeric portion (e.g., "401" from "ERR_401_INVALID_ARGUMENT")
	switch code[4] {
	case '1':
		return CategoryConfig
	case '3':
		return CategoryNetwork
	case '4':
		return CategoryValidation
	default:
		return CategoryInternal
	}
}

// severityFromCode determines severity based on error code.
func severityFromCode(code string) Severity {
	if code == ErrCodeConfigNotFound || code == ErrCodeMissingCreds {
		return SeverityFatal
	}

	// Retryable network errors get warning severity: the orchestrator can
	// usually answer from the remaining backends.
	if isRetryableCode(code) {
		return SeverityWarning
	}

	return SeverityError
}

// isRetryableCode checks if an error code represents a retryable error.
func isRetryableCode(code string) bool {
	switch code {
	case ErrCodeBackendTimeout, ErrCodeBackendUnavailable, ErrCodeBucketListFailed:
		return true
	default:
		return false
	}
}
