package errors

import (
	"errors"
	"fmt"
)

// ErrorCode represents stable error codes for all failure modes
type ErrorCode string

const (
	// ExportUnavailable indicates the toolchain invocation failed, timed out,
	// or produced no export file
	ExportUnavailable ErrorCode = "EXPORT_UNAVAILABLE"
	// MalformedExport indicates the export file exists but cannot be parsed
	MalformedExport ErrorCode = "MALFORMED_EXPORT"
	// BaselineMissing indicates a comparison was requested for a target with
	// no stored baseline
	BaselineMissing ErrorCode = "BASELINE_MISSING"
	// SerializationError indicates a value outside the supported universe was
	// passed to the canonical encoder
	SerializationError ErrorCode = "SERIALIZATION_ERROR"
	// BreakingChange indicates a check failed under semver policy
	BreakingChange ErrorCode = "BREAKING_CHANGE"
	// StrictViolation indicates a check failed under strict policy
	StrictViolation ErrorCode = "STRICT_VIOLATION"
	// ConfigInvalid indicates the configuration failed validation
	ConfigInvalid ErrorCode = "CONFIG_INVALID"
	// InternalError indicates unexpected error
	InternalError ErrorCode = "INTERNAL_ERROR"
)

// FixAction represents a suggested fix for an error
type FixAction struct {
	Command     string `json:"command,omitempty"`
	Safe        bool   `json:"safe,omitempty"`
	Description string `json:"description,omitempty"`
}

// GuardError represents an engine error with code, message, and suggestions
type GuardError struct {
	Code           ErrorCode   `json:"code"`
	Message        string      `json:"message"`
	Details        interface{} `json:"details,omitempty"`
	SuggestedFixes []FixAction `json:"suggestedFixes,omitempty"`
	cause          error       // Underlying error (not exported to JSON)
}

// New creates a new GuardError
func New(code ErrorCode, message string, cause error) *GuardError {
	return &GuardError{
		Code:           code,
		Message:        message,
		cause:          cause,
		SuggestedFixes: SuggestedFixes(code),
	}
}

// Error implements the error interface
func (e *GuardError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error
func (e *GuardError) Unwrap() error {
	return e.cause
}

// WithDetails adds details to the error
func (e *GuardError) WithDetails(details interface{}) *GuardError {
	e.Details = details
	return e
}

// IsCode reports whether err carries the given error code anywhere in its chain.
func IsCode(err error, code ErrorCode) bool {
	var ge *GuardError
	if errors.As(err, &ge) {
		return ge.Code == code
	}
	return false
}

// ErrorActions maps error codes to suggested fix actions
var ErrorActions = map[ErrorCode][]FixAction{
	BaselineMissing: {
		{
			Command:     "apiguard update",
			Safe:        true,
			Description: "Record the current API surface as the baseline",
		},
	},
	ExportUnavailable: {
		{
			Command:     "apiguard check --log-level=debug",
			Safe:        true,
			Description: "Re-run with debug logging to see the toolchain invocation",
		},
	},
	BreakingChange: {
		{
			Command:     "apiguard update <target>",
			Safe:        false,
			Description: "Accept the new API surface as the baseline (requires a major version bump)",
		},
	},
	StrictViolation: {
		{
			Command:     "apiguard update <target>",
			Safe:        false,
			Description: "Accept the new API surface as the frozen baseline",
		},
	},
	ConfigInvalid: {
		{
			Command:     "apiguard snapshot <target>",
			Safe:        true,
			Description: "Verify the target configuration produces a snapshot",
		},
	},
}

// SuggestedFixes returns suggested fixes for an error code
func SuggestedFixes(code ErrorCode) []FixAction {
	if fixes, ok := ErrorActions[code]; ok {
		return fixes
	}
	return nil
}
