package errors

import (
	"errors"
	"fmt"
)

// ErrorCode represents stable error codes for all failure modes
type ErrorCode string

const (
	// PathNotFound indicates a target path does not exist
	PathNotFound ErrorCode = "PATH_NOT_FOUND"
	// AnalyzerFailure indicates an analyzer errored or panicked during a scan
	AnalyzerFailure ErrorCode = "ANALYZER_FAILURE"
	// AlreadyMonitoring indicates a monitor session already covers the path
	AlreadyMonitoring ErrorCode = "ALREADY_MONITORING"
	// MonitorNotFound indicates an unknown monitor session handle
	MonitorNotFound ErrorCode = "MONITOR_NOT_FOUND"
	// FormatUnsupported indicates an unknown report format
	FormatUnsupported ErrorCode = "FORMAT_UNSUPPORTED"
	// ValidationFailed indicates invalid configuration or arguments
	ValidationFailed ErrorCode = "VALIDATION_FAILED"
	// StorageFailure indicates a filesystem or database operation failed
	StorageFailure ErrorCode = "STORAGE_FAILURE"
	// InternalError indicates unexpected error
	InternalError ErrorCode = "INTERNAL_ERROR"
)

// TriageError represents a triage error with code, message, and details
type TriageError struct {
	Code    ErrorCode      `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
	cause   error          // Underlying error (not exported to JSON)
}

// New creates a new TriageError
func New(code ErrorCode, message string) *TriageError {
	return &TriageError{Code: code, Message: message}
}

// Wrap creates a new TriageError wrapping an underlying cause
func Wrap(code ErrorCode, message string, cause error) *TriageError {
	return &TriageError{Code: code, Message: message, cause: cause}
}

// Error implements the error interface
func (e *TriageError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error
func (e *TriageError) Unwrap() error {
	return e.cause
}

// WithDetail adds a detail entry to the error
func (e *TriageError) WithDetail(key string, value any) *TriageError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// NewPathNotFound creates a PATH_NOT_FOUND error for the given path
func NewPathNotFound(path string) *TriageError {
	return New(PathNotFound, fmt.Sprintf("path does not exist: %s", path)).
		WithDetail("path", path)
}

// NewAnalyzerFailure creates an ANALYZER_FAILURE error for the named analyzer
func NewAnalyzerFailure(analyzer string, cause error) *TriageError {
	return Wrap(AnalyzerFailure, fmt.Sprintf("analyzer %q failed", analyzer), cause).
		WithDetail("analyzer", analyzer)
}

// NewAlreadyMonitoring creates an ALREADY_MONITORING error for the given path
func NewAlreadyMonitoring(path, handle string) *TriageError {
	return New(AlreadyMonitoring, fmt.Sprintf("already monitoring %s", path)).
		WithDetail("path", path).
		WithDetail("handle", handle)
}

// NewMonitorNotFound creates a MONITOR_NOT_FOUND error for the given handle
func NewMonitorNotFound(handle string) *TriageError {
	return New(MonitorNotFound, fmt.Sprintf("no monitor session with handle %s", handle)).
		WithDetail("handle", handle)
}

// NewFormatUnsupported creates a FORMAT_UNSUPPORTED error listing the supported formats
func NewFormatUnsupported(format string, supported []string) *TriageError {
	return New(FormatUnsupported, fmt.Sprintf("unsupported report format: %s", format)).
		WithDetail("format", format).
		WithDetail("supported", supported)
}

// NewValidationFailed creates a VALIDATION_FAILED error
func NewValidationFailed(message string) *TriageError {
	return New(ValidationFailed, message)
}

// NewStorageFailure creates a STORAGE_FAILURE error for the named operation
func NewStorageFailure(op string, cause error) *TriageError {
	return Wrap(StorageFailure, fmt.Sprintf("%s failed", op), cause).
		WithDetail("op", op)
}

// CodeOf extracts the error code from any error in a chain.
// Foreign errors map to InternalError; nil maps to the empty code.
func CodeOf(err error) ErrorCode {
	if err == nil {
		return ""
	}
	var te *TriageError
	if errors.As(err, &te) {
		return te.Code
	}
	return InternalError
}

// AsTriageError extracts the first TriageError in err's chain.
func AsTriageError(err error) (*TriageError, bool) {
	var te *TriageError
	if errors.As(err, &te) {
		return te, true
	}
	return nil, false
}

// IsPathNotFound reports whether err carries PATH_NOT_FOUND
func IsPathNotFound(err error) bool { return CodeOf(err) == PathNotFound }

// IsAlreadyMonitoring reports whether err carries ALREADY_MONITORING
func IsAlreadyMonitoring(err error) bool { return CodeOf(err) == AlreadyMonitoring }

// IsMonitorNotFound reports whether err carries MONITOR_NOT_FOUND
func IsMonitorNotFound(err error) bool { return CodeOf(err) == MonitorNotFound }

// IsFormatUnsupported reports whether err carries FORMAT_UNSUPPORTED
func IsFormatUnsupported(err error) bool { return CodeOf(err) == FormatUnsupported }

// IsValidationFailed reports whether err carries VALIDATION_FAILED
func IsValidationFailed(err error) bool { return CodeOf(err) == ValidationFailed }
