package errors

import (
	stderrors "errors"
	"fmt"

	pkgerrors "github.com/pkg/errors"
)

// ErrorType represents different categories of errors
type ErrorType string

const (
	// Remote call failures. A client never returns anything outside these four.
	ErrorTypeTransport  ErrorType = "transport"
	ErrorTypeProtocol   ErrorType = "protocol"
	ErrorTypeMalformed  ErrorType = "malformed"
	ErrorTypeUnexpected ErrorType = "unexpected"

	ErrorTypeDataQuality   ErrorType = "data_quality"
	ErrorTypeValidation    ErrorType = "validation"
	ErrorTypeConfiguration ErrorType = "configuration"
	ErrorTypeStorage       ErrorType = "storage"
)

// BuddyError is the base error type for all application errors
type BuddyError struct {
	Type    ErrorType
	Message string
	Cause   error
	Context map[string]any
}

// Error implements the error interface
func (e *BuddyError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap returns the underlying cause
func (e *BuddyError) Unwrap() error {
	return e.Cause
}

// WithContext adds context information to the error
func (e *BuddyError) WithContext(key string, value any) *BuddyError {
	if e.Context == nil {
		e.Context = make(map[string]any)
	}
	e.Context[key] = value
	return e
}

// New creates a new BuddyError
func New(errorType ErrorType, message string) *BuddyError {
	return &BuddyError{
		Type:    errorType,
		Message: message,
		Context: make(map[string]any),
	}
}

// Wrap wraps an existing error with additional context. The cause keeps a stack trace.
func Wrap(err error, errorType ErrorType, message string) *BuddyError {
	return &BuddyError{
		Type:    errorType,
		Message: message,
		Cause:   pkgerrors.WithStack(err),
		Context: make(map[string]any),
	}
}

// TypeOf returns the ErrorType of the first BuddyError in the chain, or "" if there is none
func TypeOf(err error) ErrorType {
	var be *BuddyError
	if stderrors.As(err, &be) {
		return be.Type
	}
	return ""
}

// IsType reports whether err carries the given ErrorType
func IsType(err error, errorType ErrorType) bool {
	return err != nil && TypeOf(err) == errorType
}

// Validation creates a validation error
func Validation(message string) *BuddyError {
	return New(ErrorTypeValidation, message)
}

// Configuration creates a configuration error
func Configuration(message string) *BuddyError {
	return New(ErrorTypeConfiguration, message)
}

// Storage wraps a persistence failure
func Storage(err error, message string) *BuddyError {
	return Wrap(err, ErrorTypeStorage, message)
}

// DataQuality creates an error for an input record that cannot be processed
func DataQuality(message string) *BuddyError {
	return New(ErrorTypeDataQuality, message)
}

// Transport wraps a connection, DNS or timeout failure
func Transport(operation string, err error) *BuddyError {
	return Wrap(err, ErrorTypeTransport, fmt.Sprintf("%s: request failed", operation))
}

// Protocol creates an error for a non-2xx response
func Protocol(operation string, status int, body string) *BuddyError {
	return New(ErrorTypeProtocol, fmt.Sprintf("%s: HTTP %d", operation, status)).
		WithContext("status", status).
		WithContext("body", body)
}

// Malformed wraps a body that is not valid JSON or lacks an expected field
func Malformed(operation string, err error) *BuddyError {
	if err == nil {
		return New(ErrorTypeMalformed, fmt.Sprintf("%s: malformed response", operation))
	}
	return Wrap(err, ErrorTypeMalformed, fmt.Sprintf("%s: malformed response", operation))
}

// Unexpected wraps any failure that fits none of the remote categories
func Unexpected(operation string, err error) *BuddyError {
	return Wrap(err, ErrorTypeUnexpected, fmt.Sprintf("%s: unexpected error", operation))
}

// StatusCode returns the HTTP status recorded on a protocol error, or 0
func StatusCode(err error) int {
	var be *BuddyError
	if !stderrors.As(err, &be) || be.Context == nil {
		return 0
	}
	if status, ok := be.Context["status"].(int); ok {
		return status
	}
	return 0
}
