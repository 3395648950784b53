package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorCode represents a category of application error.
type ErrorCode string

const (
	// ErrCodeTransport indicates the backend answered with a non-2xx status or could not be reached.
	ErrCodeTransport ErrorCode = "transport"
	// ErrCodeEnvelope indicates the backend envelope reported a logical failure or violated its contract.
	ErrCodeEnvelope ErrorCode = "envelope"
	// ErrCodeStorage indicates the key/value storage capability failed.
	ErrCodeStorage ErrorCode = "storage"
	// ErrCodeProvider indicates the identity provider failed.
	ErrCodeProvider ErrorCode = "provider"
	// ErrCodeNotFound indicates a resource was not found.
	ErrCodeNotFound ErrorCode = "not_found"
	// ErrCodeValidation indicates invalid input data.
	ErrCodeValidation ErrorCode = "validation"
	// ErrCodeUnauthenticated indicates an operation needs a signed-in session.
	ErrCodeUnauthenticated ErrorCode = "unauthenticated"
	// ErrCodeInternal indicates an internal error.
	ErrCodeInternal ErrorCode = "internal"
	// ErrCodeTimeout indicates a timeout occurred.
	ErrCodeTimeout ErrorCode = "timeout"
	// ErrCodeCanceled indicates the operation was canceled.
	ErrCodeCanceled ErrorCode = "canceled"
)

// AppError represents a structured application error with a code, message, and optional cause.
// It supports error wrapping and unwrapping for use with errors.Is and errors.As.
type AppError struct {
	// Code categorizes the error type
	Code ErrorCode
	// Message is a human-readable error message
	Message string
	// Cause is the underlying error that caused this error (optional)
	Cause error
	// Field is the specific field that caused the error (optional, for validation errors)
	Field string
	// Status is the HTTP status observed for transport errors; 0 when no response arrived.
	Status int
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

// Unwrap returns the underlying cause, enabling errors.Is and errors.As.
func (e *AppError) Unwrap() error {
	return e.Cause
}

// Transport creates a TransportError for a non-2xx backend response.
func Transport(status int) *AppError {
	return &AppError{
		Code:    ErrCodeTransport,
		Message: fmt.Sprintf("backend responded with status %d %s", status, http.StatusText(status)),
		Status:  status,
	}
}

// TransportCause creates a TransportError for a request that never produced a response.
func TransportCause(err error) *AppError {
	if err == nil {
		return nil
	}
	return &AppError{
		Code:    ErrCodeTransport,
		Message: "backend request failed",
		Cause:   err,
	}
}

// Envelope creates an EnvelopeError carrying the backend supplied message.
func Envelope(message string) *AppError {
	if message == "" {
		message = "backend reported failure"
	}
	return &AppError{
		Code:    ErrCodeEnvelope,
		Message: message,
	}
}

// Storage wraps a storage capability failure.
func Storage(err error, message string) *AppError {
	if err == nil {
		return nil
	}
	return &AppError{
		Code:    ErrCodeStorage,
		Message: message,
		Cause:   err,
	}
}

// Provider wraps an identity provider failure.
func Provider(err error, message string) *AppError {
	if err == nil {
		return nil
	}
	return &AppError{
		Code:    ErrCodeProvider,
		Message: message,
		Cause:   err,
	}
}

// NotFound creates a new NotFound error.
func NotFound(message string) *AppError {
	return &AppError{
		Code:    ErrCodeNotFound,
		Message: message,
	}
}

// NotFoundf creates a new NotFound error with formatted message.
func NotFoundf(format string, args ...any) *AppError {
	return &AppError{
		Code:    ErrCodeNotFound,
		Message: fmt.Sprintf(format, args...),
	}
}

// Validation creates a new Validation error.
func Validation(message string) *AppError {
	return &AppError{
		Code:    ErrCodeValidation,
		Message: message,
	}
}

// ValidationField creates a new Validation error for a specific field.
func ValidationField(field, message string) *AppError {
	return &AppError{
		Code:    ErrCodeValidation,
		Message: message,
		Field:   field,
	}
}

// Unauthenticated creates a new Unauthenticated error.
func Unauthenticated(message string) *AppError {
	return &AppError{
		Code:    ErrCodeUnauthenticated,
		Message: message,
	}
}

// Internal creates a new Internal error.
func Internal(message string) *AppError {
	return &AppError{
		Code:    ErrCodeInternal,
		Message: message,
	}
}

// Wrap wraps an existing error with an AppError, preserving the cause.
func Wrap(err error, code ErrorCode, message string) *AppError {
	if err == nil {
		return nil
	}
	return &AppError{
		Code:    code,
		Message: message,
		Cause:   err,
	}
}

// Wrapf wraps an existing error with an AppError and formatted message.
func Wrapf(err error, code ErrorCode, format string, args ...any) *AppError {
	return Wrap(err, code, fmt.Sprintf(format, args...))
}

// isCode checks if an error has a specific error code.
func isCode(err error, code ErrorCode) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Code == code
}

// IsTransport checks if an error is a TransportError.
func IsTransport(err error) bool {
	return isCode(err, ErrCodeTransport)
}

// IsEnvelope checks if an error is an EnvelopeError.
func IsEnvelope(err error) bool {
	return isCode(err, ErrCodeEnvelope)
}

// IsStorage checks if an error is a StorageError.
func IsStorage(err error) bool {
	return isCode(err, ErrCodeStorage)
}

// IsProvider checks if an error is a ProviderError.
func IsProvider(err error) bool {
	return isCode(err, ErrCodeProvider)
}

// IsNotFound checks if an error is a NotFound error.
func IsNotFound(err error) bool {
	return isCode(err, ErrCodeNotFound)
}

// IsValidation checks if an error is a Validation error.
func IsValidation(err error) bool {
	return isCode(err, ErrCodeValidation)
}

// IsUnauthenticated checks if an error is an Unauthenticated error.
func IsUnauthenticated(err error) bool {
	return isCode(err, ErrCodeUnauthenticated)
}

// IsInternal checks if an error is an Internal error.
func IsInternal(err error) bool {
	return isCode(err, ErrCodeInternal)
}

// IsTimeout checks if an error is a Timeout error.
func IsTimeout(err error) bool {
	return isCode(err, ErrCodeTimeout)
}

// IsCanceled checks if an error is a Canceled error.
func IsCanceled(err error) bool {
	return isCode(err, ErrCodeCanceled)
}

// IsBackend reports whether err originated from the backend API (transport or envelope).
func IsBackend(err error) bool {
	return IsTransport(err) || IsEnvelope(err)
}

// GetCode returns the ErrorCode from an error, or empty string if not an AppError.
func GetCode(err error) ErrorCode {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return ""
}

// GetField returns the Field from an error, or empty string if not an AppError or no field set.
func GetField(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Field
	}
	return ""
}

// GetStatus returns the HTTP status carried by a TransportError, or 0.
func GetStatus(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Status
	}
	return 0
}
