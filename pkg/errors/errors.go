package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorType classifies an error for logging and HTTP mapping.
type ErrorType string

const (
	// Domain errors
	ErrorTypeValidation ErrorType = "VALIDATION"
	ErrorTypeNotFound   ErrorType = "NOT_FOUND"
	ErrorTypeConflict   ErrorType = "CONFLICT"
	ErrorTypeForbidden  ErrorType = "FORBIDDEN"

	// Infrastructure errors
	ErrorTypeStore            ErrorType = "STORE_FAILURE"
	ErrorTypeCacheUnavailable ErrorType = "CACHE_UNAVAILABLE"
	ErrorTypeExternal         ErrorType = "EXTERNAL"
	ErrorTypeInternal         ErrorType = "INTERNAL"
)

// AppError is the error type crossing the service boundary. Store and cache
// failures are wrapped into one of these before they reach a controller.
type AppError struct {
	Type       ErrorType
	Message    string
	Cause      error
	HTTPStatus int
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// WithCause attaches the underlying error.
func (e *AppError) WithCause(err error) *AppError {
	e.Cause = err
	return e
}

// NewNotFoundError reports that a resource is absent from the store.
func NewNotFoundError(message string) *AppError {
	return &AppError{
		Type:       ErrorTypeNotFound,
		Message:    message,
		HTTPStatus: http.StatusNotFound,
	}
}

// NewValidationError reports a malformed or incomplete request.
func NewValidationError(message string) *AppError {
	return &AppError{
		Type:       ErrorTypeValidation,
		Message:    message,
		HTTPStatus: http.StatusBadRequest,
	}
}

// NewConflictError reports an operation rejected by current entity state.
func NewConflictError(message string) *AppError {
	return &AppError{
		Type:       ErrorTypeConflict,
		Message:    message,
		HTTPStatus: http.StatusConflict,
	}
}

// NewStoreError wraps a failed persistence operation. Propagated to the
// caller; the service never retries.
func NewStoreError(message string, cause error) *AppError {
	return &AppError{
		Type:       ErrorTypeStore,
		Message:    message,
		Cause:      cause,
		HTTPStatus: http.StatusInternalServerError,
	}
}

// NewCacheUnavailableError wraps a failed cache operation. Always absorbed at
// the service boundary; it must never block the primary store operation.
func NewCacheUnavailableError(message string, cause error) *AppError {
	if message == "" {
		message = "cache unavailable"
	}
	return &AppError{
		Type:       ErrorTypeCacheUnavailable,
		Message:    message,
		Cause:      cause,
		HTTPStatus: http.StatusServiceUnavailable,
	}
}

// NewExternalError wraps a failure of an external collaborator.
func NewExternalError(message string, cause error) *AppError {
	return &AppError{
		Type:       ErrorTypeExternal,
		Message:    message,
		Cause:      cause,
		HTTPStatus: http.StatusBadGateway,
	}
}

// NewInternalError wraps an unexpected failure.
func NewInternalError(message string, cause error) *AppError {
	return &AppError{
		Type:       ErrorTypeInternal,
		Message:    message,
		Cause:      cause,
		HTTPStatus: http.StatusInternalServerError,
	}
}

// GetAppError extracts an *AppError from an error chain, or nil.
func GetAppError(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return nil
}

// IsType reports whether err carries the given error type.
func IsType(err error, t ErrorType) bool {
	appErr := GetAppError(err)
	return appErr != nil && appErr.Type == t
}

// IsNotFound reports whether err is a not-found error.
func IsNotFound(err error) bool {
	return IsType(err, ErrorTypeNotFound)
}

// IsCacheUnavailable reports whether err is an absorbed cache failure.
func IsCacheUnavailable(err error) bool {
	return IsType(err, ErrorTypeCacheUnavailable)
}

// IsValidation reports whether err is a validation error.
func IsValidation(err error) bool {
	return IsType(err, ErrorTypeValidation)
}
