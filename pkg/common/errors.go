package common

import (
	"errors"
	"net/http"
)

// Machine-readable error kind codes returned to clients.
const (
	CodeNotFound           = "NOT_FOUND"
	CodeBadRequest         = "BAD_REQUEST"
	CodeValidation         = "VALIDATION_ERROR"
	CodeConflict           = "CONFLICT"
	CodeUnauthorized       = "UNAUTHORIZED"
	CodeForbidden          = "FORBIDDEN"
	CodeInternal           = "INTERNAL_ERROR"
	CodeServiceUnavailable = "SERVICE_UNAVAILABLE"
	CodeDependencyTimeout  = "DEPENDENCY_TIMEOUT"
	CodeRateLimited        = "RATE_LIMITED"
)

// AppError is an application error carrying an HTTP status, a stable
// machine-readable code and a user-safe message. The wrapped cause is
// logged internally, never serialized to clients.
type AppError struct {
	StatusCode int    `json:"-"`
	Code       string `json:"code"`
	Message    string `json:"message"`
	Err        error  `json:"-"`
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

// Unwrap returns the wrapped cause
func (e *AppError) Unwrap() error {
	return e.Err
}

// NewAppError creates an AppError with an explicit status and code
func NewAppError(statusCode int, code, message string, err error) *AppError {
	return &AppError{StatusCode: statusCode, Code: code, Message: message, Err: err}
}

// NewNotFoundError creates a 404 error
func NewNotFoundError(message string, err error) *AppError {
	return NewAppError(http.StatusNotFound, CodeNotFound, message, err)
}

// NewBadRequestError creates a 400 error
func NewBadRequestError(message string, err error) *AppError {
	return NewAppError(http.StatusBadRequest, CodeBadRequest, message, err)
}

// NewValidationError creates a 400 error with the validation kind code
func NewValidationError(message string, err error) *AppError {
	return NewAppError(http.StatusBadRequest, CodeValidation, message, err)
}

// NewConflictError creates a 409 error
func NewConflictError(message string, err error) *AppError {
	return NewAppError(http.StatusConflict, CodeConflict, message, err)
}

// NewUnauthorizedError creates a 401 error
func NewUnauthorizedError(message string) *AppError {
	return NewAppError(http.StatusUnauthorized, CodeUnauthorized, message, nil)
}

// NewForbiddenError creates a 403 error
func NewForbiddenError(message string) *AppError {
	return NewAppError(http.StatusForbidden, CodeForbidden, message, nil)
}

// NewInternalError creates a 500 error
func NewInternalError(message string, err error) *AppError {
	return NewAppError(http.StatusInternalServerError, CodeInternal, message, err)
}

// NewServiceUnavailableError creates a 503 error
func NewServiceUnavailableError(message string, err error) *AppError {
	return NewAppError(http.StatusServiceUnavailable, CodeServiceUnavailable, message, err)
}

// NewDependencyTimeoutError creates a 502 error for unreachable collaborators
func NewDependencyTimeoutError(message string, err error) *AppError {
	return NewAppError(http.StatusBadGateway, CodeDependencyTimeout, message, err)
}

// AsAppError extracts an *AppError from an error chain
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}
