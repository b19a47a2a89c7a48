// Package errors provides the service error type shared by HTTP handlers and middleware.
package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
)

// ErrorCode identifies a class of service error in API responses.
type ErrorCode string

const (
	CodeBadRequest        ErrorCode = "BAD_REQUEST"
	CodeInvalidFormat     ErrorCode = "INVALID_FORMAT"
	CodeUnauthorized      ErrorCode = "UNAUTHORIZED"
	CodeNotFound          ErrorCode = "NOT_FOUND"
	CodeRateLimitExceeded ErrorCode = "RATE_LIMIT_EXCEEDED"
	CodeUnavailable       ErrorCode = "SERVICE_UNAVAILABLE"
	CodeInternal          ErrorCode = "INTERNAL_ERROR"
)

// ServiceError is an error carrying the HTTP status and code it should be reported with.
type ServiceError struct {
	Code       ErrorCode
	Message    string
	HTTPStatus int
	Details    map[string]interface{}
	Err        error
}

func (e *ServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *ServiceError) Unwrap() error {
	return e.Err
}

// WithDetails attaches a detail field and returns the same error for chaining.
func (e *ServiceError) WithDetails(key string, value interface{}) *ServiceError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

func newError(code ErrorCode, status int, message string, err error) *ServiceError {
	return &ServiceError{
		Code:       code,
		Message:    message,
		HTTPStatus: status,
		Err:        err,
	}
}

// BadRequest reports a malformed request.
func BadRequest(message string) *ServiceError {
	return newError(CodeBadRequest, http.StatusBadRequest, message, nil)
}

// InvalidFormat reports a field that could not be parsed.
func InvalidFormat(field string, err error) *ServiceError {
	return newError(CodeInvalidFormat, http.StatusBadRequest, "invalid "+field, err).WithDetails("field", field)
}

// Unauthorized reports missing or rejected credentials.
func Unauthorized(message string) *ServiceError {
	if message == "" {
		message = "unauthorized"
	}
	return newError(CodeUnauthorized, http.StatusUnauthorized, message, nil)
}

// NotFound reports a missing resource.
func NotFound(resource string) *ServiceError {
	return newError(CodeNotFound, http.StatusNotFound, resource+" not found", nil)
}

// RateLimitExceeded reports a throttled client.
func RateLimitExceeded(limit int, window string) *ServiceError {
	return newError(CodeRateLimitExceeded, http.StatusTooManyRequests, "rate limit exceeded", nil).
		WithDetails("limit", limit).
		WithDetails("window", window)
}

// Unavailable reports a dependency that is not configured or not reachable.
func Unavailable(message string, err error) *ServiceError {
	return newError(CodeUnavailable, http.StatusServiceUnavailable, message, err)
}

// Internal reports an unexpected failure.
func Internal(message string, err error) *ServiceError {
	return newError(CodeInternal, http.StatusInternalServerError, message, err)
}

// GetServiceError extracts a *ServiceError from an error chain, or returns nil.
func GetServiceError(err error) *ServiceError {
	var serviceErr *ServiceError
	if stderrors.As(err, &serviceErr) {
		return serviceErr
	}
	return nil
}
