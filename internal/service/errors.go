package service

import (
	"errors"
	"net/http"
)

// Error taxonomy shared by services, the worker, and controllers. Services
// wrap these with fmt.Errorf("...: %w", ...) so callers can match with
// errors.Is while keeping context in the message.
var (
	// ErrNotFound covers unknown assessments, readings, users, results.
	ErrNotFound = errors.New("resource not found")
	// ErrInvalidState is returned when an operation is not valid for the
	// assessment's current status.
	ErrInvalidState = errors.New("operation not valid for current status")
	// ErrInvalidUploadReference is returned when confirm-upload carries a blob
	// reference that was never issued, has expired, or was already used.
	ErrInvalidUploadReference = errors.New("unmatched or reused upload reference")
	// ErrUpstreamAnalysis marks a failed speech analysis call.
	ErrUpstreamAnalysis = errors.New("upstream analysis failure")
	// ErrForbidden is returned when the caller's role or ownership does not
	// permit the operation.
	ErrForbidden = errors.New("not authorized for this operation")
	// ErrConflict covers uniqueness violations such as duplicate registration.
	ErrConflict = errors.New("resource already exists")
	// ErrInvalidCredentials is returned on failed login.
	ErrInvalidCredentials = errors.New("invalid email or password")
)

// HTTPStatus maps a service error to the HTTP status controllers respond with.
func HTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrInvalidState), errors.Is(err, ErrInvalidUploadReference):
		return http.StatusBadRequest
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, ErrConflict):
		return http.StatusConflict
	case errors.Is(err, ErrInvalidCredentials):
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}
