package xerrors

import (
	"errors"
	"fmt"
)

// Common reusable application errors
var (
	ErrNotFound     = errors.New("resource not found")
	ErrUnauthorized = errors.New("unauthorized access")
	ErrForbidden    = errors.New("forbidden")
	ErrInvalidInput = errors.New("invalid input")
	ErrConflict     = errors.New("conflict")
	ErrInternal     = errors.New("internal server error")
	ErrBadRequest   = errors.New("bad request")
	ErrRateLimited  = errors.New("too many requests")
)

// Wizard and request errors
var (
	ErrGuardFailed       = errors.New("step requirements not met")
	ErrValidationFailed  = errors.New("validation rejected the form")
	ErrOperationInFlight = errors.New("another operation is in progress for this session")
	ErrServiceLocked     = errors.New("service already selected for this session")
	ErrNoActivePlan      = errors.New("no active subscription for this plan")
	ErrWrongStep         = errors.New("operation not allowed at the current step")
	ErrCancelNotAllowed  = errors.New("request can only be cancelled while pending")
)

// APIError is a non-2xx response from the Assistance API.
type APIError struct {
	StatusCode int
	Message    string
	Op         string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s: upstream status %d: %s", e.Op, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("%s: upstream status %d", e.Op, e.StatusCode)
}

// StatusCode returns the upstream HTTP status carried by err, or 0.
func StatusCode(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode
	}
	return 0
}

// IsStatus reports whether err is an APIError with one of the given codes.
func IsStatus(err error, codes ...int) bool {
	status := StatusCode(err)
	if status == 0 {
		return false
	}
	for _, c := range codes {
		if status == c {
			return true
		}
	}
	return false
}

// ServerMessage returns the upstream error message carried by err, if any.
func ServerMessage(err error) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Message
	}
	return ""
}
