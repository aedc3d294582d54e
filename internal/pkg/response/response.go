// internal/pkg/response/response.go
package response

import (
	"errors"
	"net/http"

	xerrors "assistance-gateway/internal/pkg/errors"

	"github.com/gin-gonic/gin"
)

// Response defines the standard API response format.
type Response struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// Success sends a successful response with a message and optional data.
func Success(c *gin.Context, status int, message string, data interface{}) {
	if status == 0 {
		status = http.StatusOK
	}

	c.JSON(status, Response{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// Error sends a standardized error response.
func Error(c *gin.Context, code int, message string, err error, data ...interface{}) {
	c.Abort()

	resp := Response{
		Success: false,
		Message: message,
	}

	if err != nil {
		resp.Error = err.Error()
	}

	if len(data) > 0 {
		resp.Data = data[0]
	}

	c.JSON(code, resp)
}

// ValidationError sends a 400 Bad Request response for invalid input.
func ValidationError(c *gin.Context, message string, err error) {
	Error(c, http.StatusBadRequest, message, err)
}

// StatusFor maps an application or upstream error to an HTTP status.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, xerrors.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, xerrors.ErrInvalidInput), errors.Is(err, xerrors.ErrBadRequest):
		return http.StatusBadRequest
	case errors.Is(err, xerrors.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, xerrors.ErrForbidden), errors.Is(err, xerrors.ErrNoActivePlan):
		return http.StatusForbidden
	case errors.Is(err, xerrors.ErrWrongStep),
		errors.Is(err, xerrors.ErrServiceLocked),
		errors.Is(err, xerrors.ErrOperationInFlight),
		errors.Is(err, xerrors.ErrCancelNotAllowed),
		errors.Is(err, xerrors.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, xerrors.ErrGuardFailed), errors.Is(err, xerrors.ErrValidationFailed):
		return http.StatusUnprocessableEntity
	case errors.Is(err, xerrors.ErrRateLimited):
		return http.StatusTooManyRequests
	}

	switch status := xerrors.StatusCode(err); {
	case status == http.StatusUnauthorized, status == http.StatusForbidden:
		return status
	case status == http.StatusNotFound:
		return http.StatusNotFound
	case status >= 400 && status < 500:
		return http.StatusUnprocessableEntity
	case status != 0:
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

// FromError sends err with the status StatusFor picks. Upstream server
// messages are surfaced as the response message when present.
func FromError(c *gin.Context, message string, err error, data ...interface{}) {
	if msg := xerrors.ServerMessage(err); msg != "" {
		message = msg
	}
	Error(c, StatusFor(err), message, err, data...)
}
