package xerrors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAPIErrorHelpers(t *testing.T) {
	err := fmt.Errorf("validate: %w", &APIError{StatusCode: http.StatusNotFound, Message: "no such route", Op: "validateService"})

	assert.Equal(t, http.StatusNotFound, StatusCode(err))
	assert.True(t, IsStatus(err, http.StatusNotFound, http.StatusNotImplemented))
	assert.False(t, IsStatus(err, http.StatusBadGateway))
	assert.Equal(t, "no such route", ServerMessage(err))
	assert.Contains(t, err.Error(), "upstream status 404")

	plain := errors.New("dial tcp: refused")
	assert.Equal(t, 0, StatusCode(plain))
	assert.False(t, IsStatus(plain, http.StatusNotFound))
	assert.Empty(t, ServerMessage(plain))
}

func TestAPIErrorWithoutMessage(t *testing.T) {
	err := &APIError{StatusCode: http.StatusBadGateway, Op: "getLiveTracking"}
	assert.Equal(t, "getLiveTracking: upstream status 502", err.Error())
	assert.Empty(t, ServerMessage(err))
}
