package identity

import (
	"context"
	"errors"
	"net/http"
	"sync/atomic"
	"testing"
	"time"

	xerrors "assistance-gateway/internal/pkg/errors"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingChecker struct {
	calls atomic.Int32
	err   error
}

func (c *countingChecker) CheckToken(context.Context, string) error {
	c.calls.Add(1)
	return c.err
}

func TestVerifierRejectsTokenRefusedUpstream(t *testing.T) {
	checker := &countingChecker{err: &xerrors.APIError{StatusCode: http.StatusUnauthorized, Op: "getMySubscriptions"}}
	v := NewVerifier(checker, time.Minute)

	forged := sign(t, jwt.MapClaims{"sub": "victim"})
	_, err := v.Verify(context.Background(), forged)
	assert.ErrorIs(t, err, ErrInvalidToken)
	assert.ErrorIs(t, err, xerrors.ErrUnauthorized)
	assert.True(t, IsUnauthorized(err))

	// a refused token is not remembered
	_, err = v.Verify(context.Background(), forged)
	assert.Error(t, err)
	assert.Equal(t, int32(2), checker.calls.Load())
}

func TestVerifierCachesAcceptedToken(t *testing.T) {
	checker := &countingChecker{}
	v := NewVerifier(checker, time.Minute)
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	v.now = func() time.Time { return now }

	token := sign(t, jwt.MapClaims{"sub": "user-3"})
	id, err := v.Verify(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, "user-3", id.Owner)

	_, err = v.Verify(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, int32(1), checker.calls.Load())

	now = now.Add(time.Minute)
	_, err = v.Verify(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, int32(2), checker.calls.Load())

	v.Forget(token)
	_, err = v.Verify(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, int32(3), checker.calls.Load())
}

func TestVerifierRejectsExpiredToken(t *testing.T) {
	checker := &countingChecker{}
	v := NewVerifier(checker, time.Minute)

	token := sign(t, jwt.MapClaims{"sub": "user-3", "exp": time.Now().Add(-time.Minute).Unix()})
	_, err := v.Verify(context.Background(), token)
	assert.ErrorIs(t, err, xerrors.ErrUnauthorized)
	assert.Zero(t, checker.calls.Load())
}

func TestVerifierUpstreamFailureIsNotUnauthorized(t *testing.T) {
	checker := &countingChecker{err: errors.New("connection refused")}
	v := NewVerifier(checker, time.Minute)

	_, err := v.Verify(context.Background(), sign(t, jwt.MapClaims{"sub": "user-3"}))
	require.Error(t, err)
	assert.False(t, IsUnauthorized(err))
}

func TestVerifierMissingToken(t *testing.T) {
	v := NewVerifier(&countingChecker{}, time.Minute)
	_, err := v.Verify(context.Background(), "  ")
	assert.True(t, IsUnauthorized(err))
}
