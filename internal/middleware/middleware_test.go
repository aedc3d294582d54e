package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"assistance-gateway/internal/pkg/assistance"
	xerrors "assistance-gateway/internal/pkg/errors"
	"assistance-gateway/internal/pkg/identity"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newRouter(mw ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(mw...)
	return r
}

func verifierReturning(err error) *identity.Verifier {
	return identity.NewVerifier(identity.CheckerFunc(func(context.Context, string) error { return err }), time.Minute)
}

func TestIdentityRejectsMissingToken(t *testing.T) {
	r := newRouter(Identity(verifierReturning(nil)))
	r.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestIdentityAttachesOwnerAndToken(t *testing.T) {
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":   "user-9",
		"email": "ana@example.com",
	}).SignedString([]byte("secret"))
	require.NoError(t, err)

	var owner, forwarded, email string
	r := newRouter(Identity(verifierReturning(nil)))
	r.GET("/x", func(c *gin.Context) {
		owner = MustGetOwner(c)
		email = GetEmail(c)
		forwarded = assistance.TokenFrom(c.Request.Context())
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "user-9", owner)
	assert.Equal(t, "ana@example.com", email)
	assert.Equal(t, token, forwarded)
}

func TestIdentityRejectsTokenRefusedUpstream(t *testing.T) {
	forged, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": "victim"}).SignedString([]byte("guess"))
	require.NoError(t, err)

	reached := false
	r := newRouter(Identity(verifierReturning(&xerrors.APIError{StatusCode: http.StatusUnauthorized, Op: "checkToken"})))
	r.GET("/x", func(c *gin.Context) { reached = true })

	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("Authorization", "Bearer "+forged)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.False(t, reached)
}

func TestIdentityUpstreamUnavailable(t *testing.T) {
	r := newRouter(Identity(verifierReturning(errors.New("connection refused"))))
	r.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("Authorization", "Bearer opaque")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadGateway, w.Code)
}

func TestIdentityForgetsTokenAfterUnauthorizedResponse(t *testing.T) {
	var checks atomic.Int32
	verifier := identity.NewVerifier(identity.CheckerFunc(func(context.Context, string) error {
		checks.Add(1)
		return nil
	}), time.Minute)

	status := http.StatusOK
	r := newRouter(Identity(verifier))
	r.GET("/x", func(c *gin.Context) { c.Status(status) })

	call := func() {
		req := httptest.NewRequest(http.MethodGet, "/x", nil)
		req.Header.Set("Authorization", "Bearer opaque")
		r.ServeHTTP(httptest.NewRecorder(), req)
	}

	call()
	call()
	assert.Equal(t, int32(1), checks.Load())

	status = http.StatusUnauthorized
	call()
	call()
	assert.Equal(t, int32(2), checks.Load())
}

func TestRecoveryMiddleware(t *testing.T) {
	r := newRouter(RecoveryMiddleware(zap.NewNop()))
	r.GET("/boom", func(c *gin.Context) { panic("boom") })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/boom", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), `"success":false`)
}

func TestCORSMiddleware(t *testing.T) {
	r := newRouter(CORSMiddleware([]string{"https://app.example"}))
	r.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodOptions, "/x", nil)
	req.Header.Set("Origin", "https://app.example")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "https://app.example", w.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("Origin", "https://other.example")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}

func TestLoggingMiddlewarePassesThrough(t *testing.T) {
	r := newRouter(LoggingMiddleware(zap.NewNop()))
	r.GET("/x", func(c *gin.Context) { c.Status(http.StatusTeapot) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))
	assert.Equal(t, http.StatusTeapot, w.Code)
}

type countingLimiter struct {
	calls int64
	err   error
}

func (l *countingLimiter) Allow(_ context.Context, _, _ string, max int64, _ time.Duration) (bool, error) {
	l.calls++
	return l.calls <= max, l.err
}

func withOwner(owner string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(ownerKey, owner)
		c.Next()
	}
}

func TestRateLimitRejectsOverLimit(t *testing.T) {
	limiter := &countingLimiter{}
	r := newRouter(withOwner("u1"), RateLimit(limiter, "submit", 1, time.Minute, zap.NewNop()))
	r.POST("/x", func(c *gin.Context) { c.Status(http.StatusCreated) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/x", nil))
	assert.Equal(t, http.StatusCreated, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/x", nil))
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "60", w.Header().Get("Retry-After"))
}

func TestRateLimitFailsOpen(t *testing.T) {
	limiter := &countingLimiter{err: errors.New("redis down")}
	r := newRouter(withOwner("u1"), RateLimit(limiter, "submit", 1, time.Minute, zap.NewNop()))
	r.POST("/x", func(c *gin.Context) { c.Status(http.StatusCreated) })

	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/x", nil))
		assert.Equal(t, http.StatusCreated, w.Code)
	}
}

func TestRateLimitDisabled(t *testing.T) {
	limiter := &countingLimiter{}
	r := newRouter(withOwner("u1"), RateLimit(limiter, "submit", 0, time.Minute, zap.NewNop()))
	r.POST("/x", func(c *gin.Context) { c.Status(http.StatusCreated) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/x", nil))
	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Zero(t, limiter.calls)
}
