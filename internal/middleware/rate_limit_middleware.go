// internal/middleware/rate_limit_middleware.go
package middleware

import (
	"context"
	"strconv"
	"time"

	xerrors "assistance-gateway/internal/pkg/errors"
	"assistance-gateway/internal/pkg/response"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type RateLimiter interface {
	Allow(ctx context.Context, owner, endpoint string, max int64, window time.Duration) (bool, error)
}

// RateLimit caps calls to endpoint per owner. It must run after Identity.
// A limiter failure lets the request through.
func RateLimit(limiter RateLimiter, endpoint string, max int64, window time.Duration, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if max <= 0 {
			c.Next()
			return
		}
		owner, ok := GetOwner(c)
		if !ok {
			c.Next()
			return
		}

		allowed, err := limiter.Allow(c.Request.Context(), owner, endpoint, max, window)
		if err != nil {
			logger.Warn("rate limiter unavailable",
				zap.String("endpoint", endpoint),
				zap.Error(err),
			)
			c.Next()
			return
		}
		if !allowed {
			c.Header("Retry-After", strconv.Itoa(int(window.Seconds())))
			response.FromError(c, "too many requests, try again later", xerrors.ErrRateLimited)
			return
		}
		c.Next()
	}
}
