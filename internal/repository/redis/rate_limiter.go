// internal/repository/redis/rate_limiter.go
package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RateLimiter counts calls per owner and endpoint in fixed windows shared by
// every gateway instance.
type RateLimiter struct {
	client redis.UniversalClient
}

func NewRateLimiter(client redis.UniversalClient) *RateLimiter {
	return &RateLimiter{client: client}
}

func (r *RateLimiter) key(owner, endpoint string) string {
	return fmt.Sprintf("ratelimit:{%s}:%s", owner, endpoint)
}

// Allow records one call and reports whether it is within max for window.
func (r *RateLimiter) Allow(ctx context.Context, owner, endpoint string, max int64, window time.Duration) (bool, error) {
	key := r.key(owner, endpoint)

	count, err := r.client.Incr(ctx, key).Result()
	if err != nil {
		return false, fmt.Errorf("failed to increment rate limit: %w", err)
	}

	// Window starts on the first call
	if count == 1 {
		if err := r.client.Expire(ctx, key, window).Err(); err != nil {
			return false, fmt.Errorf("failed to set rate limit window: %w", err)
		}
	}

	return count <= max, nil
}
