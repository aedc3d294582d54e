package memory

import (
	"context"
	"sync"
	"time"
)

type window struct {
	count   int64
	resetAt time.Time
}

// RateLimiter is the single-instance counterpart of the redis limiter.
type RateLimiter struct {
	mu      sync.Mutex
	windows map[string]*window
	now     func() time.Time

	nextSweep time.Time
}

func NewRateLimiter() *RateLimiter {
	return &RateLimiter{
		windows: make(map[string]*window),
		now:     time.Now,
	}
}

func (r *RateLimiter) Allow(_ context.Context, owner, endpoint string, max int64, period time.Duration) (bool, error) {
	key := owner + ":" + endpoint
	now := r.now()

	r.mu.Lock()
	defer r.mu.Unlock()

	if !now.Before(r.nextSweep) {
		for k, w := range r.windows {
			if !now.Before(w.resetAt) {
				delete(r.windows, k)
			}
		}
		r.nextSweep = now.Add(period)
	}

	w, ok := r.windows[key]
	if !ok || !now.Before(w.resetAt) {
		w = &window{resetAt: now.Add(period)}
		r.windows[key] = w
	}
	w.count++
	return w.count <= max, nil
}
