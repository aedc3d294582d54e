package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRateLimiterWindow(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	rl := NewRateLimiter()
	rl.now = func() time.Time { return now }

	for i := 0; i < 3; i++ {
		ok, err := rl.Allow(ctx, "u1", "submit", 3, time.Minute)
		require.NoError(t, err)
		assert.True(t, ok)
	}
	ok, _ := rl.Allow(ctx, "u1", "submit", 3, time.Minute)
	assert.False(t, ok)

	// other owners and endpoints keep their own counters
	ok, _ = rl.Allow(ctx, "u2", "submit", 3, time.Minute)
	assert.True(t, ok)
	ok, _ = rl.Allow(ctx, "u1", "start", 3, time.Minute)
	assert.True(t, ok)

	now = now.Add(time.Minute)
	ok, _ = rl.Allow(ctx, "u1", "submit", 3, time.Minute)
	assert.True(t, ok)
}

func TestRateLimiterDropsElapsedWindows(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	rl := NewRateLimiter()
	rl.now = func() time.Time { return now }

	for _, owner := range []string{"u1", "u2", "u3"} {
		_, err := rl.Allow(ctx, owner, "submit", 3, time.Minute)
		require.NoError(t, err)
	}
	assert.Len(t, rl.windows, 3)

	now = now.Add(2 * time.Minute)
	_, err := rl.Allow(ctx, "u4", "submit", 3, time.Minute)
	require.NoError(t, err)
	assert.Len(t, rl.windows, 1)
	assert.Contains(t, rl.windows, "u4:submit")
}
