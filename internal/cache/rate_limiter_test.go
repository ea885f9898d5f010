package cache

import (
	"context"
	"testing"
	"time"

	"github.com/seathold/api/internal/domain"
	"github.com/stretchr/testify/require"
)

func TestRateLimiter_FixedWindow(t *testing.T) {
	client, _ := newTestClient(t)
	limiter := NewRateLimiter(client, 5)
	ctx := context.Background()
	now := time.Date(2026, 3, 14, 10, 30, 0, 0, time.UTC)

	for i := 0; i < 5; i++ {
		require.NoError(t, limiter.Allow(ctx, "user-1", now))
	}

	err := limiter.Allow(ctx, "user-1", now)
	require.ErrorIs(t, err, domain.ErrRateLimited)

	// Other users have their own budget
	require.NoError(t, limiter.Allow(ctx, "user-2", now))
}

func TestRateLimiter_WindowResetsAtMinuteBoundary(t *testing.T) {
	client, _ := newTestClient(t)
	limiter := NewRateLimiter(client, 2)
	ctx := context.Background()
	now := time.Date(2026, 3, 14, 10, 30, 59, 0, time.UTC)

	require.NoError(t, limiter.Allow(ctx, "user-1", now))
	require.NoError(t, limiter.Allow(ctx, "user-1", now))
	require.ErrorIs(t, limiter.Allow(ctx, "user-1", now), domain.ErrRateLimited)

	// One second later the wall clock enters a new window
	next := now.Add(time.Second)
	require.NoError(t, limiter.Allow(ctx, "user-1", next))
}
