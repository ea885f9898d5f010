package cache

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	pkgredis "github.com/seathold/api/pkg/redis"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T) (*pkgredis.Client, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return pkgredis.NewFromClient(client), mr
}

func TestAvailabilityStore_SeedOnce(t *testing.T) {
	client, _ := newTestClient(t)
	store := NewAvailabilityStore(client)
	ctx := context.Background()

	created, err := store.Seed(ctx, "evt-1", 100)
	require.NoError(t, err)
	require.True(t, created)

	// A second seed must not reset the counter
	_, err = store.DecrBy(ctx, "evt-1", 10)
	require.NoError(t, err)

	created, err = store.Seed(ctx, "evt-1", 100)
	require.NoError(t, err)
	require.False(t, created)

	available, err := store.Get(ctx, "evt-1")
	require.NoError(t, err)
	require.Equal(t, int64(90), available)
}

func TestAvailabilityStore_GetMissing(t *testing.T) {
	client, _ := newTestClient(t)
	store := NewAvailabilityStore(client)

	_, err := store.Get(context.Background(), "evt-unknown")
	require.ErrorIs(t, err, ErrCounterMissing)
}

func TestAvailabilityStore_DecrBelowZeroIsVisible(t *testing.T) {
	client, _ := newTestClient(t)
	store := NewAvailabilityStore(client)
	ctx := context.Background()

	_, err := store.Seed(ctx, "evt-1", 2)
	require.NoError(t, err)

	remaining, err := store.DecrBy(ctx, "evt-1", 3)
	require.NoError(t, err)
	require.Equal(t, int64(-1), remaining)

	// Compensation restores the pre-decrement value
	remaining, err = store.IncrBy(ctx, "evt-1", 3)
	require.NoError(t, err)
	require.Equal(t, int64(2), remaining)
}

func TestAvailabilityStore_Delete(t *testing.T) {
	client, _ := newTestClient(t)
	store := NewAvailabilityStore(client)
	ctx := context.Background()

	_, err := store.Seed(ctx, "evt-1", 5)
	require.NoError(t, err)

	require.NoError(t, store.Delete(ctx, "evt-1"))

	_, err = store.Get(ctx, "evt-1")
	require.ErrorIs(t, err, ErrCounterMissing)
}
