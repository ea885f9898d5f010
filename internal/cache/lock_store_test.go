package cache

import (
	"context"
	"testing"
	"time"

	"github.com/seathold/api/internal/domain"
	"github.com/stretchr/testify/require"
)

func TestLockStore_AcquireIsExclusive(t *testing.T) {
	client, _ := newTestClient(t)
	store := NewLockStore(client, 5*time.Second)
	ctx := context.Background()

	token, err := store.Acquire(ctx, "evt-1")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	_, err = store.Acquire(ctx, "evt-1")
	require.ErrorIs(t, err, domain.ErrEventBusy)

	// A different event is an independent lock
	other, err := store.Acquire(ctx, "evt-2")
	require.NoError(t, err)
	require.NotEqual(t, token, other)
}

func TestLockStore_ReleaseRequiresToken(t *testing.T) {
	client, _ := newTestClient(t)
	store := NewLockStore(client, 5*time.Second)
	ctx := context.Background()

	token, err := store.Acquire(ctx, "evt-1")
	require.NoError(t, err)

	released, err := store.Release(ctx, "evt-1", "wrong-token")
	require.NoError(t, err)
	require.False(t, released)

	// Lock is still held
	_, err = store.Acquire(ctx, "evt-1")
	require.ErrorIs(t, err, domain.ErrEventBusy)

	released, err = store.Release(ctx, "evt-1", token)
	require.NoError(t, err)
	require.True(t, released)

	_, err = store.Acquire(ctx, "evt-1")
	require.NoError(t, err)
}

func TestLockStore_PreloadedScriptRelease(t *testing.T) {
	client, _ := newTestClient(t)
	store := NewLockStore(client, 5*time.Second)
	ctx := context.Background()

	// Startup preloads the release script; release must go through the
	// cached SHA
	require.NoError(t, store.LoadScripts(ctx))

	token, err := store.Acquire(ctx, "evt-1")
	require.NoError(t, err)

	released, err := store.Release(ctx, "evt-1", token)
	require.NoError(t, err)
	require.True(t, released)
}

func TestLockStore_ExpiredLockCanBeReacquired(t *testing.T) {
	client, mr := newTestClient(t)
	store := NewLockStore(client, 5*time.Second)
	ctx := context.Background()

	staleToken, err := store.Acquire(ctx, "evt-1")
	require.NoError(t, err)

	mr.FastForward(6 * time.Second)

	freshToken, err := store.Acquire(ctx, "evt-1")
	require.NoError(t, err)

	// The stale holder must not be able to free the new owner's lock
	released, err := store.Release(ctx, "evt-1", staleToken)
	require.NoError(t, err)
	require.False(t, released)

	released, err = store.Release(ctx, "evt-1", freshToken)
	require.NoError(t, err)
	require.True(t, released)
}
