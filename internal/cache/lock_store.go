package cache

import (
	"context"
	_ "embed"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/seathold/api/internal/domain"
	pkgredis "github.com/seathold/api/pkg/redis"
	"github.com/seathold/api/pkg/telemetry"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

//go:embed scripts/release_lock.lua
var releaseLockScript string

// Script name for caching
const scriptReleaseLock = "release_lock"

// LockStore provides short-lived per-event mutexes. Acquire returns an
// owner token; Release deletes the lock only when the token still
// matches, so a holder whose lock already expired cannot delete a lock
// acquired by someone else in the meantime.
type LockStore struct {
	client *pkgredis.Client
	ttl    time.Duration
}

// NewLockStore creates a new LockStore with the given lock TTL
func NewLockStore(client *pkgredis.Client, ttl time.Duration) *LockStore {
	return &LockStore{client: client, ttl: ttl}
}

// LoadScripts loads the release script into Redis
func (s *LockStore) LoadScripts(ctx context.Context) error {
	if _, err := s.client.LoadScript(ctx, scriptReleaseLock, releaseLockScript); err != nil {
		return fmt.Errorf("failed to load script %s: %w", scriptReleaseLock, err)
	}
	return nil
}

func lockKey(eventID string) string {
	return fmt.Sprintf("lock:event:%s", eventID)
}

// Acquire takes the per-event lock and returns the owner token.
// Returns ErrEventBusy without blocking when another holder has it.
func (s *LockStore) Acquire(ctx context.Context, eventID string) (string, error) {
	ctx, span := telemetry.StartSpan(ctx, "cache.lock.acquire")
	defer span.End()

	span.SetAttributes(attribute.String("event_id", eventID))

	token := uuid.New().String()
	acquired, err := s.client.SetNX(ctx, lockKey(eventID), token, s.ttl).Result()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return "", fmt.Errorf("failed to acquire event lock: %w", err)
	}

	if !acquired {
		span.SetStatus(codes.Error, "lock held")
		return "", domain.ErrEventBusy
	}

	span.SetStatus(codes.Ok, "")
	return token, nil
}

// Release frees the lock when the token still owns it. It reports
// whether this call deleted the lock; false means the lock expired or
// was taken over, which is not an error for the caller.
func (s *LockStore) Release(ctx context.Context, eventID, token string) (bool, error) {
	ctx, span := telemetry.StartSpan(ctx, "cache.lock.release")
	defer span.End()

	span.SetAttributes(attribute.String("event_id", eventID))

	result := s.client.EvalWithFallback(ctx, scriptReleaseLock, releaseLockScript, []string{lockKey(eventID)}, token)
	if result.Err() != nil {
		span.RecordError(result.Err())
		span.SetStatus(codes.Error, result.Err().Error())
		return false, fmt.Errorf("failed to release event lock: %w", result.Err())
	}

	released, err := result.Int64()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return false, fmt.Errorf("failed to parse release result: %w", err)
	}

	span.SetAttributes(attribute.Bool("released", released == 1))
	span.SetStatus(codes.Ok, "")
	return released == 1, nil
}
