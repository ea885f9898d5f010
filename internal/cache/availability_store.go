package cache

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
	pkgredis "github.com/seathold/api/pkg/redis"
	"github.com/seathold/api/pkg/telemetry"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// ErrCounterMissing is returned when an availability counter was never
// seeded or has been evicted
var ErrCounterMissing = errors.New("availability counter missing")

// AvailabilityStore keeps the live seat counter per event. All writes
// are single atomic Redis commands; a decrement below zero is detected
// from the returned value and immediately compensated by the caller.
type AvailabilityStore struct {
	client *pkgredis.Client
}

// NewAvailabilityStore creates a new AvailabilityStore
func NewAvailabilityStore(client *pkgredis.Client) *AvailabilityStore {
	return &AvailabilityStore{client: client}
}

func availabilityKey(eventID string) string {
	return fmt.Sprintf("event:%s:available", eventID)
}

// Seed initializes the counter to the given value if it does not exist.
// It reports whether this call created the counter. SetNX rather than
// SET: publish is guarded to run once per event, and an existing
// counter may already carry decrements from live holds that a blind
// overwrite would erase.
func (s *AvailabilityStore) Seed(ctx context.Context, eventID string, seats int64) (bool, error) {
	ctx, span := telemetry.StartSpan(ctx, "cache.availability.seed")
	defer span.End()

	span.SetAttributes(
		attribute.String("event_id", eventID),
		attribute.Int64("seats", seats),
	)

	created, err := s.client.SetNX(ctx, availabilityKey(eventID), seats, 0).Result()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return false, fmt.Errorf("failed to seed availability counter: %w", err)
	}

	span.SetAttributes(attribute.Bool("created", created))
	span.SetStatus(codes.Ok, "")
	return created, nil
}

// Get returns the current available seat count
func (s *AvailabilityStore) Get(ctx context.Context, eventID string) (int64, error) {
	ctx, span := telemetry.StartSpan(ctx, "cache.availability.get")
	defer span.End()

	span.SetAttributes(attribute.String("event_id", eventID))

	value, err := s.client.Get(ctx, availabilityKey(eventID)).Int64()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			span.SetStatus(codes.Error, "counter missing")
			return 0, ErrCounterMissing
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return 0, fmt.Errorf("failed to get availability counter: %w", err)
	}

	span.SetAttributes(attribute.Int64("available", value))
	span.SetStatus(codes.Ok, "")
	return value, nil
}

// DecrBy atomically subtracts quantity and returns the new value. A
// negative result means the decrement overshot and must be compensated
// with IncrBy.
func (s *AvailabilityStore) DecrBy(ctx context.Context, eventID string, quantity int64) (int64, error) {
	ctx, span := telemetry.StartSpan(ctx, "cache.availability.decr")
	defer span.End()

	span.SetAttributes(
		attribute.String("event_id", eventID),
		attribute.Int64("quantity", quantity),
	)

	remaining, err := s.client.DecrBy(ctx, availabilityKey(eventID), quantity).Result()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return 0, fmt.Errorf("failed to decrement availability counter: %w", err)
	}

	span.SetAttributes(attribute.Int64("remaining", remaining))
	span.SetStatus(codes.Ok, "")
	return remaining, nil
}

// IncrBy atomically returns quantity seats to the counter
func (s *AvailabilityStore) IncrBy(ctx context.Context, eventID string, quantity int64) (int64, error) {
	ctx, span := telemetry.StartSpan(ctx, "cache.availability.incr")
	defer span.End()

	span.SetAttributes(
		attribute.String("event_id", eventID),
		attribute.Int64("quantity", quantity),
	)

	remaining, err := s.client.IncrBy(ctx, availabilityKey(eventID), quantity).Result()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return 0, fmt.Errorf("failed to increment availability counter: %w", err)
	}

	span.SetAttributes(attribute.Int64("remaining", remaining))
	span.SetStatus(codes.Ok, "")
	return remaining, nil
}

// Delete removes the counter, used when an event is canceled
func (s *AvailabilityStore) Delete(ctx context.Context, eventID string) error {
	ctx, span := telemetry.StartSpan(ctx, "cache.availability.delete")
	defer span.End()

	span.SetAttributes(attribute.String("event_id", eventID))

	if err := s.client.Del(ctx, availabilityKey(eventID)).Err(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("failed to delete availability counter: %w", err)
	}

	span.SetStatus(codes.Ok, "")
	return nil
}
