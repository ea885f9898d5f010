package cache

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	pkgredis "github.com/seathold/api/pkg/redis"
	"github.com/seathold/api/pkg/telemetry"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// ErrMarkerMissing is returned when no marker exists for a reservation
var ErrMarkerMissing = errors.New("hold marker missing")

// HoldMarkerStore tracks active holds in Redis so their liveness can be
// checked without a database read. The marker auto-expires with the
// hold, making it a cheap "is this hold still fresh" signal; the
// database row stays the source of truth.
type HoldMarkerStore struct {
	client *pkgredis.Client
}

// NewHoldMarkerStore creates a new HoldMarkerStore
func NewHoldMarkerStore(client *pkgredis.Client) *HoldMarkerStore {
	return &HoldMarkerStore{client: client}
}

func holdMarkerKey(reservationID string) string {
	return fmt.Sprintf("hold:%s", reservationID)
}

// Set writes the marker with the hold's remaining lifetime
func (s *HoldMarkerStore) Set(ctx context.Context, reservationID, eventID string, quantity int, ttl time.Duration) error {
	ctx, span := telemetry.StartSpan(ctx, "cache.hold_marker.set")
	defer span.End()

	span.SetAttributes(
		attribute.String("reservation_id", reservationID),
		attribute.String("event_id", eventID),
	)

	value := fmt.Sprintf("%s:%d", eventID, quantity)
	if err := s.client.Set(ctx, holdMarkerKey(reservationID), value, ttl).Err(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("failed to set hold marker: %w", err)
	}

	span.SetStatus(codes.Ok, "")
	return nil
}

// Get returns the event ID and quantity recorded for an active hold
func (s *HoldMarkerStore) Get(ctx context.Context, reservationID string) (string, int, error) {
	ctx, span := telemetry.StartSpan(ctx, "cache.hold_marker.get")
	defer span.End()

	span.SetAttributes(attribute.String("reservation_id", reservationID))

	value, err := s.client.Get(ctx, holdMarkerKey(reservationID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			span.SetStatus(codes.Error, "missing")
			return "", 0, ErrMarkerMissing
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return "", 0, fmt.Errorf("failed to get hold marker: %w", err)
	}

	eventID, quantity, err := parseHoldMarker(value)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return "", 0, err
	}

	span.SetStatus(codes.Ok, "")
	return eventID, quantity, nil
}

// Delete removes the marker once a hold reaches a terminal state
func (s *HoldMarkerStore) Delete(ctx context.Context, reservationID string) error {
	ctx, span := telemetry.StartSpan(ctx, "cache.hold_marker.delete")
	defer span.End()

	span.SetAttributes(attribute.String("reservation_id", reservationID))

	if err := s.client.Del(ctx, holdMarkerKey(reservationID)).Err(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("failed to delete hold marker: %w", err)
	}

	span.SetStatus(codes.Ok, "")
	return nil
}

// parseHoldMarker splits "eventID:quantity". Event IDs may themselves
// contain colons, so the quantity is taken from the last segment.
func parseHoldMarker(value string) (string, int, error) {
	idx := strings.LastIndex(value, ":")
	if idx <= 0 {
		return "", 0, fmt.Errorf("malformed hold marker: %q", value)
	}

	quantity, err := strconv.Atoi(value[idx+1:])
	if err != nil {
		return "", 0, fmt.Errorf("malformed hold marker quantity: %q", value)
	}
	return value[:idx], quantity, nil
}
