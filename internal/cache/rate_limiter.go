package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/seathold/api/internal/domain"
	pkgredis "github.com/seathold/api/pkg/redis"
	"github.com/seathold/api/pkg/telemetry"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// RateLimiter caps hold attempts per user with a fixed one-minute
// window. The window key embeds the wall-clock minute, so counts reset
// at minute boundaries rather than sliding.
type RateLimiter struct {
	client *pkgredis.Client
	limit  int64
}

// NewRateLimiter creates a limiter allowing limit calls per minute per user
func NewRateLimiter(client *pkgredis.Client, limit int) *RateLimiter {
	return &RateLimiter{client: client, limit: int64(limit)}
}

func rateLimitKey(userID string, now time.Time) string {
	return fmt.Sprintf("rl:user:%s:%s", userID, now.UTC().Format("200601021504"))
}

// Allow consumes one attempt for the user at the given time. Returns
// ErrRateLimited when the window budget is exhausted.
func (rl *RateLimiter) Allow(ctx context.Context, userID string, now time.Time) error {
	ctx, span := telemetry.StartSpan(ctx, "cache.ratelimit.allow")
	defer span.End()

	span.SetAttributes(attribute.String("user_id", userID))

	key := rateLimitKey(userID, now)
	count, err := rl.client.Incr(ctx, key).Result()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("failed to increment rate limit counter: %w", err)
	}

	if count == 1 {
		// First hit in this window; bound the key so stale windows vanish
		if err := rl.client.Expire(ctx, key, 2*time.Minute).Err(); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return fmt.Errorf("failed to set rate limit expiry: %w", err)
		}
	}

	span.SetAttributes(attribute.Int64("count", count))

	if count > rl.limit {
		span.SetStatus(codes.Error, "rate limited")
		return domain.ErrRateLimited
	}

	span.SetStatus(codes.Ok, "")
	return nil
}
