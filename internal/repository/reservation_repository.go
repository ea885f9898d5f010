package repository

import (
	"context"
	"time"

	"github.com/seathold/api/internal/domain"
)

// ReservationRepository defines the interface for reservation data access
type ReservationRepository interface {
	// Create persists a new reservation in HOLD status
	Create(ctx context.Context, reservation *domain.Reservation) error

	// GetByID retrieves a reservation by its ID
	GetByID(ctx context.Context, id string) (*domain.Reservation, error)

	// GetByUserID retrieves reservations for a user, newest first. A
	// non-empty status narrows the result; EXPIRED matches HOLD rows
	// whose deadline passed before now, and HOLD excludes lapsed holds.
	GetByUserID(ctx context.Context, userID string, status domain.ReservationStatus, now time.Time, limit, offset int) ([]*domain.Reservation, error)

	// Confirm transitions HOLD to CONFIRMED. The update is guarded so a
	// lapsed hold can never be confirmed.
	Confirm(ctx context.Context, id string, now time.Time) error

	// Cancel transitions HOLD to CANCELED under the same deadline guard
	Cancel(ctx context.Context, id string, now time.Time) error

	// GetExpiredHolds returns holds whose deadline passed before the
	// given time, oldest first
	GetExpiredHolds(ctx context.Context, before time.Time, limit int) ([]*domain.Reservation, error)

	// CancelExpired transitions a lapsed HOLD to CANCELED. It reports
	// whether this call claimed the transition, so the caller returns
	// the seats exactly once even when the reclaim sweep and an inline
	// confirm/cancel race for the same hold.
	CancelExpired(ctx context.Context, id string, now time.Time) (bool, error)
}
