package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/seathold/api/internal/domain"
	"github.com/seathold/api/pkg/telemetry"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// PostgresReservationRepository implements ReservationRepository using PostgreSQL with pgxpool
type PostgresReservationRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresReservationRepository creates a new PostgresReservationRepository
func NewPostgresReservationRepository(pool *pgxpool.Pool) *PostgresReservationRepository {
	return &PostgresReservationRepository{pool: pool}
}

// Create persists a new reservation in HOLD status
func (r *PostgresReservationRepository) Create(ctx context.Context, reservation *domain.Reservation) error {
	ctx, span := telemetry.StartSpan(ctx, "repo.postgres.reservation.create")
	defer span.End()

	span.SetAttributes(
		attribute.String("reservation_id", reservation.ID),
		attribute.String("event_id", reservation.EventID),
		attribute.String("user_id", reservation.UserID),
		attribute.Int("quantity", reservation.Quantity),
	)

	query := `
		INSERT INTO reservations (
			id, event_id, user_id, quantity, status,
			expires_at, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := r.pool.Exec(ctx, query,
		reservation.ID,
		reservation.EventID,
		reservation.UserID,
		reservation.Quantity,
		string(reservation.Status),
		reservation.ExpiresAt,
		reservation.CreatedAt,
		reservation.UpdatedAt,
	)

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("failed to create reservation: %w", err)
	}

	span.SetStatus(codes.Ok, "")
	return nil
}

// GetByID retrieves a reservation by its ID
func (r *PostgresReservationRepository) GetByID(ctx context.Context, id string) (*domain.Reservation, error) {
	ctx, span := telemetry.StartSpan(ctx, "repo.postgres.reservation.get_by_id")
	defer span.End()

	span.SetAttributes(attribute.String("reservation_id", id))

	query := `
		SELECT id, event_id, user_id, quantity, status,
			expires_at, created_at, updated_at
		FROM reservations
		WHERE id = $1
	`

	reservation := &domain.Reservation{}
	var status string

	err := r.pool.QueryRow(ctx, query, id).Scan(
		&reservation.ID,
		&reservation.EventID,
		&reservation.UserID,
		&reservation.Quantity,
		&status,
		&reservation.ExpiresAt,
		&reservation.CreatedAt,
		&reservation.UpdatedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			span.SetStatus(codes.Error, "not found")
			return nil, domain.ErrReservationNotFound
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("failed to get reservation: %w", err)
	}

	reservation.Status = domain.ReservationStatus(status)
	span.SetStatus(codes.Ok, "")
	return reservation, nil
}

// GetByUserID retrieves reservations for a user, newest first. The
// status filter derives EXPIRED from lapsed HOLD rows, since EXPIRED
// is never stored.
func (r *PostgresReservationRepository) GetByUserID(ctx context.Context, userID string, status domain.ReservationStatus, now time.Time, limit, offset int) ([]*domain.Reservation, error) {
	ctx, span := telemetry.StartSpan(ctx, "repo.postgres.reservation.get_by_user_id")
	defer span.End()

	span.SetAttributes(
		attribute.String("user_id", userID),
		attribute.String("status", string(status)),
		attribute.Int("limit", limit),
		attribute.Int("offset", offset),
	)

	query := `
		SELECT id, event_id, user_id, quantity, status,
			expires_at, created_at, updated_at
		FROM reservations
		WHERE user_id = $1
			AND ($2 = ''
				OR ($2 = 'HOLD' AND status = 'HOLD' AND expires_at > $3)
				OR ($2 = 'EXPIRED' AND status = 'HOLD' AND expires_at <= $3)
				OR ($2 NOT IN ('HOLD', 'EXPIRED') AND status = $2))
		ORDER BY created_at DESC
		LIMIT $4 OFFSET $5
	`

	rows, err := r.pool.Query(ctx, query, userID, string(status), now, limit, offset)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("failed to get reservations by user: %w", err)
	}
	defer rows.Close()

	reservations, err := scanReservations(rows)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	span.SetAttributes(attribute.Int("count", len(reservations)))
	span.SetStatus(codes.Ok, "")
	return reservations, nil
}

// Confirm transitions HOLD to CONFIRMED under the deadline guard
func (r *PostgresReservationRepository) Confirm(ctx context.Context, id string, now time.Time) error {
	ctx, span := telemetry.StartSpan(ctx, "repo.postgres.reservation.confirm")
	defer span.End()

	span.SetAttributes(attribute.String("reservation_id", id))

	query := `
		UPDATE reservations SET
			status = $2,
			updated_at = $3
		WHERE id = $1 AND status = 'HOLD' AND expires_at > $3
	`

	result, err := r.pool.Exec(ctx, query, id, string(domain.ReservationStatusConfirmed), now)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("failed to confirm reservation: %w", err)
	}

	if result.RowsAffected() == 0 {
		err := r.diagnoseTransitionFailure(ctx, id, now)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	span.SetStatus(codes.Ok, "")
	return nil
}

// Cancel transitions HOLD to CANCELED under the deadline guard
func (r *PostgresReservationRepository) Cancel(ctx context.Context, id string, now time.Time) error {
	ctx, span := telemetry.StartSpan(ctx, "repo.postgres.reservation.cancel")
	defer span.End()

	span.SetAttributes(attribute.String("reservation_id", id))

	query := `
		UPDATE reservations SET
			status = $2,
			updated_at = $3
		WHERE id = $1 AND status = 'HOLD' AND expires_at > $3
	`

	result, err := r.pool.Exec(ctx, query, id, string(domain.ReservationStatusCanceled), now)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("failed to cancel reservation: %w", err)
	}

	if result.RowsAffected() == 0 {
		err := r.diagnoseTransitionFailure(ctx, id, now)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	span.SetStatus(codes.Ok, "")
	return nil
}

// diagnoseTransitionFailure explains why a guarded status update matched
// no rows
func (r *PostgresReservationRepository) diagnoseTransitionFailure(ctx context.Context, id string, now time.Time) error {
	var status string
	var expiresAt time.Time

	err := r.pool.QueryRow(ctx, "SELECT status, expires_at FROM reservations WHERE id = $1", id).Scan(&status, &expiresAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.ErrReservationNotFound
		}
		return fmt.Errorf("failed to check reservation status: %w", err)
	}

	switch domain.ReservationStatus(status) {
	case domain.ReservationStatusConfirmed:
		return domain.ErrAlreadyConfirmed
	case domain.ReservationStatusCanceled:
		return domain.ErrAlreadyCanceled
	case domain.ReservationStatusHold:
		if !now.Before(expiresAt) {
			return domain.ErrHoldExpired
		}
	}
	return fmt.Errorf("reservation %s in unexpected state %s", id, status)
}

// GetExpiredHolds returns holds whose deadline passed before the given time
func (r *PostgresReservationRepository) GetExpiredHolds(ctx context.Context, before time.Time, limit int) ([]*domain.Reservation, error) {
	ctx, span := telemetry.StartSpan(ctx, "repo.postgres.reservation.get_expired_holds")
	defer span.End()

	span.SetAttributes(attribute.Int("limit", limit))

	query := `
		SELECT id, event_id, user_id, quantity, status,
			expires_at, created_at, updated_at
		FROM reservations
		WHERE status = 'HOLD' AND expires_at < $1
		ORDER BY expires_at ASC
		LIMIT $2
	`

	rows, err := r.pool.Query(ctx, query, before, limit)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("failed to get expired holds: %w", err)
	}
	defer rows.Close()

	reservations, err := scanReservations(rows)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	span.SetAttributes(attribute.Int("count", len(reservations)))
	span.SetStatus(codes.Ok, "")
	return reservations, nil
}

// CancelExpired transitions a lapsed HOLD to CANCELED, reporting whether
// this call claimed the transition
func (r *PostgresReservationRepository) CancelExpired(ctx context.Context, id string, now time.Time) (bool, error) {
	ctx, span := telemetry.StartSpan(ctx, "repo.postgres.reservation.cancel_expired")
	defer span.End()

	span.SetAttributes(attribute.String("reservation_id", id))

	query := `
		UPDATE reservations SET
			status = $2,
			updated_at = $3
		WHERE id = $1 AND status = 'HOLD' AND expires_at <= $3
	`

	result, err := r.pool.Exec(ctx, query, id, string(domain.ReservationStatusCanceled), now)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return false, fmt.Errorf("failed to cancel expired reservation: %w", err)
	}

	span.SetStatus(codes.Ok, "")
	return result.RowsAffected() > 0, nil
}

// scanReservations scans rows into Reservation structs
func scanReservations(rows pgx.Rows) ([]*domain.Reservation, error) {
	var reservations []*domain.Reservation
	for rows.Next() {
		reservation := &domain.Reservation{}
		var status string

		err := rows.Scan(
			&reservation.ID,
			&reservation.EventID,
			&reservation.UserID,
			&reservation.Quantity,
			&status,
			&reservation.ExpiresAt,
			&reservation.CreatedAt,
			&reservation.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan reservation: %w", err)
		}

		reservation.Status = domain.ReservationStatus(status)
		reservations = append(reservations, reservation)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating reservations: %w", err)
	}
	return reservations, nil
}

// Ensure PostgresReservationRepository implements ReservationRepository
var _ ReservationRepository = (*PostgresReservationRepository)(nil)
