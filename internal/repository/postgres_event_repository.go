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

// PostgresEventRepository implements EventRepository using PostgreSQL with pgxpool
type PostgresEventRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresEventRepository creates a new PostgresEventRepository
func NewPostgresEventRepository(pool *pgxpool.Pool) *PostgresEventRepository {
	return &PostgresEventRepository{pool: pool}
}

const eventColumns = `id, name, description, venue, city, start_time, end_time,
	capacity, status, created_by, created_at, updated_at`

func scanEvent(row pgx.Row) (*domain.Event, error) {
	event := &domain.Event{}
	var status string

	err := row.Scan(
		&event.ID,
		&event.Name,
		&event.Description,
		&event.Venue,
		&event.City,
		&event.StartTime,
		&event.EndTime,
		&event.Capacity,
		&status,
		&event.CreatedBy,
		&event.CreatedAt,
		&event.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	event.Status = domain.EventStatus(status)
	return event, nil
}

// Create persists a new event
func (r *PostgresEventRepository) Create(ctx context.Context, event *domain.Event) error {
	ctx, span := telemetry.StartSpan(ctx, "repo.postgres.event.create")
	defer span.End()

	span.SetAttributes(attribute.String("event_id", event.ID))

	query := `
		INSERT INTO events (
			id, name, description, venue, city, start_time, end_time,
			capacity, status, created_by, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`

	_, err := r.pool.Exec(ctx, query,
		event.ID,
		event.Name,
		event.Description,
		event.Venue,
		event.City,
		event.StartTime,
		event.EndTime,
		event.Capacity,
		string(event.Status),
		event.CreatedBy,
		event.CreatedAt,
		event.UpdatedAt,
	)

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("failed to create event: %w", err)
	}

	span.SetStatus(codes.Ok, "")
	return nil
}

// GetByID retrieves an event by its ID
func (r *PostgresEventRepository) GetByID(ctx context.Context, id string) (*domain.Event, error) {
	ctx, span := telemetry.StartSpan(ctx, "repo.postgres.event.get_by_id")
	defer span.End()

	span.SetAttributes(attribute.String("event_id", id))

	query := `SELECT ` + eventColumns + ` FROM events WHERE id = $1`

	event, err := scanEvent(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			span.SetStatus(codes.Error, "not found")
			return nil, domain.ErrEventNotFound
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("failed to get event: %w", err)
	}

	span.SetStatus(codes.Ok, "")
	return event, nil
}

// List retrieves events matching the filter, newest first
func (r *PostgresEventRepository) List(ctx context.Context, filter *EventListFilter) ([]*domain.Event, error) {
	ctx, span := telemetry.StartSpan(ctx, "repo.postgres.event.list")
	defer span.End()

	span.SetAttributes(
		attribute.String("status", string(filter.Status)),
		attribute.String("city", filter.City),
		attribute.Int("limit", filter.Limit),
		attribute.Int("offset", filter.Offset),
	)

	query := `
		SELECT ` + eventColumns + `
		FROM events
		WHERE ($1 = '' OR status = $1)
			AND ($2 = '' OR city = $2)
			AND ($3::timestamptz IS NULL OR start_time >= $3)
			AND ($4::timestamptz IS NULL OR start_time <= $4)
		ORDER BY created_at DESC
		LIMIT $5 OFFSET $6
	`

	rows, err := r.pool.Query(ctx, query,
		string(filter.Status), filter.City, filter.From, filter.To,
		filter.Limit, filter.Offset)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("failed to list events: %w", err)
	}
	defer rows.Close()

	var events []*domain.Event
	for rows.Next() {
		event, err := scanEvent(rows)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}
		events = append(events, event)
	}

	if err := rows.Err(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("error iterating events: %w", err)
	}

	span.SetAttributes(attribute.Int("count", len(events)))
	span.SetStatus(codes.Ok, "")
	return events, nil
}

// Update updates a draft event's mutable fields
func (r *PostgresEventRepository) Update(ctx context.Context, event *domain.Event) error {
	ctx, span := telemetry.StartSpan(ctx, "repo.postgres.event.update")
	defer span.End()

	span.SetAttributes(attribute.String("event_id", event.ID))

	query := `
		UPDATE events SET
			name = $2,
			description = $3,
			venue = $4,
			city = $5,
			start_time = $6,
			end_time = $7,
			capacity = $8,
			updated_at = $9
		WHERE id = $1 AND status = 'DRAFT'
	`

	result, err := r.pool.Exec(ctx, query,
		event.ID,
		event.Name,
		event.Description,
		event.Venue,
		event.City,
		event.StartTime,
		event.EndTime,
		event.Capacity,
		time.Now(),
	)

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("failed to update event: %w", err)
	}

	if result.RowsAffected() == 0 {
		err := r.diagnoseDraftGuardFailure(ctx, event.ID)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	span.SetStatus(codes.Ok, "")
	return nil
}

// Publish transitions DRAFT to PUBLISHED
func (r *PostgresEventRepository) Publish(ctx context.Context, id string) error {
	ctx, span := telemetry.StartSpan(ctx, "repo.postgres.event.publish")
	defer span.End()

	span.SetAttributes(attribute.String("event_id", id))

	query := `
		UPDATE events SET
			status = $2,
			updated_at = $3
		WHERE id = $1 AND status = 'DRAFT'
	`

	result, err := r.pool.Exec(ctx, query, id, string(domain.EventStatusPublished), time.Now())
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("failed to publish event: %w", err)
	}

	if result.RowsAffected() == 0 {
		err := r.diagnoseDraftGuardFailure(ctx, id)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	span.SetStatus(codes.Ok, "")
	return nil
}

// CancelEvent transitions an event to CANCELED
func (r *PostgresEventRepository) CancelEvent(ctx context.Context, id string) error {
	ctx, span := telemetry.StartSpan(ctx, "repo.postgres.event.cancel")
	defer span.End()

	span.SetAttributes(attribute.String("event_id", id))

	query := `
		UPDATE events SET
			status = $2,
			updated_at = $3
		WHERE id = $1 AND status != 'CANCELED'
	`

	result, err := r.pool.Exec(ctx, query, id, string(domain.EventStatusCanceled), time.Now())
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("failed to cancel event: %w", err)
	}

	if result.RowsAffected() == 0 {
		var exists bool
		if err := r.pool.QueryRow(ctx, "SELECT EXISTS(SELECT 1 FROM events WHERE id = $1)", id).Scan(&exists); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return fmt.Errorf("failed to check event existence: %w", err)
		}
		if !exists {
			span.SetStatus(codes.Error, "not found")
			return domain.ErrEventNotFound
		}
		// Already canceled, treat as success
	}

	span.SetStatus(codes.Ok, "")
	return nil
}

// Delete removes a DRAFT event
func (r *PostgresEventRepository) Delete(ctx context.Context, id string) error {
	ctx, span := telemetry.StartSpan(ctx, "repo.postgres.event.delete")
	defer span.End()

	span.SetAttributes(attribute.String("event_id", id))

	query := `DELETE FROM events WHERE id = $1 AND status = 'DRAFT'`

	result, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("failed to delete event: %w", err)
	}

	if result.RowsAffected() == 0 {
		err := r.diagnoseDraftGuardFailure(ctx, id)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	span.SetStatus(codes.Ok, "")
	return nil
}

// diagnoseDraftGuardFailure explains why a DRAFT-guarded update matched no rows
func (r *PostgresEventRepository) diagnoseDraftGuardFailure(ctx context.Context, id string) error {
	var status string
	err := r.pool.QueryRow(ctx, "SELECT status FROM events WHERE id = $1", id).Scan(&status)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.ErrEventNotFound
		}
		return fmt.Errorf("failed to check event status: %w", err)
	}
	return domain.ErrEventNotDraft
}

// Ensure PostgresEventRepository implements EventRepository
var _ EventRepository = (*PostgresEventRepository)(nil)
