package repository

import (
	"context"
	"time"

	"github.com/seathold/api/internal/domain"
)

// EventListFilter narrows the event listing. Zero values mean
// "no filter"; From and To bound the event start time.
type EventListFilter struct {
	Status domain.EventStatus
	City   string
	From   *time.Time
	To     *time.Time
	Limit  int
	Offset int
}

// EventRepository defines the interface for event data access
type EventRepository interface {
	// Create persists a new event
	Create(ctx context.Context, event *domain.Event) error

	// GetByID retrieves an event by its ID
	GetByID(ctx context.Context, id string) (*domain.Event, error)

	// List retrieves events matching the filter, newest first
	List(ctx context.Context, filter *EventListFilter) ([]*domain.Event, error)

	// Update updates a draft event's mutable fields
	Update(ctx context.Context, event *domain.Event) error

	// Publish transitions DRAFT to PUBLISHED. Fails with ErrEventNotDraft
	// when the event already left DRAFT.
	Publish(ctx context.Context, id string) error

	// CancelEvent transitions an event to CANCELED
	CancelEvent(ctx context.Context, id string) error

	// Delete removes a DRAFT event. Fails with ErrEventNotDraft once the
	// event has been published.
	Delete(ctx context.Context, id string) error
}

// UserRepository defines the interface for user data access
type UserRepository interface {
	// Create persists a new user
	Create(ctx context.Context, user *domain.User) error

	// GetByID retrieves a user by ID
	GetByID(ctx context.Context, id string) (*domain.User, error)

	// GetByEmail retrieves a user by email
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
}
