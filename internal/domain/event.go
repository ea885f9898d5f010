package domain

import (
	"time"
)

// EventStatus represents the lifecycle state of an event
type EventStatus string

const (
	EventStatusDraft     EventStatus = "DRAFT"
	EventStatusPublished EventStatus = "PUBLISHED"
	EventStatusCanceled  EventStatus = "CANCELED"
)

// Event represents a bookable event. Capacity is the total number of
// seats; the live availability counter is kept in Redis and seeded from
// Capacity when the event is published.
type Event struct {
	ID          string      `json:"id"`
	Name        string      `json:"name"`
	Description string      `json:"description"`
	Venue       string      `json:"venue"`
	City        string      `json:"city"`
	StartTime   time.Time   `json:"start_time"`
	EndTime     time.Time   `json:"end_time"`
	Capacity    int         `json:"capacity"`
	Status      EventStatus `json:"status"`
	CreatedBy   string      `json:"created_by"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
}

// IsPublished reports whether the event accepts hold requests
func (e *Event) IsPublished() bool {
	return e.Status == EventStatusPublished
}

// Validate checks event invariants before persistence
func (e *Event) Validate() error {
	if e.Name == "" {
		return ErrInvalidEventName
	}
	if e.Capacity <= 0 {
		return ErrInvalidCapacity
	}
	if !e.EndTime.IsZero() && !e.EndTime.After(e.StartTime) {
		return ErrInvalidEventTime
	}
	return nil
}
