package dto

import (
	"time"

	"github.com/seathold/api/internal/domain"
)

// CreateEventRequest represents a request to create a draft event
type CreateEventRequest struct {
	Name        string    `json:"name" binding:"required"`
	Description string    `json:"description"`
	Venue       string    `json:"venue"`
	City        string    `json:"city"`
	StartTime   time.Time `json:"start_time"`
	EndTime     time.Time `json:"end_time"`
	Capacity    int       `json:"capacity" binding:"required,min=1"`
}

// UpdateEventRequest represents a partial update to a draft event
type UpdateEventRequest struct {
	Name        *string    `json:"name,omitempty"`
	Description *string    `json:"description,omitempty"`
	Venue       *string    `json:"venue,omitempty"`
	City        *string    `json:"city,omitempty"`
	StartTime   *time.Time `json:"start_time,omitempty"`
	EndTime     *time.Time `json:"end_time,omitempty"`
	Capacity    *int       `json:"capacity,omitempty"`
}

// ListEventsQuery holds the public listing filters
type ListEventsQuery struct {
	Status   string     `form:"status"`
	City     string     `form:"city"`
	From     *time.Time `form:"from" time_format:"2006-01-02T15:04:05Z07:00"`
	To       *time.Time `form:"to" time_format:"2006-01-02T15:04:05Z07:00"`
	Page     int        `form:"page"`
	PageSize int        `form:"page_size"`
}

// EventResponse represents an event in API responses
type EventResponse struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Venue       string    `json:"venue"`
	City        string    `json:"city"`
	StartTime   time.Time `json:"start_time"`
	EndTime     time.Time `json:"end_time"`
	Capacity    int       `json:"capacity"`
	Status      string    `json:"status"`
	CreatedBy   string    `json:"created_by,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// EventAvailabilityResponse reports live seat availability.
// Degraded is true when the counter could not be read and the value
// falls back to the stored capacity.
type EventAvailabilityResponse struct {
	EventID        string `json:"event_id"`
	AvailableSeats int64  `json:"available_seats"`
	Degraded       bool   `json:"degraded,omitempty"`
}

// EventFromDomain converts a domain Event to a response
func EventFromDomain(e *domain.Event) *EventResponse {
	return &EventResponse{
		ID:          e.ID,
		Name:        e.Name,
		Description: e.Description,
		Venue:       e.Venue,
		City:        e.City,
		StartTime:   e.StartTime,
		EndTime:     e.EndTime,
		Capacity:    e.Capacity,
		Status:      string(e.Status),
		CreatedBy:   e.CreatedBy,
		CreatedAt:   e.CreatedAt,
	}
}
