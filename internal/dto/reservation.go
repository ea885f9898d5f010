package dto

import (
	"time"

	"github.com/seathold/api/internal/domain"
)

// CreateHoldRequest represents a request to hold seats for an event
type CreateHoldRequest struct {
	EventID  string `json:"event_id" binding:"required"`
	Quantity int    `json:"quantity" binding:"required,min=1,max=10"`
}

// HoldResponse represents a newly created hold
type HoldResponse struct {
	ReservationID string    `json:"reservation_id"`
	EventID       string    `json:"event_id"`
	Quantity      int       `json:"quantity"`
	Status        string    `json:"status"`
	ExpiresAt     time.Time `json:"expires_at"`
}

// ConfirmReservationResponse represents a confirmed reservation
type ConfirmReservationResponse struct {
	ReservationID string    `json:"reservation_id"`
	Status        string    `json:"status"`
	ConfirmedAt   time.Time `json:"confirmed_at"`
}

// CancelReservationResponse represents a canceled reservation
type CancelReservationResponse struct {
	ReservationID string `json:"reservation_id"`
	Status        string `json:"status"`
}

// ReservationResponse represents a reservation in API responses.
// Status carries the effective status, so a lapsed hold reads EXPIRED.
type ReservationResponse struct {
	ID        string    `json:"id"`
	EventID   string    `json:"event_id"`
	UserID    string    `json:"user_id"`
	Quantity  int       `json:"quantity"`
	Status    string    `json:"status"`
	ExpiresAt time.Time `json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
}

// ReservationFromDomain converts a domain Reservation to a response,
// deriving the effective status at the given time
func ReservationFromDomain(r *domain.Reservation, now time.Time) *ReservationResponse {
	return &ReservationResponse{
		ID:        r.ID,
		EventID:   r.EventID,
		UserID:    r.UserID,
		Quantity:  r.Quantity,
		Status:    string(r.EffectiveStatus(now)),
		ExpiresAt: r.ExpiresAt,
		CreatedAt: r.CreatedAt,
	}
}
