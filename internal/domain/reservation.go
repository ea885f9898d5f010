package domain

import (
	"time"
)

// ReservationStatus represents the state of a reservation. EXPIRED is
// never stored: reads derive it from a HOLD whose deadline has passed,
// and a lapsed hold is persisted as CANCELED when it is claimed, which
// marks the seat compensation as done.
type ReservationStatus string

const (
	ReservationStatusHold      ReservationStatus = "HOLD"
	ReservationStatusConfirmed ReservationStatus = "CONFIRMED"
	ReservationStatusCanceled  ReservationStatus = "CANCELED"
	ReservationStatusExpired   ReservationStatus = "EXPIRED"
)

// Reservation represents a seat hold and its lifecycle
type Reservation struct {
	ID        string            `json:"id"`
	EventID   string            `json:"event_id"`
	UserID    string            `json:"user_id"`
	Quantity  int               `json:"quantity"`
	Status    ReservationStatus `json:"status"`
	ExpiresAt time.Time         `json:"expires_at"`
	CreatedAt time.Time         `json:"created_at"`
	UpdatedAt time.Time         `json:"updated_at"`
}

// IsExpired reports whether a HOLD has passed its deadline
func (r *Reservation) IsExpired(now time.Time) bool {
	return r.Status == ReservationStatusHold && !now.Before(r.ExpiresAt)
}

// EffectiveStatus returns the status as observed at the given time,
// mapping lapsed holds to EXPIRED
func (r *Reservation) EffectiveStatus(now time.Time) ReservationStatus {
	if r.IsExpired(now) {
		return ReservationStatusExpired
	}
	return r.Status
}

// IsTerminal reports whether the stored status can no longer change
func (r *Reservation) IsTerminal() bool {
	return r.Status == ReservationStatusConfirmed ||
		r.Status == ReservationStatusCanceled
}
