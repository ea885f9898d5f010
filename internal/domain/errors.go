package domain

import "errors"

// Domain errors
var (
	// Reservation errors
	ErrReservationNotFound = errors.New("reservation not found")
	ErrHoldExpired         = errors.New("hold has expired")
	ErrAlreadyConfirmed    = errors.New("reservation already confirmed")
	ErrAlreadyCanceled     = errors.New("reservation already canceled")

	// Availability errors
	ErrInsufficientSeats = errors.New("insufficient seats available")
	ErrEventBusy         = errors.New("event is busy, please retry")
	ErrRateLimited       = errors.New("too many hold requests")

	// Event errors. Holds against an unpublished event report
	// ErrEventNotFound so drafts stay invisible to non-admin callers.
	ErrEventNotFound = errors.New("event not found")
	ErrEventNotDraft = errors.New("event has already been published")

	// User errors
	ErrUserNotFound       = errors.New("user not found")
	ErrEmailTaken         = errors.New("email is already registered")
	ErrInvalidCredentials = errors.New("invalid email or password")

	// Validation errors
	ErrInvalidUserID        = errors.New("invalid user id")
	ErrInvalidEventID       = errors.New("invalid event id")
	ErrInvalidReservationID = errors.New("invalid reservation id")
	ErrInvalidQuantity      = errors.New("quantity must be greater than zero")
	ErrInvalidCapacity      = errors.New("capacity must be greater than zero")
	ErrInvalidEventName     = errors.New("event name is required")
	ErrInvalidEventTime     = errors.New("event end time must be after start time")
	ErrInvalidStartTime     = errors.New("event start time must be in the future")
	ErrInvalidStatusFilter  = errors.New("invalid status filter")
	ErrInvalidTimeRange     = errors.New("from and to must be provided together, from before to")
)

// IsNotFoundError checks if the error is a not found error
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrReservationNotFound) ||
		errors.Is(err, ErrEventNotFound) ||
		errors.Is(err, ErrUserNotFound)
}

// IsValidationError checks if the error is a validation error
func IsValidationError(err error) bool {
	return errors.Is(err, ErrInvalidUserID) ||
		errors.Is(err, ErrInvalidEventID) ||
		errors.Is(err, ErrInvalidReservationID) ||
		errors.Is(err, ErrInvalidQuantity) ||
		errors.Is(err, ErrInvalidCapacity) ||
		errors.Is(err, ErrInvalidEventName) ||
		errors.Is(err, ErrInvalidEventTime) ||
		errors.Is(err, ErrInvalidStartTime) ||
		errors.Is(err, ErrInvalidStatusFilter) ||
		errors.Is(err, ErrInvalidTimeRange)
}

// IsConflictError checks if the error is a conflict error
func IsConflictError(err error) bool {
	return errors.Is(err, ErrAlreadyConfirmed) ||
		errors.Is(err, ErrAlreadyCanceled) ||
		errors.Is(err, ErrInsufficientSeats) ||
		errors.Is(err, ErrEventNotDraft) ||
		errors.Is(err, ErrEmailTaken) ||
		errors.Is(err, ErrHoldExpired)
}

// IsRetryableError checks if the caller may retry the same request
func IsRetryableError(err error) bool {
	return errors.Is(err, ErrEventBusy)
}
