package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/seathold/api/internal/domain"
	"github.com/seathold/api/pkg/response"
)

// handleError converts domain errors to HTTP responses
func handleError(c *gin.Context, err error) {
	switch {
	case domain.IsValidationError(err):
		response.BadRequest(c, err.Error())
	case errors.Is(err, domain.ErrReservationNotFound),
		errors.Is(err, domain.ErrEventNotFound),
		errors.Is(err, domain.ErrUserNotFound):
		response.NotFound(c, err.Error())
	case errors.Is(err, domain.ErrRateLimited):
		response.TooManyRequests(c, err.Error())
	case errors.Is(err, domain.ErrEventBusy):
		// The per-event lock is held; an immediate retry usually succeeds
		response.RetryableError(c, http.StatusConflict, "EVENT_BUSY", err.Error())
	case errors.Is(err, domain.ErrInsufficientSeats):
		response.Conflict(c, "INSUFFICIENT_SEATS", err.Error())
	case errors.Is(err, domain.ErrHoldExpired):
		response.Conflict(c, "HOLD_EXPIRED", err.Error())
	case errors.Is(err, domain.ErrAlreadyConfirmed):
		response.Conflict(c, "ALREADY_CONFIRMED", err.Error())
	case errors.Is(err, domain.ErrAlreadyCanceled):
		response.Conflict(c, "ALREADY_CANCELED", err.Error())
	case errors.Is(err, domain.ErrEventNotDraft):
		response.Conflict(c, "EVENT_NOT_DRAFT", err.Error())
	case errors.Is(err, domain.ErrEmailTaken):
		response.Conflict(c, "EMAIL_TAKEN", err.Error())
	case errors.Is(err, domain.ErrInvalidCredentials):
		response.Unauthorized(c, err.Error())
	default:
		response.InternalError(c, err)
	}
}
