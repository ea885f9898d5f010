package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/seathold/api/internal/dto"
	"github.com/seathold/api/internal/service"
	"github.com/seathold/api/pkg/response"
	"github.com/seathold/api/pkg/telemetry"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// ReservationHandler handles reservation HTTP requests
type ReservationHandler struct {
	reservations service.ReservationService
}

// NewReservationHandler creates a new reservation handler
func NewReservationHandler(reservations service.ReservationService) *ReservationHandler {
	return &ReservationHandler{reservations: reservations}
}

// CreateHold handles POST /reservations/hold
func (h *ReservationHandler) CreateHold(c *gin.Context) {
	ctx, span := telemetry.StartSpan(c.Request.Context(), "handler.reservation.create_hold")
	defer span.End()
	c.Request = c.Request.WithContext(ctx)

	userID := c.GetString("user_id")
	if userID == "" {
		span.SetStatus(codes.Error, "unauthorized")
		response.Unauthorized(c, "authentication required")
		return
	}

	var req dto.CreateHoldRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "invalid request")
		response.BadRequest(c, err.Error())
		return
	}

	span.SetAttributes(
		attribute.String("user_id", userID),
		attribute.String("event_id", req.EventID),
		attribute.Int("quantity", req.Quantity),
	)

	result, err := h.reservations.CreateHold(ctx, userID, &req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		handleError(c, err)
		return
	}

	span.SetAttributes(attribute.String("reservation_id", result.ReservationID))
	span.SetStatus(codes.Ok, "")
	response.Created(c, result)
}

// ConfirmReservation handles POST /reservations/:id/confirm
func (h *ReservationHandler) ConfirmReservation(c *gin.Context) {
	ctx, span := telemetry.StartSpan(c.Request.Context(), "handler.reservation.confirm")
	defer span.End()
	c.Request = c.Request.WithContext(ctx)

	userID := c.GetString("user_id")
	if userID == "" {
		span.SetStatus(codes.Error, "unauthorized")
		response.Unauthorized(c, "authentication required")
		return
	}

	reservationID := c.Param("id")
	if reservationID == "" {
		span.SetStatus(codes.Error, "reservation id required")
		response.BadRequest(c, "reservation id required")
		return
	}

	span.SetAttributes(
		attribute.String("reservation_id", reservationID),
		attribute.String("user_id", userID),
	)

	result, err := h.reservations.ConfirmReservation(ctx, reservationID, userID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		handleError(c, err)
		return
	}

	span.SetStatus(codes.Ok, "")
	response.Success(c, result)
}

// CancelReservation handles POST /reservations/:id/cancel
func (h *ReservationHandler) CancelReservation(c *gin.Context) {
	ctx, span := telemetry.StartSpan(c.Request.Context(), "handler.reservation.cancel")
	defer span.End()
	c.Request = c.Request.WithContext(ctx)

	userID := c.GetString("user_id")
	if userID == "" {
		span.SetStatus(codes.Error, "unauthorized")
		response.Unauthorized(c, "authentication required")
		return
	}

	reservationID := c.Param("id")
	if reservationID == "" {
		span.SetStatus(codes.Error, "reservation id required")
		response.BadRequest(c, "reservation id required")
		return
	}

	span.SetAttributes(
		attribute.String("reservation_id", reservationID),
		attribute.String("user_id", userID),
	)

	result, err := h.reservations.CancelReservation(ctx, reservationID, userID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		handleError(c, err)
		return
	}

	span.SetStatus(codes.Ok, "")
	response.Success(c, result)
}

// GetReservation handles GET /reservations/:id
func (h *ReservationHandler) GetReservation(c *gin.Context) {
	ctx, span := telemetry.StartSpan(c.Request.Context(), "handler.reservation.get")
	defer span.End()
	c.Request = c.Request.WithContext(ctx)

	userID := c.GetString("user_id")
	if userID == "" {
		span.SetStatus(codes.Error, "unauthorized")
		response.Unauthorized(c, "authentication required")
		return
	}

	reservationID := c.Param("id")
	if reservationID == "" {
		span.SetStatus(codes.Error, "reservation id required")
		response.BadRequest(c, "reservation id required")
		return
	}

	span.SetAttributes(
		attribute.String("reservation_id", reservationID),
		attribute.String("user_id", userID),
	)

	result, err := h.reservations.GetReservation(ctx, reservationID, userID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		handleError(c, err)
		return
	}

	span.SetStatus(codes.Ok, "")
	response.Success(c, result)
}

// GetUserReservations handles GET /reservations
func (h *ReservationHandler) GetUserReservations(c *gin.Context) {
	ctx, span := telemetry.StartSpan(c.Request.Context(), "handler.reservation.list")
	defer span.End()
	c.Request = c.Request.WithContext(ctx)

	userID := c.GetString("user_id")
	if userID == "" {
		span.SetStatus(codes.Error, "unauthorized")
		response.Unauthorized(c, "authentication required")
		return
	}

	status := c.Query("status")
	page, pageSize := parsePagination(c)

	span.SetAttributes(
		attribute.String("user_id", userID),
		attribute.String("status", status),
		attribute.Int("page", page),
		attribute.Int("page_size", pageSize),
	)

	result, err := h.reservations.GetUserReservations(ctx, userID, status, page, pageSize)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		handleError(c, err)
		return
	}

	span.SetStatus(codes.Ok, "")
	response.SuccessWithMeta(c, result, response.PaginationMeta{
		Page:     page,
		PageSize: pageSize,
	})
}

// parsePagination reads page and page_size query parameters with defaults
func parsePagination(c *gin.Context) (int, int) {
	page := 1
	pageSize := 20
	if p := c.Query("page"); p != "" {
		if n, err := strconv.Atoi(p); err == nil && n > 0 {
			page = n
		}
	}
	if ps := c.Query("page_size"); ps != "" {
		if n, err := strconv.Atoi(ps); err == nil && n > 0 && n <= 100 {
			pageSize = n
		}
	}
	return page, pageSize
}
