package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/seathold/api/internal/cache"
	"github.com/seathold/api/internal/domain"
	"github.com/seathold/api/internal/dto"
	"github.com/seathold/api/internal/metrics"
	"github.com/seathold/api/internal/repository"
	"github.com/seathold/api/pkg/logger"
	"github.com/seathold/api/pkg/telemetry"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// AvailabilityCounter is the live per-event seat counter. Seed is
// create-only so a repeated publish or a re-seed can never clobber a
// counter that live holds have already decremented.
type AvailabilityCounter interface {
	Seed(ctx context.Context, eventID string, seats int64) (bool, error)
	Get(ctx context.Context, eventID string) (int64, error)
	DecrBy(ctx context.Context, eventID string, quantity int64) (int64, error)
	IncrBy(ctx context.Context, eventID string, quantity int64) (int64, error)
	Delete(ctx context.Context, eventID string) error
}

// EventLocker serializes hold creation per event
type EventLocker interface {
	Acquire(ctx context.Context, eventID string) (string, error)
	Release(ctx context.Context, eventID, token string) (bool, error)
}

// HoldRateLimiter caps hold attempts per user
type HoldRateLimiter interface {
	Allow(ctx context.Context, userID string, now time.Time) error
}

// HoldMarker tracks live holds in the cache
type HoldMarker interface {
	Set(ctx context.Context, reservationID, eventID string, quantity int, ttl time.Duration) error
	Delete(ctx context.Context, reservationID string) error
}

// ReservationService defines the interface for the hold lifecycle
type ReservationService interface {
	// CreateHold places a temporary hold on seats for a published event
	CreateHold(ctx context.Context, userID string, req *dto.CreateHoldRequest) (*dto.HoldResponse, error)

	// ConfirmReservation finalizes a live hold
	ConfirmReservation(ctx context.Context, reservationID, userID string) (*dto.ConfirmReservationResponse, error)

	// CancelReservation releases a live hold and returns its seats
	CancelReservation(ctx context.Context, reservationID, userID string) (*dto.CancelReservationResponse, error)

	// GetReservation retrieves a reservation with its effective status
	GetReservation(ctx context.Context, reservationID, userID string) (*dto.ReservationResponse, error)

	// GetUserReservations retrieves the user's reservations, newest
	// first, optionally narrowed to one effective status
	GetUserReservations(ctx context.Context, userID, statusFilter string, page, pageSize int) ([]*dto.ReservationResponse, error)

	// ReclaimExpired returns seats held by lapsed holds, at most batchSize
	// per call, and reports how many holds were reclaimed
	ReclaimExpired(ctx context.Context, batchSize int) (int, error)
}

// reservationService implements ReservationService
type reservationService struct {
	reservationRepo repository.ReservationRepository
	eventRepo       repository.EventRepository
	availability    AvailabilityCounter
	locks           EventLocker
	rateLimiter     HoldRateLimiter
	markers         HoldMarker
	publisher       EventPublisher
	holdTTL         time.Duration
	now             func() time.Time
}

// ReservationServiceConfig contains configuration for the reservation service
type ReservationServiceConfig struct {
	HoldTTL time.Duration
}

// NewReservationService creates a new reservation service
func NewReservationService(
	reservationRepo repository.ReservationRepository,
	eventRepo repository.EventRepository,
	availability AvailabilityCounter,
	locks EventLocker,
	rateLimiter HoldRateLimiter,
	markers HoldMarker,
	publisher EventPublisher,
	cfg *ReservationServiceConfig,
) ReservationService {
	holdTTL := 5 * time.Minute
	if cfg != nil && cfg.HoldTTL > 0 {
		holdTTL = cfg.HoldTTL
	}
	if publisher == nil {
		publisher = NewNoOpEventPublisher()
	}
	return &reservationService{
		reservationRepo: reservationRepo,
		eventRepo:       eventRepo,
		availability:    availability,
		locks:           locks,
		rateLimiter:     rateLimiter,
		markers:         markers,
		publisher:       publisher,
		holdTTL:         holdTTL,
		now:             time.Now,
	}
}

// CreateHold places a temporary hold on seats for a published event
func (s *reservationService) CreateHold(ctx context.Context, userID string, req *dto.CreateHoldRequest) (*dto.HoldResponse, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.reservation.create_hold")
	defer span.End()

	if req == nil || req.Quantity <= 0 {
		span.SetStatus(codes.Error, "invalid quantity")
		return nil, domain.ErrInvalidQuantity
	}
	if req.EventID == "" {
		span.SetStatus(codes.Error, "invalid event_id")
		return nil, domain.ErrInvalidEventID
	}
	if userID == "" {
		span.SetStatus(codes.Error, "invalid user_id")
		return nil, domain.ErrInvalidUserID
	}

	span.SetAttributes(
		attribute.String("user_id", userID),
		attribute.String("event_id", req.EventID),
		attribute.Int("quantity", req.Quantity),
	)

	now := s.now()

	event, err := s.eventRepo.GetByID(ctx, req.EventID)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	if !event.IsPublished() {
		// Unpublished events are indistinguishable from missing ones
		span.SetStatus(codes.Error, "event not published")
		return nil, domain.ErrEventNotFound
	}

	if err := s.rateLimiter.Allow(ctx, userID, now); err != nil {
		if errors.Is(err, domain.ErrRateLimited) {
			metrics.RecordHoldRejected(ctx, req.EventID, "rate_limited")
		}
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	// One hold creation at a time per event; non-blocking so a burst
	// fails fast with a retryable error instead of piling up
	token, err := s.locks.Acquire(ctx, req.EventID)
	if err != nil {
		if errors.Is(err, domain.ErrEventBusy) {
			metrics.RecordHoldRejected(ctx, req.EventID, "busy")
		}
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	defer func() {
		if _, releaseErr := s.locks.Release(ctx, req.EventID, token); releaseErr != nil {
			logger.Get().Warn("failed to release event lock",
				zap.String("event_id", req.EventID),
				zap.Error(releaseErr))
		}
	}()

	// Re-seed a lost counter from capacity; publish normally seeds it
	if _, err := s.availability.Get(ctx, req.EventID); err != nil {
		if !errors.Is(err, cache.ErrCounterMissing) {
			span.SetStatus(codes.Error, err.Error())
			return nil, err
		}
		if _, seedErr := s.availability.Seed(ctx, req.EventID, int64(event.Capacity)); seedErr != nil {
			span.SetStatus(codes.Error, seedErr.Error())
			return nil, seedErr
		}
	}

	remaining, err := s.availability.DecrBy(ctx, req.EventID, int64(req.Quantity))
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	if remaining < 0 {
		// Decrement overshot; put the seats back before reporting
		if _, incrErr := s.availability.IncrBy(ctx, req.EventID, int64(req.Quantity)); incrErr != nil {
			metrics.RecordCompensationError(ctx, req.EventID)
			logger.Get().Error("failed to compensate oversold decrement",
				zap.String("event_id", req.EventID),
				zap.Int("quantity", req.Quantity),
				zap.Error(incrErr))
		}
		metrics.RecordHoldRejected(ctx, req.EventID, "insufficient_seats")
		span.SetStatus(codes.Error, "insufficient seats")
		return nil, domain.ErrInsufficientSeats
	}

	reservation := &domain.Reservation{
		ID:        uuid.New().String(),
		EventID:   req.EventID,
		UserID:    userID,
		Quantity:  req.Quantity,
		Status:    domain.ReservationStatusHold,
		ExpiresAt: now.Add(s.holdTTL),
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.reservationRepo.Create(ctx, reservation); err != nil {
		// The seats were already taken from the counter; give them back
		if _, incrErr := s.availability.IncrBy(ctx, req.EventID, int64(req.Quantity)); incrErr != nil {
			metrics.RecordCompensationError(ctx, req.EventID)
			logger.Get().Error("failed to compensate after insert failure",
				zap.String("event_id", req.EventID),
				zap.String("reservation_id", reservation.ID),
				zap.Int("quantity", req.Quantity),
				zap.Error(incrErr))
		} else {
			metrics.RecordSeatsReturned(ctx, req.EventID, int64(req.Quantity))
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	// Marker is advisory; a failure here never fails the hold
	if err := s.markers.Set(ctx, reservation.ID, req.EventID, req.Quantity, s.holdTTL); err != nil {
		logger.Get().Warn("failed to set hold marker",
			zap.String("reservation_id", reservation.ID),
			zap.Error(err))
	}

	_ = s.publisher.PublishHoldCreated(ctx, reservation)
	metrics.RecordHoldCreated(ctx, req.EventID, req.Quantity)

	span.AddEvent("hold_created", trace.WithAttributes(
		attribute.String("reservation_id", reservation.ID),
		attribute.Int64("remaining", remaining),
	))
	span.SetAttributes(attribute.String("reservation_id", reservation.ID))
	span.SetStatus(codes.Ok, "")

	return &dto.HoldResponse{
		ReservationID: reservation.ID,
		EventID:       reservation.EventID,
		Quantity:      reservation.Quantity,
		Status:        string(reservation.Status),
		ExpiresAt:     reservation.ExpiresAt,
	}, nil
}

// ConfirmReservation finalizes a live hold. The seats stay subtracted
// from the counter, so confirmation touches only the database row.
func (s *reservationService) ConfirmReservation(ctx context.Context, reservationID, userID string) (*dto.ConfirmReservationResponse, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.reservation.confirm")
	defer span.End()

	span.SetAttributes(
		attribute.String("reservation_id", reservationID),
		attribute.String("user_id", userID),
	)

	reservation, err := s.getOwned(ctx, reservationID, userID)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	now := s.now()
	if err := s.reservationRepo.Confirm(ctx, reservationID, now); err != nil {
		if errors.Is(err, domain.ErrHoldExpired) {
			// Return the seats right away instead of leaving the lapsed
			// hold for the sweep
			s.finalizeLapsed(ctx, reservation, now)
		}
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	if err := s.markers.Delete(ctx, reservationID); err != nil {
		logger.Get().Warn("failed to delete hold marker",
			zap.String("reservation_id", reservationID),
			zap.Error(err))
	}

	reservation.Status = domain.ReservationStatusConfirmed
	_ = s.publisher.PublishConfirmed(ctx, reservation)
	metrics.RecordHoldConfirmed(ctx, reservation.EventID, now.Sub(reservation.CreatedAt).Seconds())

	span.SetStatus(codes.Ok, "")
	return &dto.ConfirmReservationResponse{
		ReservationID: reservationID,
		Status:        string(domain.ReservationStatusConfirmed),
		ConfirmedAt:   now,
	}, nil
}

// CancelReservation releases a live hold and returns its seats
func (s *reservationService) CancelReservation(ctx context.Context, reservationID, userID string) (*dto.CancelReservationResponse, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.reservation.cancel")
	defer span.End()

	span.SetAttributes(
		attribute.String("reservation_id", reservationID),
		attribute.String("user_id", userID),
	)

	reservation, err := s.getOwned(ctx, reservationID, userID)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	now := s.now()
	if err := s.reservationRepo.Cancel(ctx, reservationID, now); err != nil {
		if errors.Is(err, domain.ErrHoldExpired) {
			s.finalizeLapsed(ctx, reservation, now)
		}
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	// The guarded update succeeded, so this is the only path returning
	// these seats; the reclaim sweep can no longer see this hold
	if _, err := s.availability.IncrBy(ctx, reservation.EventID, int64(reservation.Quantity)); err != nil {
		metrics.RecordCompensationError(ctx, reservation.EventID)
		logger.Get().Error("failed to return seats after cancel",
			zap.String("reservation_id", reservationID),
			zap.String("event_id", reservation.EventID),
			zap.Int("quantity", reservation.Quantity),
			zap.Error(err))
	} else {
		metrics.RecordSeatsReturned(ctx, reservation.EventID, int64(reservation.Quantity))
	}

	if err := s.markers.Delete(ctx, reservationID); err != nil {
		logger.Get().Warn("failed to delete hold marker",
			zap.String("reservation_id", reservationID),
			zap.Error(err))
	}

	reservation.Status = domain.ReservationStatusCanceled
	_ = s.publisher.PublishCanceled(ctx, reservation)
	metrics.RecordHoldCanceled(ctx, reservation.EventID)

	span.SetStatus(codes.Ok, "")
	return &dto.CancelReservationResponse{
		ReservationID: reservationID,
		Status:        string(domain.ReservationStatusCanceled),
	}, nil
}

// GetReservation retrieves a reservation with its effective status
func (s *reservationService) GetReservation(ctx context.Context, reservationID, userID string) (*dto.ReservationResponse, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.reservation.get")
	defer span.End()

	span.SetAttributes(attribute.String("reservation_id", reservationID))

	reservation, err := s.getOwned(ctx, reservationID, userID)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	span.SetStatus(codes.Ok, "")
	return dto.ReservationFromDomain(reservation, s.now()), nil
}

// GetUserReservations retrieves the user's reservations, newest first
func (s *reservationService) GetUserReservations(ctx context.Context, userID, statusFilter string, page, pageSize int) ([]*dto.ReservationResponse, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.reservation.get_user_reservations")
	defer span.End()

	if userID == "" {
		span.SetStatus(codes.Error, "invalid user_id")
		return nil, domain.ErrInvalidUserID
	}
	status := domain.ReservationStatus(statusFilter)
	switch status {
	case "", domain.ReservationStatusHold, domain.ReservationStatusConfirmed,
		domain.ReservationStatusCanceled, domain.ReservationStatusExpired:
	default:
		span.SetStatus(codes.Error, "invalid status filter")
		return nil, domain.ErrInvalidStatusFilter
	}
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}

	span.SetAttributes(
		attribute.String("user_id", userID),
		attribute.String("status", statusFilter),
		attribute.Int("page", page),
		attribute.Int("page_size", pageSize),
	)

	now := s.now()
	reservations, err := s.reservationRepo.GetByUserID(ctx, userID, status, now, pageSize, (page-1)*pageSize)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	responses := make([]*dto.ReservationResponse, 0, len(reservations))
	for _, reservation := range reservations {
		responses = append(responses, dto.ReservationFromDomain(reservation, now))
	}

	span.SetAttributes(attribute.Int("count", len(responses)))
	span.SetStatus(codes.Ok, "")
	return responses, nil
}

// ReclaimExpired returns seats held by lapsed holds. Each hold is
// claimed with a guarded update first, so overlapping sweeps and inline
// compensation on confirm/cancel can never return the same seats twice.
func (s *reservationService) ReclaimExpired(ctx context.Context, batchSize int) (int, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.reservation.reclaim_expired")
	defer span.End()

	if batchSize <= 0 {
		batchSize = 100
	}
	span.SetAttributes(attribute.Int("batch_size", batchSize))

	now := s.now()
	expired, err := s.reservationRepo.GetExpiredHolds(ctx, now, batchSize)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return 0, err
	}

	reclaimed := 0
	for _, reservation := range expired {
		if s.finalizeLapsed(ctx, reservation, now) {
			reclaimed++
		}
	}

	if reclaimed > 0 {
		metrics.RecordHoldsExpired(ctx, int64(reclaimed))
	}

	span.SetAttributes(attribute.Int("reclaimed", reclaimed))
	span.SetStatus(codes.Ok, "")
	return reclaimed, nil
}

// finalizeLapsed persists a lapsed hold as CANCELED and compensates for
// it. The guarded update claims the hold, so whichever caller wins —
// the reclaim sweep or a confirm/cancel that found the hold lapsed —
// returns the seats, and the loser does nothing. Reports whether this
// call won.
func (s *reservationService) finalizeLapsed(ctx context.Context, reservation *domain.Reservation, now time.Time) bool {
	won, err := s.reservationRepo.CancelExpired(ctx, reservation.ID, now)
	if err != nil {
		logger.Get().Error("failed to cancel expired hold",
			zap.String("reservation_id", reservation.ID),
			zap.Error(err))
		return false
	}
	if !won {
		// Confirmed, canceled, or already claimed by another path
		return false
	}

	if _, err := s.availability.IncrBy(ctx, reservation.EventID, int64(reservation.Quantity)); err != nil {
		metrics.RecordCompensationError(ctx, reservation.EventID)
		logger.Get().Error("failed to return seats for expired hold",
			zap.String("reservation_id", reservation.ID),
			zap.String("event_id", reservation.EventID),
			zap.Int("quantity", reservation.Quantity),
			zap.Error(err))
	} else {
		metrics.RecordSeatsReturned(ctx, reservation.EventID, int64(reservation.Quantity))
	}

	if err := s.markers.Delete(ctx, reservation.ID); err != nil {
		logger.Get().Warn("failed to delete hold marker",
			zap.String("reservation_id", reservation.ID),
			zap.Error(err))
	}

	reservation.Status = domain.ReservationStatusCanceled
	_ = s.publisher.PublishExpired(ctx, reservation)
	return true
}

// getOwned loads a reservation and verifies ownership
func (s *reservationService) getOwned(ctx context.Context, reservationID, userID string) (*domain.Reservation, error) {
	if reservationID == "" {
		return nil, domain.ErrInvalidReservationID
	}
	if userID == "" {
		return nil, domain.ErrInvalidUserID
	}

	reservation, err := s.reservationRepo.GetByID(ctx, reservationID)
	if err != nil {
		return nil, err
	}
	if reservation.UserID != userID {
		// Do not reveal other users' reservations
		return nil, domain.ErrReservationNotFound
	}
	return reservation, nil
}
