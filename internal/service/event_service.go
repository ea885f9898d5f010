package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/seathold/api/internal/cache"
	"github.com/seathold/api/internal/domain"
	"github.com/seathold/api/internal/dto"
	"github.com/seathold/api/internal/repository"
	"github.com/seathold/api/pkg/logger"
	"github.com/seathold/api/pkg/telemetry"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"
)

// EventService defines the interface for event management
type EventService interface {
	// CreateEvent creates a draft event owned by the given admin
	CreateEvent(ctx context.Context, createdBy string, req *dto.CreateEventRequest) (*dto.EventResponse, error)

	// GetEvent retrieves an event by ID
	GetEvent(ctx context.Context, eventID string) (*dto.EventResponse, error)

	// ListEvents retrieves events matching the query filters
	ListEvents(ctx context.Context, query *dto.ListEventsQuery) ([]*dto.EventResponse, error)

	// UpdateEvent updates a draft event
	UpdateEvent(ctx context.Context, eventID string, req *dto.UpdateEventRequest) (*dto.EventResponse, error)

	// PublishEvent opens a draft event for reservations and seeds its
	// availability counter from capacity
	PublishEvent(ctx context.Context, eventID string) (*dto.EventResponse, error)

	// CancelEvent closes an event to reservations
	CancelEvent(ctx context.Context, eventID string) error

	// DeleteEvent removes a draft event that was never published
	DeleteEvent(ctx context.Context, eventID string) error

	// GetAvailability reports live availability, falling back to the
	// stored capacity when the counter cannot be read
	GetAvailability(ctx context.Context, eventID string) (*dto.EventAvailabilityResponse, error)
}

// eventService implements EventService
type eventService struct {
	eventRepo    repository.EventRepository
	availability AvailabilityCounter
	now          func() time.Time
}

// NewEventService creates a new event service
func NewEventService(eventRepo repository.EventRepository, availability AvailabilityCounter) EventService {
	return &eventService{
		eventRepo:    eventRepo,
		availability: availability,
		now:          time.Now,
	}
}

// CreateEvent creates a draft event owned by the given admin
func (s *eventService) CreateEvent(ctx context.Context, createdBy string, req *dto.CreateEventRequest) (*dto.EventResponse, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.event.create")
	defer span.End()

	if req == nil {
		span.SetStatus(codes.Error, "invalid event name")
		return nil, domain.ErrInvalidEventName
	}

	now := s.now()
	event := &domain.Event{
		ID:          uuid.New().String(),
		Name:        req.Name,
		Description: req.Description,
		Venue:       req.Venue,
		City:        req.City,
		StartTime:   req.StartTime,
		EndTime:     req.EndTime,
		Capacity:    req.Capacity,
		Status:      domain.EventStatusDraft,
		CreatedBy:   createdBy,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.validateTimes(event, now); err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	if err := s.eventRepo.Create(ctx, event); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	span.SetAttributes(attribute.String("event_id", event.ID))
	span.SetStatus(codes.Ok, "")
	return dto.EventFromDomain(event), nil
}

// GetEvent retrieves an event by ID
func (s *eventService) GetEvent(ctx context.Context, eventID string) (*dto.EventResponse, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.event.get")
	defer span.End()

	if eventID == "" {
		span.SetStatus(codes.Error, "invalid event_id")
		return nil, domain.ErrInvalidEventID
	}
	span.SetAttributes(attribute.String("event_id", eventID))

	event, err := s.eventRepo.GetByID(ctx, eventID)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	span.SetStatus(codes.Ok, "")
	return dto.EventFromDomain(event), nil
}

// ListEvents retrieves events matching the query filters
func (s *eventService) ListEvents(ctx context.Context, query *dto.ListEventsQuery) ([]*dto.EventResponse, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.event.list")
	defer span.End()

	if query == nil {
		query = &dto.ListEventsQuery{}
	}
	if (query.From == nil) != (query.To == nil) {
		span.SetStatus(codes.Error, "invalid time range")
		return nil, domain.ErrInvalidTimeRange
	}
	if query.From != nil && !query.From.Before(*query.To) {
		span.SetStatus(codes.Error, "invalid time range")
		return nil, domain.ErrInvalidTimeRange
	}

	page := query.Page
	pageSize := query.PageSize
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}

	span.SetAttributes(
		attribute.String("status", query.Status),
		attribute.String("city", query.City),
		attribute.Int("page", page),
		attribute.Int("page_size", pageSize),
	)

	events, err := s.eventRepo.List(ctx, &repository.EventListFilter{
		Status: domain.EventStatus(query.Status),
		City:   query.City,
		From:   query.From,
		To:     query.To,
		Limit:  pageSize,
		Offset: (page - 1) * pageSize,
	})
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	responses := make([]*dto.EventResponse, 0, len(events))
	for _, event := range events {
		responses = append(responses, dto.EventFromDomain(event))
	}

	span.SetAttributes(attribute.Int("count", len(responses)))
	span.SetStatus(codes.Ok, "")
	return responses, nil
}

// UpdateEvent updates a draft event
func (s *eventService) UpdateEvent(ctx context.Context, eventID string, req *dto.UpdateEventRequest) (*dto.EventResponse, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.event.update")
	defer span.End()

	if eventID == "" {
		span.SetStatus(codes.Error, "invalid event_id")
		return nil, domain.ErrInvalidEventID
	}
	span.SetAttributes(attribute.String("event_id", eventID))

	event, err := s.eventRepo.GetByID(ctx, eventID)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	if req != nil {
		if req.Name != nil {
			event.Name = *req.Name
		}
		if req.Description != nil {
			event.Description = *req.Description
		}
		if req.Venue != nil {
			event.Venue = *req.Venue
		}
		if req.City != nil {
			event.City = *req.City
		}
		if req.StartTime != nil {
			event.StartTime = *req.StartTime
		}
		if req.EndTime != nil {
			event.EndTime = *req.EndTime
		}
		if req.Capacity != nil {
			event.Capacity = *req.Capacity
		}
	}

	if err := s.validateTimes(event, s.now()); err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	if err := s.eventRepo.Update(ctx, event); err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	span.SetStatus(codes.Ok, "")
	return dto.EventFromDomain(event), nil
}

// PublishEvent opens a draft event for reservations
func (s *eventService) PublishEvent(ctx context.Context, eventID string) (*dto.EventResponse, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.event.publish")
	defer span.End()

	if eventID == "" {
		span.SetStatus(codes.Error, "invalid event_id")
		return nil, domain.ErrInvalidEventID
	}
	span.SetAttributes(attribute.String("event_id", eventID))

	event, err := s.eventRepo.GetByID(ctx, eventID)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	if err := s.eventRepo.Publish(ctx, eventID); err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	// Seed the live counter. A failure here is tolerated: the first
	// hold request re-seeds a missing counter from capacity.
	if _, err := s.availability.Seed(ctx, eventID, int64(event.Capacity)); err != nil {
		logger.Get().Warn("failed to seed availability counter on publish",
			zap.String("event_id", eventID),
			zap.Error(err))
	}

	event.Status = domain.EventStatusPublished
	span.SetStatus(codes.Ok, "")
	return dto.EventFromDomain(event), nil
}

// CancelEvent closes an event to reservations
func (s *eventService) CancelEvent(ctx context.Context, eventID string) error {
	ctx, span := telemetry.StartSpan(ctx, "service.event.cancel")
	defer span.End()

	if eventID == "" {
		span.SetStatus(codes.Error, "invalid event_id")
		return domain.ErrInvalidEventID
	}
	span.SetAttributes(attribute.String("event_id", eventID))

	if err := s.eventRepo.CancelEvent(ctx, eventID); err != nil {
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	if err := s.availability.Delete(ctx, eventID); err != nil {
		logger.Get().Warn("failed to delete availability counter",
			zap.String("event_id", eventID),
			zap.Error(err))
	}

	span.SetStatus(codes.Ok, "")
	return nil
}

// DeleteEvent removes a draft event that was never published
func (s *eventService) DeleteEvent(ctx context.Context, eventID string) error {
	ctx, span := telemetry.StartSpan(ctx, "service.event.delete")
	defer span.End()

	if eventID == "" {
		span.SetStatus(codes.Error, "invalid event_id")
		return domain.ErrInvalidEventID
	}
	span.SetAttributes(attribute.String("event_id", eventID))

	if err := s.eventRepo.Delete(ctx, eventID); err != nil {
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	span.SetStatus(codes.Ok, "")
	return nil
}

// GetAvailability reports live availability with a degraded fallback
func (s *eventService) GetAvailability(ctx context.Context, eventID string) (*dto.EventAvailabilityResponse, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.event.get_availability")
	defer span.End()

	if eventID == "" {
		span.SetStatus(codes.Error, "invalid event_id")
		return nil, domain.ErrInvalidEventID
	}
	span.SetAttributes(attribute.String("event_id", eventID))

	event, err := s.eventRepo.GetByID(ctx, eventID)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	available, err := s.availability.Get(ctx, eventID)
	if err != nil {
		if errors.Is(err, cache.ErrCounterMissing) {
			// No counter means no seats taken yet. Re-seed live events so
			// the next hold request finds the counter.
			if event.IsPublished() {
				if _, seedErr := s.availability.Seed(ctx, eventID, int64(event.Capacity)); seedErr != nil {
					logger.Get().Warn("failed to re-seed availability counter",
						zap.String("event_id", eventID),
						zap.Error(seedErr))
				}
			}
			span.SetStatus(codes.Ok, "")
			return &dto.EventAvailabilityResponse{
				EventID:        eventID,
				AvailableSeats: int64(event.Capacity),
			}, nil
		}

		// Counter unreadable; answer from stored capacity and say so
		logger.Get().Warn("availability counter unreadable, serving capacity",
			zap.String("event_id", eventID),
			zap.Error(err))
		span.SetAttributes(attribute.Bool("degraded", true))
		span.SetStatus(codes.Ok, "")
		return &dto.EventAvailabilityResponse{
			EventID:        eventID,
			AvailableSeats: int64(event.Capacity),
			Degraded:       true,
		}, nil
	}

	if available < 0 {
		available = 0
	}

	span.SetAttributes(attribute.Int64("available", available))
	span.SetStatus(codes.Ok, "")
	return &dto.EventAvailabilityResponse{
		EventID:        eventID,
		AvailableSeats: available,
	}, nil
}

// validateTimes runs the entity checks plus the schedule rule that
// needs the current time
func (s *eventService) validateTimes(event *domain.Event, now time.Time) error {
	if err := event.Validate(); err != nil {
		return err
	}
	if !event.StartTime.IsZero() && !event.StartTime.After(now) {
		return domain.ErrInvalidStartTime
	}
	return nil
}
