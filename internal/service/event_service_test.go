package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/seathold/api/internal/cache"
	"github.com/seathold/api/internal/domain"
	"github.com/seathold/api/internal/dto"
	"github.com/seathold/api/internal/repository"
	"github.com/stretchr/testify/require"
)

func newTestEventService(eventRepo *mockEventRepo, counter *mockCounter) *eventService {
	svc := NewEventService(eventRepo, counter).(*eventService)
	svc.now = func() time.Time { return time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC) }
	return svc
}

func TestCreateEvent_Success(t *testing.T) {
	var created *domain.Event
	eventRepo := &mockEventRepo{
		createFn: func(ctx context.Context, e *domain.Event) error {
			created = e
			return nil
		},
	}

	svc := newTestEventService(eventRepo, &mockCounter{})

	resp, err := svc.CreateEvent(context.Background(), "admin-1", &dto.CreateEventRequest{
		Name:      "Summer Concert",
		Venue:     "Main Arena",
		City:      "Bangkok",
		StartTime: time.Date(2025, 8, 1, 19, 0, 0, 0, time.UTC),
		EndTime:   time.Date(2025, 8, 1, 23, 0, 0, 0, time.UTC),
		Capacity:  5000,
	})

	require.NoError(t, err)
	require.NotNil(t, created)
	require.Equal(t, created.ID, resp.ID)
	require.Equal(t, string(domain.EventStatusDraft), resp.Status, "new events start as drafts")
	require.Equal(t, 5000, resp.Capacity)
	require.Equal(t, "Bangkok", resp.City)
	require.Equal(t, "admin-1", created.CreatedBy)
}

func TestCreateEvent_Invalid(t *testing.T) {
	svc := newTestEventService(&mockEventRepo{}, &mockCounter{})

	future := time.Date(2025, 8, 1, 19, 0, 0, 0, time.UTC)
	past := time.Date(2025, 5, 1, 19, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		req     *dto.CreateEventRequest
		wantErr error
	}{
		{"empty name", &dto.CreateEventRequest{Capacity: 10}, domain.ErrInvalidEventName},
		{"zero capacity", &dto.CreateEventRequest{Name: "Show"}, domain.ErrInvalidCapacity},
		{"negative capacity", &dto.CreateEventRequest{Name: "Show", Capacity: -1}, domain.ErrInvalidCapacity},
		{"start in the past", &dto.CreateEventRequest{Name: "Show", Capacity: 10, StartTime: past}, domain.ErrInvalidStartTime},
		{"end before start", &dto.CreateEventRequest{Name: "Show", Capacity: 10, StartTime: future, EndTime: future.Add(-time.Hour)}, domain.ErrInvalidEventTime},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.CreateEvent(context.Background(), "admin-1", tt.req)
			require.ErrorIs(t, err, tt.wantErr)
			require.True(t, domain.IsValidationError(err))
		})
	}
}

func TestPublishEvent_SeedsCounter(t *testing.T) {
	eventRepo := &mockEventRepo{
		getByIDFn: func(ctx context.Context, id string) (*domain.Event, error) {
			return &domain.Event{ID: id, Name: "Show", Capacity: 250, Status: domain.EventStatusDraft}, nil
		},
		publishFn: func(ctx context.Context, id string) error {
			return nil
		},
	}
	counter := &mockCounter{}

	svc := newTestEventService(eventRepo, counter)

	resp, err := svc.PublishEvent(context.Background(), "event-1")

	require.NoError(t, err)
	require.Equal(t, string(domain.EventStatusPublished), resp.Status)
	require.True(t, counter.seeded)
	require.Equal(t, int64(250), counter.seats)
}

func TestPublishEvent_NotDraft(t *testing.T) {
	eventRepo := &mockEventRepo{
		getByIDFn: func(ctx context.Context, id string) (*domain.Event, error) {
			return &domain.Event{ID: id, Name: "Show", Capacity: 250, Status: domain.EventStatusPublished}, nil
		},
		publishFn: func(ctx context.Context, id string) error {
			return domain.ErrEventNotDraft
		},
	}
	counter := &mockCounter{}

	svc := newTestEventService(eventRepo, counter)

	_, err := svc.PublishEvent(context.Background(), "event-1")
	require.ErrorIs(t, err, domain.ErrEventNotDraft)
	require.False(t, counter.seeded, "counter must not be seeded when publish is refused")
}

func TestCancelEvent_DeletesCounter(t *testing.T) {
	eventRepo := &mockEventRepo{
		cancelEventFn: func(ctx context.Context, id string) error {
			return nil
		},
	}
	counter := &mockCounter{seats: 100, seeded: true}

	svc := newTestEventService(eventRepo, counter)

	require.NoError(t, svc.CancelEvent(context.Background(), "event-1"))
	require.False(t, counter.seeded)
}

func TestDeleteEvent_DraftOnly(t *testing.T) {
	var deleted string
	eventRepo := &mockEventRepo{
		deleteFn: func(ctx context.Context, id string) error {
			deleted = id
			return nil
		},
	}

	svc := newTestEventService(eventRepo, &mockCounter{})

	require.NoError(t, svc.DeleteEvent(context.Background(), "event-1"))
	require.Equal(t, "event-1", deleted)
}

func TestDeleteEvent_RefusedOncePublished(t *testing.T) {
	eventRepo := &mockEventRepo{
		deleteFn: func(ctx context.Context, id string) error {
			return domain.ErrEventNotDraft
		},
	}

	svc := newTestEventService(eventRepo, &mockCounter{})

	err := svc.DeleteEvent(context.Background(), "event-1")
	require.ErrorIs(t, err, domain.ErrEventNotDraft)
}

func TestGetAvailability_LiveCounter(t *testing.T) {
	eventRepo := &mockEventRepo{
		getByIDFn: func(ctx context.Context, id string) (*domain.Event, error) {
			return &domain.Event{ID: id, Name: "Show", Capacity: 100, Status: domain.EventStatusPublished}, nil
		},
	}
	counter := &mockCounter{seats: 42, seeded: true}

	svc := newTestEventService(eventRepo, counter)

	resp, err := svc.GetAvailability(context.Background(), "event-1")

	require.NoError(t, err)
	require.Equal(t, int64(42), resp.AvailableSeats)
	require.False(t, resp.Degraded)
}

func TestGetAvailability_ReseedsMissingCounter(t *testing.T) {
	eventRepo := &mockEventRepo{
		getByIDFn: func(ctx context.Context, id string) (*domain.Event, error) {
			return &domain.Event{ID: id, Name: "Show", Capacity: 100, Status: domain.EventStatusPublished}, nil
		},
	}
	counter := &mockCounter{
		getFn: func(ctx context.Context, eventID string) (int64, error) {
			return 0, cache.ErrCounterMissing
		},
	}

	svc := newTestEventService(eventRepo, counter)

	resp, err := svc.GetAvailability(context.Background(), "event-1")

	require.NoError(t, err)
	require.Equal(t, int64(100), resp.AvailableSeats)
	require.False(t, resp.Degraded, "a missing counter is re-seeded, not degraded")
	require.True(t, counter.seeded)
	require.Equal(t, int64(100), counter.seats)
}

func TestGetAvailability_DegradedFallback(t *testing.T) {
	eventRepo := &mockEventRepo{
		getByIDFn: func(ctx context.Context, id string) (*domain.Event, error) {
			return &domain.Event{ID: id, Name: "Show", Capacity: 100, Status: domain.EventStatusPublished}, nil
		},
	}
	counter := &mockCounter{
		getFn: func(ctx context.Context, eventID string) (int64, error) {
			return 0, errors.New("redis down")
		},
	}

	svc := newTestEventService(eventRepo, counter)

	resp, err := svc.GetAvailability(context.Background(), "event-1")

	require.NoError(t, err, "an unreadable counter degrades the answer, not the endpoint")
	require.Equal(t, int64(100), resp.AvailableSeats)
	require.True(t, resp.Degraded)
}

func TestGetAvailability_ClampsNegative(t *testing.T) {
	eventRepo := &mockEventRepo{
		getByIDFn: func(ctx context.Context, id string) (*domain.Event, error) {
			return &domain.Event{ID: id, Name: "Show", Capacity: 100, Status: domain.EventStatusPublished}, nil
		},
	}
	counter := &mockCounter{seats: -2, seeded: true}

	svc := newTestEventService(eventRepo, counter)

	resp, err := svc.GetAvailability(context.Background(), "event-1")

	require.NoError(t, err)
	require.Zero(t, resp.AvailableSeats, "transient negative counters read as sold out")
}

func TestUpdateEvent_AppliesPartialFields(t *testing.T) {
	var updated *domain.Event
	eventRepo := &mockEventRepo{
		getByIDFn: func(ctx context.Context, id string) (*domain.Event, error) {
			return &domain.Event{ID: id, Name: "Old Name", Venue: "Old Venue", Capacity: 100, Status: domain.EventStatusDraft}, nil
		},
		updateFn: func(ctx context.Context, e *domain.Event) error {
			updated = e
			return nil
		},
	}

	svc := newTestEventService(eventRepo, &mockCounter{})

	newName := "New Name"
	resp, err := svc.UpdateEvent(context.Background(), "event-1", &dto.UpdateEventRequest{Name: &newName})

	require.NoError(t, err)
	require.Equal(t, "New Name", updated.Name)
	require.Equal(t, "Old Venue", updated.Venue, "unset fields keep their values")
	require.Equal(t, "New Name", resp.Name)
}

func TestListEvents_FilterPassedThrough(t *testing.T) {
	var gotFilter *repository.EventListFilter
	eventRepo := &mockEventRepo{
		listFn: func(ctx context.Context, filter *repository.EventListFilter) ([]*domain.Event, error) {
			gotFilter = filter
			return []*domain.Event{{ID: "event-1", Name: "Show", Capacity: 10, Status: filter.Status}}, nil
		},
	}

	svc := newTestEventService(eventRepo, &mockCounter{})

	from := time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2025, 9, 1, 0, 0, 0, 0, time.UTC)
	resps, err := svc.ListEvents(context.Background(), &dto.ListEventsQuery{
		Status:   "PUBLISHED",
		City:     "Bangkok",
		From:     &from,
		To:       &to,
		Page:     2,
		PageSize: 10,
	})

	require.NoError(t, err)
	require.Len(t, resps, 1)
	require.Equal(t, domain.EventStatusPublished, gotFilter.Status)
	require.Equal(t, "Bangkok", gotFilter.City)
	require.Equal(t, &from, gotFilter.From)
	require.Equal(t, &to, gotFilter.To)
	require.Equal(t, 10, gotFilter.Limit)
	require.Equal(t, 10, gotFilter.Offset)
}

func TestListEvents_InvalidTimeRange(t *testing.T) {
	eventRepo := &mockEventRepo{
		listFn: func(ctx context.Context, filter *repository.EventListFilter) ([]*domain.Event, error) {
			t.Fatal("repository must not be queried for an invalid range")
			return nil, nil
		},
	}

	svc := newTestEventService(eventRepo, &mockCounter{})

	from := time.Date(2025, 9, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name  string
		query *dto.ListEventsQuery
	}{
		{"from after to", &dto.ListEventsQuery{From: &from, To: &to}},
		{"from without to", &dto.ListEventsQuery{From: &from}},
		{"to without from", &dto.ListEventsQuery{To: &to}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.ListEvents(context.Background(), tt.query)
			require.ErrorIs(t, err, domain.ErrInvalidTimeRange)
		})
	}
}
