package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/seathold/api/internal/domain"
	"github.com/seathold/api/pkg/kafka"
)

// Reservation event types
const (
	ReservationEventHoldCreated = "reservation.hold_created"
	ReservationEventConfirmed   = "reservation.confirmed"
	ReservationEventCanceled    = "reservation.canceled"
	ReservationEventExpired     = "reservation.expired"
)

// ReservationEvent is the lifecycle event payload published to Kafka
type ReservationEvent struct {
	EventID       string    `json:"event_id"`
	Type          string    `json:"type"`
	ReservationID string    `json:"reservation_id"`
	EventRef      string    `json:"event_ref"`
	UserID        string    `json:"user_id"`
	Quantity      int       `json:"quantity"`
	Status        string    `json:"status"`
	OccurredAt    time.Time `json:"occurred_at"`
}

// EventPublisher defines the interface for publishing reservation lifecycle events
type EventPublisher interface {
	// PublishHoldCreated publishes a hold created event
	PublishHoldCreated(ctx context.Context, reservation *domain.Reservation) error

	// PublishConfirmed publishes a reservation confirmed event
	PublishConfirmed(ctx context.Context, reservation *domain.Reservation) error

	// PublishCanceled publishes a reservation canceled event
	PublishCanceled(ctx context.Context, reservation *domain.Reservation) error

	// PublishExpired publishes a hold expired event
	PublishExpired(ctx context.Context, reservation *domain.Reservation) error

	// Close closes the publisher
	Close() error
}

// KafkaEventPublisher implements EventPublisher using Kafka
type KafkaEventPublisher struct {
	producer    *kafka.Producer
	topic       string
	serviceName string
}

// EventPublisherConfig contains configuration for the event publisher
type EventPublisherConfig struct {
	Brokers     []string
	Topic       string
	ServiceName string
	ClientID    string
}

// NewKafkaEventPublisher creates a new Kafka event publisher
func NewKafkaEventPublisher(ctx context.Context, cfg *EventPublisherConfig) (*KafkaEventPublisher, error) {
	if cfg == nil {
		return nil, fmt.Errorf("event publisher config is required")
	}
	if len(cfg.Brokers) == 0 {
		return nil, fmt.Errorf("kafka brokers are required")
	}

	topic := cfg.Topic
	if topic == "" {
		topic = "reservation-events"
	}

	serviceName := cfg.ServiceName
	if serviceName == "" {
		serviceName = "seathold"
	}

	clientID := cfg.ClientID
	if clientID == "" {
		clientID = "seathold-producer"
	}

	producer, err := kafka.NewProducer(ctx, &kafka.ProducerConfig{
		Brokers:       cfg.Brokers,
		ClientID:      clientID,
		MaxRetries:    3,
		RetryInterval: 2 * time.Second,
		LingerMs:      10,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create kafka producer: %w", err)
	}

	return &KafkaEventPublisher{
		producer:    producer,
		topic:       topic,
		serviceName: serviceName,
	}, nil
}

// PublishHoldCreated publishes a hold created event
func (p *KafkaEventPublisher) PublishHoldCreated(ctx context.Context, reservation *domain.Reservation) error {
	return p.publishEvent(ctx, ReservationEventHoldCreated, reservation)
}

// PublishConfirmed publishes a reservation confirmed event
func (p *KafkaEventPublisher) PublishConfirmed(ctx context.Context, reservation *domain.Reservation) error {
	return p.publishEvent(ctx, ReservationEventConfirmed, reservation)
}

// PublishCanceled publishes a reservation canceled event
func (p *KafkaEventPublisher) PublishCanceled(ctx context.Context, reservation *domain.Reservation) error {
	return p.publishEvent(ctx, ReservationEventCanceled, reservation)
}

// PublishExpired publishes a hold expired event
func (p *KafkaEventPublisher) PublishExpired(ctx context.Context, reservation *domain.Reservation) error {
	return p.publishEvent(ctx, ReservationEventExpired, reservation)
}

// Close closes the event publisher
func (p *KafkaEventPublisher) Close() error {
	if p.producer != nil {
		p.producer.Close()
	}
	return nil
}

func (p *KafkaEventPublisher) publishEvent(ctx context.Context, eventType string, reservation *domain.Reservation) error {
	event := &ReservationEvent{
		EventID:       uuid.New().String(),
		Type:          eventType,
		ReservationID: reservation.ID,
		EventRef:      reservation.EventID,
		UserID:        reservation.UserID,
		Quantity:      reservation.Quantity,
		Status:        string(reservation.Status),
		OccurredAt:    time.Now(),
	}

	headers := map[string]string{
		"event_type":   eventType,
		"event_id":     event.EventID,
		"source":       p.serviceName,
		"content_type": "application/json",
	}

	// Keyed by reservation so consumers see one hold's events in order
	if err := p.producer.ProduceJSON(ctx, p.topic, reservation.ID, event, headers); err != nil {
		return fmt.Errorf("failed to publish %s event: %w", eventType, err)
	}
	return nil
}

// NoOpEventPublisher is a no-op implementation of EventPublisher, used
// when Kafka is disabled and in tests
type NoOpEventPublisher struct{}

// NewNoOpEventPublisher creates a new no-op event publisher
func NewNoOpEventPublisher() *NoOpEventPublisher {
	return &NoOpEventPublisher{}
}

// PublishHoldCreated is a no-op
func (p *NoOpEventPublisher) PublishHoldCreated(ctx context.Context, reservation *domain.Reservation) error {
	return nil
}

// PublishConfirmed is a no-op
func (p *NoOpEventPublisher) PublishConfirmed(ctx context.Context, reservation *domain.Reservation) error {
	return nil
}

// PublishCanceled is a no-op
func (p *NoOpEventPublisher) PublishCanceled(ctx context.Context, reservation *domain.Reservation) error {
	return nil
}

// PublishExpired is a no-op
func (p *NoOpEventPublisher) PublishExpired(ctx context.Context, reservation *domain.Reservation) error {
	return nil
}

// Close is a no-op
func (p *NoOpEventPublisher) Close() error {
	return nil
}
