package di

import (
	"context"

	"github.com/seathold/api/internal/cache"
	"github.com/seathold/api/internal/handler"
	"github.com/seathold/api/internal/repository"
	"github.com/seathold/api/internal/service"
	"github.com/seathold/api/pkg/config"
	"github.com/seathold/api/pkg/database"
	"github.com/seathold/api/pkg/logger"
	"github.com/seathold/api/pkg/redis"
	"go.uber.org/zap"
)

// Container holds all dependencies for the hold controller
type Container struct {
	// Infrastructure
	DB    *database.PostgresDB
	Redis *redis.Client

	// Repositories
	ReservationRepo repository.ReservationRepository
	EventRepo       repository.EventRepository
	UserRepo        repository.UserRepository

	// Cache stores
	Availability *cache.AvailabilityStore
	Locks        *cache.LockStore
	RateLimiter  *cache.RateLimiter
	Markers      *cache.HoldMarkerStore

	// Publishers
	EventPublisher service.EventPublisher

	// Services
	ReservationService service.ReservationService
	EventService       service.EventService
	AuthService        service.AuthService

	// Handlers
	HealthHandler      *handler.HealthHandler
	ReservationHandler *handler.ReservationHandler
	EventHandler       *handler.EventHandler
	AuthHandler        *handler.AuthHandler
}

// NewContainer wires repositories, cache stores, services, and handlers
// from the shared infrastructure clients
func NewContainer(ctx context.Context, cfg *config.Config, db *database.PostgresDB, rdb *redis.Client) (*Container, error) {
	c := &Container{
		DB:    db,
		Redis: rdb,
	}

	// Repositories
	c.ReservationRepo = repository.NewPostgresReservationRepository(db.Pool())
	c.EventRepo = repository.NewPostgresEventRepository(db.Pool())
	c.UserRepo = repository.NewPostgresUserRepository(db.Pool())

	// Cache stores
	c.Availability = cache.NewAvailabilityStore(rdb)
	c.Locks = cache.NewLockStore(rdb, cfg.Hold.LockTTL)
	c.RateLimiter = cache.NewRateLimiter(rdb, cfg.Hold.RateLimitPerMinute)
	c.Markers = cache.NewHoldMarkerStore(rdb)

	// Warm the script cache so the first lock release skips the NOSCRIPT
	// round trip; EvalWithFallback reloads on demand if this fails
	if err := c.Locks.LoadScripts(ctx); err != nil {
		logger.Get().Warn("failed to preload lock scripts", zap.Error(err))
	}

	// Event publisher; falls back to a no-op when Kafka is disabled
	if cfg.Kafka.Enabled {
		publisher, err := service.NewKafkaEventPublisher(ctx, &service.EventPublisherConfig{
			Brokers:     cfg.Kafka.Brokers,
			Topic:       cfg.Kafka.Topic,
			ServiceName: cfg.App.Name,
			ClientID:    cfg.Kafka.ClientID,
		})
		if err != nil {
			return nil, err
		}
		c.EventPublisher = publisher
	} else {
		logger.Get().Info("Kafka disabled, lifecycle events will not be published")
		c.EventPublisher = service.NewNoOpEventPublisher()
	}

	// Services
	c.ReservationService = service.NewReservationService(
		c.ReservationRepo,
		c.EventRepo,
		c.Availability,
		c.Locks,
		c.RateLimiter,
		c.Markers,
		c.EventPublisher,
		&service.ReservationServiceConfig{HoldTTL: cfg.Hold.TTL},
	)
	c.EventService = service.NewEventService(c.EventRepo, c.Availability)
	c.AuthService = service.NewAuthService(c.UserRepo, &cfg.JWT)

	// Handlers
	c.HealthHandler = handler.NewHealthHandler(c.DB, c.Redis)
	c.ReservationHandler = handler.NewReservationHandler(c.ReservationService)
	c.EventHandler = handler.NewEventHandler(c.EventService)
	c.AuthHandler = handler.NewAuthHandler(c.AuthService)

	return c, nil
}

// Close releases resources held by the container
func (c *Container) Close() {
	if c.EventPublisher != nil {
		if err := c.EventPublisher.Close(); err != nil {
			logger.Get().Warn("failed to close event publisher", zap.Error(err))
		}
	}
}
