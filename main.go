package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/seathold/api/internal/di"
	"github.com/seathold/api/internal/metrics"
	"github.com/seathold/api/internal/middleware"
	"github.com/seathold/api/internal/worker"
	"github.com/seathold/api/pkg/config"
	"github.com/seathold/api/pkg/database"
	"github.com/seathold/api/pkg/logger"
	"github.com/seathold/api/pkg/redis"
	"github.com/seathold/api/pkg/telemetry"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	if err := logger.Init(&logger.Config{
		Level:       "info",
		ServiceName: cfg.App.Name,
		Development: cfg.IsDevelopment(),
	}); err != nil {
		fmt.Fprintf(os.Stderr, "failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()
	log := logger.Get()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Tracing
	_, err = telemetry.Init(ctx, &telemetry.Config{
		Enabled:        cfg.OTel.Enabled,
		ServiceName:    cfg.OTel.ServiceName,
		ServiceVersion: cfg.App.Version,
		Environment:    cfg.App.Environment,
		CollectorAddr:  cfg.OTel.CollectorAddr,
		SampleRatio:    cfg.OTel.SampleRatio,
	})
	if err != nil {
		log.Fatal(fmt.Sprintf("Failed to init telemetry: %v", err))
	}
	defer func() {
		if err := telemetry.Shutdown(context.Background()); err != nil {
			log.Error(fmt.Sprintf("Failed to shut down tracer: %v", err))
		}
	}()

	if err := metrics.Init(); err != nil {
		log.Fatal(fmt.Sprintf("Failed to init metrics: %v", err))
	}

	// PostgreSQL
	db, err := database.NewPostgres(ctx, &database.PostgresConfig{
		Host:            cfg.Database.Host,
		Port:            cfg.Database.Port,
		User:            cfg.Database.User,
		Password:        cfg.Database.Password,
		Database:        cfg.Database.DBName,
		SSLMode:         cfg.Database.SSLMode,
		MaxConns:        int32(cfg.Database.MaxOpenConns),
		MinConns:        int32(cfg.Database.MaxIdleConns),
		MaxConnLifetime: cfg.Database.ConnMaxLifetime,
		MaxConnIdleTime: cfg.Database.ConnMaxIdleTime,
		ConnectTimeout:  10 * time.Second,
		MaxRetries:      3,
		RetryInterval:   2 * time.Second,
		EnableTracing:   cfg.OTel.Enabled,
	})
	if err != nil {
		log.Fatal(fmt.Sprintf("Failed to connect to PostgreSQL: %v", err))
	}
	defer db.Close()

	// Redis
	rdb, err := redis.NewClient(ctx, &redis.Config{
		Host:          cfg.Redis.Host,
		Port:          cfg.Redis.Port,
		Password:      cfg.Redis.Password,
		DB:            cfg.Redis.DB,
		PoolSize:      cfg.Redis.PoolSize,
		MinIdleConns:  cfg.Redis.MinIdleConns,
		DialTimeout:   cfg.Redis.DialTimeout,
		ReadTimeout:   cfg.Redis.ReadTimeout,
		WriteTimeout:  cfg.Redis.WriteTimeout,
		MaxRetries:    3,
		RetryInterval: time.Second,
	})
	if err != nil {
		log.Fatal(fmt.Sprintf("Failed to connect to Redis: %v", err))
	}
	defer rdb.Close()

	container, err := di.NewContainer(ctx, cfg, db, rdb)
	if err != nil {
		log.Fatal(fmt.Sprintf("Failed to build container: %v", err))
	}
	defer container.Close()

	// Reclaim sweep runs in-process alongside the API
	reclaimWorker := worker.NewReclaimWorker(container.ReservationService, &worker.ReclaimWorkerConfig{
		ScanInterval: cfg.Reclaim.ScanInterval,
		BatchSize:    cfg.Reclaim.BatchSize,
	})
	if err := reclaimWorker.Start(ctx); err != nil {
		log.Fatal(fmt.Sprintf("Failed to start reclaim worker: %v", err))
	}
	defer reclaimWorker.Stop()

	router := setupRouter(cfg, rdb, container)

	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		log.Info(fmt.Sprintf("Server listening on %s", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal(fmt.Sprintf("Server error: %v", err))
		}
	}()

	<-ctx.Done()
	log.Info("Shutting down server")

	// Give outstanding requests 30 seconds to complete
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error(fmt.Sprintf("Server forced to shutdown: %v", err))
	}

	log.Info("Server exited gracefully")
}

func setupRouter(cfg *config.Config, rdb *redis.Client, container *di.Container) *gin.Engine {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(telemetry.TracingMiddleware(cfg.App.Name))
	router.Use(requestDurationMiddleware())

	router.GET("/healthz", container.HealthHandler.Liveness)
	router.GET("/readyz", container.HealthHandler.Readiness)

	v1 := router.Group("/api/v1")

	auth := v1.Group("/auth")
	{
		auth.POST("/register", container.AuthHandler.Register)
		auth.POST("/create-admin", container.AuthHandler.CreateAdmin)
		auth.POST("/login", container.AuthHandler.Login)
	}

	events := v1.Group("/events")
	{
		events.GET("", container.EventHandler.ListEvents)
		events.GET("/:id", container.EventHandler.GetEvent)
		events.GET("/:id/availability", container.EventHandler.GetAvailability)
	}

	admin := v1.Group("/admin", middleware.Auth(container.AuthService), middleware.RequireAdmin())
	{
		admin.POST("/events", container.EventHandler.CreateEvent)
		admin.PATCH("/events/:id", container.EventHandler.UpdateEvent)
		admin.DELETE("/events/:id", container.EventHandler.DeleteEvent)
		admin.POST("/events/:id/publish", container.EventHandler.PublishEvent)
		admin.POST("/events/:id/cancel", container.EventHandler.CancelEvent)
	}

	reservations := v1.Group("/reservations", middleware.Auth(container.AuthService))
	reservations.Use(middleware.Idempotency(&middleware.IdempotencyConfig{
		Store: rdb.Client(),
		TTL:   cfg.Hold.TTL,
	}))
	{
		reservations.POST("/hold", container.ReservationHandler.CreateHold)
		reservations.GET("", container.ReservationHandler.GetUserReservations)
		reservations.GET("/:id", container.ReservationHandler.GetReservation)
		reservations.POST("/:id/confirm", container.ReservationHandler.ConfirmReservation)
		reservations.POST("/:id/cancel", container.ReservationHandler.CancelReservation)
	}

	return router
}

// requestDurationMiddleware records per-route request latency
func requestDurationMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		metrics.RecordRequestDuration(c.Request.Context(),
			fmt.Sprintf("%s %s", c.Request.Method, route),
			time.Since(start).Seconds())
	}
}
