// Standalone reclaim sweep. Deployments that scale the API horizontally
// run one of these instead of the in-process sweep to avoid redundant
// scans; overlapping sweeps are safe either way.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/seathold/api/internal/di"
	"github.com/seathold/api/internal/metrics"
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
		ServiceName: cfg.App.Name + "-reclaim",
		Development: cfg.IsDevelopment(),
	}); err != nil {
		fmt.Fprintf(os.Stderr, "failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()
	log := logger.Get()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	_, err = telemetry.Init(ctx, &telemetry.Config{
		Enabled:        cfg.OTel.Enabled,
		ServiceName:    cfg.OTel.ServiceName + "-reclaim",
		ServiceVersion: cfg.App.Version,
		Environment:    cfg.App.Environment,
		CollectorAddr:  cfg.OTel.CollectorAddr,
		SampleRatio:    cfg.OTel.SampleRatio,
	})
	if err != nil {
		log.Fatal(fmt.Sprintf("Failed to init telemetry: %v", err))
	}
	defer func() {
		_ = telemetry.Shutdown(context.Background())
	}()

	if err := metrics.Init(); err != nil {
		log.Fatal(fmt.Sprintf("Failed to init metrics: %v", err))
	}

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

	reclaimWorker := worker.NewReclaimWorker(container.ReservationService, &worker.ReclaimWorkerConfig{
		ScanInterval: cfg.Reclaim.ScanInterval,
		BatchSize:    cfg.Reclaim.BatchSize,
	})
	if err := reclaimWorker.Start(ctx); err != nil {
		log.Fatal(fmt.Sprintf("Failed to start reclaim worker: %v", err))
	}

	log.Info("Reclaim worker running")
	<-ctx.Done()

	reclaimWorker.Stop()
	log.Info("Reclaim worker exited gracefully")
}
