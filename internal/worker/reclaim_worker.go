package worker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/seathold/api/internal/service"
	"github.com/seathold/api/pkg/logger"
)

// ReclaimWorkerConfig contains configuration for the reclaim worker
type ReclaimWorkerConfig struct {
	// ScanInterval is the interval between sweeps for expired holds
	ScanInterval time.Duration
	// BatchSize is the maximum number of holds reclaimed per sweep
	BatchSize int
}

// DefaultReclaimWorkerConfig returns default configuration
func DefaultReclaimWorkerConfig() *ReclaimWorkerConfig {
	return &ReclaimWorkerConfig{
		ScanInterval: 5 * time.Second,
		BatchSize:    100,
	}
}

// ReclaimWorker periodically sweeps lapsed holds and returns their seats
// to availability. The sweep is the single writer of the EXPIRED status,
// so running it alongside the API never double-returns seats.
type ReclaimWorker struct {
	reservations service.ReservationService
	config       *ReclaimWorkerConfig
	log          *logger.Logger
	stopCh       chan struct{}
	wg           sync.WaitGroup
	mu           sync.Mutex
	running      bool

	// Stats
	totalReclaimed   int64
	totalSweeps      int64
	lastSweepTime    time.Time
	lastReclaimCount int
}

// NewReclaimWorker creates a new reclaim worker
func NewReclaimWorker(reservations service.ReservationService, config *ReclaimWorkerConfig) *ReclaimWorker {
	if config == nil {
		config = DefaultReclaimWorkerConfig()
	}

	return &ReclaimWorker{
		reservations: reservations,
		config:       config,
		log:          logger.Get(),
		stopCh:       make(chan struct{}),
	}
}

// Start starts the reclaim worker
func (w *ReclaimWorker) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return fmt.Errorf("reclaim worker already running")
	}
	w.running = true
	w.mu.Unlock()

	w.log.Info("Starting reclaim worker")

	w.wg.Add(1)
	go w.sweepLoop(ctx)

	return nil
}

// Stop stops the reclaim worker and waits for the current sweep to finish
func (w *ReclaimWorker) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	w.running = false
	w.mu.Unlock()

	w.log.Info("Stopping reclaim worker")
	close(w.stopCh)
	w.wg.Wait()
	w.log.Info("Reclaim worker stopped")
}

// sweepLoop runs a sweep every ScanInterval until stopped
func (w *ReclaimWorker) sweepLoop(ctx context.Context) {
	defer w.wg.Done()

	ticker := time.NewTicker(w.config.ScanInterval)
	defer ticker.Stop()

	// Run immediately on start
	w.sweep(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopCh:
			return
		case <-ticker.C:
			w.sweep(ctx)
		}
	}
}

// sweep reclaims one batch of expired holds
func (w *ReclaimWorker) sweep(ctx context.Context) {
	reclaimed, err := w.reservations.ReclaimExpired(ctx, w.config.BatchSize)

	w.mu.Lock()
	w.lastSweepTime = time.Now()
	w.totalSweeps++
	w.lastReclaimCount = reclaimed
	w.totalReclaimed += int64(reclaimed)
	w.mu.Unlock()

	if err != nil {
		w.log.Error(fmt.Sprintf("Reclaim sweep failed: %v", err))
		return
	}

	if reclaimed > 0 {
		w.log.Info(fmt.Sprintf("Reclaimed %d expired holds", reclaimed))
	}
}

// GetStats returns worker statistics
func (w *ReclaimWorker) GetStats() *ReclaimWorkerStats {
	w.mu.Lock()
	defer w.mu.Unlock()

	return &ReclaimWorkerStats{
		IsRunning:        w.running,
		TotalReclaimed:   w.totalReclaimed,
		TotalSweeps:      w.totalSweeps,
		LastSweepTime:    w.lastSweepTime,
		LastReclaimCount: w.lastReclaimCount,
	}
}

// ReclaimWorkerStats contains worker statistics
type ReclaimWorkerStats struct {
	IsRunning        bool      `json:"is_running"`
	TotalReclaimed   int64     `json:"total_reclaimed"`
	TotalSweeps      int64     `json:"total_sweeps"`
	LastSweepTime    time.Time `json:"last_sweep_time"`
	LastReclaimCount int       `json:"last_reclaim_count"`
}
