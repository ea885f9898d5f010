package worker

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/seathold/api/internal/dto"
	"github.com/stretchr/testify/require"
)

// stubReservationService counts reclaim calls; the other operations are
// unused by the worker
type stubReservationService struct {
	reclaimCalls atomic.Int64
	perCall      int
	err          error
}

func (s *stubReservationService) ReclaimExpired(ctx context.Context, batchSize int) (int, error) {
	s.reclaimCalls.Add(1)
	return s.perCall, s.err
}

func (s *stubReservationService) CreateHold(ctx context.Context, userID string, req *dto.CreateHoldRequest) (*dto.HoldResponse, error) {
	panic("not used")
}

func (s *stubReservationService) ConfirmReservation(ctx context.Context, reservationID, userID string) (*dto.ConfirmReservationResponse, error) {
	panic("not used")
}

func (s *stubReservationService) CancelReservation(ctx context.Context, reservationID, userID string) (*dto.CancelReservationResponse, error) {
	panic("not used")
}

func (s *stubReservationService) GetReservation(ctx context.Context, reservationID, userID string) (*dto.ReservationResponse, error) {
	panic("not used")
}

func (s *stubReservationService) GetUserReservations(ctx context.Context, userID, statusFilter string, page, pageSize int) ([]*dto.ReservationResponse, error) {
	panic("not used")
}

func TestReclaimWorker_SweepsOnInterval(t *testing.T) {
	stub := &stubReservationService{perCall: 2}
	w := NewReclaimWorker(stub, &ReclaimWorkerConfig{
		ScanInterval: 10 * time.Millisecond,
		BatchSize:    50,
	})

	require.NoError(t, w.Start(context.Background()))
	defer w.Stop()

	require.Eventually(t, func() bool {
		return stub.reclaimCalls.Load() >= 3
	}, time.Second, 5*time.Millisecond, "worker should sweep repeatedly")

	stats := w.GetStats()
	require.True(t, stats.IsRunning)
	require.Equal(t, 2, stats.LastReclaimCount)
	require.GreaterOrEqual(t, stats.TotalReclaimed, int64(6))
}

func TestReclaimWorker_StartTwiceFails(t *testing.T) {
	w := NewReclaimWorker(&stubReservationService{}, &ReclaimWorkerConfig{
		ScanInterval: time.Hour,
		BatchSize:    10,
	})

	require.NoError(t, w.Start(context.Background()))
	defer w.Stop()

	require.Error(t, w.Start(context.Background()))
}

func TestReclaimWorker_StopIsIdempotent(t *testing.T) {
	w := NewReclaimWorker(&stubReservationService{}, &ReclaimWorkerConfig{
		ScanInterval: time.Hour,
		BatchSize:    10,
	})

	require.NoError(t, w.Start(context.Background()))
	w.Stop()
	w.Stop()

	require.False(t, w.GetStats().IsRunning)
}

func TestReclaimWorker_KeepsSweepingAfterError(t *testing.T) {
	stub := &stubReservationService{err: context.DeadlineExceeded}
	w := NewReclaimWorker(stub, &ReclaimWorkerConfig{
		ScanInterval: 10 * time.Millisecond,
		BatchSize:    50,
	})

	require.NoError(t, w.Start(context.Background()))
	defer w.Stop()

	require.Eventually(t, func() bool {
		return stub.reclaimCalls.Load() >= 2
	}, time.Second, 5*time.Millisecond, "a failed sweep must not stop the loop")
}
