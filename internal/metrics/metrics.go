package metrics

import (
	"context"
	"sync"

	"github.com/seathold/api/pkg/telemetry"
	"go.opentelemetry.io/otel/attribute"
)

var (
	// Hold lifecycle counters
	HoldsCreated   *telemetry.Counter
	HoldsConfirmed *telemetry.Counter
	HoldsCanceled  *telemetry.Counter
	HoldsExpired   *telemetry.Counter
	HoldsRejected  *telemetry.Counter

	// Compensation tracking
	SeatsReturned      *telemetry.Counter
	CompensationErrors *telemetry.Counter

	// Histograms
	HoldDuration    *telemetry.Histogram
	RequestDuration *telemetry.Histogram

	// Gauges
	ActiveHolds *telemetry.UpDownCounter

	initOnce sync.Once
	initErr  error
)

// Init initializes all hold metrics
func Init() error {
	initOnce.Do(func() {
		initErr = initMetrics()
	})
	return initErr
}

func initMetrics() error {
	var err error

	HoldsCreated, err = telemetry.NewCounter(telemetry.MetricOpts{
		Name:        "hold_created_total",
		Description: "Total number of seat holds created",
		Unit:        "1",
	})
	if err != nil {
		return err
	}

	HoldsConfirmed, err = telemetry.NewCounter(telemetry.MetricOpts{
		Name:        "hold_confirmed_total",
		Description: "Total number of holds confirmed",
		Unit:        "1",
	})
	if err != nil {
		return err
	}

	HoldsCanceled, err = telemetry.NewCounter(telemetry.MetricOpts{
		Name:        "hold_canceled_total",
		Description: "Total number of holds canceled",
		Unit:        "1",
	})
	if err != nil {
		return err
	}

	HoldsExpired, err = telemetry.NewCounter(telemetry.MetricOpts{
		Name:        "hold_expired_total",
		Description: "Total number of holds reclaimed after expiry",
		Unit:        "1",
	})
	if err != nil {
		return err
	}

	HoldsRejected, err = telemetry.NewCounter(telemetry.MetricOpts{
		Name:        "hold_rejected_total",
		Description: "Total number of hold requests rejected, by reason",
		Unit:        "1",
	})
	if err != nil {
		return err
	}

	SeatsReturned, err = telemetry.NewCounter(telemetry.MetricOpts{
		Name:        "hold_seats_returned_total",
		Description: "Total seats returned to availability by compensation",
		Unit:        "1",
	})
	if err != nil {
		return err
	}

	CompensationErrors, err = telemetry.NewCounter(telemetry.MetricOpts{
		Name:        "hold_compensation_errors_total",
		Description: "Total failures returning seats to availability",
		Unit:        "1",
	})
	if err != nil {
		return err
	}

	HoldDuration, err = telemetry.NewHistogramWithBuckets(telemetry.MetricOpts{
		Name:        "hold_duration_seconds",
		Description: "Time from hold creation to a terminal state",
		Unit:        "s",
	}, []float64{1, 5, 10, 30, 60, 120, 300, 600})
	if err != nil {
		return err
	}

	RequestDuration, err = telemetry.NewHistogramWithBuckets(telemetry.MetricOpts{
		Name:        "hold_request_duration_seconds",
		Description: "HTTP request duration in seconds",
		Unit:        "s",
	}, []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5})
	if err != nil {
		return err
	}

	ActiveHolds, err = telemetry.NewUpDownCounter(telemetry.MetricOpts{
		Name:        "hold_active",
		Description: "Current number of live holds",
		Unit:        "1",
	})
	if err != nil {
		return err
	}

	return nil
}

// RecordHoldCreated records a successful hold
func RecordHoldCreated(ctx context.Context, eventID string, quantity int) {
	if HoldsCreated != nil {
		HoldsCreated.Inc(ctx,
			attribute.String("event_id", eventID),
			attribute.Int("quantity", quantity),
		)
	}
	if ActiveHolds != nil {
		ActiveHolds.Inc(ctx)
	}
}

// RecordHoldConfirmed records a confirmation
func RecordHoldConfirmed(ctx context.Context, eventID string, durationSeconds float64) {
	if HoldsConfirmed != nil {
		HoldsConfirmed.Inc(ctx, attribute.String("event_id", eventID))
	}
	if HoldDuration != nil {
		HoldDuration.Record(ctx, durationSeconds, attribute.String("event_id", eventID))
	}
	if ActiveHolds != nil {
		ActiveHolds.Dec(ctx)
	}
}

// RecordHoldCanceled records a cancellation
func RecordHoldCanceled(ctx context.Context, eventID string) {
	if HoldsCanceled != nil {
		HoldsCanceled.Inc(ctx, attribute.String("event_id", eventID))
	}
	if ActiveHolds != nil {
		ActiveHolds.Dec(ctx)
	}
}

// RecordHoldsExpired records holds reclaimed by the sweep
func RecordHoldsExpired(ctx context.Context, count int64) {
	if HoldsExpired != nil {
		HoldsExpired.Add(ctx, count)
	}
	if ActiveHolds != nil {
		ActiveHolds.Add(ctx, -count)
	}
}

// RecordHoldRejected records a rejected hold request by reason
func RecordHoldRejected(ctx context.Context, eventID, reason string) {
	if HoldsRejected != nil {
		HoldsRejected.Inc(ctx,
			attribute.String("event_id", eventID),
			attribute.String("reason", reason),
		)
	}
}

// RecordSeatsReturned records seats returned by compensation
func RecordSeatsReturned(ctx context.Context, eventID string, quantity int64) {
	if SeatsReturned != nil {
		SeatsReturned.Add(ctx, quantity, attribute.String("event_id", eventID))
	}
}

// RecordCompensationError records a failed seat return
func RecordCompensationError(ctx context.Context, eventID string) {
	if CompensationErrors != nil {
		CompensationErrors.Inc(ctx, attribute.String("event_id", eventID))
	}
}

// RecordRequestDuration records HTTP request duration
func RecordRequestDuration(ctx context.Context, operation string, durationSeconds float64) {
	if RequestDuration != nil {
		RequestDuration.Record(ctx, durationSeconds, attribute.String("operation", operation))
	}
}
