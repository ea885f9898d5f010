package retry

import (
	"context"
	"errors"
	"testing"
	"time"
)

func fastConfig(maxRetries int) *Config {
	return &Config{
		MaxRetries:      maxRetries,
		InitialInterval: time.Millisecond,
		MaxInterval:     5 * time.Millisecond,
		Multiplier:      2.0,
		JitterFactor:    0,
	}
}

func TestDo_SucceedsFirstAttempt(t *testing.T) {
	calls := 0
	result := Do(context.Background(), fastConfig(3), func(ctx context.Context) error {
		calls++
		return nil
	})

	if result.Err != nil {
		t.Errorf("expected nil error, got %v", result.Err)
	}
	if calls != 1 {
		t.Errorf("expected 1 call, got %d", calls)
	}
}

func TestDo_RetriesUntilSuccess(t *testing.T) {
	calls := 0
	result := Do(context.Background(), fastConfig(5), func(ctx context.Context) error {
		calls++
		if calls < 3 {
			return errors.New("transient")
		}
		return nil
	})

	if result.Err != nil {
		t.Errorf("expected nil error, got %v", result.Err)
	}
	if result.Attempts != 3 {
		t.Errorf("expected 3 attempts, got %d", result.Attempts)
	}
}

func TestDo_ExhaustsRetries(t *testing.T) {
	transient := errors.New("transient")
	result := Do(context.Background(), fastConfig(2), func(ctx context.Context) error {
		return transient
	})

	if !errors.Is(result.Err, ErrMaxAttemptsExceeded) {
		t.Errorf("expected ErrMaxAttemptsExceeded, got %v", result.Err)
	}
	if result.Attempts != 3 {
		t.Errorf("expected 3 attempts (initial + 2 retries), got %d", result.Attempts)
	}
	if !errors.Is(result.LastError, transient) {
		t.Errorf("expected last error %v, got %v", transient, result.LastError)
	}
}

func TestDo_PermanentErrorStopsImmediately(t *testing.T) {
	permanent := errors.New("bad input")
	calls := 0
	result := Do(context.Background(), fastConfig(5), func(ctx context.Context) error {
		calls++
		return Permanent(permanent)
	})

	if !errors.Is(result.Err, permanent) {
		t.Errorf("expected %v, got %v", permanent, result.Err)
	}
	if calls != 1 {
		t.Errorf("expected 1 call, got %d", calls)
	}
}

func TestDo_ContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result := Do(ctx, fastConfig(3), func(ctx context.Context) error {
		return errors.New("should not matter")
	})

	if !errors.Is(result.Err, ErrContextCanceled) {
		t.Errorf("expected ErrContextCanceled, got %v", result.Err)
	}
}

func TestInterval_CapsAtMax(t *testing.T) {
	r := New(&Config{
		MaxRetries:      10,
		InitialInterval: time.Second,
		MaxInterval:     4 * time.Second,
		Multiplier:      2.0,
		JitterFactor:    0,
	})

	if got := r.interval(0); got != time.Second {
		t.Errorf("attempt 0: expected 1s, got %v", got)
	}
	if got := r.interval(10); got != 4*time.Second {
		t.Errorf("attempt 10: expected cap 4s, got %v", got)
	}
}
