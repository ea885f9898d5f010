package domain

import (
	"testing"
	"time"
)

func TestEffectiveStatus(t *testing.T) {
	now := time.Now()

	tests := []struct {
		name        string
		status      ReservationStatus
		expiresAt   time.Time
		wantStatus  ReservationStatus
		wantExpired bool
	}{
		{
			name:       "active hold",
			status:     ReservationStatusHold,
			expiresAt:  now.Add(time.Minute),
			wantStatus: ReservationStatusHold,
		},
		{
			name:        "lapsed hold reads as expired",
			status:      ReservationStatusHold,
			expiresAt:   now.Add(-time.Second),
			wantStatus:  ReservationStatusExpired,
			wantExpired: true,
		},
		{
			name:        "hold at exact deadline reads as expired",
			status:      ReservationStatusHold,
			expiresAt:   now,
			wantStatus:  ReservationStatusExpired,
			wantExpired: true,
		},
		{
			name:       "confirmed is unaffected by deadline",
			status:     ReservationStatusConfirmed,
			expiresAt:  now.Add(-time.Hour),
			wantStatus: ReservationStatusConfirmed,
		},
		{
			name:       "canceled is unaffected by deadline",
			status:     ReservationStatusCanceled,
			expiresAt:  now.Add(-time.Hour),
			wantStatus: ReservationStatusCanceled,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := &Reservation{Status: tt.status, ExpiresAt: tt.expiresAt}

			if got := r.EffectiveStatus(now); got != tt.wantStatus {
				t.Errorf("EffectiveStatus() = %s, want %s", got, tt.wantStatus)
			}
			if got := r.IsExpired(now); got != tt.wantExpired {
				t.Errorf("IsExpired() = %v, want %v", got, tt.wantExpired)
			}
		})
	}
}

func TestIsTerminal(t *testing.T) {
	if (&Reservation{Status: ReservationStatusHold}).IsTerminal() {
		t.Error("HOLD should not be terminal")
	}
	if !(&Reservation{Status: ReservationStatusConfirmed}).IsTerminal() {
		t.Error("CONFIRMED should be terminal")
	}
	if !(&Reservation{Status: ReservationStatusCanceled}).IsTerminal() {
		t.Error("CANCELED should be terminal")
	}
	if (&Reservation{Status: ReservationStatusExpired}).IsTerminal() {
		t.Error("EXPIRED is a read-only view, never a stored status")
	}
}
