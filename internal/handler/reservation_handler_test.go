package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/seathold/api/internal/domain"
	"github.com/seathold/api/internal/dto"
	"github.com/seathold/api/pkg/response"
)

// MockReservationService is a mock implementation of ReservationService for testing
type MockReservationService struct {
	CreateHoldFunc          func(ctx context.Context, userID string, req *dto.CreateHoldRequest) (*dto.HoldResponse, error)
	ConfirmReservationFunc  func(ctx context.Context, reservationID, userID string) (*dto.ConfirmReservationResponse, error)
	CancelReservationFunc   func(ctx context.Context, reservationID, userID string) (*dto.CancelReservationResponse, error)
	GetReservationFunc      func(ctx context.Context, reservationID, userID string) (*dto.ReservationResponse, error)
	GetUserReservationsFunc func(ctx context.Context, userID, statusFilter string, page, pageSize int) ([]*dto.ReservationResponse, error)
	ReclaimExpiredFunc      func(ctx context.Context, batchSize int) (int, error)
}

func (m *MockReservationService) CreateHold(ctx context.Context, userID string, req *dto.CreateHoldRequest) (*dto.HoldResponse, error) {
	if m.CreateHoldFunc != nil {
		return m.CreateHoldFunc(ctx, userID, req)
	}
	return nil, nil
}

func (m *MockReservationService) ConfirmReservation(ctx context.Context, reservationID, userID string) (*dto.ConfirmReservationResponse, error) {
	if m.ConfirmReservationFunc != nil {
		return m.ConfirmReservationFunc(ctx, reservationID, userID)
	}
	return nil, nil
}

func (m *MockReservationService) CancelReservation(ctx context.Context, reservationID, userID string) (*dto.CancelReservationResponse, error) {
	if m.CancelReservationFunc != nil {
		return m.CancelReservationFunc(ctx, reservationID, userID)
	}
	return nil, nil
}

func (m *MockReservationService) GetReservation(ctx context.Context, reservationID, userID string) (*dto.ReservationResponse, error) {
	if m.GetReservationFunc != nil {
		return m.GetReservationFunc(ctx, reservationID, userID)
	}
	return nil, nil
}

func (m *MockReservationService) GetUserReservations(ctx context.Context, userID, statusFilter string, page, pageSize int) ([]*dto.ReservationResponse, error) {
	if m.GetUserReservationsFunc != nil {
		return m.GetUserReservationsFunc(ctx, userID, statusFilter, page, pageSize)
	}
	return nil, nil
}

func (m *MockReservationService) ReclaimExpired(ctx context.Context, batchSize int) (int, error) {
	if m.ReclaimExpiredFunc != nil {
		return m.ReclaimExpiredFunc(ctx, batchSize)
	}
	return 0, nil
}

func setupReservationRouter(handler *ReservationHandler, userID string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()

	if userID != "" {
		router.Use(func(c *gin.Context) {
			c.Set("user_id", userID)
			c.Next()
		})
	}

	reservations := router.Group("/reservations")
	{
		reservations.POST("/hold", handler.CreateHold)
		reservations.GET("", handler.GetUserReservations)
		reservations.GET("/:id", handler.GetReservation)
		reservations.POST("/:id/confirm", handler.ConfirmReservation)
		reservations.POST("/:id/cancel", handler.CancelReservation)
	}

	return router
}

func decodeResponse(t *testing.T, w *httptest.ResponseRecorder) *response.Response {
	t.Helper()
	var resp response.Response
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	return &resp
}

func TestReservationHandler_CreateHold(t *testing.T) {
	tests := []struct {
		name           string
		userID         string
		request        *dto.CreateHoldRequest
		mockFunc       func(ctx context.Context, userID string, req *dto.CreateHoldRequest) (*dto.HoldResponse, error)
		expectedStatus int
		expectedCode   string
		wantRetryable  bool
	}{
		{
			name:   "successful hold",
			userID: "user-123",
			request: &dto.CreateHoldRequest{
				EventID:  "event-123",
				Quantity: 2,
			},
			mockFunc: func(ctx context.Context, userID string, req *dto.CreateHoldRequest) (*dto.HoldResponse, error) {
				return &dto.HoldResponse{
					ReservationID: "res-123",
					EventID:       req.EventID,
					Quantity:      req.Quantity,
					Status:        "HOLD",
					ExpiresAt:     time.Now().Add(5 * time.Minute),
				}, nil
			},
			expectedStatus: http.StatusCreated,
		},
		{
			name:           "unauthorized - no user_id",
			userID:         "",
			request:        &dto.CreateHoldRequest{EventID: "event-123", Quantity: 1},
			expectedStatus: http.StatusUnauthorized,
			expectedCode:   "UNAUTHORIZED",
		},
		{
			name:    "rate limited",
			userID:  "user-123",
			request: &dto.CreateHoldRequest{EventID: "event-123", Quantity: 1},
			mockFunc: func(ctx context.Context, userID string, req *dto.CreateHoldRequest) (*dto.HoldResponse, error) {
				return nil, domain.ErrRateLimited
			},
			expectedStatus: http.StatusTooManyRequests,
			expectedCode:   "RATE_LIMITED",
		},
		{
			name:    "event busy is retryable",
			userID:  "user-123",
			request: &dto.CreateHoldRequest{EventID: "event-123", Quantity: 1},
			mockFunc: func(ctx context.Context, userID string, req *dto.CreateHoldRequest) (*dto.HoldResponse, error) {
				return nil, domain.ErrEventBusy
			},
			expectedStatus: http.StatusConflict,
			expectedCode:   "EVENT_BUSY",
			wantRetryable:  true,
		},
		{
			name:    "insufficient seats",
			userID:  "user-123",
			request: &dto.CreateHoldRequest{EventID: "event-123", Quantity: 8},
			mockFunc: func(ctx context.Context, userID string, req *dto.CreateHoldRequest) (*dto.HoldResponse, error) {
				return nil, domain.ErrInsufficientSeats
			},
			expectedStatus: http.StatusConflict,
			expectedCode:   "INSUFFICIENT_SEATS",
		},
		{
			name:    "unpublished event reads as missing",
			userID:  "user-123",
			request: &dto.CreateHoldRequest{EventID: "event-123", Quantity: 1},
			mockFunc: func(ctx context.Context, userID string, req *dto.CreateHoldRequest) (*dto.HoldResponse, error) {
				return nil, domain.ErrEventNotFound
			},
			expectedStatus: http.StatusNotFound,
			expectedCode:   "NOT_FOUND",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := NewReservationHandler(&MockReservationService{
				CreateHoldFunc: tt.mockFunc,
			})
			router := setupReservationRouter(handler, tt.userID)

			body, _ := json.Marshal(tt.request)
			req := httptest.NewRequest(http.MethodPost, "/reservations/hold", bytes.NewBuffer(body))
			req.Header.Set("Content-Type", "application/json")
			w := httptest.NewRecorder()

			router.ServeHTTP(w, req)

			if w.Code != tt.expectedStatus {
				t.Errorf("expected status %d, got %d: %s", tt.expectedStatus, w.Code, w.Body.String())
			}

			if tt.expectedCode != "" {
				resp := decodeResponse(t, w)
				if resp.Error == nil {
					t.Fatalf("expected error payload, got %s", w.Body.String())
				}
				if resp.Error.Code != tt.expectedCode {
					t.Errorf("expected code %s, got %s", tt.expectedCode, resp.Error.Code)
				}
				if resp.Error.Retryable != tt.wantRetryable {
					t.Errorf("expected retryable=%v, got %v", tt.wantRetryable, resp.Error.Retryable)
				}
			}
		})
	}
}

func TestReservationHandler_ConfirmReservation(t *testing.T) {
	tests := []struct {
		name           string
		mockFunc       func(ctx context.Context, reservationID, userID string) (*dto.ConfirmReservationResponse, error)
		expectedStatus int
		expectedCode   string
	}{
		{
			name: "successful confirm",
			mockFunc: func(ctx context.Context, reservationID, userID string) (*dto.ConfirmReservationResponse, error) {
				return &dto.ConfirmReservationResponse{
					ReservationID: reservationID,
					Status:        "CONFIRMED",
					ConfirmedAt:   time.Now(),
				}, nil
			},
			expectedStatus: http.StatusOK,
		},
		{
			name: "hold expired",
			mockFunc: func(ctx context.Context, reservationID, userID string) (*dto.ConfirmReservationResponse, error) {
				return nil, domain.ErrHoldExpired
			},
			expectedStatus: http.StatusConflict,
			expectedCode:   "HOLD_EXPIRED",
		},
		{
			name: "already confirmed",
			mockFunc: func(ctx context.Context, reservationID, userID string) (*dto.ConfirmReservationResponse, error) {
				return nil, domain.ErrAlreadyConfirmed
			},
			expectedStatus: http.StatusConflict,
			expectedCode:   "ALREADY_CONFIRMED",
		},
		{
			name: "not found",
			mockFunc: func(ctx context.Context, reservationID, userID string) (*dto.ConfirmReservationResponse, error) {
				return nil, domain.ErrReservationNotFound
			},
			expectedStatus: http.StatusNotFound,
			expectedCode:   "NOT_FOUND",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := NewReservationHandler(&MockReservationService{
				ConfirmReservationFunc: tt.mockFunc,
			})
			router := setupReservationRouter(handler, "user-123")

			req := httptest.NewRequest(http.MethodPost, "/reservations/res-123/confirm", nil)
			w := httptest.NewRecorder()

			router.ServeHTTP(w, req)

			if w.Code != tt.expectedStatus {
				t.Errorf("expected status %d, got %d: %s", tt.expectedStatus, w.Code, w.Body.String())
			}

			if tt.expectedCode != "" {
				resp := decodeResponse(t, w)
				if resp.Error == nil || resp.Error.Code != tt.expectedCode {
					t.Errorf("expected code %s, got %s", tt.expectedCode, w.Body.String())
				}
			}
		})
	}
}

func TestReservationHandler_CancelReservation(t *testing.T) {
	tests := []struct {
		name           string
		mockFunc       func(ctx context.Context, reservationID, userID string) (*dto.CancelReservationResponse, error)
		expectedStatus int
		expectedCode   string
	}{
		{
			name: "successful cancel",
			mockFunc: func(ctx context.Context, reservationID, userID string) (*dto.CancelReservationResponse, error) {
				return &dto.CancelReservationResponse{
					ReservationID: reservationID,
					Status:        "CANCELED",
				}, nil
			},
			expectedStatus: http.StatusOK,
		},
		{
			name: "already canceled",
			mockFunc: func(ctx context.Context, reservationID, userID string) (*dto.CancelReservationResponse, error) {
				return nil, domain.ErrAlreadyCanceled
			},
			expectedStatus: http.StatusConflict,
			expectedCode:   "ALREADY_CANCELED",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := NewReservationHandler(&MockReservationService{
				CancelReservationFunc: tt.mockFunc,
			})
			router := setupReservationRouter(handler, "user-123")

			req := httptest.NewRequest(http.MethodPost, "/reservations/res-123/cancel", nil)
			w := httptest.NewRecorder()

			router.ServeHTTP(w, req)

			if w.Code != tt.expectedStatus {
				t.Errorf("expected status %d, got %d: %s", tt.expectedStatus, w.Code, w.Body.String())
			}

			if tt.expectedCode != "" {
				resp := decodeResponse(t, w)
				if resp.Error == nil || resp.Error.Code != tt.expectedCode {
					t.Errorf("expected code %s, got %s", tt.expectedCode, w.Body.String())
				}
			}
		})
	}
}

func TestReservationHandler_GetUserReservations(t *testing.T) {
	var gotStatus string
	var gotPage, gotPageSize int
	handler := NewReservationHandler(&MockReservationService{
		GetUserReservationsFunc: func(ctx context.Context, userID, statusFilter string, page, pageSize int) ([]*dto.ReservationResponse, error) {
			gotStatus = statusFilter
			gotPage, gotPageSize = page, pageSize
			return []*dto.ReservationResponse{{ID: "res-1", Status: "HOLD"}}, nil
		},
	})
	router := setupReservationRouter(handler, "user-123")

	req := httptest.NewRequest(http.MethodGet, "/reservations?status=HOLD&page=2&page_size=5", nil)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", w.Code, w.Body.String())
	}
	if gotPage != 2 || gotPageSize != 5 {
		t.Errorf("expected page=2 page_size=5, got page=%d page_size=%d", gotPage, gotPageSize)
	}
	if gotStatus != "HOLD" {
		t.Errorf("expected status filter HOLD, got %q", gotStatus)
	}
}
