package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/seathold/api/internal/domain"
	"github.com/seathold/api/internal/dto"
	"github.com/seathold/api/internal/repository"
	"github.com/seathold/api/pkg/config"
	"github.com/seathold/api/pkg/telemetry"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/crypto/bcrypt"
)

// AuthService defines the interface for registration and login
type AuthService interface {
	// Register creates a user account and issues an access token
	Register(ctx context.Context, req *dto.RegisterRequest) (*dto.AuthResponse, error)

	// CreateAdmin creates an admin account and issues an access token.
	// Intended for environment bootstrap, not end-user signup.
	CreateAdmin(ctx context.Context, req *dto.RegisterRequest) (*dto.AuthResponse, error)

	// Login verifies credentials and issues an access token
	Login(ctx context.Context, req *dto.LoginRequest) (*dto.AuthResponse, error)

	// ValidateToken parses and verifies an access token
	ValidateToken(tokenString string) (*TokenClaims, error)
}

// TokenClaims are the claims carried by an access token
type TokenClaims struct {
	UserID string
	Email  string
	Role   string
	jwt.RegisteredClaims
}

// authService implements AuthService
type authService struct {
	userRepo repository.UserRepository
	secret   []byte
	tokenTTL time.Duration
	issuer   string
	now      func() time.Time
}

// NewAuthService creates a new auth service
func NewAuthService(userRepo repository.UserRepository, cfg *config.JWTConfig) AuthService {
	tokenTTL := 15 * time.Minute
	issuer := "seathold"
	var secret []byte
	if cfg != nil {
		secret = []byte(cfg.Secret)
		if cfg.AccessTokenTTL > 0 {
			tokenTTL = cfg.AccessTokenTTL
		}
		if cfg.Issuer != "" {
			issuer = cfg.Issuer
		}
	}
	return &authService{
		userRepo: userRepo,
		secret:   secret,
		tokenTTL: tokenTTL,
		issuer:   issuer,
		now:      time.Now,
	}
}

// Register creates a user account and issues an access token
func (s *authService) Register(ctx context.Context, req *dto.RegisterRequest) (*dto.AuthResponse, error) {
	return s.register(ctx, req, domain.UserRoleUser)
}

// CreateAdmin creates an admin account and issues an access token
func (s *authService) CreateAdmin(ctx context.Context, req *dto.RegisterRequest) (*dto.AuthResponse, error) {
	return s.register(ctx, req, domain.UserRoleAdmin)
}

func (s *authService) register(ctx context.Context, req *dto.RegisterRequest, role domain.UserRole) (*dto.AuthResponse, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.auth.register")
	defer span.End()

	if req == nil || req.Email == "" || req.Password == "" {
		span.SetStatus(codes.Error, "invalid credentials")
		return nil, domain.ErrInvalidCredentials
	}
	span.SetAttributes(
		attribute.String("email", req.Email),
		attribute.String("role", string(role)),
	)

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	now := s.now()
	user := &domain.User{
		ID:           uuid.New().String(),
		Email:        req.Email,
		Name:         req.Name,
		PasswordHash: string(hash),
		Role:         role,
		CreatedAt:    now,
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	token, err := s.issueToken(user)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	span.SetAttributes(attribute.String("user_id", user.ID))
	span.SetStatus(codes.Ok, "")
	return &dto.AuthResponse{
		UserID:      user.ID,
		Email:       user.Email,
		AccessToken: token,
		ExpiresIn:   int64(s.tokenTTL.Seconds()),
	}, nil
}

// Login verifies credentials and issues an access token
func (s *authService) Login(ctx context.Context, req *dto.LoginRequest) (*dto.AuthResponse, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.auth.login")
	defer span.End()

	if req == nil || req.Email == "" || req.Password == "" {
		span.SetStatus(codes.Error, "invalid credentials")
		return nil, domain.ErrInvalidCredentials
	}
	span.SetAttributes(attribute.String("email", req.Email))

	user, err := s.userRepo.GetByEmail(ctx, req.Email)
	if err != nil {
		// A missing user and a wrong password look the same to callers
		if errors.Is(err, domain.ErrUserNotFound) {
			span.SetStatus(codes.Error, "invalid credentials")
			return nil, domain.ErrInvalidCredentials
		}
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		span.SetStatus(codes.Error, "invalid credentials")
		return nil, domain.ErrInvalidCredentials
	}

	token, err := s.issueToken(user)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	span.SetAttributes(attribute.String("user_id", user.ID))
	span.SetStatus(codes.Ok, "")
	return &dto.AuthResponse{
		UserID:      user.ID,
		Email:       user.Email,
		AccessToken: token,
		ExpiresIn:   int64(s.tokenTTL.Seconds()),
	}, nil
}

// ValidateToken parses and verifies an access token
func (s *authService) ValidateToken(tokenString string) (*TokenClaims, error) {
	claims := &TokenClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil || !token.Valid {
		return nil, domain.ErrInvalidCredentials
	}
	return claims, nil
}

func (s *authService) issueToken(user *domain.User) (string, error) {
	now := s.now()
	claims := &TokenClaims{
		UserID: user.ID,
		Email:  user.Email,
		Role:   string(user.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			Issuer:    s.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.tokenTTL)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}
