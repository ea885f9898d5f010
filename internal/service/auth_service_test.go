package service

import (
	"context"
	"testing"
	"time"

	"github.com/seathold/api/internal/domain"
	"github.com/seathold/api/internal/dto"
	"github.com/seathold/api/pkg/config"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type mockUserRepo struct {
	createFn     func(ctx context.Context, u *domain.User) error
	getByIDFn    func(ctx context.Context, id string) (*domain.User, error)
	getByEmailFn func(ctx context.Context, email string) (*domain.User, error)
}

func (m *mockUserRepo) Create(ctx context.Context, u *domain.User) error {
	return m.createFn(ctx, u)
}

func (m *mockUserRepo) GetByID(ctx context.Context, id string) (*domain.User, error) {
	return m.getByIDFn(ctx, id)
}

func (m *mockUserRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return m.getByEmailFn(ctx, email)
}

func testJWTConfig() *config.JWTConfig {
	return &config.JWTConfig{
		Secret:         "test-secret",
		AccessTokenTTL: 15 * time.Minute,
		Issuer:         "seathold-test",
	}
}

func TestRegister_Success(t *testing.T) {
	var created *domain.User
	userRepo := &mockUserRepo{
		createFn: func(ctx context.Context, u *domain.User) error {
			created = u
			return nil
		},
	}

	svc := NewAuthService(userRepo, testJWTConfig())

	resp, err := svc.Register(context.Background(), &dto.RegisterRequest{
		Email:    "alice@example.com",
		Name:     "Alice",
		Password: "correct-horse",
	})

	require.NoError(t, err)
	require.NotNil(t, created)
	require.Equal(t, domain.UserRoleUser, created.Role)
	require.NotEqual(t, "correct-horse", created.PasswordHash, "password must be stored hashed")
	require.NoError(t, bcrypt.CompareHashAndPassword([]byte(created.PasswordHash), []byte("correct-horse")))
	require.Equal(t, created.ID, resp.UserID)
	require.NotEmpty(t, resp.AccessToken)
	require.Equal(t, int64(900), resp.ExpiresIn)
}

func TestRegister_EmailTaken(t *testing.T) {
	userRepo := &mockUserRepo{
		createFn: func(ctx context.Context, u *domain.User) error {
			return domain.ErrEmailTaken
		},
	}

	svc := NewAuthService(userRepo, testJWTConfig())

	_, err := svc.Register(context.Background(), &dto.RegisterRequest{
		Email:    "alice@example.com",
		Name:     "Alice",
		Password: "correct-horse",
	})

	require.ErrorIs(t, err, domain.ErrEmailTaken)
}

func TestCreateAdmin_GetsAdminRole(t *testing.T) {
	var created *domain.User
	userRepo := &mockUserRepo{
		createFn: func(ctx context.Context, u *domain.User) error {
			created = u
			return nil
		},
	}

	svc := NewAuthService(userRepo, testJWTConfig())

	resp, err := svc.CreateAdmin(context.Background(), &dto.RegisterRequest{
		Email:    "ops@example.com",
		Name:     "Ops",
		Password: "correct-horse",
	})

	require.NoError(t, err)
	require.Equal(t, domain.UserRoleAdmin, created.Role)

	claims, err := svc.ValidateToken(resp.AccessToken)
	require.NoError(t, err)
	require.Equal(t, string(domain.UserRoleAdmin), claims.Role)
}

func TestLogin_Success(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("correct-horse"), bcrypt.MinCost)
	require.NoError(t, err)

	userRepo := &mockUserRepo{
		getByEmailFn: func(ctx context.Context, email string) (*domain.User, error) {
			return &domain.User{
				ID:           "user-1",
				Email:        email,
				PasswordHash: string(hash),
				Role:         domain.UserRoleUser,
			}, nil
		},
	}

	svc := NewAuthService(userRepo, testJWTConfig())

	resp, err := svc.Login(context.Background(), &dto.LoginRequest{
		Email:    "alice@example.com",
		Password: "correct-horse",
	})

	require.NoError(t, err)
	require.Equal(t, "user-1", resp.UserID)
	require.NotEmpty(t, resp.AccessToken)
}

func TestLogin_WrongPassword(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("correct-horse"), bcrypt.MinCost)
	require.NoError(t, err)

	userRepo := &mockUserRepo{
		getByEmailFn: func(ctx context.Context, email string) (*domain.User, error) {
			return &domain.User{ID: "user-1", Email: email, PasswordHash: string(hash)}, nil
		},
	}

	svc := NewAuthService(userRepo, testJWTConfig())

	_, err = svc.Login(context.Background(), &dto.LoginRequest{
		Email:    "alice@example.com",
		Password: "wrong",
	})

	require.ErrorIs(t, err, domain.ErrInvalidCredentials)
}

func TestLogin_UnknownUserLooksLikeBadPassword(t *testing.T) {
	userRepo := &mockUserRepo{
		getByEmailFn: func(ctx context.Context, email string) (*domain.User, error) {
			return nil, domain.ErrUserNotFound
		},
	}

	svc := NewAuthService(userRepo, testJWTConfig())

	_, err := svc.Login(context.Background(), &dto.LoginRequest{
		Email:    "nobody@example.com",
		Password: "whatever",
	})

	require.ErrorIs(t, err, domain.ErrInvalidCredentials)
}

func TestValidateToken_RoundTrip(t *testing.T) {
	userRepo := &mockUserRepo{
		createFn: func(ctx context.Context, u *domain.User) error { return nil },
	}

	svc := NewAuthService(userRepo, testJWTConfig())

	resp, err := svc.Register(context.Background(), &dto.RegisterRequest{
		Email:    "alice@example.com",
		Name:     "Alice",
		Password: "correct-horse",
	})
	require.NoError(t, err)

	claims, err := svc.ValidateToken(resp.AccessToken)
	require.NoError(t, err)
	require.Equal(t, resp.UserID, claims.UserID)
	require.Equal(t, "alice@example.com", claims.Email)
	require.Equal(t, string(domain.UserRoleUser), claims.Role)
	require.Equal(t, "seathold-test", claims.Issuer)
}

func TestValidateToken_Expired(t *testing.T) {
	userRepo := &mockUserRepo{
		createFn: func(ctx context.Context, u *domain.User) error { return nil },
	}

	svc := NewAuthService(userRepo, testJWTConfig()).(*authService)
	svc.now = func() time.Time { return time.Now().Add(-time.Hour) }

	resp, err := svc.Register(context.Background(), &dto.RegisterRequest{
		Email:    "alice@example.com",
		Name:     "Alice",
		Password: "correct-horse",
	})
	require.NoError(t, err)

	_, err = svc.ValidateToken(resp.AccessToken)
	require.ErrorIs(t, err, domain.ErrInvalidCredentials)
}

func TestValidateToken_Garbage(t *testing.T) {
	svc := NewAuthService(&mockUserRepo{}, testJWTConfig())

	_, err := svc.ValidateToken("not-a-token")
	require.ErrorIs(t, err, domain.ErrInvalidCredentials)
}
