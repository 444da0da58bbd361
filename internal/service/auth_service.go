package service

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/flashdash-service/internal/auth"
	"github.com/spec-kit/flashdash-service/internal/config"
	"github.com/spec-kit/flashdash-service/internal/domain"
	"github.com/spec-kit/flashdash-service/internal/repository"
	apperrors "github.com/spec-kit/flashdash-service/pkg/util"
)

// AuthResult is what a successful signup or login hands back to the client.
type AuthResult struct {
	Token     string
	ExpiresAt time.Time
	Role      domain.Role
	Name      string
}

// AuthService coordinates signup, login and token-derived profile lookups.
type AuthService struct {
	users      repository.UserRepository
	tokenMgr   *auth.TokenManager
	bcryptCost int
}

// NewAuthService builds the service.
func NewAuthService(cfg config.AuthConfig, users repository.UserRepository) *AuthService {
	return &AuthService{
		users:      users,
		tokenMgr:   auth.NewTokenManager(cfg.JWTSecret, cfg.SessionTokenTTL()),
		bcryptCost: cfg.BcryptCost,
	}
}

// Signup creates a new account with the default "user" role and mints a
// session token for it.
func (s *AuthService) Signup(ctx context.Context, name, email, password string) (*AuthResult, error) {
	if name == "" || email == "" || password == "" {
		return nil, apperrors.NewValidationError("name, email and password are required", nil)
	}

	hash, err := auth.HashPassword(password, s.bcryptCost)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}

	user := &domain.User{
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		Role:         domain.RoleUser,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrEmailTaken) {
			return nil, apperrors.NewConflict("email already exists", nil)
		}
		return nil, apperrors.NewInternalError(err)
	}

	return s.mint(user)
}

// Login authenticates by case-insensitive email and password. Unknown email
// and wrong password collapse into the same error.
func (s *AuthService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	if email == "" || password == "" {
		return nil, apperrors.NewValidationError("email and password are required", nil)
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewInvalidCredentials()
		}
		return nil, apperrors.NewInternalError(err)
	}
	if err := auth.ComparePassword(user.PasswordHash, password); err != nil {
		return nil, apperrors.NewInvalidCredentials()
	}

	return s.mint(user)
}

// Me resolves a session to the current profile. A token can outlive its
// account, so a missing row is NOT_FOUND rather than an auth failure.
func (s *AuthService) Me(ctx context.Context, session auth.Session) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, session.UserID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("user", nil)
		}
		return nil, apperrors.NewInternalError(err)
	}
	return user, nil
}

// TokenManager exposes the underlying token manager for middleware usage.
func (s *AuthService) TokenManager() *auth.TokenManager {
	return s.tokenMgr
}

func (s *AuthService) mint(user *domain.User) (*AuthResult, error) {
	token, expiresAt, err := s.tokenMgr.GenerateToken(user.ID, user.Role)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	return &AuthResult{
		Token:     token,
		ExpiresAt: expiresAt,
		Role:      user.Role,
		Name:      user.Name,
	}, nil
}
