package service

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/flashdash-service/internal/auth"
	"github.com/spec-kit/flashdash-service/internal/config"
	"github.com/spec-kit/flashdash-service/internal/domain"
	"github.com/spec-kit/flashdash-service/internal/repository"
	apperrors "github.com/spec-kit/flashdash-service/pkg/util"
)

// UserService implements the admin user-management surface.
type UserService struct {
	users      repository.UserRepository
	bcryptCost int
}

// NewUserService builds the service.
func NewUserService(cfg config.AuthConfig, users repository.UserRepository) *UserService {
	return &UserService{users: users, bcryptCost: cfg.BcryptCost}
}

// List returns every account ordered by id ascending.
func (s *UserService) List(ctx context.Context) ([]domain.User, error) {
	users, err := s.users.List(ctx)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	return users, nil
}

// UpdateRole sets an account's role to one of the assignable roles.
func (s *UserService) UpdateRole(ctx context.Context, id int64, role domain.Role) error {
	if !role.Assignable() {
		return apperrors.NewValidationError("Invalid role", map[string]any{"role": string(role)})
	}

	if err := s.users.UpdateRole(ctx, id, role); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewNotFound("user", nil)
		}
		return apperrors.NewInternalError(err)
	}
	return nil
}

// Create provisions an account with an explicit role.
func (s *UserService) Create(ctx context.Context, name, email, password string, role domain.Role) (*domain.User, error) {
	if name == "" || email == "" || password == "" || role == "" {
		return nil, apperrors.NewValidationError("name, email, password and role are required", nil)
	}
	if !role.Assignable() {
		return nil, apperrors.NewValidationError("Invalid role", map[string]any{"role": string(role)})
	}

	hash, err := auth.HashPassword(password, s.bcryptCost)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}

	user := &domain.User{
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		Role:         role,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrEmailTaken) {
			return nil, apperrors.NewConflict("email already exists", nil)
		}
		return nil, apperrors.NewInternalError(err)
	}
	return user, nil
}

// UpdateInput carries the optional fields of an admin partial update.
type UpdateInput struct {
	Name     *string
	Email    *string
	Password *string
}

// Update applies a partial update. At least one field must be present; the
// password, if given, is re-hashed before it reaches the repository.
func (s *UserService) Update(ctx context.Context, id int64, input UpdateInput) (*domain.User, error) {
	patch := domain.UserPatch{Name: input.Name, Email: input.Email}

	if input.Password != nil {
		hash, err := auth.HashPassword(*input.Password, s.bcryptCost)
		if err != nil {
			return nil, apperrors.NewInternalError(err)
		}
		patch.PasswordHash = &hash
	}
	if patch.Empty() {
		return nil, apperrors.NewValidationError("No fields to update", nil)
	}

	user, err := s.users.UpdateProfile(ctx, id, patch)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("user", nil)
		}
		if errors.Is(err, repository.ErrEmailTaken) {
			return nil, apperrors.NewConflict("email already exists", nil)
		}
		return nil, apperrors.NewInternalError(err)
	}
	return user, nil
}

// Delete removes an account. Tokens minted for it stay valid until expiry;
// Me then reports the account gone.
func (s *UserService) Delete(ctx context.Context, id int64) error {
	if err := s.users.Delete(ctx, id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewNotFound("user", nil)
		}
		return apperrors.NewInternalError(err)
	}
	return nil
}
