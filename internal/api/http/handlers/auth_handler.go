package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/flashdash-service/internal/api/dto"
	"github.com/spec-kit/flashdash-service/internal/auth"
	"github.com/spec-kit/flashdash-service/internal/service"
	apperrors "github.com/spec-kit/flashdash-service/pkg/util"
)

// AuthHandler exposes signup, login and profile endpoints.
type AuthHandler struct {
	auth *service.AuthService
}

// NewAuthHandler constructs handler.
func NewAuthHandler(authService *service.AuthService) *AuthHandler {
	return &AuthHandler{auth: authService}
}

// Signup handles POST /api/signup.
func (h *AuthHandler) Signup(c *fiber.Ctx) error {
	var req dto.SignupRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	result, err := h.auth.Signup(c.UserContext(), req.Name, req.Email, req.Password)
	if err != nil {
		return err
	}

	return c.JSON(dto.AuthResponse{
		Token:     result.Token,
		Role:      result.Role,
		Name:      result.Name,
		ExpiresAt: result.ExpiresAt,
	})
}

// Login handles POST /api/login.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	result, err := h.auth.Login(c.UserContext(), req.Email, req.Password)
	if err != nil {
		return err
	}

	return c.JSON(dto.AuthResponse{
		Token:     result.Token,
		Role:      result.Role,
		Name:      result.Name,
		ExpiresAt: result.ExpiresAt,
	})
}

// Me handles GET /api/me.
func (h *AuthHandler) Me(c *fiber.Ctx) error {
	session, ok := auth.SessionFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}

	user, err := h.auth.Me(c.UserContext(), session)
	if err != nil {
		return err
	}
	return c.JSON(dto.NewUserProfile(user))
}
