package dto

import (
	"time"

	"github.com/spec-kit/flashdash-service/internal/domain"
)

// SignupRequest payload for self-registration.
type SignupRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginRequest payload for login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AuthResponse is the body returned by signup and login.
type AuthResponse struct {
	Token     string      `json:"token"`
	Role      domain.Role `json:"role"`
	Name      string      `json:"name"`
	ExpiresAt time.Time   `json:"expires_at"`
}
