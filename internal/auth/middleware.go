package auth

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/flashdash-service/internal/domain"
	apperrors "github.com/spec-kit/flashdash-service/pkg/util"
)

const sessionKey = "auth_session"

// Session is the authenticated caller, as asserted by a verified token.
// It is stateless: no user row is loaded until a handler needs one.
type Session struct {
	UserID int64
	Role   domain.Role
}

// AuthMiddleware validates bearer tokens and attaches the session.
type AuthMiddleware struct {
	tokens *TokenManager
}

// NewAuthMiddleware constructs middleware.
func NewAuthMiddleware(tokens *TokenManager) *AuthMiddleware {
	return &AuthMiddleware{tokens: tokens}
}

// Handle enforces authentication for protected routes.
func (m *AuthMiddleware) Handle(c *fiber.Ctx) error {
	authHeader := c.Get("Authorization")
	if authHeader == "" {
		return apperrors.NewUnauthorized("missing authorization header")
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return apperrors.NewUnauthorized("invalid authorization header")
	}

	claims, err := m.tokens.ParseToken(parts[1])
	if err != nil {
		return apperrors.NewUnauthorized("invalid or expired token")
	}

	c.Locals(sessionKey, Session{UserID: claims.UserID, Role: claims.Role})
	return c.Next()
}

// SessionFromContext retrieves the authenticated session. Handlers pass the
// returned value explicitly into services rather than re-reading locals.
func SessionFromContext(c *fiber.Ctx) (Session, bool) {
	val := c.Locals(sessionKey)
	if val == nil {
		return Session{}, false
	}
	session, ok := val.(Session)
	return session, ok
}
