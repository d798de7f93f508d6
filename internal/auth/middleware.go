package auth

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk-dashboard/internal/domain"
	apperrors "github.com/spec-kit/helpdesk-dashboard/pkg/util/errorutil"
)

const (
	principalKey = "auth_principal"
	// SessionIDKey is the fiber local holding the caller's session id.
	SessionIDKey = "session_id"
	// TokenCookie carries the viewer token for browser clients.
	TokenCookie = "dashboard_token"
)

// Principal represents the authenticated viewer.
type Principal struct {
	Session domain.Session
	Claims  *Claims
}

// SessionLookup returns the live dashboard session.
type SessionLookup interface {
	Current() (domain.Session, bool)
}

// AuthMiddleware validates viewer tokens against the live session.
type AuthMiddleware struct {
	tokens   *TokenManager
	sessions SessionLookup
}

// NewAuthMiddleware constructs middleware.
func NewAuthMiddleware(tokens *TokenManager, sessions SessionLookup) *AuthMiddleware {
	return &AuthMiddleware{tokens: tokens, sessions: sessions}
}

// Handle enforces authentication for protected routes.
func (m *AuthMiddleware) Handle(c *fiber.Ctx) error {
	token, err := bearerOrCookie(c)
	if err != nil {
		return err
	}

	claims, err := m.tokens.ParseToken(token)
	if err != nil {
		return apperrors.NewUnauthenticated("invalid token")
	}

	session, ok := m.sessions.Current()
	if !ok || session.ID != claims.SessionID {
		return apperrors.NewUnauthenticated("session expired")
	}

	c.Locals(principalKey, &Principal{Session: session, Claims: claims})
	c.Locals(SessionIDKey, session.ID)
	return c.Next()
}

func bearerOrCookie(c *fiber.Ctx) (string, error) {
	authHeader := c.Get(fiber.HeaderAuthorization)
	if authHeader == "" {
		if cookie := c.Cookies(TokenCookie); cookie != "" {
			return cookie, nil
		}
		return "", apperrors.NewUnauthenticated("missing authorization header")
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", apperrors.NewUnauthenticated("invalid authorization header")
	}
	return parts[1], nil
}

// PrincipalFromContext retrieves the authenticated viewer.
func PrincipalFromContext(c *fiber.Ctx) (*Principal, bool) {
	val := c.Locals(principalKey)
	if val == nil {
		return nil, false
	}
	principal, ok := val.(*Principal)
	return principal, ok
}
