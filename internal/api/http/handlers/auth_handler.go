package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk-dashboard/internal/api/dto"
	"github.com/spec-kit/helpdesk-dashboard/internal/auth"
	"github.com/spec-kit/helpdesk-dashboard/internal/domain"
	"github.com/spec-kit/helpdesk-dashboard/internal/service"
	"github.com/spec-kit/helpdesk-dashboard/internal/zammad"
	apperrors "github.com/spec-kit/helpdesk-dashboard/pkg/util/errorutil"
)

// AuthHandler exposes sign-in and sign-out.
type AuthHandler struct {
	sessions     *service.SessionService
	secureCookie bool
}

// NewAuthHandler constructs handler.
func NewAuthHandler(sessions *service.SessionService, secureCookie bool) *AuthHandler {
	return &AuthHandler{sessions: sessions, secureCookie: secureCookie}
}

// Login handles POST /auth/login.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	result, err := h.sessions.Login(c.UserContext(), req.Login, req.Password)
	switch {
	case errors.Is(err, service.ErrMissingCredentials):
		return apperrors.NewValidationError("login and password required", nil)
	case errors.Is(err, zammad.ErrUnauthenticated):
		return apperrors.NewUnauthenticated("invalid credentials")
	case err != nil:
		return sessionError(err)
	}

	c.Cookie(&fiber.Cookie{
		Name:     auth.TokenCookie,
		Value:    result.Token,
		Path:     "/",
		Expires:  result.ExpiresAt,
		HTTPOnly: true,
		Secure:   h.secureCookie,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
	return c.JSON(fiber.Map{
		"data": dto.LoginResponse{
			SessionID: result.Session.ID,
			Profile:   domain.ProfileOf(result.Session.User),
			Auth:      dto.AuthResponse{Token: result.Token, ExpiresAt: result.ExpiresAt},
		},
	})
}

// Logout handles POST /auth/logout.
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthenticated("authentication required")
	}
	h.sessions.Logout(c.UserContext(), principal.Session.ID)
	c.ClearCookie(auth.TokenCookie)
	return c.SendStatus(fiber.StatusNoContent)
}

// Me handles GET /api/me.
func (h *AuthHandler) Me(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthenticated("authentication required")
	}
	profile, err := h.sessions.Profile(principal.Session.ID)
	if err != nil {
		return sessionError(err)
	}
	return c.JSON(fiber.Map{"data": profile})
}
