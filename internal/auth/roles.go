package auth

import (
	"github.com/gofiber/fiber/v2"

	apperrors "github.com/spec-kit/helpdesk-dashboard/pkg/util/errorutil"
)

// RequireRole ensures the session's helpdesk account carries one of the
// allowed role ids.
func RequireRole(allowed ...int) fiber.Handler {
	return func(c *fiber.Ctx) error {
		principal, ok := PrincipalFromContext(c)
		if !ok {
			return apperrors.NewUnauthenticated("authentication required")
		}
		if len(allowed) == 0 {
			return c.Next()
		}
		for _, role := range allowed {
			if principal.Session.User.HasRole(role) {
				return c.Next()
			}
		}
		return apperrors.NewForbidden("insufficient role")
	}
}
