package zammad

import (
	"context"
	"net/http"

	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-dashboard/internal/domain"
)

type signInRequest struct {
	Username    string `json:"username"`
	Password    string `json:"password"`
	Fingerprint string `json:"fingerprint"`
}

// SignIn establishes a cookie session with the given credentials.
func (c *Client) SignIn(ctx context.Context, login, password string) error {
	return c.request(ctx, http.MethodPost, "/signin", signInRequest{
		Username:    login,
		Password:    password,
		Fingerprint: "helpdesk-dashboard",
	}, nil)
}

// TestConnection verifies the session by loading the current user, which
// also primes the current-user cache.
func (c *Client) TestConnection(ctx context.Context) (*domain.User, error) {
	c.cacheMu.Lock()
	c.currentUser = nil
	c.cacheMu.Unlock()
	return c.CurrentUser(ctx)
}

// Logout invalidates the session server-side. Failures are logged and
// swallowed; callers always continue to a signed-out state.
func (c *Client) Logout(ctx context.Context) {
	if err := c.request(ctx, http.MethodDelete, "/signout", nil, nil); err != nil {
		c.logger.Warn("logout failed", zap.Error(err))
	}
}
