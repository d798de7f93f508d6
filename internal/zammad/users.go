package zammad

import (
	"context"
	"fmt"
	"net/http"

	"github.com/spec-kit/helpdesk-dashboard/internal/domain"
)

// User looks up a single user, caching successful lookups per id.
func (c *Client) User(ctx context.Context, id int) (domain.User, error) {
	c.cacheMu.Lock()
	cached, ok := c.users[id]
	c.cacheMu.Unlock()
	if ok {
		return cached, nil
	}

	var user domain.User
	if err := c.request(ctx, http.MethodGet, fmt.Sprintf("/users/%d", id), nil, &user); err != nil {
		return domain.User{}, err
	}
	c.cacheMu.Lock()
	c.users[id] = user
	c.cacheMu.Unlock()
	return user, nil
}

// Users lists up to 200 users. Non-admin sessions typically get ErrForbidden.
func (c *Client) Users(ctx context.Context) ([]domain.User, error) {
	var users []domain.User
	if err := c.request(ctx, http.MethodGet, "/users?per_page=200", nil, &users); err != nil {
		return nil, err
	}
	return users, nil
}

// CurrentUser returns the session's own user, cached after the first success.
func (c *Client) CurrentUser(ctx context.Context) (*domain.User, error) {
	c.cacheMu.Lock()
	cached := c.currentUser
	c.cacheMu.Unlock()
	if cached != nil {
		return cached, nil
	}

	var user domain.User
	if err := c.request(ctx, http.MethodGet, "/users/me", nil, &user); err != nil {
		return nil, err
	}
	c.cacheMu.Lock()
	c.currentUser = &user
	c.cacheMu.Unlock()
	return &user, nil
}
