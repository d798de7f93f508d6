package zammad

import (
	"context"
	"net/http"

	"github.com/spec-kit/helpdesk-dashboard/internal/domain"
)

// States returns the ticket state table. Fetched at most once per client;
// failures are not cached.
func (c *Client) States(ctx context.Context) ([]domain.State, error) {
	c.cacheMu.Lock()
	cached := c.states
	c.cacheMu.Unlock()
	if cached != nil {
		return cached, nil
	}

	var states []domain.State
	if err := c.request(ctx, http.MethodGet, "/ticket_states", nil, &states); err != nil {
		return nil, err
	}
	if states == nil {
		states = []domain.State{}
	}
	c.cacheMu.Lock()
	c.states = states
	c.cacheMu.Unlock()
	return states, nil
}

// Priorities returns the ticket priority table, cached like States.
func (c *Client) Priorities(ctx context.Context) ([]domain.Priority, error) {
	c.cacheMu.Lock()
	cached := c.priorities
	c.cacheMu.Unlock()
	if cached != nil {
		return cached, nil
	}

	var priorities []domain.Priority
	if err := c.request(ctx, http.MethodGet, "/ticket_priorities", nil, &priorities); err != nil {
		return nil, err
	}
	if priorities == nil {
		priorities = []domain.Priority{}
	}
	c.cacheMu.Lock()
	c.priorities = priorities
	c.cacheMu.Unlock()
	return priorities, nil
}

// ArticleTypes returns the article type table, cached like States. The
// table is optional metadata; callers usually degrade a failure to empty.
func (c *Client) ArticleTypes(ctx context.Context) ([]domain.ArticleType, error) {
	c.cacheMu.Lock()
	cached := c.articleTypes
	c.cacheMu.Unlock()
	if cached != nil {
		return cached, nil
	}

	var types []domain.ArticleType
	if err := c.request(ctx, http.MethodGet, "/ticket_articles/types", nil, &types); err != nil {
		return nil, err
	}
	if types == nil {
		types = []domain.ArticleType{}
	}
	c.cacheMu.Lock()
	c.articleTypes = types
	c.cacheMu.Unlock()
	return types, nil
}
