package zammad

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strconv"

	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-dashboard/internal/domain"
)

// Tickets fetches a single page of tickets, newest first.
func (c *Client) Tickets(ctx context.Context, page, perPage int) ([]domain.Ticket, error) {
	endpoint := fmt.Sprintf("/tickets?page=%d&per_page=%d&order_by=created_at&sort_by=desc", page, perPage)
	var raw json.RawMessage
	if err := c.request(ctx, http.MethodGet, endpoint, nil, &raw); err != nil {
		return nil, err
	}
	return decodeTickets(raw)
}

// AllTickets pages through the ticket list until a short or empty page is
// returned, or the page ceiling is reached. The ceiling bounds work against a
// misbehaving backend; hitting it does not guarantee completeness.
func (c *Client) AllTickets(ctx context.Context) ([]domain.Ticket, error) {
	var all []domain.Ticket
	for page := 1; page <= c.maxPages; page++ {
		tickets, err := c.Tickets(ctx, page, c.perPage)
		if err != nil {
			return nil, err
		}
		if len(tickets) == 0 {
			break
		}
		all = append(all, tickets...)
		if len(tickets) < c.perPage {
			break
		}
		if page == c.maxPages {
			c.logger.Warn("ticket page ceiling reached",
				zap.Int("max_pages", c.maxPages),
				zap.Int("tickets", len(all)))
		}
	}
	return all, nil
}

// decodeTickets accepts either a JSON array of tickets or an object keyed by
// id whose object values are tickets.
func decodeTickets(raw json.RawMessage) ([]domain.Ticket, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, nil
	}

	if trimmed[0] == '[' {
		var tickets []domain.Ticket
		if err := json.Unmarshal(trimmed, &tickets); err != nil {
			return nil, fmt.Errorf("decode tickets: %w", err)
		}
		return tickets, nil
	}

	var keyed map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &keyed); err != nil {
		return nil, fmt.Errorf("decode tickets: %w", err)
	}
	keys := make([]string, 0, len(keyed))
	for key := range keyed {
		keys = append(keys, key)
	}
	sort.SliceStable(keys, func(i, j int) bool {
		a, errA := strconv.Atoi(keys[i])
		b, errB := strconv.Atoi(keys[j])
		if errA == nil && errB == nil {
			return a < b
		}
		return keys[i] < keys[j]
	})

	tickets := make([]domain.Ticket, 0, len(keys))
	for _, key := range keys {
		value := bytes.TrimSpace(keyed[key])
		if len(value) == 0 || value[0] != '{' {
			continue
		}
		var ticket domain.Ticket
		if err := json.Unmarshal(value, &ticket); err != nil || ticket.ID == 0 {
			continue
		}
		tickets = append(tickets, ticket)
	}
	return tickets, nil
}
