package refresh

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/spec-kit/helpdesk-dashboard/internal/domain"
	"github.com/spec-kit/helpdesk-dashboard/internal/zammad"
)

// Outcome is the settled result of one sub-request.
type Outcome[T any] struct {
	Value T
	Err   error
}

func settle[T any](ctx context.Context, fetch func(context.Context) (T, error)) Outcome[T] {
	value, err := fetch(ctx)
	return Outcome[T]{Value: value, Err: err}
}

// orElse degrades a failed outcome to fallback.
func (o Outcome[T]) orElse(fallback T) T {
	if o.Err != nil {
		return fallback
	}
	return o.Value
}

// cycleResult gathers every sub-request of one cycle.
type cycleResult struct {
	tickets      Outcome[[]domain.Ticket]
	states       Outcome[[]domain.State]
	priorities   Outcome[[]domain.Priority]
	articleTypes Outcome[[]domain.ArticleType]
	users        Outcome[[]domain.User]
	currentUser  Outcome[*domain.User]
}

// fetchAll issues every sub-request concurrently and returns once all of
// them have settled.
func fetchAll(ctx context.Context, api API) cycleResult {
	var (
		res cycleResult
		wg  sync.WaitGroup
	)
	wg.Add(6)
	go func() { defer wg.Done(); res.tickets = settle(ctx, api.AllTickets) }()
	go func() { defer wg.Done(); res.states = settle(ctx, api.States) }()
	go func() { defer wg.Done(); res.priorities = settle(ctx, api.Priorities) }()
	go func() { defer wg.Done(); res.articleTypes = settle(ctx, api.ArticleTypes) }()
	go func() { defer wg.Done(); res.users = settle(ctx, api.Users) }()
	go func() { defer wg.Done(); res.currentUser = settle(ctx, api.CurrentUser) }()
	wg.Wait()
	return res
}

// hardError applies the degradation policy. An expired session always ends
// the cycle; tickets, states and priorities are required; users, article
// types and the current user are optional.
func (r cycleResult) hardError() error {
	all := []error{
		r.tickets.Err, r.states.Err, r.priorities.Err,
		r.articleTypes.Err, r.users.Err, r.currentUser.Err,
	}
	for _, err := range all {
		if errors.Is(err, zammad.ErrUnauthenticated) {
			return err
		}
	}
	switch {
	case r.tickets.Err != nil:
		return fmt.Errorf("fetch tickets: %w", r.tickets.Err)
	case r.states.Err != nil:
		return fmt.Errorf("fetch states: %w", r.states.Err)
	case r.priorities.Err != nil:
		return fmt.Errorf("fetch priorities: %w", r.priorities.Err)
	}
	return nil
}

// degraded names the optional sub-requests that failed.
func (r cycleResult) degraded() map[string]error {
	out := map[string]error{}
	if r.users.Err != nil {
		out["users"] = r.users.Err
	}
	if r.articleTypes.Err != nil {
		out["article_types"] = r.articleTypes.Err
	}
	if r.currentUser.Err != nil {
		out["current_user"] = r.currentUser.Err
	}
	return out
}
