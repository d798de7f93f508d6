package dashboard

import (
	"github.com/spec-kit/helpdesk-dashboard/internal/domain"
)

// Lookups resolves reference ids carried by tickets into display names.
type Lookups struct {
	States       map[int]string
	Priorities   map[int]string
	ArticleTypes map[int]string
	Users        []domain.User
	// OwnerNames holds names resolved individually for owners missing from
	// Users (the user list is often forbidden for non-admins).
	OwnerNames  map[int]string
	CurrentUser *domain.User
}

// NewLookups indexes the reference tables by id.
func NewLookups(states []domain.State, priorities []domain.Priority, articleTypes []domain.ArticleType, users []domain.User, currentUser *domain.User) Lookups {
	l := Lookups{
		States:       make(map[int]string, len(states)),
		Priorities:   make(map[int]string, len(priorities)),
		ArticleTypes: make(map[int]string, len(articleTypes)),
		Users:        users,
		OwnerNames:   map[int]string{},
		CurrentUser:  currentUser,
	}
	for _, s := range states {
		l.States[s.ID] = s.Name
	}
	for _, p := range priorities {
		l.Priorities[p.ID] = p.Name
	}
	for _, a := range articleTypes {
		l.ArticleTypes[a.ID] = a.Name
	}
	return l
}

// stateName returns the raw state name, or "" when unknown.
func (l Lookups) stateName(id int) string {
	return l.States[id]
}

// effectiveState is the normalized state name with the ownership rule
// applied: a "new" ticket that an agent has claimed counts as "open".
func (l Lookups) effectiveState(t domain.Ticket) string {
	state := domain.Normalize(l.stateName(t.StateID))
	if state == "new" && t.IsAssigned() {
		return "open"
	}
	return state
}

func isClosedOrMerged(state string) bool {
	return state == "closed" || state == "merged"
}
