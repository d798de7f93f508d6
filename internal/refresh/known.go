package refresh

import (
	"sort"

	"github.com/spec-kit/helpdesk-dashboard/internal/domain"
)

// KnownTicketSet holds the ids of the last applied snapshot.
type KnownTicketSet map[int]struct{}

// NewKnownTicketSet collects the ids of tickets.
func NewKnownTicketSet(tickets []domain.Ticket) KnownTicketSet {
	set := make(KnownTicketSet, len(tickets))
	for _, t := range tickets {
		set[t.ID] = struct{}{}
	}
	return set
}

// Arrivals returns the ids present in tickets but absent from the set, in
// ascending order and without duplicates.
func (k KnownTicketSet) Arrivals(tickets []domain.Ticket) []int {
	seen := map[int]struct{}{}
	var ids []int
	for _, t := range tickets {
		if _, ok := k[t.ID]; ok {
			continue
		}
		if _, ok := seen[t.ID]; ok {
			continue
		}
		seen[t.ID] = struct{}{}
		ids = append(ids, t.ID)
	}
	sort.Ints(ids)
	return ids
}
