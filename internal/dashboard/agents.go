package dashboard

import (
	"fmt"
	"sort"

	"github.com/spec-kit/helpdesk-dashboard/internal/domain"
)

// AgentStatus is one row of the agent workload table.
type AgentStatus struct {
	OwnerID       int    `json:"owner_id"`
	Name          string `json:"name"`
	ActiveTickets int    `json:"active_tickets"`
	Status        string `json:"status"`
}

var inactiveStates = map[string]struct{}{
	"closed":  {},
	"merged":  {},
	"removed": {},
}

// BuildAgentStatus counts active tickets per owner, skipping the system
// owner and owners with nothing active, heaviest first. Ties keep the order
// in which owners were first seen (user list, then tickets).
func BuildAgentStatus(tickets []domain.Ticket, lookups Lookups) []AgentStatus {
	active := make(map[int]bool, len(lookups.States))
	for id, name := range lookups.States {
		if _, inactive := inactiveStates[domain.Normalize(name)]; !inactive {
			active[id] = true
		}
	}

	var order []int
	rows := map[int]*AgentStatus{}
	for _, u := range lookups.Users {
		if u.ID == domain.SystemOwnerID {
			continue
		}
		if _, seen := rows[u.ID]; seen {
			continue
		}
		rows[u.ID] = &AgentStatus{OwnerID: u.ID, Name: u.AgentName()}
		order = append(order, u.ID)
	}

	for _, t := range tickets {
		if !t.IsAssigned() || !active[t.StateID] {
			continue
		}
		row, ok := rows[t.OwnerID]
		if !ok {
			name := lookups.OwnerNames[t.OwnerID]
			if name == "" {
				name = fmt.Sprintf("Agent %d", t.OwnerID)
			}
			row = &AgentStatus{OwnerID: t.OwnerID, Name: name}
			rows[t.OwnerID] = row
			order = append(order, t.OwnerID)
		}
		row.ActiveTickets++
	}

	agents := make([]AgentStatus, 0, len(order))
	for _, id := range order {
		row := rows[id]
		if row.ActiveTickets == 0 {
			continue
		}
		row.Status = "Working"
		agents = append(agents, *row)
	}
	sort.SliceStable(agents, func(i, j int) bool {
		return agents[i].ActiveTickets > agents[j].ActiveTickets
	})
	return agents
}
