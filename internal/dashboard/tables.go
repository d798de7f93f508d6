package dashboard

import (
	"sort"
	"strconv"
	"time"

	"github.com/spec-kit/helpdesk-dashboard/internal/domain"
)

// MaxTableRows bounds every ticket table.
const MaxTableRows = 10

// TicketRow is one display row of a ticket table.
type TicketRow struct {
	ID            int        `json:"id"`
	Number        string     `json:"number"`
	Title         string     `json:"title"`
	State         string     `json:"state"`
	StateClass    string     `json:"state_class"`
	Priority      string     `json:"priority"`
	PriorityClass string     `json:"priority_class"`
	CreatedAt     *time.Time `json:"created_at,omitempty"`
	Age           string     `json:"age"`
	EscalationAt  *time.Time `json:"escalation_at,omitempty"`
	EscalatedAgo  string     `json:"escalated_ago,omitempty"`
	URL           string     `json:"url"`
}

// Table is a bounded ticket list. Total counts every matching ticket, not
// just the rows shown.
type Table struct {
	Rows         []TicketRow `json:"rows"`
	Total        int         `json:"total"`
	EmptyMessage string      `json:"empty_message,omitempty"`
}

// TableOptions carries what row formatting needs besides the tickets.
type TableOptions struct {
	Now     time.Time
	Loc     *time.Location
	URLBase string
}

// BuildRecentTable lists the newest tickets first.
func BuildRecentTable(tickets []domain.Ticket, lookups Lookups, opts TableOptions) Table {
	sorted := sortedCopy(tickets, func(a, b domain.Ticket) bool {
		return a.CreatedAt.After(b.CreatedAt.Time)
	})
	return newTable(sorted, lookups, opts, "No tickets found", false)
}

// BuildMyTicketsTable lists open work owned by the current user, newest
// first. Without a current user the table is empty.
func BuildMyTicketsTable(tickets []domain.Ticket, lookups Lookups, opts TableOptions) Table {
	var mine []domain.Ticket
	if lookups.CurrentUser != nil {
		for _, t := range tickets {
			if t.OwnerID != lookups.CurrentUser.ID || isClosedOrMerged(lookups.effectiveState(t)) {
				continue
			}
			mine = append(mine, t)
		}
	}
	sorted := sortedCopy(mine, func(a, b domain.Ticket) bool {
		return a.CreatedAt.After(b.CreatedAt.Time)
	})
	return newTable(sorted, lookups, opts, "No tickets assigned to you", false)
}

// BuildEscalatedTable lists tickets whose escalation time has been reached
// (inclusive of now), most overdue first.
func BuildEscalatedTable(tickets []domain.Ticket, lookups Lookups, opts TableOptions) Table {
	var escalated []domain.Ticket
	for _, t := range tickets {
		if !isEscalated(t, lookups, opts.Now) {
			continue
		}
		escalated = append(escalated, t)
	}
	sorted := sortedCopy(escalated, func(a, b domain.Ticket) bool {
		return a.EscalationAt.Before(b.EscalationAt.Time)
	})
	return newTable(sorted, lookups, opts, "No escalated tickets", true)
}

func isEscalated(t domain.Ticket, lookups Lookups, now time.Time) bool {
	if !t.EscalationAt.Valid() || t.EscalationAt.After(now) {
		return false
	}
	return !isClosedOrMerged(lookups.effectiveState(t))
}

func sortedCopy(tickets []domain.Ticket, less func(a, b domain.Ticket) bool) []domain.Ticket {
	out := make([]domain.Ticket, len(tickets))
	copy(out, tickets)
	sort.SliceStable(out, func(i, j int) bool { return less(out[i], out[j]) })
	return out
}

func newTable(tickets []domain.Ticket, lookups Lookups, opts TableOptions, empty string, escalation bool) Table {
	table := Table{Rows: []TicketRow{}, Total: len(tickets)}
	if len(tickets) == 0 {
		table.EmptyMessage = empty
		return table
	}
	limit := len(tickets)
	if limit > MaxTableRows {
		limit = MaxTableRows
	}
	for _, t := range tickets[:limit] {
		table.Rows = append(table.Rows, buildRow(t, lookups, opts, escalation))
	}
	return table
}

func buildRow(t domain.Ticket, lookups Lookups, opts TableOptions, escalation bool) TicketRow {
	loc := opts.Loc
	if loc == nil {
		loc = time.Local
	}
	state := displayState(t, lookups)
	priority := "Normal"
	if name := cleanPriorityName(lookups.Priorities[t.PriorityID]); name != "" {
		priority = name
	}
	row := TicketRow{
		ID:            t.ID,
		Number:        t.Number.String(),
		Title:         t.Title,
		State:         state,
		StateClass:    stateClass(state),
		Priority:      priority,
		PriorityClass: priorityClass(priority),
		Age:           relativeAge(t.CreatedAt.Time, opts.Now, loc),
		URL:           opts.URLBase + "/#ticket/zoom/" + strconv.Itoa(t.ID),
	}
	if row.Number == "" {
		row.Number = strconv.Itoa(t.ID)
	}
	if row.Title == "" {
		row.Title = "No title"
	}
	if !t.CreatedAt.IsZero() {
		created := t.CreatedAt.Time
		row.CreatedAt = &created
	}
	if escalation && t.EscalationAt.Valid() {
		at := t.EscalationAt.Time
		row.EscalationAt = &at
		row.EscalatedAgo = timeSince(at, opts.Now, loc)
	}
	return row
}

// displayState is the raw state name with the ownership rule applied.
func displayState(t domain.Ticket, lookups Lookups) string {
	name := lookups.stateName(t.StateID)
	if name == "" {
		return "Unknown"
	}
	if lookups.effectiveState(t) == "open" && domain.Normalize(name) == "new" {
		return "Open"
	}
	return name
}
