package dashboard

import (
	"time"

	"github.com/spec-kit/helpdesk-dashboard/internal/domain"
)

// Filters are the viewer-selected periods and dropdown values.
type Filters struct {
	TrendDays    int    `json:"trend_days"`
	PriorityDays int    `json:"priority_days"`
	Priority     string `json:"priority"`
	ChannelDays  int    `json:"channel_days"`
	Channel      string `json:"channel"`
}

// DefaultFilters selects days for every period and no dropdown filter.
func DefaultFilters(days int) Filters {
	return Filters{
		TrendDays:    days,
		PriorityDays: days,
		Priority:     FilterAll,
		ChannelDays:  days,
		Channel:      FilterAll,
	}
}

// Input is everything a render needs.
type Input struct {
	Tickets       []domain.Ticket
	Lookups       Lookups
	Filters       Filters
	Now           time.Time
	Location      *time.Location
	TicketURLBase string
}

// View is the complete rendered dashboard.
type View struct {
	GeneratedAt time.Time     `json:"generated_at"`
	KPI         KPI           `json:"kpi"`
	Trend       Trend         `json:"trend"`
	Priorities  Distribution  `json:"priorities"`
	Channels    Distribution  `json:"channels"`
	Agents      []AgentStatus `json:"agents"`
	Recent      Table         `json:"recent"`
	Mine        Table         `json:"mine"`
	Escalated   Table         `json:"escalated"`
	Filters     Filters       `json:"filters"`
}

// Render runs every builder over the same snapshot.
func Render(in Input) View {
	loc := in.Location
	if loc == nil {
		loc = time.Local
	}
	opts := TableOptions{Now: in.Now, Loc: loc, URLBase: in.TicketURLBase}

	view := View{
		GeneratedAt: in.Now,
		KPI:         BuildKPI(in.Tickets, in.Lookups),
		Trend:       BuildTrend(in.Tickets, in.Lookups, in.Filters.TrendDays, in.Now, loc),
		Priorities:  BuildPriorityDistribution(in.Tickets, in.Lookups, in.Filters.PriorityDays, in.Filters.Priority, in.Now),
		Channels:    BuildChannelDistribution(in.Tickets, in.Lookups, in.Filters.ChannelDays, in.Filters.Channel, in.Now),
		Agents:      BuildAgentStatus(in.Tickets, in.Lookups),
		Recent:      BuildRecentTable(in.Tickets, in.Lookups, opts),
		Mine:        BuildMyTicketsTable(in.Tickets, in.Lookups, opts),
		Escalated:   BuildEscalatedTable(in.Tickets, in.Lookups, opts),
		Filters:     in.Filters,
	}
	view.KPI.Escalated = view.Escalated.Total
	return view
}
