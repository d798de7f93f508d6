package dashboard

import (
	"strings"

	"github.com/spec-kit/helpdesk-dashboard/internal/domain"
)

// KPI is the headline ticket count summary. States outside the four buckets
// are only reflected in Total.
type KPI struct {
	Open    int `json:"open"`
	Closed  int `json:"closed"`
	Pending int `json:"pending"`
	New     int `json:"new"`
	Total   int `json:"total"`
	// Escalated mirrors the escalated table total; set by Render.
	Escalated int `json:"escalated"`
}

// BuildKPI classifies each ticket into at most one bucket.
func BuildKPI(tickets []domain.Ticket, lookups Lookups) KPI {
	kpi := KPI{Total: len(tickets)}
	for _, t := range tickets {
		state := lookups.effectiveState(t)
		switch {
		case state == "open":
			kpi.Open++
		case state == "closed":
			kpi.Closed++
		case strings.Contains(state, "pending"):
			kpi.Pending++
		case state == "new":
			kpi.New++
		}
	}
	return kpi
}
