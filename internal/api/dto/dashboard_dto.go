package dto

import (
	"time"

	"github.com/spec-kit/helpdesk-dashboard/internal/dashboard"
	"github.com/spec-kit/helpdesk-dashboard/internal/refresh"
)

// FiltersRequest changes some of the active filters. Omitted fields keep
// their current value.
type FiltersRequest struct {
	TrendDays    *int    `json:"trend_days"`
	PriorityDays *int    `json:"priority_days"`
	Priority     *string `json:"priority"`
	ChannelDays  *int    `json:"channel_days"`
	Channel      *string `json:"channel"`
}

// VisibilityRequest reports whether the viewer's page is in the foreground.
type VisibilityRequest struct {
	Visible bool `json:"visible"`
}

// DashboardResponse wraps a rendered view.
type DashboardResponse struct {
	View     dashboard.View       `json:"view"`
	Status   refresh.StatusReport `json:"status"`
	Stale    bool                 `json:"stale"`
	StoredAt *time.Time           `json:"stored_at,omitempty"`
}
