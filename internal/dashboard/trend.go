package dashboard

import (
	"strings"
	"time"

	"github.com/spec-kit/helpdesk-dashboard/internal/domain"
)

const dayLayout = "2006-01-02"

// Trend holds per-day series for a trailing window ending today.
//
// InProgress and Reopened are approximations: without a state history the
// only facts available are the current state and timestamps. InProgress
// projects every ticket that is assigned and in a working state today back
// onto each day on or after its creation. Reopened counts tickets whose
// current state mentions "reopen" on the day they were last updated.
type Trend struct {
	Days       int      `json:"days"`
	Dates      []string `json:"dates"`
	Labels     []string `json:"labels"`
	Created    []int    `json:"created"`
	Closed     []int    `json:"closed"`
	InProgress []int    `json:"in_progress"`
	Reopened   []int    `json:"reopened"`
}

// BuildTrend computes the trend series for the trailing days window. Day
// boundaries are calendar days in loc.
func BuildTrend(tickets []domain.Ticket, lookups Lookups, days int, now time.Time, loc *time.Location) Trend {
	if days < 1 {
		days = 1
	}
	if loc == nil {
		loc = time.Local
	}
	trend := Trend{
		Days:       days,
		Dates:      make([]string, 0, days),
		Labels:     make([]string, 0, days),
		Created:    make([]int, days),
		Closed:     make([]int, days),
		InProgress: make([]int, days),
		Reopened:   make([]int, days),
	}

	today := now.In(loc)
	index := make(map[string]int, days)
	for i := days - 1; i >= 0; i-- {
		day := today.AddDate(0, 0, -i)
		key := day.Format(dayLayout)
		index[key] = len(trend.Dates)
		trend.Dates = append(trend.Dates, key)
		trend.Labels = append(trend.Labels, dayLabel(day, days))
	}

	for _, t := range tickets {
		created := dayKey(t.CreatedAt.Time, loc)
		if i, ok := index[created]; ok {
			trend.Created[i]++
		}
		if t.CloseAt.Valid() {
			if i, ok := index[dayKey(t.CloseAt.Time, loc)]; ok {
				trend.Closed[i]++
			}
		}

		state := domain.Normalize(lookups.stateName(t.StateID))
		if created != "" && t.IsAssigned() && isWorkingState(state) {
			for i, date := range trend.Dates {
				if created <= date {
					trend.InProgress[i]++
				}
			}
		}
		if strings.Contains(state, "reopen") {
			if i, ok := index[dayKey(t.UpdatedAt.Time, loc)]; ok {
				trend.Reopened[i]++
			}
		}
	}
	return trend
}

func isWorkingState(state string) bool {
	return state == "open" || state == "new" || strings.Contains(state, "progress")
}

func dayKey(t time.Time, loc *time.Location) string {
	if t.IsZero() {
		return ""
	}
	return t.In(loc).Format(dayLayout)
}

func dayLabel(day time.Time, days int) string {
	if days <= 7 {
		return day.Format("Mon")
	}
	return day.Format("Jan 2")
}
