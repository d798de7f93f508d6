package dashboard

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

var priorityPrefix = regexp.MustCompile(`^\d+\s+`)

// cleanPriorityName drops the numeric ordering prefix ("2 normal" -> "normal").
func cleanPriorityName(name string) string {
	return priorityPrefix.ReplaceAllString(name, "")
}

func stateClass(state string) string {
	lower := strings.ToLower(state)
	switch {
	case lower == "new":
		return "state-new"
	case lower == "open":
		return "state-open"
	case lower == "closed":
		return "state-closed"
	case strings.Contains(lower, "pending"):
		return "state-pending"
	case lower == "merged":
		return "state-merged"
	}
	return "state-open"
}

func priorityClass(priority string) string {
	lower := strings.ToLower(priority)
	switch {
	case strings.Contains(lower, "low"):
		return "priority-low"
	case strings.Contains(lower, "normal"):
		return "priority-normal"
	case strings.Contains(lower, "high") && !strings.Contains(lower, "very"):
		return "priority-high"
	case strings.Contains(lower, "urgent"), strings.Contains(lower, "very high"):
		return "priority-urgent"
	}
	return "priority-normal"
}

// relativeAge renders hour-granularity ages: "Just now", "5h ago", "3d ago",
// then the calendar date.
func relativeAge(t, now time.Time, loc *time.Location) string {
	if t.IsZero() {
		return "Unknown"
	}
	diff := now.Sub(t)
	hours := int(diff / time.Hour)
	days := int(diff / (24 * time.Hour))
	switch {
	case hours < 1:
		return "Just now"
	case hours < 24:
		return fmt.Sprintf("%dh ago", hours)
	case days < 7:
		return fmt.Sprintf("%dd ago", days)
	}
	return t.In(loc).Format("Jan 2")
}

// timeSince is relativeAge with minute granularity.
func timeSince(t, now time.Time, loc *time.Location) string {
	if t.IsZero() {
		return "Unknown"
	}
	diff := now.Sub(t)
	minutes := int(diff / time.Minute)
	switch {
	case minutes < 1:
		return "Just now"
	case minutes < 60:
		return fmt.Sprintf("%dm ago", minutes)
	}
	return relativeAge(t, now, loc)
}
