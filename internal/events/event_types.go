package events

import (
	"time"

	"github.com/google/uuid"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventTicketsArrived     EventType = "tickets_arrived"
	EventDashboardRefreshed EventType = "dashboard_refreshed"
	EventSessionExpired     EventType = "session_expired"
)

// Event represents a notification emitted by the refresh loop.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	SessionID string      `json:"session_id"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// NewEvent stamps an event with a fresh id and the current time.
func NewEvent(eventType EventType, sessionID string, payload interface{}) Event {
	return Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		SessionID: sessionID,
		Timestamp: time.Now().UTC(),
		Payload:   payload,
	}
}

// TicketsArrivedPayload payload.
type TicketsArrivedPayload struct {
	TicketIDs []int `json:"ticket_ids"`
}

// Count is the number of new arrivals.
func (p TicketsArrivedPayload) Count() int {
	return len(p.TicketIDs)
}

// DashboardRefreshedPayload payload.
type DashboardRefreshedPayload struct {
	Tickets  int           `json:"tickets"`
	Duration time.Duration `json:"duration"`
}

// SessionExpiredPayload payload.
type SessionExpiredPayload struct {
	Reason string `json:"reason"`
}
