package domain

import "time"

// Arrival records a batch of tickets first seen by a refresh cycle.
type Arrival struct {
	ID         string    `json:"id"`
	SessionID  string    `json:"session_id"`
	TicketIDs  []int     `json:"ticket_ids"`
	Count      int       `json:"count"`
	DetectedAt time.Time `json:"detected_at"`
}
