package domain

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
	"time"
)

// SystemOwnerID is the helpdesk's reserved "unassigned/system" owner.
const SystemOwnerID = 1

// Ticket is a point-in-time snapshot of a helpdesk ticket. Only the backend
// mutates tickets; the dashboard replaces its copy wholesale on each refresh.
type Ticket struct {
	ID                  int        `json:"id"`
	Number              FlexString `json:"number"`
	Title               string     `json:"title"`
	StateID             int        `json:"state_id"`
	PriorityID          int        `json:"priority_id"`
	OwnerID             int        `json:"owner_id"`
	CreatedAt           Timestamp  `json:"created_at"`
	UpdatedAt           Timestamp  `json:"updated_at"`
	CloseAt             *Timestamp `json:"close_at"`
	EscalationAt        *Timestamp `json:"escalation_at"`
	CreateArticleTypeID int        `json:"create_article_type_id"`
	CreateArticleType   string     `json:"create_article_type"`
}

// IsAssigned reports whether the ticket has a real (non-sentinel) owner.
func (t Ticket) IsAssigned() bool {
	return t.OwnerID != 0 && t.OwnerID != SystemOwnerID
}

// Timestamp is an ISO-8601 instant that decodes leniently: null, empty and
// unparseable values become the zero time.
type Timestamp struct {
	time.Time
}

// NewTimestamp wraps t.
func NewTimestamp(t time.Time) Timestamp {
	return Timestamp{Time: t}
}

// UnmarshalJSON implements json.Unmarshaler.
func (ts *Timestamp) UnmarshalJSON(data []byte) error {
	ts.Time = time.Time{}
	if bytes.Equal(data, []byte("null")) {
		return nil
	}
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil
	}
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05", "2006-01-02"} {
		if parsed, err := time.Parse(layout, raw); err == nil {
			ts.Time = parsed
			return nil
		}
	}
	return nil
}

// MarshalJSON implements json.Marshaler.
func (ts Timestamp) MarshalJSON() ([]byte, error) {
	if ts.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(ts.UTC().Format(time.RFC3339))
}

// Valid reports whether a possibly nil timestamp carries a time.
func (ts *Timestamp) Valid() bool {
	return ts != nil && !ts.IsZero()
}

// FlexString accepts either a JSON string or number.
type FlexString string

// UnmarshalJSON implements json.Unmarshaler.
func (f *FlexString) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		*f = ""
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*f = FlexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		*f = ""
		return nil
	}
	*f = FlexString(n.String())
	return nil
}

// String returns the raw value.
func (f FlexString) String() string {
	return string(f)
}

// FlexStringFromInt is a convenience for fixtures.
func FlexStringFromInt(n int) FlexString {
	return FlexString(strconv.Itoa(n))
}
