package domain

import "time"

// Session is the single live authentication context against the helpdesk.
type Session struct {
	ID        string
	User      User
	StartedAt time.Time
}

// Profile is the header summary of the signed-in agent.
type Profile struct {
	UserID   int    `json:"user_id"`
	Name     string `json:"name"`
	Initials string `json:"initials"`
	Role     string `json:"role"`
}

// ProfileOf builds the header summary for u.
func ProfileOf(u User) Profile {
	return Profile{
		UserID:   u.ID,
		Name:     u.DisplayName(),
		Initials: u.Initials(),
		Role:     u.RoleLabel(),
	}
}
