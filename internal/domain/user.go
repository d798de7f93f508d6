package domain

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// Role ids as assigned by the helpdesk.
const (
	RoleAdmin = 1
	RoleAgent = 2
)

// User is a helpdesk account.
type User struct {
	ID        int    `json:"id"`
	Login     string `json:"login"`
	Firstname string `json:"firstname"`
	Lastname  string `json:"lastname"`
	Email     string `json:"email"`
	RoleIDs   []int  `json:"role_ids"`
}

// PlaceholderUser is returned when a user lookup fails.
func PlaceholderUser(id int) User {
	return User{ID: id, Firstname: "Unknown", Lastname: "User"}
}

// HasRole reports whether the user carries the role id.
func (u User) HasRole(role int) bool {
	for _, id := range u.RoleIDs {
		if id == role {
			return true
		}
	}
	return false
}

// IsAgentOrAdmin reports whether the user may use the agent dashboard.
func (u User) IsAgentOrAdmin() bool {
	return u.HasRole(RoleAdmin) || u.HasRole(RoleAgent)
}

// RoleLabel is the header role caption.
func (u User) RoleLabel() string {
	if u.HasRole(RoleAdmin) {
		return "Admin"
	}
	return "Agent"
}

// DisplayName joins first and last name, falling back to the login.
func (u User) DisplayName() string {
	full := strings.TrimSpace(u.Firstname + " " + u.Lastname)
	if full != "" {
		return full
	}
	if u.Login != "" {
		return u.Login
	}
	return "User"
}

// AgentName is the name shown in workload listings.
func (u User) AgentName() string {
	if u.Firstname != "" && u.Lastname != "" {
		return u.Firstname + " " + u.Lastname
	}
	if u.Email != "" {
		return u.Email
	}
	return fmt.Sprintf("User %d", u.ID)
}

// Initials returns up to two upper-case initials.
func (u User) Initials() string {
	initials := firstRune(u.Firstname) + firstRune(u.Lastname)
	if initials == "" {
		return "U"
	}
	return strings.ToUpper(initials)
}

func firstRune(s string) string {
	if s == "" {
		return ""
	}
	r, _ := utf8.DecodeRuneInString(s)
	return string(r)
}
