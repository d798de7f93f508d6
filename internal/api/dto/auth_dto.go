package dto

import (
	"time"

	"github.com/spec-kit/helpdesk-dashboard/internal/domain"
)

// LoginRequest payload for helpdesk sign-in.
type LoginRequest struct {
	Login    string `json:"login"`
	Password string `json:"password"`
}

// AuthResponse standard response for auth endpoints.
type AuthResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// LoginResponse is returned after a successful sign-in.
type LoginResponse struct {
	SessionID string         `json:"session_id"`
	Profile   domain.Profile `json:"profile"`
	Auth      AuthResponse   `json:"auth"`
}
