package domain

import (
	"encoding/json"
	"testing"
)

func TestTicketDecodesLeniently(t *testing.T) {
	payload := []byte(`{
		"id": 7,
		"number": 31007,
		"title": "Printer on fire",
		"state_id": 2,
		"owner_id": 42,
		"created_at": "2026-10-14T08:30:00.000Z",
		"updated_at": "not-a-date",
		"close_at": null,
		"escalation_at": "2026-10-15T09:00:00Z"
	}`)

	var ticket Ticket
	if err := json.Unmarshal(payload, &ticket); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if ticket.Number != "31007" {
		t.Fatalf("expected numeric number to decode as string, got %q", ticket.Number)
	}
	if ticket.CreatedAt.IsZero() {
		t.Fatal("expected created_at to parse")
	}
	if !ticket.UpdatedAt.IsZero() {
		t.Fatal("expected malformed updated_at to degrade to zero")
	}
	if ticket.CloseAt.Valid() {
		t.Fatal("expected null close_at to be invalid")
	}
	if !ticket.EscalationAt.Valid() {
		t.Fatal("expected escalation_at to be valid")
	}
	if !ticket.IsAssigned() {
		t.Fatal("expected owner 42 to count as assigned")
	}
}

func TestTicketIsAssignedSentinels(t *testing.T) {
	for _, owner := range []int{0, SystemOwnerID} {
		if (Ticket{OwnerID: owner}).IsAssigned() {
			t.Fatalf("owner %d must not count as assigned", owner)
		}
	}
}

func TestUserNames(t *testing.T) {
	cases := []struct {
		user     User
		display  string
		agent    string
		initials string
		role     string
	}{
		{User{ID: 3, Firstname: "ada", Lastname: "lovelace", RoleIDs: []int{RoleAdmin}}, "ada lovelace", "ada lovelace", "AL", "Admin"},
		{User{ID: 4, Login: "bob", Email: "bob@example.com", RoleIDs: []int{RoleAgent}}, "bob", "bob@example.com", "U", "Agent"},
		{User{ID: 5, Firstname: "Cy"}, "Cy", "User 5", "C", "Agent"},
	}
	for _, tc := range cases {
		if got := tc.user.DisplayName(); got != tc.display {
			t.Fatalf("DisplayName: expected %q, got %q", tc.display, got)
		}
		if got := tc.user.AgentName(); got != tc.agent {
			t.Fatalf("AgentName: expected %q, got %q", tc.agent, got)
		}
		if got := tc.user.Initials(); got != tc.initials {
			t.Fatalf("Initials: expected %q, got %q", tc.initials, got)
		}
		if got := tc.user.RoleLabel(); got != tc.role {
			t.Fatalf("RoleLabel: expected %q, got %q", tc.role, got)
		}
	}
}

func TestUserIsAgentOrAdmin(t *testing.T) {
	if (User{RoleIDs: []int{3}}).IsAgentOrAdmin() {
		t.Fatal("customer role must not be allowed")
	}
	if !(User{RoleIDs: []int{3, RoleAgent}}).IsAgentOrAdmin() {
		t.Fatal("agent role must be allowed")
	}
}
