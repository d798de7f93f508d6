package dashboard

import (
	"time"

	"github.com/spec-kit/helpdesk-dashboard/internal/domain"
)

var fixedNow = time.Date(2024, time.March, 15, 12, 0, 0, 0, time.UTC)

const (
	stateNew = iota + 1
	stateOpen
	statePendingReminder
	stateClosed
	stateMerged
	stateRemoved
	stateReopened
)

const (
	priorityLow = iota + 1
	priorityNormal
	priorityHigh
)

func testLookups() Lookups {
	current := domain.User{ID: 42, Firstname: "Ada", Lastname: "Lovelace", RoleIDs: []int{domain.RoleAgent}}
	return NewLookups(
		[]domain.State{
			{ID: stateNew, Name: "new"},
			{ID: stateOpen, Name: "open"},
			{ID: statePendingReminder, Name: "pending reminder"},
			{ID: stateClosed, Name: "closed"},
			{ID: stateMerged, Name: "merged"},
			{ID: stateRemoved, Name: "removed"},
			{ID: stateReopened, Name: "reopened"},
		},
		[]domain.Priority{
			{ID: priorityLow, Name: "1 low"},
			{ID: priorityNormal, Name: "2 normal"},
			{ID: priorityHigh, Name: "3 high"},
		},
		[]domain.ArticleType{
			{ID: 1, Name: "email"},
			{ID: 2, Name: "phone"},
			{ID: 3, Name: "telegram personal-message"},
			{ID: 4, Name: "note"},
		},
		[]domain.User{
			{ID: 1, Login: "system"},
			current,
			{ID: 7, Firstname: "Grace", Lastname: "Hopper"},
		},
		&current,
	)
}

type ticketOpt func(*domain.Ticket)

func ticket(id, state, owner int, opts ...ticketOpt) domain.Ticket {
	t := domain.Ticket{
		ID:         id,
		Number:     domain.FlexStringFromInt(10000 + id),
		Title:      "Ticket",
		StateID:    state,
		PriorityID: priorityNormal,
		OwnerID:    owner,
		CreatedAt:  domain.NewTimestamp(fixedNow.Add(-time.Hour)),
		UpdatedAt:  domain.NewTimestamp(fixedNow.Add(-time.Hour)),
	}
	for _, opt := range opts {
		opt(&t)
	}
	return t
}

func createdAt(at time.Time) ticketOpt {
	return func(t *domain.Ticket) { t.CreatedAt = domain.NewTimestamp(at) }
}

func updatedAt(at time.Time) ticketOpt {
	return func(t *domain.Ticket) { t.UpdatedAt = domain.NewTimestamp(at) }
}

func closedAt(at time.Time) ticketOpt {
	return func(t *domain.Ticket) {
		ts := domain.NewTimestamp(at)
		t.CloseAt = &ts
	}
}

func escalationAt(at time.Time) ticketOpt {
	return func(t *domain.Ticket) {
		ts := domain.NewTimestamp(at)
		t.EscalationAt = &ts
	}
}

func withPriority(id int) ticketOpt {
	return func(t *domain.Ticket) { t.PriorityID = id }
}

func withArticleType(id int, name string) ticketOpt {
	return func(t *domain.Ticket) {
		t.CreateArticleTypeID = id
		t.CreateArticleType = name
	}
}
