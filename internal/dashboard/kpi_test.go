package dashboard

import (
	"testing"

	"github.com/spec-kit/helpdesk-dashboard/internal/domain"
)

func TestBuildKPIReclassifiesClaimedNewTickets(t *testing.T) {
	lookups := testLookups()
	tests := []struct {
		name    string
		tickets []domain.Ticket
		want    KPI
	}{
		{
			name:    "unassigned new stays new",
			tickets: []domain.Ticket{ticket(1, stateNew, 0)},
			want:    KPI{New: 1, Total: 1},
		},
		{
			name:    "system owner stays new",
			tickets: []domain.Ticket{ticket(1, stateNew, domain.SystemOwnerID)},
			want:    KPI{New: 1, Total: 1},
		},
		{
			name:    "claimed new counts as open",
			tickets: []domain.Ticket{ticket(1, stateNew, 42)},
			want:    KPI{Open: 1, Total: 1},
		},
		{
			name: "mixed states",
			tickets: []domain.Ticket{
				ticket(1, stateOpen, 7),
				ticket(2, statePendingReminder, 7),
				ticket(3, stateClosed, 7),
				ticket(4, stateMerged, 7),
				ticket(5, 99, 7),
			},
			want: KPI{Open: 1, Pending: 1, Closed: 1, Total: 5},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := BuildKPI(tt.tickets, lookups)
			if got != tt.want {
				t.Fatalf("BuildKPI = %+v, want %+v", got, tt.want)
			}
			if sum := got.Open + got.Closed + got.Pending + got.New; sum > got.Total {
				t.Fatalf("bucket sum %d exceeds total %d", sum, got.Total)
			}
		})
	}
}

func TestBuildKPINormalizesStateNames(t *testing.T) {
	lookups := testLookups()
	lookups.States[50] = "  Open "
	got := BuildKPI([]domain.Ticket{ticket(1, 50, 0)}, lookups)
	if got.Open != 1 {
		t.Fatalf("expected padded mixed-case state to count as open, got %+v", got)
	}
}
