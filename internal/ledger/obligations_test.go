package ledger

import (
	"testing"
	"time"

	"bilancio/internal/core"
)

func testServices() []core.RecurringService {
	return []core.RecurringService{
		{ID: 1, Name: "internet", EstimatedAmount: core.Money{Cents: 3000}, DayOfMonth: 20, Active: true},
		{ID: 2, Name: "rent", EstimatedAmount: core.Money{Cents: 95000}, DayOfMonth: 5, Active: true},
		{ID: 3, Name: "old gym", EstimatedAmount: core.Money{Cents: 4000}, DayOfMonth: 1, Active: false},
	}
}

func TestSummarizeObligations(t *testing.T) {
	now := time.Date(2025, 5, 12, 0, 0, 0, 0, time.UTC)
	payments := []core.ServicePayment{
		{ServiceID: 2, Month: 5, Year: 2025, Status: core.StatusPaid, Amount: core.Money{Cents: 96000}, ExpenseID: 11},
		// A payment for another month must not count.
		{ServiceID: 1, Month: 4, Year: 2025, Status: core.StatusPaid, Amount: core.Money{Cents: 3000}, ExpenseID: 9},
	}

	sum := SummarizeObligations(testServices(), payments, 5, 2025, now)

	if len(sum.Statuses) != 2 {
		t.Fatalf("statuses = %d, want 2 (inactive services skipped)", len(sum.Statuses))
	}
	// Sorted by due day ascending: rent (5) before internet (20).
	if sum.Statuses[0].Service.ID != 2 || sum.Statuses[1].Service.ID != 1 {
		t.Errorf("statuses not sorted by due day: %+v", sum.Statuses)
	}

	rent := sum.Statuses[0]
	if !rent.Paid || rent.Amount.Cents != 96000 || rent.ExpenseID != 11 {
		t.Errorf("rent status = %+v, want paid 96000 linked to expense 11", rent)
	}
	if rent.Overdue {
		t.Error("paid obligation must not be overdue")
	}

	internet := sum.Statuses[1]
	if internet.Paid {
		t.Error("internet should be pending: its payment row is for April")
	}
	if internet.Amount.Cents != 3000 {
		t.Errorf("pending obligation amount = %d, want estimated 3000", internet.Amount.Cents)
	}
	if internet.Overdue {
		t.Error("internet due day 20 has not passed on the 12th")
	}

	if sum.PaidTotal.Cents != 96000 {
		t.Errorf("paid total = %d, want 96000", sum.PaidTotal.Cents)
	}
	if sum.PendingTotal.Cents != 3000 {
		t.Errorf("pending total = %d, want 3000", sum.PendingTotal.Cents)
	}
}

func TestSummarizeObligationsOverdue(t *testing.T) {
	tests := []struct {
		name        string
		month, year int
		now         time.Time
		wantOverdue bool
	}{
		{
			name:  "current month, due day passed",
			month: 5, year: 2025,
			now:         time.Date(2025, 5, 25, 0, 0, 0, 0, time.UTC),
			wantOverdue: true,
		},
		{
			name:  "current month, on due day",
			month: 5, year: 2025,
			now:         time.Date(2025, 5, 20, 0, 0, 0, 0, time.UTC),
			wantOverdue: false,
		},
		{
			name:  "past month",
			month: 3, year: 2025,
			now:         time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC),
			wantOverdue: true,
		},
		{
			name:  "future month",
			month: 7, year: 2025,
			now:         time.Date(2025, 5, 25, 0, 0, 0, 0, time.UTC),
			wantOverdue: false,
		},
	}

	services := []core.RecurringService{
		{ID: 1, Name: "internet", EstimatedAmount: core.Money{Cents: 3000}, DayOfMonth: 20, Active: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sum := SummarizeObligations(services, nil, tt.month, tt.year, tt.now)
			if len(sum.Statuses) != 1 {
				t.Fatalf("statuses = %d, want 1", len(sum.Statuses))
			}
			if sum.Statuses[0].Overdue != tt.wantOverdue {
				t.Errorf("overdue = %v, want %v", sum.Statuses[0].Overdue, tt.wantOverdue)
			}
		})
	}
}
