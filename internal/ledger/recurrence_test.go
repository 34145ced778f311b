package ledger

import (
	"testing"
	"time"

	"bilancio/internal/core"
)

func monthlyIncome(day int) core.Income {
	return core.Income{
		Amount:             core.Money{Cents: 150000},
		Description:        "salary",
		IsRecurring:        true,
		RecurringDay:       day,
		RecurringFrequency: core.Monthly,
	}
}

func TestExpandIncomeMonthly(t *testing.T) {
	in := monthlyIncome(10)

	tests := []struct {
		name          string
		year, month   int
		now           time.Time
		wantConfirmed int64
		wantPending   int64
	}{
		{
			name: "current month before anchor day - pending",
			year: 2025, month: 5,
			now:         time.Date(2025, 5, 5, 0, 0, 0, 0, time.UTC),
			wantPending: 150000,
		},
		{
			name: "current month after anchor day - confirmed",
			year: 2025, month: 5,
			now:           time.Date(2025, 5, 15, 0, 0, 0, 0, time.UTC),
			wantConfirmed: 150000,
		},
		{
			name: "anchor day itself - confirmed",
			year: 2025, month: 5,
			now:           time.Date(2025, 5, 10, 0, 0, 0, 0, time.UTC),
			wantConfirmed: 150000,
		},
		{
			name: "past month - always confirmed",
			year: 2025, month: 3,
			now:           time.Date(2025, 5, 5, 0, 0, 0, 0, time.UTC),
			wantConfirmed: 150000,
		},
		{
			name: "future month - always confirmed",
			year: 2025, month: 8,
			now:           time.Date(2025, 5, 5, 0, 0, 0, 0, time.UTC),
			wantConfirmed: 150000,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, err := ExpandIncome(in, tt.year, tt.month, tt.now)
			if err != nil {
				t.Fatalf("ExpandIncome() error = %v", err)
			}
			if b.Confirmed.Cents != tt.wantConfirmed {
				t.Errorf("confirmed = %d, want %d", b.Confirmed.Cents, tt.wantConfirmed)
			}
			if b.Pending.Cents != tt.wantPending {
				t.Errorf("pending = %d, want %d", b.Pending.Cents, tt.wantPending)
			}
			if b.Total.Cents != tt.wantConfirmed+tt.wantPending {
				t.Errorf("total = %d, want %d", b.Total.Cents, tt.wantConfirmed+tt.wantPending)
			}
		})
	}
}

func TestExpandIncomeMonthlyClampsAnchorDay(t *testing.T) {
	in := monthlyIncome(31)
	now := time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)

	b, err := ExpandIncome(in, 2025, 2, now)
	if err != nil {
		t.Fatalf("ExpandIncome() error = %v", err)
	}
	if len(b.Occurrences) != 1 || b.Occurrences[0].Day != 28 {
		t.Errorf("occurrences = %+v, want single occurrence on day 28", b.Occurrences)
	}
}

func TestExpandIncomeBiweeklyWrapsSecondOccurrence(t *testing.T) {
	in := core.Income{
		Amount:             core.Money{Cents: 50000},
		Description:        "side job",
		IsRecurring:        true,
		RecurringDay:       28,
		RecurringFrequency: core.Biweekly,
	}
	// September has 30 days: 28+15-30 = 13, not day 43.
	now := time.Date(2025, 9, 30, 0, 0, 0, 0, time.UTC)
	b, err := ExpandIncome(in, 2025, 9, now)
	if err != nil {
		t.Fatalf("ExpandIncome() error = %v", err)
	}
	if len(b.Occurrences) != 2 {
		t.Fatalf("occurrences = %d, want 2", len(b.Occurrences))
	}
	days := []int{b.Occurrences[0].Day, b.Occurrences[1].Day}
	if days[0] != 28 || days[1] != 13 {
		t.Errorf("occurrence days = %v, want [28 13]", days)
	}
	if b.Total.Cents != 100000 {
		t.Errorf("total = %d, want 100000", b.Total.Cents)
	}
}

func TestExpandIncomeBiweeklyClassifiesIndependently(t *testing.T) {
	in := core.Income{
		Amount:             core.Money{Cents: 50000},
		Description:        "side job",
		IsRecurring:        true,
		RecurringDay:       5,
		RecurringFrequency: core.Biweekly,
	}
	// Day 5 has passed, day 20 has not.
	now := time.Date(2025, 5, 12, 0, 0, 0, 0, time.UTC)
	b, err := ExpandIncome(in, 2025, 5, now)
	if err != nil {
		t.Fatalf("ExpandIncome() error = %v", err)
	}
	if b.Confirmed.Cents != 50000 || b.Pending.Cents != 50000 {
		t.Errorf("confirmed/pending = %d/%d, want 50000/50000", b.Confirmed.Cents, b.Pending.Cents)
	}
}

func TestExpandIncomeWeeklyStaysWithinMonth(t *testing.T) {
	in := core.Income{
		Amount:             core.Money{Cents: 20000},
		Description:        "lessons",
		IsRecurring:        true,
		RecurringDay:       3,
		RecurringFrequency: core.Weekly,
	}
	now := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	// May has 31 days: 3, 10, 17, 24, 31.
	b, err := ExpandIncome(in, 2025, 5, now)
	if err != nil {
		t.Fatalf("ExpandIncome() error = %v", err)
	}
	wantDays := []int{3, 10, 17, 24, 31}
	if len(b.Occurrences) != len(wantDays) {
		t.Fatalf("occurrences = %d, want %d", len(b.Occurrences), len(wantDays))
	}
	for i, occ := range b.Occurrences {
		if occ.Day != wantDays[i] {
			t.Errorf("occurrence %d day = %d, want %d", i, occ.Day, wantDays[i])
		}
		if !occ.Confirmed {
			t.Errorf("occurrence on day %d in a past month should be confirmed", occ.Day)
		}
	}
	if b.Total.Cents != 100000 {
		t.Errorf("total = %d, want 100000", b.Total.Cents)
	}
}

func TestExpandIncomeOneTime(t *testing.T) {
	in := core.Income{
		Amount:      core.Money{Cents: 75000},
		Description: "bonus",
		Date:        time.Date(2025, 5, 20, 0, 0, 0, 0, time.UTC),
	}
	now := time.Date(2025, 5, 10, 0, 0, 0, 0, time.UTC)

	// Inside the month it is confirmed even though its day has not arrived:
	// one-time incomes are never pending.
	b, err := ExpandIncome(in, 2025, 5, now)
	if err != nil {
		t.Fatalf("ExpandIncome() error = %v", err)
	}
	if b.Confirmed.Cents != 75000 || b.Pending.Cents != 0 {
		t.Errorf("confirmed/pending = %d/%d, want 75000/0", b.Confirmed.Cents, b.Pending.Cents)
	}

	// Outside the month it is excluded entirely.
	b, err = ExpandIncome(in, 2025, 6, now)
	if err != nil {
		t.Fatalf("ExpandIncome() error = %v", err)
	}
	if b.Total.Cents != 0 || len(b.Occurrences) != 0 {
		t.Errorf("out-of-month income leaked into breakdown: %+v", b)
	}
}

func TestExpandIncomeUnknownFrequency(t *testing.T) {
	in := monthlyIncome(10)
	in.RecurringFrequency = "daily"
	if _, err := ExpandIncome(in, 2025, 5, time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)); err == nil {
		t.Error("expected error for unknown frequency")
	}
}

func TestSumMonthIncome(t *testing.T) {
	now := time.Date(2025, 5, 12, 0, 0, 0, 0, time.UTC)
	incomes := []core.Income{
		monthlyIncome(10), // confirmed: day passed
		monthlyIncome(25), // pending: day not reached
		{
			Amount:      core.Money{Cents: 30000},
			Description: "refund",
			Date:        time.Date(2025, 5, 2, 0, 0, 0, 0, time.UTC),
		},
	}
	sum, err := SumMonthIncome(incomes, 2025, 5, now)
	if err != nil {
		t.Fatalf("SumMonthIncome() error = %v", err)
	}
	if sum.Confirmed.Cents != 180000 {
		t.Errorf("confirmed = %d, want 180000", sum.Confirmed.Cents)
	}
	if sum.Pending.Cents != 150000 {
		t.Errorf("pending = %d, want 150000", sum.Pending.Cents)
	}
	if sum.Total.Cents != 330000 {
		t.Errorf("total = %d, want 330000", sum.Total.Cents)
	}
}
