package ledger

import (
	"testing"
	"time"

	"bilancio/internal/core"
)

func expenseOn(day int, cents int64) core.Expense {
	return core.Expense{
		Amount:        core.Money{Cents: cents},
		Description:   "expense",
		Date:          time.Date(2025, 9, day, 0, 0, 0, 0, time.UTC),
		FinancialType: core.Needs,
		PaymentStatus: core.StatusPaid,
	}
}

func TestComputeMonthBalance(t *testing.T) {
	// September 17th: 14 days remain (30 - 17 + 1).
	now := time.Date(2025, 9, 17, 0, 0, 0, 0, time.UTC)

	in := BalanceInput{
		Expenses: []core.Expense{
			expenseOn(3, 100000),
			expenseOn(10, 50000),
		},
		Income:      MonthIncome{Confirmed: core.Money{Cents: 300000}},
		Obligations: ObligationSummary{PendingTotal: core.Money{Cents: 30000}},
		Carryover:   core.Money{Cents: 20000},
	}

	b := ComputeMonthBalance(in, now)

	if b.TotalIncome.Cents != 320000 {
		t.Errorf("total income = %d, want 320000", b.TotalIncome.Cents)
	}
	if b.TotalExpenses.Cents != 150000 {
		t.Errorf("total expenses = %d, want 150000", b.TotalExpenses.Cents)
	}
	if b.GrossBalance.Cents != 170000 {
		t.Errorf("gross balance = %d, want 170000", b.GrossBalance.Cents)
	}
	// balance = confirmed income + carryover - expenses - pending recurring
	if b.Balance.Cents != 140000 {
		t.Errorf("balance = %d, want 140000", b.Balance.Cents)
	}
	if b.DaysRemaining != 14 {
		t.Errorf("days remaining = %d, want 14", b.DaysRemaining)
	}
	if b.AvailableDaily.Cents != 10000 {
		t.Errorf("available daily = %d, want 10000", b.AvailableDaily.Cents)
	}
}

func TestComputeMonthBalanceNegativeBalanceZeroesDaily(t *testing.T) {
	now := time.Date(2025, 9, 17, 0, 0, 0, 0, time.UTC)
	in := BalanceInput{
		Expenses: []core.Expense{expenseOn(3, 100000)},
		Income:   MonthIncome{Confirmed: core.Money{Cents: 50000}},
	}
	b := ComputeMonthBalance(in, now)
	if b.Balance.Cents >= 0 {
		t.Fatalf("balance = %d, expected negative", b.Balance.Cents)
	}
	if b.AvailableDaily.Cents != 0 {
		t.Errorf("available daily = %d, want 0 for non-positive balance", b.AvailableDaily.Cents)
	}
}

func TestComputeMonthBalanceExclusions(t *testing.T) {
	now := time.Date(2025, 9, 17, 0, 0, 0, 0, time.UTC)

	parent := expenseOn(1, 0)
	parent.IsParent = true
	parent.TotalAmount = core.Money{Cents: 60000}

	futurePending := expenseOn(25, 10000)
	futurePending.PaymentStatus = core.StatusPending

	cancelled := expenseOn(5, 7000)
	cancelled.PaymentStatus = core.StatusCancelled

	// A pending row dated in the past still qualifies.
	pastPending := expenseOn(10, 4000)
	pastPending.PaymentStatus = core.StatusPending

	in := BalanceInput{
		Expenses: []core.Expense{parent, futurePending, cancelled, pastPending, expenseOn(2, 6000)},
	}
	b := ComputeMonthBalance(in, now)
	if b.TotalExpenses.Cents != 10000 {
		t.Errorf("total expenses = %d, want 10000 (only past pending and paid rows)", b.TotalExpenses.Cents)
	}
}

func TestComputeMonthBalanceFixedVariableSplitAndProjection(t *testing.T) {
	// September 10th: 10 days passed, 21 remain.
	now := time.Date(2025, 9, 10, 0, 0, 0, 0, time.UTC)

	serviceID := int64(4)
	fixed := expenseOn(5, 90000)
	fixed.ServiceID = &serviceID

	in := BalanceInput{
		Expenses: []core.Expense{
			fixed,
			expenseOn(2, 30000),
			expenseOn(8, 10000),
		},
		Obligations: ObligationSummary{PendingTotal: core.Money{Cents: 5000}},
	}
	b := ComputeMonthBalance(in, now)

	if b.TotalFixed.Cents != 90000 {
		t.Errorf("fixed = %d, want 90000", b.TotalFixed.Cents)
	}
	if b.TotalVariable.Cents != 40000 {
		t.Errorf("variable = %d, want 40000", b.TotalVariable.Cents)
	}
	// 40000 variable over 10 days passed -> 4000/day; 21 days remain.
	if b.DailyVariableAverage.Cents != 4000 {
		t.Errorf("daily variable average = %d, want 4000", b.DailyVariableAverage.Cents)
	}
	if b.ProjectedVariable.Cents != 40000+4000*21 {
		t.Errorf("projected variable = %d, want %d", b.ProjectedVariable.Cents, 40000+4000*21)
	}
	if b.ProjectedFixed.Cents != 95000 {
		t.Errorf("projected fixed = %d, want 95000", b.ProjectedFixed.Cents)
	}
	if b.ProjectedTotal.Cents != b.ProjectedFixed.Cents+b.ProjectedVariable.Cents {
		t.Errorf("projected total = %d, want fixed+variable", b.ProjectedTotal.Cents)
	}
}

func TestComputeMonthBalanceChangeFromLastMonth(t *testing.T) {
	now := time.Date(2025, 9, 17, 0, 0, 0, 0, time.UTC)

	in := BalanceInput{
		Expenses:              []core.Expense{expenseOn(3, 150000)},
		PreviousMonthExpenses: core.Money{Cents: 100000},
	}
	b := ComputeMonthBalance(in, now)
	if b.ChangeFromLastMonth != 50.0 {
		t.Errorf("change = %v, want 50.0", b.ChangeFromLastMonth)
	}

	in.PreviousMonthExpenses = core.Money{}
	b = ComputeMonthBalance(in, now)
	if b.ChangeFromLastMonth != 0 {
		t.Errorf("change = %v, want 0 when previous month had none", b.ChangeFromLastMonth)
	}
}
