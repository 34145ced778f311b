package ledger

import (
	"time"

	"bilancio/internal/core"
)

// BalanceInput collects the already-fetched and normalized pieces the
// month balance is computed from.
type BalanceInput struct {
	// Expenses are the raw current-month rows; parents, cancelled rows,
	// and future-dated pending rows are filtered out here.
	Expenses    []core.Expense
	Income      MonthIncome
	Obligations ObligationSummary
	Carryover   core.Money
	// PreviousMonthExpenses is the prior month's qualifying total, used
	// for the month-over-month delta.
	PreviousMonthExpenses core.Money
}

// MonthBalance is the aggregate the dashboard renders: current totals,
// the fixed/variable split, and a linear projection of month-end spend.
// The projection is a simple extrapolation of the daily variable average,
// not a statistical forecast.
type MonthBalance struct {
	TotalIncome   core.Money `json:"total_income"` // confirmed income plus carryover
	TotalExpenses core.Money `json:"total_expenses"`
	GrossBalance  core.Money `json:"gross_balance"`
	// Balance reserves pending obligations even though no expense row
	// exists for them yet.
	Balance core.Money `json:"balance"`

	DaysRemaining  int        `json:"days_remaining"`
	AvailableDaily core.Money `json:"available_daily"`

	TotalFixed    core.Money `json:"total_fixed"` // expenses linked to a recurring service
	TotalVariable core.Money `json:"total_variable"`

	DailyVariableAverage core.Money `json:"daily_variable_average"`
	ProjectedVariable    core.Money `json:"projected_variable"`
	ProjectedFixed       core.Money `json:"projected_fixed"`
	ProjectedTotal       core.Money `json:"projected_total"`

	// ChangeFromLastMonth is the percentage delta against the previous
	// month's total, 0 when the previous month had none.
	ChangeFromLastMonth float64 `json:"change_from_last_month"`
}

// Qualifies reports whether an expense row counts toward month totals:
// parent metadata rows, cancelled rows, and pending rows dated in the
// future are excluded.
func Qualifies(e core.Expense, now time.Time) bool {
	if e.IsParent {
		return false
	}
	if e.PaymentStatus == core.StatusCancelled {
		return false
	}
	if e.PaymentStatus == core.StatusPending && e.Date.After(now) {
		return false
	}
	return true
}

// ComputeMonthBalance aggregates the current month. now fixes both the
// qualifying-row cutoff and the days-passed/remaining arithmetic.
func ComputeMonthBalance(in BalanceInput, now time.Time) MonthBalance {
	var b MonthBalance

	for _, e := range in.Expenses {
		if !Qualifies(e, now) {
			continue
		}
		b.TotalExpenses.Cents += e.Amount.Cents
		if e.ServiceID != nil {
			b.TotalFixed.Cents += e.Amount.Cents
		} else {
			b.TotalVariable.Cents += e.Amount.Cents
		}
	}

	b.TotalIncome.Cents = in.Income.Confirmed.Cents + in.Carryover.Cents
	b.GrossBalance.Cents = b.TotalIncome.Cents - b.TotalExpenses.Cents
	b.Balance.Cents = b.GrossBalance.Cents - in.Obligations.PendingTotal.Cents

	daysInMonth := core.DaysInMonth(now.Year(), int(now.Month()))
	daysPassed := now.Day()
	if daysPassed < 1 {
		daysPassed = 1
	}
	b.DaysRemaining = daysInMonth - now.Day() + 1
	if b.Balance.Cents > 0 {
		b.AvailableDaily.Cents = b.Balance.Cents / int64(b.DaysRemaining)
	}

	b.DailyVariableAverage.Cents = b.TotalVariable.Cents / int64(daysPassed)
	b.ProjectedVariable.Cents = b.TotalVariable.Cents + b.DailyVariableAverage.Cents*int64(b.DaysRemaining)
	b.ProjectedFixed.Cents = b.TotalFixed.Cents + in.Obligations.PendingTotal.Cents
	b.ProjectedTotal.Cents = b.ProjectedFixed.Cents + b.ProjectedVariable.Cents

	if in.PreviousMonthExpenses.Cents != 0 {
		delta := b.TotalExpenses.Cents - in.PreviousMonthExpenses.Cents
		b.ChangeFromLastMonth = float64(delta) / float64(in.PreviousMonthExpenses.Cents) * 100.0
	}

	return b
}
