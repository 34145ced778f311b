package ledger

import (
	"errors"
	"time"

	"bilancio/internal/core"
)

// AdjustmentDescription is the description carried by the expense created
// when a month is closed by registering untracked spending.
const AdjustmentDescription = "unregistered spending adjustment"

// ErrMonthAlreadyClosed is returned when a close is applied twice within
// the same calendar month.
var ErrMonthAlreadyClosed = errors.New("month already closed")

// CloseOutcome is the decision taken when the prior month is closed.
// Exactly three outcomes exist: CarriedOver, RegisteredAsExpense, and
// StartedFresh.
type CloseOutcome interface {
	closeOutcome()
}

// CarriedOver rolls the given amount (typically the unspent remainder of
// the prior month) into the current month without creating any expense.
type CarriedOver struct {
	Amount core.Money
}

// RegisteredAsExpense reconciles untracked spending: one adjustment
// expense for ExpenseAmount is created on the last day of the prior month,
// and Carryover becomes the new carryover.
type RegisteredAsExpense struct {
	ExpenseAmount core.Money
	Carryover     core.Money
}

// StartedFresh discards any remainder and zeroes the carryover.
type StartedFresh struct{}

func (CarriedOver) closeOutcome()         {}
func (RegisteredAsExpense) closeOutcome() {}
func (StartedFresh) closeOutcome()        {}

// CloseResult is the effect of a close transition: the updated preferences
// and, for RegisteredAsExpense only, the adjustment expense to persist.
type CloseResult struct {
	Preferences core.Preferences
	Adjustment  *core.Expense
}

// ShouldPromptClose reports whether the close decision must be presented
// at session start: the current month is not yet closed and the user has
// income configured. Users without income are closed silently via
// StartedFresh instead of being prompted.
func ShouldPromptClose(prefs core.Preferences, hasIncome bool, now time.Time) bool {
	return prefs.LastClosedMonth != core.MonthKeyOf(now) && hasIncome
}

// NeedsAutoClose reports whether the month should be closed silently with
// StartedFresh because the user tracks no income.
func NeedsAutoClose(prefs core.Preferences, hasIncome bool, now time.Time) bool {
	return prefs.LastClosedMonth != core.MonthKeyOf(now) && !hasIncome
}

// CloseMonth applies one close outcome. The transition is idempotent per
// month: once the current key is recorded the machine refuses to run again
// until the calendar month changes.
func CloseMonth(prefs core.Preferences, outcome CloseOutcome, now time.Time) (CloseResult, error) {
	currentKey := core.MonthKeyOf(now)
	if prefs.LastClosedMonth == currentKey {
		return CloseResult{}, ErrMonthAlreadyClosed
	}

	result := CloseResult{Preferences: prefs}
	result.Preferences.LastClosedMonth = currentKey

	switch o := outcome.(type) {
	case CarriedOver:
		result.Preferences.Carryover = o.Amount
	case RegisteredAsExpense:
		if err := o.ExpenseAmount.Validate(); err != nil {
			return CloseResult{}, err
		}
		result.Preferences.Carryover = o.Carryover
		result.Adjustment = &core.Expense{
			Amount:        o.ExpenseAmount,
			Description:   AdjustmentDescription,
			Date:          core.LastDayOfPreviousMonth(now),
			FinancialType: core.Needs,
			PaymentStatus: core.StatusPaid,
		}
	case StartedFresh:
		result.Preferences.Carryover = core.Money{}
	default:
		return CloseResult{}, errors.New("unknown close outcome")
	}

	return result, nil
}
