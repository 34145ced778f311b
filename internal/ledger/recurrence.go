package ledger

import (
	"fmt"
	"time"

	"bilancio/internal/core"
)

// OccurrenceExpander is the strategy interface for expanding a recurring
// income into its occurrence days within a target month. Each frequency has
// its own strategy.
type OccurrenceExpander interface {
	// Days returns the 1-based days of the target month on which the
	// income occurs.
	Days(recurringDay, year, month int) []int
}

// MonthlyExpander yields one occurrence at the anchor day, clamped to the
// month's length so day 31 pays on the 28th/29th in February.
type MonthlyExpander struct{}

func (MonthlyExpander) Days(recurringDay, year, month int) []int {
	return []int{core.ClampDay(year, month, recurringDay)}
}

// BiweeklyExpander yields two occurrences: the anchor day and the anchor
// day plus 15, wrapped back into the month when the sum exceeds its day
// count (day 28 in a 30-day month pairs with day 13).
type BiweeklyExpander struct{}

func (BiweeklyExpander) Days(recurringDay, year, month int) []int {
	daysInMonth := core.DaysInMonth(year, month)
	first := core.ClampDay(year, month, recurringDay)
	second := recurringDay + 15
	if second > daysInMonth {
		second -= daysInMonth
	}
	return []int{first, second}
}

// WeeklyExpander yields the anchor day and every seventh day after it for
// as long as the day stays within the month; occurrences never roll into
// the next month.
type WeeklyExpander struct{}

func (WeeklyExpander) Days(recurringDay, year, month int) []int {
	daysInMonth := core.DaysInMonth(year, month)
	var days []int
	for d := recurringDay; d <= daysInMonth; d += 7 {
		days = append(days, d)
	}
	return days
}

// occurrenceStrategies maps frequencies to their expanders.
var occurrenceStrategies = map[core.Frequency]OccurrenceExpander{
	core.Monthly:  MonthlyExpander{},
	core.Biweekly: BiweeklyExpander{},
	core.Weekly:   WeeklyExpander{},
}

// GetOccurrenceExpander returns the expander for a frequency, or an error
// if the frequency is not supported.
func GetOccurrenceExpander(frequency core.Frequency) (OccurrenceExpander, error) {
	expander, ok := occurrenceStrategies[frequency]
	if !ok {
		return nil, fmt.Errorf("unknown recurrence frequency: %s", frequency)
	}
	return expander, nil
}

// Occurrence is a single expected income event within the target month.
type Occurrence struct {
	Day       int        `json:"day"`
	Amount    core.Money `json:"amount"`
	Confirmed bool       `json:"confirmed"`
}

// IncomeBreakdown is the expansion of one income definition over a month.
type IncomeBreakdown struct {
	Confirmed   core.Money   `json:"confirmed"`
	Pending     core.Money   `json:"pending"`
	Total       core.Money   `json:"total"`
	Occurrences []Occurrence `json:"occurrences"`
}

// MonthIncome aggregates the breakdowns of every income definition for a
// month.
type MonthIncome struct {
	Confirmed core.Money `json:"confirmed"`
	Pending   core.Money `json:"pending"`
	Total     core.Money `json:"total"`
}

// ExpandIncome expands an income definition into the target month and
// classifies each occurrence as confirmed or pending against now.
//
// A one-time income contributes a confirmed occurrence iff its date falls
// within the month, and is never pending. For recurring incomes an
// occurrence in the current month is pending until its day is reached;
// in any other month every occurrence is confirmed.
func ExpandIncome(in core.Income, year, month int, now time.Time) (IncomeBreakdown, error) {
	if month < 1 || month > 12 {
		return IncomeBreakdown{}, core.ErrInvalidMonth
	}

	var breakdown IncomeBreakdown

	if !in.IsRecurring {
		if in.Date.Year() == year && int(in.Date.Month()) == month {
			occ := Occurrence{Day: in.Date.Day(), Amount: in.Amount, Confirmed: true}
			breakdown.Occurrences = append(breakdown.Occurrences, occ)
			breakdown.Confirmed.Cents += in.Amount.Cents
			breakdown.Total.Cents += in.Amount.Cents
		}
		return breakdown, nil
	}

	expander, err := GetOccurrenceExpander(in.RecurringFrequency)
	if err != nil {
		return IncomeBreakdown{}, err
	}

	currentMonth := now.Year() == year && int(now.Month()) == month
	for _, day := range expander.Days(in.RecurringDay, year, month) {
		confirmed := true
		if currentMonth && now.Day() < day {
			confirmed = false
		}
		breakdown.Occurrences = append(breakdown.Occurrences, Occurrence{
			Day:       day,
			Amount:    in.Amount,
			Confirmed: confirmed,
		})
		if confirmed {
			breakdown.Confirmed.Cents += in.Amount.Cents
		} else {
			breakdown.Pending.Cents += in.Amount.Cents
		}
		breakdown.Total.Cents += in.Amount.Cents
	}
	return breakdown, nil
}

// SumMonthIncome expands every income definition into the target month and
// sums the confirmed, pending, and total buckets.
func SumMonthIncome(incomes []core.Income, year, month int, now time.Time) (MonthIncome, error) {
	var sum MonthIncome
	for _, in := range incomes {
		b, err := ExpandIncome(in, year, month, now)
		if err != nil {
			return MonthIncome{}, fmt.Errorf("expand income %q: %w", in.Description, err)
		}
		sum.Confirmed.Cents += b.Confirmed.Cents
		sum.Pending.Cents += b.Pending.Cents
		sum.Total.Cents += b.Total.Cents
	}
	return sum, nil
}
