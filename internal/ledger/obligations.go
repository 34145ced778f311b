package ledger

import (
	"sort"
	"time"

	"bilancio/internal/core"
)

// ObligationStatus is the per-month standing of one recurring service.
type ObligationStatus struct {
	Service core.RecurringService `json:"service"`
	// Paid reports whether a paid ServicePayment row exists for the month.
	Paid bool `json:"paid"`
	// Amount is the recorded payment amount when paid, the service's
	// estimated amount otherwise.
	Amount    core.Money `json:"amount"`
	ExpenseID int64      `json:"expense_id,omitempty"`
	// Overdue is a derived, display-only classification: the due day has
	// passed without a paid row. It is never stored.
	Overdue bool `json:"overdue"`
}

// ObligationSummary aggregates the standing of every active service for a
// month, sorted by due day ascending.
type ObligationSummary struct {
	Statuses     []ObligationStatus `json:"statuses"`
	PaidTotal    core.Money         `json:"paid_total"`
	PendingTotal core.Money         `json:"pending_total"`
}

// SummarizeObligations resolves each active service against the sparse
// payment table for (month, year). A missing payment row means the
// obligation is still pending and contributes its estimated amount.
func SummarizeObligations(services []core.RecurringService, payments []core.ServicePayment, month, year int, now time.Time) ObligationSummary {
	paidByService := make(map[int64]core.ServicePayment, len(payments))
	for _, p := range payments {
		if p.Month == month && p.Year == year && p.Status == core.StatusPaid {
			paidByService[p.ServiceID] = p
		}
	}

	var summary ObligationSummary
	for _, svc := range services {
		if !svc.Active {
			continue
		}
		status := ObligationStatus{Service: svc}
		if p, ok := paidByService[svc.ID]; ok {
			status.Paid = true
			status.Amount = p.Amount
			status.ExpenseID = p.ExpenseID
			summary.PaidTotal.Cents += p.Amount.Cents
		} else {
			status.Amount = svc.EstimatedAmount
			status.Overdue = dueDayPassed(svc.DayOfMonth, month, year, now)
			summary.PendingTotal.Cents += svc.EstimatedAmount.Cents
		}
		summary.Statuses = append(summary.Statuses, status)
	}

	sort.SliceStable(summary.Statuses, func(i, j int) bool {
		return summary.Statuses[i].Service.DayOfMonth < summary.Statuses[j].Service.DayOfMonth
	})
	return summary
}

// dueDayPassed reports whether the due day within (month, year) lies in
// the past relative to now.
func dueDayPassed(dueDay, month, year int, now time.Time) bool {
	switch {
	case year < now.Year() || (year == now.Year() && month < int(now.Month())):
		return true
	case year == now.Year() && month == int(now.Month()):
		return now.Day() > core.ClampDay(year, month, dueDay)
	default:
		return false
	}
}
