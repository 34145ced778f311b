// Package ledger implements the aggregation and projection engine: pure
// computations over already-fetched records. Nothing in this package
// performs I/O, and the evaluation instant is always passed in explicitly.
package ledger

import (
	"fmt"
	"time"

	"bilancio/internal/core"
)

// InstallmentPlan is the aggregate for a purchase split into installments:
// one parent metadata row owning an ordered list of children. Plans are
// built and validated as a whole before anything is persisted, so an
// orphaned parent or child cannot exist.
type InstallmentPlan struct {
	Parent   core.Expense
	Children []core.Expense
}

// PlanParams describes a purchase to split.
type PlanParams struct {
	Total         core.Money
	Count         int
	FirstDate     time.Time
	StartingAt    int // installment the user is currently paying, 1..Count
	Description   string
	FinancialType core.FinancialType
	CategoryIDs   []int64

	CreditCardID   *int64
	DebtID         *int64
	PaymentGroupID *int64
}

// BuildInstallmentPlan splits a purchase of params.Total into params.Count
// installments one month apart. Installments 1..Count-1 carry the rounded
// per-installment share; the last absorbs the rounding remainder so the
// children always sum exactly to the total.
//
// When StartingAt > 1 the purchase is being entered mid-stream: the first
// installment date is shifted back StartingAt-1 months so the earlier
// installments land in the past. Any installment dated on or before now is
// marked paid.
func BuildInstallmentPlan(params PlanParams, now time.Time) (InstallmentPlan, error) {
	if params.Count < 1 {
		return InstallmentPlan{}, core.ErrInvalidInstallments
	}
	if err := params.Total.Validate(); err != nil {
		return InstallmentPlan{}, err
	}
	if params.FirstDate.IsZero() {
		return InstallmentPlan{}, fmt.Errorf("installment plan requires a first occurrence date")
	}
	if params.StartingAt < 1 || params.StartingAt > params.Count {
		return InstallmentPlan{}, fmt.Errorf("starting installment %d out of range 1..%d", params.StartingAt, params.Count)
	}

	amounts, err := params.Total.SplitAcross(params.Count)
	if err != nil {
		return InstallmentPlan{}, err
	}

	firstDate := core.AddMonthsClamped(params.FirstDate, -(params.StartingAt - 1))

	parent := core.Expense{
		TotalAmount:    params.Total,
		Description:    params.Description,
		Date:           firstDate,
		FinancialType:  params.FinancialType,
		PaymentStatus:  core.StatusPending,
		CategoryIDs:    params.CategoryIDs,
		CreditCardID:   params.CreditCardID,
		DebtID:         params.DebtID,
		PaymentGroupID: params.PaymentGroupID,
		IsParent:       true,
		Installments:   params.Count,
	}
	if err := parent.Validate(); err != nil {
		return InstallmentPlan{}, err
	}

	children := make([]core.Expense, params.Count)
	for i := 0; i < params.Count; i++ {
		date := core.AddMonthsClamped(firstDate, i)
		status := core.StatusPending
		if !date.After(now) {
			status = core.StatusPaid
		}
		children[i] = core.Expense{
			Amount:            amounts[i],
			Description:       fmt.Sprintf("%s (%d/%d)", params.Description, i+1, params.Count),
			Date:              date,
			FinancialType:     params.FinancialType,
			PaymentStatus:     status,
			CategoryIDs:       params.CategoryIDs,
			CreditCardID:      params.CreditCardID,
			DebtID:            params.DebtID,
			PaymentGroupID:    params.PaymentGroupID,
			InstallmentNumber: i + 1,
			Installments:      params.Count,
		}
	}

	return InstallmentPlan{Parent: parent, Children: children}, nil
}

// Sum returns the total carried by the children. It always equals
// Parent.TotalAmount for a plan built by BuildInstallmentPlan.
func (p InstallmentPlan) Sum() core.Money {
	var cents int64
	for _, c := range p.Children {
		cents += c.Amount.Cents
	}
	return core.Money{Cents: cents}
}
