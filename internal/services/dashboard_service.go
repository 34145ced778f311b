package services

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"bilancio/internal/core"
	"bilancio/internal/ledger"
)

// ReadStore is the query surface the dashboard needs.
type ReadStore interface {
	ListMonthExpenses(ctx context.Context, year, month int) ([]core.Expense, error)
	ListIncomes(ctx context.Context) ([]core.Income, error)
	ListServices(ctx context.Context) ([]core.RecurringService, error)
	ListServicePayments(ctx context.Context, month, year int) ([]core.ServicePayment, error)
	GetPreferences(ctx context.Context) (core.Preferences, error)
}

// Dashboard is the composed month view: raw rows plus every derived
// aggregate the UI renders.
type Dashboard struct {
	Month       core.MonthKey            `json:"month"`
	Balance     ledger.MonthBalance      `json:"balance"`
	Income      ledger.MonthIncome       `json:"income"`
	Obligations ledger.ObligationSummary `json:"obligations"`
	Expenses    []core.Expense           `json:"expenses"`
}

// DashboardService assembles the month view. The five independent fetches
// run concurrently; composition over the results is pure ledger math.
type DashboardService struct {
	store ReadStore
}

func NewDashboardService(store ReadStore) *DashboardService {
	return &DashboardService{store: store}
}

// MonthDashboard loads and composes the dashboard for the month containing
// now. Any single fetch failing fails the whole load.
func (s *DashboardService) MonthDashboard(ctx context.Context, now time.Time) (Dashboard, error) {
	year, month := now.Year(), int(now.Month())
	prev := now.AddDate(0, 0, -now.Day()) // last day of the previous month

	var (
		expenses     []core.Expense
		prevExpenses []core.Expense
		incomes      []core.Income
		servicesList []core.RecurringService
		payments     []core.ServicePayment
		prefs        core.Preferences
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		expenses, err = s.store.ListMonthExpenses(gctx, year, month)
		return err
	})
	g.Go(func() error {
		var err error
		prevExpenses, err = s.store.ListMonthExpenses(gctx, prev.Year(), int(prev.Month()))
		return err
	})
	g.Go(func() error {
		var err error
		incomes, err = s.store.ListIncomes(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		servicesList, err = s.store.ListServices(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		payments, err = s.store.ListServicePayments(gctx, month, year)
		return err
	})
	g.Go(func() error {
		var err error
		prefs, err = s.store.GetPreferences(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return Dashboard{}, fmt.Errorf("load dashboard data: %w", err)
	}

	income, err := ledger.SumMonthIncome(incomes, year, month, now)
	if err != nil {
		return Dashboard{}, fmt.Errorf("expand incomes: %w", err)
	}

	obligations := ledger.SummarizeObligations(servicesList, payments, month, year, now)

	var prevTotal core.Money
	for _, e := range prevExpenses {
		if ledger.Qualifies(e, now) {
			prevTotal.Cents += e.Amount.Cents
		}
	}

	balance := ledger.ComputeMonthBalance(ledger.BalanceInput{
		Expenses:              expenses,
		Income:                income,
		Obligations:           obligations,
		Carryover:             prefs.Carryover,
		PreviousMonthExpenses: prevTotal,
	}, now)

	return Dashboard{
		Month:       core.MonthKeyOf(now),
		Balance:     balance,
		Income:      income,
		Obligations: obligations,
		Expenses:    expenses,
	}, nil
}

// IncomeBreakdownView pairs an income definition with its expansion into
// the requested month.
type IncomeBreakdownView struct {
	Income    core.Income            `json:"income"`
	Breakdown ledger.IncomeBreakdown `json:"breakdown"`
}

// MonthIncomeView is the per-income expansion of a month plus the summed
// buckets.
type MonthIncomeView struct {
	Month   core.MonthKey         `json:"month"`
	Incomes []IncomeBreakdownView `json:"incomes"`
	Totals  ledger.MonthIncome    `json:"totals"`
}

// MonthIncomes expands every income definition into (year, month),
// classifying occurrences as confirmed or pending against now.
func (s *DashboardService) MonthIncomes(ctx context.Context, year, month int, now time.Time) (MonthIncomeView, error) {
	incomes, err := s.store.ListIncomes(ctx)
	if err != nil {
		return MonthIncomeView{}, fmt.Errorf("list incomes: %w", err)
	}

	view := MonthIncomeView{Month: core.NewMonthKey(year, month)}
	for _, in := range incomes {
		b, err := ledger.ExpandIncome(in, year, month, now)
		if err != nil {
			return MonthIncomeView{}, fmt.Errorf("expand income %q: %w", in.Description, err)
		}
		view.Incomes = append(view.Incomes, IncomeBreakdownView{Income: in, Breakdown: b})
		view.Totals.Confirmed.Cents += b.Confirmed.Cents
		view.Totals.Pending.Cents += b.Pending.Cents
		view.Totals.Total.Cents += b.Total.Cents
	}
	return view, nil
}
