package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"bilancio/internal/core"
)

type fakeReadStore struct {
	expensesByMonth map[string][]core.Expense
	incomes         []core.Income
	services        []core.RecurringService
	payments        []core.ServicePayment
	prefs           core.Preferences
	failWith        error
}

func monthID(year, month int) string {
	return string(core.NewMonthKey(year, month))
}

func (f *fakeReadStore) ListMonthExpenses(_ context.Context, year, month int) ([]core.Expense, error) {
	if f.failWith != nil {
		return nil, f.failWith
	}
	return f.expensesByMonth[monthID(year, month)], nil
}

func (f *fakeReadStore) ListIncomes(_ context.Context) ([]core.Income, error) {
	if f.failWith != nil {
		return nil, f.failWith
	}
	return f.incomes, nil
}

func (f *fakeReadStore) ListServices(_ context.Context) ([]core.RecurringService, error) {
	return f.services, nil
}

func (f *fakeReadStore) ListServicePayments(_ context.Context, _, _ int) ([]core.ServicePayment, error) {
	return f.payments, nil
}

func (f *fakeReadStore) GetPreferences(_ context.Context) (core.Preferences, error) {
	return f.prefs, nil
}

func TestMonthDashboardComposition(t *testing.T) {
	// September 17th, 2025: 14 days remain.
	now := time.Date(2025, 9, 17, 0, 0, 0, 0, time.UTC)

	store := &fakeReadStore{
		expensesByMonth: map[string][]core.Expense{
			"2025-09": {
				{Amount: core.Money{Cents: 100000}, Description: "rent", Date: time.Date(2025, 9, 1, 0, 0, 0, 0, time.UTC), FinancialType: core.Needs, PaymentStatus: core.StatusPaid},
				{Amount: core.Money{Cents: 50000}, Description: "food", Date: time.Date(2025, 9, 10, 0, 0, 0, 0, time.UTC), FinancialType: core.Needs, PaymentStatus: core.StatusPaid},
			},
			"2025-08": {
				{Amount: core.Money{Cents: 100000}, Description: "rent", Date: time.Date(2025, 8, 1, 0, 0, 0, 0, time.UTC), FinancialType: core.Needs, PaymentStatus: core.StatusPaid},
			},
		},
		incomes: []core.Income{
			{Amount: core.Money{Cents: 300000}, Description: "salary", IsRecurring: true, RecurringDay: 10, RecurringFrequency: core.Monthly},
		},
		services: []core.RecurringService{
			{ID: 1, Name: "electricity", EstimatedAmount: core.Money{Cents: 30000}, DayOfMonth: 25, Active: true},
		},
		prefs: core.Preferences{LastClosedMonth: "2025-09", Carryover: core.Money{Cents: 20000}},
	}

	d, err := NewDashboardService(store).MonthDashboard(context.Background(), now)
	if err != nil {
		t.Fatalf("MonthDashboard() error = %v", err)
	}

	if d.Month != "2025-09" {
		t.Errorf("month = %s, want 2025-09", d.Month)
	}
	// Salary day 10 already passed, so income is confirmed.
	if d.Income.Confirmed.Cents != 300000 {
		t.Errorf("confirmed income = %d, want 300000", d.Income.Confirmed.Cents)
	}
	if d.Obligations.PendingTotal.Cents != 30000 {
		t.Errorf("pending obligations = %d, want 30000", d.Obligations.PendingTotal.Cents)
	}
	// 300000 + 20000 carryover - 150000 spent - 30000 reserved.
	if d.Balance.Balance.Cents != 140000 {
		t.Errorf("balance = %d, want 140000", d.Balance.Balance.Cents)
	}
	if d.Balance.AvailableDaily.Cents != 10000 {
		t.Errorf("available daily = %d, want 10000", d.Balance.AvailableDaily.Cents)
	}
	// 150000 vs 100000 in August.
	if d.Balance.ChangeFromLastMonth != 50.0 {
		t.Errorf("change from last month = %v, want 50.0", d.Balance.ChangeFromLastMonth)
	}
}

func TestMonthDashboardPropagatesFetchErrors(t *testing.T) {
	store := &fakeReadStore{failWith: errors.New("db closed")}
	now := time.Date(2025, 9, 17, 0, 0, 0, 0, time.UTC)

	if _, err := NewDashboardService(store).MonthDashboard(context.Background(), now); err == nil {
		t.Fatal("expected error when a fetch fails")
	}
}

func TestMonthDashboardObligationSort(t *testing.T) {
	now := time.Date(2025, 9, 17, 0, 0, 0, 0, time.UTC)
	store := &fakeReadStore{
		services: []core.RecurringService{
			{ID: 1, Name: "rent", EstimatedAmount: core.Money{Cents: 90000}, DayOfMonth: 27, Active: true},
			{ID: 2, Name: "internet", EstimatedAmount: core.Money{Cents: 3000}, DayOfMonth: 5, Active: true},
			{ID: 3, Name: "old gym", EstimatedAmount: core.Money{Cents: 5000}, DayOfMonth: 1, Active: false},
		},
	}

	d, err := NewDashboardService(store).MonthDashboard(context.Background(), now)
	if err != nil {
		t.Fatalf("MonthDashboard() error = %v", err)
	}

	if len(d.Obligations.Statuses) != 2 {
		t.Fatalf("statuses = %d, want 2 (inactive excluded)", len(d.Obligations.Statuses))
	}
	if d.Obligations.Statuses[0].Service.Name != "internet" {
		t.Errorf("first obligation = %s, want internet (earliest due day)", d.Obligations.Statuses[0].Service.Name)
	}
	if !d.Obligations.Statuses[0].Overdue {
		t.Error("internet due on the 5th should be overdue on the 17th")
	}
	if d.Obligations.Statuses[1].Overdue {
		t.Error("rent due on the 27th should not be overdue yet")
	}
}
