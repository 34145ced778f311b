// Package services orchestrates the record store, the pure ledger engine,
// and the event broker. Handlers talk to services, never to storage
// directly.
package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"bilancio/internal/core"
	"bilancio/internal/ledger"
)

// Store is the persistence surface the ledger service needs.
type Store interface {
	CreateExpense(ctx context.Context, e core.Expense) (int64, error)
	CreateInstallmentPlan(ctx context.Context, plan ledger.InstallmentPlan) (int64, []int64, error)
	DeleteExpense(ctx context.Context, id int64) error
	UpdateExpenseClassification(ctx context.Context, id int64, financialType core.FinancialType, categoryIDs []int64) error

	CreateIncome(ctx context.Context, in core.Income) (int64, error)
	DeleteIncome(ctx context.Context, id int64) error
	HasIncome(ctx context.Context) (bool, error)

	CreateService(ctx context.Context, s core.RecurringService) (int64, error)
	ListServices(ctx context.Context) ([]core.RecurringService, error)
	SetServiceActive(ctx context.Context, id int64, active bool) error
	MarkServicePaid(ctx context.Context, expense core.Expense, payment core.ServicePayment) (int64, error)

	GetPreferences(ctx context.Context) (core.Preferences, error)
	ApplyMonthClose(ctx context.Context, result ledger.CloseResult) (int64, error)

	Close() error
}

// EventPublisher emits ledger change events. Publishing is best effort:
// failures are logged and never fail the originating request.
type EventPublisher interface {
	PublishExpenseRecorded(ctx context.Context, id int64) error
	PublishExpenseDeleted(ctx context.Context, id int64) error
	Close() error
}

// LedgerService is the write side of the tracker: it persists records,
// runs the month-close state machine, and notifies the export worker.
type LedgerService struct {
	store     Store
	publisher EventPublisher
}

func NewLedgerService(store Store, publisher EventPublisher) *LedgerService {
	return &LedgerService{
		store:     store,
		publisher: publisher,
	}
}

// RecordExpense saves a single expense and notifies the worker.
func (s *LedgerService) RecordExpense(ctx context.Context, e core.Expense) (int64, error) {
	id, err := s.store.CreateExpense(ctx, e)
	if err != nil {
		return 0, fmt.Errorf("save expense: %w", err)
	}

	s.publishRecorded(ctx, id)
	return id, nil
}

// RecordInstallmentPlan splits a purchase into installments and persists the
// whole family atomically. Each child gets its own recorded event; the
// parent metadata row is never exported.
func (s *LedgerService) RecordInstallmentPlan(ctx context.Context, params ledger.PlanParams, now time.Time) (int64, []int64, error) {
	plan, err := ledger.BuildInstallmentPlan(params, now)
	if err != nil {
		return 0, nil, fmt.Errorf("build installment plan: %w", err)
	}

	parentID, childIDs, err := s.store.CreateInstallmentPlan(ctx, plan)
	if err != nil {
		return 0, nil, fmt.Errorf("save installment plan: %w", err)
	}

	for _, id := range childIDs {
		s.publishRecorded(ctx, id)
	}
	return parentID, childIDs, nil
}

// DeleteExpense removes an expense. For installment families the storage
// layer removes every member; one deleted event is published for the
// requested id.
func (s *LedgerService) DeleteExpense(ctx context.Context, id int64) error {
	if err := s.store.DeleteExpense(ctx, id); err != nil {
		return fmt.Errorf("delete expense: %w", err)
	}

	if s.publisher != nil {
		if err := s.publisher.PublishExpenseDeleted(ctx, id); err != nil {
			slog.ErrorContext(ctx, "Failed to publish deleted event",
				"id", id, "error", err)
		}
	}
	return nil
}

// ReclassifyExpense updates the financial type and categories of an
// expense, propagating across its installment family.
func (s *LedgerService) ReclassifyExpense(ctx context.Context, id int64, financialType core.FinancialType, categoryIDs []int64) error {
	if err := s.store.UpdateExpenseClassification(ctx, id, financialType, categoryIDs); err != nil {
		return fmt.Errorf("reclassify expense: %w", err)
	}
	return nil
}

func (s *LedgerService) RecordIncome(ctx context.Context, in core.Income) (int64, error) {
	id, err := s.store.CreateIncome(ctx, in)
	if err != nil {
		return 0, fmt.Errorf("save income: %w", err)
	}
	return id, nil
}

func (s *LedgerService) DeleteIncome(ctx context.Context, id int64) error {
	if err := s.store.DeleteIncome(ctx, id); err != nil {
		return fmt.Errorf("delete income: %w", err)
	}
	return nil
}

func (s *LedgerService) CreateService(ctx context.Context, svc core.RecurringService) (int64, error) {
	id, err := s.store.CreateService(ctx, svc)
	if err != nil {
		return 0, fmt.Errorf("save recurring service: %w", err)
	}
	return id, nil
}

func (s *LedgerService) ListServices(ctx context.Context) ([]core.RecurringService, error) {
	return s.store.ListServices(ctx)
}

func (s *LedgerService) SetServiceActive(ctx context.Context, id int64, active bool) error {
	return s.store.SetServiceActive(ctx, id, active)
}

// MarkServicePaid records that a recurring obligation was paid. The amount
// defaults to the service's estimate when the caller passes zero, and the
// payment date defaults to the service's anchor day in now's month when
// paidOn is zero. A non-zero paidOn dates the expense and pins the payment
// row to that month, so late or backfilled payments land where the money
// actually moved. The created expense stays linked to the service so the
// balance counts it as fixed spend.
func (s *LedgerService) MarkServicePaid(ctx context.Context, serviceID int64, amount core.Money, paidOn, now time.Time) (int64, error) {
	services, err := s.store.ListServices(ctx)
	if err != nil {
		return 0, fmt.Errorf("list services: %w", err)
	}

	var svc *core.RecurringService
	for i := range services {
		if services[i].ID == serviceID {
			svc = &services[i]
			break
		}
	}
	if svc == nil {
		return 0, fmt.Errorf("service %d: %w", serviceID, core.ErrNotFound)
	}

	if amount.Cents == 0 {
		amount = svc.EstimatedAmount
	}
	if err := amount.Validate(); err != nil {
		return 0, err
	}

	var categoryIDs []int64
	if svc.CategoryID != nil {
		categoryIDs = []int64{*svc.CategoryID}
	}

	if paidOn.IsZero() {
		paidOn = core.DateIn(now.Year(), int(now.Month()), svc.DayOfMonth)
	}

	expense := core.Expense{
		Amount:        amount,
		Description:   svc.Name,
		Date:          paidOn,
		FinancialType: core.Needs,
		PaymentStatus: core.StatusPaid,
		CategoryIDs:   categoryIDs,
		ServiceID:     &svc.ID,
	}
	payment := core.ServicePayment{
		ServiceID: serviceID,
		Month:     int(paidOn.Month()),
		Year:      paidOn.Year(),
		Status:    core.StatusPaid,
		Amount:    amount,
	}

	expenseID, err := s.store.MarkServicePaid(ctx, expense, payment)
	if err != nil {
		return 0, fmt.Errorf("mark service paid: %w", err)
	}

	s.publishRecorded(ctx, expenseID)
	return expenseID, nil
}

// CloseState describes what the month-close machine wants from the user.
type CloseState struct {
	// Prompt is set when the user must pick a close outcome.
	Prompt bool `json:"prompt"`
	// AutoClosed is set when the month was closed silently because the
	// user tracks no income.
	AutoClosed  bool             `json:"auto_closed"`
	Preferences core.Preferences `json:"preferences"`
}

// EvaluateMonthClose runs the close trigger for the current month. Users
// without income are closed silently with StartedFresh; users with income
// get a prompt instead.
func (s *LedgerService) EvaluateMonthClose(ctx context.Context, now time.Time) (CloseState, error) {
	prefs, err := s.store.GetPreferences(ctx)
	if err != nil {
		return CloseState{}, fmt.Errorf("get preferences: %w", err)
	}

	hasIncome, err := s.store.HasIncome(ctx)
	if err != nil {
		return CloseState{}, fmt.Errorf("check incomes: %w", err)
	}

	if ledger.NeedsAutoClose(prefs, hasIncome, now) {
		result, err := ledger.CloseMonth(prefs, ledger.StartedFresh{}, now)
		if err != nil {
			return CloseState{}, fmt.Errorf("auto close: %w", err)
		}
		if _, err := s.store.ApplyMonthClose(ctx, result); err != nil {
			return CloseState{}, fmt.Errorf("apply auto close: %w", err)
		}
		return CloseState{AutoClosed: true, Preferences: result.Preferences}, nil
	}

	return CloseState{
		Prompt:      ledger.ShouldPromptClose(prefs, hasIncome, now),
		Preferences: prefs,
	}, nil
}

// CloseMonth applies a user-chosen close outcome. The adjustment expense,
// when the outcome creates one, gets a recorded event like any other.
func (s *LedgerService) CloseMonth(ctx context.Context, outcome ledger.CloseOutcome, now time.Time) (core.Preferences, error) {
	prefs, err := s.store.GetPreferences(ctx)
	if err != nil {
		return core.Preferences{}, fmt.Errorf("get preferences: %w", err)
	}

	result, err := ledger.CloseMonth(prefs, outcome, now)
	if err != nil {
		return core.Preferences{}, err
	}

	adjustmentID, err := s.store.ApplyMonthClose(ctx, result)
	if err != nil {
		return core.Preferences{}, fmt.Errorf("apply month close: %w", err)
	}

	if result.Adjustment != nil {
		s.publishRecorded(ctx, adjustmentID)
	}
	return result.Preferences, nil
}

func (s *LedgerService) publishRecorded(ctx context.Context, id int64) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishExpenseRecorded(ctx, id); err != nil {
		slog.ErrorContext(ctx, "Failed to publish recorded event",
			"id", id, "error", err)
	}
}

// Close closes both the store and the broker connection.
func (s *LedgerService) Close() error {
	var errs []error

	if s.store != nil {
		if err := s.store.Close(); err != nil {
			errs = append(errs, fmt.Errorf("storage: %w", err))
		}
	}

	if s.publisher != nil {
		if err := s.publisher.Close(); err != nil {
			errs = append(errs, fmt.Errorf("amqp: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("close ledger service: %v", errs)
	}
	return nil
}
