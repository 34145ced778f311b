package core

import (
	"errors"
	"strings"
	"time"
)

const (
	// Financial classification pillars (50/30/20-style analysis).
	Needs        FinancialType = "needs"
	Wants        FinancialType = "wants"
	Savings      FinancialType = "savings"
	Unclassified FinancialType = "unclassified"
)

const (
	StatusPending   PaymentStatus = "pending"
	StatusPaid      PaymentStatus = "paid"
	StatusCancelled PaymentStatus = "cancelled"
)

const (
	Monthly  Frequency = "monthly"
	Biweekly Frequency = "biweekly"
	Weekly   Frequency = "weekly"
)

type (
	FinancialType string

	PaymentStatus string

	// Frequency is the recurrence cadence of a recurring income.
	Frequency string

	// Expense is a single ledger entry. A purchase split into installments
	// is stored as one parent row (IsParent, Amount zero, TotalAmount set)
	// plus one child row per installment pointing back at the parent.
	Expense struct {
		ID            int64         `json:"id"`
		Amount        Money         `json:"amount"`
		TotalAmount   Money         `json:"total_amount"` // set on installment parents only
		Description   string        `json:"description"`
		Date          time.Time     `json:"date"`
		FinancialType FinancialType `json:"financial_type"`
		PaymentStatus PaymentStatus `json:"payment_status"`
		CategoryIDs   []int64       `json:"category_ids,omitempty"`

		// Optional links to other records.
		ServiceID      *int64 `json:"service_id,omitempty"`
		DebtID         *int64 `json:"debt_id,omitempty"`
		PaymentGroupID *int64 `json:"payment_group_id,omitempty"`
		CreditCardID   *int64 `json:"credit_card_id,omitempty"`

		// Installment family fields.
		IsParent          bool   `json:"is_parent"`
		ParentExpenseID   *int64 `json:"parent_expense_id,omitempty"`
		InstallmentNumber int    `json:"installment_number,omitempty"`
		Installments      int    `json:"installments,omitempty"`
	}

	// Income is either a one-time entry (Date set) or a recurring
	// definition (IsRecurring with RecurringDay and RecurringFrequency).
	// Recurring incomes have no end date.
	Income struct {
		ID                 int64     `json:"id"`
		Amount             Money     `json:"amount"`
		Description        string    `json:"description"`
		Type               string    `json:"type,omitempty"`
		Date               time.Time `json:"date,omitempty"`
		IsRecurring        bool      `json:"is_recurring"`
		RecurringDay       int       `json:"recurring_day,omitempty"`
		RecurringFrequency Frequency `json:"recurring_frequency,omitempty"`
	}

	// RecurringService is a fixed monthly obligation (rent, subscription)
	// independent of any specific month.
	RecurringService struct {
		ID              int64  `json:"id"`
		Name            string `json:"name"`
		EstimatedAmount Money  `json:"estimated_amount"`
		DayOfMonth      int    `json:"day_of_month"`
		CategoryID      *int64 `json:"category_id,omitempty"`
		Active          bool   `json:"active"`
	}

	// ServicePayment records that a recurring service was paid for a given
	// month. Absence of a row means the obligation is still pending.
	ServicePayment struct {
		ServiceID int64         `json:"service_id"`
		Month     int           `json:"month"`
		Year      int           `json:"year"`
		Status    PaymentStatus `json:"status"`
		Amount    Money         `json:"amount"`
		ExpenseID int64         `json:"expense_id,omitempty"`
	}

	// Preferences holds the month-close state: the last closed month key
	// and the amount carried into the current month.
	Preferences struct {
		LastClosedMonth MonthKey `json:"last_closed_month"`
		Carryover       Money    `json:"carryover"`
	}
)

var (
	ErrInvalidDay          = errors.New("invalid day")
	ErrInvalidMonth        = errors.New("invalid month")
	ErrInvalidAmount       = errors.New("invalid amount")
	ErrEmptyDescription    = errors.New("empty description")
	ErrEmptyName           = errors.New("empty name")
	ErrInvalidType         = errors.New("invalid financial type")
	ErrInvalidStatus       = errors.New("invalid payment status")
	ErrInvalidFrequency    = errors.New("invalid recurrence frequency")
	ErrInvalidInstallments = errors.New("installment count must be at least 1")
	ErrNotFound            = errors.New("record not found")
)

// Validate checks the classification tag.
func (t FinancialType) Validate() error {
	switch t {
	case Needs, Wants, Savings, Unclassified:
		return nil
	default:
		return ErrInvalidType
	}
}

// Validate checks the payment status.
func (s PaymentStatus) Validate() error {
	switch s {
	case StatusPending, StatusPaid, StatusCancelled:
		return nil
	default:
		return ErrInvalidStatus
	}
}

// Validate checks the recurrence frequency.
func (f Frequency) Validate() error {
	switch f {
	case Monthly, Biweekly, Weekly:
		return nil
	default:
		return ErrInvalidFrequency
	}
}

func validateDescription(desc string) error {
	if len(strings.TrimSpace(desc)) == 0 {
		return ErrEmptyDescription
	}
	if len(desc) > 200 {
		return errors.New("description too long (max 200 characters)")
	}
	return nil
}

// Validate checks a single (non-parent) expense before it is written.
// Parent rows are validated through their installment plan instead.
func (e Expense) Validate() error {
	if err := validateDescription(e.Description); err != nil {
		return err
	}
	if e.Date.IsZero() {
		return errors.New("date cannot be zero")
	}
	if e.IsParent {
		if e.Amount.Cents != 0 {
			return errors.New("parent rows carry no amount of their own")
		}
		if err := e.TotalAmount.Validate(); err != nil {
			return err
		}
		if e.Installments < 1 {
			return ErrInvalidInstallments
		}
	} else {
		if err := e.Amount.Validate(); err != nil {
			return err
		}
	}
	if err := e.FinancialType.Validate(); err != nil {
		return err
	}
	if err := e.PaymentStatus.Validate(); err != nil {
		return err
	}
	return nil
}

// Validate checks an income definition.
func (in Income) Validate() error {
	if err := in.Amount.Validate(); err != nil {
		return err
	}
	if err := validateDescription(in.Description); err != nil {
		return err
	}
	if in.IsRecurring {
		if in.RecurringDay < 1 || in.RecurringDay > 31 {
			return ErrInvalidDay
		}
		if err := in.RecurringFrequency.Validate(); err != nil {
			return err
		}
		return nil
	}
	if in.Date.IsZero() {
		return errors.New("one-time income requires a date")
	}
	return nil
}

// Validate checks a recurring service definition.
func (s RecurringService) Validate() error {
	if len(strings.TrimSpace(s.Name)) == 0 {
		return ErrEmptyName
	}
	if err := s.EstimatedAmount.Validate(); err != nil {
		return err
	}
	if s.DayOfMonth < 1 || s.DayOfMonth > 31 {
		return ErrInvalidDay
	}
	return nil
}

// Validate checks a service payment row.
func (p ServicePayment) Validate() error {
	if p.ServiceID <= 0 {
		return errors.New("payment requires a service id")
	}
	if p.Month < 1 || p.Month > 12 {
		return ErrInvalidMonth
	}
	if p.Year < 1 {
		return errors.New("invalid year")
	}
	if err := p.Amount.Validate(); err != nil {
		return err
	}
	return nil
}
