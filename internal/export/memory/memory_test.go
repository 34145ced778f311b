package memory

import (
	"context"
	"testing"
	"time"

	"bilancio/internal/core"
)

func validExpense() core.Expense {
	return core.Expense{
		Amount:        core.Money{Cents: 1500},
		Description:   "lunch",
		Date:          time.Date(2025, 9, 3, 0, 0, 0, 0, time.UTC),
		FinancialType: core.Needs,
		PaymentStatus: core.StatusPaid,
	}
}

func TestAppendReturnsSequentialRefs(t *testing.T) {
	s := New()
	ctx := context.Background()

	ref1, err := s.Append(ctx, validExpense())
	if err != nil {
		t.Fatalf("Append() error = %v", err)
	}
	ref2, err := s.Append(ctx, validExpense())
	if err != nil {
		t.Fatalf("Append() error = %v", err)
	}

	if ref1 != "mem:1" || ref2 != "mem:2" {
		t.Errorf("refs = %s, %s, want mem:1, mem:2", ref1, ref2)
	}
	if got := len(s.Items()); got != 2 {
		t.Errorf("items = %d, want 2", got)
	}
}

func TestAppendRejectsInvalidExpense(t *testing.T) {
	s := New()

	e := validExpense()
	e.Amount = core.Money{}
	if _, err := s.Append(context.Background(), e); err == nil {
		t.Error("Append() should reject a zero amount")
	}
	if got := len(s.Items()); got != 0 {
		t.Errorf("items = %d, want 0 after rejected append", got)
	}
}
