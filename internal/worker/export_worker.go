// Package worker drains ledger events into the spreadsheet archive.
package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"bilancio/internal/amqp"
	"bilancio/internal/core"
	"bilancio/internal/export"
)

// ExportStore is the storage surface the worker needs: fetching rows and
// flipping their export status.
type ExportStore interface {
	GetExpense(ctx context.Context, id int64) (core.Expense, error)
	GetPendingExportExpenses(ctx context.Context, limit int) ([]core.Expense, error)
	MarkExported(ctx context.Context, id int64) error
	MarkExportError(ctx context.Context, id int64) error
}

// ExportWorker appends expense rows to the external archive. Events drive
// the common path; a periodic sweep over export_status catches rows whose
// events were lost while the broker or worker was down.
type ExportWorker struct {
	store     ExportStore
	archive   export.ExpenseAppender
	batchSize int
}

func NewExportWorker(store ExportStore, archive export.ExpenseAppender, batchSize int) *ExportWorker {
	return &ExportWorker{
		store:     store,
		archive:   archive,
		batchSize: batchSize,
	}
}

// HandleLedgerEvent processes one broker message. Deleted events are
// acknowledged without touching the archive: the archive is append-only
// history, not a mirror. A recorded event whose row is already gone is
// acknowledged too; requeueing it would redeliver the same dead message
// forever. Only transient failures propagate, which requeues the delivery.
func (w *ExportWorker) HandleLedgerEvent(ctx context.Context, msg *amqp.LedgerEventMessage) error {
	switch msg.Event {
	case amqp.EventExpenseRecorded:
		if err := w.exportByID(ctx, msg.ID); err != nil {
			if errors.Is(err, core.ErrNotFound) {
				slog.WarnContext(ctx, "Expense gone before export, dropping event", "id", msg.ID)
				return nil
			}
			return err
		}
		return nil
	case amqp.EventExpenseDeleted:
		slog.InfoContext(ctx, "Expense deleted, archive row kept", "id", msg.ID)
		return nil
	default:
		return fmt.Errorf("unknown ledger event: %s", msg.Event)
	}
}

func (w *ExportWorker) exportByID(ctx context.Context, id int64) error {
	e, err := w.store.GetExpense(ctx, id)
	if err != nil {
		return fmt.Errorf("get expense %d: %w", id, err)
	}
	return w.exportExpense(ctx, e)
}

func (w *ExportWorker) exportExpense(ctx context.Context, e core.Expense) error {
	// Timestamp suffix keeps otherwise identical rows distinguishable in
	// the archive, installment children in particular.
	archived := e
	archived.Description = fmt.Sprintf("%s [ts:%d]", e.Description, time.Now().UnixMilli())

	ref, err := w.archive.Append(ctx, archived)
	if err != nil {
		if markErr := w.store.MarkExportError(ctx, e.ID); markErr != nil {
			slog.ErrorContext(ctx, "Failed to mark export error", "id", e.ID, "error", markErr)
		}
		return fmt.Errorf("append to archive: %w", err)
	}

	if err := w.store.MarkExported(ctx, e.ID); err != nil {
		// The append succeeded; the sweep will retry the bookkeeping.
		slog.ErrorContext(ctx, "Failed to mark as exported", "id", e.ID, "error", err)
	}

	slog.InfoContext(ctx, "Exported expense",
		"id", e.ID,
		"archive_ref", ref,
		"description", e.Description,
		"amount_cents", e.Amount.Cents)
	return nil
}

// ProcessPending sweeps one batch of rows still marked pending. This is the
// recovery path for lost events.
func (w *ExportWorker) ProcessPending(ctx context.Context) error {
	pending, err := w.store.GetPendingExportExpenses(ctx, w.batchSize)
	if err != nil {
		return fmt.Errorf("get pending export expenses: %w", err)
	}
	if len(pending) == 0 {
		return nil
	}

	slog.InfoContext(ctx, "Processing pending exports", "count", len(pending))
	for _, e := range pending {
		if err := w.exportExpense(ctx, e); err != nil {
			slog.ErrorContext(ctx, "Failed to export expense", "id", e.ID, "error", err)
		}
	}
	return nil
}

// StartupSweep drains a larger backlog once at worker start, recovering
// from downtime before the event loop takes over.
func (w *ExportWorker) StartupSweep(ctx context.Context) error {
	pending, err := w.store.GetPendingExportExpenses(ctx, w.batchSize*5)
	if err != nil {
		return fmt.Errorf("get pending export expenses for startup sweep: %w", err)
	}
	if len(pending) == 0 {
		slog.InfoContext(ctx, "No pending exports found on startup")
		return nil
	}

	slog.InfoContext(ctx, "Found pending exports on startup", "count", len(pending))

	exported := 0
	failed := 0
	for _, e := range pending {
		if err := w.exportExpense(ctx, e); err != nil {
			slog.ErrorContext(ctx, "Failed to export expense during startup sweep",
				"id", e.ID, "error", err)
			failed++
			continue
		}
		exported++
	}

	slog.InfoContext(ctx, "Startup sweep completed",
		"total", len(pending),
		"exported", exported,
		"errors", failed)
	return nil
}

// Run consumes broker events while periodically sweeping for stragglers,
// until ctx is done.
func (w *ExportWorker) Run(ctx context.Context, client *amqp.Client, sweepInterval time.Duration) error {
	if err := w.StartupSweep(ctx); err != nil {
		slog.WarnContext(ctx, "Startup sweep failed", "error", err)
	}

	go func() {
		ticker := time.NewTicker(sweepInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := w.ProcessPending(ctx); err != nil {
					slog.ErrorContext(ctx, "Periodic export sweep failed", "error", err)
				}
			}
		}
	}()

	return client.ConsumeLedgerEvents(ctx, func(msg *amqp.LedgerEventMessage) error {
		return w.HandleLedgerEvent(ctx, msg)
	})
}
