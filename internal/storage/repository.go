// Package storage implements the record store on SQLite. Every multi-record
// write (installment families, mark-paid, month close) runs inside a single
// transaction so a partial family can never be observed.
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"bilancio/internal/core"
	"bilancio/internal/ledger"

	_ "modernc.org/sqlite"
)

const dateLayout = "2006-01-02"

// Export bookkeeping states for the worker sweep.
const (
	ExportPending  = "pending"
	ExportDone     = "exported"
	ExportError    = "error"
	ExportExcluded = "excluded" // parent metadata rows are never exported
)

type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

func (r *SQLiteRepository) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("%w (rollback failed: %v)", err, rbErr)
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// --- expenses ---

func nullableID(p *int64) sql.NullInt64 {
	if p == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *p, Valid: true}
}

func idPointer(n sql.NullInt64) *int64 {
	if !n.Valid {
		return nil
	}
	v := n.Int64
	return &v
}

func insertExpense(ctx context.Context, tx *sql.Tx, e core.Expense, exportStatus string) (int64, error) {
	res, err := tx.ExecContext(ctx, `
		INSERT INTO expenses (
			amount_cents, total_amount_cents, description, date,
			financial_type, payment_status,
			service_id, debt_id, payment_group_id, credit_card_id,
			is_parent, parent_expense_id, installment_number, installments,
			export_status
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.Amount.Cents, e.TotalAmount.Cents, e.Description, e.Date.Format(dateLayout),
		string(e.FinancialType), string(e.PaymentStatus),
		nullableID(e.ServiceID), nullableID(e.DebtID), nullableID(e.PaymentGroupID), nullableID(e.CreditCardID),
		e.IsParent, nullableID(e.ParentExpenseID), e.InstallmentNumber, e.Installments,
		exportStatus,
	)
	if err != nil {
		return 0, fmt.Errorf("insert expense: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("expense id: %w", err)
	}
	for _, catID := range e.CategoryIDs {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO expense_categories (expense_id, category_id) VALUES (?, ?)`,
			id, catID); err != nil {
			return 0, fmt.Errorf("link category %d: %w", catID, err)
		}
	}
	return id, nil
}

// bumpCategoryUsage increments the usage counter once per distinct category
// of a purchase, regardless of how many rows the purchase produced.
func bumpCategoryUsage(ctx context.Context, tx *sql.Tx, categoryIDs []int64) error {
	seen := make(map[int64]bool, len(categoryIDs))
	for _, catID := range categoryIDs {
		if seen[catID] {
			continue
		}
		seen[catID] = true
		if _, err := tx.ExecContext(ctx,
			`UPDATE categories SET usage_count = usage_count + 1 WHERE id = ?`,
			catID); err != nil {
			return fmt.Errorf("bump category %d usage: %w", catID, err)
		}
	}
	return nil
}

// CreateExpense validates and stores a single (non-installment) expense.
func (r *SQLiteRepository) CreateExpense(ctx context.Context, e core.Expense) (int64, error) {
	if err := e.Validate(); err != nil {
		return 0, err
	}
	var id int64
	err := r.withTx(ctx, func(tx *sql.Tx) error {
		var err error
		id, err = insertExpense(ctx, tx, e, ExportPending)
		if err != nil {
			return err
		}
		return bumpCategoryUsage(ctx, tx, e.CategoryIDs)
	})
	if err != nil {
		return 0, err
	}

	slog.InfoContext(ctx, "Expense saved",
		"id", id,
		"description", e.Description,
		"amount_cents", e.Amount.Cents,
		"date", e.Date.Format(dateLayout))
	return id, nil
}

// CreateInstallmentPlan stores a whole installment family atomically: the
// parent, every child, the category links, and the usage counters all land
// in one transaction or not at all.
func (r *SQLiteRepository) CreateInstallmentPlan(ctx context.Context, plan ledger.InstallmentPlan) (int64, []int64, error) {
	if err := plan.Parent.Validate(); err != nil {
		return 0, nil, err
	}

	var parentID int64
	childIDs := make([]int64, 0, len(plan.Children))
	err := r.withTx(ctx, func(tx *sql.Tx) error {
		var err error
		parentID, err = insertExpense(ctx, tx, plan.Parent, ExportExcluded)
		if err != nil {
			return fmt.Errorf("parent: %w", err)
		}
		for i, child := range plan.Children {
			child.ParentExpenseID = &parentID
			childID, err := insertExpense(ctx, tx, child, ExportPending)
			if err != nil {
				return fmt.Errorf("installment %d: %w", i+1, err)
			}
			childIDs = append(childIDs, childID)
		}
		return bumpCategoryUsage(ctx, tx, plan.Parent.CategoryIDs)
	})
	if err != nil {
		return 0, nil, err
	}

	slog.InfoContext(ctx, "Installment plan saved",
		"parent_id", parentID,
		"installments", len(childIDs),
		"total_cents", plan.Parent.TotalAmount.Cents,
		"description", plan.Parent.Description)
	return parentID, childIDs, nil
}

// familyRoot resolves the parent id of an installment family, or the id
// itself for standalone expenses and parents.
func (r *SQLiteRepository) familyRoot(ctx context.Context, tx *sql.Tx, id int64) (int64, error) {
	var parent sql.NullInt64
	err := tx.QueryRowContext(ctx,
		`SELECT parent_expense_id FROM expenses WHERE id = ?`, id).Scan(&parent)
	if err == sql.ErrNoRows {
		return 0, core.ErrNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("resolve family root: %w", err)
	}
	if parent.Valid {
		return parent.Int64, nil
	}
	return id, nil
}

// DeleteExpense removes an expense. Deleting any member of an installment
// family removes the whole family, parent included; the records represent
// one purchase.
func (r *SQLiteRepository) DeleteExpense(ctx context.Context, id int64) error {
	err := r.withTx(ctx, func(tx *sql.Tx) error {
		root, err := r.familyRoot(ctx, tx, id)
		if err != nil {
			return err
		}
		res, err := tx.ExecContext(ctx,
			`DELETE FROM expenses WHERE id = ? OR parent_expense_id = ?`, root, root)
		if err != nil {
			return fmt.Errorf("delete expense family: %w", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return core.ErrNotFound
		}
		return nil
	})
	if err != nil {
		return err
	}
	slog.InfoContext(ctx, "Expense deleted", "id", id)
	return nil
}

// UpdateExpenseClassification changes the financial type and categories of
// an expense. The change propagates to every member of an installment
// family.
func (r *SQLiteRepository) UpdateExpenseClassification(ctx context.Context, id int64, financialType core.FinancialType, categoryIDs []int64) error {
	if err := financialType.Validate(); err != nil {
		return err
	}
	return r.withTx(ctx, func(tx *sql.Tx) error {
		root, err := r.familyRoot(ctx, tx, id)
		if err != nil {
			return err
		}
		res, err := tx.ExecContext(ctx,
			`UPDATE expenses SET financial_type = ? WHERE id = ? OR parent_expense_id = ?`,
			string(financialType), root, root)
		if err != nil {
			return fmt.Errorf("update financial type: %w", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return core.ErrNotFound
		}

		rows, err := tx.QueryContext(ctx,
			`SELECT id FROM expenses WHERE id = ? OR parent_expense_id = ?`, root, root)
		if err != nil {
			return fmt.Errorf("list family: %w", err)
		}
		var familyIDs []int64
		for rows.Next() {
			var memberID int64
			if err := rows.Scan(&memberID); err != nil {
				rows.Close()
				return fmt.Errorf("scan family member: %w", err)
			}
			familyIDs = append(familyIDs, memberID)
		}
		if err := rows.Err(); err != nil {
			rows.Close()
			return fmt.Errorf("iterate family: %w", err)
		}
		rows.Close()

		for _, memberID := range familyIDs {
			if _, err := tx.ExecContext(ctx,
				`DELETE FROM expense_categories WHERE expense_id = ?`, memberID); err != nil {
				return fmt.Errorf("clear category links: %w", err)
			}
			for _, catID := range categoryIDs {
				if _, err := tx.ExecContext(ctx,
					`INSERT INTO expense_categories (expense_id, category_id) VALUES (?, ?)`,
					memberID, catID); err != nil {
					return fmt.Errorf("relink category %d: %w", catID, err)
				}
			}
		}
		return nil
	})
}

const expenseColumns = `
	id, amount_cents, total_amount_cents, description, date,
	financial_type, payment_status,
	service_id, debt_id, payment_group_id, credit_card_id,
	is_parent, parent_expense_id, installment_number, installments`

func scanExpense(scan func(dest ...any) error) (core.Expense, error) {
	var (
		e                                       core.Expense
		dateStr                                 string
		finType, status                         string
		serviceID, debtID, groupID, cardID, pid sql.NullInt64
	)
	err := scan(
		&e.ID, &e.Amount.Cents, &e.TotalAmount.Cents, &e.Description, &dateStr,
		&finType, &status,
		&serviceID, &debtID, &groupID, &cardID,
		&e.IsParent, &pid, &e.InstallmentNumber, &e.Installments,
	)
	if err != nil {
		return core.Expense{}, err
	}
	date, err := time.ParseInLocation(dateLayout, dateStr, time.UTC)
	if err != nil {
		return core.Expense{}, fmt.Errorf("parse expense date %q: %w", dateStr, err)
	}
	e.Date = date
	e.FinancialType = core.FinancialType(finType)
	e.PaymentStatus = core.PaymentStatus(status)
	e.ServiceID = idPointer(serviceID)
	e.DebtID = idPointer(debtID)
	e.PaymentGroupID = idPointer(groupID)
	e.CreditCardID = idPointer(cardID)
	e.ParentExpenseID = idPointer(pid)
	return e, nil
}

// GetExpense retrieves a single expense by id, categories included.
func (r *SQLiteRepository) GetExpense(ctx context.Context, id int64) (core.Expense, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+expenseColumns+` FROM expenses WHERE id = ?`, id)
	e, err := scanExpense(row.Scan)
	if err == sql.ErrNoRows {
		return core.Expense{}, core.ErrNotFound
	}
	if err != nil {
		return core.Expense{}, fmt.Errorf("get expense %d: %w", id, err)
	}
	if err := r.loadCategoryLinks(ctx, map[int64]*core.Expense{e.ID: &e}); err != nil {
		return core.Expense{}, err
	}
	return e, nil
}

// ListMonthExpenses returns every expense row dated within the month,
// parents included: filtering for balance math happens in the ledger
// package, not here.
func (r *SQLiteRepository) ListMonthExpenses(ctx context.Context, year, month int) ([]core.Expense, error) {
	start := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 1, 0)

	rows, err := r.db.QueryContext(ctx,
		`SELECT `+expenseColumns+` FROM expenses WHERE date >= ? AND date < ? ORDER BY date, id`,
		start.Format(dateLayout), end.Format(dateLayout))
	if err != nil {
		return nil, fmt.Errorf("list month expenses: %w", err)
	}
	defer rows.Close()

	var out []core.Expense
	index := map[int64]*core.Expense{}
	for rows.Next() {
		e, err := scanExpense(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scan expense: %w", err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate expenses: %w", err)
	}
	for i := range out {
		index[out[i].ID] = &out[i]
	}
	if err := r.loadCategoryLinks(ctx, index); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *SQLiteRepository) loadCategoryLinks(ctx context.Context, byID map[int64]*core.Expense) error {
	if len(byID) == 0 {
		return nil
	}
	rows, err := r.db.QueryContext(ctx,
		`SELECT expense_id, category_id FROM expense_categories ORDER BY expense_id, category_id`)
	if err != nil {
		return fmt.Errorf("load category links: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var expenseID, categoryID int64
		if err := rows.Scan(&expenseID, &categoryID); err != nil {
			return fmt.Errorf("scan category link: %w", err)
		}
		if e, ok := byID[expenseID]; ok {
			e.CategoryIDs = append(e.CategoryIDs, categoryID)
		}
	}
	return rows.Err()
}

// --- incomes ---

func (r *SQLiteRepository) CreateIncome(ctx context.Context, in core.Income) (int64, error) {
	if err := in.Validate(); err != nil {
		return 0, err
	}
	var date any
	if !in.Date.IsZero() {
		date = in.Date.Format(dateLayout)
	}
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO incomes (amount_cents, description, type, date, is_recurring, recurring_day, recurring_frequency)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		in.Amount.Cents, in.Description, in.Type, date,
		in.IsRecurring, in.RecurringDay, string(in.RecurringFrequency))
	if err != nil {
		return 0, fmt.Errorf("insert income: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("income id: %w", err)
	}
	slog.InfoContext(ctx, "Income saved",
		"id", id,
		"description", in.Description,
		"amount_cents", in.Amount.Cents,
		"recurring", in.IsRecurring)
	return id, nil
}

func (r *SQLiteRepository) DeleteIncome(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM incomes WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete income: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return core.ErrNotFound
	}
	return nil
}

func (r *SQLiteRepository) ListIncomes(ctx context.Context) ([]core.Income, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, amount_cents, description, type, date, is_recurring, recurring_day, recurring_frequency
		FROM incomes ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list incomes: %w", err)
	}
	defer rows.Close()

	var out []core.Income
	for rows.Next() {
		var (
			in      core.Income
			dateStr sql.NullString
			freq    string
		)
		if err := rows.Scan(&in.ID, &in.Amount.Cents, &in.Description, &in.Type,
			&dateStr, &in.IsRecurring, &in.RecurringDay, &freq); err != nil {
			return nil, fmt.Errorf("scan income: %w", err)
		}
		if dateStr.Valid && dateStr.String != "" {
			date, err := time.ParseInLocation(dateLayout, dateStr.String, time.UTC)
			if err != nil {
				return nil, fmt.Errorf("parse income date %q: %w", dateStr.String, err)
			}
			in.Date = date
		}
		in.RecurringFrequency = core.Frequency(freq)
		out = append(out, in)
	}
	return out, rows.Err()
}

// HasIncome reports whether the user tracks any income at all; it gates
// the month-close prompt.
func (r *SQLiteRepository) HasIncome(ctx context.Context) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM incomes)`).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check incomes: %w", err)
	}
	return exists, nil
}

// --- recurring services and payments ---

func (r *SQLiteRepository) CreateService(ctx context.Context, s core.RecurringService) (int64, error) {
	if err := s.Validate(); err != nil {
		return 0, err
	}
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO recurring_services (name, estimated_amount_cents, day_of_month, category_id, active)
		VALUES (?, ?, ?, ?, ?)`,
		s.Name, s.EstimatedAmount.Cents, s.DayOfMonth, nullableID(s.CategoryID), s.Active)
	if err != nil {
		return 0, fmt.Errorf("insert service: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("service id: %w", err)
	}
	slog.InfoContext(ctx, "Recurring service saved",
		"id", id, "name", s.Name, "day_of_month", s.DayOfMonth)
	return id, nil
}

func (r *SQLiteRepository) ListServices(ctx context.Context) ([]core.RecurringService, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, estimated_amount_cents, day_of_month, category_id, active
		FROM recurring_services ORDER BY day_of_month, id`)
	if err != nil {
		return nil, fmt.Errorf("list services: %w", err)
	}
	defer rows.Close()

	var out []core.RecurringService
	for rows.Next() {
		var (
			s     core.RecurringService
			catID sql.NullInt64
		)
		if err := rows.Scan(&s.ID, &s.Name, &s.EstimatedAmount.Cents, &s.DayOfMonth, &catID, &s.Active); err != nil {
			return nil, fmt.Errorf("scan service: %w", err)
		}
		s.CategoryID = idPointer(catID)
		out = append(out, s)
	}
	return out, rows.Err()
}

// SetServiceActive flips the active flag without touching past payments.
func (r *SQLiteRepository) SetServiceActive(ctx context.Context, id int64, active bool) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE recurring_services SET active = ? WHERE id = ?`, active, id)
	if err != nil {
		return fmt.Errorf("set service active: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return core.ErrNotFound
	}
	return nil
}

func (r *SQLiteRepository) ListServicePayments(ctx context.Context, month, year int) ([]core.ServicePayment, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT service_id, month, year, status, amount_cents, expense_id
		FROM service_payments WHERE month = ? AND year = ?`, month, year)
	if err != nil {
		return nil, fmt.Errorf("list service payments: %w", err)
	}
	defer rows.Close()

	var out []core.ServicePayment
	for rows.Next() {
		var (
			p         core.ServicePayment
			status    string
			expenseID sql.NullInt64
		)
		if err := rows.Scan(&p.ServiceID, &p.Month, &p.Year, &status, &p.Amount.Cents, &expenseID); err != nil {
			return nil, fmt.Errorf("scan service payment: %w", err)
		}
		p.Status = core.PaymentStatus(status)
		if expenseID.Valid {
			p.ExpenseID = expenseID.Int64
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// MarkServicePaid records an obligation payment: the linked expense and the
// payment row are written in the same transaction, so the obligation either
// becomes paid with its expense or stays pending untouched.
func (r *SQLiteRepository) MarkServicePaid(ctx context.Context, expense core.Expense, payment core.ServicePayment) (int64, error) {
	if err := expense.Validate(); err != nil {
		return 0, err
	}
	if err := payment.Validate(); err != nil {
		return 0, err
	}

	var expenseID int64
	err := r.withTx(ctx, func(tx *sql.Tx) error {
		var err error
		expenseID, err = insertExpense(ctx, tx, expense, ExportPending)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO service_payments (service_id, month, year, status, amount_cents, expense_id)
			VALUES (?, ?, ?, ?, ?, ?)
			ON CONFLICT(service_id, month, year) DO UPDATE SET
				status = excluded.status,
				amount_cents = excluded.amount_cents,
				expense_id = excluded.expense_id`,
			payment.ServiceID, payment.Month, payment.Year,
			string(core.StatusPaid), payment.Amount.Cents, expenseID); err != nil {
			return fmt.Errorf("upsert service payment: %w", err)
		}
		return bumpCategoryUsage(ctx, tx, expense.CategoryIDs)
	})
	if err != nil {
		return 0, err
	}

	slog.InfoContext(ctx, "Service marked paid",
		"service_id", payment.ServiceID,
		"month", payment.Month,
		"year", payment.Year,
		"amount_cents", payment.Amount.Cents,
		"expense_id", expenseID)
	return expenseID, nil
}

// --- preferences and month close ---

func (r *SQLiteRepository) GetPreferences(ctx context.Context) (core.Preferences, error) {
	var (
		p   core.Preferences
		key string
	)
	err := r.db.QueryRowContext(ctx,
		`SELECT last_closed_month, carryover_cents FROM preferences WHERE id = 1`).
		Scan(&key, &p.Carryover.Cents)
	if err != nil {
		return core.Preferences{}, fmt.Errorf("get preferences: %w", err)
	}
	p.LastClosedMonth = core.MonthKey(key)
	return p, nil
}

// ApplyMonthClose persists a month-close transition: the preference update
// and the optional adjustment expense commit together.
func (r *SQLiteRepository) ApplyMonthClose(ctx context.Context, result ledger.CloseResult) (int64, error) {
	var adjustmentID int64
	err := r.withTx(ctx, func(tx *sql.Tx) error {
		if result.Adjustment != nil {
			var err error
			adjustmentID, err = insertExpense(ctx, tx, *result.Adjustment, ExportPending)
			if err != nil {
				return fmt.Errorf("adjustment expense: %w", err)
			}
		}
		if _, err := tx.ExecContext(ctx,
			`UPDATE preferences SET last_closed_month = ?, carryover_cents = ? WHERE id = 1`,
			string(result.Preferences.LastClosedMonth), result.Preferences.Carryover.Cents); err != nil {
			return fmt.Errorf("update preferences: %w", err)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	slog.InfoContext(ctx, "Month closed",
		"month", string(result.Preferences.LastClosedMonth),
		"carryover_cents", result.Preferences.Carryover.Cents,
		"adjustment_id", adjustmentID)
	return adjustmentID, nil
}

// --- categories ---

func (r *SQLiteRepository) CreateCategory(ctx context.Context, name string) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO categories (name) VALUES (?) ON CONFLICT(name) DO NOTHING`, name)
	if err != nil {
		return 0, fmt.Errorf("insert category: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		var id int64
		if err := r.db.QueryRowContext(ctx,
			`SELECT id FROM categories WHERE name = ?`, name).Scan(&id); err != nil {
			return 0, fmt.Errorf("lookup category: %w", err)
		}
		return id, nil
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("category id: %w", err)
	}
	return id, nil
}

// --- export bookkeeping ---

// GetPendingExportExpenses returns expenses not yet appended to the export
// archive, oldest first. Parent rows are excluded for good.
func (r *SQLiteRepository) GetPendingExportExpenses(ctx context.Context, limit int) ([]core.Expense, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+expenseColumns+` FROM expenses WHERE export_status = ? ORDER BY id LIMIT ?`,
		ExportPending, limit)
	if err != nil {
		return nil, fmt.Errorf("get pending export expenses: %w", err)
	}
	defer rows.Close()

	var out []core.Expense
	for rows.Next() {
		e, err := scanExpense(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scan pending expense: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) setExportStatus(ctx context.Context, id int64, status string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE expenses SET export_status = ? WHERE id = ?`, status, id)
	if err != nil {
		return fmt.Errorf("set export status: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return core.ErrNotFound
	}
	return nil
}

// MarkExported marks an expense as successfully appended to the archive.
func (r *SQLiteRepository) MarkExported(ctx context.Context, id int64) error {
	if err := r.setExportStatus(ctx, id, ExportDone); err != nil {
		return err
	}
	slog.InfoContext(ctx, "Expense marked as exported", "id", id)
	return nil
}

// MarkExportError flags an expense whose export failed; the periodic sweep
// does not retry it automatically.
func (r *SQLiteRepository) MarkExportError(ctx context.Context, id int64) error {
	if err := r.setExportStatus(ctx, id, ExportError); err != nil {
		return err
	}
	slog.WarnContext(ctx, "Expense marked with export error", "id", id)
	return nil
}
