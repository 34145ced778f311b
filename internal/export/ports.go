// Package export defines the outbound port for archiving expense rows to
// an external spreadsheet.
package export

import (
	"context"

	"bilancio/internal/core"
)

// ExpenseAppender appends one expense row to the archive and returns a
// reference to where it landed.
type ExpenseAppender interface {
	Append(ctx context.Context, e core.Expense) (rowRef string, err error)
}
