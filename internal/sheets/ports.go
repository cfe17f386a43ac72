package sheets

import (
	"context"

	"budgetboard/internal/core"
)

// Mirror keeps a spreadsheet copy of the ledger. Every method is idempotent
// so redelivered events can be applied again safely.
type Mirror interface {
	// AppendExpense adds a row for e unless one with its id exists.
	AppendExpense(ctx context.Context, e core.Expense) error
	// DeleteExpense clears the row of the expense id, if present.
	DeleteExpense(ctx context.Context, id int64) error
	// UpsertIncome writes the income row of the period.
	UpsertIncome(ctx context.Context, in core.Income) error
}
