// Package ledger holds the income and expense records behind the budget API.
package ledger

import (
	"context"
	"errors"

	"budgetboard/internal/core"
)

// ErrNotFound is returned by stores for lookups of unknown records.
var ErrNotFound = errors.New("not found")

// Store persists incomes and expenses.
type Store interface {
	// UpsertIncome creates or replaces the income of the period.
	UpsertIncome(ctx context.Context, in core.Income) (core.Income, error)
	// GetIncome returns ErrNotFound when the period has no income.
	GetIncome(ctx context.Context, p core.Period) (core.Income, error)
	CreateExpense(ctx context.Context, e core.Expense) (core.Expense, error)
	// DeleteExpense reports whether a record was removed.
	DeleteExpense(ctx context.Context, id int64) (bool, error)
	// ListExpenses returns the period's expenses, newest date first.
	ListExpenses(ctx context.Context, p core.Period) ([]core.Expense, error)
	Close() error
}

// Publisher announces ledger changes to other processes.
type Publisher interface {
	PublishLedgerEvent(ctx context.Context, ev Event) error
}
