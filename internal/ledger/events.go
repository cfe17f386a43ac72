package ledger

import (
	"time"

	"github.com/google/uuid"

	"budgetboard/internal/core"
)

type EventType string

const (
	EventIncomeSaved    EventType = "income.saved"
	EventExpenseCreated EventType = "expense.created"
	EventExpenseDeleted EventType = "expense.deleted"
)

// Event is one change of the ledger.
type Event struct {
	ID         string        `json:"id"`
	Type       EventType     `json:"type"`
	Income     *core.Income  `json:"income,omitempty"`
	Expense    *core.Expense `json:"expense,omitempty"`
	ExpenseID  int64         `json:"expense_id,omitempty"`
	OccurredAt time.Time     `json:"occurred_at"`
}

func newEvent(t EventType) Event {
	return Event{ID: uuid.NewString(), Type: t, OccurredAt: time.Now().UTC()}
}

// IncomeSaved returns the event for an upserted income.
func IncomeSaved(in core.Income) Event {
	ev := newEvent(EventIncomeSaved)
	ev.Income = &in
	return ev
}

// ExpenseCreated returns the event for a new expense.
func ExpenseCreated(e core.Expense) Event {
	ev := newEvent(EventExpenseCreated)
	ev.Expense = &e
	return ev
}

// ExpenseDeleted returns the event for a removed expense.
func ExpenseDeleted(id int64) Event {
	ev := newEvent(EventExpenseDeleted)
	ev.ExpenseID = id
	return ev
}
