package ledger

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"budgetboard/internal/core"
	applog "budgetboard/internal/log"
)

// Service orchestrates ledger operations across the store and the event
// publisher. Publishing is best effort: a stored change is never rolled back
// because its event could not be sent.
type Service struct {
	store     Store
	publisher Publisher
	logger    *applog.Logger
}

// NewService creates a service. publisher may be nil.
func NewService(store Store, publisher Publisher, logger *applog.Logger) *Service {
	return &Service{
		store:     store,
		publisher: publisher,
		logger:    logger.WithComponent(applog.ComponentLedger),
	}
}

// SaveIncome upserts the income of in's period.
func (s *Service) SaveIncome(ctx context.Context, in core.Income) (core.Income, error) {
	if err := in.Validate(); err != nil {
		return core.Income{}, err
	}
	saved, err := s.store.UpsertIncome(ctx, in)
	if err != nil {
		return core.Income{}, fmt.Errorf("save income: %w", err)
	}
	s.logger.Info("Income saved",
		applog.FieldPeriod, saved.Period().String(),
		applog.FieldAmount, saved.Amount.String())
	s.publish(ctx, IncomeSaved(saved))
	return saved, nil
}

// AddExpense stores a new expense.
func (s *Service) AddExpense(ctx context.Context, e core.Expense) (core.Expense, error) {
	if err := e.Validate(); err != nil {
		return core.Expense{}, err
	}
	created, err := s.store.CreateExpense(ctx, e)
	if err != nil {
		return core.Expense{}, fmt.Errorf("create expense: %w", err)
	}
	s.logger.Info("Expense created",
		applog.FieldExpenseID, created.ID,
		applog.FieldCategory, created.Category,
		applog.FieldAmount, created.Amount.String())
	s.publish(ctx, ExpenseCreated(created))
	return created, nil
}

// DeleteExpense removes an expense. Deleting an unknown id succeeds.
func (s *Service) DeleteExpense(ctx context.Context, id int64) error {
	removed, err := s.store.DeleteExpense(ctx, id)
	if err != nil {
		return fmt.Errorf("delete expense: %w", err)
	}
	if !removed {
		s.logger.Debug("Delete of unknown expense", applog.FieldExpenseID, id)
		return nil
	}
	s.logger.Info("Expense deleted", applog.FieldExpenseID, id)
	s.publish(ctx, ExpenseDeleted(id))
	return nil
}

// ListExpenses returns the expenses of p, newest first.
func (s *Service) ListExpenses(ctx context.Context, p core.Period) ([]core.Expense, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	expenses, err := s.store.ListExpenses(ctx, p)
	if err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	if expenses == nil {
		expenses = []core.Expense{}
	}
	return expenses, nil
}

// Summary aggregates the income and expenses of p. A period without income
// counts as zero income.
func (s *Service) Summary(ctx context.Context, p core.Period) (core.Summary, error) {
	expenses, err := s.ListExpenses(ctx, p)
	if err != nil {
		return core.Summary{}, err
	}
	income := core.Zero
	in, err := s.store.GetIncome(ctx, p)
	switch {
	case err == nil:
		income = in.Amount
	case errors.Is(err, ErrNotFound):
	default:
		return core.Summary{}, fmt.Errorf("get income: %w", err)
	}
	// Categories are reported in the order they were first recorded.
	byCreation := append([]core.Expense(nil), expenses...)
	sort.SliceStable(byCreation, func(i, j int) bool { return byCreation[i].ID < byCreation[j].ID })
	return core.Summarize(income, byCreation), nil
}

// Close closes the store.
func (s *Service) Close() error {
	return s.store.Close()
}

func (s *Service) publish(ctx context.Context, ev Event) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishLedgerEvent(ctx, ev); err != nil {
		s.logger.ErrorOp(ctx, "Failed to publish ledger event", applog.OpPublish, err,
			applog.FieldEvent, string(ev.Type))
	}
}
