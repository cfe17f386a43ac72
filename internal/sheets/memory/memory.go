// Package memory is an in-process sheets mirror used by tests and dry runs.
package memory

import (
	"context"
	"sort"
	"sync"

	"budgetboard/internal/core"
	ports "budgetboard/internal/sheets"
)

type Store struct {
	mu       sync.Mutex
	expenses map[int64]core.Expense
	incomes  map[core.Period]core.Decimal
	fail     error
}

var _ ports.Mirror = (*Store)(nil)

func New() *Store {
	return &Store{
		expenses: make(map[int64]core.Expense),
		incomes:  make(map[core.Period]core.Decimal),
	}
}

// FailWith makes every following call return err. Pass nil to recover.
func (s *Store) FailWith(err error) {
	s.mu.Lock()
	s.fail = err
	s.mu.Unlock()
}

func (s *Store) AppendExpense(_ context.Context, e core.Expense) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail != nil {
		return s.fail
	}
	if _, ok := s.expenses[e.ID]; !ok {
		s.expenses[e.ID] = e
	}
	return nil
}

func (s *Store) DeleteExpense(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail != nil {
		return s.fail
	}
	delete(s.expenses, id)
	return nil
}

func (s *Store) UpsertIncome(_ context.Context, in core.Income) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail != nil {
		return s.fail
	}
	s.incomes[in.Period()] = in.Amount
	return nil
}

// Expenses returns the mirrored expenses ordered by id.
func (s *Store) Expenses() []core.Expense {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.Expense, 0, len(s.expenses))
	for _, e := range s.expenses {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Income returns the mirrored income of p.
func (s *Store) Income(p core.Period) (core.Decimal, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	amount, ok := s.incomes[p]
	return amount, ok
}
