// Package memory is an in-process ledger store for development and tests.
package memory

import (
	"context"
	"sort"
	"sync"

	"budgetboard/internal/core"
	"budgetboard/internal/ledger"
)

type Store struct {
	mu       sync.Mutex
	nextID   int64
	incomes  map[core.Period]core.Income
	expenses []core.Expense
}

var _ ledger.Store = (*Store)(nil)

func New() *Store {
	return &Store{incomes: make(map[core.Period]core.Income)}
}

func (s *Store) UpsertIncome(_ context.Context, in core.Income) (core.Income, error) {
	if err := in.Validate(); err != nil {
		return core.Income{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	p := in.Period()
	if existing, ok := s.incomes[p]; ok {
		in.ID = existing.ID
	} else {
		s.nextID++
		in.ID = s.nextID
	}
	s.incomes[p] = in
	return in, nil
}

func (s *Store) GetIncome(_ context.Context, p core.Period) (core.Income, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	in, ok := s.incomes[p]
	if !ok {
		return core.Income{}, ledger.ErrNotFound
	}
	return in, nil
}

func (s *Store) CreateExpense(_ context.Context, e core.Expense) (core.Expense, error) {
	if err := e.Validate(); err != nil {
		return core.Expense{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	e.ID = s.nextID
	s.expenses = append(s.expenses, e)
	return e, nil
}

func (s *Store) DeleteExpense(_ context.Context, id int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, e := range s.expenses {
		if e.ID == id {
			s.expenses = append(s.expenses[:i], s.expenses[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

func (s *Store) ListExpenses(_ context.Context, p core.Period) ([]core.Expense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []core.Expense{}
	for _, e := range s.expenses {
		if e.Period() == p {
			out = append(out, e)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date.Time) {
			return out[i].Date.After(out[j].Date.Time)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

func (s *Store) Close() error { return nil }
