// Package storetest holds behaviour tests shared by every ledger.Store.
package storetest

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"budgetboard/internal/core"
	"budgetboard/internal/ledger"
)

// Run exercises newStore against the ledger.Store contract. newStore must
// return an empty store.
func Run(t *testing.T, newStore func(t *testing.T) ledger.Store) {
	t.Helper()

	t.Run("income upsert keeps one record per period", func(t *testing.T) {
		ctx := context.Background()
		s := newStore(t)

		first, err := s.UpsertIncome(ctx, core.Income{Amount: core.DecimalFromInt(1000), Month: 3, Year: 2025})
		require.NoError(t, err)
		second, err := s.UpsertIncome(ctx, core.Income{Amount: core.MustDecimal("1500.25"), Month: 3, Year: 2025})
		require.NoError(t, err)
		assert.Equal(t, first.ID, second.ID)

		got, err := s.GetIncome(ctx, core.NewPeriod(2025, 3))
		require.NoError(t, err)
		assert.True(t, got.Amount.Equal(core.MustDecimal("1500.25")))

		_, err = s.GetIncome(ctx, core.NewPeriod(2025, 4))
		assert.ErrorIs(t, err, ledger.ErrNotFound)
	})

	t.Run("expenses are listed per period newest first", func(t *testing.T) {
		ctx := context.Background()
		s := newStore(t)

		inputs := []core.Expense{
			{Date: core.NewDate(2025, 3, 1), Category: "Rent", Description: "March", Amount: core.DecimalFromInt(900)},
			{Date: core.NewDate(2025, 3, 20), Category: "Food", Amount: core.MustDecimal("12.34")},
			{Date: core.NewDate(2025, 4, 2), Category: "Food", Amount: core.DecimalFromInt(5)},
			{Date: core.NewDate(2025, 3, 20), Category: "Transport", Amount: core.DecimalFromInt(30)},
		}
		var ids []int64
		for _, in := range inputs {
			created, err := s.CreateExpense(ctx, in)
			require.NoError(t, err)
			require.NotZero(t, created.ID)
			ids = append(ids, created.ID)
		}

		got, err := s.ListExpenses(ctx, core.NewPeriod(2025, 3))
		require.NoError(t, err)
		require.Len(t, got, 3)
		assert.Equal(t, ids[3], got[0].ID)
		assert.Equal(t, ids[1], got[1].ID)
		assert.Equal(t, ids[0], got[2].ID)
		assert.Equal(t, "March", got[2].Description)
		assert.True(t, got[1].Amount.Equal(core.MustDecimal("12.34")))
		assert.Equal(t, "2025-03-20", got[1].Date.String())

		empty, err := s.ListExpenses(ctx, core.NewPeriod(2024, 1))
		require.NoError(t, err)
		assert.NotNil(t, empty)
		assert.Empty(t, empty)
	})

	t.Run("delete reports whether a record was removed", func(t *testing.T) {
		ctx := context.Background()
		s := newStore(t)

		created, err := s.CreateExpense(ctx, core.Expense{Date: core.NewDate(2025, 3, 1), Category: "Food", Amount: core.DecimalFromInt(1)})
		require.NoError(t, err)

		removed, err := s.DeleteExpense(ctx, created.ID)
		require.NoError(t, err)
		assert.True(t, removed)

		removed, err = s.DeleteExpense(ctx, created.ID)
		require.NoError(t, err)
		assert.False(t, removed)

		got, err := s.ListExpenses(ctx, core.NewPeriod(2025, 3))
		require.NoError(t, err)
		assert.Empty(t, got)
	})
}
