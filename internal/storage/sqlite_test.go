package storage

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"budgetboard/internal/core"
	"budgetboard/internal/ledger"
	applog "budgetboard/internal/log"
	"budgetboard/internal/storage/storetest"
)

func newTestRepository(t *testing.T) *SQLiteRepository {
	t.Helper()
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "budget.db"), applog.Discard())
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })
	return repo
}

func TestSQLiteRepository(t *testing.T) {
	storetest.Run(t, func(t *testing.T) ledger.Store {
		return newTestRepository(t)
	})
}

func TestSQLiteRepository_Reopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "budget.db")

	repo, err := NewSQLiteRepository(path, applog.Discard())
	require.NoError(t, err)
	_, err = repo.UpsertIncome(ctx, core.Income{Amount: core.DecimalFromInt(2000), Month: 1, Year: 2025})
	require.NoError(t, err)
	require.NoError(t, repo.Close())

	// Migrations are idempotent and data survives a restart.
	repo, err = NewSQLiteRepository(path, applog.Discard())
	require.NoError(t, err)
	defer repo.Close()

	in, err := repo.GetIncome(ctx, core.NewPeriod(2025, 1))
	require.NoError(t, err)
	assert.True(t, in.Amount.Equal(core.DecimalFromInt(2000)))
	assert.NoError(t, repo.Ping(ctx))
}
