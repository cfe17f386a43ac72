// Package postgres is the PostgreSQL ledger store built on a pgx pool.
package postgres

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"time"

	"github.com/golang-migrate/migrate/v4"
	pgxmigrate "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"

	"budgetboard/internal/core"
	"budgetboard/internal/ledger"
	applog "budgetboard/internal/log"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

type Repository struct {
	pool   *pgxpool.Pool
	logger *applog.Logger
}

var _ ledger.Store = (*Repository)(nil)

// NewRepository connects to dsn and applies the schema migrations.
func NewRepository(ctx context.Context, dsn string, logger *applog.Logger) (*Repository, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("create pgx pool: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	if err := runMigrations(pool); err != nil {
		pool.Close()
		return nil, err
	}

	return &Repository{
		pool:   pool,
		logger: logger.WithComponent(applog.ComponentStorage),
	}, nil
}

func runMigrations(pool *pgxpool.Pool) error {
	db := stdlib.OpenDBFromPool(pool)
	defer db.Close()

	driver, err := pgxmigrate.WithInstance(db, &pgxmigrate.Config{})
	if err != nil {
		return fmt.Errorf("create pgx migrate driver: %w", err)
	}
	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("create iofs source: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", src, "pgx5", driver)
	if err != nil {
		return fmt.Errorf("create migrate instance: %w", err)
	}
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("run migrations: %w", err)
	}
	return nil
}

func (r *Repository) Close() error {
	r.pool.Close()
	return nil
}

// Ping checks the pool connection.
func (r *Repository) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}

func (r *Repository) UpsertIncome(ctx context.Context, in core.Income) (core.Income, error) {
	err := r.pool.QueryRow(ctx, `
		INSERT INTO income (amount, month, year)
		VALUES ($1::numeric, $2, $3)
		ON CONFLICT (year, month) DO UPDATE
		SET amount = EXCLUDED.amount, updated_at = now()
		RETURNING id`,
		in.Amount.String(), in.Month, in.Year).Scan(&in.ID)
	if err != nil {
		return core.Income{}, fmt.Errorf("upsert income: %w", err)
	}
	r.logger.Debug("Income saved to Postgres", "id", in.ID, applog.FieldPeriod, in.Period().String())
	return in, nil
}

func (r *Repository) GetIncome(ctx context.Context, p core.Period) (core.Income, error) {
	in := core.Income{Month: p.Month, Year: p.Year}
	var amount string
	err := r.pool.QueryRow(ctx,
		`SELECT id, amount::text FROM income WHERE year = $1 AND month = $2`,
		p.Year, p.Month).Scan(&in.ID, &amount)
	if errors.Is(err, pgx.ErrNoRows) {
		return core.Income{}, ledger.ErrNotFound
	}
	if err != nil {
		return core.Income{}, fmt.Errorf("get income: %w", err)
	}
	if in.Amount, err = core.ParseAmount(amount); err != nil {
		return core.Income{}, fmt.Errorf("income %d: stored amount %q: %w", in.ID, amount, err)
	}
	return in, nil
}

func (r *Repository) CreateExpense(ctx context.Context, e core.Expense) (core.Expense, error) {
	p := e.Period()
	err := r.pool.QueryRow(ctx, `
		INSERT INTO expenses (category, amount, date, description, month, year)
		VALUES ($1, $2::numeric, $3, $4, $5, $6)
		RETURNING id`,
		e.Category, e.Amount.String(), e.Date.Time, e.Description, p.Month, p.Year).Scan(&e.ID)
	if err != nil {
		return core.Expense{}, fmt.Errorf("create expense: %w", err)
	}
	r.logger.Debug("Expense saved to Postgres", "id", e.ID, applog.FieldPeriod, p.String())
	return e, nil
}

func (r *Repository) DeleteExpense(ctx context.Context, id int64) (bool, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM expenses WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("delete expense: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

func (r *Repository) ListExpenses(ctx context.Context, p core.Period) ([]core.Expense, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, category, amount::text, date, description
		FROM expenses
		WHERE year = $1 AND month = $2
		ORDER BY date DESC, id DESC`,
		p.Year, p.Month)
	if err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}

	expenses, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (core.Expense, error) {
		var (
			e      core.Expense
			amount string
			date   time.Time
		)
		if err := row.Scan(&e.ID, &e.Category, &amount, &date, &e.Description); err != nil {
			return core.Expense{}, err
		}
		parsed, err := core.ParseAmount(amount)
		if err != nil {
			return core.Expense{}, fmt.Errorf("expense %d: stored amount %q: %w", e.ID, amount, err)
		}
		e.Amount = parsed
		e.Date = core.NewDate(date.Year(), int(date.Month()), date.Day())
		return e, nil
	})
	if err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	if expenses == nil {
		expenses = []core.Expense{}
	}
	return expenses, nil
}
