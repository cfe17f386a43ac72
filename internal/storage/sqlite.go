// Package storage is the SQLite ledger store.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"budgetboard/internal/core"
	"budgetboard/internal/ledger"
	applog "budgetboard/internal/log"
)

type SQLiteRepository struct {
	db     *sql.DB
	logger *applog.Logger
}

var _ ledger.Store = (*SQLiteRepository)(nil)

func NewSQLiteRepository(dbPath string, logger *applog.Logger) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// SQLite allows a single writer
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{
		db:     db,
		logger: logger.WithComponent(applog.ComponentStorage),
	}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Ping checks the database connection.
func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func (r *SQLiteRepository) UpsertIncome(ctx context.Context, in core.Income) (core.Income, error) {
	row := r.db.QueryRowContext(ctx, `
		INSERT INTO income (amount, month, year)
		VALUES (?, ?, ?)
		ON CONFLICT (year, month) DO UPDATE
		SET amount = excluded.amount, updated_at = CURRENT_TIMESTAMP
		RETURNING id`,
		in.Amount.String(), in.Month, in.Year)
	if err := row.Scan(&in.ID); err != nil {
		return core.Income{}, fmt.Errorf("upsert income: %w", err)
	}

	r.logger.Debug("Income saved to SQLite",
		"id", in.ID,
		applog.FieldPeriod, in.Period().String())
	return in, nil
}

func (r *SQLiteRepository) GetIncome(ctx context.Context, p core.Period) (core.Income, error) {
	var (
		in     = core.Income{Month: p.Month, Year: p.Year}
		amount string
	)
	err := r.db.QueryRowContext(ctx,
		`SELECT id, amount FROM income WHERE year = ? AND month = ?`,
		p.Year, p.Month).Scan(&in.ID, &amount)
	if errors.Is(err, sql.ErrNoRows) {
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

func (r *SQLiteRepository) CreateExpense(ctx context.Context, e core.Expense) (core.Expense, error) {
	p := e.Period()
	row := r.db.QueryRowContext(ctx, `
		INSERT INTO expenses (category, amount, date, description, month, year)
		VALUES (?, ?, ?, ?, ?, ?)
		RETURNING id`,
		e.Category, e.Amount.String(), e.Date.String(), e.Description, p.Month, p.Year)
	if err := row.Scan(&e.ID); err != nil {
		return core.Expense{}, fmt.Errorf("create expense: %w", err)
	}

	r.logger.Debug("Expense saved to SQLite",
		"id", e.ID,
		applog.FieldCategory, e.Category,
		applog.FieldPeriod, p.String())
	return e, nil
}

func (r *SQLiteRepository) DeleteExpense(ctx context.Context, id int64) (bool, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM expenses WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("delete expense: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete expense: rows affected: %w", err)
	}
	return n > 0, nil
}

func (r *SQLiteRepository) ListExpenses(ctx context.Context, p core.Period) ([]core.Expense, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, category, amount, date, description
		FROM expenses
		WHERE year = ? AND month = ?
		ORDER BY date DESC, id DESC`,
		p.Year, p.Month)
	if err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	defer rows.Close()

	expenses := []core.Expense{}
	for rows.Next() {
		e, err := scanExpense(rows)
		if err != nil {
			return nil, err
		}
		expenses = append(expenses, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	return expenses, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanExpense(s scanner) (core.Expense, error) {
	var (
		e            core.Expense
		amount, date string
	)
	if err := s.Scan(&e.ID, &e.Category, &amount, &date, &e.Description); err != nil {
		return core.Expense{}, fmt.Errorf("scan expense: %w", err)
	}
	var err error
	if e.Amount, err = core.ParseAmount(amount); err != nil {
		return core.Expense{}, fmt.Errorf("expense %d: stored amount %q: %w", e.ID, amount, err)
	}
	if e.Date, err = core.ParseDate(date); err != nil {
		return core.Expense{}, fmt.Errorf("expense %d: %w", e.ID, err)
	}
	return e, nil
}
