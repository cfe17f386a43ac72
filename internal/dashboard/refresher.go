package dashboard

import (
	"context"
	"errors"

	"golang.org/x/sync/errgroup"

	"budgetboard/internal/budgetapi"
	"budgetboard/internal/core"
	applog "budgetboard/internal/log"
	"budgetboard/internal/render"
)

// API is the subset of the budget API the dashboard uses.
type API interface {
	SaveIncome(ctx context.Context, amount core.Decimal, p core.Period) error
	AddExpense(ctx context.Context, in budgetapi.ExpenseInput) (*core.Expense, error)
	DeleteExpense(ctx context.Context, id int64) error
	FetchSummary(ctx context.Context, p core.Period) (core.Summary, error)
	FetchExpenses(ctx context.Context, p core.Period) ([]core.Expense, error)
}

// Refresher reloads the summary and the expense list of a view's period.
type Refresher struct {
	api    API
	format *render.NumberFormat
	logger *applog.Logger
}

func NewRefresher(api API, format *render.NumberFormat, logger *applog.Logger) *Refresher {
	if format == nil {
		format = render.DefaultNumberFormat()
	}
	return &Refresher{
		api:    api,
		format: format,
		logger: logger.WithComponent(applog.ComponentDashboard),
	}
}

// Format returns the number format used for displays.
func (r *Refresher) Format() *render.NumberFormat {
	return r.format
}

// Refresh fetches the summary and the list concurrently and applies each to
// the view as soon as it arrives. A view without a period is left untouched.
//
// Every refresh of a view takes a generation number; results of a refresh
// that has been superseded by a newer one are discarded.
func (r *Refresher) Refresh(ctx context.Context, v *View) error {
	gen, period := v.beginRefresh()
	if gen == 0 {
		return nil
	}
	logger := r.logger.With(applog.FieldPeriod, period.String(), applog.FieldGeneration, gen)

	var g errgroup.Group
	g.Go(func() error {
		summary, err := r.api.FetchSummary(ctx, period)
		if err != nil {
			return err
		}
		if !v.commitSummary(gen, r.Stats(summary), summary.CategoryData) {
			logger.Debug("Discarding superseded summary")
		}
		return nil
	})
	g.Go(func() error {
		expenses, err := r.api.FetchExpenses(ctx, period)
		if err != nil {
			return err
		}
		if !v.commitTable(gen, render.ExpenseTable(expenses, r.format)) {
			logger.Debug("Discarding superseded expense list")
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		if errors.Is(err, context.Canceled) {
			return err
		}
		if v.superseded(gen) {
			logger.Debug("Discarding failure of superseded refresh", applog.FieldError, err)
			return nil
		}
		logger.ErrorOp(ctx, "Dashboard refresh failed", applog.OpRefresh, err)
		fe := notice(MsgRefreshFailed, err)
		fe.Stale = true
		return fe
	}
	logger.Debug("Dashboard refreshed")
	return nil
}

// Stats formats summary for the stat displays.
func (r *Refresher) Stats(summary core.Summary) Stats {
	return Stats{
		Income:  r.format.Number(summary.Income),
		Spent:   r.format.Number(summary.TotalExpenses),
		Balance: r.format.Number(summary.Balance),
		Percent: r.format.Percent(summary.Percentage),
		Warning: summary.Overspent(),
	}
}
