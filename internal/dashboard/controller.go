package dashboard

import (
	"context"
	"errors"
	"strings"

	"budgetboard/internal/budgetapi"
	"budgetboard/internal/core"
	applog "budgetboard/internal/log"
)

// Confirmer asks the user to confirm a destructive action.
type Confirmer interface {
	Confirm(ctx context.Context, prompt string) bool
}

// ConfirmFunc adapts a function to Confirmer.
type ConfirmFunc func(ctx context.Context, prompt string) bool

func (f ConfirmFunc) Confirm(ctx context.Context, prompt string) bool {
	return f(ctx, prompt)
}

// Controller validates and submits dashboard input. Validation failures never
// reach the network.
type Controller struct {
	api       API
	refresher *Refresher
	logger    *applog.Logger
}

func NewController(api API, refresher *Refresher, logger *applog.Logger) *Controller {
	return &Controller{
		api:       api,
		refresher: refresher,
		logger:    logger.WithComponent(applog.ComponentDashboard),
	}
}

// Refresher returns the refresher used after successful submissions.
func (c *Controller) Refresher() *Refresher {
	return c.refresher
}

// SelectPeriod switches the view to the "YYYY-MM" value and refreshes it. An
// empty value clears the period, which leaves the displays as they are.
func (c *Controller) SelectPeriod(ctx context.Context, v *View, value string) error {
	if strings.TrimSpace(value) == "" {
		v.SetPeriod(core.Period{})
		return nil
	}
	p, err := core.ParsePeriod(value)
	if err != nil {
		return alert(MsgSelectMonth, err)
	}
	v.SetPeriod(p)
	return c.refresher.Refresh(ctx, v)
}

// SaveIncome upserts the income of the selected month, then refreshes the
// dashboard.
func (c *Controller) SaveIncome(ctx context.Context, v *View, amountInput, periodInput string) error {
	v.SetIncomeInput(amountInput)

	amount, err := core.ParseAmount(amountInput)
	if err != nil {
		return alert(MsgInvalidIncome, err)
	}
	if strings.TrimSpace(periodInput) == "" {
		return alert(MsgSelectMonth, nil)
	}
	period, err := core.ParsePeriod(periodInput)
	if err != nil {
		return alert(MsgSelectMonth, err)
	}
	v.SetPeriod(period)

	if err := c.api.SaveIncome(ctx, amount, period); err != nil {
		c.logger.ErrorOp(ctx, "Failed to save income", applog.OpSaveIncome, err,
			applog.FieldPeriod, period.String())
		return notice(messageFor(err, MsgSaveIncomeFailed), err)
	}
	c.logger.Info("Income saved",
		applog.FieldPeriod, period.String(),
		applog.FieldAmount, amount.String())
	v.SetIncomeInput("")

	return c.refresher.Refresh(ctx, v)
}

// AddExpense submits the draft. On success the description and amount are
// cleared, and the dashboard is refreshed only when the expense falls in the
// displayed month.
func (c *Controller) AddExpense(ctx context.Context, v *View, draft ExpenseDraft) (*core.Expense, error) {
	v.SetDraft(draft)

	if strings.TrimSpace(draft.Category) == "" ||
		strings.TrimSpace(draft.Amount) == "" ||
		strings.TrimSpace(draft.Date) == "" {
		return nil, alert(MsgMissingExpense, nil)
	}

	created, err := c.api.AddExpense(ctx, budgetapi.ExpenseInput{
		Description: draft.Description,
		Category:    draft.Category,
		Amount:      draft.Amount,
		Date:        draft.Date,
	})
	if err != nil {
		c.logger.ErrorOp(ctx, "Failed to add expense", applog.OpAddExpense, err,
			applog.FieldCategory, draft.Category)
		var apiErr *budgetapi.APIError
		if errors.As(err, &apiErr) {
			return nil, alert(apiErr.Message, err)
		}
		return nil, notice(MsgNetworkFailed, err)
	}
	c.logger.Info("Expense added",
		applog.FieldCategory, draft.Category,
		applog.FieldAmount, draft.Amount)
	v.ResetDraft()

	if !inPeriod(draft.Date, v.Period()) {
		return created, nil
	}
	return created, c.refresher.Refresh(ctx, v)
}

// DeleteExpense removes an expense after confirmation and refreshes the
// dashboard. A declined confirmation does nothing.
func (c *Controller) DeleteExpense(ctx context.Context, v *View, id int64, confirm Confirmer) error {
	if confirm == nil || !confirm.Confirm(ctx, DeletePrompt) {
		return nil
	}
	if err := c.api.DeleteExpense(ctx, id); err != nil {
		c.logger.ErrorOp(ctx, "Failed to delete expense", applog.OpDeleteExpense, err,
			applog.FieldExpenseID, id)
		return notice(messageFor(err, MsgDeleteFailed), err)
	}
	c.logger.Info("Expense deleted", applog.FieldExpenseID, id)
	return c.refresher.Refresh(ctx, v)
}

func inPeriod(date string, p core.Period) bool {
	date = strings.TrimSpace(date)
	return len(date) >= 7 && !p.IsZero() && date[:7] == p.String()
}

func messageFor(err error, fallback string) string {
	var apiErr *budgetapi.APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	return fallback
}
