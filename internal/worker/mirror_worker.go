// Package worker applies ledger events to the spreadsheet mirror.
package worker

import (
	"context"
	"fmt"

	"budgetboard/internal/ledger"
	applog "budgetboard/internal/log"
	"budgetboard/internal/sheets"
)

// Consumer delivers ledger events to a handler until ctx is done.
type Consumer interface {
	ConsumeLedgerEvents(ctx context.Context, handler func(context.Context, ledger.Event) error) error
}

// MirrorWorker keeps the spreadsheet in step with the ledger.
type MirrorWorker struct {
	mirror sheets.Mirror
	logger *applog.Logger
}

func NewMirrorWorker(mirror sheets.Mirror, logger *applog.Logger) *MirrorWorker {
	return &MirrorWorker{
		mirror: mirror,
		logger: logger.WithComponent(applog.ComponentWorker),
	}
}

// HandleEvent applies one event. An error asks for redelivery.
func (w *MirrorWorker) HandleEvent(ctx context.Context, ev ledger.Event) error {
	logger := w.logger.With(applog.FieldEvent, string(ev.Type), "message_id", ev.ID)

	var err error
	switch ev.Type {
	case ledger.EventExpenseCreated:
		err = w.mirror.AppendExpense(ctx, *ev.Expense)
	case ledger.EventExpenseDeleted:
		err = w.mirror.DeleteExpense(ctx, ev.ExpenseID)
	case ledger.EventIncomeSaved:
		err = w.mirror.UpsertIncome(ctx, *ev.Income)
	default:
		logger.Warn("Ignoring unknown ledger event")
		return nil
	}
	if err != nil {
		return fmt.Errorf("mirror %s: %w", ev.Type, err)
	}
	logger.Debug("Ledger event mirrored")
	return nil
}

// Run consumes events until ctx is cancelled.
func (w *MirrorWorker) Run(ctx context.Context, consumer Consumer) error {
	w.logger.Info("Mirror worker started")
	err := consumer.ConsumeLedgerEvents(ctx, w.HandleEvent)
	w.logger.Info("Mirror worker stopped", "reason", err)
	if ctx.Err() != nil {
		return nil
	}
	return err
}
