// Package worker consumes expense events and mirrors them into a sheet.
package worker

import (
	"context"
	"fmt"
	"log/slog"

	"spendtrack/internal/amqp"
	"spendtrack/internal/core"
	"spendtrack/internal/metrics"
	"spendtrack/internal/sheets"
	"spendtrack/internal/storage"
)

// ExportWorker applies expense events to the export sheet. Saved events carry
// only identifiers; the worker re-reads the record so the row always reflects
// the latest state, and an update simply rewrites the row.
type ExportWorker struct {
	store    storage.Store
	appender sheets.ExpenseAppender
	remover  sheets.ExpenseRemover
}

func NewExportWorker(store storage.Store, appender sheets.ExpenseAppender, remover sheets.ExpenseRemover) *ExportWorker {
	return &ExportWorker{
		store:    store,
		appender: appender,
		remover:  remover,
	}
}

// HandleEvent processes one expense event. Returning an error requeues the
// message, so transient sheet failures retry.
func (w *ExportWorker) HandleEvent(ctx context.Context, ev *amqp.ExpenseEvent) error {
	var err error
	switch ev.Kind {
	case amqp.EventSaved:
		err = w.handleSaved(ctx, ev)
	case amqp.EventDeleted:
		err = w.handleDeleted(ctx, ev)
	default:
		// Unknown kinds are dropped, not requeued forever.
		slog.WarnContext(ctx, "Dropping event of unknown kind", "kind", ev.Kind)
		metrics.EventsProcessed.WithLabelValues(string(ev.Kind), "dropped").Inc()
		return nil
	}

	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	metrics.EventsProcessed.WithLabelValues(string(ev.Kind), outcome).Inc()
	return err
}

func (w *ExportWorker) handleSaved(ctx context.Context, ev *amqp.ExpenseEvent) error {
	expense, err := w.store.GetExpense(ctx, ev.OwnerID, ev.ExpenseID)
	if err != nil {
		return fmt.Errorf("get expense from storage: %w", err)
	}
	if expense == nil {
		// Deleted between publish and consume; the delete event will follow.
		slog.InfoContext(ctx, "Expense gone before export, skipping",
			"expense_id", ev.ExpenseID)
		return nil
	}

	// Rewrite semantics: drop any previous row for this expense, then append.
	if err := w.remover.Remove(ctx, *expense); err != nil {
		return fmt.Errorf("remove stale row: %w", err)
	}
	ref, err := w.appender.Append(ctx, *expense)
	if err != nil {
		return fmt.Errorf("append row: %w", err)
	}

	slog.InfoContext(ctx, "Expense exported",
		"expense_id", expense.ID,
		"owner_id", expense.UserID,
		"sheet_ref", ref)
	return nil
}

func (w *ExportWorker) handleDeleted(ctx context.Context, ev *amqp.ExpenseEvent) error {
	snapshot := core.Expense{
		ID:          ev.ExpenseID,
		UserID:      ev.OwnerID,
		Amount:      ev.Amount,
		Description: ev.Description,
		Category:    ev.Category,
		Date:        ev.Date,
	}

	if err := w.remover.Remove(ctx, snapshot); err != nil {
		return fmt.Errorf("remove row: %w", err)
	}

	slog.InfoContext(ctx, "Expense removed from export",
		"expense_id", ev.ExpenseID,
		"owner_id", ev.OwnerID)
	return nil
}
