package worker

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"spendtrack/internal/amqp"
	"spendtrack/internal/core"
	sheetmemory "spendtrack/internal/sheets/memory"
	storememory "spendtrack/internal/storage/memory"
)

func newTestWorker(t *testing.T) (*ExportWorker, *storememory.Store, *sheetmemory.Sheet) {
	t.Helper()
	store := storememory.New()
	sheet := sheetmemory.New()
	return NewExportWorker(store, sheet, sheet), store, sheet
}

func seedExpense(t *testing.T, store *storememory.Store, owner string) *core.Expense {
	t.Helper()
	expense := &core.Expense{
		UserID:      owner,
		Amount:      12.5,
		Description: "groceries",
		Category:    "Food",
		Date:        time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC),
	}
	require.NoError(t, store.CreateExpense(context.Background(), expense))
	return expense
}

func TestHandleEvent_SavedAppendsRow(t *testing.T) {
	w, store, sheet := newTestWorker(t)
	expense := seedExpense(t, store, "owner-1")

	err := w.HandleEvent(context.Background(), amqp.NewSavedEvent("owner-1", expense.ID))
	require.NoError(t, err)

	rows := sheet.Rows()
	require.Len(t, rows, 1)
	assert.Equal(t, "groceries", rows[expense.ID].Description)
	assert.Equal(t, 12.5, rows[expense.ID].Amount)
}

func TestHandleEvent_SavedRewritesExistingRow(t *testing.T) {
	w, store, sheet := newTestWorker(t)
	expense := seedExpense(t, store, "owner-1")

	require.NoError(t, w.HandleEvent(context.Background(), amqp.NewSavedEvent("owner-1", expense.ID)))

	updated := *expense
	updated.Description = "weekly groceries"
	require.NoError(t, store.UpdateExpense(context.Background(), "owner-1", expense.ID, updated))

	require.NoError(t, w.HandleEvent(context.Background(), amqp.NewSavedEvent("owner-1", expense.ID)))

	rows := sheet.Rows()
	require.Len(t, rows, 1)
	assert.Equal(t, "weekly groceries", rows[expense.ID].Description)
}

func TestHandleEvent_SavedSkipsMissingExpense(t *testing.T) {
	w, _, sheet := newTestWorker(t)

	err := w.HandleEvent(context.Background(), amqp.NewSavedEvent("owner-1", "000000000000000000000099"))
	require.NoError(t, err)
	assert.Empty(t, sheet.Rows())
}

func TestHandleEvent_DeletedRemovesRow(t *testing.T) {
	w, store, sheet := newTestWorker(t)
	expense := seedExpense(t, store, "owner-1")

	require.NoError(t, w.HandleEvent(context.Background(), amqp.NewSavedEvent("owner-1", expense.ID)))
	require.Len(t, sheet.Rows(), 1)

	require.NoError(t, store.DeleteExpense(context.Background(), "owner-1", expense.ID))
	require.NoError(t, w.HandleEvent(context.Background(), amqp.NewDeletedEvent(*expense)))

	assert.Empty(t, sheet.Rows())
}

func TestHandleEvent_UnknownKindDropped(t *testing.T) {
	w, _, _ := newTestWorker(t)

	err := w.HandleEvent(context.Background(), &amqp.ExpenseEvent{Kind: "mystery"})
	assert.NoError(t, err)
}
