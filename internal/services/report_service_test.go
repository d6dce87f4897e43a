package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"spendtrack/internal/core"
	"spendtrack/internal/storage/memory"
)

func seedReportData(t *testing.T, svc *ExpenseService) {
	t.Helper()
	ctx := context.Background()
	for _, e := range []struct {
		amount   float64
		category string
		date     string
	}{
		{10, "Food", "2025-01-05"},
		{5, "Food", "2025-01-20"},
		{3, "Transport", "2025-02-10"},
	} {
		_, err := svc.Create(ctx, "owner-a", input(e.amount, e.category, e.date))
		require.NoError(t, err)
	}
}

func TestSpendingByMonth(t *testing.T) {
	store := memory.New()
	reports := NewReportService(store)
	expenses := NewExpenseService(store, nil, reports)
	seedReportData(t, expenses)

	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2025, 2, 28, 0, 0, 0, 0, time.UTC)

	rows, err := reports.SpendingByMonth(context.Background(), "owner-a", start, end)
	require.NoError(t, err)
	assert.Equal(t, []core.MonthlySpending{
		{Month: "2025-01", TotalAmount: 15},
		{Month: "2025-02", TotalAmount: 3},
	}, rows)

	// Range excluding february drops its row.
	janOnly := time.Date(2025, 1, 31, 0, 0, 0, 0, time.UTC)
	rows, err = reports.SpendingByMonth(context.Background(), "owner-a", start, janOnly)
	require.NoError(t, err)
	assert.Equal(t, []core.MonthlySpending{{Month: "2025-01", TotalAmount: 15}}, rows)
}

func TestSpendingByCategory_DescendingTotals(t *testing.T) {
	store := memory.New()
	reports := NewReportService(store)
	expenses := NewExpenseService(store, nil, reports)
	seedReportData(t, expenses)

	rows, err := reports.SpendingByCategory(context.Background(), "owner-a")
	require.NoError(t, err)
	assert.Equal(t, []core.CategorySpending{
		{Category: "Food", TotalAmount: 15},
		{Category: "Transport", TotalAmount: 3},
	}, rows)
}

func TestReports_OwnerScoped(t *testing.T) {
	store := memory.New()
	reports := NewReportService(store)
	expenses := NewExpenseService(store, nil, reports)
	seedReportData(t, expenses)

	rows, err := reports.SpendingByCategory(context.Background(), "owner-b")
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestReportCacheServesRepeatReads(t *testing.T) {
	store := memory.New()
	reports := NewReportService(store)
	expenses := NewExpenseService(store, nil, reports)
	seedReportData(t, expenses)

	ctx := context.Background()
	first, err := reports.SpendingByCategory(ctx, "owner-a")
	require.NoError(t, err)

	// Bypass the service and mutate the store directly: the cached result
	// must still be returned until the owner is invalidated.
	_, err = store.SpendingByCategory(ctx, "owner-a")
	require.NoError(t, err)
	e := core.Expense{UserID: "owner-a", Amount: 100, Description: "direct", Category: "Food", Date: time.Now()}
	require.NoError(t, store.CreateExpense(ctx, &e))

	cached, err := reports.SpendingByCategory(ctx, "owner-a")
	require.NoError(t, err)
	assert.Equal(t, first, cached)

	reports.InvalidateOwner("owner-a")
	fresh, err := reports.SpendingByCategory(ctx, "owner-a")
	require.NoError(t, err)
	assert.NotEqual(t, first, fresh)
}
