// Package storage provides abstractions for persistent data storage.
package storage

import (
	"context"
	"time"

	"spendtrack/internal/core"
)

// Store is the document-store port the services depend on. The primary
// implementation is MongoDB (storage/mongo); storage/memory backs tests and
// local development.
//
// Every expense operation takes the owner's ID and conjoins it with any other
// predicate. Lookups that match nothing return (nil, nil) for single records
// and an empty slice for listings; Update/Delete return core.ErrNotFound when
// zero records matched, which covers both "does not exist" and "owned by
// someone else".
type Store interface {
	// CreateUser inserts a new user and populates user.ID.
	// Email uniqueness is only guarded by the caller's prior lookup; there is
	// no store-level constraint, so concurrent duplicate registrations can
	// race. Known gap, kept deliberately.
	CreateUser(ctx context.Context, user *core.User) error
	GetUserByEmail(ctx context.Context, email string) (*core.User, error)

	CreateExpense(ctx context.Context, expense *core.Expense) error
	GetExpense(ctx context.Context, ownerID, expenseID string) (*core.Expense, error)
	ListExpenses(ctx context.Context, ownerID string, filter core.ExpenseFilter) ([]core.Expense, error)
	// UpdateExpense replaces amount/description/category/date of the record
	// matching both IDs.
	UpdateExpense(ctx context.Context, ownerID, expenseID string, expense core.Expense) error
	DeleteExpense(ctx context.Context, ownerID, expenseID string) error

	// EnsureCategory idempotently registers a custom category for the owner.
	// Check-then-insert without a transaction; same race caveat as CreateUser.
	EnsureCategory(ctx context.Context, ownerID, category string) error
	ListCategories(ctx context.Context, ownerID string) ([]string, error)

	// SpendingByMonth sums the owner's expenses per calendar year-month over
	// the inclusive [start, end] range, ascending by month key.
	SpendingByMonth(ctx context.Context, ownerID string, start, end time.Time) ([]core.MonthlySpending, error)
	// SpendingByCategory sums all of the owner's expenses per category,
	// descending by total.
	SpendingByCategory(ctx context.Context, ownerID string) ([]core.CategorySpending, error)

	Ping(ctx context.Context) error
	Close(ctx context.Context) error
}
