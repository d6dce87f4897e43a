package sheets

import (
	"context"

	"spendtrack/internal/core"
)

// Ports for outbound export adapters.
type (
	// ExpenseAppender mirrors one expense as a spreadsheet row.
	ExpenseAppender interface {
		Append(ctx context.Context, e core.Expense) (rowRef string, err error)
	}

	// ExpenseRemover removes the mirrored row of a deleted expense. The
	// expense carries the last known snapshot; the row is located by ID.
	ExpenseRemover interface {
		Remove(ctx context.Context, e core.Expense) error
	}
)
