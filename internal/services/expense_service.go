package services

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"spendtrack/internal/core"
	"spendtrack/internal/storage"
)

// EventPublisher propagates expense changes to the async export pipeline.
// A nil publisher disables exporting without touching the request path.
type EventPublisher interface {
	PublishExpenseSaved(ctx context.Context, ownerID, expenseID string) error
	PublishExpenseDeleted(ctx context.Context, expense core.Expense) error
}

// ReportInvalidator drops cached report rows for one owner.
type ReportInvalidator interface {
	InvalidateOwner(ownerID string)
}

// ExpenseService performs ownership-scoped expense operations. The owner's
// identity arrives already decoded from the bearer token; every store call
// below is conjoined with it.
type ExpenseService struct {
	store     storage.Store
	publisher EventPublisher
	reports   ReportInvalidator
}

func NewExpenseService(store storage.Store, publisher EventPublisher, reports ReportInvalidator) *ExpenseService {
	return &ExpenseService{
		store:     store,
		publisher: publisher,
		reports:   reports,
	}
}

// List returns the owner's expenses narrowed by filter. Bounds are inclusive;
// a missing bound leaves that side of the range open. An empty result is an
// empty slice, not an error.
func (s *ExpenseService) List(ctx context.Context, ownerID string, filter core.ExpenseFilter) ([]core.Expense, error) {
	expenses, err := s.store.ListExpenses(ctx, ownerID, filter)
	if err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	return expenses, nil
}

// Get returns one expense matched by ID and owner. A record that exists but
// belongs to someone else is reported exactly like one that doesn't exist.
func (s *ExpenseService) Get(ctx context.Context, ownerID, expenseID string) (*core.Expense, error) {
	expense, err := s.store.GetExpense(ctx, ownerID, expenseID)
	if err != nil {
		return nil, fmt.Errorf("get expense: %w", err)
	}
	if expense == nil {
		return nil, core.ErrNotFound
	}
	return expense, nil
}

// Create validates the input, registers a custom category on first use, and
// inserts the expense tagged with the owner. The category registration and
// the insert are separate, untransacted store calls (documented race).
func (s *ExpenseService) Create(ctx context.Context, ownerID string, input core.ExpenseInput) (*core.Expense, error) {
	if err := input.Validate(); err != nil {
		return nil, err
	}
	date, err := core.ParseDate(input.Date)
	if err != nil {
		return nil, err
	}

	if !core.IsPredefinedCategory(input.Category) {
		if err := s.store.EnsureCategory(ctx, ownerID, input.Category); err != nil {
			return nil, fmt.Errorf("register category: %w", err)
		}
	}

	expense := &core.Expense{
		UserID:      ownerID,
		Amount:      input.Amount,
		Description: input.Description,
		Category:    input.Category,
		Date:        date,
	}
	if err := s.store.CreateExpense(ctx, expense); err != nil {
		return nil, fmt.Errorf("create expense: %w", err)
	}

	s.invalidate(ownerID)
	s.publishSaved(ctx, ownerID, expense.ID)

	slog.InfoContext(ctx, "Expense created",
		"expense_id", expense.ID,
		"user_id", ownerID,
		"category", expense.Category,
		"amount", expense.Amount)

	return expense, nil
}

// Update replaces amount/description/category/date of the owner's expense.
// Zero matched records (missing or foreign-owned) is core.ErrNotFound.
func (s *ExpenseService) Update(ctx context.Context, ownerID, expenseID string, input core.ExpenseInput) error {
	if err := input.Validate(); err != nil {
		return err
	}
	date, err := core.ParseDate(input.Date)
	if err != nil {
		return err
	}

	if !core.IsPredefinedCategory(input.Category) {
		if err := s.store.EnsureCategory(ctx, ownerID, input.Category); err != nil {
			return fmt.Errorf("register category: %w", err)
		}
	}

	expense := core.Expense{
		Amount:      input.Amount,
		Description: input.Description,
		Category:    input.Category,
		Date:        date,
	}
	if err := s.store.UpdateExpense(ctx, ownerID, expenseID, expense); err != nil {
		return err
	}

	s.invalidate(ownerID)
	s.publishSaved(ctx, ownerID, expenseID)

	slog.InfoContext(ctx, "Expense updated", "expense_id", expenseID, "user_id", ownerID)
	return nil
}

// Delete removes the owner's expense under the same matched-zero-records rule.
func (s *ExpenseService) Delete(ctx context.Context, ownerID, expenseID string) error {
	// Snapshot first so the export pipeline can locate the mirrored row.
	snapshot, err := s.store.GetExpense(ctx, ownerID, expenseID)
	if err != nil {
		return fmt.Errorf("get expense: %w", err)
	}
	if snapshot == nil {
		return core.ErrNotFound
	}

	if err := s.store.DeleteExpense(ctx, ownerID, expenseID); err != nil {
		return err
	}

	s.invalidate(ownerID)
	if s.publisher != nil {
		if err := s.publisher.PublishExpenseDeleted(ctx, *snapshot); err != nil {
			// Export is best-effort; the expense is already gone locally.
			slog.ErrorContext(ctx, "Failed to publish delete event",
				"expense_id", expenseID, "error", err)
		}
	}

	slog.InfoContext(ctx, "Expense deleted", "expense_id", expenseID, "user_id", ownerID)
	return nil
}

// Categories returns the predefined set followed by the owner's custom
// categories, sorted, without duplicates.
func (s *ExpenseService) Categories(ctx context.Context, ownerID string) ([]string, error) {
	custom, err := s.store.ListCategories(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}

	seen := make(map[string]bool, len(core.PredefinedCategories)+len(custom))
	out := make([]string, 0, len(core.PredefinedCategories)+len(custom))
	for _, c := range core.PredefinedCategories {
		seen[c] = true
		out = append(out, c)
	}

	sort.Strings(custom)
	for _, c := range custom {
		if !seen[c] {
			seen[c] = true
			out = append(out, c)
		}
	}
	return out, nil
}

func (s *ExpenseService) invalidate(ownerID string) {
	if s.reports != nil {
		s.reports.InvalidateOwner(ownerID)
	}
}

func (s *ExpenseService) publishSaved(ctx context.Context, ownerID, expenseID string) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishExpenseSaved(ctx, ownerID, expenseID); err != nil {
		// Don't fail the request - the expense is saved locally.
		slog.ErrorContext(ctx, "Failed to publish expense event",
			"expense_id", expenseID, "error", err)
	}
}
