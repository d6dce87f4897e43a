// Package memory provides an in-memory storage.Store for tests and local
// development without a running MongoDB.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"spendtrack/internal/core"
	"spendtrack/internal/storage"
)

// Ensure interface conformance
var _ storage.Store = (*Store)(nil)

// Store keeps everything in maps guarded by one mutex. IDs are sequential
// hex strings so they look like the document IDs the Mongo store hands out.
type Store struct {
	mu         sync.Mutex
	nextID     int
	users      map[string]core.User   // keyed by ID
	expenses   map[string]core.Expense
	categories map[string]map[string]bool // ownerID -> set of custom categories
}

func New() *Store {
	return &Store{
		users:      make(map[string]core.User),
		expenses:   make(map[string]core.Expense),
		categories: make(map[string]map[string]bool),
	}
}

func (s *Store) newID() string {
	s.nextID++
	return fmt.Sprintf("%024x", s.nextID)
}

func (s *Store) CreateUser(_ context.Context, user *core.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	user.ID = s.newID()
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}
	s.users[user.ID] = *user
	return nil
}

func (s *Store) GetUserByEmail(_ context.Context, email string) (*core.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range s.users {
		if u.Email == email {
			u := u
			return &u, nil
		}
	}
	return nil, nil
}

func (s *Store) CreateExpense(_ context.Context, expense *core.Expense) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	expense.ID = s.newID()
	expense.CreatedAt = time.Now().UTC()
	s.expenses[expense.ID] = *expense
	return nil
}

func (s *Store) GetExpense(_ context.Context, ownerID, expenseID string) (*core.Expense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.expenses[expenseID]
	if !ok || e.UserID != ownerID {
		return nil, nil
	}
	return &e, nil
}

func (s *Store) ListExpenses(_ context.Context, ownerID string, filter core.ExpenseFilter) ([]core.Expense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]core.Expense, 0)
	for _, e := range s.expenses {
		if e.UserID != ownerID {
			continue
		}
		if !filter.StartDate.IsZero() && e.Date.Before(filter.StartDate) {
			continue
		}
		if !filter.EndDate.IsZero() && e.Date.After(filter.EndDate) {
			continue
		}
		if filter.Category != "" && e.Category != filter.Category {
			continue
		}
		out = append(out, e)
	}
	return out, nil
}

func (s *Store) UpdateExpense(_ context.Context, ownerID, expenseID string, expense core.Expense) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.expenses[expenseID]
	if !ok || existing.UserID != ownerID {
		return core.ErrNotFound
	}

	existing.Amount = expense.Amount
	existing.Description = expense.Description
	existing.Category = expense.Category
	existing.Date = expense.Date
	s.expenses[expenseID] = existing
	return nil
}

func (s *Store) DeleteExpense(_ context.Context, ownerID, expenseID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.expenses[expenseID]
	if !ok || existing.UserID != ownerID {
		return core.ErrNotFound
	}
	delete(s.expenses, expenseID)
	return nil
}

func (s *Store) EnsureCategory(_ context.Context, ownerID, category string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	set, ok := s.categories[ownerID]
	if !ok {
		set = make(map[string]bool)
		s.categories[ownerID] = set
	}
	set[category] = true
	return nil
}

func (s *Store) ListCategories(_ context.Context, ownerID string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]string, 0)
	for c := range s.categories[ownerID] {
		out = append(out, c)
	}
	sort.Strings(out)
	return out, nil
}

func (s *Store) SpendingByMonth(_ context.Context, ownerID string, start, end time.Time) ([]core.MonthlySpending, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	totals := make(map[string]float64)
	for _, e := range s.expenses {
		if e.UserID != ownerID {
			continue
		}
		if !start.IsZero() && e.Date.Before(start) {
			continue
		}
		if !end.IsZero() && e.Date.After(end) {
			continue
		}
		totals[e.Date.UTC().Format("2006-01")] += e.Amount
	}

	out := make([]core.MonthlySpending, 0, len(totals))
	for month, total := range totals {
		out = append(out, core.MonthlySpending{Month: month, TotalAmount: total})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Month < out[j].Month })
	return out, nil
}

func (s *Store) SpendingByCategory(_ context.Context, ownerID string) ([]core.CategorySpending, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	totals := make(map[string]float64)
	for _, e := range s.expenses {
		if e.UserID != ownerID {
			continue
		}
		totals[e.Category] += e.Amount
	}

	out := make([]core.CategorySpending, 0, len(totals))
	for category, total := range totals {
		out = append(out, core.CategorySpending{Category: category, TotalAmount: total})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].TotalAmount != out[j].TotalAmount {
			return out[i].TotalAmount > out[j].TotalAmount
		}
		return out[i].Category < out[j].Category
	})
	return out, nil
}

func (s *Store) Ping(context.Context) error  { return nil }
func (s *Store) Close(context.Context) error { return nil }
