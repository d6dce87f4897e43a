// Package memory is an in-memory sheet for tests and local runs without
// Google credentials.
package memory

import (
	"context"
	"fmt"
	"sync"

	"spendtrack/internal/core"
	ports "spendtrack/internal/sheets"
)

// Ensure interface conformance
var (
	_ ports.ExpenseAppender = (*Sheet)(nil)
	_ ports.ExpenseRemover  = (*Sheet)(nil)
)

// Sheet stores mirrored expenses keyed by expense ID.
type Sheet struct {
	mu   sync.Mutex
	rows map[string]core.Expense
}

func New() *Sheet {
	return &Sheet{rows: make(map[string]core.Expense)}
}

func (s *Sheet) Append(_ context.Context, e core.Expense) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.rows[e.ID] = e
	return fmt.Sprintf("memory!%s", e.ID), nil
}

func (s *Sheet) Remove(_ context.Context, e core.Expense) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.rows, e.ID)
	return nil
}

// Rows returns a copy of the mirrored expenses, for assertions.
func (s *Sheet) Rows() map[string]core.Expense {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make(map[string]core.Expense, len(s.rows))
	for k, v := range s.rows {
		out[k] = v
	}
	return out
}
