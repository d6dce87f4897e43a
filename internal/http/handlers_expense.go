package http

import (
	"net/http"

	"spendtrack/internal/core"
	applog "spendtrack/internal/log"
)

func (s *Server) handleListExpenses(w http.ResponseWriter, r *http.Request) {
	identity, _ := IdentityFromContext(r.Context())

	filter, err := filterFromQuery(r)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	expenses, err := s.expenses.List(r.Context(), identity.UserID, filter)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if expenses == nil {
		expenses = []core.Expense{}
	}

	writeJSON(w, http.StatusOK, expenses)
}

func (s *Server) handleCreateExpense(w http.ResponseWriter, r *http.Request) {
	identity, _ := IdentityFromContext(r.Context())

	var input core.ExpenseInput
	if err := decodeJSON(r, &input); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON payload")
		return
	}

	created, err := s.expenses.Create(r.Context(), identity.UserID, input)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	fields := applog.NewFields().
		WithUser(identity.UserID).
		WithExpense(created.ID, created.Category, created.Amount).
		WithOperation(applog.OpCreate)
	applog.FromContext(r.Context()).InfoContext(r.Context(), "Expense created", fields.ToSlice()...)

	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) handleGetExpense(w http.ResponseWriter, r *http.Request) {
	identity, _ := IdentityFromContext(r.Context())

	expense, err := s.expenses.Get(r.Context(), identity.UserID, r.PathValue("id"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, expense)
}

func (s *Server) handleUpdateExpense(w http.ResponseWriter, r *http.Request) {
	identity, _ := IdentityFromContext(r.Context())

	var input core.ExpenseInput
	if err := decodeJSON(r, &input); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON payload")
		return
	}

	if err := s.expenses.Update(r.Context(), identity.UserID, r.PathValue("id"), input); err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "expense updated"})
}

func (s *Server) handleDeleteExpense(w http.ResponseWriter, r *http.Request) {
	identity, _ := IdentityFromContext(r.Context())

	if err := s.expenses.Delete(r.Context(), identity.UserID, r.PathValue("id")); err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "expense deleted"})
}

func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	identity, _ := IdentityFromContext(r.Context())

	categories, err := s.expenses.Categories(r.Context(), identity.UserID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, categories)
}

// filterFromQuery builds the listing filter from startDate, endDate and
// category query parameters. Absent bounds leave that side of the range open.
func filterFromQuery(r *http.Request) (core.ExpenseFilter, error) {
	var filter core.ExpenseFilter
	q := r.URL.Query()

	if raw := q.Get("startDate"); raw != "" {
		t, err := core.ParseDate(raw)
		if err != nil {
			return filter, err
		}
		filter.StartDate = t
	}
	if raw := q.Get("endDate"); raw != "" {
		t, err := core.ParseDate(raw)
		if err != nil {
			return filter, err
		}
		filter.EndDate = t
	}
	filter.Category = q.Get("category")

	return filter, nil
}
