package http

import (
	"net/http"
	"time"

	"spendtrack/internal/core"
)

func (s *Server) handleMonthlyReport(w http.ResponseWriter, r *http.Request) {
	identity, _ := IdentityFromContext(r.Context())

	var start, end time.Time
	q := r.URL.Query()
	if raw := q.Get("startDate"); raw != "" {
		t, err := core.ParseDate(raw)
		if err != nil {
			writeServiceError(w, r, err)
			return
		}
		start = t
	}
	if raw := q.Get("endDate"); raw != "" {
		t, err := core.ParseDate(raw)
		if err != nil {
			writeServiceError(w, r, err)
			return
		}
		end = t
	}

	rows, err := s.reports.SpendingByMonth(r.Context(), identity.UserID, start, end)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if rows == nil {
		rows = []core.MonthlySpending{}
	}

	writeJSON(w, http.StatusOK, rows)
}

func (s *Server) handleCategoryReport(w http.ResponseWriter, r *http.Request) {
	identity, _ := IdentityFromContext(r.Context())

	rows, err := s.reports.SpendingByCategory(r.Context(), identity.UserID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if rows == nil {
		rows = []core.CategorySpending{}
	}

	writeJSON(w, http.StatusOK, rows)
}
