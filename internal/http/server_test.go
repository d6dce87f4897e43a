package http

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"spendtrack/internal/auth"
	"spendtrack/internal/core"
	"spendtrack/internal/services"
	"spendtrack/internal/storage/memory"
)

const testSecret = "unit-test-secret-0123456789"

func newTestServer(t *testing.T) *Server {
	t.Helper()

	store := memory.New()
	tokens := auth.NewTokenManager(testSecret)
	reports := services.NewReportService(store)
	expenses := services.NewExpenseService(store, nil, reports)
	authSvc := services.NewAuthService(store, tokens)

	srv := NewServer(":0", Deps{
		Auth:     authSvc,
		Expenses: expenses,
		Reports:  reports,
		Tokens:   tokens,
		Store:    store,
	})
	t.Cleanup(func() { srv.rateLimiter.Stop() })
	return srv
}

func doJSON(t *testing.T, srv *Server, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	srv.Server.Handler.ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v))
	return v
}

func registerAndLogin(t *testing.T, srv *Server, email string) string {
	t.Helper()

	creds := map[string]string{"email": email, "password": "correct-horse"}
	rec := doJSON(t, srv, http.MethodPost, "/api/register", "", creds)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = doJSON(t, srv, http.MethodPost, "/api/login", "", creds)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	return decodeBody[loginResponse](t, rec).Token
}

func TestRegister(t *testing.T) {
	srv := newTestServer(t)

	rec := doJSON(t, srv, http.MethodPost, "/api/register", "", map[string]string{
		"email": "ada@example.com", "password": "strong-password",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	created := decodeBody[registerResponse](t, rec)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, "ada@example.com", created.Email)
	assert.NotContains(t, rec.Body.String(), "password")
}

func TestRegister_Duplicate(t *testing.T) {
	srv := newTestServer(t)
	creds := map[string]string{"email": "ada@example.com", "password": "strong-password"}

	rec := doJSON(t, srv, http.MethodPost, "/api/register", "", creds)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = doJSON(t, srv, http.MethodPost, "/api/register", "", creds)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestRegister_Validation(t *testing.T) {
	srv := newTestServer(t)

	tests := []struct {
		name  string
		creds map[string]string
	}{
		{"bad email", map[string]string{"email": "nope", "password": "strong-password"}},
		{"short password", map[string]string{"email": "ada@example.com", "password": "short"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doJSON(t, srv, http.MethodPost, "/api/register", "", tt.creds)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestLogin_BadCredentials(t *testing.T) {
	srv := newTestServer(t)
	registerAndLogin(t, srv, "ada@example.com")

	// Wrong password and unknown account produce identical responses.
	recWrong := doJSON(t, srv, http.MethodPost, "/api/login", "", map[string]string{
		"email": "ada@example.com", "password": "wrong-password",
	})
	recUnknown := doJSON(t, srv, http.MethodPost, "/api/login", "", map[string]string{
		"email": "ghost@example.com", "password": "whatever-here",
	})

	assert.Equal(t, http.StatusUnauthorized, recWrong.Code)
	assert.Equal(t, http.StatusUnauthorized, recUnknown.Code)
	assert.Equal(t, recWrong.Body.String(), recUnknown.Body.String())
}

func TestProtectedRoutes_RequireToken(t *testing.T) {
	srv := newTestServer(t)

	routes := []struct {
		method, path string
	}{
		{http.MethodGet, "/api/expenses"},
		{http.MethodPost, "/api/expenses"},
		{http.MethodGet, "/api/expenses/abc"},
		{http.MethodPut, "/api/expenses/abc"},
		{http.MethodDelete, "/api/expenses/abc"},
		{http.MethodGet, "/api/categories"},
		{http.MethodGet, "/api/reports/monthly"},
		{http.MethodGet, "/api/reports/categories"},
	}

	for _, rt := range routes {
		t.Run(rt.method+" "+rt.path, func(t *testing.T) {
			rec := doJSON(t, srv, rt.method, rt.path, "", nil)
			assert.Equal(t, http.StatusUnauthorized, rec.Code)
		})
	}
}

func TestAuth_RejectsBadTokens(t *testing.T) {
	srv := newTestServer(t)

	// Garbage token
	rec := doJSON(t, srv, http.MethodGet, "/api/expenses", "not-a-token", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	// Token signed with another secret
	foreign, err := auth.NewTokenManager("some-other-secret-value").Issue("u1", "x@example.com")
	require.NoError(t, err)
	rec = doJSON(t, srv, http.MethodGet, "/api/expenses", foreign, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	// Wrong scheme
	req := httptest.NewRequest(http.MethodGet, "/api/expenses", nil)
	req.Header.Set("Authorization", "Basic dXNlcjpwYXNz")
	rr := httptest.NewRecorder()
	srv.Server.Handler.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestExpenseCRUD(t *testing.T) {
	srv := newTestServer(t)
	token := registerAndLogin(t, srv, "ada@example.com")

	// Empty listing is 200 with []
	rec := doJSON(t, srv, http.MethodGet, "/api/expenses", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, "[]", rec.Body.String())

	// Create
	rec = doJSON(t, srv, http.MethodPost, "/api/expenses", token, core.ExpenseInput{
		Amount: 12.5, Description: "groceries", Category: "Food", Date: "2025-03-10",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decodeBody[core.Expense](t, rec)
	require.NotEmpty(t, created.ID)

	// Read back
	rec = doJSON(t, srv, http.MethodGet, "/api/expenses/"+created.ID, token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	got := decodeBody[core.Expense](t, rec)
	assert.Equal(t, "groceries", got.Description)
	assert.Equal(t, 12.5, got.Amount)

	// Update
	rec = doJSON(t, srv, http.MethodPut, "/api/expenses/"+created.ID, token, core.ExpenseInput{
		Amount: 20, Description: "weekly groceries", Category: "Food", Date: "2025-03-11",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, srv, http.MethodGet, "/api/expenses/"+created.ID, token, nil)
	got = decodeBody[core.Expense](t, rec)
	assert.Equal(t, "weekly groceries", got.Description)
	assert.Equal(t, float64(20), got.Amount)

	// Delete
	rec = doJSON(t, srv, http.MethodDelete, "/api/expenses/"+created.ID, token, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, srv, http.MethodGet, "/api/expenses/"+created.ID, token, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestExpense_ValidationErrors(t *testing.T) {
	srv := newTestServer(t)
	token := registerAndLogin(t, srv, "ada@example.com")

	tests := []struct {
		name  string
		input core.ExpenseInput
	}{
		{"zero amount", core.ExpenseInput{Amount: 0, Description: "x", Category: "Food", Date: "2025-03-10"}},
		{"empty description", core.ExpenseInput{Amount: 1, Description: "", Category: "Food", Date: "2025-03-10"}},
		{"empty category", core.ExpenseInput{Amount: 1, Description: "x", Category: "", Date: "2025-03-10"}},
		{"bad date", core.ExpenseInput{Amount: 1, Description: "x", Category: "Food", Date: "10/03/2025"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doJSON(t, srv, http.MethodPost, "/api/expenses", token, tt.input)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}

	rec := doJSON(t, srv, http.MethodPost, "/api/expenses", token, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code, "empty body should be rejected")
}

func TestExpense_OwnerIsolation(t *testing.T) {
	srv := newTestServer(t)
	adaToken := registerAndLogin(t, srv, "ada@example.com")
	bobToken := registerAndLogin(t, srv, "bob@example.com")

	rec := doJSON(t, srv, http.MethodPost, "/api/expenses", adaToken, core.ExpenseInput{
		Amount: 9, Description: "lunch", Category: "Food", Date: "2025-03-10",
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	created := decodeBody[core.Expense](t, rec)

	// Foreign reads, updates and deletes all look like absence.
	rec = doJSON(t, srv, http.MethodGet, "/api/expenses/"+created.ID, bobToken, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = doJSON(t, srv, http.MethodPut, "/api/expenses/"+created.ID, bobToken, core.ExpenseInput{
		Amount: 1, Description: "hijack", Category: "Food", Date: "2025-03-10",
	})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = doJSON(t, srv, http.MethodDelete, "/api/expenses/"+created.ID, bobToken, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = doJSON(t, srv, http.MethodGet, "/api/expenses", bobToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, "[]", rec.Body.String())

	// Owner still sees the record untouched.
	rec = doJSON(t, srv, http.MethodGet, "/api/expenses/"+created.ID, adaToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "lunch", decodeBody[core.Expense](t, rec).Description)
}

func TestExpense_ListFilters(t *testing.T) {
	srv := newTestServer(t)
	token := registerAndLogin(t, srv, "ada@example.com")

	seed := []core.ExpenseInput{
		{Amount: 10, Description: "groceries", Category: "Food", Date: "2025-01-05"},
		{Amount: 5, Description: "cinema", Category: "Entertainment", Date: "2025-01-20"},
		{Amount: 3, Description: "bus", Category: "Transport", Date: "2025-02-03"},
	}
	for _, in := range seed {
		rec := doJSON(t, srv, http.MethodPost, "/api/expenses", token, in)
		require.Equal(t, http.StatusCreated, rec.Code)
	}

	tests := []struct {
		name  string
		query string
		want  int
	}{
		{"no filter", "", 3},
		{"closed range", "?startDate=2025-01-01&endDate=2025-01-31", 2},
		{"open start", "?endDate=2025-01-31", 2},
		{"open end", "?startDate=2025-02-01", 1},
		{"category", "?category=Food", 1},
		{"range and category", "?startDate=2025-01-01&endDate=2025-01-31&category=Entertainment", 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doJSON(t, srv, http.MethodGet, "/api/expenses"+tt.query, token, nil)
			require.Equal(t, http.StatusOK, rec.Code)
			assert.Len(t, decodeBody[[]core.Expense](t, rec), tt.want)
		})
	}

	rec := doJSON(t, srv, http.MethodGet, "/api/expenses?startDate=bogus", token, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCategories(t *testing.T) {
	srv := newTestServer(t)
	token := registerAndLogin(t, srv, "ada@example.com")

	rec := doJSON(t, srv, http.MethodGet, "/api/categories", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	categories := decodeBody[[]string](t, rec)
	assert.Equal(t, core.PredefinedCategories, categories)

	// A custom category joins the list after first use.
	rec = doJSON(t, srv, http.MethodPost, "/api/expenses", token, core.ExpenseInput{
		Amount: 30, Description: "guitar strings", Category: "Hobby", Date: "2025-03-01",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = doJSON(t, srv, http.MethodGet, "/api/categories", token, nil)
	categories = decodeBody[[]string](t, rec)
	assert.Contains(t, categories, "Hobby")
}

func TestReports(t *testing.T) {
	srv := newTestServer(t)
	token := registerAndLogin(t, srv, "ada@example.com")

	seed := []core.ExpenseInput{
		{Amount: 10, Description: "groceries", Category: "Food", Date: "2025-01-05"},
		{Amount: 5, Description: "more groceries", Category: "Food", Date: "2025-01-20"},
		{Amount: 3, Description: "bus", Category: "Transport", Date: "2025-02-03"},
	}
	for _, in := range seed {
		rec := doJSON(t, srv, http.MethodPost, "/api/expenses", token, in)
		require.Equal(t, http.StatusCreated, rec.Code)
	}

	rec := doJSON(t, srv, http.MethodGet, "/api/reports/monthly", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	monthly := decodeBody[[]core.MonthlySpending](t, rec)
	require.Len(t, monthly, 2)
	assert.Equal(t, core.MonthlySpending{Month: "2025-01", TotalAmount: 15}, monthly[0])
	assert.Equal(t, core.MonthlySpending{Month: "2025-02", TotalAmount: 3}, monthly[1])

	rec = doJSON(t, srv, http.MethodGet, "/api/reports/monthly?startDate=2025-02-01", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decodeBody[[]core.MonthlySpending](t, rec), 1)

	rec = doJSON(t, srv, http.MethodGet, "/api/reports/categories", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	byCategory := decodeBody[[]core.CategorySpending](t, rec)
	require.Len(t, byCategory, 2)
	assert.Equal(t, core.CategorySpending{Category: "Food", TotalAmount: 15}, byCategory[0])
	assert.Equal(t, core.CategorySpending{Category: "Transport", TotalAmount: 3}, byCategory[1])
}

func TestReports_EmptyAre200(t *testing.T) {
	srv := newTestServer(t)
	token := registerAndLogin(t, srv, "ada@example.com")

	for _, path := range []string{"/api/reports/monthly", "/api/reports/categories"} {
		rec := doJSON(t, srv, http.MethodGet, path, token, nil)
		assert.Equal(t, http.StatusOK, rec.Code, path)
		assert.JSONEq(t, "[]", rec.Body.String(), path)
	}
}

func TestHealthAndReady(t *testing.T) {
	srv := newTestServer(t)

	rec := doJSON(t, srv, http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, srv, http.MethodGet, "/readyz", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"ready"`)
}

func TestIndexAndHeaders(t *testing.T) {
	srv := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	srv.Server.Handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}

func TestMetricsEndpoint(t *testing.T) {
	srv := newTestServer(t)

	rec := doJSON(t, srv, http.MethodGet, "/metrics", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestTokenIdentityScopesRequests(t *testing.T) {
	srv := newTestServer(t)

	// Two users, interleaved writes: each listing only contains its own rows.
	tokens := map[string]string{
		"ada@example.com": registerAndLogin(t, srv, "ada@example.com"),
		"bob@example.com": registerAndLogin(t, srv, "bob@example.com"),
	}
	for email, token := range tokens {
		rec := doJSON(t, srv, http.MethodPost, "/api/expenses", token, core.ExpenseInput{
			Amount: 1, Description: fmt.Sprintf("by %s", email), Category: "Other", Date: "2025-03-01",
		})
		require.Equal(t, http.StatusCreated, rec.Code)
	}

	for email, token := range tokens {
		rec := doJSON(t, srv, http.MethodGet, "/api/expenses", token, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		list := decodeBody[[]core.Expense](t, rec)
		require.Len(t, list, 1)
		assert.Equal(t, fmt.Sprintf("by %s", email), list[0].Description)
	}
}
