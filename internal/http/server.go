// Package http is the API transport: routing, authentication, error mapping
// and the embedded frontend.
package http

import (
	"context"
	"io/fs"
	"net/http"
	"sync"
	"time"

	"spendtrack/internal/auth"
	applog "spendtrack/internal/log"
	"spendtrack/internal/metrics"
	"spendtrack/internal/middleware/ratelimit"
	"spendtrack/internal/middleware/security"
	"spendtrack/internal/middleware/trace"
	"spendtrack/internal/services"
	"spendtrack/internal/storage"
	appweb "spendtrack/web"
)

// Server hosts the JSON API and the embedded frontend.
type Server struct {
	http.Server

	authSvc  *services.AuthService
	expenses *services.ExpenseService
	reports  *services.ReportService
	tokens   *auth.TokenManager
	store    storage.Store

	rateLimiter  *ratelimit.Limiter
	shutdownOnce sync.Once
}

// Deps carries everything the server needs. Logger is optional and defaults
// to the process-wide logger.
type Deps struct {
	Auth     *services.AuthService
	Expenses *services.ExpenseService
	Reports  *services.ReportService
	Tokens   *auth.TokenManager
	Store    storage.Store
	Logger   *applog.Logger
}

// NewServer configures routes and middleware, returning a ready-to-run server.
func NewServer(addr string, deps Deps) *Server {
	mux := http.NewServeMux()

	s := &Server{
		authSvc:     deps.Auth,
		expenses:    deps.Expenses,
		reports:     deps.Reports,
		tokens:      deps.Tokens,
		store:       deps.Store,
		rateLimiter: ratelimit.NewLimiter(ratelimit.DefaultConfig()),
	}

	// Public routes
	mux.HandleFunc("POST /api/register", s.handleRegister)
	mux.HandleFunc("POST /api/login", s.handleLogin)

	// Owner-scoped routes
	mux.HandleFunc("GET /api/expenses", s.requireAuth(s.handleListExpenses))
	mux.HandleFunc("POST /api/expenses", s.requireAuth(s.handleCreateExpense))
	mux.HandleFunc("GET /api/expenses/{id}", s.requireAuth(s.handleGetExpense))
	mux.HandleFunc("PUT /api/expenses/{id}", s.requireAuth(s.handleUpdateExpense))
	mux.HandleFunc("DELETE /api/expenses/{id}", s.requireAuth(s.handleDeleteExpense))
	mux.HandleFunc("GET /api/categories", s.requireAuth(s.handleListCategories))
	mux.HandleFunc("GET /api/reports/monthly", s.requireAuth(s.handleMonthlyReport))
	mux.HandleFunc("GET /api/reports/categories", s.requireAuth(s.handleCategoryReport))

	// Operational endpoints
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.Handle("GET /metrics", metrics.Handler())

	// Embedded frontend
	if sub, err := fs.Sub(appweb.StaticFS, "static"); err == nil {
		static := http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
		mux.Handle("GET /static/", security.StaticAssetMiddleware(3600)(static))
	}
	mux.HandleFunc("GET /{$}", s.handleIndex)

	logger := deps.Logger
	if logger == nil {
		logger = applog.New(applog.DefaultConfig()).WithComponent(applog.ComponentHTTP)
	}

	traceMW := trace.NewMiddleware(clientIP)
	logMW := applog.Middleware(logger)
	requestIDMW := applog.RequestIDMiddleware(func(r *http.Request) string {
		return trace.GetRequestID(r.Context())
	})
	headersMW := security.NewHeadersMiddleware(security.DefaultHeadersConfig())
	limitMW := s.rateLimiter.Middleware(clientIP, func(w http.ResponseWriter, r *http.Request) {
		metrics.RateLimited.Inc()
		w.Header().Set("Retry-After", "60")
		writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
	})

	handler := traceMW.Middleware(logMW(requestIDMW(headersMW.Middleware(limitMW(instrument(mux))))))

	s.Server = http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	return s
}

// instrument records per-route request counts and latencies. The matched mux
// pattern keeps the label cardinality bounded.
func instrument(mux *http.ServeMux) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		mux.ServeHTTP(rw, r)

		_, route := mux.Handler(r)
		if route == "" {
			route = "unmatched"
		}
		metrics.ObserveHTTP(r.Method, route, rw.status, time.Since(start))
	})
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

// Shutdown stops background cleanup and drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error

	s.shutdownOnce.Do(func() {
		s.rateLimiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})

	return shutdownErr
}
