package http

import (
	"context"
	"net/http"
	"strings"

	"spendtrack/internal/metrics"
)

type contextKey string

const identityKey contextKey = "identity"

// Identity is the authenticated caller, decoded from the bearer token.
type Identity struct {
	UserID string
	Email  string
}

// IdentityFromContext returns the caller identity set by requireAuth.
func IdentityFromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityKey).(Identity)
	return id, ok
}

// requireAuth guards a handler behind bearer token authentication. A missing
// header, a non-Bearer scheme and a bad token all answer the same 401 so the
// response leaks nothing about which check failed.
func (s *Server) requireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if header == "" {
			metrics.AuthFailures.WithLabelValues("missing_token").Inc()
			writeError(w, http.StatusUnauthorized, "missing or invalid token")
			return
		}

		scheme, token, found := strings.Cut(header, " ")
		if !found || !strings.EqualFold(scheme, "Bearer") || token == "" {
			metrics.AuthFailures.WithLabelValues("malformed_header").Inc()
			writeError(w, http.StatusUnauthorized, "missing or invalid token")
			return
		}

		claims, err := s.tokens.Decode(token)
		if err != nil {
			metrics.AuthFailures.WithLabelValues("invalid_token").Inc()
			writeError(w, http.StatusUnauthorized, "missing or invalid token")
			return
		}

		identity := Identity{UserID: claims.UserID, Email: claims.Email}
		ctx := context.WithValue(r.Context(), identityKey, identity)
		next(w, r.WithContext(ctx))
	}
}
