package middleware

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"paperflow/pkg/requestcontext"
)

// TokenValidator validates a bearer token and returns the identity claims.
type TokenValidator interface {
	ValidateToken(tokenString string) (*IdentityClaims, error)
}

// IdentityClaims is the subset of token claims the middleware cares about.
type IdentityClaims struct {
	Actor string
	Role  string
	JTI   string
}

// RequireAuth rejects requests without a valid bearer token and threads the
// actor identity into the request context. The external identity provider
// mints the tokens; this service only validates them.
func RequireAuth(validator TokenValidator, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
			if !ok || token == "" {
				logger.WarnContext(ctx, "unauthorized access - missing token",
					"request_id", requestcontext.RequestID(ctx),
				)
				writeAuthError(w, http.StatusUnauthorized, "missing bearer token")
				return
			}

			claims, err := validator.ValidateToken(token)
			if err != nil {
				logger.WarnContext(ctx, "unauthorized access - invalid token",
					"error", err,
					"request_id", requestcontext.RequestID(ctx),
				)
				writeAuthError(w, http.StatusUnauthorized, "invalid or expired token")
				return
			}

			ctx = requestcontext.WithActor(ctx, claims.Actor)
			ctx = requestcontext.WithRole(ctx, claims.Role)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAdmin gates admin-only operations. It assumes RequireAuth already ran.
func RequireAdmin(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			if requestcontext.Role(ctx) != "admin" {
				logger.WarnContext(ctx, "forbidden - admin role required",
					"actor", requestcontext.Actor(ctx),
					"path", r.URL.Path,
					"request_id", requestcontext.RequestID(ctx),
				)
				writeAuthError(w, http.StatusForbidden, "admin role required")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func writeAuthError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message})
}
