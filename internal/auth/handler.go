package auth

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"paperflow/pkg/requestcontext"
)

// Handler exposes the logout endpoint.
type Handler struct {
	validator *Validator
	logger    *slog.Logger
}

// NewHandler constructs the auth handler.
func NewHandler(validator *Validator, logger *slog.Logger) *Handler {
	return &Handler{validator: validator, logger: logger}
}

// Register mounts the auth routes.
func (h *Handler) Register(r chi.Router) {
	r.Post("/auth/logout", h.handleLogout)
}

// handleLogout revokes the presented token so it cannot be replayed.
func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
	if !ok || token == "" {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": "missing bearer token"})
		return
	}

	if err := h.validator.RevokeToken(ctx, token); err != nil {
		h.logger.WarnContext(ctx, "logout failed",
			"error", err,
			"request_id", requestcontext.RequestID(ctx),
		)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": "invalid token"})
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
