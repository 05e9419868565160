package activitylog

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"paperflow/internal/platform/respond"
	derrors "paperflow/pkg/domain-errors"
	"paperflow/pkg/requestcontext"
)

const (
	defaultPageSize = 50
	maxPageSize     = 200
)

// Handler exposes the activity log over HTTP.
type Handler struct {
	store  *Store
	logger *slog.Logger
}

// NewHandler constructs the activity log handler.
func NewHandler(store *Store, logger *slog.Logger) *Handler {
	return &Handler{store: store, logger: logger}
}

// Register mounts the read-only activity routes.
func (h *Handler) Register(r chi.Router) {
	r.Route("/api/activity", func(r chi.Router) {
		r.Get("/", h.handleQuery)
		r.Get("/days", h.handleDays)
		r.Get("/filters", h.handleFilters)
	})
}

// RegisterAdmin mounts the destructive routes; the caller wraps this
// group in the admin middleware.
func (h *Handler) RegisterAdmin(r chi.Router) {
	r.Delete("/api/activity", h.handleClear)
}

func (h *Handler) handleQuery(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	f := Filter{
		Day:    q.Get("date"),
		User:   q.Get("user"),
		Action: q.Get("action"),
		Limit:  defaultPageSize,
	}
	if raw := q.Get("record_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			respond.Error(w, r, h.logger, derrors.New(derrors.CodeBadRequest, "invalid record_id"))
			return
		}
		f.RecordID = &id
	}
	if raw := q.Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit <= 0 {
			respond.Error(w, r, h.logger, derrors.New(derrors.CodeBadRequest, "invalid limit"))
			return
		}
		f.Limit = min(limit, maxPageSize)
	}
	if raw := q.Get("offset"); raw != "" {
		offset, err := strconv.Atoi(raw)
		if err != nil || offset < 0 {
			respond.Error(w, r, h.logger, derrors.New(derrors.CodeBadRequest, "invalid offset"))
			return
		}
		f.Offset = offset
	}

	entries := h.store.Query(f)
	total := h.store.Count(Filter{Day: f.Day, User: f.User, Action: f.Action, RecordID: f.RecordID})
	if entries == nil {
		entries = []Entry{}
	}

	respond.JSON(w, http.StatusOK, map[string]any{
		"entries": entries,
		"total":   total,
		"limit":   f.Limit,
		"offset":  f.Offset,
	})
}

func (h *Handler) handleDays(w http.ResponseWriter, r *http.Request) {
	respond.JSON(w, http.StatusOK, map[string]any{"days": h.store.ListDays()})
}

// handleFilters returns the distinct actors and actions seen across all
// days, for client-side filter dropdowns.
func (h *Handler) handleFilters(w http.ResponseWriter, r *http.Request) {
	respond.JSON(w, http.StatusOK, map[string]any{
		"users":   h.store.DistinctActors(),
		"actions": h.store.DistinctActions(),
	})
}

// handleClear removes one day's file, or every live file with date=all.
// Rotated backups are never touched.
func (h *Handler) handleClear(w http.ResponseWriter, r *http.Request) {
	day := r.URL.Query().Get("date")
	if day == "" {
		respond.Error(w, r, h.logger, derrors.New(derrors.CodeBadRequest, "date is required"))
		return
	}

	if !h.store.Clear(day) {
		respond.Error(w, r, h.logger, derrors.New(derrors.CodeInternal, "failed to clear activity log"))
		return
	}

	h.logger.InfoContext(r.Context(), "activity log cleared",
		"date", day,
		"actor", requestcontext.Actor(r.Context()),
	)
	respond.JSON(w, http.StatusOK, map[string]any{"cleared": day})
}
