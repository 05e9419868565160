// Package handler exposes the paperwork HTTP surface.
package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"paperflow/internal/paperwork/models"
	"paperflow/internal/paperwork/service"
	"paperflow/internal/platform/respond"
	derrors "paperflow/pkg/domain-errors"
)

// Handler routes paperwork requests to the service.
type Handler struct {
	svc    *service.Service
	logger *slog.Logger
}

// New constructs the paperwork handler.
func New(svc *service.Service, logger *slog.Logger) *Handler {
	return &Handler{svc: svc, logger: logger}
}

// Register mounts the paperwork routes. Deletion is admin-only and is
// registered separately via RegisterAdmin.
func (h *Handler) Register(r chi.Router) {
	r.Route("/api/paperwork", func(r chi.Router) {
		r.Post("/", h.handleCreate)
		r.Get("/", h.handleList)
		r.Get("/export", h.handleExport)
		r.Post("/status", h.handleUpdateStatus)
		r.Get("/statuses", h.handleStatuses)
		r.Get("/{id}", h.handleGet)
		r.Get("/{id}/history", h.handleHistory)
	})
}

// RegisterAdmin mounts the destructive routes; the caller wraps this
// group in the admin middleware.
func (h *Handler) RegisterAdmin(r chi.Router) {
	r.Delete("/api/paperwork", h.handleDeleteBatch)
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req models.CreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Error(w, r, h.logger, derrors.New(derrors.CodeBadRequest, "invalid request body"))
		return
	}
	p, err := h.svc.Create(r.Context(), req)
	if err != nil {
		respond.Error(w, r, h.logger, err)
		return
	}
	respond.JSON(w, http.StatusCreated, p)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	records, err := h.svc.List(r.Context(), r.URL.Query().Get("status"))
	if err != nil {
		respond.Error(w, r, h.logger, err)
		return
	}
	if records == nil {
		records = []*models.Paperwork{}
	}
	respond.JSON(w, http.StatusOK, map[string]any{
		"records": records,
		"count":   len(records),
	})
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		respond.Error(w, r, h.logger, err)
		return
	}
	p, err := h.svc.Get(r.Context(), id)
	if err != nil {
		respond.Error(w, r, h.logger, err)
		return
	}
	respond.JSON(w, http.StatusOK, p)
}

func (h *Handler) handleHistory(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		respond.Error(w, r, h.logger, err)
		return
	}
	views, err := h.svc.History(r.Context(), id)
	if err != nil {
		respond.Error(w, r, h.logger, err)
		return
	}
	respond.JSON(w, http.StatusOK, map[string]any{
		"paperwork_id": id,
		"history":      views,
	})
}

// handleUpdateStatus accepts both JSON and conventional form bodies and
// always answers with the dual success envelope, even on failure.
func (h *Handler) handleUpdateStatus(w http.ResponseWriter, r *http.Request) {
	req, err := models.ParseUpdateStatusRequest(r)
	if err != nil {
		respond.JSON(w, http.StatusBadRequest, models.ErrorResponse("invalid request"))
		return
	}

	res, err := h.svc.UpdateStatus(r.Context(), req)
	if err != nil {
		respond.JSON(w, derrors.ToHTTPStatus(derrors.CodeOf(err)), models.ErrorResponse(derrors.Message(err)))
		return
	}

	respond.JSON(w, http.StatusOK, models.SuccessResponse(
		"Status updated to "+res.NewStatus.Label()))
}

// handleStatuses lists the closed token set with display labels, for
// client-side dropdowns.
func (h *Handler) handleStatuses(w http.ResponseWriter, r *http.Request) {
	type statusOption struct {
		Value string `json:"value"`
		Label string `json:"label"`
	}
	options := make([]statusOption, 0, len(models.AllStatuses()))
	for _, st := range models.AllStatuses() {
		options = append(options, statusOption{Value: string(st), Label: st.Label()})
	}
	respond.JSON(w, http.StatusOK, map[string]any{"statuses": options})
}

func (h *Handler) handleDeleteBatch(w http.ResponseWriter, r *http.Request) {
	var req models.DeleteBatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Error(w, r, h.logger, derrors.New(derrors.CodeBadRequest, "invalid request body"))
		return
	}
	deleted, err := h.svc.DeleteBatch(r.Context(), req.IDs)
	if err != nil {
		respond.Error(w, r, h.logger, err)
		return
	}
	respond.JSON(w, http.StatusOK, map[string]any{"deleted": deleted})
}

func (h *Handler) handleExport(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="paperwork_export.csv"`)
	if err := h.svc.ExportCSV(r.Context(), w); err != nil {
		// Headers are already out; the truncated body is the best signal
		// left. Log the cause.
		h.logger.ErrorContext(r.Context(), "csv export failed", "error", err)
	}
}

func pathID(r *http.Request) (int64, error) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, derrors.New(derrors.CodeBadRequest, "invalid paperwork id")
	}
	return id, nil
}
