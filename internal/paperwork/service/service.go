// Package service orchestrates the paperwork workflow: the primary status
// write, the structured history row, the flat activity log line, and the
// admin notification. Only the primary write can fail a request; the audit
// and notification tiers are best-effort, since the caller's status change
// is already durable by the time they run.
package service

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"paperflow/internal/activitylog"
	"paperflow/internal/notify"
	"paperflow/internal/paperwork/events"
	"paperflow/internal/paperwork/history"
	"paperflow/internal/paperwork/models"
	"paperflow/internal/paperwork/store"
	"paperflow/internal/platform/metrics"
	derrors "paperflow/pkg/domain-errors"
	"paperflow/pkg/requestcontext"
)

// startDatePrefix is the conventional reason prefix for started records.
const startDatePrefix = "Start Date: "

// Service coordinates paperwork operations across the store, the audit
// trail, and the notification edge.
type Service struct {
	records   store.Store
	history   history.Store
	activity  *activitylog.Store
	notifier  notify.Notifier
	publisher events.Publisher
	metrics   *metrics.Metrics
	logger    *slog.Logger

	// guardConcurrentUpdates switches the status write to compare-and-swap
	// against the pre-image, turning the read-then-write race into a
	// visible conflict instead of a silent lost update.
	guardConcurrentUpdates bool

	// recordUnchangedTransitions preserves the historical behavior of
	// writing a history row even when the status did not change. Kept
	// behind a flag because it may be a pre-existing defect rather than
	// intended semantics.
	recordUnchangedTransitions bool
}

// Option configures a Service.
type Option func(*Service)

// WithConcurrencyGuard enables the compare-and-swap status write.
func WithConcurrencyGuard() Option {
	return func(s *Service) { s.guardConcurrentUpdates = true }
}

// WithoutUnchangedTransitionRows disables history rows for same-status
// updates.
func WithoutUnchangedTransitionRows() Option {
	return func(s *Service) { s.recordUnchangedTransitions = false }
}

// New constructs the paperwork service.
func New(
	records store.Store,
	hist history.Store,
	activity *activitylog.Store,
	notifier notify.Notifier,
	publisher events.Publisher,
	m *metrics.Metrics,
	logger *slog.Logger,
	opts ...Option,
) *Service {
	s := &Service{
		records:                    records,
		history:                    hist,
		activity:                   activity,
		notifier:                   notifier,
		publisher:                  publisher,
		metrics:                    m,
		logger:                     logger,
		recordUnchangedTransitions: true,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// UpdateStatusResult reports a completed status change.
type UpdateStatusResult struct {
	PaperworkID    int64
	PreviousStatus models.Status
	NewStatus      models.Status
	Reason         string
}

// UpdateStatus runs the status-change protocol: validate, read the
// pre-image, normalize, write, then fan out the best-effort audit writes
// and notification.
func (s *Service) UpdateStatus(ctx context.Context, req models.UpdateStatusRequest) (*UpdateStatusResult, error) {
	if req.ID <= 0 {
		return nil, derrors.New(derrors.CodeBadRequest, "id is required")
	}
	if req.Status == "" {
		return nil, derrors.New(derrors.CodeBadRequest, "status is required")
	}
	newStatus := models.Status(req.Status)
	if !newStatus.Valid() {
		return nil, derrors.New(derrors.CodeBadRequest, fmt.Sprintf("unknown status %q", req.Status))
	}

	// Pre-image read. No lock is held between here and the write; with the
	// guard disabled a concurrent change can slip in and both callers will
	// log the same previous status.
	current, err := s.records.FindByID(ctx, req.ID)
	if err != nil {
		if derrors.HasCode(err, derrors.CodeNotFound) {
			return nil, err
		}
		return nil, derrors.Wrap(err, derrors.CodeInternal, "failed to read paperwork record")
	}
	previous := current.Status

	reason := req.Reason
	if newStatus == models.StatusStarted {
		reason = normalizeStartReason(reason)
	}

	var rows int64
	if s.guardConcurrentUpdates {
		rows, err = s.records.UpdateStatusFrom(ctx, req.ID, previous, newStatus, reason)
	} else {
		rows, err = s.records.UpdateStatus(ctx, req.ID, newStatus, reason)
	}
	if err != nil {
		return nil, derrors.Wrap(err, derrors.CodeInternal, "failed to update paperwork status")
	}
	if rows == 0 {
		if s.guardConcurrentUpdates {
			// Zero rows under the guard means either the record vanished or
			// the pre-image moved underneath us; disambiguate.
			if _, findErr := s.records.FindByID(ctx, req.ID); findErr == nil {
				return nil, derrors.New(derrors.CodeConflict, "status changed concurrently, retry")
			}
		}
		return nil, derrors.New(derrors.CodeNotFound, "paperwork record not found")
	}

	s.metrics.StatusChanges.WithLabelValues(string(newStatus)).Inc()

	// Best-effort tier from here down: the primary write is durable, so
	// nothing below may fail the request.
	if s.recordUnchangedTransitions || previous != newStatus {
		s.recordHistory(ctx, &models.StatusChange{
			PaperworkID:    req.ID,
			PreviousStatus: previous,
			NewStatus:      newStatus,
			ChangedBy:      requestcontext.Actor(ctx),
			Reason:         reason,
		})
	}

	s.logActivity(ctx, "status_change", req.ID,
		fmt.Sprintf("%s -> %s", previous, newStatus))

	if previous != newStatus {
		s.notifyStatusChange(ctx, notify.StatusChangeNotice{
			PaperworkID:   req.ID,
			CandidateName: current.CandidateName,
			OldStatus:     previous.Label(),
			NewStatus:     newStatus.Label(),
			Reason:        reason,
			ChangedBy:     requestcontext.Actor(ctx),
		})

		event := events.NewEvent(events.TypeStatusChanged, req.ID, requestcontext.Actor(ctx))
		event.OldStatus = string(previous)
		event.NewStatus = string(newStatus)
		event.Reason = reason
		s.emit(ctx, event)
	}

	return &UpdateStatusResult{
		PaperworkID:    req.ID,
		PreviousStatus: previous,
		NewStatus:      newStatus,
		Reason:         reason,
	}, nil
}

// Create submits a new paperwork record with the initial status.
func (s *Service) Create(ctx context.Context, req models.CreateRequest) (*models.Paperwork, error) {
	if strings.TrimSpace(req.CandidateName) == "" {
		return nil, derrors.New(derrors.CodeBadRequest, "candidate_name is required")
	}
	if strings.TrimSpace(req.Client) == "" {
		return nil, derrors.New(derrors.CodeBadRequest, "client is required")
	}

	p := &models.Paperwork{
		CandidateName:  strings.TrimSpace(req.CandidateName),
		CandidateEmail: strings.TrimSpace(req.CandidateEmail),
		Client:         strings.TrimSpace(req.Client),
		Status:         models.StatusCreated,
		CreatedBy:      requestcontext.Actor(ctx),
	}
	if err := s.records.Create(ctx, p); err != nil {
		return nil, derrors.Wrap(err, derrors.CodeInternal, "failed to create paperwork record")
	}

	s.metrics.RecordsCreated.Inc()
	s.logActivity(ctx, "create", p.ID, fmt.Sprintf("submitted paperwork for %s (%s)", p.CandidateName, p.Client))
	s.emit(ctx, events.NewEvent(events.TypeRecordCreated, p.ID, requestcontext.Actor(ctx)))

	return p, nil
}

// Get fetches one record.
func (s *Service) Get(ctx context.Context, id int64) (*models.Paperwork, error) {
	if id <= 0 {
		return nil, derrors.New(derrors.CodeBadRequest, "id is required")
	}
	p, err := s.records.FindByID(ctx, id)
	if err != nil {
		if derrors.HasCode(err, derrors.CodeNotFound) {
			return nil, err
		}
		return nil, derrors.Wrap(err, derrors.CodeInternal, "failed to read paperwork record")
	}
	return p, nil
}

// List returns records newest first, optionally filtered by status token.
func (s *Service) List(ctx context.Context, status string) ([]*models.Paperwork, error) {
	filter := store.ListFilter{}
	if status != "" {
		st := models.Status(status)
		if !st.Valid() {
			return nil, derrors.New(derrors.CodeBadRequest, fmt.Sprintf("unknown status %q", status))
		}
		filter.Status = st
	}
	records, err := s.records.List(ctx, filter)
	if err != nil {
		return nil, derrors.Wrap(err, derrors.CodeInternal, "failed to list paperwork records")
	}
	return records, nil
}

// History returns a record's status transitions newest first, enriched
// with display labels.
func (s *Service) History(ctx context.Context, id int64) ([]models.StatusChangeView, error) {
	if id <= 0 {
		return nil, derrors.New(derrors.CodeBadRequest, "id is required")
	}
	if _, err := s.records.FindByID(ctx, id); err != nil {
		if derrors.HasCode(err, derrors.CodeNotFound) {
			return nil, err
		}
		return nil, derrors.Wrap(err, derrors.CodeInternal, "failed to read paperwork record")
	}

	changes, err := s.history.ListByPaperwork(ctx, id)
	if err != nil {
		return nil, derrors.Wrap(err, derrors.CodeInternal, "failed to read status history")
	}
	views := make([]models.StatusChangeView, 0, len(changes))
	for _, c := range changes {
		views = append(views, c.Enrich())
	}
	return views, nil
}

// DeleteBatch removes records in bulk and logs how many existed.
func (s *Service) DeleteBatch(ctx context.Context, ids []int64) (int64, error) {
	if len(ids) == 0 {
		return 0, derrors.New(derrors.CodeBadRequest, "ids are required")
	}
	for _, id := range ids {
		if id <= 0 {
			return 0, derrors.New(derrors.CodeBadRequest, "ids must be positive")
		}
	}

	deleted, err := s.records.DeleteBatch(ctx, ids)
	if err != nil {
		return 0, derrors.Wrap(err, derrors.CodeInternal, "failed to delete paperwork records")
	}

	s.metrics.RecordsDeleted.Add(float64(deleted))
	s.logActivity(ctx, "bulk_delete", 0,
		fmt.Sprintf("deleted %d of %d requested records", deleted, len(ids)))

	event := events.NewEvent(events.TypeBatchDeleted, 0, requestcontext.Actor(ctx))
	event.Reason = fmt.Sprintf("%d records", deleted)
	s.emit(ctx, event)

	return deleted, nil
}

// ExportCSV streams every record as CSV with label-rendered statuses.
func (s *Service) ExportCSV(ctx context.Context, w io.Writer) error {
	records, err := s.records.List(ctx, store.ListFilter{})
	if err != nil {
		return derrors.Wrap(err, derrors.CodeInternal, "failed to list paperwork records")
	}

	cw := csv.NewWriter(w)
	header := []string{"id", "candidate_name", "candidate_email", "client", "status", "reason", "created_by", "created_at", "updated_at"}
	if err := cw.Write(header); err != nil {
		return derrors.Wrap(err, derrors.CodeInternal, "failed to write export")
	}
	for _, p := range records {
		row := []string{
			strconv.FormatInt(p.ID, 10),
			p.CandidateName,
			p.CandidateEmail,
			p.Client,
			p.Status.Label(),
			p.Reason,
			p.CreatedBy,
			p.CreatedAt.Format(time.RFC3339),
			p.UpdatedAt.Format(time.RFC3339),
		}
		if err := cw.Write(row); err != nil {
			return derrors.Wrap(err, derrors.CodeInternal, "failed to write export")
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return derrors.Wrap(err, derrors.CodeInternal, "failed to write export")
	}

	s.logActivity(ctx, "export", 0, fmt.Sprintf("exported %d records", len(records)))
	return nil
}

// recordHistory writes the structured audit row, best-effort.
func (s *Service) recordHistory(ctx context.Context, change *models.StatusChange) {
	if err := s.history.Record(ctx, change); err != nil {
		s.metrics.HistoryWriteFailures.Inc()
		s.logger.ErrorContext(ctx, "status history write failed",
			"error", err,
			"paperwork_id", change.PaperworkID,
			"request_id", requestcontext.RequestID(ctx),
		)
	}
}

// logActivity appends to the flat log, best-effort. The store reports
// failure as a boolean, never an error.
func (s *Service) logActivity(ctx context.Context, action string, paperworkID int64, details string) {
	entry := activitylog.Entry{
		User:    requestcontext.Actor(ctx),
		IP:      requestcontext.ClientIP(ctx),
		Action:  action,
		Details: details,
	}
	if paperworkID > 0 {
		entry.RecordID = &paperworkID
	}
	if !s.activity.Append(entry) {
		s.metrics.LogAppendFailures.Inc()
	}
}

// notifyStatusChange sends the admin notice, best-effort.
func (s *Service) notifyStatusChange(ctx context.Context, notice notify.StatusChangeNotice) {
	if err := s.notifier.StatusChanged(ctx, notice); err != nil {
		s.metrics.NotifyFailures.Inc()
		s.logger.ErrorContext(ctx, "status change notification failed",
			"error", err,
			"paperwork_id", notice.PaperworkID,
			"request_id", requestcontext.RequestID(ctx),
		)
	}
}

// emit publishes a lifecycle event, best-effort.
func (s *Service) emit(ctx context.Context, event events.Event) {
	if err := s.publisher.Emit(ctx, event); err != nil {
		s.logger.WarnContext(ctx, "event publish failed",
			"error", err,
			"event_type", event.Type,
			"request_id", requestcontext.RequestID(ctx),
		)
	}
}

// normalizeStartReason canonicalizes start-date reasons to the
// conventional "Start Date: YYYY-MM-DD" form. Reasons that don't encode a
// recognizable date pass through untouched.
func normalizeStartReason(reason string) string {
	trimmed := strings.TrimSpace(reason)
	if trimmed == "" {
		return reason
	}
	candidate := strings.TrimSpace(strings.TrimPrefix(trimmed, startDatePrefix))

	for _, layout := range []string{"2006-01-02", "01/02/2006", "2006/01/02", "Jan 2, 2006"} {
		if t, err := time.Parse(layout, candidate); err == nil {
			return startDatePrefix + t.Format("2006-01-02")
		}
	}
	return reason
}
