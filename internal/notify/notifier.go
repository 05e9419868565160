// Package notify sends status-change notices to administrators. Delivery
// is fire-and-forget: the orchestrator logs failures and moves on, so no
// implementation here may block a request on retries.
package notify

import (
	"context"
	"log/slog"
)

// StatusChangeNotice summarizes one status transition for administrators.
type StatusChangeNotice struct {
	PaperworkID   int64
	CandidateName string
	OldStatus     string
	NewStatus     string
	Reason        string
	ChangedBy     string
}

//go:generate mockgen -destination=../paperwork/service/mocks/mocks.go -package=mocks paperflow/internal/notify Notifier

// Notifier delivers a status-change notice.
type Notifier interface {
	StatusChanged(ctx context.Context, notice StatusChangeNotice) error
}

// LogNotifier writes notices to the structured log. Used when no SMTP
// relay is configured, so the notice is still observable somewhere.
type LogNotifier struct {
	logger *slog.Logger
}

// NewLogNotifier constructs the log-only notifier.
func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) StatusChanged(ctx context.Context, notice StatusChangeNotice) error {
	n.logger.InfoContext(ctx, "status change notice",
		"paperwork_id", notice.PaperworkID,
		"candidate", notice.CandidateName,
		"old_status", notice.OldStatus,
		"new_status", notice.NewStatus,
		"reason", notice.Reason,
		"changed_by", notice.ChangedBy,
	)
	return nil
}
