// Package events publishes paperwork lifecycle events for downstream
// consumers (reporting, SIEM). Publishing is fire-and-forget: the durable
// audit trail is the status_history table plus the activity log, so a
// dropped event is an observability gap, not a correctness problem.
package events

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Event is one paperwork lifecycle event.
type Event struct {
	ID          string    `json:"id"`
	Type        string    `json:"type"`
	PaperworkID int64     `json:"paperwork_id"`
	OldStatus   string    `json:"old_status,omitempty"`
	NewStatus   string    `json:"new_status,omitempty"`
	Actor       string    `json:"actor"`
	Reason      string    `json:"reason,omitempty"`
	Timestamp   time.Time `json:"timestamp"`
}

// Event types.
const (
	TypeRecordCreated = "paperwork.record_created"
	TypeStatusChanged = "paperwork.status_changed"
	TypeBatchDeleted  = "paperwork.batch_deleted"
)

// Publisher emits lifecycle events.
type Publisher interface {
	Emit(ctx context.Context, event Event) error
}

// NewEvent stamps an event with an ID and timestamp.
func NewEvent(eventType string, paperworkID int64, actor string) Event {
	return Event{
		ID:          uuid.NewString(),
		Type:        eventType,
		PaperworkID: paperworkID,
		Actor:       actor,
		Timestamp:   time.Now().UTC(),
	}
}

// Noop discards events. Used when no brokers are configured.
type Noop struct{}

func (Noop) Emit(ctx context.Context, event Event) error { return nil }
