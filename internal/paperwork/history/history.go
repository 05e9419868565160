// Package history persists the structured status-transition audit trail,
// independent of the flat activity log. Rows are immutable and never
// updated or deleted by the application.
package history

import (
	"context"

	"paperflow/internal/paperwork/models"
)

// Store is the persistence port for status transitions.
type Store interface {
	// Record inserts one transition row.
	Record(ctx context.Context, change *models.StatusChange) error

	// ListByPaperwork returns all transitions for a record, newest first.
	ListByPaperwork(ctx context.Context, paperworkID int64) ([]models.StatusChange, error)
}
