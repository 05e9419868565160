package history

import (
	"context"
	"sync"

	"paperflow/internal/paperwork/models"
	"paperflow/pkg/requestcontext"
)

// Memory is an in-memory history store for tests and development.
type Memory struct {
	mu      sync.RWMutex
	nextID  int64
	changes []models.StatusChange
}

// NewMemory constructs an empty in-memory history store.
func NewMemory() *Memory {
	return &Memory{nextID: 1}
}

func (m *Memory) Record(ctx context.Context, change *models.StatusChange) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	change.ID = m.nextID
	m.nextID++
	if change.ChangedAt.IsZero() {
		change.ChangedAt = requestcontext.Now(ctx)
	}
	m.changes = append(m.changes, *change)
	return nil
}

func (m *Memory) ListByPaperwork(ctx context.Context, paperworkID int64) ([]models.StatusChange, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []models.StatusChange
	// Insertion order is chronological; walk backwards for newest first.
	for i := len(m.changes) - 1; i >= 0; i-- {
		if m.changes[i].PaperworkID == paperworkID {
			out = append(out, m.changes[i])
		}
	}
	return out, nil
}
