package store

import (
	"context"
	"sort"
	"sync"

	"paperflow/internal/paperwork/models"
	"paperflow/pkg/requestcontext"
)

// Memory is a mutex-guarded map store for tests and development.
type Memory struct {
	mu      sync.RWMutex
	nextID  int64
	records map[int64]*models.Paperwork
}

// NewMemory constructs an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{nextID: 1, records: make(map[int64]*models.Paperwork)}
}

func (m *Memory) Create(ctx context.Context, p *models.Paperwork) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := requestcontext.Now(ctx)
	p.ID = m.nextID
	m.nextID++
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	p.UpdatedAt = p.CreatedAt

	cp := *p
	m.records[p.ID] = &cp
	return nil
}

func (m *Memory) FindByID(ctx context.Context, id int64) (*models.Paperwork, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	p, ok := m.records[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *Memory) List(ctx context.Context, filter ListFilter) ([]*models.Paperwork, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]*models.Paperwork, 0, len(m.records))
	for _, p := range m.records {
		if filter.Status != "" && p.Status != filter.Status {
			continue
		}
		cp := *p
		out = append(out, &cp)
	}
	// Newest first, matching the Postgres ORDER BY.
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (m *Memory) UpdateStatus(ctx context.Context, id int64, status models.Status, reason string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.records[id]
	if !ok {
		return 0, nil
	}
	p.Status = status
	p.Reason = reason
	p.UpdatedAt = requestcontext.Now(ctx)
	return 1, nil
}

func (m *Memory) UpdateStatusFrom(ctx context.Context, id int64, expected, status models.Status, reason string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.records[id]
	if !ok || p.Status != expected {
		return 0, nil
	}
	p.Status = status
	p.Reason = reason
	p.UpdatedAt = requestcontext.Now(ctx)
	return 1, nil
}

func (m *Memory) DeleteBatch(ctx context.Context, ids []int64) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var deleted int64
	for _, id := range ids {
		if _, ok := m.records[id]; ok {
			delete(m.records, id)
			deleted++
		}
	}
	return deleted, nil
}
