// Package store persists paperwork records. Two implementations exist:
// an in-memory store for tests and single-node development, and a
// Postgres store for real deployments.
package store

import (
	"context"

	"paperflow/internal/paperwork/models"
	derrors "paperflow/pkg/domain-errors"
)

// ErrNotFound keeps store-level 404s consistent across implementations.
var ErrNotFound = derrors.New(derrors.CodeNotFound, "paperwork record not found")

// ListFilter narrows a listing. Zero value lists everything.
type ListFilter struct {
	Status models.Status
}

// Store is the persistence port for paperwork records.
type Store interface {
	Create(ctx context.Context, p *models.Paperwork) error
	FindByID(ctx context.Context, id int64) (*models.Paperwork, error)
	List(ctx context.Context, filter ListFilter) ([]*models.Paperwork, error)

	// UpdateStatus writes status and reason in one statement and returns
	// the number of rows affected; zero means the record does not exist.
	UpdateStatus(ctx context.Context, id int64, status models.Status, reason string) (int64, error)

	// UpdateStatusFrom is the compare-and-swap variant: the write only
	// lands if the current status still equals expected. Zero rows means
	// either a missing record or a lost race; callers disambiguate with a
	// follow-up FindByID.
	UpdateStatusFrom(ctx context.Context, id int64, expected, status models.Status, reason string) (int64, error)

	// DeleteBatch removes the given records and reports how many existed.
	DeleteBatch(ctx context.Context, ids []int64) (int64, error)
}
