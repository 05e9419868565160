package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"paperflow/internal/paperwork/models"
	"paperflow/pkg/requestcontext"
)

// Postgres persists paperwork records in PostgreSQL.
type Postgres struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed paperwork store.
func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

// EnsureSchema creates the paperwork table if it does not exist yet.
func (s *Postgres) EnsureSchema(ctx context.Context) error {
	const ddl = `
		CREATE TABLE IF NOT EXISTS paperwork (
			id BIGSERIAL PRIMARY KEY,
			candidate_name TEXT NOT NULL,
			candidate_email TEXT NOT NULL,
			client TEXT NOT NULL,
			status TEXT NOT NULL,
			reason TEXT NOT NULL DEFAULT '',
			created_by TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL
		)
	`
	if _, err := s.db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("ensure paperwork schema: %w", err)
	}
	return nil
}

func (s *Postgres) Create(ctx context.Context, p *models.Paperwork) error {
	now := requestcontext.Now(ctx)
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	p.UpdatedAt = p.CreatedAt

	const query = `
		INSERT INTO paperwork (candidate_name, candidate_email, client, status, reason, created_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id
	`
	err := s.db.QueryRowContext(ctx, query,
		p.CandidateName,
		p.CandidateEmail,
		p.Client,
		string(p.Status),
		p.Reason,
		p.CreatedBy,
		p.CreatedAt,
		p.UpdatedAt,
	).Scan(&p.ID)
	if err != nil {
		return fmt.Errorf("insert paperwork: %w", err)
	}
	return nil
}

func (s *Postgres) FindByID(ctx context.Context, id int64) (*models.Paperwork, error) {
	const query = `
		SELECT id, candidate_name, candidate_email, client, status, reason, created_by, created_at, updated_at
		FROM paperwork
		WHERE id = $1
	`
	p, err := scanPaperwork(s.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query paperwork: %w", err)
	}
	return p, nil
}

func (s *Postgres) List(ctx context.Context, filter ListFilter) ([]*models.Paperwork, error) {
	query := `
		SELECT id, candidate_name, candidate_email, client, status, reason, created_by, created_at, updated_at
		FROM paperwork
	`
	var args []any
	if filter.Status != "" {
		query += ` WHERE status = $1`
		args = append(args, string(filter.Status))
	}
	query += ` ORDER BY created_at DESC, id DESC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list paperwork: %w", err)
	}
	defer rows.Close()

	var out []*models.Paperwork
	for rows.Next() {
		p, err := scanPaperwork(rows)
		if err != nil {
			return nil, fmt.Errorf("scan paperwork: %w", err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate paperwork: %w", err)
	}
	return out, nil
}

func (s *Postgres) UpdateStatus(ctx context.Context, id int64, status models.Status, reason string) (int64, error) {
	const query = `
		UPDATE paperwork SET status = $1, reason = $2, updated_at = $3 WHERE id = $4
	`
	res, err := s.db.ExecContext(ctx, query, string(status), reason, requestcontext.Now(ctx), id)
	if err != nil {
		return 0, fmt.Errorf("update paperwork status: %w", err)
	}
	return res.RowsAffected()
}

func (s *Postgres) UpdateStatusFrom(ctx context.Context, id int64, expected, status models.Status, reason string) (int64, error) {
	const query = `
		UPDATE paperwork SET status = $1, reason = $2, updated_at = $3 WHERE id = $4 AND status = $5
	`
	res, err := s.db.ExecContext(ctx, query, string(status), reason, requestcontext.Now(ctx), id, string(expected))
	if err != nil {
		return 0, fmt.Errorf("update paperwork status: %w", err)
	}
	return res.RowsAffected()
}

func (s *Postgres) DeleteBatch(ctx context.Context, ids []int64) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	const query = `DELETE FROM paperwork WHERE id = ANY($1)`
	res, err := s.db.ExecContext(ctx, query, pq.Array(ids))
	if err != nil {
		return 0, fmt.Errorf("delete paperwork batch: %w", err)
	}
	return res.RowsAffected()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPaperwork(row rowScanner) (*models.Paperwork, error) {
	var (
		p      models.Paperwork
		status string
	)
	err := row.Scan(
		&p.ID,
		&p.CandidateName,
		&p.CandidateEmail,
		&p.Client,
		&status,
		&p.Reason,
		&p.CreatedBy,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	p.Status = models.Status(status)
	return &p, nil
}
