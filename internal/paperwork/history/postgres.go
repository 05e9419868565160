package history

import (
	"context"
	"database/sql"
	"fmt"

	"paperflow/internal/paperwork/models"
	"paperflow/pkg/requestcontext"
)

// Postgres persists status transitions in the status_history table.
type Postgres struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed history store.
func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

// EnsureSchema creates the status_history table if it does not exist yet.
func (s *Postgres) EnsureSchema(ctx context.Context) error {
	const ddl = `
		CREATE TABLE IF NOT EXISTS status_history (
			id BIGSERIAL PRIMARY KEY,
			paperwork_id BIGINT NOT NULL,
			previous_status TEXT NOT NULL,
			new_status TEXT NOT NULL,
			changed_by TEXT NOT NULL,
			reason TEXT NOT NULL DEFAULT '',
			changed_at TIMESTAMPTZ NOT NULL
		);
		CREATE INDEX IF NOT EXISTS status_history_paperwork_idx ON status_history (paperwork_id, changed_at DESC)
	`
	if _, err := s.db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("ensure status_history schema: %w", err)
	}
	return nil
}

func (s *Postgres) Record(ctx context.Context, change *models.StatusChange) error {
	if change.ChangedAt.IsZero() {
		change.ChangedAt = requestcontext.Now(ctx)
	}

	const query = `
		INSERT INTO status_history (paperwork_id, previous_status, new_status, changed_by, reason, changed_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`
	err := s.db.QueryRowContext(ctx, query,
		change.PaperworkID,
		string(change.PreviousStatus),
		string(change.NewStatus),
		change.ChangedBy,
		change.Reason,
		change.ChangedAt,
	).Scan(&change.ID)
	if err != nil {
		return fmt.Errorf("insert status change: %w", err)
	}
	return nil
}

func (s *Postgres) ListByPaperwork(ctx context.Context, paperworkID int64) ([]models.StatusChange, error) {
	const query = `
		SELECT id, paperwork_id, previous_status, new_status, changed_by, reason, changed_at
		FROM status_history
		WHERE paperwork_id = $1
		ORDER BY changed_at DESC, id DESC
	`
	rows, err := s.db.QueryContext(ctx, query, paperworkID)
	if err != nil {
		return nil, fmt.Errorf("query status history: %w", err)
	}
	defer rows.Close()

	var out []models.StatusChange
	for rows.Next() {
		var (
			change   models.StatusChange
			previous string
			next     string
		)
		err := rows.Scan(
			&change.ID,
			&change.PaperworkID,
			&previous,
			&next,
			&change.ChangedBy,
			&change.Reason,
			&change.ChangedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan status change: %w", err)
		}
		change.PreviousStatus = models.Status(previous)
		change.NewStatus = models.Status(next)
		out = append(out, change)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate status history: %w", err)
	}
	return out, nil
}
