// internal/repository/postgres/submission_repo.go
package postgres

import (
	"context"
	"errors"
	"fmt"

	"assistance-gateway/internal/domain/submission"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/lib/pq"
)

const submissionSchema = `
	CREATE TABLE IF NOT EXISTS wizard_submissions (
		id          BIGSERIAL PRIMARY KEY,
		session_id  TEXT NOT NULL UNIQUE,
		request_id  TEXT NOT NULL,
		owner       TEXT NOT NULL,
		service_id  TEXT NOT NULL,
		plan_type   TEXT NOT NULL,
		form_type   TEXT NOT NULL DEFAULT '',
		steps       TEXT[] NOT NULL,
		payload     JSONB,
		created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);
	CREATE INDEX IF NOT EXISTS idx_wizard_submissions_owner
		ON wizard_submissions (owner, created_at DESC);
`

type SubmissionRepository struct {
	db *pgxpool.Pool
}

func NewSubmissionRepository(db *pgxpool.Pool) *SubmissionRepository {
	return &SubmissionRepository{db: db}
}

// EnsureSchema creates the ledger table when it does not exist.
func (r *SubmissionRepository) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.Exec(ctx, submissionSchema); err != nil {
		return fmt.Errorf("failed to create submission schema: %w", err)
	}
	return nil
}

// Create records a submission. Recording the same session twice is a no-op.
func (r *SubmissionRepository) Create(ctx context.Context, rec *submission.Record) error {
	query := `
		INSERT INTO wizard_submissions (session_id, request_id, owner, service_id, plan_type, form_type, steps, payload)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (session_id) DO NOTHING
		RETURNING id, created_at
	`

	var payload []byte
	if len(rec.Payload) > 0 {
		payload = rec.Payload
	}

	err := r.db.QueryRow(
		ctx, query,
		rec.SessionID, rec.RequestID, rec.Owner, rec.ServiceID, rec.PlanType, rec.FormType,
		pq.Array(rec.Steps), payload,
	).Scan(&rec.ID, &rec.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to insert submission: %w", err)
	}
	return nil
}

// ListByOwner returns the owner's submissions, newest first.
func (r *SubmissionRepository) ListByOwner(ctx context.Context, owner string, filters *submission.ListFilters) ([]submission.Record, int64, error) {
	filters.Normalize()

	var total int64
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM wizard_submissions WHERE owner = $1`, owner).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count submissions: %w", err)
	}

	query := `
		SELECT id, session_id, request_id, owner, service_id, plan_type, form_type, steps, payload, created_at
		FROM wizard_submissions
		WHERE owner = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`
	rows, err := r.db.Query(ctx, query, owner, filters.PageSize, (filters.Page-1)*filters.PageSize)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list submissions: %w", err)
	}
	defer rows.Close()

	var out []submission.Record
	for rows.Next() {
		var rec submission.Record
		var steps pq.StringArray
		var payload []byte
		if err := rows.Scan(
			&rec.ID, &rec.SessionID, &rec.RequestID, &rec.Owner, &rec.ServiceID,
			&rec.PlanType, &rec.FormType, &steps, &payload, &rec.CreatedAt,
		); err != nil {
			return nil, 0, fmt.Errorf("failed to scan submission: %w", err)
		}
		rec.Steps = []string(steps)
		rec.Payload = payload
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to iterate submissions: %w", err)
	}
	return out, total, nil
}
