package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/lugondev/go-agora/internal/storage"
)

const submissionColumns = `id, signature, governor, admin, status, error_code, slot, duration_ms, created_at`

type postgresSubmissionRepository struct {
	pool *pgxpool.Pool
}

func (r *postgresSubmissionRepository) Save(ctx context.Context, s *storage.SubmissionModel) error {
	query := `
		INSERT INTO submissions (` + submissionColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (id) DO UPDATE SET
			signature = $2, governor = $3, admin = $4, status = $5, error_code = $6, slot = $7, duration_ms = $8
	`
	_, err := r.pool.Exec(ctx, query,
		s.ID, s.Signature, s.Governor, s.Admin, s.Status,
		s.ErrorCode, int64(s.Slot), s.DurationMillis, s.CreatedAt,
	)
	return err
}

func (r *postgresSubmissionRepository) FindByID(ctx context.Context, id string) (*storage.SubmissionModel, error) {
	query := `SELECT ` + submissionColumns + ` FROM submissions WHERE id = $1`
	return QueryOne(ctx, r.pool, query, scanSubmission, id)
}

func (r *postgresSubmissionRepository) FindBySignature(ctx context.Context, signature string) (*storage.SubmissionModel, error) {
	query := `SELECT ` + submissionColumns + ` FROM submissions
		WHERE signature = $1 ORDER BY created_at DESC LIMIT 1`
	return QueryOne(ctx, r.pool, query, scanSubmission, signature)
}

func (r *postgresSubmissionRepository) FindByGovernor(ctx context.Context, governor string, limit int) ([]*storage.SubmissionModel, error) {
	query := `SELECT ` + submissionColumns + ` FROM submissions
		WHERE governor = $1 ORDER BY created_at DESC, id DESC`
	args := []any{governor}
	if limit > 0 {
		query += ` LIMIT $2`
		args = append(args, limit)
	}
	return QueryMany(ctx, r.pool, query, scanSubmission, args...)
}

func scanSubmission(row pgx.Row) (*storage.SubmissionModel, error) {
	var s storage.SubmissionModel
	var slot int64
	if err := row.Scan(
		&s.ID, &s.Signature, &s.Governor, &s.Admin, &s.Status,
		&s.ErrorCode, &slot, &s.DurationMillis, &s.CreatedAt,
	); err != nil {
		return nil, err
	}
	s.Slot = uint64(slot)
	s.CreatedAt = s.CreatedAt.UTC()
	return &s, nil
}
