package storage

import (
	"context"
)

// SubmissionRepository stores submission records. Save replaces an existing
// record with the same ID. Find methods return nil, nil when nothing matches.
type SubmissionRepository interface {
	Save(ctx context.Context, submission *SubmissionModel) error
	FindByID(ctx context.Context, id string) (*SubmissionModel, error)
	FindBySignature(ctx context.Context, signature string) (*SubmissionModel, error)

	// FindByGovernor returns the newest records first.
	FindByGovernor(ctx context.Context, governor string, limit int) ([]*SubmissionModel, error)
}

type Repository interface {
	Submissions() SubmissionRepository
	Close() error
	Ping(ctx context.Context) error
}
