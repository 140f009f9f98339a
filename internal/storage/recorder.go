package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/lugondev/go-agora/internal/initializer"
)

// Recorder stores initialize outcomes in a SubmissionRepository.
type Recorder struct {
	submissions SubmissionRepository
	now         func() time.Time
}

var _ initializer.Recorder = (*Recorder)(nil)

func NewRecorder(submissions SubmissionRepository) *Recorder {
	return &Recorder{submissions: submissions, now: time.Now}
}

func (r *Recorder) RecordOutcome(ctx context.Context, outcome *initializer.Outcome) error {
	model := OutcomeToModel(outcome, r.now())
	if err := r.submissions.Save(ctx, model); err != nil {
		return fmt.Errorf("failed to save submission %s: %w", model.ID, err)
	}
	return nil
}
