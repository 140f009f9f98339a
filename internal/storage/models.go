package storage

import (
	"time"

	"github.com/lugondev/go-agora/internal/initializer"
)

// SubmissionModel is the audit record of one initialize submission.
type SubmissionModel struct {
	ID             string    `json:"id" bson:"_id" db:"id"`
	Signature      string    `json:"signature,omitempty" bson:"signature,omitempty" db:"signature"`
	Governor       string    `json:"governor,omitempty" bson:"governor,omitempty" db:"governor"`
	Admin          string    `json:"admin" bson:"admin" db:"admin"`
	Status         string    `json:"status" bson:"status" db:"status"`
	ErrorCode      string    `json:"error_code,omitempty" bson:"error_code,omitempty" db:"error_code"`
	Slot           uint64    `json:"slot" bson:"slot" db:"slot"`
	DurationMillis int64     `json:"duration_ms" bson:"duration_ms" db:"duration_ms"`
	CreatedAt      time.Time `json:"created_at" bson:"created_at" db:"created_at"`
}

// OutcomeToModel converts a submission outcome. Zero keys are stored empty.
func OutcomeToModel(outcome *initializer.Outcome, now time.Time) *SubmissionModel {
	model := &SubmissionModel{
		ID:             outcome.ID.String(),
		Admin:          outcome.Admin.String(),
		Status:         outcome.Status,
		ErrorCode:      outcome.ErrorCode,
		Slot:           outcome.Slot,
		DurationMillis: outcome.Duration.Milliseconds(),
		CreatedAt:      now.UTC().Truncate(time.Microsecond),
	}
	if !outcome.Signature.IsZero() {
		model.Signature = outcome.Signature.String()
	}
	if !outcome.Governor.IsZero() {
		model.Governor = outcome.Governor.String()
	}
	return model
}

// Succeeded reports whether the submission initialized its governor.
func (m *SubmissionModel) Succeeded() bool {
	return m.Status == initializer.OutcomeSucceeded
}
