package initializer

import (
	"context"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/google/uuid"

	"github.com/lugondev/go-agora/internal/metrics"
)

// Outcome statuses.
const (
	OutcomeSucceeded = "succeeded"
	OutcomeFailed    = "failed"
	OutcomeUnknown   = "unknown"
)

// recordTimeout bounds a Recorder call. It runs detached from the caller's
// context so cancelled submissions are still recorded.
const recordTimeout = 5 * time.Second

// Outcome describes one SubmitInitialize call.
type Outcome struct {
	// ID identifies the submission. It is carried in the transaction memo.
	ID uuid.UUID

	// Signature is zero when the call failed before signing.
	Signature solana.Signature
	Governor  solana.PublicKey
	Admin     solana.PublicKey

	// Status is one of OutcomeSucceeded, OutcomeFailed or OutcomeUnknown.
	Status string

	// ErrorCode is the internal/errors code of the failure, or "".
	ErrorCode string

	// Slot is the slot the transaction was processed in, when observed.
	Slot     uint64
	Duration time.Duration
}

// Recorder persists submission outcomes for audit.
type Recorder interface {
	RecordOutcome(ctx context.Context, outcome *Outcome) error
}

// RecorderFunc adapts a function to Recorder.
type RecorderFunc func(ctx context.Context, outcome *Outcome) error

func (f RecorderFunc) RecordOutcome(ctx context.Context, outcome *Outcome) error {
	return f(ctx, outcome)
}

// record hands outcome to the recorder. Failures are logged and never change
// the result of the submission.
func (a *Adapter) record(outcome *Outcome) {
	if a.recorder == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), recordTimeout)
	defer cancel()

	if err := a.recorder.RecordOutcome(ctx, outcome); err != nil {
		a.count(ctx, metrics.MetricInitializeRecorderFailures)
		a.GetLogger().Warn("failed to record submission",
			"signature", outcome.Signature,
			"status", outcome.Status,
			"error", err,
		)
	}
}
