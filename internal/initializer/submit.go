package initializer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/google/uuid"

	agoraerrors "github.com/lugondev/go-agora/internal/errors"
	"github.com/lugondev/go-agora/internal/governor"
	"github.com/lugondev/go-agora/internal/metrics"
	"github.com/lugondev/go-agora/pkg/types"
)

// initializeIndex is the position of the initialize instruction in the
// submitted transaction.
const initializeIndex = 0

// MemoPrefix starts the memo attached to every submission. The memo carries
// the submission id, so two calls with equal parameters never produce the
// same transaction signature.
const MemoPrefix = "agora:initialize:"

// SubmitInitialize initializes the governor of the signer. The transaction is
// sent once and never resent; the call returns when the configured commitment
// is reached, the ledger reports a failure, or the confirmation timeout or ctx
// expires.
//
// The returned signature is zero when the transaction was rejected before the
// ledger accepted it. With UnknownOutcome it is the signature to look up.
func (a *Adapter) SubmitInitialize(ctx context.Context, params Params) (solana.Signature, error) {
	start := time.Now()
	admin := a.signer.PublicKey()
	a.count(ctx, metrics.MetricInitializeSubmitted)

	address, err := a.Address()
	if err != nil {
		return a.finish(ctx, start, &Outcome{ID: uuid.New(), Admin: admin}, err)
	}
	outcome := &Outcome{ID: uuid.New(), Governor: address, Admin: admin}

	tx, err := a.buildTransaction(ctx, outcome.ID, address, params)
	if err != nil {
		return a.finish(ctx, start, outcome, err)
	}
	outcome.Signature = tx.Signatures[0]

	logger := a.GetLogger().With("governor", address, "signature", outcome.Signature)
	logger.Debug("submitting initialize")

	if _, err := a.ledger.SendTransaction(ctx, tx); err != nil {
		err = a.sendError(outcome.Signature, address, err)
		if !agoraerrors.RequiresRequery(err) {
			// Rejected before acceptance; the signature names nothing on the ledger.
			outcome.Signature = solana.Signature{}
		}
		return a.finish(ctx, start, outcome, err)
	}

	status, err := a.await(ctx, outcome.Signature)
	if status != nil {
		outcome.Slot = status.Slot
	}
	if err == nil && status.Err != nil {
		err = mapTransactionError(status.Err, address)
	}
	return a.finish(ctx, start, outcome, err)
}

func (a *Adapter) buildTransaction(ctx context.Context, id uuid.UUID, address solana.PublicKey, params Params) (*solana.Transaction, error) {
	admin := a.signer.PublicKey()

	ix, err := governor.NewInitializeInstruction(a.cfg.ProgramID, governor.InitializeAccounts{
		Governor: address,
		Admin:    admin,
		Manager:  params.Manager,
	}, governor.InitializeArgs{
		VotingDelay:       params.VotingDelay,
		VotingPeriod:      params.VotingPeriod,
		ProposalThreshold: params.ProposalThreshold,
	})
	if err != nil {
		return nil, agoraerrors.InvalidInstructionData(err.Error())
	}

	blockhash, err := a.ledger.LatestBlockhash(ctx)
	if err != nil {
		return nil, agoraerrors.SubmissionFailed("failed to get recent blockhash", err)
	}

	memo := solana.NewInstruction(
		solana.MemoProgramID,
		solana.AccountMetaSlice{solana.NewAccountMeta(admin, false, true)},
		[]byte(MemoPrefix+id.String()),
	)

	tx, err := solana.NewTransaction([]solana.Instruction{ix, memo}, blockhash, solana.TransactionPayer(admin))
	if err != nil {
		return nil, agoraerrors.SubmissionFailed("failed to build transaction", err)
	}
	if err := a.signer.SignTransaction(tx); err != nil {
		return nil, agoraerrors.InsufficientAuthorityOrFunds("signer could not sign").WithCause(err)
	}
	if len(tx.Signatures) == 0 {
		return nil, agoraerrors.InsufficientAuthorityOrFunds("transaction carries no signatures")
	}
	return tx, nil
}

// sendError maps a failed SendTransaction. Once the request may have reached
// the ledger only a cancellation leaves the outcome open.
func (a *Adapter) sendError(sig solana.Signature, address solana.PublicKey, err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return agoraerrors.UnknownOutcome(sig.String(), err)
	}
	var txErr *types.TransactionError
	if errors.As(err, &txErr) {
		return mapTransactionError(txErr, address)
	}
	return agoraerrors.SubmissionFailed("failed to send transaction", err)
}

// await polls the status of sig until it reaches the configured commitment or
// fails. A nil error with a non-nil status.Err means the transaction executed
// and failed.
func (a *Adapter) await(ctx context.Context, sig solana.Signature) (*types.SignatureStatus, error) {
	ctx, cancel := context.WithTimeout(ctx, a.cfg.ConfirmationTimeout)
	defer cancel()

	ticker := time.NewTicker(a.cfg.PollInterval)
	defer ticker.Stop()

	var lastErr error
	var last *types.SignatureStatus
	for {
		a.count(ctx, metrics.MetricInitializeStatusPolls)

		status, err := a.ledger.SignatureStatus(ctx, sig)
		switch {
		case err != nil:
			lastErr = err
			a.GetLogger().Debug("signature status query failed", "signature", sig, "error", err)
		case status != nil:
			last = status
			if status.Err != nil || status.Reached(a.cfg.Commitment) {
				return status, nil
			}
		}

		select {
		case <-ctx.Done():
			cause := ctx.Err()
			if lastErr != nil {
				cause = errors.Join(cause, lastErr)
			}
			return last, agoraerrors.UnknownOutcome(sig.String(), cause)
		case <-ticker.C:
		}
	}
}

// mapTransactionError translates a ledger-reported failure into the error
// taxonomy.
func mapTransactionError(txErr *types.TransactionError, address solana.PublicKey) error {
	if ie := txErr.Instruction; ie != nil {
		if custom := ie.CustomError(); custom != nil && ie.Index == initializeIndex {
			return governor.ErrorFromCode(uint32(*custom), address.String())
		}
		switch ie.ErrorKey() {
		case types.InstructionErrorMissingRequiredSignature, types.InstructionErrorInsufficientFunds:
			return agoraerrors.InsufficientAuthorityOrFunds(ie.Error()).WithCause(txErr)
		}
		return agoraerrors.SubmissionFailed("instruction failed", txErr)
	}

	switch txErr.Key {
	case types.TransactionErrorSignatureFailure,
		types.TransactionErrorMissingSignatureForFee,
		types.TransactionErrorInsufficientFundsForFee,
		types.TransactionErrorAccountNotFound:
		return agoraerrors.InsufficientAuthorityOrFunds(string(txErr.Key)).WithCause(txErr)
	}
	return agoraerrors.SubmissionFailed(fmt.Sprintf("ledger rejected transaction: %s", txErr.Key), txErr)
}

// finish reports the outcome of one SubmitInitialize call.
func (a *Adapter) finish(ctx context.Context, start time.Time, outcome *Outcome, err error) (solana.Signature, error) {
	outcome.Duration = time.Since(start)
	outcome.ErrorCode = agoraerrors.CodeOf(err)

	logger := a.GetLogger().With("governor", outcome.Governor, "signature", outcome.Signature)
	switch {
	case err == nil:
		outcome.Status = OutcomeSucceeded
		a.count(ctx, metrics.MetricInitializeSucceeded)
		if err := a.metrics.RecordHistogram(ctx, metrics.MetricInitializeConfirmationMillis, float64(outcome.Duration.Milliseconds())); err != nil {
			logger.Debug("failed to record metric", "error", err)
		}
		logger.Info("governor initialized", "slot", outcome.Slot, "duration", outcome.Duration)
	case agoraerrors.RequiresRequery(err):
		outcome.Status = OutcomeUnknown
		a.count(ctx, metrics.MetricInitializeUnknownOutcome)
		logger.Warn("initialize outcome unknown", "error", err)
	default:
		outcome.Status = OutcomeFailed
		a.count(ctx, metrics.MetricInitializeFailed)
		logger.Info("initialize failed", "code", outcome.ErrorCode, "error", err)
	}

	a.record(outcome)
	return outcome.Signature, err
}

func (a *Adapter) count(ctx context.Context, name string) {
	if err := a.metrics.IncrementCounter(ctx, name, 1); err != nil {
		a.GetLogger().Debug("failed to update metric", "name", name, "error", err)
	}
}
