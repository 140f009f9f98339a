// Package initializer submits governor initialization and reports its outcome.
//
// An Adapter builds the initialize instruction for the governor derived from
// its signer, submits it exactly once and waits for the configured commitment.
// Every failure is mapped to the error taxonomy of internal/errors:
//
//	AddressMismatch               the program rejected the target address
//	AlreadyInitialized            the governor already exists
//	InsufficientAuthorityOrFunds  missing signature or lamports
//	SubmissionFailed              the transaction never executed
//	UnknownOutcome                sent, but the result was not observed
//
// After UnknownOutcome the caller must re-read the governor with IsInitialized
// before deciding to submit again.
package initializer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"

	"github.com/lugondev/go-agora/internal/common"
	agoraerrors "github.com/lugondev/go-agora/internal/errors"
	"github.com/lugondev/go-agora/internal/governor"
	"github.com/lugondev/go-agora/internal/metrics"
	"github.com/lugondev/go-agora/pkg/log"
	"github.com/lugondev/go-agora/pkg/types"
)

// ErrNotInitialized is returned by Fetch for a governor that does not exist yet.
var ErrNotInitialized = errors.New("governor not initialized")

// Ledger is the ledger the adapter submits to.
type Ledger interface {
	LatestBlockhash(ctx context.Context) (solana.Hash, error)
	SendTransaction(ctx context.Context, tx *solana.Transaction) (solana.Signature, error)

	// SignatureStatus returns nil for signatures the ledger does not know.
	SignatureStatus(ctx context.Context, sig solana.Signature) (*types.SignatureStatus, error)

	// AccountInfo returns nil for accounts that do not exist.
	AccountInfo(ctx context.Context, address solana.PublicKey) (*types.Account, error)

	TransactionLogs(ctx context.Context, sig solana.Signature) ([]string, error)
}

// Signer signs on behalf of the governor admin.
type Signer interface {
	PublicKey() solana.PublicKey
	SignTransaction(tx *solana.Transaction) error
}

// Config holds the adapter settings.
type Config struct {
	ProgramID solana.PublicKey

	// Commitment is the level SubmitInitialize waits for.
	Commitment rpc.CommitmentType

	// ConfirmationTimeout bounds the wait after submission.
	ConfirmationTimeout time.Duration

	// PollInterval is the delay between signature status queries.
	PollInterval time.Duration
}

// DefaultConfig returns the settings used by the CLI.
func DefaultConfig(programID solana.PublicKey) Config {
	return Config{
		ProgramID:           programID,
		Commitment:          rpc.CommitmentConfirmed,
		ConfirmationTimeout: 30 * time.Second,
		PollInterval:        500 * time.Millisecond,
	}
}

// Validate checks the configuration.
func (c Config) Validate() error {
	if c.ProgramID.IsZero() {
		return errors.New("program id is required")
	}
	if types.CommitmentRank(c.Commitment) == 0 {
		return fmt.Errorf("unsupported commitment %q", c.Commitment)
	}
	if c.ConfirmationTimeout <= 0 {
		return errors.New("confirmation timeout must be positive")
	}
	if c.PollInterval <= 0 {
		return errors.New("poll interval must be positive")
	}
	return nil
}

// Params are the initialize arguments chosen by the caller.
type Params struct {
	Manager           solana.PublicKey
	VotingDelay       uint64
	VotingPeriod      uint64
	ProposalThreshold uint64
}

// Adapter submits initialize transactions.
type Adapter struct {
	common.LoggerMixin

	cfg      Config
	ledger   Ledger
	signer   Signer
	metrics  metrics.Metrics
	recorder Recorder
	parser   *log.LogParser
}

// Option configures an Adapter.
type Option func(*Adapter)

// WithLogger sets the adapter logger.
func WithLogger(logger *slog.Logger) Option {
	return func(a *Adapter) {
		a.SetLogger(logger)
	}
}

// WithMetrics sets the metrics backend.
func WithMetrics(m metrics.Metrics) Option {
	return func(a *Adapter) {
		if m != nil {
			a.metrics = m
		}
	}
}

// WithRecorder records every submission outcome.
func WithRecorder(r Recorder) Option {
	return func(a *Adapter) {
		a.recorder = r
	}
}

// New creates an adapter. The configuration is validated once here.
func New(cfg Config, ledger Ledger, signer Signer, opts ...Option) (*Adapter, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid initializer config: %w", err)
	}
	if ledger == nil || signer == nil {
		return nil, errors.New("ledger and signer are required")
	}

	a := &Adapter{
		LoggerMixin: common.NewLoggerMixin(),
		cfg:         cfg,
		ledger:      ledger,
		signer:      signer,
		metrics:     metrics.NewNoopMetrics(),
		parser:      log.NewParser(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a, nil
}

// Address returns the governor address derived from the signer.
func (a *Adapter) Address() (solana.PublicKey, error) {
	address, _, err := governor.DeriveAddress(a.cfg.ProgramID, a.signer.PublicKey())
	if err != nil {
		return solana.PublicKey{}, agoraerrors.AddressMismatch(err.Error())
	}
	return address, nil
}

// IsInitialized reports whether the governor at address has been initialized.
func (a *Adapter) IsInitialized(ctx context.Context, address solana.PublicKey) (bool, error) {
	acc, err := a.ledger.AccountInfo(ctx, address)
	if err != nil {
		return false, fmt.Errorf("failed to read %s: %w", address, err)
	}
	return governor.IsInitialized(acc, a.cfg.ProgramID), nil
}

// Fetch decodes the governor at address.
func (a *Adapter) Fetch(ctx context.Context, address solana.PublicKey) (*governor.Governor, error) {
	acc, err := a.ledger.AccountInfo(ctx, address)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", address, err)
	}
	if !governor.IsInitialized(acc, a.cfg.ProgramID) {
		return nil, ErrNotInitialized
	}
	return governor.DecodeAccount(acc, a.cfg.ProgramID)
}

// ExecutionLog returns the program invocations recorded for sig.
func (a *Adapter) ExecutionLog(ctx context.Context, sig solana.Signature) ([]*log.Invocation, error) {
	logs, err := a.ledger.TransactionLogs(ctx, sig)
	if err != nil {
		return nil, fmt.Errorf("failed to get logs of %s: %w", sig, err)
	}
	return a.parser.Build(logs)
}
