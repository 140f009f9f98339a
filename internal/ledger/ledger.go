// Package ledger implements an in-process ledger for running the governor
// program without a cluster.
//
// The ledger keeps an account store, a queue of recent blockhashes and a slot
// clock. Every state transition happens under a single commit lock, so
// transactions touching the same address are linearized. Transactions execute
// against working copies of their accounts; the copies are committed only when
// every instruction succeeds.
package ledger

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"

	"github.com/lugondev/go-agora/internal/common"
	"github.com/lugondev/go-agora/internal/metrics"
	"github.com/lugondev/go-agora/internal/program"
	"github.com/lugondev/go-agora/pkg/types"
)

// NativeLoaderID owns builtin programs.
var NativeLoaderID = solana.MustPublicKeyFromBase58("NativeLoader1111111111111111111111111111111")

// ErrTransactionNotFound is returned for signatures the ledger has not processed.
var ErrTransactionNotFound = errors.New("transaction not found")

// Program is an executable registered with the ledger.
type Program interface {
	ID() solana.PublicKey
	Process(ctx program.InvokeContext, ix *program.Instruction) error

	// ErrorCode returns the custom error code reported for err.
	ErrorCode(err error) (uint32, bool)
}

// Config holds ledger parameters.
type Config struct {
	// FinalityDepth is the number of slots after which a transaction is
	// finalized. Zero finalizes in the slot it was processed.
	FinalityDepth uint64

	// ConfirmationDepth is the number of slots after which a transaction is
	// confirmed.
	ConfirmationDepth uint64

	// LamportsPerSignature is the fee charged per transaction signature.
	LamportsPerSignature uint64

	// BlockhashQueueSize is the number of recent blockhashes accepted.
	BlockhashQueueSize int

	// SlotInterval is the tick period of Run.
	SlotInterval time.Duration

	Rent program.Rent
}

// DefaultConfig returns mainnet-like ledger parameters.
func DefaultConfig() Config {
	return Config{
		FinalityDepth:        32,
		ConfirmationDepth:    1,
		LamportsPerSignature: 5000,
		BlockhashQueueSize:   150,
		SlotInterval:         400 * time.Millisecond,
		Rent:                 program.DefaultRent,
	}
}

type record struct {
	slot uint64
	err  *types.TransactionError
	logs []string
}

// Ledger is an in-process ledger.
type Ledger struct {
	common.LoggerMixin

	cfg     Config
	metrics metrics.Metrics

	mu          sync.Mutex
	slot        uint64
	accounts    map[solana.PublicKey]*types.Account
	programs    map[solana.PublicKey]Program
	blockhashes []solana.Hash
	records     map[solana.Signature]*record
}

var _ common.Loggable = (*Ledger)(nil)

// Option configures a Ledger.
type Option func(*Ledger)

// WithLogger sets the ledger logger.
func WithLogger(logger *slog.Logger) Option {
	return func(l *Ledger) {
		l.SetLogger(logger)
	}
}

// WithMetrics reports the slot gauge to m while Run is active.
func WithMetrics(m metrics.Metrics) Option {
	return func(l *Ledger) {
		if m != nil {
			l.metrics = m
		}
	}
}

// WithProgram deploys p at genesis.
func WithProgram(p Program) Option {
	return func(l *Ledger) {
		l.deploy(p)
	}
}

// New creates a ledger at slot 0.
func New(cfg Config, opts ...Option) *Ledger {
	if cfg.BlockhashQueueSize <= 0 {
		cfg.BlockhashQueueSize = DefaultConfig().BlockhashQueueSize
	}
	if cfg.Rent == (program.Rent{}) {
		cfg.Rent = program.DefaultRent
	}

	l := &Ledger{
		LoggerMixin: common.NewLoggerMixin(),
		cfg:         cfg,
		metrics:     metrics.NewNoopMetrics(),
		accounts:    make(map[solana.PublicKey]*types.Account),
		programs:    make(map[solana.PublicKey]Program),
		records:     make(map[solana.Signature]*record),
	}
	for _, id := range []solana.PublicKey{solana.SystemProgramID, solana.MemoProgramID} {
		l.accounts[id] = &types.Account{
			Lamports:   1,
			Owner:      NativeLoaderID,
			Executable: true,
		}
	}
	l.blockhashes = append(l.blockhashes, nextBlockhash(solana.Hash{}, 0))

	for _, opt := range opts {
		opt(l)
	}
	return l
}

func (l *Ledger) deploy(p Program) {
	l.programs[p.ID()] = p
	l.accounts[p.ID()] = &types.Account{
		Lamports:   1,
		Owner:      solana.BPFLoaderUpgradeableProgramID,
		Executable: true,
	}
}

// Rent returns the ledger's rent parameters.
func (l *Ledger) Rent() program.Rent {
	return l.cfg.Rent
}

// Slot returns the current slot.
func (l *Ledger) Slot() uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.slot
}

// Airdrop credits lamports to address, creating a system account if needed.
func (l *Ledger) Airdrop(address solana.PublicKey, lamports uint64) {
	l.mu.Lock()
	defer l.mu.Unlock()

	acc, ok := l.accounts[address]
	if !ok {
		acc = &types.Account{Owner: solana.SystemProgramID}
		l.accounts[address] = acc
	}
	acc.Lamports += lamports
}

// SetAccount replaces the account stored at address. Nil removes it.
func (l *Ledger) SetAccount(address solana.PublicKey, account *types.Account) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if account.IsEmpty() {
		delete(l.accounts, address)
		return
	}
	l.accounts[address] = account.Clone()
}

// Advance produces n slots, each with a new blockhash.
func (l *Ledger) Advance(n int) {
	l.mu.Lock()
	defer l.mu.Unlock()

	for i := 0; i < n; i++ {
		l.slot++
		last := l.blockhashes[len(l.blockhashes)-1]
		l.blockhashes = append(l.blockhashes, nextBlockhash(last, l.slot))
		if len(l.blockhashes) > l.cfg.BlockhashQueueSize {
			l.blockhashes = l.blockhashes[1:]
		}
	}
}

// Run advances one slot per SlotInterval until ctx is done.
func (l *Ledger) Run(ctx context.Context) error {
	interval := l.cfg.SlotInterval
	if interval <= 0 {
		interval = DefaultConfig().SlotInterval
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	l.GetLogger().Debug("ledger slot clock started", "interval", interval)
	for {
		select {
		case <-ctx.Done():
			l.GetLogger().Debug("ledger slot clock stopped", "slot", l.Slot())
			return nil
		case <-ticker.C:
			l.Advance(1)
			if err := l.metrics.UpdateGauge(ctx, metrics.MetricLedgerSlot, float64(l.Slot())); err != nil {
				l.GetLogger().Debug("failed to update slot gauge", "error", err)
			}
		}
	}
}

// LatestBlockhash returns the most recent blockhash.
func (l *Ledger) LatestBlockhash(ctx context.Context) (solana.Hash, error) {
	if err := ctx.Err(); err != nil {
		return solana.Hash{}, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	return l.blockhashes[len(l.blockhashes)-1], nil
}

// AccountInfo returns a copy of the account at address, or nil if it does not
// exist.
func (l *Ledger) AccountInfo(ctx context.Context, address solana.PublicKey) (*types.Account, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	return l.accounts[address].Clone(), nil
}

// SignatureStatus returns the status of sig, or nil if it is unknown.
func (l *Ledger) SignatureStatus(ctx context.Context, sig solana.Signature) (*types.SignatureStatus, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	rec, ok := l.records[sig]
	if !ok {
		return nil, nil
	}

	depth := l.slot - rec.slot
	status := &types.SignatureStatus{
		Slot: rec.slot,
		Err:  rec.err,
	}
	switch {
	case depth >= l.cfg.FinalityDepth:
		status.ConfirmationStatus = rpc.ConfirmationStatusFinalized
	case depth >= l.cfg.ConfirmationDepth:
		status.ConfirmationStatus = rpc.ConfirmationStatusConfirmed
		status.Confirmations = &depth
	default:
		status.ConfirmationStatus = rpc.ConfirmationStatusProcessed
		status.Confirmations = &depth
	}
	return status, nil
}

// TransactionLogs returns the log messages of a processed transaction.
func (l *Ledger) TransactionLogs(ctx context.Context, sig solana.Signature) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	rec, ok := l.records[sig]
	if !ok {
		return nil, ErrTransactionNotFound
	}
	logs := make([]string, len(rec.logs))
	copy(logs, rec.logs)
	return logs, nil
}

func nextBlockhash(prev solana.Hash, slot uint64) solana.Hash {
	var buf [solana.PublicKeyLength + 8]byte
	copy(buf[:], prev[:])
	binary.LittleEndian.PutUint64(buf[solana.PublicKeyLength:], slot)
	return solana.Hash(sha256.Sum256(buf[:]))
}
