package initializer_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	agoraerrors "github.com/lugondev/go-agora/internal/errors"
	"github.com/lugondev/go-agora/internal/governor"
	"github.com/lugondev/go-agora/internal/initializer"
	"github.com/lugondev/go-agora/internal/ledger"
	"github.com/lugondev/go-agora/internal/metrics"
	"github.com/lugondev/go-agora/internal/program"
	agorasolana "github.com/lugondev/go-agora/internal/solana"
	"github.com/lugondev/go-agora/pkg/types"
)

var programID = solana.MustPublicKeyFromBase58("4pUwRrB9eVJLfYboBV4Xj6dB7HSuaGJri39B14bYxhVX")

var params = initializer.Params{
	Manager:           solana.MustPublicKeyFromBase58("11111111111111111111111111111112"),
	VotingDelay:       10,
	VotingPeriod:      100,
	ProposalThreshold: 1_000,
}

func testConfig() initializer.Config {
	return initializer.Config{
		ProgramID:           programID,
		Commitment:          rpc.CommitmentFinalized,
		ConfirmationTimeout: 2 * time.Second,
		PollInterval:        time.Millisecond,
	}
}

// newLedger returns a ledger that finalizes in the processing slot.
func newLedger() *ledger.Ledger {
	cfg := ledger.DefaultConfig()
	cfg.FinalityDepth = 0
	cfg.ConfirmationDepth = 0
	return ledger.New(cfg, ledger.WithProgram(program.New(programID)))
}

func fundedWallet(l *ledger.Ledger) *agorasolana.Wallet {
	w := agorasolana.NewWallet()
	l.Airdrop(w.PublicKey(), solana.LAMPORTS_PER_SOL)
	return w
}

func newAdapter(t *testing.T, l initializer.Ledger, signer initializer.Signer, opts ...initializer.Option) *initializer.Adapter {
	t.Helper()
	a, err := initializer.New(testConfig(), l, signer, opts...)
	require.NoError(t, err)
	return a
}

func governorData(t *testing.T, l *ledger.Ledger, address solana.PublicKey) []byte {
	t.Helper()
	acc, err := l.AccountInfo(context.Background(), address)
	require.NoError(t, err)
	if acc == nil {
		return nil
	}
	return acc.Data
}

func TestSubmitInitializeThenIsInitialized(t *testing.T) {
	ctx := context.Background()
	l := newLedger()
	w := fundedWallet(l)
	a := newAdapter(t, l, w)

	address, err := a.Address()
	require.NoError(t, err)

	ok, err := a.IsInitialized(ctx, address)
	require.NoError(t, err)
	assert.False(t, ok)

	sig, err := a.SubmitInitialize(ctx, params)
	require.NoError(t, err)
	assert.False(t, sig.IsZero())

	ok, err = a.IsInitialized(ctx, address)
	require.NoError(t, err)
	assert.True(t, ok)

	gov, err := a.Fetch(ctx, address)
	require.NoError(t, err)
	assert.Equal(t, w.PublicKey(), gov.Admin)
	assert.Equal(t, params.Manager, gov.Manager)
	assert.Equal(t, params.VotingDelay, gov.VotingDelay)
	assert.Equal(t, params.VotingPeriod, gov.VotingPeriod)
	assert.Equal(t, params.ProposalThreshold, gov.ProposalThreshold)
	assert.Zero(t, gov.ProposalCount)
	assert.Empty(t, gov.ProposalTypes)
}

func TestSecondSubmitAlreadyInitialized(t *testing.T) {
	ctx := context.Background()
	l := newLedger()
	a := newAdapter(t, l, fundedWallet(l))
	address, err := a.Address()
	require.NoError(t, err)

	_, err = a.SubmitInitialize(ctx, params)
	require.NoError(t, err)
	before := governorData(t, l, address)

	changed := params
	changed.VotingDelay = 99
	sig, err := a.SubmitInitialize(ctx, changed)
	require.Error(t, err)
	assert.ErrorIs(t, err, agoraerrors.ErrAlreadyInitialized)
	assert.False(t, sig.IsZero())
	assert.False(t, agoraerrors.RequiresRequery(err))

	assert.Equal(t, before, governorData(t, l, address))
}

func TestIsInitializedForeignRecords(t *testing.T) {
	ctx := context.Background()
	l := newLedger()
	a := newAdapter(t, l, fundedWallet(l))

	valid, err := governor.Encode(&governor.Governor{})
	require.NoError(t, err)

	tests := []struct {
		name    string
		account *types.Account
	}{
		{"missing", nil},
		{"system owned", &types.Account{Lamports: 1, Owner: solana.SystemProgramID}},
		{"foreign owner", &types.Account{Lamports: 1, Owner: solana.TokenProgramID, Data: valid}},
		{"short data", &types.Account{Lamports: 1, Owner: programID, Data: valid[:3]}},
		{"wrong discriminator", &types.Account{Lamports: 1, Owner: programID, Data: make([]byte, governor.LayoutSize())}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			address := solana.NewWallet().PublicKey()
			l.SetAccount(address, tt.account)

			ok, err := a.IsInitialized(ctx, address)
			require.NoError(t, err)
			assert.False(t, ok)

			_, err = a.Fetch(ctx, address)
			assert.ErrorIs(t, err, initializer.ErrNotInitialized)
		})
	}
}

func TestConcurrentSubmitLinearized(t *testing.T) {
	ctx := context.Background()
	l := newLedger()
	w := fundedWallet(l)

	const n = 2
	adapters := make([]*initializer.Adapter, n)
	for i := range adapters {
		adapters[i] = newAdapter(t, l, w)
	}

	errs := make([]error, n)
	var g errgroup.Group
	for i, a := range adapters {
		i, a := i, a
		g.Go(func() error {
			_, errs[i] = a.SubmitInitialize(ctx, params)
			return nil
		})
	}
	require.NoError(t, g.Wait())

	var succeeded, rejected int
	for _, err := range errs {
		switch {
		case err == nil:
			succeeded++
		case errors.Is(err, agoraerrors.ErrAlreadyInitialized):
			rejected++
		default:
			t.Errorf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, succeeded)
	assert.Equal(t, 1, rejected)
}

// unsignedWallet claims the admin key but never signs.
type unsignedWallet struct {
	key solana.PublicKey
}

func (u unsignedWallet) PublicKey() solana.PublicKey { return u.key }

func (u unsignedWallet) SignTransaction(tx *solana.Transaction) error {
	_, err := tx.PartialSign(func(solana.PublicKey) *solana.PrivateKey { return nil })
	return err
}

// failingWallet cannot sign at all.
type failingWallet struct {
	key solana.PublicKey
}

func (f failingWallet) PublicKey() solana.PublicKey { return f.key }

func (f failingWallet) SignTransaction(*solana.Transaction) error {
	return errors.New("hardware wallet disconnected")
}

func TestUnauthorizedPayer(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name   string
		signer func(l *ledger.Ledger) initializer.Signer
	}{
		{
			name: "missing signature",
			signer: func(l *ledger.Ledger) initializer.Signer {
				return unsignedWallet{key: fundedWallet(l).PublicKey()}
			},
		},
		{
			name: "signer error",
			signer: func(l *ledger.Ledger) initializer.Signer {
				return failingWallet{key: fundedWallet(l).PublicKey()}
			},
		},
		{
			name: "unfunded payer",
			signer: func(l *ledger.Ledger) initializer.Signer {
				return agorasolana.NewWallet()
			},
		},
		{
			name: "cannot cover rent",
			signer: func(l *ledger.Ledger) initializer.Signer {
				w := agorasolana.NewWallet()
				rent := l.Rent().MinimumBalance(uint64(governor.LayoutSize()))
				l.Airdrop(w.PublicKey(), 5000+rent-1)
				return w
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := newLedger()
			a := newAdapter(t, l, tt.signer(l))
			address, err := a.Address()
			require.NoError(t, err)

			_, err = a.SubmitInitialize(ctx, params)
			require.Error(t, err)
			assert.ErrorIs(t, err, agoraerrors.ErrInsufficientAuthorityOrFunds)

			acc, err := l.AccountInfo(ctx, address)
			require.NoError(t, err)
			assert.Nil(t, acc)
		})
	}
}

// The ledger never advances, so a finalized commitment is never reached.
func TestTimeoutIsUnknownOutcome(t *testing.T) {
	ctx := context.Background()
	l := ledger.New(ledger.DefaultConfig(), ledger.WithProgram(program.New(programID)))
	w := fundedWallet(l)

	cfg := testConfig()
	cfg.ConfirmationTimeout = 20 * time.Millisecond
	m := metrics.NewLogMetrics(nil)
	a, err := initializer.New(cfg, l, w, initializer.WithMetrics(m))
	require.NoError(t, err)

	sig, err := a.SubmitInitialize(ctx, params)
	require.Error(t, err)
	assert.ErrorIs(t, err, agoraerrors.ErrUnknownOutcome)
	assert.True(t, agoraerrors.RequiresRequery(err))
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.False(t, sig.IsZero())
	assert.Equal(t, uint64(1), m.Counter(metrics.MetricInitializeUnknownOutcome))

	// The transaction was processed; a re-query shows it.
	address, err := a.Address()
	require.NoError(t, err)
	ok, err := a.IsInitialized(ctx, address)
	require.NoError(t, err)
	assert.True(t, ok)
}

// faultyLedger injects failures into an in-process ledger.
type faultyLedger struct {
	*ledger.Ledger

	sendErr   error
	sends     int
	blockhash *solana.Hash
	mu        sync.Mutex
}

func (f *faultyLedger) SendTransaction(ctx context.Context, tx *solana.Transaction) (solana.Signature, error) {
	f.mu.Lock()
	f.sends++
	f.mu.Unlock()
	if f.sendErr != nil {
		return solana.Signature{}, f.sendErr
	}
	return f.Ledger.SendTransaction(ctx, tx)
}

func (f *faultyLedger) LatestBlockhash(ctx context.Context) (solana.Hash, error) {
	if f.blockhash != nil {
		return *f.blockhash, nil
	}
	return f.Ledger.LatestBlockhash(ctx)
}

func TestSendFailures(t *testing.T) {
	stale := solana.Hash{9}

	tests := []struct {
		name     string
		ledger   func(l *ledger.Ledger) *faultyLedger
		expected error
		// accepted is true when the ledger may hold the transaction, so the
		// signature must be returned for a status lookup.
		accepted bool
	}{
		{
			name: "transport error",
			ledger: func(l *ledger.Ledger) *faultyLedger {
				return &faultyLedger{Ledger: l, sendErr: errors.New("connection reset by peer")}
			},
			expected: agoraerrors.ErrSubmissionFailed,
		},
		{
			name: "blockhash not found",
			ledger: func(l *ledger.Ledger) *faultyLedger {
				return &faultyLedger{Ledger: l, blockhash: &stale}
			},
			expected: agoraerrors.ErrSubmissionFailed,
		},
		{
			name: "preflight rejected",
			ledger: func(l *ledger.Ledger) *faultyLedger {
				return &faultyLedger{Ledger: l, sendErr: types.NewInstructionError(0, types.CustomError(governor.ErrorCodeAlreadyInitialized))}
			},
			expected: agoraerrors.ErrAlreadyInitialized,
		},
		{
			name: "cancelled in flight",
			ledger: func(l *ledger.Ledger) *faultyLedger {
				return &faultyLedger{Ledger: l, sendErr: context.Canceled}
			},
			expected: agoraerrors.ErrUnknownOutcome,
			accepted: true,
		},
		{
			name: "deadline in flight",
			ledger: func(l *ledger.Ledger) *faultyLedger {
				return &faultyLedger{Ledger: l, sendErr: context.DeadlineExceeded}
			},
			expected: agoraerrors.ErrUnknownOutcome,
			accepted: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := newLedger()
			fl := tt.ledger(l)
			a := newAdapter(t, fl, fundedWallet(l))

			sig, err := a.SubmitInitialize(context.Background(), params)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.expected)
			assert.Equal(t, 1, fl.sends)
			assert.Equal(t, tt.accepted, !sig.IsZero(), "signature %s", sig)
		})
	}
}

func TestRecorderAndMetrics(t *testing.T) {
	ctx := context.Background()
	l := newLedger()
	w := fundedWallet(l)

	var mu sync.Mutex
	var outcomes []*initializer.Outcome
	recorder := initializer.RecorderFunc(func(ctx context.Context, o *initializer.Outcome) error {
		mu.Lock()
		defer mu.Unlock()
		outcomes = append(outcomes, o)
		return nil
	})

	m := metrics.NewLogMetrics(nil)
	a := newAdapter(t, l, w, initializer.WithRecorder(recorder), initializer.WithMetrics(m))

	sig, err := a.SubmitInitialize(ctx, params)
	require.NoError(t, err)
	_, err = a.SubmitInitialize(ctx, params)
	require.Error(t, err)

	require.Len(t, outcomes, 2)
	assert.Equal(t, initializer.OutcomeSucceeded, outcomes[0].Status)
	assert.Equal(t, sig, outcomes[0].Signature)
	assert.Equal(t, w.PublicKey(), outcomes[0].Admin)
	assert.Empty(t, outcomes[0].ErrorCode)
	assert.Equal(t, initializer.OutcomeFailed, outcomes[1].Status)
	assert.Equal(t, agoraerrors.ErrCodeAlreadyInitialized, outcomes[1].ErrorCode)
	assert.NotEqual(t, outcomes[0].ID, outcomes[1].ID)

	assert.Equal(t, uint64(2), m.Counter(metrics.MetricInitializeSubmitted))
	assert.Equal(t, uint64(1), m.Counter(metrics.MetricInitializeSucceeded))
	assert.Equal(t, uint64(1), m.Counter(metrics.MetricInitializeFailed))
	assert.Equal(t, 1, m.Observations(metrics.MetricInitializeConfirmationMillis))
}

func TestRecorderFailureDoesNotChangeResult(t *testing.T) {
	l := newLedger()
	m := metrics.NewLogMetrics(nil)
	recorder := initializer.RecorderFunc(func(context.Context, *initializer.Outcome) error {
		return errors.New("database unavailable")
	})
	a := newAdapter(t, l, fundedWallet(l), initializer.WithRecorder(recorder), initializer.WithMetrics(m))

	_, err := a.SubmitInitialize(context.Background(), params)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), m.Counter(metrics.MetricInitializeRecorderFailures))
}

func TestExecutionLog(t *testing.T) {
	ctx := context.Background()
	l := newLedger()
	a := newAdapter(t, l, fundedWallet(l))

	sig, err := a.SubmitInitialize(ctx, params)
	require.NoError(t, err)

	invocations, err := a.ExecutionLog(ctx, sig)
	require.NoError(t, err)
	require.Len(t, invocations, 2)

	init := invocations[0]
	assert.Equal(t, programID.String(), init.ProgramID)
	assert.Equal(t, "Initialize", init.Instruction())
	assert.True(t, init.Succeeded)
	require.Len(t, init.Inner, 1)
	assert.Equal(t, solana.SystemProgramID.String(), init.Inner[0].ProgramID)

	memo := invocations[1]
	assert.Equal(t, solana.MemoProgramID.String(), memo.ProgramID)
	require.Len(t, memo.Messages, 1)
	assert.True(t, strings.Contains(memo.Messages[0], initializer.MemoPrefix))
}

func TestNewValidatesConfig(t *testing.T) {
	l := newLedger()
	w := agorasolana.NewWallet()

	tests := []struct {
		name   string
		mutate func(c *initializer.Config)
	}{
		{"missing program", func(c *initializer.Config) { c.ProgramID = solana.PublicKey{} }},
		{"unknown commitment", func(c *initializer.Config) { c.Commitment = "recent" }},
		{"zero timeout", func(c *initializer.Config) { c.ConfirmationTimeout = 0 }},
		{"zero poll interval", func(c *initializer.Config) { c.PollInterval = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig()
			tt.mutate(&cfg)
			_, err := initializer.New(cfg, l, w)
			assert.Error(t, err)
		})
	}

	_, err := initializer.New(testConfig(), nil, w)
	assert.Error(t, err)
}
