package program

import (
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/programs/system"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	agoraerrors "github.com/lugondev/go-agora/internal/errors"
	"github.com/lugondev/go-agora/internal/governor"
	"github.com/lugondev/go-agora/pkg/types"
)

var testProgramID = solana.MustPublicKeyFromBase58("4pUwRrB9eVJLfYboBV4Xj6dB7HSuaGJri39B14bYxhVX")

// fakeContext applies system CreateAccount invocations directly to the
// accounts it was given.
type fakeContext struct {
	accounts map[solana.PublicKey]*AccountInfo
	logs     []string
	invoked  []solana.Instruction
}

func (f *fakeContext) Log(msg string) { f.logs = append(f.logs, msg) }

func (f *fakeContext) Rent() Rent { return DefaultRent }

func (f *fakeContext) InvokeSigned(ix solana.Instruction, signerSeeds ...[][]byte) error {
	f.invoked = append(f.invoked, ix)

	data, err := ix.Data()
	if err != nil {
		return err
	}
	inst, err := system.DecodeInstruction(ix.Accounts(), data)
	if err != nil {
		return err
	}
	create, ok := inst.Impl.(*system.CreateAccount)
	if !ok {
		return nil
	}

	from := f.accounts[create.GetFundingAccount().PublicKey]
	to := f.accounts[create.GetNewAccount().PublicKey]
	from.Lamports -= *create.Lamports
	to.Lamports += *create.Lamports
	to.Data = make([]byte, *create.Space)
	to.Owner = *create.Owner
	return nil
}

type testAccounts struct {
	admin    solana.PublicKey
	governor *AccountInfo
	infos    []*AccountInfo
}

func newInstruction(t *testing.T, args governor.InitializeArgs) (*Instruction, *testAccounts, *fakeContext) {
	t.Helper()

	admin := solana.NewWallet().PublicKey()
	gov, _, err := governor.DeriveAddress(testProgramID, admin)
	require.NoError(t, err)

	data, err := governor.EncodeInitializeArgs(args)
	require.NoError(t, err)

	infos := []*AccountInfo{
		{Key: gov, IsWritable: true, Account: &types.Account{Owner: solana.SystemProgramID}},
		{Key: admin, IsSigner: true, IsWritable: true, Account: &types.Account{Owner: solana.SystemProgramID, Lamports: solana.LAMPORTS_PER_SOL}},
		{Key: solana.NewWallet().PublicKey(), Account: &types.Account{Owner: solana.SystemProgramID}},
		{Key: solana.SystemProgramID, Account: &types.Account{Executable: true}},
	}

	ctx := &fakeContext{accounts: make(map[solana.PublicKey]*AccountInfo)}
	for _, info := range infos {
		ctx.accounts[info.Key] = info
	}

	ix := &Instruction{ProgramID: testProgramID, Accounts: infos, Data: data}
	return ix, &testAccounts{admin: admin, governor: infos[0], infos: infos}, ctx
}

func TestProcessInitialize(t *testing.T) {
	p := New(testProgramID)
	ix, accounts, ctx := newInstruction(t, governor.InitializeArgs{VotingDelay: 3, VotingPeriod: 30, ProposalThreshold: 300})

	require.NoError(t, p.Process(ctx, ix))

	assert.Equal(t, []string{"Instruction: Initialize"}, ctx.logs)
	require.Len(t, ctx.invoked, 1)
	assert.Equal(t, solana.SystemProgramID, ctx.invoked[0].ProgramID())

	gov := accounts.governor
	assert.True(t, governor.IsInitialized(gov.Account, testProgramID))
	assert.Equal(t, DefaultRent.MinimumBalance(uint64(governor.LayoutSize())), gov.Lamports)

	v, err := governor.NewGovernorView(gov.Data)
	require.NoError(t, err)
	assert.Equal(t, accounts.admin, v.Admin())
	assert.Equal(t, uint64(300), v.ProposalThreshold())

	_, bump, err := governor.DeriveAddress(testProgramID, accounts.admin)
	require.NoError(t, err)
	assert.Equal(t, bump, v.Bump())
}

func TestProcessPreconditionOrder(t *testing.T) {
	initialized, err := governor.Encode(&governor.Governor{})
	require.NoError(t, err)

	tests := []struct {
		name     string
		mutate   func(a *testAccounts)
		expected error
	}{
		{
			name: "address checked before signer",
			mutate: func(a *testAccounts) {
				a.governor.Key = solana.NewWallet().PublicKey()
				a.infos[governor.AccountIndexAdmin].IsSigner = false
			},
			expected: agoraerrors.ErrAddressMismatch,
		},
		{
			name: "initialized checked before signer",
			mutate: func(a *testAccounts) {
				a.governor.Owner = testProgramID
				a.governor.Data = initialized
				a.infos[governor.AccountIndexAdmin].IsSigner = false
			},
			expected: agoraerrors.ErrAlreadyInitialized,
		},
		{
			name: "initialized checked before funds",
			mutate: func(a *testAccounts) {
				a.governor.Owner = testProgramID
				a.governor.Data = initialized
				a.infos[governor.AccountIndexAdmin].Lamports = 0
			},
			expected: agoraerrors.ErrAlreadyInitialized,
		},
		{
			name: "unsigned admin",
			mutate: func(a *testAccounts) {
				a.infos[governor.AccountIndexAdmin].IsSigner = false
			},
			expected: agoraerrors.ErrInsufficientAuthorityOrFunds,
		},
		{
			name: "underfunded admin",
			mutate: func(a *testAccounts) {
				a.infos[governor.AccountIndexAdmin].Lamports = 100
			},
			expected: agoraerrors.ErrInsufficientAuthorityOrFunds,
		},
		{
			name: "missing accounts",
			mutate: func(a *testAccounts) {
				a.infos = a.infos[:2]
			},
			expected: agoraerrors.ErrAddressMismatch,
		},
		{
			name: "read-only governor",
			mutate: func(a *testAccounts) {
				a.governor.IsWritable = false
			},
			expected: agoraerrors.ErrAddressMismatch,
		},
		{
			name: "system account with data",
			mutate: func(a *testAccounts) {
				a.governor.Data = []byte{1}
			},
			expected: agoraerrors.ErrAddressMismatch,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := New(testProgramID)
			ix, accounts, ctx := newInstruction(t, governor.InitializeArgs{})
			tt.mutate(accounts)
			ix.Accounts = accounts.infos

			err := p.Process(ctx, ix)
			assert.ErrorIs(t, err, tt.expected)
			assert.Empty(t, ctx.invoked)
		})
	}
}

func TestProcessTopsUpProgramOwnedAccount(t *testing.T) {
	p := New(testProgramID)
	ix, accounts, ctx := newInstruction(t, governor.InitializeArgs{})
	accounts.governor.Owner = testProgramID
	accounts.governor.Data = make([]byte, governor.LayoutSize())
	accounts.governor.Lamports = 10

	require.NoError(t, p.Process(ctx, ix))
	require.Len(t, ctx.invoked, 1)

	data, err := ctx.invoked[0].Data()
	require.NoError(t, err)
	inst, err := system.DecodeInstruction(ctx.invoked[0].Accounts(), data)
	require.NoError(t, err)
	transfer, ok := inst.Impl.(*system.Transfer)
	require.True(t, ok)
	assert.Equal(t, DefaultRent.MinimumBalance(uint64(governor.LayoutSize()))-10, *transfer.Lamports)
	assert.True(t, governor.IsInitialized(accounts.governor.Account, testProgramID))
}

func TestProcessRejectsUnknownInstruction(t *testing.T) {
	p := New(testProgramID)
	ix, _, ctx := newInstruction(t, governor.InitializeArgs{})

	ix.Data = []byte{1, 2, 3, 4, 5, 6, 7, 8}
	assert.ErrorIs(t, p.Process(ctx, ix), agoraerrors.ErrInvalidInstructionData)

	ix.Data = nil
	assert.ErrorIs(t, p.Process(ctx, ix), agoraerrors.ErrInvalidInstructionData)

	ix.ProgramID = solana.SystemProgramID
	assert.ErrorIs(t, p.Process(ctx, ix), agoraerrors.ErrInvalidInstructionData)
	assert.Empty(t, ctx.logs)
}

func TestErrorCode(t *testing.T) {
	p := New(testProgramID)

	code, ok := p.ErrorCode(agoraerrors.AlreadyInitialized("x"))
	assert.True(t, ok)
	assert.Equal(t, uint32(6001), code)

	_, ok = p.ErrorCode(agoraerrors.UnknownOutcome("sig", nil))
	assert.False(t, ok)
}

func TestRentMinimumBalance(t *testing.T) {
	assert.Equal(t, uint64(890_880), DefaultRent.MinimumBalance(0))
	assert.Equal(t, uint64(1_900_080), DefaultRent.MinimumBalance(145))
}
