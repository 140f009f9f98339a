package program

import (
	"fmt"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/programs/system"

	agoraerrors "github.com/lugondev/go-agora/internal/errors"
	"github.com/lugondev/go-agora/internal/governor"
)

type initializeAccounts struct {
	governor *AccountInfo
	admin    *AccountInfo
	manager  *AccountInfo
	bump     uint8
}

// initialize creates the Governor record. Preconditions are checked in order:
// address, initialization state, then payer authority and balance.
func (p *Program) initialize(ctx InvokeContext, ix *Instruction) error {
	args, err := governor.DecodeInitializeArgs(ix.Data)
	if err != nil {
		return err
	}

	accounts, err := p.checkInitializeAddress(ix)
	if err != nil {
		return err
	}

	gov := accounts.governor
	if governor.IsInitialized(gov.Account, p.id) {
		return agoraerrors.AlreadyInitialized(gov.Key.String())
	}

	size := uint64(governor.LayoutSize())
	required := ctx.Rent().MinimumBalance(size)
	var shortfall uint64
	if gov.Lamports < required {
		shortfall = required - gov.Lamports
	}

	admin := accounts.admin
	if !admin.IsSigner {
		return agoraerrors.InsufficientAuthorityOrFunds(fmt.Sprintf("admin %s did not sign", admin.Key))
	}
	if !admin.IsWritable && shortfall > 0 {
		return agoraerrors.InsufficientAuthorityOrFunds(fmt.Sprintf("admin %s is not writable", admin.Key))
	}
	if admin.Lamports < shortfall {
		return agoraerrors.InsufficientAuthorityOrFunds(
			fmt.Sprintf("admin %s holds %d lamports, needs %d", admin.Key, admin.Lamports, shortfall))
	}

	if err := p.allocate(ctx, accounts, required, shortfall, size); err != nil {
		return err
	}

	data, err := governor.Encode(&governor.Governor{
		Admin:             admin.Key,
		Manager:           accounts.manager.Key,
		VotingDelay:       args.VotingDelay,
		VotingPeriod:      args.VotingPeriod,
		ProposalThreshold: args.ProposalThreshold,
		Bump:              accounts.bump,
	})
	if err != nil {
		return err
	}
	copy(gov.Data, data)

	p.GetLogger().Debug("governor initialized",
		"governor", gov.Key,
		"admin", admin.Key,
		"manager", accounts.manager.Key,
	)
	return nil
}

func (p *Program) checkInitializeAddress(ix *Instruction) (*initializeAccounts, error) {
	if len(ix.Accounts) < governor.InitializeAccountCount {
		return nil, agoraerrors.AddressMismatch(
			fmt.Sprintf("expected %d accounts, got %d", governor.InitializeAccountCount, len(ix.Accounts)))
	}

	sys := ix.Accounts[governor.AccountIndexSystemProgram]
	if !sys.Key.Equals(solana.SystemProgramID) {
		return nil, agoraerrors.AddressMismatch(fmt.Sprintf("%s is not the system program", sys.Key))
	}

	gov := ix.Accounts[governor.AccountIndexGovernor]
	admin := ix.Accounts[governor.AccountIndexAdmin]

	expected, bump, err := governor.DeriveAddress(p.id, admin.Key)
	if err != nil {
		return nil, agoraerrors.AddressMismatch(err.Error())
	}
	if !gov.Key.Equals(expected) {
		return nil, agoraerrors.AddressMismatch(
			fmt.Sprintf("governor %s is not derived from admin %s, expected %s", gov.Key, admin.Key, expected))
	}
	if !gov.IsWritable {
		return nil, agoraerrors.AddressMismatch(fmt.Sprintf("governor %s is not writable", gov.Key))
	}

	switch {
	case gov.Owner.Equals(solana.SystemProgramID):
		if len(gov.Data) != 0 {
			return nil, agoraerrors.AddressMismatch(
				fmt.Sprintf("governor %s already holds %d bytes of system data", gov.Key, len(gov.Data)))
		}
	case gov.Owner.Equals(p.id):
		if len(gov.Data) != governor.LayoutSize() {
			return nil, agoraerrors.AddressMismatch(
				fmt.Sprintf("governor %s has size %d, expected %d", gov.Key, len(gov.Data), governor.LayoutSize()))
		}
	default:
		return nil, agoraerrors.AddressMismatch(fmt.Sprintf("governor %s is owned by %s", gov.Key, gov.Owner))
	}

	return &initializeAccounts{
		governor: gov,
		admin:    admin,
		manager:  ix.Accounts[governor.AccountIndexManager],
		bump:     bump,
	}, nil
}

// allocate funds, sizes and assigns the governor through the system program.
// Accounts already owned by the program are only topped up.
func (p *Program) allocate(ctx InvokeContext, accounts *initializeAccounts, required, shortfall, size uint64) error {
	gov := accounts.governor
	if gov.Owner.Equals(p.id) {
		if shortfall == 0 {
			return nil
		}
		return ctx.InvokeSigned(system.NewTransferInstruction(shortfall, accounts.admin.Key, gov.Key).Build())
	}

	seeds := append(governor.Seeds(accounts.admin.Key), []byte{accounts.bump})

	if gov.Lamports == 0 {
		ix := system.NewCreateAccountInstruction(required, size, p.id, accounts.admin.Key, gov.Key).Build()
		return ctx.InvokeSigned(ix, seeds)
	}

	// Pre-funded address: top up, then allocate and assign.
	var ixs []solana.Instruction
	if shortfall > 0 {
		ixs = append(ixs, system.NewTransferInstruction(shortfall, accounts.admin.Key, gov.Key).Build())
	}
	ixs = append(ixs,
		system.NewAllocateInstruction(size, gov.Key).Build(),
		system.NewAssignInstruction(p.id, gov.Key).Build(),
	)
	for _, ix := range ixs {
		if err := ctx.InvokeSigned(ix, seeds); err != nil {
			return err
		}
	}
	return nil
}
