package ledger

import (
	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/programs/system"

	"github.com/lugondev/go-agora/internal/program"
	"github.com/lugondev/go-agora/pkg/types"
)

// System program custom errors.
const (
	SystemErrorAccountAlreadyInUse        types.CustomError = 0
	SystemErrorResultWithNegativeLamports types.CustomError = 1
	SystemErrorInvalidAccountDataLength   types.CustomError = 3
)

const maxPermittedDataLength = 10 * 1024 * 1024

// executeSystem runs the subset of system program instructions the ledger
// supports: CreateAccount, Transfer, Allocate and Assign.
func executeSystem(accounts []*program.AccountInfo, data []byte) error {
	metas := make([]*solana.AccountMeta, len(accounts))
	for i, info := range accounts {
		metas[i] = solana.NewAccountMeta(info.Key, info.IsWritable, info.IsSigner)
	}

	inst, err := system.DecodeInstruction(metas, data)
	if err != nil {
		return types.InstructionErrorInvalidInstructionData
	}

	switch ix := inst.Impl.(type) {
	case *system.CreateAccount:
		if len(accounts) < 2 {
			return types.InstructionErrorNotEnoughAccountKeys
		}
		return createAccount(accounts[0], accounts[1], *ix.Lamports, *ix.Space, *ix.Owner)
	case *system.Transfer:
		if len(accounts) < 2 {
			return types.InstructionErrorNotEnoughAccountKeys
		}
		return transfer(accounts[0], accounts[1], *ix.Lamports)
	case *system.Allocate:
		if len(accounts) < 1 {
			return types.InstructionErrorNotEnoughAccountKeys
		}
		return allocate(accounts[0], *ix.Space)
	case *system.Assign:
		if len(accounts) < 1 {
			return types.InstructionErrorNotEnoughAccountKeys
		}
		return assign(accounts[0], *ix.Owner)
	default:
		return types.InstructionErrorInvalidInstructionData
	}
}

func createAccount(from, to *program.AccountInfo, lamports, space uint64, owner solana.PublicKey) error {
	if to.Lamports > 0 || len(to.Data) > 0 || !to.Owner.Equals(solana.SystemProgramID) {
		return SystemErrorAccountAlreadyInUse
	}
	if err := transfer(from, to, lamports); err != nil {
		return err
	}
	if err := allocate(to, space); err != nil {
		return err
	}
	return assign(to, owner)
}

func transfer(from, to *program.AccountInfo, lamports uint64) error {
	if !from.IsSigner {
		return types.InstructionErrorMissingRequiredSignature
	}
	if !from.IsWritable || !to.IsWritable {
		return types.InstructionErrorInvalidArgument
	}
	if len(from.Data) > 0 || !from.Owner.Equals(solana.SystemProgramID) {
		return types.InstructionErrorInvalidArgument
	}
	if from.Lamports < lamports {
		return SystemErrorResultWithNegativeLamports
	}
	from.Lamports -= lamports
	to.Lamports += lamports
	return nil
}

func allocate(account *program.AccountInfo, space uint64) error {
	if !account.IsSigner {
		return types.InstructionErrorMissingRequiredSignature
	}
	if len(account.Data) > 0 || !account.Owner.Equals(solana.SystemProgramID) {
		return SystemErrorAccountAlreadyInUse
	}
	if space > maxPermittedDataLength {
		return SystemErrorInvalidAccountDataLength
	}
	account.Data = make([]byte, space)
	return nil
}

func assign(account *program.AccountInfo, owner solana.PublicKey) error {
	if account.Owner.Equals(owner) {
		return nil
	}
	if !account.IsSigner {
		return types.InstructionErrorMissingRequiredSignature
	}
	if !account.Owner.Equals(solana.SystemProgramID) {
		return types.InstructionErrorIncorrectProgramID
	}
	account.Owner = owner
	return nil
}
