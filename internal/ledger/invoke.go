package ledger

import (
	"fmt"

	"github.com/gagliardetto/solana-go"

	"github.com/lugondev/go-agora/internal/program"
	"github.com/lugondev/go-agora/pkg/types"
)

const maxInvokeDepth = 4

// invocation is the program.InvokeContext of one executing instruction.
type invocation struct {
	ledger   *Ledger
	working  map[solana.PublicKey]*program.AccountInfo
	logs     *[]string
	depth    int
	callerID solana.PublicKey
}

var _ program.InvokeContext = (*invocation)(nil)

func (inv *invocation) Log(msg string) {
	inv.appendLog("Program log: " + msg)
}

func (inv *invocation) Rent() program.Rent {
	return inv.ledger.cfg.Rent
}

func (inv *invocation) appendLog(line string) {
	*inv.logs = append(*inv.logs, line)
}

// InvokeSigned runs ix as a cross-program invocation. The callee receives the
// caller's privileges plus signatures for the PDAs of signerSeeds.
func (inv *invocation) InvokeSigned(ix solana.Instruction, signerSeeds ...[][]byte) error {
	if inv.depth >= maxInvokeDepth {
		return types.InstructionErrorGenericError
	}

	pdaSigners := make(map[solana.PublicKey]bool, len(signerSeeds))
	for _, seeds := range signerSeeds {
		pda, err := solana.CreateProgramAddress(seeds, inv.callerID)
		if err != nil {
			return types.InstructionErrorInvalidSeeds
		}
		pdaSigners[pda] = true
	}

	metas := ix.Accounts()
	accounts := make([]*program.AccountInfo, len(metas))
	for i, meta := range metas {
		info, ok := inv.working[meta.PublicKey]
		if !ok {
			return types.InstructionErrorNotEnoughAccountKeys
		}
		if meta.IsSigner && !info.IsSigner && !pdaSigners[meta.PublicKey] {
			return types.InstructionErrorPrivilegeEscalation
		}
		if meta.IsWritable && !info.IsWritable {
			return types.InstructionErrorPrivilegeEscalation
		}
		// Same working copy, callee privileges.
		accounts[i] = &program.AccountInfo{
			Key:        meta.PublicKey,
			IsSigner:   meta.IsSigner,
			IsWritable: meta.IsWritable,
			Account:    info.Account,
		}
	}

	data, err := ix.Data()
	if err != nil {
		return types.InstructionErrorInvalidInstructionData
	}

	callee := &invocation{
		ledger:   inv.ledger,
		working:  inv.working,
		logs:     inv.logs,
		depth:    inv.depth + 1,
		callerID: ix.ProgramID(),
	}
	return callee.run(ix.ProgramID(), accounts, data)
}

// run executes one instruction at the invocation's depth.
func (inv *invocation) run(programID solana.PublicKey, accounts []*program.AccountInfo, data []byte) error {
	inv.appendLog(fmt.Sprintf("Program %s invoke [%d]", programID, inv.depth))

	snaps := takeSnapshot(accounts)
	err := inv.dispatch(programID, accounts, data)
	if err == nil {
		err = verify(programID, snaps, accounts)
	}

	if err != nil {
		inv.appendLog(fmt.Sprintf("Program %s failed: %v", programID, inv.ledger.describe(programID, err)))
		return err
	}
	inv.appendLog(fmt.Sprintf("Program %s success", programID))
	return nil
}

func (inv *invocation) dispatch(programID solana.PublicKey, accounts []*program.AccountInfo, data []byte) error {
	switch {
	case programID.Equals(solana.SystemProgramID):
		return executeSystem(accounts, data)
	case programID.Equals(solana.MemoProgramID):
		return executeMemo(inv, accounts, data)
	}

	p, ok := inv.ledger.programs[programID]
	if !ok {
		return types.InstructionErrorUnsupportedProgramID
	}
	return p.Process(inv, &program.Instruction{
		ProgramID: programID,
		Accounts:  accounts,
		Data:      data,
	})
}

// describe renders err the way it will appear in the transaction status.
func (l *Ledger) describe(programID solana.PublicKey, err error) string {
	txErr := l.instructionError(0, programID, err)
	return txErr.Instruction.Err.Error()
}
