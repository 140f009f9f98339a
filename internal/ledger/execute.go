package ledger

import (
	"bytes"
	"context"
	"errors"

	"github.com/gagliardetto/solana-go"

	"github.com/lugondev/go-agora/internal/program"
	"github.com/lugondev/go-agora/pkg/types"
)

// SendTransaction validates tx, charges its fee and executes it. Transactions
// rejected before execution return a *types.TransactionError and leave no
// trace; transactions that fail during execution are recorded with their
// error and pay the fee.
func (l *Ledger) SendTransaction(ctx context.Context, tx *solana.Transaction) (solana.Signature, error) {
	if err := ctx.Err(); err != nil {
		return solana.Signature{}, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	sig, payer, err := l.sanitize(tx)
	if err != nil {
		l.GetLogger().Debug("transaction rejected", "error", err)
		return solana.Signature{}, err
	}

	fee := l.cfg.LamportsPerSignature * uint64(len(tx.Signatures))
	payer.Lamports -= fee

	logs, txErr := l.execute(tx)
	l.records[sig] = &record{
		slot: l.slot,
		err:  txErr,
		logs: logs,
	}

	l.GetLogger().Debug("transaction processed",
		"signature", sig,
		"slot", l.slot,
		"fee", fee,
		"error", txErr,
	)
	return sig, nil
}

// sanitize runs the checks that reject a transaction before it is executed.
func (l *Ledger) sanitize(tx *solana.Transaction) (solana.Signature, *types.Account, error) {
	msg := &tx.Message
	if len(tx.Signatures) == 0 || len(msg.AccountKeys) == 0 {
		return solana.Signature{}, nil, types.NewTransactionError(types.TransactionErrorMissingSignatureForFee)
	}
	if len(tx.Signatures) != int(msg.Header.NumRequiredSignatures) {
		return solana.Signature{}, nil, types.NewTransactionError(types.TransactionErrorSanitizeFailure)
	}

	sig := tx.Signatures[0]
	if _, seen := l.records[sig]; seen {
		return sig, nil, types.NewTransactionError(types.TransactionErrorAlreadyProcessed)
	}
	if !l.isRecentBlockhash(msg.RecentBlockhash) {
		return sig, nil, types.NewTransactionError(types.TransactionErrorBlockhashNotFound)
	}
	if err := tx.VerifySignatures(); err != nil {
		return sig, nil, types.NewTransactionError(types.TransactionErrorSignatureFailure)
	}

	for _, ci := range msg.Instructions {
		if int(ci.ProgramIDIndex) >= len(msg.AccountKeys) {
			return sig, nil, types.NewTransactionError(types.TransactionErrorInvalidAccountIndex)
		}
		for _, idx := range ci.Accounts {
			if int(idx) >= len(msg.AccountKeys) {
				return sig, nil, types.NewTransactionError(types.TransactionErrorInvalidAccountIndex)
			}
		}
	}

	payer, ok := l.accounts[msg.AccountKeys[0]]
	if !ok {
		return sig, nil, types.NewTransactionError(types.TransactionErrorAccountNotFound)
	}
	if payer.Lamports < l.cfg.LamportsPerSignature*uint64(len(tx.Signatures)) {
		return sig, nil, types.NewTransactionError(types.TransactionErrorInsufficientFundsForFee)
	}
	return sig, payer, nil
}

func (l *Ledger) isRecentBlockhash(hash solana.Hash) bool {
	for _, h := range l.blockhashes {
		if h == hash {
			return true
		}
	}
	return false
}

// execute runs every instruction of tx against working copies and commits
// them if all succeed.
func (l *Ledger) execute(tx *solana.Transaction) ([]string, *types.TransactionError) {
	msg := &tx.Message
	metas, err := msg.AccountMetaList()
	if err != nil {
		return nil, types.NewTransactionError(types.TransactionErrorSanitizeFailure)
	}

	working := make(map[solana.PublicKey]*program.AccountInfo, len(metas))
	for _, meta := range metas {
		acc := l.accounts[meta.PublicKey].Clone()
		if acc == nil {
			acc = &types.Account{Owner: solana.SystemProgramID}
		}
		working[meta.PublicKey] = &program.AccountInfo{
			Key:        meta.PublicKey,
			IsSigner:   meta.IsSigner,
			IsWritable: meta.IsWritable,
			Account:    acc,
		}
	}

	var logs []string
	for i, ci := range msg.Instructions {
		programID := msg.AccountKeys[ci.ProgramIDIndex]

		accounts := make([]*program.AccountInfo, len(ci.Accounts))
		for j, idx := range ci.Accounts {
			accounts[j] = working[msg.AccountKeys[idx]]
		}

		inv := &invocation{
			ledger:   l,
			working:  working,
			logs:     &logs,
			depth:    1,
			callerID: programID,
		}
		if err := inv.run(programID, accounts, ci.Data); err != nil {
			return logs, l.instructionError(i, programID, err)
		}
	}

	for key, info := range working {
		if !info.IsWritable {
			continue
		}
		if info.IsEmpty() {
			delete(l.accounts, key)
			continue
		}
		l.accounts[key] = info.Account
	}
	return logs, nil
}

func (l *Ledger) instructionError(index int, programID solana.PublicKey, err error) *types.TransactionError {
	var custom types.CustomError
	if errors.As(err, &custom) {
		return types.NewInstructionError(index, custom)
	}
	var key types.InstructionErrorKey
	if errors.As(err, &key) {
		return types.NewInstructionError(index, key)
	}
	if p, ok := l.programs[programID]; ok {
		if code, ok := p.ErrorCode(err); ok {
			return types.NewInstructionError(index, types.CustomError(code))
		}
	}
	return types.NewInstructionError(index, types.InstructionErrorGenericError)
}

type snapshot struct {
	lamports uint64
	owner    solana.PublicKey
	data     []byte
}

func takeSnapshot(accounts []*program.AccountInfo) map[solana.PublicKey]snapshot {
	snaps := make(map[solana.PublicKey]snapshot, len(accounts))
	for _, info := range accounts {
		snaps[info.Key] = snapshot{
			lamports: info.Lamports,
			owner:    info.Owner,
			data:     bytes.Clone(info.Data),
		}
	}
	return snaps
}

// verify enforces the account rules every program must respect.
func verify(programID solana.PublicKey, snaps map[solana.PublicKey]snapshot, accounts []*program.AccountInfo) error {
	var before, after uint64
	seen := make(map[solana.PublicKey]bool, len(accounts))
	for _, info := range accounts {
		if seen[info.Key] {
			continue
		}
		seen[info.Key] = true

		snap := snaps[info.Key]
		before += snap.lamports
		after += info.Lamports

		dataChanged := !bytes.Equal(snap.data, info.Data)
		if !info.IsWritable {
			if snap.lamports != info.Lamports {
				return types.InstructionErrorReadonlyLamportChange
			}
			if dataChanged || !snap.owner.Equals(info.Owner) {
				return types.InstructionErrorReadonlyDataModified
			}
			continue
		}
		if dataChanged && !info.Owner.Equals(programID) && !snap.owner.Equals(programID) {
			return types.InstructionErrorExternalDataModified
		}
	}
	if before != after {
		return types.InstructionErrorUnbalancedInstruction
	}
	return nil
}
