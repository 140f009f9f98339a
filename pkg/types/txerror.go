package types

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/gagliardetto/solana-go/rpc"
)

// TransactionErrorKey is the string key of a ledger transaction error.
type TransactionErrorKey string

const (
	TransactionErrorAccountNotFound         TransactionErrorKey = "AccountNotFound"
	TransactionErrorInsufficientFundsForFee TransactionErrorKey = "InsufficientFundsForFee"
	TransactionErrorDuplicateSignature      TransactionErrorKey = "DuplicateSignature"
	TransactionErrorAlreadyProcessed        TransactionErrorKey = "AlreadyProcessed"
	TransactionErrorBlockhashNotFound       TransactionErrorKey = "BlockhashNotFound"
	TransactionErrorInstructionError        TransactionErrorKey = "InstructionError"
	TransactionErrorMissingSignatureForFee  TransactionErrorKey = "MissingSignatureForFee"
	TransactionErrorInvalidAccountIndex     TransactionErrorKey = "InvalidAccountIndex"
	TransactionErrorSignatureFailure        TransactionErrorKey = "SignatureFailure"
	TransactionErrorProgramAccountNotFound  TransactionErrorKey = "ProgramAccountNotFound"
	TransactionErrorSanitizeFailure         TransactionErrorKey = "SanitizeFailure"
)

// InstructionErrorKey is the string key of an instruction error.
type InstructionErrorKey string

const (
	InstructionErrorGenericError              InstructionErrorKey = "GenericError"
	InstructionErrorInvalidArgument           InstructionErrorKey = "InvalidArgument"
	InstructionErrorInvalidInstructionData    InstructionErrorKey = "InvalidInstructionData"
	InstructionErrorInvalidAccountData        InstructionErrorKey = "InvalidAccountData"
	InstructionErrorInsufficientFunds         InstructionErrorKey = "InsufficientFunds"
	InstructionErrorIncorrectProgramID        InstructionErrorKey = "IncorrectProgramId"
	InstructionErrorMissingRequiredSignature  InstructionErrorKey = "MissingRequiredSignature"
	InstructionErrorAccountAlreadyInitialized InstructionErrorKey = "AccountAlreadyInitialized"
	InstructionErrorUnbalancedInstruction     InstructionErrorKey = "UnbalancedInstruction"
	InstructionErrorReadonlyLamportChange     InstructionErrorKey = "ReadonlyLamportChange"
	InstructionErrorReadonlyDataModified      InstructionErrorKey = "ReadonlyDataModified"
	InstructionErrorExternalDataModified      InstructionErrorKey = "ExternalAccountDataModified"
	InstructionErrorNotEnoughAccountKeys      InstructionErrorKey = "NotEnoughAccountKeys"
	InstructionErrorInvalidSeeds              InstructionErrorKey = "InvalidSeeds"
	InstructionErrorUnsupportedProgramID      InstructionErrorKey = "UnsupportedProgramId"
	InstructionErrorPrivilegeEscalation       InstructionErrorKey = "PrivilegeEscalation"
	InstructionErrorCustom                    InstructionErrorKey = "Custom"
)

// Error lets builtin instruction errors be returned directly.
func (k InstructionErrorKey) Error() string {
	return string(k)
}

// CustomError is the numerical error returned by a non-system program.
type CustomError uint32

func (c CustomError) Error() string {
	return fmt.Sprintf("custom program error: 0x%x", uint32(c))
}

// InstructionError indicates an instruction returned an error in a transaction.
type InstructionError struct {
	Index int
	Err   error
}

func (i InstructionError) Error() string {
	return fmt.Sprintf("Error processing Instruction %d: %v", i.Index, i.Err)
}

// ErrorKey returns the instruction error key, or "" if unset.
func (i InstructionError) ErrorKey() InstructionErrorKey {
	if i.Err == nil {
		return ""
	}
	if i.CustomError() != nil {
		return InstructionErrorCustom
	}
	return InstructionErrorKey(i.Err.Error())
}

// CustomError returns the custom program error, if any.
func (i InstructionError) CustomError() *CustomError {
	var ce CustomError
	if errors.As(i.Err, &ce) {
		return &ce
	}
	return nil
}

// TransactionError is a ledger-reported transaction failure.
type TransactionError struct {
	Key         TransactionErrorKey
	Instruction *InstructionError
}

// NewTransactionError returns a transaction-level error.
func NewTransactionError(key TransactionErrorKey) *TransactionError {
	return &TransactionError{Key: key}
}

// NewInstructionError returns a transaction error raised by instruction index.
func NewInstructionError(index int, err error) *TransactionError {
	return &TransactionError{
		Key:         TransactionErrorInstructionError,
		Instruction: &InstructionError{Index: index, Err: err},
	}
}

func (t *TransactionError) Error() string {
	if t.Instruction != nil {
		return t.Instruction.Error()
	}
	return string(t.Key)
}

// ParseTransactionError parses the JSON error returned in the "err" field of
// signature statuses and preflight failures.
func ParseTransactionError(raw any) (*TransactionError, error) {
	if raw == nil {
		return nil, nil
	}

	switch t := raw.(type) {
	case string:
		return NewTransactionError(TransactionErrorKey(t)), nil
	case map[string]any:
		if len(t) != 1 {
			return nil, fmt.Errorf("invalid transaction error size: %d", len(t))
		}

		var k string
		var v any
		for k, v = range t {
		}

		if k != string(TransactionErrorInstructionError) {
			return NewTransactionError(TransactionErrorKey(k)), nil
		}

		ie, err := parseInstructionError(v)
		if err != nil {
			return nil, fmt.Errorf("failed to parse instruction error: %w", err)
		}
		return &TransactionError{Key: TransactionErrorInstructionError, Instruction: ie}, nil
	default:
		return nil, fmt.Errorf("unhandled transaction error type %T", raw)
	}
}

func parseInstructionError(v any) (*InstructionError, error) {
	values, ok := v.([]any)
	if !ok {
		return nil, errors.New("unexpected instruction error format")
	}
	if len(values) != 2 {
		return nil, fmt.Errorf("unexpected entries in InstructionError tuple: %d", len(values))
	}

	index, err := parseJSONNumber(values[0])
	if err != nil {
		return nil, err
	}

	ie := &InstructionError{Index: index}
	switch t := values[1].(type) {
	case string:
		ie.Err = InstructionErrorKey(t)
	case map[string]any:
		if len(t) != 1 {
			return nil, fmt.Errorf("invalid instruction error size: %d", len(t))
		}

		var k string
		var v any
		for k, v = range t {
		}

		if k != string(InstructionErrorCustom) {
			ie.Err = InstructionErrorKey(k)
			break
		}

		code, err := parseJSONNumber(v)
		if err != nil {
			return nil, fmt.Errorf("invalid custom error code: %w", err)
		}
		ie.Err = CustomError(code)
	default:
		return nil, fmt.Errorf("unhandled instruction error type %T", t)
	}

	return ie, nil
}

func parseJSONNumber(v any) (int, error) {
	switch n := v.(type) {
	case json.Number:
		i, err := n.Int64()
		if err != nil {
			return 0, fmt.Errorf("non int64 value %v", v)
		}
		return int(i), nil
	case string:
		i, err := strconv.ParseInt(n, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("non numeric value %v", v)
		}
		return int(i), nil
	case float64:
		return int(n), nil
	case int:
		return n, nil
	case uint32:
		return int(n), nil
	}
	return 0, fmt.Errorf("non numeric value %v", v)
}

// SignatureStatus is the ledger's view of a submitted transaction.
type SignatureStatus struct {
	// Slot is the slot the transaction was processed in.
	Slot uint64

	// Confirmations is the number of blocks since processing. Nil when rooted.
	Confirmations *uint64

	// ConfirmationStatus is the commitment the transaction has reached.
	ConfirmationStatus rpc.ConfirmationStatusType

	// Err is set when the transaction executed and failed.
	Err *TransactionError
}

// Reached reports whether the status satisfies commitment.
func (s *SignatureStatus) Reached(commitment rpc.CommitmentType) bool {
	if s == nil {
		return false
	}
	return CommitmentRank(rpc.CommitmentType(s.ConfirmationStatus)) >= CommitmentRank(commitment)
}

// CommitmentRank orders commitment levels from processed to finalized.
// Unknown levels rank below processed.
func CommitmentRank(c rpc.CommitmentType) int {
	switch c {
	case rpc.CommitmentProcessed:
		return 1
	case rpc.CommitmentConfirmed:
		return 2
	case rpc.CommitmentFinalized:
		return 3
	default:
		return 0
	}
}
