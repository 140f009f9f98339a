package governor

import (
	"fmt"

	agoraerrors "github.com/lugondev/go-agora/internal/errors"
)

// ErrorCode is a program error reported on the ledger as a custom
// instruction error.
type ErrorCode uint32

// Program error codes. Anchor reserves codes below 6000.
const (
	ErrorCodeAddressMismatch ErrorCode = 6000 + iota
	ErrorCodeAlreadyInitialized
	ErrorCodeInsufficientAuthorityOrFunds
	ErrorCodeInvalidInstructionData
)

func (c ErrorCode) String() string {
	switch c {
	case ErrorCodeAddressMismatch:
		return "AddressMismatch"
	case ErrorCodeAlreadyInitialized:
		return "AlreadyInitialized"
	case ErrorCodeInsufficientAuthorityOrFunds:
		return "InsufficientAuthorityOrFunds"
	case ErrorCodeInvalidInstructionData:
		return "InvalidInstructionData"
	default:
		return fmt.Sprintf("Unknown(%d)", uint32(c))
	}
}

var codesByKind = map[string]ErrorCode{
	agoraerrors.ErrCodeAddressMismatch:              ErrorCodeAddressMismatch,
	agoraerrors.ErrCodeAlreadyInitialized:           ErrorCodeAlreadyInitialized,
	agoraerrors.ErrCodeInsufficientAuthorityOrFunds: ErrorCodeInsufficientAuthorityOrFunds,
	agoraerrors.ErrCodeInvalidInstructionData:       ErrorCodeInvalidInstructionData,
}

// CodeFor returns the program error code for err. ok is false when err does
// not carry one of the program's error kinds.
func CodeFor(err error) (code ErrorCode, ok bool) {
	code, ok = codesByKind[agoraerrors.CodeOf(err)]
	return code, ok
}

// ErrorFromCode maps a custom instruction error back to the error taxonomy.
// Unknown codes become SubmissionFailed.
func ErrorFromCode(code uint32, address string) error {
	switch ErrorCode(code) {
	case ErrorCodeAddressMismatch:
		return agoraerrors.AddressMismatch(fmt.Sprintf("program rejected governor %s", address))
	case ErrorCodeAlreadyInitialized:
		return agoraerrors.AlreadyInitialized(address)
	case ErrorCodeInsufficientAuthorityOrFunds:
		return agoraerrors.InsufficientAuthorityOrFunds("program rejected payer authority or balance")
	case ErrorCodeInvalidInstructionData:
		return agoraerrors.InvalidInstructionData("program rejected instruction data")
	default:
		return agoraerrors.SubmissionFailed(fmt.Sprintf("program failed with custom error %d", code), nil)
	}
}
