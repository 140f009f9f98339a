// Package errors defines the error taxonomy surfaced by go-agora.
//
// Every failure of the initialize flow is reported as an *AgoraError whose Code
// identifies its kind. Errors compare by code, so callers can test a wrapped
// error against the exported sentinels with errors.Is:
//
//	if errors.Is(err, agoraerrors.ErrAlreadyInitialized) { ... }
package errors

import (
	"errors"
	"fmt"
)

// Error codes for the initialize flow.
const (
	ErrCodeAddressMismatch              = "ADDRESS_MISMATCH"
	ErrCodeAlreadyInitialized           = "ALREADY_INITIALIZED"
	ErrCodeInsufficientAuthorityOrFunds = "INSUFFICIENT_AUTHORITY_OR_FUNDS"
	ErrCodeSubmissionFailed             = "SUBMISSION_FAILED"
	ErrCodeUnknownOutcome               = "UNKNOWN_OUTCOME"
	ErrCodeInvalidInstructionData       = "INVALID_INSTRUCTION_DATA"
	ErrCodeDecodeFailed                 = "DECODE_FAILED"
)

// AgoraError represents an error in the go-agora flow.
type AgoraError struct {
	// Code is a unique error code for this error type.
	Code string

	// Message is a human-readable error message.
	Message string

	// Cause is the underlying error, if any.
	Cause error
}

// Error implements the error interface.
func (e *AgoraError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error.
func (e *AgoraError) Unwrap() error {
	return e.Cause
}

// Is reports whether the error matches the target.
func (e *AgoraError) Is(target error) bool {
	t, ok := target.(*AgoraError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// WithCause adds a cause to the error.
func (e *AgoraError) WithCause(cause error) *AgoraError {
	e.Cause = cause
	return e
}

// NewError creates a new AgoraError.
func NewError(code, message string) *AgoraError {
	return &AgoraError{
		Code:    code,
		Message: message,
	}
}

// Sentinels for errors.Is. Never call WithCause on these;
// use the constructors below instead.
var (
	ErrAddressMismatch              = NewError(ErrCodeAddressMismatch, "address mismatch")
	ErrAlreadyInitialized           = NewError(ErrCodeAlreadyInitialized, "already initialized")
	ErrInsufficientAuthorityOrFunds = NewError(ErrCodeInsufficientAuthorityOrFunds, "insufficient authority or funds")
	ErrSubmissionFailed             = NewError(ErrCodeSubmissionFailed, "submission failed")
	ErrUnknownOutcome               = NewError(ErrCodeUnknownOutcome, "unknown outcome")
	ErrInvalidInstructionData       = NewError(ErrCodeInvalidInstructionData, "invalid instruction data")
	ErrDecodeFailed                 = NewError(ErrCodeDecodeFailed, "decode failed")
)

// AddressMismatch creates an error for a target address that is not the one
// this operation is authorized to initialize.
func AddressMismatch(reason string) *AgoraError {
	return NewError(ErrCodeAddressMismatch, fmt.Sprintf("address mismatch: %s", reason))
}

// AlreadyInitialized creates an error for a record that is already initialized.
func AlreadyInitialized(address string) *AgoraError {
	return NewError(ErrCodeAlreadyInitialized, fmt.Sprintf("account %s already initialized", address))
}

// InsufficientAuthorityOrFunds creates an error for a payer that did not sign
// or cannot fund the record.
func InsufficientAuthorityOrFunds(reason string) *AgoraError {
	return NewError(ErrCodeInsufficientAuthorityOrFunds, reason)
}

// SubmissionFailed creates an error for transport faults and ledger rejections
// that happened before the transaction could execute.
func SubmissionFailed(reason string, cause error) *AgoraError {
	return NewError(ErrCodeSubmissionFailed, reason).WithCause(cause)
}

// UnknownOutcome creates an error for a submission whose result could not be
// observed. The transaction may or may not have been applied.
func UnknownOutcome(signature string, cause error) *AgoraError {
	return NewError(ErrCodeUnknownOutcome, fmt.Sprintf("outcome of %s unknown", signature)).WithCause(cause)
}

// InvalidInstructionData creates an error for undecodable instruction data.
func InvalidInstructionData(reason string) *AgoraError {
	return NewError(ErrCodeInvalidInstructionData, reason)
}

// DecodeFailed creates an error for decoding failures.
func DecodeFailed(what string, cause error) *AgoraError {
	return NewError(ErrCodeDecodeFailed, fmt.Sprintf("failed to decode %s", what)).WithCause(cause)
}

// CodeOf returns the code of the first AgoraError in err's chain, or "".
func CodeOf(err error) string {
	var ae *AgoraError
	if errors.As(err, &ae) {
		return ae.Code
	}
	return ""
}

// RequiresRequery reports whether the caller must re-read ledger state before
// retrying. Only UnknownOutcome leaves the ledger state indeterminate.
func RequiresRequery(err error) bool {
	return errors.Is(err, ErrUnknownOutcome)
}
