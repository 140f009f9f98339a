package errors

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsMatchesByCode(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		target error
	}{
		{"address mismatch", AddressMismatch("wrong seeds"), ErrAddressMismatch},
		{"already initialized", AlreadyInitialized("abc"), ErrAlreadyInitialized},
		{"insufficient funds", InsufficientAuthorityOrFunds("payer did not sign"), ErrInsufficientAuthorityOrFunds},
		{"submission failed", SubmissionFailed("send", context.DeadlineExceeded), ErrSubmissionFailed},
		{"unknown outcome", UnknownOutcome("sig", context.DeadlineExceeded), ErrUnknownOutcome},
		{"invalid data", InvalidInstructionData("short"), ErrInvalidInstructionData},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			wrapped := fmt.Errorf("outer: %w", tt.err)
			assert.ErrorIs(t, wrapped, tt.target)
			assert.NotErrorIs(t, wrapped, ErrDecodeFailed)
		})
	}
}

func TestConstructorsDoNotMutateSentinels(t *testing.T) {
	_ = SubmissionFailed("send", context.Canceled)
	assert.Nil(t, ErrSubmissionFailed.Cause)
	_ = UnknownOutcome("sig", context.Canceled)
	assert.Nil(t, ErrUnknownOutcome.Cause)
}

func TestUnwrapReachesCause(t *testing.T) {
	err := UnknownOutcome("5xyz", context.DeadlineExceeded)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Contains(t, err.Error(), "5xyz")
}

func TestCodeOf(t *testing.T) {
	assert.Equal(t, ErrCodeAlreadyInitialized, CodeOf(fmt.Errorf("x: %w", AlreadyInitialized("a"))))
	assert.Equal(t, "", CodeOf(context.Canceled))
	assert.Equal(t, "", CodeOf(nil))
}

func TestRequiresRequery(t *testing.T) {
	assert.True(t, RequiresRequery(UnknownOutcome("sig", nil)))
	assert.False(t, RequiresRequery(AlreadyInitialized("a")))
	assert.False(t, RequiresRequery(SubmissionFailed("send", nil)))
	assert.False(t, RequiresRequery(nil))
}

func TestErrorString(t *testing.T) {
	err := SubmissionFailed("failed to send transaction", context.Canceled)
	require.Equal(t, "SUBMISSION_FAILED: failed to send transaction: context canceled", err.Error())
	require.Equal(t, "ALREADY_INITIALIZED: account abc already initialized", AlreadyInitialized("abc").Error())
}
