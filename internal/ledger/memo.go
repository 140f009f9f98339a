package ledger

import (
	"fmt"
	"unicode/utf8"

	"github.com/lugondev/go-agora/internal/program"
	"github.com/lugondev/go-agora/pkg/types"
)

// executeMemo logs a UTF-8 memo. Every account passed must have signed.
func executeMemo(ctx program.InvokeContext, accounts []*program.AccountInfo, data []byte) error {
	for _, info := range accounts {
		if !info.IsSigner {
			return types.InstructionErrorMissingRequiredSignature
		}
	}
	if !utf8.Valid(data) {
		return types.InstructionErrorInvalidInstructionData
	}
	ctx.Log(fmt.Sprintf("Memo (len %d): %q", len(data), data))
	return nil
}
