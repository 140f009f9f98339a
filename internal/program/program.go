// Package program implements the governor program: the on-ledger side of the
// initialize operation. A ledger hands the program working copies of the
// accounts named by an instruction; the program validates them and mutates the
// copies, and the ledger commits the copies only if Process returns nil.
package program

import (
	"fmt"
	"log/slog"

	"github.com/gagliardetto/solana-go"

	"github.com/lugondev/go-agora/internal/common"
	agoraerrors "github.com/lugondev/go-agora/internal/errors"
	"github.com/lugondev/go-agora/internal/governor"
	"github.com/lugondev/go-agora/pkg/discriminator"
	"github.com/lugondev/go-agora/pkg/types"
)

// InvokeContext is the runtime services a ledger provides to an executing
// program.
type InvokeContext interface {
	// Log records a "Program log:" line for the running transaction.
	Log(msg string)

	// Rent returns the ledger's rent parameters.
	Rent() Rent

	// InvokeSigned executes a cross-program invocation against the same
	// working copies. signerSeeds authorize program-derived addresses of the
	// calling program as signers.
	InvokeSigned(ix solana.Instruction, signerSeeds ...[][]byte) error
}

// AccountInfo is an account as seen by an executing program.
type AccountInfo struct {
	Key        solana.PublicKey
	IsSigner   bool
	IsWritable bool

	// Account is the working copy. Nonexistent accounts are empty and owned by
	// the system program.
	*types.Account
}

// Instruction is a resolved instruction ready for execution.
type Instruction struct {
	ProgramID solana.PublicKey
	Accounts  []*AccountInfo
	Data      []byte
}

type handlerFunc func(ctx InvokeContext, ix *Instruction) error

type handler struct {
	name string
	fn   handlerFunc
}

// Program is the governor program.
type Program struct {
	common.LoggerMixin

	id       solana.PublicKey
	matcher  *discriminator.Matcher
	handlers []handler
}

var (
	_ common.Loggable                    = (*Program)(nil)
	_ common.WithLoggerBuilder[*Program] = (*Program)(nil)
)

// New creates the governor program deployed at id.
func New(id solana.PublicKey) *Program {
	p := &Program{
		LoggerMixin: common.NewLoggerMixin(),
		id:          id,
		matcher:     discriminator.NewMatcher(),
	}
	p.register(governor.InitializeDiscriminator, "Initialize", p.initialize)
	return p
}

// WithLogger sets the program logger.
func (p *Program) WithLogger(logger *slog.Logger) *Program {
	p.SetLogger(logger)
	return p
}

func (p *Program) register(disc discriminator.Discriminator, name string, fn handlerFunc) {
	idx := p.matcher.Add(disc)
	if idx == len(p.handlers) {
		p.handlers = append(p.handlers, handler{name: name, fn: fn})
	}
}

// ID returns the program id.
func (p *Program) ID() solana.PublicKey {
	return p.id
}

// ErrorCode returns the custom error code the ledger reports for err.
func (p *Program) ErrorCode(err error) (uint32, bool) {
	code, ok := governor.CodeFor(err)
	return uint32(code), ok
}

// Process executes ix. A non-nil error means the working copies must be
// discarded.
func (p *Program) Process(ctx InvokeContext, ix *Instruction) error {
	if !ix.ProgramID.Equals(p.id) {
		return agoraerrors.InvalidInstructionData(fmt.Sprintf("instruction targets program %s", ix.ProgramID))
	}

	idx := p.matcher.MatchData(ix.Data)
	if idx < 0 {
		return agoraerrors.InvalidInstructionData("unknown instruction discriminator")
	}

	h := p.handlers[idx]
	ctx.Log("Instruction: " + h.name)

	if err := h.fn(ctx, ix); err != nil {
		p.GetLogger().Debug("instruction rejected", "instruction", h.name, "error", err)
		return err
	}
	return nil
}
