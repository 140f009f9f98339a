package governor

import (
	"bytes"
	"fmt"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"

	agoraerrors "github.com/lugondev/go-agora/internal/errors"
	"github.com/lugondev/go-agora/pkg/discriminator"
)

// InstructionInitialize is the Anchor name of the initialize instruction.
const InstructionInitialize = "initialize"

// InitializeDiscriminator prefixes initialize instruction data.
var InitializeDiscriminator = discriminator.ForInstruction(InstructionInitialize)

// Account positions in the initialize instruction.
const (
	AccountIndexGovernor = iota
	AccountIndexAdmin
	AccountIndexManager
	AccountIndexSystemProgram

	InitializeAccountCount
)

// InitializeArgs are the constructor parameters of a Governor.
type InitializeArgs struct {
	VotingDelay       uint64
	VotingPeriod      uint64
	ProposalThreshold uint64
}

// InitializeAccounts names the accounts of an initialize instruction.
type InitializeAccounts struct {
	Governor solana.PublicKey
	Admin    solana.PublicKey
	Manager  solana.PublicKey
}

// NewInitializeInstruction builds the initialize instruction for programID.
func NewInitializeInstruction(programID solana.PublicKey, accounts InitializeAccounts, args InitializeArgs) (*solana.GenericInstruction, error) {
	data, err := EncodeInitializeArgs(args)
	if err != nil {
		return nil, err
	}

	metas := solana.AccountMetaSlice{
		solana.NewAccountMeta(accounts.Governor, true, false),
		solana.NewAccountMeta(accounts.Admin, true, true),
		solana.NewAccountMeta(accounts.Manager, false, false),
		solana.NewAccountMeta(solana.SystemProgramID, false, false),
	}

	return solana.NewInstruction(programID, metas, data), nil
}

// EncodeInitializeArgs returns discriminator ++ borsh(args).
func EncodeInitializeArgs(args InitializeArgs) ([]byte, error) {
	buf := new(bytes.Buffer)
	buf.Write(InitializeDiscriminator.Bytes())
	if err := bin.NewBorshEncoder(buf).Encode(args); err != nil {
		return nil, fmt.Errorf("failed to encode initialize args: %w", err)
	}
	return buf.Bytes(), nil
}

// DecodeInitializeArgs parses initialize instruction data.
func DecodeInitializeArgs(data []byte) (*InitializeArgs, error) {
	if !InitializeDiscriminator.Matches(data) {
		return nil, agoraerrors.InvalidInstructionData("instruction is not initialize")
	}

	dec := bin.NewBorshDecoder(data[discriminator.Size:])
	args := new(InitializeArgs)
	if err := dec.Decode(args); err != nil {
		return nil, agoraerrors.InvalidInstructionData(fmt.Sprintf("malformed initialize args: %v", err))
	}
	if dec.Remaining() != 0 {
		return nil, agoraerrors.InvalidInstructionData(fmt.Sprintf("%d trailing bytes after initialize args", dec.Remaining()))
	}
	return args, nil
}
