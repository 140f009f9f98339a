// Package governor defines the Governor state record: its byte layout, the
// predicate that recognizes an initialized record, its program-derived address
// and the initialize instruction that creates it.
//
// A Governor is laid out as an Anchor account:
//
//	0    discriminator       [8]byte  sha256("account:Governor")[:8]
//	8    admin               Pubkey
//	40   manager             Pubkey
//	72   voting_delay        u64
//	80   voting_period       u64
//	88   proposal_threshold  u64
//	96   proposal_count      u64
//	104  total_supply        u64
//	112  bump                u8
//	113  proposal_types      vec<ProposalType>
//
// The account is allocated with LayoutSize() bytes and never resized.
package governor

import (
	"bytes"
	"fmt"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"

	agoraerrors "github.com/lugondev/go-agora/internal/errors"
	"github.com/lugondev/go-agora/pkg/discriminator"
	"github.com/lugondev/go-agora/pkg/types"
)

// AccountName is the Anchor account name used to derive the discriminator.
const AccountName = "Governor"

// Field offsets within the account data.
const (
	OffsetAdmin             = 8
	OffsetManager           = 40
	OffsetVotingDelay       = 72
	OffsetVotingPeriod      = 80
	OffsetProposalThreshold = 88
	OffsetProposalCount     = 96
	OffsetTotalSupply       = 104
	OffsetBump              = 112
	OffsetProposalTypes     = 113
)

// proposalTypesReserve is the slot reserved for the proposal type vector.
const proposalTypesReserve = 32

const layoutSize = discriminator.Size + 32 + 32 + 5*8 + 1 + proposalTypesReserve

// Discriminator tags Governor account data.
var Discriminator = discriminator.ForAccount(AccountName)

// Governor is the state record created by initialize.
type Governor struct {
	Admin             solana.PublicKey
	Manager           solana.PublicKey
	VotingDelay       uint64
	VotingPeriod      uint64
	ProposalThreshold uint64
	ProposalCount     uint64
	TotalSupply       uint64
	Bump              uint8
	ProposalTypes     []ProposalType
}

// ProposalType configures a class of proposals. None exist at initialization.
type ProposalType struct {
	Quorum            uint16
	ApprovalThreshold uint16
	Name              string
	Module            *solana.PublicKey `bin:"optional"`
}

// LayoutSize returns the fixed storage size of a Governor account in bytes.
func LayoutSize() int {
	return layoutSize
}

// IsInitialized reports whether account holds a Governor owned by programID.
// Malformed or foreign accounts yield false.
func IsInitialized(account *types.Account, programID solana.PublicKey) bool {
	if account == nil {
		return false
	}
	if !account.Owner.Equals(programID) {
		return false
	}
	return Discriminator.Matches(account.Data)
}

// Encode serializes g with its discriminator, zero-padded to LayoutSize().
func Encode(g *Governor) ([]byte, error) {
	buf := bytes.NewBuffer(make([]byte, 0, layoutSize))
	buf.Write(Discriminator.Bytes())

	if err := bin.NewBorshEncoder(buf).Encode(g); err != nil {
		return nil, fmt.Errorf("failed to encode governor: %w", err)
	}
	if buf.Len() > layoutSize {
		return nil, fmt.Errorf("encoded governor is %d bytes, exceeds layout size %d", buf.Len(), layoutSize)
	}

	data := make([]byte, layoutSize)
	copy(data, buf.Bytes())
	return data, nil
}

// Decode parses Governor account data. Trailing padding is ignored.
func Decode(data []byte) (*Governor, error) {
	if !Discriminator.Matches(data) {
		return nil, agoraerrors.DecodeFailed("governor", fmt.Errorf("discriminator mismatch"))
	}

	g := new(Governor)
	if err := bin.NewBorshDecoder(data[discriminator.Size:]).Decode(g); err != nil {
		return nil, agoraerrors.DecodeFailed("governor", err)
	}
	return g, nil
}

// DecodeAccount decodes account after checking it is an initialized Governor
// owned by programID.
func DecodeAccount(account *types.Account, programID solana.PublicKey) (*Governor, error) {
	if !IsInitialized(account, programID) {
		return nil, agoraerrors.DecodeFailed("governor", fmt.Errorf("account is not an initialized governor"))
	}
	return Decode(account.Data)
}
