package governor

import (
	"github.com/gagliardetto/solana-go"

	"github.com/lugondev/go-agora/pkg/view"
)

// GovernorView reads Governor fields directly from account data.
type GovernorView struct {
	*view.DataView
}

// NewGovernorView checks the discriminator and wraps data without copying.
func NewGovernorView(data []byte) (*GovernorView, error) {
	v := view.NewDataView(data)
	if !v.HasDiscriminator(Discriminator) || v.Len() < OffsetProposalTypes {
		return nil, view.ErrInvalidAccountData
	}
	return &GovernorView{DataView: v}, nil
}

func (g *GovernorView) Admin() solana.PublicKey {
	pk, _ := g.Pubkey(OffsetAdmin)
	return pk
}

func (g *GovernorView) Manager() solana.PublicKey {
	pk, _ := g.Pubkey(OffsetManager)
	return pk
}

func (g *GovernorView) VotingDelay() uint64 {
	v, _ := g.Uint64(OffsetVotingDelay)
	return v
}

func (g *GovernorView) VotingPeriod() uint64 {
	v, _ := g.Uint64(OffsetVotingPeriod)
	return v
}

func (g *GovernorView) ProposalThreshold() uint64 {
	v, _ := g.Uint64(OffsetProposalThreshold)
	return v
}

func (g *GovernorView) ProposalCount() uint64 {
	v, _ := g.Uint64(OffsetProposalCount)
	return v
}

func (g *GovernorView) TotalSupply() uint64 {
	v, _ := g.Uint64(OffsetTotalSupply)
	return v
}

func (g *GovernorView) Bump() uint8 {
	v, _ := g.Uint8(OffsetBump)
	return v
}
