package solana

import (
	"path/filepath"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/programs/system"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWalletBase58RoundTrip(t *testing.T) {
	w := NewWallet()

	restored, err := WalletFromBase58(w.Base58())
	require.NoError(t, err)
	assert.Equal(t, w.PublicKey(), restored.PublicKey())

	_, err = WalletFromBase58("0OIl")
	assert.Error(t, err)

	_, err = WalletFromBase58(w.PublicKey().String())
	assert.ErrorContains(t, err, "invalid private key size")
}

func TestWalletFileRoundTrip(t *testing.T) {
	w := NewWallet()
	path := filepath.Join(t.TempDir(), "id.json")

	require.NoError(t, w.SaveToFile(path))
	restored, err := WalletFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, w.PrivateKey(), restored.PrivateKey())
}

func TestSignTransactionLeavesOtherSigners(t *testing.T) {
	payer := NewWallet()
	other := NewWallet()

	ix := system.NewTransferInstruction(1, other.PublicKey(), payer.PublicKey()).Build()
	tx, err := solana.NewTransaction([]solana.Instruction{ix}, solana.Hash{1}, solana.TransactionPayer(payer.PublicKey()))
	require.NoError(t, err)

	require.NoError(t, payer.SignTransaction(tx))
	require.Len(t, tx.Signatures, 2)
	assert.False(t, tx.Signatures[0].IsZero())
	assert.True(t, tx.Signatures[1].IsZero())
	assert.Error(t, tx.VerifySignatures())

	require.NoError(t, other.SignTransaction(tx))
	assert.NoError(t, tx.VerifySignatures())
}
