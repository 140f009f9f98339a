package governor

import (
	"fmt"

	"github.com/gagliardetto/solana-go"
)

// SeedPrefix is the first seed of the Governor program-derived address.
const SeedPrefix = "governor"

// Seeds returns the PDA seeds of the Governor administered by admin.
func Seeds(admin solana.PublicKey) [][]byte {
	return [][]byte{[]byte(SeedPrefix), admin.Bytes()}
}

// DeriveAddress returns the Governor address for admin and its bump seed.
func DeriveAddress(programID, admin solana.PublicKey) (solana.PublicKey, uint8, error) {
	address, bump, err := solana.FindProgramAddress(Seeds(admin), programID)
	if err != nil {
		return solana.PublicKey{}, 0, fmt.Errorf("failed to derive governor address: %w", err)
	}
	return address, bump, nil
}
