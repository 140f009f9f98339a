package program

// AccountStorageOverhead is the per-account metadata size charged for rent.
const AccountStorageOverhead = 128

// Rent holds the ledger's rent parameters.
type Rent struct {
	LamportsPerByteYear uint64
	ExemptionThreshold  uint64 // years
}

// DefaultRent matches the mainnet rent sysvar.
var DefaultRent = Rent{
	LamportsPerByteYear: 3480,
	ExemptionThreshold:  2,
}

// MinimumBalance returns the lamports an account of size bytes needs to be
// rent exempt.
func (r Rent) MinimumBalance(size uint64) uint64 {
	return (AccountStorageOverhead + size) * r.LamportsPerByteYear * r.ExemptionThreshold
}
