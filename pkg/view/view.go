// Package view provides zero-copy, bounds-checked readers over Anchor account data.
//
// A DataView never panics: reads past the end of the buffer return
// ErrInvalidBuffer, so views can be pointed at arbitrary ledger data.
package view

import (
	"encoding/binary"
	"errors"
	"unsafe"

	"github.com/gagliardetto/solana-go"

	"github.com/lugondev/go-agora/pkg/discriminator"
)

var (
	ErrInvalidBuffer      = errors.New("invalid buffer size")
	ErrInvalidAccountData = errors.New("invalid account data")
)

// DataView reads fixed-offset fields from account data.
type DataView struct {
	buffer []byte
}

// NewDataView wraps buffer without copying it.
func NewDataView(buffer []byte) *DataView {
	return &DataView{
		buffer: buffer,
	}
}

// Len returns the size of the underlying buffer.
func (v *DataView) Len() int {
	return len(v.buffer)
}

func (v *DataView) has(offset, size int) bool {
	return offset >= 0 && size >= 0 && offset+size <= len(v.buffer)
}

// Discriminator returns the leading 8-byte type tag.
func (v *DataView) Discriminator() (discriminator.Discriminator, error) {
	disc, ok := discriminator.FromBytes(v.buffer)
	if !ok {
		return disc, ErrInvalidBuffer
	}
	return disc, nil
}

// HasDiscriminator reports whether the buffer starts with disc.
func (v *DataView) HasDiscriminator(disc discriminator.Discriminator) bool {
	return disc.Matches(v.buffer)
}

// Pubkey reads a 32-byte public key at offset.
func (v *DataView) Pubkey(offset int) (solana.PublicKey, error) {
	if !v.has(offset, solana.PublicKeyLength) {
		return solana.PublicKey{}, ErrInvalidBuffer
	}
	return *(*solana.PublicKey)(unsafe.Pointer(&v.buffer[offset])), nil
}

// Uint64 reads a little-endian uint64 at offset.
func (v *DataView) Uint64(offset int) (uint64, error) {
	if !v.has(offset, 8) {
		return 0, ErrInvalidBuffer
	}
	return binary.LittleEndian.Uint64(v.buffer[offset : offset+8]), nil
}

// Uint32 reads a little-endian uint32 at offset.
func (v *DataView) Uint32(offset int) (uint32, error) {
	if !v.has(offset, 4) {
		return 0, ErrInvalidBuffer
	}
	return binary.LittleEndian.Uint32(v.buffer[offset : offset+4]), nil
}

// Uint8 reads a single byte at offset.
func (v *DataView) Uint8(offset int) (uint8, error) {
	if !v.has(offset, 1) {
		return 0, ErrInvalidBuffer
	}
	return v.buffer[offset], nil
}
