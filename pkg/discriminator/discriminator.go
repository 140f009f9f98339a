// Package discriminator computes and matches Anchor-style 8-byte discriminators.
//
// Anchor prefixes account data with sha256("account:<Name>")[:8] and
// instruction data with sha256("global:<name>")[:8]. A Matcher maps a
// discriminator back to the index of the handler registered for it.
package discriminator

import (
	"crypto/sha256"
	"encoding/hex"
)

// Size is the length of a discriminator in bytes.
const Size = 8

// Discriminator is an 8-byte type tag at the start of account or instruction data.
type Discriminator [Size]byte

const (
	namespaceAccount     = "account"
	namespaceInstruction = "global"
)

// Compute returns sha256("<namespace>:<name>")[:8].
func Compute(namespace, name string) Discriminator {
	hash := sha256.Sum256([]byte(namespace + ":" + name))
	var disc Discriminator
	copy(disc[:], hash[:Size])
	return disc
}

// ForAccount returns the discriminator of an account type, e.g. "Governor".
func ForAccount(name string) Discriminator {
	return Compute(namespaceAccount, name)
}

// ForInstruction returns the discriminator of an instruction, e.g. "initialize".
func ForInstruction(name string) Discriminator {
	return Compute(namespaceInstruction, name)
}

// FromBytes reads the leading discriminator from data.
// ok is false when data is shorter than Size.
func FromBytes(data []byte) (disc Discriminator, ok bool) {
	if len(data) < Size {
		return disc, false
	}
	copy(disc[:], data[:Size])
	return disc, true
}

// Bytes returns the discriminator as a byte slice.
func (d Discriminator) Bytes() []byte {
	return d[:]
}

// Matches reports whether data starts with d.
func (d Discriminator) Matches(data []byte) bool {
	other, ok := FromBytes(data)
	return ok && other == d
}

// String returns the hex encoding of the discriminator.
func (d Discriminator) String() string {
	return hex.EncodeToString(d[:])
}

// Matcher resolves discriminators to the index they were registered at.
type Matcher struct {
	discriminators map[Discriminator]int
	orderedDiscs   []Discriminator
}

// NewMatcher creates a Matcher. The index of each discriminator is its
// position in discs; duplicates keep the first position.
func NewMatcher(discs ...Discriminator) *Matcher {
	m := &Matcher{
		discriminators: make(map[Discriminator]int, len(discs)),
		orderedDiscs:   make([]Discriminator, 0, len(discs)),
	}

	for _, disc := range discs {
		m.Add(disc)
	}

	return m
}

// Add registers disc and returns its index.
func (m *Matcher) Add(disc Discriminator) int {
	if idx, exists := m.discriminators[disc]; exists {
		return idx
	}
	idx := len(m.orderedDiscs)
	m.discriminators[disc] = idx
	m.orderedDiscs = append(m.orderedDiscs, disc)
	return idx
}

// Match returns the index of target, or -1.
func (m *Matcher) Match(target Discriminator) int {
	if idx, exists := m.discriminators[target]; exists {
		return idx
	}
	return -1
}

// MatchData returns the index of the discriminator data starts with, or -1.
func (m *Matcher) MatchData(data []byte) int {
	disc, ok := FromBytes(data)
	if !ok {
		return -1
	}
	return m.Match(disc)
}

// Len returns the number of registered discriminators.
func (m *Matcher) Len() int {
	return len(m.orderedDiscs)
}
