package core

import (
	"crypto/sha256"
	"encoding/hex"
	"hash"
)

// Fingerprint identifies the basket contents an index was built from.
// Two datasets with the same transaction sets share a fingerprint regardless of row order.
type Fingerprint string

func (f Fingerprint) String() string { return string(f) }

// FingerprintBuilder accumulates canonical fields into a Fingerprint.
type FingerprintBuilder struct {
	h hash.Hash
}

func NewFingerprintBuilder() *FingerprintBuilder {
	return &FingerprintBuilder{h: sha256.New()}
}

// Add writes a field followed by a separator byte so adjacent fields cannot merge.
func (b *FingerprintBuilder) Add(field string) {
	b.h.Write([]byte(field))
	b.h.Write([]byte{0})
}

func (b *FingerprintBuilder) Sum() Fingerprint {
	return Fingerprint(hex.EncodeToString(b.h.Sum(nil)))
}
