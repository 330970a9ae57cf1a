package merkle

import (
	"encoding/hex"
	"fmt"
)

// Hash is a 32-byte Merkle digest.
type Hash [32]byte

// Zero is the all-zero hash: the root of an empty tree.
var Zero Hash

// IsZero reports whether h is the all-zero hash.
func (h Hash) IsZero() bool {
	return h == Zero
}

// String returns h as 64 lowercase hex characters.
func (h Hash) String() string {
	return hex.EncodeToString(h[:])
}

// ParseHash decodes a 64-character lowercase hex string into a Hash.
func ParseHash(s string) (Hash, error) {
	raw, err := hex.DecodeString(s)
	if err != nil {
		return Hash{}, fmt.Errorf("merkle: parse hash: %w", err)
	}
	if len(raw) != len(Hash{}) {
		return Hash{}, fmt.Errorf("merkle: parse hash: got %d bytes, want %d", len(raw), len(Hash{}))
	}
	var h Hash
	copy(h[:], raw)
	return h, nil
}
