package merkle

import (
	"encoding/hex"
	"fmt"
)

// Path is the authentication path of one leaf: its own hash, plus the
// ordered sequence of sibling hashes (with side information) needed
// to recompute the root by repeated compression.
type Path struct {
	Leaf Hash

	// Siblings[i] is the hash combined with the node at level i on
	// the way from the leaf to the root. SiblingOnRight[i] is true
	// when Siblings[i] sits to the right of the path node at that
	// level (so the combination is compress(node, sibling)) and
	// false when it sits to the left (compress(sibling, node)).
	Siblings       []Hash
	SiblingOnRight []bool
}

// Verify reports whether recomputing the root from p's leaf and
// siblings yields root.
func (p Path) Verify(root Hash) bool {
	return p.Recompute() == root
}

// Recompute folds the leaf up through the siblings and returns the
// resulting root hash.
func (p Path) Recompute() Hash {
	h := p.Leaf
	for i, sib := range p.Siblings {
		if p.SiblingOnRight[i] {
			h = compress(h, sib)
		} else {
			h = compress(sib, h)
		}
	}
	return h
}

// Encode serializes p to the wire's fixed hex byte stream: one byte
// for the sibling count, then one direction byte (0 = sibling on the
// left, 1 = sibling on the right) plus the 32-byte sibling hash, per
// sibling, followed by the 32-byte leaf hash — all lowercase hex.
func (p Path) Encode() string {
	buf := make([]byte, 0, 1+len(p.Siblings)*33+32)
	buf = append(buf, byte(len(p.Siblings)))
	for i, sib := range p.Siblings {
		dir := byte(0)
		if p.SiblingOnRight[i] {
			dir = 1
		}
		buf = append(buf, dir)
		buf = append(buf, sib[:]...)
	}
	buf = append(buf, p.Leaf[:]...)
	return hex.EncodeToString(buf)
}

// DecodePath parses a Path from the hex form Encode produces.
func DecodePath(s string) (Path, error) {
	raw, err := hex.DecodeString(s)
	if err != nil {
		return Path{}, fmt.Errorf("merkle: decode path: %w", err)
	}
	if len(raw) < 1 {
		return Path{}, fmt.Errorf("merkle: decode path: empty")
	}
	count := int(raw[0])
	want := 1 + count*33 + 32
	if len(raw) != want {
		return Path{}, fmt.Errorf("merkle: decode path: got %d bytes, want %d", len(raw), want)
	}

	p := Path{
		Siblings:       make([]Hash, count),
		SiblingOnRight: make([]bool, count),
	}
	off := 1
	for i := 0; i < count; i++ {
		p.SiblingOnRight[i] = raw[off] == 1
		off++
		copy(p.Siblings[i][:], raw[off:off+32])
		off += 32
	}
	copy(p.Leaf[:], raw[off:off+32])
	return p, nil
}
