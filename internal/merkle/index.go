// Package merkle implements the Merkle index: an append-ordered
// Merkle tree over leaf hashes derived from (key, value, timestamp)
// triples, plus a mapping from key to leaf position. It is rebuilt
// from scratch on every KV Store mutation and never calls back into
// the store that owns it.
package merkle

import (
	"sync"

	"github.com/netshard-io/mtkv/internal/store"
)

// KeyPath pairs a key with its authentication path, preserving the
// correlation the wire protocol needs (a GET_PATHS response lists
// keys and hex paths side by side).
type KeyPath struct {
	Key  []byte
	Path Path
}

// Index is the Merkle index over a KV store's current contents. It
// implements store.Index, so a Store can hold one directly behind
// that interface without either package importing the other's
// concrete types beyond store.Entry.
type Index struct {
	mu sync.RWMutex

	tree      *tree
	positions map[string]int
}

// New returns an empty Index.
func New() *Index {
	return &Index{tree: &tree{}, positions: make(map[string]int)}
}

// Rebuild discards the current tree and KeyIndex and reconstructs
// both from snapshot, assigning leaf positions 0..N-1 in snapshot's
// iteration order. Rebuild never calls back into the store that
// produced snapshot.
func (idx *Index) Rebuild(snapshot []store.Entry) {
	leaves := make([]Hash, len(snapshot))
	positions := make(map[string]int, len(snapshot))
	for i, e := range snapshot {
		leaves[i] = LeafHash(e.Key, e.Value, e.Timestamp)
		positions[string(e.Key)] = i
	}

	idx.mu.Lock()
	idx.tree = buildTree(leaves)
	idx.positions = positions
	idx.mu.Unlock()
}

// Root returns the current root hash, or the zero hash if the index
// is empty.
func (idx *Index) Root() Hash {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return idx.tree.root()
}

// Size returns the number of leaves currently indexed.
func (idx *Index) Size() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return idx.tree.size()
}

// Empty reports whether the index currently has no leaves.
func (idx *Index) Empty() bool {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return idx.tree.empty()
}

// Paths returns one KeyPath per key in keys that is present in the
// index, in the same relative order as keys. Keys absent from the
// index are silently omitted; the caller correlates by position in
// its own, separately-held key list.
func (idx *Index) Paths(keys [][]byte) []KeyPath {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	out := make([]KeyPath, 0, len(keys))
	for _, k := range keys {
		pos, ok := idx.positions[string(k)]
		if !ok {
			continue
		}
		out = append(out, KeyPath{Key: k, Path: idx.tree.path(pos)})
	}
	return out
}

// FindDifferences verifies each remote (key, path) pair against this
// index's own root and returns the keys whose verification failed —
// the keys where the remote peer's leaf hash differs from this
// index's, or is absent from it entirely. When the local tree is
// empty, every supplied key is reported as differing.
func (idx *Index) FindDifferences(remote []KeyPath) [][]byte {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	root := idx.tree.root()
	if idx.tree.empty() {
		out := make([][]byte, len(remote))
		for i, kp := range remote {
			out[i] = kp.Key
		}
		return out
	}

	var diffs [][]byte
	for _, kp := range remote {
		if !kp.Path.Verify(root) {
			diffs = append(diffs, kp.Key)
		}
	}
	return diffs
}
