package merkle

// tree is a balanced binary Merkle tree over an ordered sequence of
// leaf hashes, combining siblings with compress. Odd-sized levels are
// padded by duplicating the last node of that level as its own
// sibling, so the parent is compress(last, last).
type tree struct {
	levels [][]Hash // levels[0] is the leaf level; the last level holds only the root
}

// buildTree constructs a tree from leaves in order. An empty leaf set
// yields an empty tree (root() returns Zero).
func buildTree(leaves []Hash) *tree {
	if len(leaves) == 0 {
		return &tree{}
	}

	levels := make([][]Hash, 0, 1)
	level := make([]Hash, len(leaves))
	copy(level, leaves)
	levels = append(levels, level)

	for len(level) > 1 {
		next := make([]Hash, 0, (len(level)+1)/2)
		for i := 0; i < len(level); i += 2 {
			left := level[i]
			right := left
			if i+1 < len(level) {
				right = level[i+1]
			}
			next = append(next, compress(left, right))
		}
		levels = append(levels, next)
		level = next
	}
	return &tree{levels: levels}
}

func (t *tree) empty() bool {
	return len(t.levels) == 0
}

func (t *tree) size() int {
	if t.empty() {
		return 0
	}
	return len(t.levels[0])
}

// root returns the tree's root hash, or Zero if the tree is empty.
func (t *tree) root() Hash {
	if t.empty() {
		return Zero
	}
	top := t.levels[len(t.levels)-1]
	return top[0]
}

// path returns the authentication path for the leaf at position i.
func (t *tree) path(i int) Path {
	leaf := t.levels[0][i]
	if len(t.levels) == 1 {
		// Single-leaf tree: the leaf is the root, no siblings needed.
		return Path{Leaf: leaf}
	}

	siblings := make([]Hash, 0, len(t.levels)-1)
	onRight := make([]bool, 0, len(t.levels)-1)

	idx := i
	for level := 0; level < len(t.levels)-1; level++ {
		nodes := t.levels[level]
		if idx%2 == 0 {
			sib := nodes[idx]
			if idx+1 < len(nodes) {
				sib = nodes[idx+1]
			}
			siblings = append(siblings, sib)
			onRight = append(onRight, true) // sibling is to the right of idx
		} else {
			siblings = append(siblings, nodes[idx-1])
			onRight = append(onRight, false) // sibling is to the left of idx
		}
		idx /= 2
	}

	return Path{Leaf: leaf, Siblings: siblings, SiblingOnRight: onRight}
}
