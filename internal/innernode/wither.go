package innernode

// maxGeneration bounds the wither generation counter's modular arithmetic,
// per spec §4.4 ("≈ 2^53 - 100"). Duplicated from package wither (which
// owns the live counter) to keep this package free of a dependency on it.
const maxGeneration = (uint64(1) << 53) - 100

func genAge(curr, birth uint64) uint64 {
	if curr >= birth {
		return curr - birth
	}
	return (maxGeneration - birth) + curr
}

// Wither collapses every child subtree whose age (currGen - BirthGen, with
// wraparound) exceeds lifeSpan into a single-slot leaf node covering the
// same span, filled per n.cfg (Unloaded unless LocalOnly). It only
// inspects nodes at reverseDepth>0: a leaf-level node (reverseDepth 0) has
// no further subtree to collapse, only slots, and slot-level aging is not
// part of this spec — only whole subtrees age out. Returns true if
// anything was withered, signaling the caller to Restructure afterward.
func (n *Node) Wither(currGen, lifeSpan uint64) bool {
	if lifeSpan == 0 || n.reverseDepth == 0 {
		return false
	}
	changed := false
	for i, c := range n.children {
		child := c.(*Node)
		if genAge(currGen, child.birthGen) > lifeSpan {
			start, end := child.Span()
			collapsed := NewLeafRoot(start, end, n.cfg)
			collapsed.isRoot = false
			n.children[i] = collapsed
			changed = true
			continue
		}
		if child.Wither(currGen, lifeSpan) {
			changed = true
		}
	}
	if changed {
		n.touchBirth()
	}
	return changed
}
