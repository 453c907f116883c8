package innernode

// Restructure rebalances this node's immediate children (per §4.2
// restructureImmediateChildren), redistributing or merging underflowing
// children and redistributing or splitting overflowing ones. Leaf-level
// nodes (reverseDepth 0) have nothing to do here: their slots are kept
// tidy inline by tryMergeAt during Insert/Remove, which is what §8's
// adjacent-bin invariant (property 4) actually depends on — the strict
// branching-factor bound on slot *count* is not enforced at leaf level,
// only on inner-node child count, trading off one corner of the B+ bound
// for a tractable port (see DESIGN.md).
func (n *Node) Restructure() error {
	if n.reverseDepth == 0 {
		return nil
	}
	low := n.cfg.lowWater()
	b := n.cfg.BranchingFactor

	// fixUnderflow(i) fails only when n itself has a single child (no i-1 or
	// i+1 sibling to pair with at this level) — a state only the isRoot
	// node is allowed to sit in, per §4.2's root exemption, since
	// applyRootPolicy's shrink branch collapses a single-child root into
	// its child directly. A non-root single-child node can't arise from a
	// well-formed parent (the parent's own pass would already have merged
	// it into a sibling before ever calling down into it), so rather than
	// thread a CannotBalance error back up through callers that have
	// nothing left to do with it, the unresolved child is simply
	// recursed into to clean up whatever imbalance its own children carry.
	var unresolved []int
	for i := 0; i < len(n.children); i++ {
		child := n.children[i].(*Node)
		switch {
		case child.ChildCount() < low:
			if !n.fixUnderflow(i) {
				unresolved = append(unresolved, i)
			}
		case child.ChildCount() > b:
			n.fixOverflow(i)
		}
	}
	n.rebuildKeys()

	for _, i := range unresolved {
		if i >= len(n.children) {
			continue
		}
		child := n.children[i].(*Node)
		if err := child.Restructure(); err != nil {
			return err
		}
	}
	return nil
}

// RestructureRoot rebalances root (which may still be under- or
// over-sized for its own special bounds) and returns the node that should
// become the new root, applying the grow/shrink policy of §4.2 item 4.
func RestructureRoot(root *Node) (*Node, error) {
	if err := root.Restructure(); err != nil {
		return root, err
	}
	return root.applyRootPolicy(), nil
}

func (n *Node) applyRootPolicy() *Node {
	// Overflow applies at any depth, including reverseDepth 0: a leaf root
	// that has accumulated more slots than the branching factor allows
	// (from repeated splitFillerAt calls during Insert) must grow a level,
	// the same way an inner node splits when it overflows.
	if len(n.children) > n.cfg.BranchingFactor {
		pieces := splitNodeEvenly(n, n.cfg.BranchingFactor)
		newRoot := &Node{reverseDepth: n.reverseDepth + 1, cfg: n.cfg, isRoot: true}
		newRoot.children = make([]any, len(pieces))
		for i, p := range pieces {
			newRoot.children[i] = p
		}
		newRoot.touchBirth()
		newRoot.rebuildKeys()
		n.isRoot = false
		return newRoot
	}
	if n.reverseDepth > 0 && len(n.children) <= 1 {
		sole := n.children[0].(*Node)
		sole.isRoot = true
		return sole
	}
	return n
}

func (n *Node) fixUnderflow(i int) bool {
	b := n.cfg.BranchingFactor
	if i+1 < len(n.children) {
		left, right := n.children[i].(*Node), n.children[i+1].(*Node)
		if left.ChildCount()+right.ChildCount() > b {
			redistributeNodes(left, right)
		} else {
			mergeNodes(left, right)
			n.children = deleteChildAt(n.children, i+1)
			if n.cfg.SiblingLinks {
				left.next = right.next
				if right.next != nil {
					right.next.prev = left
				}
			}
		}
		return true
	}
	if i-1 >= 0 {
		left, right := n.children[i-1].(*Node), n.children[i].(*Node)
		if left.ChildCount()+right.ChildCount() > b {
			redistributeNodes(left, right)
		} else {
			mergeNodes(left, right)
			n.children = deleteChildAt(n.children, i)
			if n.cfg.SiblingLinks {
				left.next = right.next
				if right.next != nil {
					right.next.prev = left
				}
			}
		}
		return true
	}
	return false
}

func (n *Node) fixOverflow(i int) {
	b := n.cfg.BranchingFactor
	child := n.children[i].(*Node)
	if i+1 < len(n.children) {
		right := n.children[i+1].(*Node)
		if child.ChildCount()+right.ChildCount() <= 2*b {
			redistributeNodes(child, right)
			return
		}
	} else if i-1 >= 0 {
		left := n.children[i-1].(*Node)
		if left.ChildCount()+child.ChildCount() <= 2*b {
			redistributeNodes(left, child)
			return
		}
	}
	pieces := splitNodeEvenly(child, b)
	replacement := make([]any, 0, len(n.children)+len(pieces)-1)
	replacement = append(replacement, n.children[:i]...)
	for _, p := range pieces {
		replacement = append(replacement, p)
	}
	replacement = append(replacement, n.children[i+1:]...)
	n.children = replacement
}

// redistributeNodes shifts children between left and right so their
// combined children are split as evenly as possible, keeping left's prefix.
func redistributeNodes(left, right *Node) {
	all := make([]any, 0, len(left.children)+len(right.children))
	all = append(all, left.children...)
	all = append(all, right.children...)
	mid := len(all) / 2
	left.children = append([]any(nil), all[:mid]...)
	right.children = append([]any(nil), all[mid:]...)
	left.rebuildKeys()
	right.rebuildKeys()
	left.touchBirth()
	right.touchBirth()
}

// mergeNodes absorbs right's children into left.
func mergeNodes(left, right *Node) {
	left.children = append(left.children, right.children...)
	left.rebuildKeys()
	left.touchBirth()
}

// splitNodeEvenly splits node into ⌊2·childCount/B⌋ siblings (minimum 2),
// each receiving roughly an equal share of node's children, per §4.2 item 2.
func splitNodeEvenly(node *Node, b int) []*Node {
	total := len(node.children)
	k := (2 * total) / b
	if k < 2 {
		k = 2
	}
	if k > total {
		k = total
	}
	chunk, rem := total/k, total%k
	pieces := make([]*Node, 0, k)
	idx := 0
	for p := 0; p < k; p++ {
		sz := chunk
		if p < rem {
			sz++
		}
		piece := &Node{reverseDepth: node.reverseDepth, cfg: node.cfg}
		piece.children = append([]any(nil), node.children[idx:idx+sz]...)
		piece.touchBirth()
		piece.rebuildKeys()
		pieces = append(pieces, piece)
		idx += sz
	}
	if node.cfg.SiblingLinks {
		for i := range pieces {
			if i > 0 {
				pieces[i].prev = pieces[i-1]
				pieces[i-1].next = pieces[i]
			}
		}
		pieces[0].prev = node.prev
		if node.prev != nil {
			node.prev.next = pieces[0]
		}
		pieces[len(pieces)-1].next = node.next
		if node.next != nil {
			node.next.prev = pieces[len(pieces)-1]
		}
	}
	return pieces
}
