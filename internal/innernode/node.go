// Package innernode implements the B+-tree-derived index node of the
// interval tree (C3): a node indexed by coordinate whose children are either
// further nodes or, at reverseDepth 0, leaf-level slots.
package innernode

import (
	"github.com/turivl/ivtree/internal/binnode"
	"github.com/turivl/ivtree/internal/coord"
)

// SlotKind distinguishes the three states a leaf-level slot may be in.
type SlotKind uint8

const (
	Unloaded SlotKind = iota
	Empty
	Loaded
)

// Slot is one leaf-level child: data has not been fetched (Unloaded), the
// sub-range is known empty (Empty), or it holds a populated Bin (Loaded).
type Slot struct {
	Kind  SlotKind
	Start int64
	End   int64
	Bin   *binnode.Bin
}

func (s *Slot) clone() *Slot {
	c := *s
	return &c
}

// ErrDataNotReady is returned by Traverse when an Unloaded slot is crossed
// and the caller has not set AllowNull.
type ErrDataNotReady struct {
	Range coord.Range
}

func (e *ErrDataNotReady) Error() string {
	return "innernode: data not ready for range " + e.Range.String()
}

// Config carries the construction-time parameters shared by every node in
// a tree.
type Config struct {
	BranchingFactor int
	SiblingLinks    bool
	LocalOnly       bool
	// GenProvider, when non-nil, supplies the tree's current generation at
	// node-construction time; every node constructed under a wither-enabled
	// tree records it as BirthGen. lifeSpan==0 (no GenProvider) means
	// "never expire" per spec §4.4.
	GenProvider func() uint64
}

func (c Config) fillerKind() SlotKind {
	if c.LocalOnly {
		return Empty
	}
	return Unloaded
}

func (c Config) lowWater() int {
	b := c.BranchingFactor
	return (b + 1) / 2
}

// Node is an inner node of the index (C3).
type Node struct {
	keys            []int64
	children        []any // *Node when ReverseDepth>0, *Slot when ReverseDepth==0
	reverseDepth    int
	isRoot          bool
	cfg             Config
	prev, next      *Node
	birthGen        uint64
}

// NewLeafRoot creates a single-slot root node covering [start,end) at
// reverseDepth 0, with the filler appropriate to cfg (Unloaded unless
// LocalOnly).
func NewLeafRoot(start, end int64, cfg Config) *Node {
	n := &Node{
		keys:         []int64{start, end},
		children:     []any{&Slot{Kind: cfg.fillerKind(), Start: start, End: end}},
		reverseDepth: 0,
		isRoot:       true,
		cfg:          cfg,
	}
	n.touchBirth()
	return n
}

func (n *Node) touchBirth() {
	if n.cfg.GenProvider != nil {
		n.birthGen = n.cfg.GenProvider()
	}
}

// BirthGen returns the generation this node was constructed (or last
// reconstructed) in.
func (n *Node) BirthGen() uint64 { return n.birthGen }

// ReverseDepth returns the node's distance from the leaves (0 at leaf
// level).
func (n *Node) ReverseDepth() int { return n.reverseDepth }

// ChildCount returns the number of children/slots this node holds.
func (n *Node) ChildCount() int { return len(n.children) }

// IsRoot reports whether this node is the current root of its tree.
func (n *Node) IsRoot() bool { return n.isRoot }

// SetRoot updates the node's root flag (used by the façade when growing or
// shrinking the tree).
func (n *Node) SetRoot(v bool) { n.isRoot = v }

// Span returns the node's covering [start,end).
func (n *Node) Span() (int64, int64) { return n.keys[0], n.keys[len(n.keys)-1] }

// EachChild calls fn once per child, in order, with the child's own
// [start,end) span and its value (*Node when ReverseDepth()>0, *Slot when
// ReverseDepth()==0). Exported for diagnostics (DebugString) that need to
// walk a node's shape without reaching into its internals.
func (n *Node) EachChild(fn func(i int, start, end int64, child any)) {
	for i, c := range n.children {
		fn(i, n.keys[i], n.keys[i+1], c)
	}
}

// SetSiblings wires prev/next, per spec recursively wiring boundary
// children so a leaf-level scan can walk linearly.
func (n *Node) SetSiblings(prev, next *Node) {
	n.prev, n.next = prev, next
	if !n.cfg.SiblingLinks {
		return
	}
	if n.reverseDepth > 0 && len(n.children) > 0 {
		if prev != nil {
			left := n.children[0].(*Node)
			left.SetSiblings(lastChildNode(prev), left.next)
		}
		if next != nil {
			right := n.children[len(n.children)-1].(*Node)
			right.SetSiblings(right.prev, firstChildNode(next))
		}
	}
}

func firstChildNode(n *Node) *Node {
	if n.reverseDepth == 0 {
		return nil
	}
	return n.children[0].(*Node)
}

func lastChildNode(n *Node) *Node {
	if n.reverseDepth == 0 {
		return nil
	}
	return n.children[len(n.children)-1].(*Node)
}

func max64(a, b int64) int64 {
	if a > b {
		return a
	}
	return b
}

func min64(a, b int64) int64 {
	if a < b {
		return a
	}
	return b
}

// truncate clips rng to this node's own span.
func (n *Node) truncate(rng coord.Range) coord.Range {
	start, end := n.Span()
	return coord.Range{Chr: rng.Chr, Start: max64(rng.Start, start), End: min64(rng.End, end)}
}

// indexContaining returns the index of the child whose [keys[i],keys[i+1])
// span contains pos (clamped to the last child when pos==the node's own
// end).
func (n *Node) indexContaining(pos int64) int {
	lo, hi := 0, len(n.children)-1
	for lo < hi {
		mid := (lo + hi + 1) / 2
		if n.keys[mid] <= pos {
			lo = mid
		} else {
			hi = mid - 1
		}
	}
	return lo
}
