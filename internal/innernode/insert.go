package innernode

import (
	"errors"

	"github.com/turivl/ivtree/internal/binnode"
	"github.com/turivl/ivtree/internal/coord"
)

// InsertOptions mirrors the façade's insert-time Props relevant to a single
// node/bin (§6.1).
type InsertOptions struct {
	AddNew          bool
	AllowDuplicates bool
	DataCallback    func(entry coord.Interval, rng coord.Range)
}

// Insert truncates rng to this node's span and either descends (non-leaf
// path) or installs/updates leaf slots (leaf path), per spec §4.2.
func (n *Node) Insert(data []coord.Interval, rng coord.Range, continuedIn []coord.Interval, postRange *coord.Range, opts InsertOptions) (remaining []coord.Interval, continuedOut []coord.Interval, err error) {
	rng = n.truncate(rng)
	if !rng.Valid() {
		return data, continuedIn, nil
	}
	if n.reverseDepth > 0 {
		return n.insertNonLeaf(data, rng, continuedIn, postRange, opts)
	}
	return n.insertLeaf(data, rng, continuedIn, postRange, opts)
}

func (n *Node) insertNonLeaf(data []coord.Interval, rng coord.Range, continuedIn []coord.Interval, postRange *coord.Range, opts InsertOptions) ([]coord.Interval, []coord.Interval, error) {
	var errs []error
	for i := 0; i < len(n.children); i++ {
		childStart, childEnd := n.keys[i], n.keys[i+1]
		sub := coord.Range{Chr: rng.Chr, Start: max64(childStart, rng.Start), End: min64(childEnd, rng.End)}
		if !sub.Valid() {
			continue
		}
		child := n.children[i].(*Node)
		var cerr error
		data, continuedIn, cerr = child.Insert(data, sub, continuedIn, postRange, opts)
		if cerr != nil {
			errs = append(errs, cerr)
		}
	}
	n.rebuildKeys()
	return data, continuedIn, errors.Join(errs...)
}

// rebuildKeys recomputes keys from the current children's spans, tracking
// any splits/merges performed on descendants. Works whether children are
// *Node (reverseDepth>0) or *Slot (reverseDepth==0), since balancing moves
// whole leaf-level nodes between a reverseDepth-1 parent's children too.
func (n *Node) rebuildKeys() {
	if len(n.children) == 0 {
		return
	}
	keys := make([]int64, 0, len(n.children)+1)
	for i, c := range n.children {
		var start, end int64
		switch v := c.(type) {
		case *Node:
			start, end = v.Span()
		case *Slot:
			start, end = v.Start, v.End
		}
		if i == 0 {
			keys = append(keys, start)
		}
		keys = append(keys, end)
	}
	n.keys = keys
}

// insertLeaf implements the leaf path of §4.2: walk to the slot containing
// rng.Start, splitting at range/data boundaries as needed, and for each
// resulting sub-slot either create a bin and delegate, or mark the slot
// Empty as an interior empty run. Neighboring slots are merged where
// possible after each decision.
//
// Splitting an already-Loaded slot is not performed here: the façade only
// ever drives Insert over sub-ranges it has determined are still Unloaded
// (or, under LocalOnly, the caller-supplied range directly), so a boundary
// landing inside a Loaded slot is handled by letting that bin's own Insert
// fold the overhanging portion into its continuedList machinery instead of
// physically splitting the bin.
func (n *Node) insertLeaf(data []coord.Interval, rng coord.Range, continuedIn []coord.Interval, postRange *coord.Range, opts InsertOptions) ([]coord.Interval, []coord.Interval, error) {
	idx := n.indexContaining(rng.Start)
	if n.keys[idx] != rng.Start {
		if n.slotAt(idx).Kind != Loaded {
			n.splitFillerAt(idx, rng.Start)
			idx++
		}
	}

	for cur := n.keys[idx]; cur < rng.End && idx < len(n.children); {
		slot := n.slotAt(idx)
		boundary := n.nextInterestingCoord(data, slot, rng.End)
		if boundary < n.keys[idx+1] && slot.Kind != Loaded {
			n.splitFillerAt(idx, boundary)
		}
		slot = n.slotAt(idx)
		start, end := n.keys[idx], n.keys[idx+1]

		hasContinued := len(continuedIn) > 0
		hasDataHere := len(data) > 0 && data[0].Start() <= start && data[0].Start() < end

		switch {
		case hasContinued || hasDataHere || slot.Kind == Loaded:
			var bin *binnode.Bin
			if slot.Kind == Loaded {
				bin = slot.Bin
			} else {
				bin = binnode.New(start)
			}
			var rem, cont []coord.Interval
			bin, rem, cont = bin.Insert(data, rng, continuedIn, postRange, binnode.InsertOptions{
				AddNew:          opts.AddNew,
				AllowDuplicates: opts.AllowDuplicates,
				DataCallback:    opts.DataCallback,
			})
			data, continuedIn = rem, cont
			n.children[idx] = &Slot{Kind: Loaded, Start: start, End: end, Bin: bin}
		default:
			n.children[idx] = &Slot{Kind: Empty, Start: start, End: end}
		}

		if idx > 0 {
			if n.tryMergeAt(idx - 1) {
				idx--
			}
		}

		cur = n.keys[idx+1]
		idx++
	}
	// Only entries reaching past rng.End can flow into a later bin.
	carried := continuedIn[:0:0]
	for _, iv := range continuedIn {
		if iv.End() > rng.End {
			carried = append(carried, iv)
		}
	}
	return data, carried, nil
}

func (n *Node) slotAt(i int) *Slot { return n.children[i].(*Slot) }

// nextInterestingCoord finds the coordinate that should end the current
// slot: either the next interval start appearing in data within the slot,
// or the end of the slot itself, clamped to the insertion range's end.
func (n *Node) nextInterestingCoord(data []coord.Interval, slot *Slot, rngEnd int64) int64 {
	limit := min64(slot.End, rngEnd)
	for _, iv := range data {
		if iv.Start() <= slot.Start {
			continue
		}
		if iv.Start() < limit {
			return iv.Start()
		}
		break
	}
	return limit
}

// splitFillerAt inserts newKey into keys at idx+1 and duplicates the filler
// at idx into two adjacent slots sharing that filler's Kind. Per spec, this
// path only ever runs against Unloaded/Empty slots; a populated bin's split
// must be performed with both halves supplied explicitly, which insertLeaf
// avoids triggering (see its doc comment).
func (n *Node) splitFillerAt(idx int, newKey int64) {
	old := n.slotAt(idx)
	left := &Slot{Kind: old.Kind, Start: old.Start, End: newKey}
	right := &Slot{Kind: old.Kind, Start: newKey, End: old.End}
	n.keys = insertKeyAt(n.keys, idx+1, newKey)
	n.children[idx] = left
	n.children = insertChildAt(n.children, idx+1, right)
}

// tryMergeAt attempts binnode.MergeAfter between slots at i and i+1 (or the
// equal-filler merge for Unloaded/Empty pairs). Returns true if the merge
// succeeded and the slot at i+1 was absorbed into i.
func (n *Node) tryMergeAt(i int) bool {
	if i < 0 || i+1 >= len(n.children) {
		return false
	}
	left, ok1 := n.children[i].(*Slot)
	right, ok2 := n.children[i+1].(*Slot)
	if !ok1 || !ok2 {
		return false
	}
	merged := false
	switch {
	case left.Kind != Loaded && left.Kind == right.Kind:
		merged = true
	case left.Kind == Loaded && right.Kind != Loaded && left.Bin.IsEmpty():
		// an empty bin bordering a filler of the same semantics collapses
		// trivially; otherwise fall through to MergeAfter below.
		merged = false
	}
	if left.Kind == Loaded {
		if right.Kind == Loaded {
			merged = left.Bin.MergeAfter(right.Bin)
		} else if right.Kind == Empty && left.Bin.IsEmpty() {
			merged = true
		}
	}
	if !merged {
		return false
	}
	n.keys = deleteKeyAt(n.keys, i+1)
	left.End = right.End
	if left.Kind == Loaded {
		left.End = right.End
	}
	n.children = deleteChildAt(n.children, i+1)
	return true
}

func insertKeyAt(keys []int64, pos int, v int64) []int64 {
	keys = append(keys, 0)
	copy(keys[pos+1:], keys[pos:])
	keys[pos] = v
	return keys
}

func deleteKeyAt(keys []int64, pos int) []int64 {
	copy(keys[pos:], keys[pos+1:])
	return keys[:len(keys)-1]
}

func insertChildAt(children []any, pos int, v any) []any {
	children = append(children, nil)
	copy(children[pos+1:], children[pos:])
	children[pos] = v
	return children
}

func deleteChildAt(children []any, pos int) []any {
	copy(children[pos:], children[pos+1:])
	return children[:len(children)-1]
}
