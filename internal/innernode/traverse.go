package innernode

import (
	"github.com/turivl/ivtree/internal/binnode"
	"github.com/turivl/ivtree/internal/coord"
)

// TraverseOptions mirrors the façade's traversal Props relevant to a node.
type TraverseOptions struct {
	Range        coord.Range
	AllowNull    bool
	BreakOnFalse bool
	NotFirstCall bool // set to true once the first bin has been visited
	DataFilter   func(coord.Interval) bool
	DataCallback func(coord.Interval) bool
	NodeFilter   func(*Node) bool
	NodeCallback func(*Node) bool
	BothCalls    bool
}

// Traverse descends into every slot whose key-span overlaps opts.Range,
// invoking callbacks per §4.2. It returns (keepGoing, err): keepGoing is
// false when a callback returned false and BreakOnFalse was set; err is
// ErrDataNotReady when an Unloaded slot was crossed without AllowNull.
func (n *Node) Traverse(opts *TraverseOptions) (bool, error) {
	rng := n.truncate(opts.Range)
	if !rng.Valid() {
		return true, nil
	}
	if opts.NodeFilter != nil && !opts.NodeFilter(n) {
		return true, nil
	}
	if opts.NodeCallback != nil {
		keepGoing := opts.NodeCallback(n)
		if !opts.BothCalls {
			if !keepGoing && opts.BreakOnFalse {
				return false, nil
			}
			return true, nil
		}
	}

	for i := 0; i < len(n.children); i++ {
		childStart, childEnd := n.keys[i], n.keys[i+1]
		if childEnd <= rng.Start || childStart >= rng.End {
			continue
		}
		sub := coord.Range{Chr: rng.Chr, Start: max64(childStart, rng.Start), End: min64(childEnd, rng.End)}

		if n.reverseDepth > 0 {
			child := n.children[i].(*Node)
			keepGoing, err := child.Traverse(opts)
			if err != nil {
				return false, err
			}
			if !keepGoing {
				return false, nil
			}
			continue
		}

		slot := n.children[i].(*Slot)
		switch slot.Kind {
		case Empty:
			continue
		case Unloaded:
			if opts.AllowNull {
				continue
			}
			return false, &ErrDataNotReady{Range: sub}
		case Loaded:
			keepGoing := slot.Bin.Traverse(binnode.TraverseOptions{
				First:        !opts.NotFirstCall,
				Range:        sub,
				DataFilter:   opts.DataFilter,
				DataCallback: opts.DataCallback,
				BreakOnFalse: opts.BreakOnFalse,
			})
			opts.NotFirstCall = true
			if !keepGoing {
				return false, nil
			}
		}
	}
	return true, nil
}

// UncachedRanges walks the same way as Traverse but appends the coordinate
// span of each Unloaded slot to out, in coordinate order. Touching spans
// from different children are not coalesced; the façade runs the result
// through coord.MergeRanges.
func (n *Node) UncachedRanges(rng coord.Range, out []coord.Range) []coord.Range {
	rng = n.truncate(rng)
	if !rng.Valid() {
		return out
	}
	for i := 0; i < len(n.children); i++ {
		childStart, childEnd := n.keys[i], n.keys[i+1]
		if childEnd <= rng.Start || childStart >= rng.End {
			continue
		}
		sub := coord.Range{Chr: rng.Chr, Start: max64(childStart, rng.Start), End: min64(childEnd, rng.End)}
		if n.reverseDepth > 0 {
			out = n.children[i].(*Node).UncachedRanges(sub, out)
			continue
		}
		if n.children[i].(*Slot).Kind == Unloaded {
			out = append(out, sub)
		}
	}
	return out
}

// ActiveAt returns the intervals already stored in the tree that are
// "active" at pos: those held in the startList/continuedList of the bin
// whose span contains pos. Used by the façade's pre-insertion hook to
// canonicalize an incoming continuedList against what is already stored, so
// a duplicate insert does not create a structurally-equal but distinct
// clone (§4.1 Pre-insertion hook).
func (n *Node) ActiveAt(pos int64) []coord.Interval {
	if pos < n.keys[0] || pos >= n.keys[len(n.keys)-1] {
		return nil
	}
	idx := n.indexContaining(pos)
	if n.reverseDepth > 0 {
		return n.children[idx].(*Node).ActiveAt(pos)
	}
	slot := n.children[idx].(*Slot)
	if slot.Kind != Loaded {
		return nil
	}
	out := make([]coord.Interval, 0, len(slot.Bin.StartList())+len(slot.Bin.ContinuedList()))
	out = append(out, slot.Bin.ContinuedList()...)
	out = append(out, slot.Bin.StartList()...)
	return out
}

// HasUncachedRange short-circuits on the first Unloaded slot encountered.
func (n *Node) HasUncachedRange(rng coord.Range) bool {
	rng = n.truncate(rng)
	if !rng.Valid() {
		return false
	}
	for i := 0; i < len(n.children); i++ {
		childStart, childEnd := n.keys[i], n.keys[i+1]
		if childEnd <= rng.Start || childStart >= rng.End {
			continue
		}
		sub := coord.Range{Chr: rng.Chr, Start: max64(childStart, rng.Start), End: min64(childEnd, rng.End)}
		if n.reverseDepth > 0 {
			if n.children[i].(*Node).HasUncachedRange(sub) {
				return true
			}
			continue
		}
		if n.children[i].(*Slot).Kind == Unloaded {
			return true
		}
	}
	return false
}
