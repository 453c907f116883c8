package innernode

import "github.com/turivl/ivtree/internal/binnode"
import "github.com/turivl/ivtree/internal/coord"

// RemoveOptions mirrors the façade's remove-time Props.
type RemoveOptions struct {
	ExactMatch bool
	ConvertTo  SlotKind
}

// Remove locates the slot containing target.Start(), recurses, and
// replaces a slot whose bin became empty with opts.ConvertTo. Rebalancing
// is not performed inline; the façade calls Restructure on the root after
// a batch of removals, per §4.2.
func (n *Node) Remove(target coord.Interval, opts RemoveOptions) {
	idx := n.indexContaining(target.Start())
	if n.reverseDepth > 0 {
		n.children[idx].(*Node).Remove(target, opts)
		return
	}
	slot := n.slotAt(idx)
	if slot.Kind != Loaded {
		return
	}
	stillLive := slot.Bin.Remove(binnode.RemoveOptions{ExactMatch: opts.ExactMatch, Target: target})
	if stillLive {
		return
	}
	n.children[idx] = &Slot{Kind: opts.ConvertTo, Start: slot.Start, End: slot.End}
	if idx > 0 && n.tryMergeAt(idx-1) {
		idx--
	}
	if idx+1 < len(n.children) {
		n.tryMergeAt(idx)
	}
}
