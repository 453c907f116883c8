package ivtree

import (
	"fmt"

	"github.com/xlab/treeprint"

	"github.com/turivl/ivtree/internal/innernode"
)

// DebugString renders the tree's current shape as an indented text tree:
// one branch per inner node and leaf slot, annotated with its coordinate
// span, slot kind, and (for loaded bins) list lengths. Intended for test
// failure output and interactive debugging, not for parsing.
func (t *IntervalTree) DebugString() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	root := treeprint.NewWithRoot(fmt.Sprintf("ivtree %s", t.CoveringRange))
	renderNode(root, t.root)
	return root.String()
}

func renderNode(parent treeprint.Tree, n *innernode.Node) {
	start, end := n.Span()
	label := fmt.Sprintf("node[%d-%d] depth=%d children=%d", start, end, n.ReverseDepth(), n.ChildCount())
	branch := parent.AddBranch(label)
	n.EachChild(func(i int, childStart, childEnd int64, child any) {
		switch v := child.(type) {
		case *innernode.Node:
			renderNode(branch, v)
		case *innernode.Slot:
			branch.AddNode(renderSlot(childStart, childEnd, v))
		}
	})
}

func renderSlot(start, end int64, s *innernode.Slot) string {
	switch s.Kind {
	case innernode.Unloaded:
		return fmt.Sprintf("[%d-%d] unloaded", start, end)
	case innernode.Empty:
		return fmt.Sprintf("[%d-%d] empty", start, end)
	case innernode.Loaded:
		return fmt.Sprintf("[%d-%d] loaded start=%d continued=%d", start, end, len(s.Bin.StartList()), len(s.Bin.ContinuedList()))
	default:
		return fmt.Sprintf("[%d-%d] ?", start, end)
	}
}
