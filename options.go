package ivtree

// InsertProps holds the options recognized by Insert (§6.1). The zero value
// is the spec's default behavior: data is treated as authoritative
// (AddNew/AllowDuplicates false), no extra callbacks fire.
type InsertProps struct {
	// ContinuedList seeds the carry-forward list of an insert. Insert adds
	// it to the continued list of every sub-range it processes; nothing is
	// carried from one sub-range to the next.
	ContinuedList []Interval

	// AddNew, when true, merge-appends new entries into a bin's startList
	// instead of replacing it outright.
	AddNew bool

	// AllowDuplicates, when true (and AddNew is set), permits
	// structurally-equal entries to coexist in a startList.
	AllowDuplicates bool

	// DataCallback fires once per inserted interval, in document order.
	DataCallback func(entry Interval, rng Range)
}

// RemoveProps holds the options recognized by Remove (§6.1).
type RemoveProps struct {
	// ExactMatch narrows removal to entries whose coordinates AND value
	// equality both match target, rather than coordinate alone.
	ExactMatch bool

	// ConvertTo selects the filler slot installed in place of a bin that
	// became empty. Zero value (SlotUnloaded) is the façade's default
	// outside LocalOnly trees; LocalOnly trees always use SlotEmpty
	// regardless of this field.
	ConvertTo FillerKind
}

// FillerKind names the two filler variants a slot can collapse to.
type FillerKind uint8

const (
	SlotUnloaded FillerKind = iota
	SlotEmpty
)

// TraverseProps holds the options recognized by Traverse (§6.1).
type TraverseProps struct {
	// DataCallback fires on each interval overlapping the traversal range
	// that survives DataFilter; returning false requests early stop (only
	// honored when BreakOnFalse is set).
	DataCallback func(entry Interval) bool

	// DataFilter, when non-nil, skips intervals for which it returns false
	// without firing DataCallback on them and without counting as a
	// break-on-false signal.
	DataFilter func(entry Interval) bool

	// NodeCallback, when non-nil, is invoked with a read-only view of each
	// visited inner-node subtree before its children are descended.
	NodeCallback func(NodeView) bool

	// NodeFilter, when non-nil, skips an entire subtree (and its children)
	// when it returns false.
	NodeFilter func(NodeView) bool

	// BothCalls controls whether firing NodeCallback still lets
	// DataCallback run for the same subtree. False (default): a node
	// callback suppresses the data callback for that subtree.
	BothCalls bool

	// DoNotWither suppresses the generation advance and wither scheduling
	// this traversal would otherwise trigger on exit.
	DoNotWither bool

	// AllowNull permits traversal over Unloaded slots (skipping them)
	// instead of failing with DataNotReadyError.
	AllowNull bool

	// BreakOnFalse aborts the traversal as soon as any callback returns
	// false, propagating that result to the traversal's own return value.
	BreakOnFalse bool
}

// UncachedRangeProps holds the options recognized by GetUncachedRange.
type UncachedRangeProps struct {
	// Result, when non-nil, is used as the pre-seeded accumulator (§6.1's
	// `_result`) instead of allocating a fresh slice.
	Result []Range
}

// NodeView is the read-only view of an inner-node subtree a NodeCallback or
// NodeFilter is handed. It intentionally exposes only span/shape, not the
// node's internal slot representation.
type NodeView struct {
	Range        Range
	ReverseDepth int
	ChildCount   int
}
