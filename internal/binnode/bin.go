// Package binnode implements the leaf-level storage unit of the interval
// index: a DataBin holding the intervals that start at, or continue through,
// a single coordinate (C2 in the design).
package binnode

import (
	"errors"
	"sort"

	"github.com/turivl/ivtree/internal/coord"
)

// ErrInconsistentContinuedList is raised by PreInsertion when a stored
// interval precedes an external entry claiming the same start but disagreeing
// with it structurally.
var ErrInconsistentContinuedList = errors.New("binnode: inconsistent continued list")

// Bin is the leaf-level storage unit for a contiguous sub-range (C2
// DataBin). Both lists are kept ordered by coord.Compare.
type Bin struct {
	start         int64
	startList     []coord.Interval
	continuedList []coord.Interval
}

// New creates an empty bin starting at start.
func New(start int64) *Bin {
	return &Bin{start: start}
}

// NewWithLists creates a bin with pre-populated, already-sorted lists.
func NewWithLists(start int64, startList, continuedList []coord.Interval) *Bin {
	return &Bin{start: start, startList: startList, continuedList: continuedList}
}

// Start returns the bin's start coordinate.
func (b *Bin) Start() int64 { return b.start }

// StartList returns the intervals whose start equals the bin's coordinate.
func (b *Bin) StartList() []coord.Interval { return b.startList }

// ContinuedList returns the intervals flowing into this bin from the left.
func (b *Bin) ContinuedList() []coord.Interval { return b.continuedList }

// IsEmpty reports whether both lists are empty.
func (b *Bin) IsEmpty() bool {
	return len(b.startList) == 0 && len(b.continuedList) == 0
}

// Clone returns a shallow, independently-sliceable copy of the bin. The
// interval elements themselves are shared (they are owned by the façade, not
// the bin).
func (b *Bin) Clone() *Bin {
	return &Bin{
		start:         b.start,
		startList:     append([]coord.Interval(nil), b.startList...),
		continuedList: append([]coord.Interval(nil), b.continuedList...),
	}
}

// InsertOptions controls Bin.Insert (§4.1).
type InsertOptions struct {
	AddNew          bool
	AllowDuplicates bool
	DataIndex       *int
	DataCallback    func(entry coord.Interval, rng coord.Range)
}

// Insert threads the sorted batch data into the bin, per spec §4.1's
// five-step procedure. continuedIn is the raw (unfiltered) carry-forward
// list handed down from the previous bin in document order: the union of
// that bin's own startList and continuedList. Insert returns the bin
// itself, the data slice remaining for the next bin (unchanged when
// opts.DataIndex is set — the caller advances that index instead), and the
// raw carry-forward list to hand to the next bin's Insert call.
func (b *Bin) Insert(data []coord.Interval, insertRange coord.Range, continuedIn []coord.Interval, postRange *coord.Range, opts InsertOptions) (self *Bin, remaining []coord.Interval, continuedOut []coord.Interval) {
	i := 0

	// Step 1: fold entries starting strictly before this bin into the
	// carry-forward list.
	for i < len(data) && data[i].Start() < b.start {
		continuedIn = append(continuedIn, data[i])
		if opts.DataCallback != nil {
			opts.DataCallback(data[i], insertRange)
		}
		i++
	}

	// Step 2: merge the (now possibly extended) carry-forward list into
	// this bin's continuedList, dropping anything that can no longer reach
	// this bin.
	alive := make([]coord.Interval, 0, len(continuedIn))
	for _, iv := range continuedIn {
		if iv.End() > b.start {
			alive = append(alive, iv)
		}
	}
	b.continuedList = mergeDistinctSorted(b.continuedList, alive)

	// Step 3: advance through entries starting exactly at this bin.
	j := i
	for j < len(data) && data[j].Start() == b.start {
		if opts.DataCallback != nil {
			opts.DataCallback(data[j], insertRange)
		}
		j++
	}
	atStart := data[i:j]
	if len(atStart) > 0 {
		if !opts.AddNew {
			b.startList = append([]coord.Interval(nil), atStart...)
		} else {
			b.startList = mergeAppend(b.startList, atStart, opts.AllowDuplicates)
		}
	}

	// Step 4: extend the post-insertion op range with the max end seen
	// amongst this bin's own entries.
	if postRange != nil {
		for _, iv := range b.startList {
			if iv.End() > postRange.End {
				postRange.End = iv.End()
			}
		}
		for _, iv := range b.continuedList {
			if iv.End() > postRange.End {
				postRange.End = iv.End()
			}
		}
	}

	// Step 5: advance the cursor.
	if opts.DataIndex != nil {
		*opts.DataIndex += j
		remaining = data
	} else {
		remaining = data[j:]
	}

	carryOut := make([]coord.Interval, 0, len(b.startList)+len(b.continuedList))
	carryOut = append(carryOut, b.continuedList...)
	carryOut = append(carryOut, b.startList...)
	sort.SliceStable(carryOut, func(x, y int) bool { return coord.Compare(carryOut[x], carryOut[y]) < 0 })

	return b, remaining, carryOut
}

// RemoveOptions controls Bin.Remove.
type RemoveOptions struct {
	ExactMatch bool
	Target     coord.Interval
}

// Remove strips entries from startList whose start matches opts.Target's
// start (narrowed by structural equality when opts.ExactMatch is set).
// Reports false when the bin has become empty and should be replaced by its
// caller with a filler slot.
func (b *Bin) Remove(opts RemoveOptions) (stillLive bool) {
	out := b.startList[:0:0]
	for _, iv := range b.startList {
		if iv.Start() != opts.Target.Start() {
			out = append(out, iv)
			continue
		}
		if opts.ExactMatch && !coord.Equal(iv, opts.Target) {
			out = append(out, iv)
			continue
		}
	}
	b.startList = out
	return !b.IsEmpty()
}

// TraverseOptions controls Bin.Traverse.
type TraverseOptions struct {
	First        bool
	Range        coord.Range
	DataFilter   func(coord.Interval) bool
	DataCallback func(coord.Interval) bool
	BreakOnFalse bool
}

// Traverse invokes opts.DataCallback on every matching interval. When First
// is set (the first bin visited in a traversal) both lists are scanned;
// otherwise only startList is, so that an interval spanning many bins is
// still visited exactly once. Returns false when the traversal should stop
// (a callback returned false and BreakOnFalse is set).
func (b *Bin) Traverse(opts TraverseOptions) bool {
	visit := func(iv coord.Interval) bool {
		if !coord.Overlaps(iv, opts.Range) {
			return true
		}
		if opts.DataFilter != nil && !opts.DataFilter(iv) {
			return true
		}
		keepGoing := true
		if opts.DataCallback != nil {
			keepGoing = opts.DataCallback(iv)
		}
		if !keepGoing && opts.BreakOnFalse {
			return false
		}
		return true
	}
	if opts.First {
		for _, iv := range b.continuedList {
			if !visit(iv) {
				return false
			}
		}
	}
	for _, iv := range b.startList {
		if !visit(iv) {
			return false
		}
	}
	return true
}

// MergeAfter attempts to fully absorb right into b. When right's startList
// is empty, right holds nothing of its own — any entry it continues is
// already one of b's own entries — so MergeAfter folds right's
// continuedList (never b's own startList, which stays exactly where it
// is) into b's continuedList and returns true; the caller should discard
// right. Otherwise MergeAfter fails (returns false) but still projects
// b's startList++continuedList forward into right's continuedList in
// place, preserving the identity of any interval already present on the
// right (never clobbering it with a structurally-equal foreign copy).
func (b *Bin) MergeAfter(right *Bin) bool {
	if len(right.startList) == 0 {
		b.continuedList = mergeDistinctSorted(b.continuedList, right.continuedList)
		return true
	}
	incoming := make([]coord.Interval, 0, len(b.startList)+len(b.continuedList))
	incoming = append(incoming, b.continuedList...)
	incoming = append(incoming, b.startList...)
	right.continuedList = projectForward(incoming, right.continuedList)
	return false
}

// PreInsertion lifts entries from data whose start precedes insertRange.Start
// into the continued-list, then canonicalizes the result against the
// intervals the tree already stores immediately to the left of
// insertRange.Start (alreadyStored) — so that re-inserting the same region
// does not create a structurally-equal but distinct clone in continuedList.
func PreInsertion(data []coord.Interval, insertRange coord.Range, continued []coord.Interval, alreadyStored []coord.Interval) (remaining []coord.Interval, canonical []coord.Interval, err error) {
	i := 0
	for i < len(data) && data[i].Start() < insertRange.Start {
		continued = append(continued, data[i])
		i++
	}
	out := make([]coord.Interval, 0, len(continued))
	for _, iv := range continued {
		canon := iv
		for _, stored := range alreadyStored {
			if stored.Start() != iv.Start() {
				continue
			}
			if coord.Equal(stored, iv) {
				canon = stored
			} else {
				return nil, nil, ErrInconsistentContinuedList
			}
			break
		}
		out = append(out, canon)
	}
	sort.SliceStable(out, func(x, y int) bool { return coord.Compare(out[x], out[y]) < 0 })
	return data[i:], out, nil
}

// mergeDistinctSorted merges base (already sorted) with extra (already sorted),
// dropping any element of extra that is reference-identical or structurally
// equal to one already present in base.
func mergeDistinctSorted(base, extra []coord.Interval) []coord.Interval {
	if len(extra) == 0 {
		return base
	}
	out := append([]coord.Interval(nil), base...)
	for _, iv := range extra {
		if containsIdentity(out, iv) || containsEqual(out, iv) {
			continue
		}
		out = append(out, iv)
	}
	sort.SliceStable(out, func(x, y int) bool { return coord.Compare(out[x], out[y]) < 0 })
	return out
}

// mergeAppend merge-appends incoming entries into base, re-sorting. When
// allowDuplicates is false, structurally-equal entries are suppressed.
func mergeAppend(base, incoming []coord.Interval, allowDuplicates bool) []coord.Interval {
	out := append([]coord.Interval(nil), base...)
	for _, iv := range incoming {
		if !allowDuplicates && containsEqual(out, iv) {
			continue
		}
		out = append(out, iv)
	}
	sort.SliceStable(out, func(x, y int) bool { return coord.Compare(out[x], out[y]) < 0 })
	return out
}

// projectForward merges incoming into existing, never replacing an existing
// entry with a structurally-equal foreign clone.
func projectForward(incoming, existing []coord.Interval) []coord.Interval {
	out := append([]coord.Interval(nil), existing...)
	for _, iv := range incoming {
		if containsIdentity(out, iv) || containsEqual(out, iv) {
			continue
		}
		out = append(out, iv)
	}
	sort.SliceStable(out, func(x, y int) bool { return coord.Compare(out[x], out[y]) < 0 })
	return out
}

func containsIdentity(list []coord.Interval, iv coord.Interval) bool {
	for _, x := range list {
		if x == iv {
			return true
		}
	}
	return false
}

func containsEqual(list []coord.Interval, iv coord.Interval) bool {
	for _, x := range list {
		if coord.Equal(x, iv) {
			return true
		}
	}
	return false
}
