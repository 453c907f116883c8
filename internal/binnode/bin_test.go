package binnode

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/turivl/ivtree/internal/coord"
)

// testInterval carries a tag that EqualTo ignores but Go's == does not, so
// tests can construct two structurally-equal-but-distinct values (a
// "foreign clone") and tell them apart from the original by identity,
// mirroring how real payload-bearing intervals behave.
type testInterval struct {
	chr        string
	start, end int64
	tag        string
}

func (v testInterval) Chr() string          { return v.chr }
func (v testInterval) Start() int64         { return v.start }
func (v testInterval) End() int64           { return v.end }
func (v testInterval) Strand() coord.Strand { return coord.StrandNone }
func (v testInterval) String() string {
	return coord.Range{Chr: v.chr, Start: v.start, End: v.end}.String()
}

func (v testInterval) EqualTo(other coord.Interval) bool {
	o, ok := other.(testInterval)
	return ok && v.chr == o.chr && v.start == o.start && v.end == o.end
}

func iv(start, end int64) testInterval { return testInterval{chr: "chr1", start: start, end: end} }

func ivTagged(start, end int64, tag string) testInterval {
	return testInterval{chr: "chr1", start: start, end: end, tag: tag}
}

func names(ivs []coord.Interval) []string {
	out := make([]string, len(ivs))
	for i, v := range ivs {
		out[i] = v.(testInterval).String()
	}
	return out
}

func TestBinInsertStartList(t *testing.T) {
	b := New(5)
	data := []coord.Interval{iv(5, 10), iv(5, 20), iv(6, 7)}
	_, remaining, _ := b.Insert(data, coord.Range{Chr: "chr1", Start: 5, End: 10}, nil, nil, InsertOptions{})

	if diff := cmp.Diff([]string{"chr1:5-10", "chr1:5-20"}, names(b.StartList())); diff != "" {
		t.Errorf("startList mismatch (-want +got):\n%s", diff)
	}
	if len(remaining) != 1 {
		t.Fatalf("expected 1 remaining entry (start past bin), got %d", len(remaining))
	}
}

func TestBinInsertContinuedListFolding(t *testing.T) {
	b := New(10)
	// Both entries start before the bin (3, 5 < 10), so both fold into the
	// carry-forward list in step 1; but 3-8 ends at 8, which does not
	// reach past the bin's own start (10), so step 2 drops it and only
	// 5-15 survives into this bin's continuedList.
	data := []coord.Interval{iv(3, 8), iv(5, 15)}
	_, _, carry := b.Insert(data, coord.Range{Chr: "chr1", Start: 3, End: 15}, nil, nil, InsertOptions{})

	if diff := cmp.Diff([]string{"chr1:5-15"}, names(b.ContinuedList())); diff != "" {
		t.Errorf("continuedList mismatch (-want +got):\n%s", diff)
	}
	if len(carry) == 0 {
		t.Fatal("expected a non-empty carry-forward list")
	}
}

func TestBinMergeAfterAbsorbsEmptyStartList(t *testing.T) {
	left := NewWithLists(5, []coord.Interval{iv(5, 100)}, nil)
	right := NewWithLists(10, nil, []coord.Interval{iv(5, 100)})

	if ok := left.MergeAfter(right); !ok {
		t.Fatal("expected MergeAfter to succeed when right.startList is empty")
	}
	if diff := cmp.Diff([]string{"chr1:5-100"}, names(left.ContinuedList())); diff != "" {
		t.Errorf("left.continuedList mismatch (-want +got):\n%s", diff)
	}
}

func TestBinMergeAfterProjectsWithoutClobberingIdentity(t *testing.T) {
	foreign := ivTagged(5, 100, "foreign")
	left := NewWithLists(5, []coord.Interval{foreign}, nil)
	rightOwn := ivTagged(5, 100, "right-own") // structurally equal to foreign, distinct identity
	right := NewWithLists(10, []coord.Interval{iv(10, 11)}, []coord.Interval{rightOwn})

	if ok := left.MergeAfter(right); ok {
		t.Fatal("expected MergeAfter to fail: right has a non-empty startList")
	}
	if len(right.ContinuedList()) != 1 {
		t.Fatalf("expected right.continuedList to stay at 1 entry (no duplicate), got %d", len(right.ContinuedList()))
	}
	if right.ContinuedList()[0].(testInterval) != rightOwn {
		t.Fatal("MergeAfter must not replace right's own entry with a structurally-equal foreign clone")
	}
}

func TestBinRemoveCollapsesToEmpty(t *testing.T) {
	b := NewWithLists(5, []coord.Interval{iv(5, 10)}, nil)
	stillLive := b.Remove(RemoveOptions{Target: iv(5, 999)})
	if stillLive {
		t.Fatal("expected bin to report empty after removing its only entry")
	}
	if !b.IsEmpty() {
		t.Fatal("expected IsEmpty after Remove drained startList")
	}
}

func TestBinTraverseFirstVsSubsequent(t *testing.T) {
	b := NewWithLists(10, []coord.Interval{iv(10, 20)}, []coord.Interval{iv(1, 50)})
	var got []string

	cb := func(v coord.Interval) bool { got = append(got, v.(testInterval).String()); return true }
	b.Traverse(TraverseOptions{First: true, Range: coord.Range{Chr: "chr1", Start: 10, End: 20}, DataCallback: cb})
	if diff := cmp.Diff([]string{"chr1:1-50", "chr1:10-20"}, got); diff != "" {
		t.Errorf("first-bin traverse mismatch (-want +got):\n%s", diff)
	}

	got = nil
	b.Traverse(TraverseOptions{First: false, Range: coord.Range{Chr: "chr1", Start: 10, End: 20}, DataCallback: cb})
	if diff := cmp.Diff([]string{"chr1:10-20"}, got); diff != "" {
		t.Errorf("subsequent-bin traverse mismatch (-want +got):\n%s", diff)
	}
}

func TestPreInsertionCanonicalizesAgainstStored(t *testing.T) {
	stored := ivTagged(1, 50, "stored")
	foreignClone := ivTagged(1, 50, "foreign")

	remaining, canonical, err := PreInsertion(
		[]coord.Interval{iv(5, 10)},
		coord.Range{Chr: "chr1", Start: 5, End: 10},
		[]coord.Interval{foreignClone},
		[]coord.Interval{stored},
	)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(canonical) != 1 || canonical[0].(testInterval) != stored {
		t.Fatalf("expected canonicalization to replace the foreign clone with the stored identity, got %v", canonical)
	}
	if len(remaining) != 1 {
		t.Fatalf("expected the entry starting at insertRange.Start to stay in remaining, got %d", len(remaining))
	}
}

func TestPreInsertionDetectsInconsistentClaim(t *testing.T) {
	stored := iv(1, 50)
	conflicting := iv(1, 999) // same start, different end: structurally unequal

	_, _, err := PreInsertion(nil, coord.Range{Chr: "chr1", Start: 5, End: 10}, []coord.Interval{conflicting}, []coord.Interval{stored})
	if err != ErrInconsistentContinuedList {
		t.Fatalf("expected ErrInconsistentContinuedList, got %v", err)
	}
}
