package ivtree

import "testing"

func TestChrStoreBuildsTreeLazily(t *testing.T) {
	store := NewChrStore(map[string]int64{"chr1": 1000}, 10)
	t.Cleanup(store.Close)

	tree, err := store.Tree("chr1")
	if err != nil {
		t.Fatalf("Tree(chr1): %v", err)
	}
	if tree.CoveringRange != (Range{Chr: "chr1", Start: 0, End: 1000}) {
		t.Fatalf("unexpected covering range: %+v", tree.CoveringRange)
	}

	if _, err := store.Tree("chrX"); err == nil {
		t.Fatal("expected an error for an unregistered chromosome")
	}
}

func TestChrStoreInsertRoutesByChromosome(t *testing.T) {
	store := NewChrStore(map[string]int64{"chr1": 1000, "chr2": 1000}, 10)
	t.Cleanup(store.Close)

	err := store.Insert([]Interval{
		seedInterval{chr: "chr1", start: 10, end: 20, tag: "A"},
		seedInterval{chr: "chr2", start: 30, end: 40, tag: "B"},
	}, InsertProps{})
	if err != nil {
		t.Fatalf("Insert: %v", err)
	}

	var gotChr1, gotChr2 []string
	if _, err := store.Traverse("chr1", Range{Start: 0, End: 1000}, TraverseProps{
		AllowNull:    true,
		DataCallback: func(iv Interval) bool { gotChr1 = append(gotChr1, iv.(seedInterval).tag); return true },
	}); err != nil {
		t.Fatalf("Traverse(chr1): %v", err)
	}
	if _, err := store.Traverse("chr2", Range{Start: 0, End: 1000}, TraverseProps{
		AllowNull:    true,
		DataCallback: func(iv Interval) bool { gotChr2 = append(gotChr2, iv.(seedInterval).tag); return true },
	}); err != nil {
		t.Fatalf("Traverse(chr2): %v", err)
	}

	if len(gotChr1) != 1 || gotChr1[0] != "A" {
		t.Fatalf("expected chr1 to hold only A, got %v", gotChr1)
	}
	if len(gotChr2) != 1 || gotChr2[0] != "B" {
		t.Fatalf("expected chr2 to hold only B, got %v", gotChr2)
	}
}

func TestChrStoreTraverseUnknownChromosomeIsNoop(t *testing.T) {
	store := NewChrStore(map[string]int64{"chr1": 1000}, 10)
	t.Cleanup(store.Close)

	keepGoing, err := store.Traverse("chrX", Range{Start: 0, End: 100}, TraverseProps{})
	if err != nil {
		t.Fatalf("expected no error for an unregistered chromosome, got %v", err)
	}
	if !keepGoing {
		t.Fatal("expected keepGoing true for an unregistered chromosome")
	}
}

func TestChrStoreEvictionClosesAndRebuildsTree(t *testing.T) {
	store := NewChrStore(map[string]int64{"chr1": 1000, "chr2": 1000}, 1)
	t.Cleanup(store.Close)

	first, err := store.Tree("chr1")
	if err != nil {
		t.Fatalf("Tree(chr1): %v", err)
	}
	if err := first.Insert([]Interval{seedInterval{chr: "chr1", start: 5, end: 10, tag: "A"}}, nil, InsertProps{}); err != nil {
		t.Fatalf("Insert: %v", err)
	}

	// Touching chr2 with capacity 1 evicts (and Closes) chr1's tree.
	if _, err := store.Tree("chr2"); err != nil {
		t.Fatalf("Tree(chr2): %v", err)
	}

	rebuilt, err := store.Tree("chr1")
	if err != nil {
		t.Fatalf("Tree(chr1) after eviction: %v", err)
	}
	if rebuilt == first {
		t.Fatal("expected a fresh tree after eviction, got the same instance")
	}
	if !rebuilt.HasUncachedRange(rebuilt.CoveringRange) {
		t.Fatal("expected the rebuilt chr1 tree to have lost its prior insert")
	}
}
