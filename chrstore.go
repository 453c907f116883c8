package ivtree

import (
	"errors"
	"fmt"
	"sync"

	"github.com/turivl/ivtree/internal/cache"
)

// ChrStore fans a single-chromosome IntervalTree out across a genome: one
// tree per chromosome, built lazily on first use and bounded by an LRU so a
// process that touches many chromosomes does not keep every tree's nodes
// resident forever. This is additive: it composes IntervalTree rather than
// replacing it, and single-chromosome callers can ignore it entirely.
type ChrStore struct {
	mu      sync.Mutex
	lengths map[string]int64
	opts    []Option
	lru     *cache.LRU[string, *IntervalTree]
}

// NewChrStore builds a store that lazily constructs one IntervalTree per
// chromosome covering [0, lengths[chr]), applying opts to each. capacity
// bounds how many trees stay resident at once (<=0 means unbounded); trees
// evicted by the LRU are Closed so their wither goroutine doesn't leak.
func NewChrStore(lengths map[string]int64, capacity int, opts ...Option) *ChrStore {
	s := &ChrStore{
		lengths: lengths,
		opts:    opts,
	}
	s.lru = cache.New[string, *IntervalTree](capacity, func(_ string, t *IntervalTree) {
		t.Close()
	})
	return s
}

// Tree returns the tree for chr, constructing it on first access.
func (s *ChrStore) Tree(chr string) (*IntervalTree, error) {
	if t, ok := s.lru.Get(chr); ok {
		return t, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if t, ok := s.lru.Get(chr); ok {
		return t, nil
	}
	length, ok := s.lengths[chr]
	if !ok {
		return nil, fmt.Errorf("ivtree: unknown chromosome %q", chr)
	}
	t, err := New(Range{Chr: chr, Start: 0, End: length}, s.opts...)
	if err != nil {
		return nil, err
	}
	s.lru.Put(chr, t)
	return t, nil
}

// Insert routes data to each chromosome's tree, per the data's own Chr(),
// and aggregates every chromosome's AggregatedInsertError into one.
func (s *ChrStore) Insert(data []Interval, props InsertProps) error {
	byChr := make(map[string][]Interval)
	for _, iv := range data {
		byChr[iv.Chr()] = append(byChr[iv.Chr()], iv)
	}
	var failures []*SubRangeError
	for chr, ivs := range byChr {
		t, err := s.Tree(chr)
		if err != nil {
			failures = append(failures, &SubRangeError{Range: Range{Chr: chr}, Cause: err})
			continue
		}
		if err := t.Insert(ivs, nil, props); err != nil {
			var agg *AggregatedInsertError
			if errors.As(err, &agg) {
				failures = append(failures, agg.Failures...)
			} else {
				failures = append(failures, &SubRangeError{Range: Range{Chr: chr}, Cause: err})
			}
		}
	}
	return joinSubRangeErrors(failures)
}

// Traverse dispatches to chr's tree, building it on first access.
// Chromosomes missing from the store's lengths map return (true, nil)
// without constructing a tree.
func (s *ChrStore) Traverse(chr string, rng Range, props TraverseProps) (bool, error) {
	if _, ok := s.lengths[chr]; !ok {
		return true, nil
	}
	t, err := s.Tree(chr)
	if err != nil {
		return true, err
	}
	rng.Chr = chr
	return t.Traverse(rng, props)
}

// Close closes every resident tree's wither goroutine.
func (s *ChrStore) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, chr := range s.lru.Keys() {
		if t, ok := s.lru.Get(chr); ok {
			t.Close()
		}
	}
}
