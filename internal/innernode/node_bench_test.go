package innernode

import (
	"testing"

	"github.com/turivl/ivtree/internal/coord"
)

func BenchmarkLeafInsert(b *testing.B) {
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		n := NewLeafRoot(0, 1_000_000, cfg(64))
		data := []coord.Interval{iv(10, 20)}
		n.Insert(data, coord.Range{Chr: "chr1", Start: 10, End: 20}, nil, nil, InsertOptions{})
	}
}

func BenchmarkLeafInsertManySlots(b *testing.B) {
	n := NewLeafRoot(0, 1_000_000, cfg(64))
	for i := int64(0); i < 500; i++ {
		start := i * 1000
		data := []coord.Interval{iv(start+10, start+20)}
		n.Insert(data, coord.Range{Chr: "chr1", Start: start, End: start + 1000}, nil, nil, InsertOptions{})
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		start := int64(i%500) * 1000
		rng := coord.Range{Chr: "chr1", Start: start, End: start + 1000}
		var hits int
		n.Traverse(&TraverseOptions{
			Range:        rng,
			AllowNull:    true,
			DataCallback: func(coord.Interval) bool { hits++; return true },
		})
	}
}
