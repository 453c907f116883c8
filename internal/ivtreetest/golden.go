// Package ivtreetest holds test-only helpers for the module's test files
// (none of which imports it at present): a random interval-batch generator in the style of
// gaissmai/bart's internal/golden random prefix generator (adapted here
// from random routing prefixes to random genomic intervals), plus a
// go-cmp-based diff helper for asserting tree/bin shape in table-driven
// tests.
package ivtreetest

import (
	"fmt"
	"math/rand/v2"
	"sort"

	"github.com/google/go-cmp/cmp"

	"github.com/turivl/ivtree/internal/coord"
)

// Interval is a minimal, comparable interval value used only by this
// package's generators and by tests that don't want to depend on the
// public GenomicInterval type.
type Interval struct {
	ChrName  string
	StartPos int64
	EndPos   int64
}

func (iv Interval) Chr() string          { return iv.ChrName }
func (iv Interval) Start() int64         { return iv.StartPos }
func (iv Interval) End() int64           { return iv.EndPos }
func (iv Interval) Strand() coord.Strand { return coord.StrandNone }

func (iv Interval) String() string {
	return fmt.Sprintf("%s:%d-%d", iv.ChrName, iv.StartPos, iv.EndPos)
}

// RandomInterval returns a single random interval on chr within
// [0, spanMax), with end strictly after start.
func RandomInterval(prng *rand.Rand, chr string, spanMax int64) Interval {
	start := prng.Int64N(spanMax - 1)
	maxLen := spanMax - start
	if maxLen > 500 {
		maxLen = 500
	}
	length := prng.Int64N(maxLen) + 1
	return Interval{ChrName: chr, StartPos: start, EndPos: start + length}
}

// RandomBatch returns n random, deduplicated intervals on chr within
// [0, spanMax), sorted by start then end.
func RandomBatch(prng *rand.Rand, chr string, spanMax int64, n int) []coord.Interval {
	seen := make(map[Interval]struct{}, n)
	out := make([]coord.Interval, 0, n)
	for len(out) < n {
		iv := RandomInterval(prng, chr, spanMax)
		if _, ok := seen[iv]; ok {
			continue
		}
		seen[iv] = struct{}{}
		out = append(out, iv)
	}
	sort.Slice(out, func(i, j int) bool { return coord.Compare(out[i], out[j]) < 0 })
	return out
}

// Names extracts a stable, comparable summary from a slice of intervals
// for use with go-cmp: their "chr:start-end" strings in order, so test
// failures show a readable diff instead of pointer addresses.
func Names(ivs []coord.Interval) []string {
	out := make([]string, len(ivs))
	for i, iv := range ivs {
		out[i] = fmt.Sprintf("%s:%d-%d", iv.Chr(), iv.Start(), iv.End())
	}
	return out
}

// Diff compares two interval slices by their Names() projection, returning
// an empty string when they match.
func Diff(want, got []coord.Interval) string {
	return cmp.Diff(Names(want), Names(got))
}
