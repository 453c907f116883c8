// Package ivtree is an in-memory interval index specialized for
// genomic-browsing-style workloads: a coordinate space is partitioned into
// contiguous, non-overlapping bins whose boundaries track the start points
// of inserted intervals, sparsely and sectionally loaded so it can act as a
// local cache in front of a remote interval source.
package ivtree

import "github.com/turivl/ivtree/internal/coord"

// Interval is the opaque chromosomal-region value the tree indexes (C1).
// Implementations own their coordinates and payload; the tree borrows
// references to them and never mutates one it is handed.
type Interval = coord.Interval

// Strand records the genomic strand of an interval, when known.
type Strand = coord.Strand

const (
	StrandNone  = coord.StrandNone
	StrandPlus  = coord.StrandPlus
	StrandMinus = coord.StrandMinus
)

// Range is a half-open coordinate span on a single chromosome.
type Range = coord.Range

// EqualToer lets an Interval supply its own structural-equality predicate.
type EqualToer = coord.EqualToer

// Cloner lets an Interval supply a deep copy.
type Cloner = coord.Cloner

// Assimilator expands an interval to also cover another, touching interval.
type Assimilator = coord.Assimilator

// Concatenator merges an interval with its immediate successor.
type Concatenator = coord.Concatenator

// Subtractor computes the set-difference of an interval against another.
type Subtractor = coord.Subtractor

// Equal reports whether a and b are structurally equal per §3/§6.2.
func Equal(a, b Interval) bool { return coord.Equal(a, b) }

// Compare orders intervals by start asc, then end asc (§6.2).
func Compare(a, b Interval) int { return coord.Compare(a, b) }

// Overlaps reports whether iv intersects the half-open range r.
func Overlaps(iv Interval, r Range) bool { return coord.Overlaps(iv, r) }

// Clone returns a deep copy of iv if it implements Cloner, otherwise iv
// itself.
func Clone(iv Interval) Interval { return coord.Clone(iv) }

func fromCoordRange(r coord.Range) Range { return r }
func toCoordRange(r Range) coord.Range   { return r }

// GenomicInterval is a minimal, immutable Interval implementation
// satisfying the optional EqualToer/Cloner/Assimilator/Concatenator/
// Subtractor contracts of §6.2. It is a reference value type for callers
// and tests that don't need a richer payload; production callers are free
// to supply their own Interval implementation instead.
type GenomicInterval struct {
	ChrName   string
	StartPos  int64
	EndPos    int64
	StrandVal Strand
	Payload   any
}

// NewGenomicInterval builds a GenomicInterval with no strand/payload.
func NewGenomicInterval(chr string, start, end int64) GenomicInterval {
	return GenomicInterval{ChrName: chr, StartPos: start, EndPos: end}
}

// WithStrand returns a copy of g with its strand set.
func (g GenomicInterval) WithStrand(s Strand) GenomicInterval {
	g.StrandVal = s
	return g
}

// WithPayload returns a copy of g with its payload set.
func (g GenomicInterval) WithPayload(p any) GenomicInterval {
	g.Payload = p
	return g
}

func (g GenomicInterval) Chr() string    { return g.ChrName }
func (g GenomicInterval) Start() int64   { return g.StartPos }
func (g GenomicInterval) End() int64     { return g.EndPos }
func (g GenomicInterval) Strand() Strand { return g.StrandVal }

// EqualTo implements EqualToer: two GenomicIntervals are structurally equal
// when chr/start/end/strand match and their payloads compare equal (falling
// back to identity for incomparable payload types).
func (g GenomicInterval) EqualTo(other Interval) bool {
	o, ok := other.(GenomicInterval)
	if !ok {
		return false
	}
	if g.ChrName != o.ChrName || g.StartPos != o.StartPos || g.EndPos != o.EndPos || g.StrandVal != o.StrandVal {
		return false
	}
	if g.Payload == nil && o.Payload == nil {
		return true
	}
	defer func() { recover() }()
	return g.Payload == o.Payload
}

// Clone implements Cloner. GenomicInterval is a value type, so Clone is a
// plain copy.
func (g GenomicInterval) Clone() Interval { return g }

// Assimilate implements Assimilator: expands g to also cover other,
// provided they touch or overlap and share a chromosome.
func (g GenomicInterval) Assimilate(other Interval) Interval {
	if other.Chr() != g.ChrName {
		return g
	}
	if other.Start() < g.StartPos {
		g.StartPos = other.Start()
	}
	if other.End() > g.EndPos {
		g.EndPos = other.End()
	}
	return g
}

// Concat implements Concatenator: absorbs an immediate successor sharing a
// chromosome.
func (g GenomicInterval) Concat(other Interval) Interval {
	return g.Assimilate(other)
}

// GetMinus implements Subtractor: the covering ranges of g left over after
// removing other's overlap.
func (g GenomicInterval) GetMinus(other Interval) []Range {
	self := Range{Chr: g.ChrName, Start: g.StartPos, End: g.EndPos}
	sub := Range{Chr: other.Chr(), Start: other.Start(), End: other.End()}
	if !self.Overlaps(sub) {
		return []Range{self}
	}
	var out []Range
	if sub.Start > self.Start {
		out = append(out, Range{Chr: g.ChrName, Start: self.Start, End: sub.Start})
	}
	if sub.End < self.End {
		out = append(out, Range{Chr: g.ChrName, Start: sub.End, End: self.End})
	}
	return out
}

// RegionToString renders g's coordinate span as "chr:start-end".
func (g GenomicInterval) RegionToString() string {
	return Range{Chr: g.ChrName, Start: g.StartPos, End: g.EndPos}.String()
}

// String implements fmt.Stringer.
func (g GenomicInterval) String() string {
	s := g.RegionToString()
	if g.StrandVal != StrandNone {
		s += "(" + g.StrandVal.String() + ")"
	}
	return s
}
