package ivtree

import (
	"sort"
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/turivl/ivtree/internal/binnode"
	"github.com/turivl/ivtree/internal/coord"
	"github.com/turivl/ivtree/internal/innernode"
	"github.com/turivl/ivtree/internal/logx"
	"github.com/turivl/ivtree/internal/metrics"
	"github.com/turivl/ivtree/internal/wither"
)

// DefaultBranchingFactor is the branching factor (B) used when Option
// BranchingFactor is not supplied.
const DefaultBranchingFactor = 50

// Option configures a tree at construction time (§4.3).
type Option func(*treeConfig)

type treeConfig struct {
	branchingFactor int
	lifeSpan        uint64
	localOnly       bool
	siblingLinks    bool
	metricsReg      prometheus.Registerer
}

// WithBranchingFactor sets B; any value <= 2, including the zero value,
// falls back to DefaultBranchingFactor.
func WithBranchingFactor(b int) Option {
	return func(c *treeConfig) { c.branchingFactor = b }
}

// WithLifeSpan sets the number of generations a subtree may go untouched
// before withering. 0 (the default) disables withering.
func WithLifeSpan(n uint64) Option {
	return func(c *treeConfig) { c.lifeSpan = n }
}

// WithLocalOnly marks the tree as having no notion of Unloaded: every
// unfilled slot is Empty, GetUncachedRange/HasUncachedRange are trivial,
// and withering is disabled regardless of WithLifeSpan.
func WithLocalOnly() Option {
	return func(c *treeConfig) { c.localOnly = true }
}

// WithSiblingLinks enables horizontal prev/next pointers between nodes at
// the same depth.
func WithSiblingLinks() Option {
	return func(c *treeConfig) { c.siblingLinks = true }
}

// WithMetricsRegisterer registers the tree's counters (internal/metrics)
// as a prometheus.Collector against reg, namespaced under the tree's
// chromosome. Registration happens once, at construction time; New
// returns the registerer's error (e.g. a duplicate metric name) rather
// than swallowing it.
func WithMetricsRegisterer(reg prometheus.Registerer) Option {
	return func(c *treeConfig) { c.metricsReg = reg }
}

// IntervalTree is the public façade (C4): a single-chromosome, in-memory
// interval index over CoveringRange. Data operations are single-threaded
// and cooperative (§5); the only concurrency is between a traversal and the
// wither pass it schedules on exit.
type IntervalTree struct {
	CoveringRange Range

	mu         sync.Mutex
	root       *innernode.Node
	cfg        innernode.Config
	localOnly  bool
	lifeSpan   uint64
	wscheduler *wither.Scheduler
	stats      metrics.Stats
}

// New builds a tree covering coveringRange.
func New(coveringRange Range, opts ...Option) (*IntervalTree, error) {
	if !coveringRange.Valid() {
		return nil, ErrInvalidRange
	}
	tc := treeConfig{branchingFactor: DefaultBranchingFactor}
	for _, o := range opts {
		o(&tc)
	}
	if tc.branchingFactor <= 2 {
		tc.branchingFactor = DefaultBranchingFactor
	}

	t := &IntervalTree{
		CoveringRange: coveringRange,
		localOnly:     tc.localOnly,
		lifeSpan:      tc.lifeSpan,
	}
	if tc.localOnly {
		t.lifeSpan = 0
	}

	t.cfg = innernode.Config{
		BranchingFactor: tc.branchingFactor,
		SiblingLinks:    tc.siblingLinks,
		LocalOnly:       tc.localOnly,
	}
	if t.lifeSpan > 0 {
		t.cfg.GenProvider = func() uint64 { return t.wscheduler.Current() }
	}
	t.wscheduler = wither.NewScheduler(t.runWither)
	t.root = innernode.NewLeafRoot(coveringRange.Start, coveringRange.End, t.cfg)

	if tc.metricsReg != nil {
		if err := tc.metricsReg.Register(metrics.NewCollector(coveringRange.Chr, &t.stats)); err != nil {
			return nil, err
		}
	}
	return t, nil
}

// runWither runs a single wither pass at currGen, then restructures the
// root to absorb any collapsed subtrees. Invoked from the wither
// scheduler's private background goroutine, concurrently with the façade's
// own operations; it and every façade method that touches t.root take t.mu.
func (t *IntervalTree) runWither(currGen uint64) {
	if t.lifeSpan == 0 {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stats.WitherPasses.Add(1)
	if t.root.Wither(currGen, t.lifeSpan) {
		t.stats.NodesWithered.Add(1)
		if newRoot, err := innernode.RestructureRoot(t.root); err == nil {
			t.root = newRoot
		} else {
			logx.Warn().Err(err).Msg("wither: restructure failed")
		}
	}
}

// Insert sorts data in place by the interval comparator, then inserts it
// over ranges (defaulting to the merged spans of data's own intervals when
// nil), restricting each range to its currently-Unloaded sub-ranges unless
// the tree is LocalOnly (§4.3 Insert).
func (t *IntervalTree) Insert(data []Interval, ranges []Range, props InsertProps) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	sort.SliceStable(data, func(i, j int) bool { return coord.Compare(data[i], data[j]) < 0 })
	t.stats.Inserts.Add(1)

	if ranges == nil {
		ranges = ownRanges(data, t.CoveringRange.Chr)
	}

	var failures []*SubRangeError
	remaining := data

	for _, rng := range ranges {
		rng = t.CoveringRange.Clip(rng)
		if !rng.Valid() {
			continue
		}

		var subRanges []Range
		if t.localOnly {
			subRanges = []Range{rng}
		} else {
			subRanges = coord.MergeRanges(t.root.UncachedRanges(rng, nil))
		}

		for _, sub := range subRanges {
			alreadyStored := t.root.ActiveAt(sub.Start)

			// Entries that start before sub belong to the carry-forward
			// continuedList rather than this sub-range's own data; lift
			// them here (firing dataCallback once each, matching the fold
			// a bin itself would do for entries starting before its own
			// start) so they don't re-enter binnode.PreInsertion's data
			// slice and get folded a second time.
			i := 0
			for i < len(remaining) && remaining[i].Start() < sub.Start {
				if props.DataCallback != nil {
					props.DataCallback(remaining[i], sub)
				}
				i++
			}
			continuedSeed := append(append([]Interval(nil), props.ContinuedList...), remaining[:i]...)
			remaining = remaining[i:]

			subData, canonical, err := binnode.PreInsertion(remaining, sub, continuedSeed, alreadyStored)
			if err != nil {
				failures = append(failures, &SubRangeError{Range: sub, Cause: err, Sample: sample(remaining, 3)})
				continue
			}
			remaining = subData

			postRange := sub
			var cerr error
			remaining, _, cerr = t.root.Insert(remaining, sub, canonical, &postRange, innernode.InsertOptions{
				AddNew:          props.AddNew,
				AllowDuplicates: props.AllowDuplicates,
				DataCallback:    props.DataCallback,
			})
			if cerr != nil {
				failures = append(failures, &SubRangeError{Range: sub, Cause: cerr, Sample: sample(remaining, 3)})
			}
		}
	}

	if newRoot, err := innernode.RestructureRoot(t.root); err == nil {
		t.root = newRoot
	}

	return joinSubRangeErrors(failures)
}

// ownRanges computes the spec's default "the intervals' own ranges": the
// merged, contiguous spans covered by data, restricted to chr.
func ownRanges(data []Interval, chr string) []Range {
	spans := make([]Range, 0, len(data))
	for _, iv := range data {
		if iv.Chr() != chr {
			continue
		}
		spans = append(spans, Range{Chr: chr, Start: iv.Start(), End: iv.End()})
	}
	sort.Slice(spans, func(i, j int) bool { return spans[i].Start < spans[j].Start })
	return coord.MergeRanges(spans)
}

func sample(data []Interval, n int) []Interval {
	if len(data) < n {
		n = len(data)
	}
	return append([]Interval(nil), data[:n]...)
}

// Remove removes entries matching target's start coordinate (or, with
// ExactMatch, its full value) and restructures the tree afterward (§4.3
// Remove).
func (t *IntervalTree) Remove(target Interval, props RemoveProps) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.stats.Removes.Add(1)
	rng := Range{Chr: target.Chr(), Start: target.Start(), End: target.Start() + 1}
	if rng.Chr != t.CoveringRange.Chr || !t.CoveringRange.Overlaps(rng) {
		return ErrInvalidRange
	}

	convertTo := innernode.Unloaded
	if t.localOnly || props.ConvertTo == SlotEmpty {
		convertTo = innernode.Empty
	}

	t.root.Remove(target, innernode.RemoveOptions{ExactMatch: props.ExactMatch, ConvertTo: convertTo})

	if newRoot, err := innernode.RestructureRoot(t.root); err == nil {
		t.root = newRoot
	}
	return nil
}

// Traverse descends into rng, invoking props' callbacks per §4.2/§4.3, then
// advances the generation counter and schedules a wither pass on exit
// (unless DoNotWither is set), even if the traversal itself errored.
func (t *IntervalTree) Traverse(rng Range, props TraverseProps) (bool, error) {
	t.mu.Lock()
	rng = t.CoveringRange.Clip(rng)
	if !rng.Valid() {
		t.mu.Unlock()
		return true, nil
	}
	t.stats.Traversals.Add(1)

	chr := t.CoveringRange.Chr
	var nodeCallback, nodeFilter func(*innernode.Node) bool
	if props.NodeCallback != nil {
		nodeCallback = func(n *innernode.Node) bool {
			t.stats.NodesVisited.Add(1)
			return props.NodeCallback(nodeView(n, chr))
		}
	}
	if props.NodeFilter != nil {
		nodeFilter = func(n *innernode.Node) bool { return props.NodeFilter(nodeView(n, chr)) }
	}
	dataCallback := props.DataCallback
	if dataCallback != nil {
		wrapped := dataCallback
		dataCallback = func(iv Interval) bool {
			t.stats.DataFetches.Add(1)
			return wrapped(iv)
		}
	}

	opts := &innernode.TraverseOptions{
		Range:        rng,
		AllowNull:    props.AllowNull,
		BreakOnFalse: props.BreakOnFalse,
		DataFilter:   props.DataFilter,
		DataCallback: dataCallback,
		NodeFilter:   nodeFilter,
		NodeCallback: nodeCallback,
		BothCalls:    props.BothCalls,
	}
	keepGoing, err := t.root.Traverse(opts)
	t.mu.Unlock()

	if !props.DoNotWither && t.lifeSpan > 0 {
		t.wscheduler.Schedule(1)
	}

	if err != nil {
		return keepGoing, newDataNotReady(err)
	}
	return keepGoing, nil
}

func nodeView(n *innernode.Node, chr string) NodeView {
	start, end := n.Span()
	return NodeView{
		Range:        Range{Chr: chr, Start: start, End: end},
		ReverseDepth: n.ReverseDepth(),
		ChildCount:   n.ChildCount(),
	}
}

// GetUncachedRange returns the sub-ranges of rng that are currently
// Unloaded, merged and ordered. For a LocalOnly tree it returns
// props.Result unchanged, which is empty unless the caller pre-seeded it.
func (t *IntervalTree) GetUncachedRange(rng Range, props UncachedRangeProps) []Range {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.localOnly {
		return props.Result
	}
	rng = t.CoveringRange.Clip(rng)
	if !rng.Valid() {
		return props.Result
	}
	out := t.root.UncachedRanges(rng, props.Result)
	return coord.MergeRanges(out)
}

// HasUncachedRange reports whether any part of rng is Unloaded. Always
// false for a LocalOnly tree (§4.3).
func (t *IntervalTree) HasUncachedRange(rng Range) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.localOnly {
		return false
	}
	rng = t.CoveringRange.Clip(rng)
	if !rng.Valid() {
		return false
	}
	return t.root.HasUncachedRange(rng)
}

// Clear resets the tree to a single filler slot covering CoveringRange,
// preserving its configured branching factor and wither policy (§4.3).
func (t *IntervalTree) Clear() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.root = innernode.NewLeafRoot(t.CoveringRange.Start, t.CoveringRange.End, t.cfg)
}

// Stats returns a snapshot of this tree's introspection counters.
func (t *IntervalTree) Stats() metrics.Snapshot {
	return t.stats.Snapshot()
}

// CurrentGeneration returns the tree's current wither generation.
func (t *IntervalTree) CurrentGeneration() uint64 {
	return t.wscheduler.Current()
}

// Close releases the tree's background wither goroutine. A tree that is no
// longer reachable but never Closed simply leaks that one goroutine, same
// as an unclosed ticker; callers managing many short-lived trees should
// Close them.
func (t *IntervalTree) Close() {
	t.wscheduler.Close()
}
