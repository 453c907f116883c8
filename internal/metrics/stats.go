// Package metrics holds the tree's introspection counters: plain
// sync/atomic fields for the fast path, optionally exported to Prometheus
// via a Collector for processes that scrape it. Grounded on tur's Stats
// structs (pkg/cache and pkg/pager both expose atomic hit/miss/eviction
// counters read by a snapshot method) and promoted to the ecosystem
// library once there is a component worth scraping.
package metrics

import (
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
)

// Stats holds the counters a single IntervalTree accumulates over its
// lifetime: traversal counts, the data fetches it triggered, and the
// withers it ran.
type Stats struct {
	Traversals    atomic.Int64
	NodesVisited  atomic.Int64
	DataFetches   atomic.Int64
	Inserts       atomic.Int64
	Removes       atomic.Int64
	WitherPasses  atomic.Int64
	NodesWithered atomic.Int64
}

// Snapshot is an immutable copy of Stats suitable for logging or testing.
type Snapshot struct {
	Traversals    int64
	NodesVisited  int64
	DataFetches   int64
	Inserts       int64
	Removes       int64
	WitherPasses  int64
	NodesWithered int64
}

// Snapshot reads every counter into a plain struct.
func (s *Stats) Snapshot() Snapshot {
	return Snapshot{
		Traversals:    s.Traversals.Load(),
		NodesVisited:  s.NodesVisited.Load(),
		DataFetches:   s.DataFetches.Load(),
		Inserts:       s.Inserts.Load(),
		Removes:       s.Removes.Load(),
		WitherPasses:  s.WitherPasses.Load(),
		NodesWithered: s.NodesWithered.Load(),
	}
}

// Collector adapts Stats to prometheus.Collector, for processes that want
// to scrape a tree's counters alongside their other metrics. Registration
// is opt-in: a tree never registers itself.
type Collector struct {
	stats     *Stats
	namespace string
	descs     map[string]*prometheus.Desc
}

// NewCollector builds a Collector over stats, labeling its metrics under
// namespace (typically the chromosome or tree name).
func NewCollector(namespace string, stats *Stats) *Collector {
	mk := func(name, help string) *prometheus.Desc {
		return prometheus.NewDesc(prometheus.BuildFQName("ivtree", namespace, name), help, nil, nil)
	}
	return &Collector{
		stats:     stats,
		namespace: namespace,
		descs: map[string]*prometheus.Desc{
			"traversals_total":     mk("traversals_total", "Number of Traverse calls."),
			"nodes_visited_total":  mk("nodes_visited_total", "Number of inner-node visits reported to a traversal's NodeCallback."),
			"data_fetches_total":   mk("data_fetches_total", "Number of intervals delivered to a traversal's DataCallback."),
			"inserts_total":        mk("inserts_total", "Number of Insert calls."),
			"removes_total":        mk("removes_total", "Number of Remove calls."),
			"wither_passes_total":  mk("wither_passes_total", "Number of wither passes run."),
			"nodes_withered_total": mk("nodes_withered_total", "Number of wither passes that collapsed at least one subtree."),
		},
	}
}

// Describe implements prometheus.Collector.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	for _, d := range c.descs {
		ch <- d
	}
}

// Collect implements prometheus.Collector.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	snap := c.stats.Snapshot()
	emit := func(name string, v int64) {
		ch <- prometheus.MustNewConstMetric(c.descs[name], prometheus.CounterValue, float64(v))
	}
	emit("traversals_total", snap.Traversals)
	emit("nodes_visited_total", snap.NodesVisited)
	emit("data_fetches_total", snap.DataFetches)
	emit("inserts_total", snap.Inserts)
	emit("removes_total", snap.Removes)
	emit("wither_passes_total", snap.WitherPasses)
	emit("nodes_withered_total", snap.NodesWithered)
}
