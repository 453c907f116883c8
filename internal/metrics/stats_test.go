package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
)

func TestStatsSnapshot(t *testing.T) {
	var s Stats
	s.Traversals.Add(3)
	s.DataFetches.Add(7)
	s.WitherPasses.Add(1)

	snap := s.Snapshot()
	if snap.Traversals != 3 || snap.DataFetches != 7 || snap.WitherPasses != 1 {
		t.Fatalf("unexpected snapshot: %+v", snap)
	}
	if snap.Inserts != 0 || snap.Removes != 0 || snap.NodesVisited != 0 || snap.NodesWithered != 0 {
		t.Fatalf("expected untouched counters to stay zero: %+v", snap)
	}
}

func TestCollectorEmitsRegisteredMetrics(t *testing.T) {
	var s Stats
	s.Inserts.Add(5)
	c := NewCollector("chr1", &s)

	reg := prometheus.NewRegistry()
	if err := reg.Register(c); err != nil {
		t.Fatalf("Register: %v", err)
	}

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather: %v", err)
	}

	var found bool
	for _, mf := range families {
		if mf.GetName() != "ivtree_chr1_inserts_total" {
			continue
		}
		found = true
		for _, m := range mf.GetMetric() {
			if m.GetCounter().GetValue() != 5 {
				t.Fatalf("expected inserts_total==5, got %v", m.GetCounter().GetValue())
			}
		}
	}
	if !found {
		t.Fatal("expected ivtree_chr1_inserts_total to be present among gathered metrics")
	}
}
