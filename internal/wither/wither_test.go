package wither

import "testing"

func TestCounterAdvanceDefaultsToOne(t *testing.T) {
	var c Counter
	if got := c.Advance(0); got != 1 {
		t.Fatalf("expected Advance(0) to step by 1, got %d", got)
	}
	if got := c.Current(); got != 1 {
		t.Fatalf("expected Current() == 1, got %d", got)
	}
}

func TestCounterAdvanceWraps(t *testing.T) {
	var c Counter
	c.gen.Store(MaxGeneration - 1)
	if got := c.Advance(2); got != 1 {
		t.Fatalf("expected wraparound to 1, got %d", got)
	}
}

func TestSchedulerRunsPassWithAdvancedGeneration(t *testing.T) {
	var seen []uint64
	s := NewScheduler(func(gen uint64) { seen = append(seen, gen) })
	defer s.Close()

	s.Schedule(1)
	s.Schedule(1)
	s.WaitIdle()

	if len(seen) != 2 {
		t.Fatalf("expected 2 passes to have run, got %d", len(seen))
	}
	if seen[0] != 1 || seen[1] != 2 {
		t.Fatalf("expected passes to observe generations [1 2], got %v", seen)
	}
	if s.Current() != 2 {
		t.Fatalf("expected Current() == 2 after two schedules, got %d", s.Current())
	}
}

func TestSchedulerSerializesAgainstConcurrentSchedules(t *testing.T) {
	var order []int
	s := NewScheduler(func(uint64) {})
	defer s.Close()

	done := make(chan struct{})
	for i := 0; i < 10; i++ {
		i := i
		go func() {
			s.q.SubmitAndWait(func() { order = append(order, i) })
			done <- struct{}{}
		}()
	}
	for i := 0; i < 10; i++ {
		<-done
	}
	if len(order) != 10 {
		t.Fatalf("expected all 10 tasks to have run, got %d", len(order))
	}
}
