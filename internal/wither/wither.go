package wither

import (
	"github.com/turivl/ivtree/internal/logx"
	"github.com/turivl/ivtree/internal/queue"
)

// Scheduler serializes advanceGen/wither requests via a private
// single-writer FIFO queue (§4.4/§5/§9): a wither pass never overlaps
// another, and advances enqueued while a wither runs apply, in order,
// after it completes. A traversal's own work is synchronous; the wither it
// triggers on exit is fire-and-forget from the caller's perspective
// (Schedule), serialized only against other wither/advance requests.
type Scheduler struct {
	counter Counter
	q       *queue.FIFO
	pass    func(currGen uint64)
}

// NewScheduler creates a scheduler that invokes pass(currentGeneration)
// whenever a wither runs.
func NewScheduler(pass func(currGen uint64)) *Scheduler {
	return &Scheduler{q: queue.New(256), pass: pass}
}

// Schedule enqueues an advance-by-n followed by a wither pass, without
// waiting for either to run.
func (s *Scheduler) Schedule(n uint64) {
	s.q.Submit(func() {
		gen := s.counter.Advance(n)
		s.pass(gen)
	})
}

// WaitIdle blocks until every previously-scheduled advance/wither has run.
// Used by callers (and tests) that need a deterministic view after a
// traversal's fire-and-forget wither.
func (s *Scheduler) WaitIdle() {
	s.q.SubmitAndWait(func() {})
}

// Current returns the counter's present value without enqueuing anything.
func (s *Scheduler) Current() uint64 { return s.counter.Current() }

// Close stops the scheduler's background goroutine once its queue drains.
// A wither or advance task that panicked is logged rather than propagated,
// since Close is called from defer/cleanup paths that don't expect an error.
func (s *Scheduler) Close() {
	if err := s.q.Close(); err != nil {
		logx.Error().Err(err).Msg("wither: task failed")
	}
}
