// Package queue implements the single-writer FIFO task queue the wither
// layer uses to serialize advanceGen/wither requests against each other
// (spec §4.4/§5/§9), the idiomatic-Go replacement for the source's chained
// future/promise pattern. Grounded on the admission-ordering style of
// tur/pkg/cowbtree's EpochManager and tur/pkg/mvcc's transaction manager:
// a single background goroutine drains submitted tasks strictly in the
// order they were enqueued.
package queue

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"
)

// FIFO runs submitted tasks one at a time, in submission order, on a single
// background goroutine. A task that panics is recovered into an error that
// stops the queue and is returned from Close, instead of crashing the
// process the way a bare `go func(){...}()` would.
type FIFO struct {
	tasks   chan func()
	group   *errgroup.Group
	ctx     context.Context
	cancel  context.CancelFunc
	closeMu sync.Once
}

// New starts a FIFO queue with the given backlog capacity.
func New(backlog int) *FIFO {
	parent, cancel := context.WithCancel(context.Background())
	g, gctx := errgroup.WithContext(parent)
	f := &FIFO{
		tasks:  make(chan func(), backlog),
		group:  g,
		ctx:    gctx,
		cancel: cancel,
	}
	g.Go(func() error {
		for {
			select {
			case <-gctx.Done():
				return nil
			case task, ok := <-f.tasks:
				if !ok {
					return nil
				}
				if err := runTask(task); err != nil {
					return err
				}
			}
		}
	})
	return f
}

// runTask runs fn, recovering a panic into an error rather than letting it
// unwind the queue's goroutine.
func runTask(fn func()) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("queue: task panicked: %v", r)
		}
	}()
	fn()
	return nil
}

// Submit enqueues fn to run after every previously-submitted task has
// completed. Submit blocks only if the backlog is full; it returns without
// enqueueing if the queue has already stopped (Close was called, or an
// earlier task panicked).
func (f *FIFO) Submit(fn func()) {
	select {
	case <-f.ctx.Done():
		return
	default:
	}
	select {
	case f.tasks <- fn:
	case <-f.ctx.Done():
	}
}

// SubmitAndWait enqueues fn and blocks until it has run, or the queue stops
// before reaching it.
func (f *FIFO) SubmitAndWait(fn func()) {
	done := make(chan struct{})
	f.Submit(func() {
		fn()
		close(done)
	})
	select {
	case <-done:
	case <-f.ctx.Done():
	}
}

// Close stops accepting new tasks, cancels the queue's context so a
// blocked Submit/SubmitAndWait is released, and waits for the background
// goroutine to exit. It returns the error recovered from a panicking task,
// if any; callers that don't need that detail can ignore it.
func (f *FIFO) Close() error {
	f.closeMu.Do(func() {
		close(f.tasks)
	})
	err := f.group.Wait()
	f.cancel()
	return err
}
