package queue

import (
	"sync"
	"testing"
)

func TestFIFORunsTasksInSubmissionOrder(t *testing.T) {
	f := New(16)
	defer f.Close()

	var mu sync.Mutex
	var order []int
	for i := 0; i < 20; i++ {
		i := i
		f.Submit(func() {
			mu.Lock()
			order = append(order, i)
			mu.Unlock()
		})
	}
	f.SubmitAndWait(func() {})

	mu.Lock()
	defer mu.Unlock()
	if len(order) != 20 {
		t.Fatalf("expected 20 tasks to have run, got %d", len(order))
	}
	for i, v := range order {
		if v != i {
			t.Fatalf("expected strict submission order, got %v", order)
		}
	}
}

func TestFIFOSubmitAndWaitBlocksUntilDone(t *testing.T) {
	f := New(4)
	defer f.Close()

	ran := false
	f.SubmitAndWait(func() { ran = true })
	if !ran {
		t.Fatal("expected SubmitAndWait to block until fn has run")
	}
}

func TestFIFOCloseSurfacesPanickingTask(t *testing.T) {
	f := New(4)
	f.Submit(func() { panic("boom") })
	f.SubmitAndWait(func() {}) // drained or not, returns once the queue stops

	if err := f.Close(); err == nil {
		t.Fatal("expected Close to surface the panicking task as an error")
	}
}

func TestFIFOCloseDrainsPendingTasks(t *testing.T) {
	f := New(4)
	var mu sync.Mutex
	ran := 0
	for i := 0; i < 3; i++ {
		f.Submit(func() {
			mu.Lock()
			ran++
			mu.Unlock()
		})
	}
	f.Close()

	mu.Lock()
	defer mu.Unlock()
	if ran != 3 {
		t.Fatalf("expected Close to wait for all queued tasks to drain, got %d ran", ran)
	}
}
