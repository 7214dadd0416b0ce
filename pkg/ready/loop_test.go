package ready

import (
	"sync"
	"testing"
	"time"
)

func TestLoopRunsTasksInPostOrder(t *testing.T) {
	l := NewLoop()
	defer l.Close()

	var mu sync.Mutex
	var got []int
	for i := 0; i < 100; i++ {
		i := i
		l.Post(func() {
			mu.Lock()
			got = append(got, i)
			mu.Unlock()
		})
	}
	flush(l)

	mu.Lock()
	defer mu.Unlock()
	if len(got) != 100 {
		t.Fatalf("ran %d tasks, want 100", len(got))
	}
	for i, v := range got {
		if v != i {
			t.Fatalf("task order broken at %d: got %d", i, v)
		}
	}
}

func TestLoopPostFromTask(t *testing.T) {
	l := NewLoop()
	defer l.Close()

	done := make(chan struct{})
	l.Post(func() {
		// Tasks posted from inside a task run after it, never inline.
		l.Post(func() { close(done) })
	})

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("nested post never ran")
	}
}

func TestLoopCloseDrainsQueue(t *testing.T) {
	l := NewLoop()

	var mu sync.Mutex
	ran := 0
	for i := 0; i < 10; i++ {
		l.Post(func() {
			mu.Lock()
			ran++
			mu.Unlock()
		})
	}
	l.Close()

	select {
	case <-l.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("loop never exited")
	}

	mu.Lock()
	defer mu.Unlock()
	if ran != 10 {
		t.Errorf("ran %d queued tasks, want all 10 drained before exit", ran)
	}
}

func TestLoopPostAfterCloseIsDropped(t *testing.T) {
	l := NewLoop()
	l.Close()
	<-l.Done()

	// Must not panic or block.
	l.Post(func() { t.Error("task ran after Close") })
	time.Sleep(10 * time.Millisecond)
}
