package ready

import "sync"

// Loop is a single-goroutine serial task queue. Every state transition of a
// Manager tree runs as a task on its Loop, which gives the ordering
// guarantees the counters rely on: tasks run in post order, one at a time,
// and no two handlers for the same tree ever run concurrently.
//
// Post never blocks, so it is safe to post new tasks from inside a running
// task; they run after the current task completes.
type Loop struct {
	mu     sync.Mutex
	cond   *sync.Cond
	queue  []func()
	closed bool
	done   chan struct{}
}

// NewLoop creates a Loop and starts its dispatch goroutine.
func NewLoop() *Loop {
	l := &Loop{done: make(chan struct{})}
	l.cond = sync.NewCond(&l.mu)
	go l.run()
	return l
}

func (l *Loop) run() {
	defer close(l.done)

	for {
		l.mu.Lock()
		for len(l.queue) == 0 && !l.closed {
			l.cond.Wait()
		}
		if len(l.queue) == 0 {
			// Closed and drained.
			l.mu.Unlock()
			return
		}
		task := l.queue[0]
		l.queue = l.queue[1:]
		l.mu.Unlock()

		task()
	}
}

// Post enqueues a task. Tasks posted after Close are dropped.
func (l *Loop) Post(task func()) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return
	}
	l.queue = append(l.queue, task)
	l.cond.Signal()
}

// Close stops the loop after already-queued tasks drain. It does not wait,
// so it is safe to call from a loop task.
func (l *Loop) Close() {
	l.mu.Lock()
	defer l.mu.Unlock()

	if !l.closed {
		l.closed = true
		l.cond.Signal()
	}
}

// Done is closed once the dispatch goroutine has exited.
func (l *Loop) Done() <-chan struct{} {
	return l.done
}
