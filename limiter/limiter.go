// Package limiter bounds the number of concurrent expensive operations.
//
// Admission is strictly FIFO by Do invocation order. A queued task cannot
// be withdrawn; callers enforce timeouts inside the task body.
package limiter

import "sync"

// Limiter admits at most max tasks concurrently and queues the rest in
// insertion order. Safe for concurrent use.
type Limiter struct {
	mu     sync.Mutex
	max    int
	active int
	queue  []chan struct{}
}

// New creates a Limiter. max is clamped to at least 1.
func New(max int) *Limiter {
	if max < 1 {
		max = 1
	}
	return &Limiter{max: max}
}

// Do runs task under the limiter, blocking until a slot is free. The slot
// is released when the task returns, on success and on failure alike.
func (l *Limiter) Do(task func() error) error {
	l.acquire()
	defer l.release()
	return task()
}

// Active returns the number of tasks currently executing.
func (l *Limiter) Active() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.active
}

// Waiting returns the number of queued tasks.
func (l *Limiter) Waiting() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.queue)
}

func (l *Limiter) acquire() {
	l.mu.Lock()
	if l.active < l.max {
		l.active++
		l.mu.Unlock()
		return
	}
	ready := make(chan struct{})
	l.queue = append(l.queue, ready)
	l.mu.Unlock()
	<-ready
}

func (l *Limiter) release() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.queue) > 0 {
		// Hand the slot to the oldest waiter; active stays constant.
		ready := l.queue[0]
		l.queue = l.queue[1:]
		close(ready)
		return
	}
	l.active--
}
