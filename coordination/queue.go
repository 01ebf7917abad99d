// Package coordination implements the shared-state primitives the
// Orchestrator hands to the Fetcher and Processor: the URL and ParsedPage
// queues, the SeenSet dedup set, and the Pause/End lifecycle signals. It is
// the Go-native reshaping of the teacher's cache.go (guarded map) and
// messaging package (producer/consumer over a channel) into the exact
// primitives spec.md §4.4 names.
package coordination

import "sync"

// Queue is an unbounded FIFO safe for concurrent producers and a single
// consumer. Enqueue never blocks; Dequeue blocks until an item is
// available or the queue is closed, in which case it returns ok=false.
//
// Unlike the teacher's raw channel-backed ChannelQueue, Queue buffers
// internally so Enqueue is always non-blocking per spec.md §4.4 ("enqueue
// never blocks") while still giving Dequeue a blocking, cooperative wait.
type Queue[T any] struct {
	mu     sync.Mutex
	cond   *sync.Cond
	items  []T
	closed bool
}

// NewQueue creates an empty Queue.
func NewQueue[T any]() *Queue[T] {
	q := &Queue[T]{}
	q.cond = sync.NewCond(&q.mu)
	return q
}

// Enqueue appends an item and wakes one blocked consumer.
func (q *Queue[T]) Enqueue(item T) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return
	}
	q.items = append(q.items, item)
	q.cond.Signal()
}

// Dequeue blocks until an item is available or the queue is closed and
// drained, in which case it returns the zero value and ok=false.
func (q *Queue[T]) Dequeue() (item T, ok bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	for len(q.items) == 0 && !q.closed {
		q.cond.Wait()
	}
	if len(q.items) == 0 {
		return item, false
	}
	item = q.items[0]
	q.items = q.items[1:]
	return item, true
}

// Len reports the number of items currently buffered.
func (q *Queue[T]) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// Close marks the queue closed; pending Dequeue calls with no buffered
// items unblock and return ok=false. Close is idempotent.
func (q *Queue[T]) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return
	}
	q.closed = true
	q.cond.Broadcast()
}
