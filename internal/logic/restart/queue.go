package restart

import (
	"context"
	"sync"
)

// DefaultQueueSize is the default capacity of the notification queue.
const DefaultQueueSize = 320

// Queue is a bounded FIFO of events between one producer and one consumer.
// Push blocks while the queue is full. Only the producer may call Close.
type Queue struct {
	ch        chan Event
	closeOnce sync.Once
}

// NewQueue creates a queue with the given capacity; non-positive values use DefaultQueueSize.
func NewQueue(capacity int) *Queue {
	if capacity <= 0 {
		capacity = DefaultQueueSize
	}

	return &Queue{
		ch: make(chan Event, capacity),
	}
}

// Push appends the event, waiting for free space. It returns the context error
// if ctx is done before the event is accepted.
func (q *Queue) Push(ctx context.Context, event Event) error {
	select {
	case q.ch <- event:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Events returns the receive side. It is closed after Close once drained.
func (q *Queue) Events() <-chan Event {
	return q.ch
}

// Close marks the end of the stream. Safe to call more than once.
func (q *Queue) Close() {
	q.closeOnce.Do(func() {
		close(q.ch)
	})
}

// Len returns the number of queued events.
func (q *Queue) Len() int {
	return len(q.ch)
}

// Cap returns the queue capacity.
func (q *Queue) Cap() int {
	return cap(q.ch)
}
