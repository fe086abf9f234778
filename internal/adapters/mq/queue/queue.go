// Package queue carries transaction partitions from the run producer to the
// worker pool.
//
// The queue is bounded: Enqueue blocks while it is full so a large snapshot
// never buffers more than the configured capacity.
package queue

import (
	"context"
	"sync"

	"github.com/okian/tally/internal/domain/model"
	"github.com/okian/tally/pkg/metrics"
)

// Default queue configuration constants.
const (
	defaultQueueCapacity = 1024
)

// Partition is the payload type flowing through the queue.
type Partition = model.Partition

// Queue provides blocking enqueue and channel-based dequeue semantics.
type Queue interface {
	// Enqueue adds a partition, blocking while the queue is full.
	Enqueue(ctx context.Context, p Partition) error

	// Dequeue returns a channel that receives partitions until the queue is
	// closed and drained.
	Dequeue(ctx context.Context) <-chan Partition

	// Len returns the current number of queued partitions.
	Len(ctx context.Context) int

	// Close stops new enqueues. Queued partitions remain readable.
	Close() error

	IsClosed() bool
}

// InMemoryQueue implements Queue using a buffered channel.
type InMemoryQueue struct {
	items    chan Partition
	capacity int
	mu       sync.RWMutex
	closed   bool
}

// NewInMemoryQueue creates a new in-memory queue with configuration options.
func NewInMemoryQueue(opts ...Option) *InMemoryQueue {
	q := &InMemoryQueue{
		capacity: defaultQueueCapacity,
	}
	for _, opt := range opts {
		opt(q)
	}
	q.items = make(chan Partition, q.capacity)

	metrics.UpdateQueueCapacity(q.capacity)
	metrics.UpdateQueueSize(0)
	return q
}

// Enqueue adds a partition to the queue.
func (q *InMemoryQueue) Enqueue(ctx context.Context, p Partition) error {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		metrics.RecordErrorByComponent("queue", "closed")
		return ErrClosed
	}

	select {
	case q.items <- p:
		metrics.RecordQueueEnqueue()
		metrics.UpdateQueueSize(len(q.items))
		return nil
	case <-ctx.Done():
		metrics.RecordErrorByComponent("queue", "context_cancelled")
		return ctx.Err()
	}
}

// Dequeue returns a channel that will receive partitions as they become available.
func (q *InMemoryQueue) Dequeue(ctx context.Context) <-chan Partition {
	out := make(chan Partition)
	go func() {
		defer close(out)
		for {
			select {
			case <-ctx.Done():
				return
			case p, ok := <-q.items:
				if !ok {
					return
				}
				select {
				case out <- p:
					metrics.RecordQueueDequeue()
					metrics.UpdateQueueSize(len(q.items))
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out
}

// Len returns the current number of queued partitions.
func (q *InMemoryQueue) Len(_ context.Context) int {
	return len(q.items)
}

// Capacity returns the configured bound.
func (q *InMemoryQueue) Capacity() int { return q.capacity }

// Close gracefully shuts down the queue.
func (q *InMemoryQueue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return nil
	}
	close(q.items)
	q.closed = true
	return nil
}

// IsClosed returns true if the queue has been closed.
func (q *InMemoryQueue) IsClosed() bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.closed
}
