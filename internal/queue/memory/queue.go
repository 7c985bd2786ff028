// Package memory provides queue implementations for local development.
package memory

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/seoscout/marketintel/internal/intel"
	"github.com/seoscout/marketintel/internal/metrics"
)

// Queue is a bounded in-memory queue with context-aware operations.
type Queue struct {
	ch      chan intel.QueueItem
	closeMu sync.Mutex
	closed  bool
}

// NewQueue constructs a new queue with the provided capacity.
func NewQueue(capacity int) *Queue {
	return &Queue{
		ch: make(chan intel.QueueItem, capacity),
	}
}

// Enqueue pushes an audit into the queue or returns if the context ends.
func (q *Queue) Enqueue(ctx context.Context, item intel.QueueItem) error {
	select {
	case <-ctx.Done():
		return fmt.Errorf("enqueue canceled: %w", ctx.Err())
	case q.ch <- item:
		metrics.SetQueueDepth(len(q.ch))
		return nil
	}
}

// Dequeue pops the next audit, respecting context cancellation.
func (q *Queue) Dequeue(ctx context.Context) (intel.QueueItem, error) {
	select {
	case <-ctx.Done():
		return intel.QueueItem{}, fmt.Errorf("dequeue canceled: %w", ctx.Err())
	case item, ok := <-q.ch:
		if !ok {
			return intel.QueueItem{}, errors.New("queue closed")
		}
		metrics.SetQueueDepth(len(q.ch))
		return item, nil
	}
}

// Close closes the underlying channel for shutdown.
func (q *Queue) Close() {
	q.closeMu.Lock()
	defer q.closeMu.Unlock()
	if q.closed {
		return
	}
	close(q.ch)
	q.closed = true
}
