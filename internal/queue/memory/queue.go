// Package memory provides the in-process dispatch queue between the
// coordinator and its fetch workers.
package memory

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/JakeFAU/linkhound/internal/crawl"
)

// ErrClosed is returned by Dequeue once the queue is closed and drained.
var ErrClosed = errors.New("queue closed")

// Queue is a bounded in-memory queue with context-aware operations. Targets
// buffered at close time are still handed out before Dequeue reports ErrClosed.
type Queue struct {
	ch      chan crawl.Target
	closeMu sync.Mutex
	closed  bool
}

// NewQueue constructs a new queue with the provided capacity.
func NewQueue(capacity int) *Queue {
	return &Queue{
		ch: make(chan crawl.Target, capacity),
	}
}

// Enqueue pushes a target into the queue or returns if the context ends.
func (q *Queue) Enqueue(ctx context.Context, t crawl.Target) error {
	select {
	case <-ctx.Done():
		return fmt.Errorf("enqueue canceled: %w", ctx.Err())
	case q.ch <- t:
		return nil
	}
}

// Dequeue pops the next target, respecting context cancellation.
func (q *Queue) Dequeue(ctx context.Context) (crawl.Target, error) {
	select {
	case <-ctx.Done():
		return crawl.Target{}, fmt.Errorf("dequeue canceled: %w", ctx.Err())
	case t, ok := <-q.ch:
		if !ok {
			return crawl.Target{}, ErrClosed
		}
		return t, nil
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
