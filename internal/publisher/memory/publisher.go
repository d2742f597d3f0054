// Package memory contains an in-memory completion publisher for tests.
package memory

import (
	"context"
	"sync"
)

// Publisher stores published run IDs for inspection.
type Publisher struct {
	mu     sync.RWMutex
	runIDs []string
	closed bool
}

// New returns a memory Publisher.
func New() *Publisher {
	return &Publisher{}
}

// Publish records the run ID.
func (p *Publisher) Publish(_ context.Context, runID string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.runIDs = append(p.runIDs, runID)
	return nil
}

// Close marks the publisher closed.
func (p *Publisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	return nil
}

// Published returns the recorded run IDs.
func (p *Publisher) Published() []string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]string, len(p.runIDs))
	copy(out, p.runIDs)
	return out
}

// Closed reports whether Close has been called.
func (p *Publisher) Closed() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.closed
}
