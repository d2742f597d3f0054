package crawl

import "sync"

// Frontier is the queue of targets awaiting fetch. Admission happens in BFS
// order, so plain FIFO keeps entries FIFO within each depth; per-entry depth
// bookkeeping stays exact regardless of completion interleaving.
type Frontier struct {
	mu       sync.Mutex
	entries  []Target
	head     int
	maxDepth int

	pushed   int64
	popped   int64
	rejected int64
}

// FrontierStats reports lifetime counters alongside the pending length.
type FrontierStats struct {
	Pushed   int64
	Popped   int64
	Rejected int64
	Pending  int
}

// NewFrontier builds an empty frontier. Entries deeper than maxDepth are
// rejected at push time.
func NewFrontier(maxDepth int) *Frontier {
	return &Frontier{maxDepth: maxDepth}
}

// Push appends t unless its depth exceeds the maximum; rejected pushes are
// no-ops and only counted.
func (f *Frontier) Push(t Target) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if t.Depth > f.maxDepth {
		f.rejected++
		return false
	}
	f.entries = append(f.entries, t)
	f.pushed++
	return true
}

// Pop removes and returns the oldest pending entry.
func (f *Frontier) Pop() (Target, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.head >= len(f.entries) {
		return Target{}, false
	}
	t := f.entries[f.head]
	f.entries[f.head] = Target{}
	f.head++
	f.popped++
	if f.head == len(f.entries) {
		f.entries = f.entries[:0]
		f.head = 0
	} else if f.head > 64 && f.head*2 >= len(f.entries) {
		n := copy(f.entries, f.entries[f.head:])
		f.entries = f.entries[:n]
		f.head = 0
	}
	return t, true
}

// Len returns the number of pending entries.
func (f *Frontier) Len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.entries) - f.head
}

// Stats returns lifetime counters.
func (f *Frontier) Stats() FrontierStats {
	f.mu.Lock()
	defer f.mu.Unlock()
	return FrontierStats{
		Pushed:   f.pushed,
		Popped:   f.popped,
		Rejected: f.rejected,
		Pending:  len(f.entries) - f.head,
	}
}

// Snapshot returns pending entries oldest first.
func (f *Frontier) Snapshot() []Target {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]Target, len(f.entries)-f.head)
	copy(out, f.entries[f.head:])
	return out
}

// Restore replaces pending contents from snapshot entries, dropping any that
// exceed the depth limit.
func (f *Frontier) Restore(entries []Target) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries = f.entries[:0]
	f.head = 0
	for _, t := range entries {
		if t.Depth > f.maxDepth {
			f.rejected++
			continue
		}
		f.entries = append(f.entries, t)
	}
}
