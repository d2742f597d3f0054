package crawl

import "sync"

// PathRecord is the persisted per-key chain state.
type PathRecord struct {
	ChainLen int    `json:"chain_len"`
	Pred     string `json:"pred,omitempty"`
}

// PathState is the snapshot form of a PathTracker.
type PathState struct {
	Nodes      map[string]PathRecord `json:"nodes"`
	LongestKey string                `json:"longest_key,omitempty"`
	LongestLen int                   `json:"longest_len"`
}

// PathTracker maintains, per claimed key, the length of the unique-link chain
// from a seed, and the single longest chain observed. First discovery wins:
// when several parents race for a child, the recorded predecessor is whichever
// claim succeeded first, not the shortest possible path. The longest chain
// only grows or stays equal as the crawl progresses.
type PathTracker struct {
	mu         sync.Mutex
	nodes      map[string]PathRecord
	longestKey string
	longestLen int
}

// NewPathTracker builds an empty tracker.
func NewPathTracker() *PathTracker {
	return &PathTracker{nodes: make(map[string]PathRecord)}
}

// RecordSeed registers key as a chain origin with length 0.
func (p *PathTracker) RecordSeed(key string) {
	if key == "" {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.nodes[key]; ok {
		return
	}
	p.nodes[key] = PathRecord{}
	if p.longestKey == "" {
		p.longestKey = key
	}
}

// RecordClaim links key to its first-discovering parent: chain(key) =
// chain(parent) + 1. A parent missing from the tracker (possible after a
// resume without path state) counts as length 0.
func (p *PathTracker) RecordClaim(key, parent string) {
	if key == "" {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.nodes[key]; ok {
		return
	}
	rec := PathRecord{ChainLen: 1, Pred: parent}
	if pn, ok := p.nodes[parent]; ok {
		rec.ChainLen = pn.ChainLen + 1
	}
	p.nodes[key] = rec
	if rec.ChainLen > p.longestLen {
		p.longestLen = rec.ChainLen
		p.longestKey = key
	}
}

// LongestLen returns the longest chain length seen; seeds count as 0.
func (p *PathTracker) LongestLen() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.longestLen
}

// LongestChain reconstructs the longest chain, seed first.
func (p *PathTracker) LongestChain() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.longestKey == "" {
		return nil
	}
	var chain []string
	for key := p.longestKey; key != ""; {
		chain = append(chain, key)
		rec, ok := p.nodes[key]
		if !ok {
			break
		}
		key = rec.Pred
	}
	for i, j := 0, len(chain)-1; i < j; i, j = i+1, j-1 {
		chain[i], chain[j] = chain[j], chain[i]
	}
	return chain
}

// Snapshot copies the tracker state for persistence.
func (p *PathTracker) Snapshot() *PathState {
	p.mu.Lock()
	defer p.mu.Unlock()
	nodes := make(map[string]PathRecord, len(p.nodes))
	for k, v := range p.nodes {
		nodes[k] = v
	}
	return &PathState{Nodes: nodes, LongestKey: p.longestKey, LongestLen: p.longestLen}
}

// Restore replaces the tracker state from a snapshot. A nil state resets the
// tracker; chains then restart from zero.
func (p *PathTracker) Restore(state *PathState) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.nodes = make(map[string]PathRecord)
	p.longestKey = ""
	p.longestLen = 0
	if state == nil {
		return
	}
	for k, v := range state.Nodes {
		p.nodes[k] = v
	}
	p.longestKey = state.LongestKey
	p.longestLen = state.LongestLen
}
