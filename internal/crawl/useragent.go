package crawl

import "sync/atomic"

// DefaultUserAgents is the stock rotation list used when the operator does
// not supply one.
var DefaultUserAgents = []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/14.1.1 Safari/605.1.15",
	"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/92.0.4515.107 Safari/537.36",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:90.0) Gecko/20100101 Firefox/90.0",
	"Mozilla/5.0 (iPhone; CPU iPhone OS 14_6 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/14.1.1 Mobile/15E148 Safari/604.1",
}

// AgentRotation hands out user agents round-robin. Selection is per fetch;
// a single-entry rotation behaves as a fixed override.
type AgentRotation struct {
	agents []string
	next   atomic.Uint64
}

// NewAgentRotation copies agents into a rotation; an empty list falls back to
// DefaultUserAgents.
func NewAgentRotation(agents []string) *AgentRotation {
	if len(agents) == 0 {
		agents = DefaultUserAgents
	}
	return &AgentRotation{agents: append([]string(nil), agents...)}
}

// Next returns the next agent in round-robin order. Safe for concurrent use.
func (r *AgentRotation) Next() string {
	n := r.next.Add(1) - 1
	return r.agents[n%uint64(len(r.agents))]
}
