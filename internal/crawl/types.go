package crawl

import "time"

// Target is one frontier entry: a normalized URL key awaiting fetch.
type Target struct {
	Key    string `json:"url"`
	Depth  int    `json:"depth"`
	Parent string `json:"parent,omitempty"`
}

// VisitedRecord marks a claimed URL key. Records never leave the set for the
// crawl's duration and travel with every snapshot.
type VisitedRecord struct {
	Key       string    `json:"url"`
	FirstSeen time.Time `json:"first_seen"`
	Depth     int       `json:"depth"`
}

// FetchRequest describes a single page fetch handed to a Fetcher.
type FetchRequest struct {
	URL       string
	UserAgent string
	Timeout   time.Duration
}

// FetchResponse carries the outcome of a successful fetch. URL is the final
// URL after any followed redirects.
type FetchResponse struct {
	URL         string
	StatusCode  int
	Body        []byte
	ContentType string
	Duration    time.Duration
}

// PageOutcome is the single message a worker reports back to the coordinator
// for one target. Links are raw absolute candidates, before sampling and
// deduplication.
type PageOutcome struct {
	Target     Target
	Status     int
	Bytes      int64
	Duration   time.Duration
	Links      []string
	PageType   string
	KeywordHit bool
	FetchedAt  time.Time
	Err        error
}

// PageNode is the per-page record kept for graph exports. ResponseTime is in
// seconds.
type PageNode struct {
	URL          string  `json:"url"`
	Type         string  `json:"type"`
	Domain       string  `json:"domain"`
	ResponseTime float64 `json:"response_time"`
	Depth        int     `json:"depth"`
}

// LinkEdge is a directed discovery edge, source to admitted child.
type LinkEdge [2]string

// FailedURL records a fetch that errored; failures are isolated and never
// abort the crawl.
type FailedURL struct {
	URL     string `json:"url"`
	Reason  string `json:"reason"`
	Timeout bool   `json:"timeout,omitempty"`
}

// Result summarizes a finished crawl for reporting.
type Result struct {
	RunID       string
	State       State
	Started     time.Time
	Elapsed     time.Duration
	Visited     int
	Fetched     int
	Failed      []FailedURL
	Nodes       []PageNode
	Edges       []LinkEdge
	Domains     map[string]int
	KeywordHits []string
	LongestLen  int
	LongestPath []string
}

// Snapshot is the persisted crawl state: everything needed to rehydrate the
// visited set, the frontier, and (when exfiltration ran) the path tracker.
type Snapshot struct {
	RunID       string          `json:"run_id"`
	SavedAt     time.Time       `json:"saved_at"`
	Fingerprint Fingerprint     `json:"fingerprint"`
	Visited     []VisitedRecord `json:"visited"`
	Frontier    []Target        `json:"frontier"`
	Paths       *PathState      `json:"paths,omitempty"`
	Stats       SnapshotStats   `json:"stats"`
}

// SnapshotStats carries the counters that survive a resume.
type SnapshotStats struct {
	Fetched int         `json:"fetched"`
	Failed  []FailedURL `json:"failed,omitempty"`
}
