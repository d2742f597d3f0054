package crawl

import (
	"sort"
	"sync"
	"sync/atomic"
)

// VisitedSet is the deduplication ledger. A key enters the set at most once,
// atomically, and stays for the crawl's duration; there is no eviction.
type VisitedSet struct {
	seen  sync.Map // key -> *VisitedRecord
	count atomic.Int64
	clock Clock
}

// NewVisitedSet builds an empty set. A nil clock falls back to wall time.
func NewVisitedSet(clock Clock) *VisitedSet {
	if clock == nil {
		clock = wallClock{}
	}
	return &VisitedSet{clock: clock}
}

// TryClaim records key at depth if it has not been seen before and returns
// true. Under concurrent calls with the same key, exactly one caller observes
// true across the crawl's lifetime.
func (s *VisitedSet) TryClaim(key string, depth int) bool {
	if key == "" {
		return false
	}
	rec := &VisitedRecord{Key: key, FirstSeen: s.clock.Now(), Depth: depth}
	if _, loaded := s.seen.LoadOrStore(key, rec); loaded {
		return false
	}
	s.count.Add(1)
	return true
}

// Contains reports whether key has been claimed.
func (s *VisitedSet) Contains(key string) bool {
	_, ok := s.seen.Load(key)
	return ok
}

// Depth returns the claim depth for key when present.
func (s *VisitedSet) Depth(key string) (int, bool) {
	v, ok := s.seen.Load(key)
	if !ok {
		return 0, false
	}
	return v.(*VisitedRecord).Depth, true
}

// Len returns the number of claimed keys.
func (s *VisitedSet) Len() int {
	return int(s.count.Load())
}

// PreMark rehydrates the set from snapshot records before any fetch begins.
// Keys already present keep their original record.
func (s *VisitedSet) PreMark(records []VisitedRecord) {
	for i := range records {
		rec := records[i]
		if rec.Key == "" {
			continue
		}
		if _, loaded := s.seen.LoadOrStore(rec.Key, &rec); !loaded {
			s.count.Add(1)
		}
	}
}

// Snapshot returns the claimed records sorted by key for stable persistence.
func (s *VisitedSet) Snapshot() []VisitedRecord {
	out := make([]VisitedRecord, 0, s.Len())
	s.seen.Range(func(_, v any) bool {
		out = append(out, *v.(*VisitedRecord))
		return true
	})
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}
