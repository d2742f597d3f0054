package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/JakeFAU/linkhound/internal/store"
)

// RunStore provides an in-memory store.RunRepository for development and
// tests, mirroring the Postgres implementation's semantics.
type RunStore struct {
	mu    sync.RWMutex
	runs  map[uuid.UUID]store.CrawlRun
	sites map[uuid.UUID]map[string]store.SiteStats
}

// NewRunStore constructs a RunStore.
func NewRunStore() *RunStore {
	return &RunStore{
		runs:  make(map[uuid.UUID]store.CrawlRun),
		sites: make(map[uuid.UUID]map[string]store.SiteStats),
	}
}

// UpsertRunStart records the run as running; repeated calls keep the first
// start time.
func (s *RunStore) UpsertRunStart(_ context.Context, runID uuid.UUID, startedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.runs[runID]; exists {
		return nil
	}
	s.runs[runID] = store.CrawlRun{
		RunID:     runID,
		StartedAt: startedAt,
		Status:    store.RunRunning,
	}
	return nil
}

// CompleteRun marks the run finished with the provided status and error.
func (s *RunStore) CompleteRun(
	_ context.Context,
	runID uuid.UUID,
	finishedAt time.Time,
	status store.RunStatus,
	errMsg *string,
) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	run, ok := s.runs[runID]
	if !ok {
		return store.ErrNotFound
	}
	ts := finishedAt
	run.FinishedAt = &ts
	run.Status = status
	run.ErrorMessage = errMsg
	s.runs[runID] = run
	return nil
}

// UpsertSiteStats accumulates visit/byte deltas per (run, site).
func (s *RunStore) UpsertSiteStats(
	_ context.Context,
	runID uuid.UUID,
	site string,
	deltaVisits int64,
	deltaBytes int64,
	statusClass string,
	at time.Time,
) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	bySite, ok := s.sites[runID]
	if !ok {
		bySite = make(map[string]store.SiteStats)
		s.sites[runID] = bySite
	}
	stat := bySite[site]
	stat.RunID = runID
	stat.Site = site
	stat.Visits += deltaVisits
	stat.BytesTotal += deltaBytes
	switch statusClass {
	case "2xx":
		stat.Fetch2xx += deltaVisits
	case "3xx":
		stat.Fetch3xx += deltaVisits
	case "4xx":
		stat.Fetch4xx += deltaVisits
	case "5xx":
		stat.Fetch5xx += deltaVisits
	case "other":
	default:
		return fmt.Errorf("unknown status class: %s", statusClass)
	}
	if at.After(stat.LastUpdate) {
		stat.LastUpdate = at
	}
	bySite[site] = stat
	return nil
}

// GetRun fetches a run by ID.
func (s *RunStore) GetRun(_ context.Context, runID uuid.UUID) (store.CrawlRun, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	run, ok := s.runs[runID]
	if !ok {
		return store.CrawlRun{}, store.ErrNotFound
	}
	return run, nil
}

// ListRuns returns runs ordered by start time descending.
func (s *RunStore) ListRuns(
	_ context.Context,
	status *store.RunStatus,
	limit, offset int,
) ([]store.CrawlRun, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	runs := make([]store.CrawlRun, 0, len(s.runs))
	for _, run := range s.runs {
		if status != nil && run.Status != *status {
			continue
		}
		runs = append(runs, run)
	}
	sort.Slice(runs, func(i, j int) bool {
		return runs[i].StartedAt.After(runs[j].StartedAt)
	})
	if offset >= len(runs) {
		return nil, nil
	}
	runs = runs[offset:]
	if limit > 0 && limit < len(runs) {
		runs = runs[:limit]
	}
	return runs, nil
}

// ListRunSites returns per-site aggregates ordered by last update descending.
func (s *RunStore) ListRunSites(
	_ context.Context,
	runID uuid.UUID,
	limit, offset int,
) ([]store.SiteStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	bySite := s.sites[runID]
	stats := make([]store.SiteStats, 0, len(bySite))
	for _, stat := range bySite {
		stats = append(stats, stat)
	}
	sort.Slice(stats, func(i, j int) bool {
		if stats[i].LastUpdate.Equal(stats[j].LastUpdate) {
			return stats[i].Site < stats[j].Site
		}
		return stats[i].LastUpdate.After(stats[j].LastUpdate)
	})
	if offset >= len(stats) {
		return nil, nil
	}
	stats = stats[offset:]
	if limit > 0 && limit < len(stats) {
		stats = stats[:limit]
	}
	return stats, nil
}
