package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound signals that the requested record does not exist.
var ErrNotFound = errors.New("run record not found")

// RunStatus mirrors the crawl_runs status column.
type RunStatus string

// Run statuses persisted in crawl_runs.status.
const (
	RunRunning   RunStatus = "running"
	RunCompleted RunStatus = "completed"
	RunError     RunStatus = "error"
)

// CrawlRun models the crawl_runs table for API responses.
type CrawlRun struct {
	// RunID is the identifier minted when the crawl started.
	RunID uuid.UUID
	// StartedAt captures when the run was first marked running.
	StartedAt time.Time
	// FinishedAt is nil until the run is marked completed/error.
	FinishedAt *time.Time
	// Status is running/completed/error. Interrupted runs land on error
	// with the interruption reason in ErrorMessage.
	Status RunStatus
	// ErrorMessage optionally stores the final failure reason.
	ErrorMessage *string
}

// SiteStats captures per-host aggregation for a run.
type SiteStats struct {
	// RunID is the owning crawl.
	RunID uuid.UUID
	// Site is the normalized host label (e.g., example.com).
	Site string
	// LastUpdate captures the timestamp of the most recent aggregate.
	LastUpdate time.Time
	// Visits counts completed pages for the site.
	Visits int64
	// BytesTotal accumulates response bytes.
	BytesTotal int64
	// Fetch2xx-5xx hold per-status counts for diagnostics.
	Fetch2xx int64
	Fetch3xx int64
	Fetch4xx int64
	Fetch5xx int64
}

// RunRepository persists incremental crawl progress.
type RunRepository interface {
	// UpsertRunStart inserts (or idempotently updates) the started_at timestamp.
	UpsertRunStart(ctx context.Context, runID uuid.UUID, startedAt time.Time) error
	// CompleteRun marks the run finished with the provided status and error.
	CompleteRun(ctx context.Context, runID uuid.UUID, finishedAt time.Time, status RunStatus, errMsg *string) error
	// UpsertSiteStats applies visit/byte deltas per (run, site, statusClass).
	UpsertSiteStats(
		ctx context.Context,
		runID uuid.UUID,
		site string,
		deltaVisits int64,
		deltaBytes int64,
		statusClass string,
		at time.Time,
	) error

	// GetRun loads a single crawl run or returns ErrNotFound.
	GetRun(ctx context.Context, runID uuid.UUID) (CrawlRun, error)
	// ListRuns returns crawl runs filtered by optional status plus limit/offset.
	ListRuns(ctx context.Context, status *RunStatus, limit, offset int) ([]CrawlRun, error)
	// ListRunSites returns aggregated site stats for one run.
	ListRunSites(ctx context.Context, runID uuid.UUID, limit, offset int) ([]SiteStats, error)
}
