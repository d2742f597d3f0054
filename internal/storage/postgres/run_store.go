// Package postgres provides Postgres-backed persistence implementations.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/JakeFAU/linkhound/internal/store"
)

// Config controls the Postgres connection pool behind the run store.
type Config struct {
	DSN             string
	MaxConns        int32
	MinConns        int32
	MaxConnLifetime time.Duration
}

type dbPool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Close()
}

// RunStore implements the store.RunRepository interface using Postgres.
type RunStore struct {
	pool dbPool
}

// New creates a Postgres-backed RunStore using the provided config.
func New(ctx context.Context, cfg Config) (*RunStore, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("database.dsn is required")
	}
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}
	if cfg.MinConns > 0 {
		poolCfg.MinConns = cfg.MinConns
	}
	if cfg.MaxConnLifetime > 0 {
		poolCfg.MaxConnLifetime = cfg.MaxConnLifetime
	}
	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	return &RunStore{pool: pool}, nil
}

// NewWithPool constructs a store from an existing pool (primarily for testing).
func NewWithPool(pool dbPool) (*RunStore, error) {
	if pool == nil {
		return nil, fmt.Errorf("pool is required")
	}
	return &RunStore{pool: pool}, nil
}

// Close releases the underlying pool resources.
func (s *RunStore) Close() {
	if s == nil || s.pool == nil {
		return
	}
	s.pool.Close()
}

// UpsertRunStart inserts the run in running status; repeated calls keep the
// first start time.
func (s *RunStore) UpsertRunStart(ctx context.Context, runID uuid.UUID, startedAt time.Time) error {
	query := `
		INSERT INTO crawl_runs (run_id, started_at, status)
		VALUES ($1, $2, $3)
		ON CONFLICT (run_id) DO NOTHING;
	`
	_, err := s.pool.Exec(ctx, query, runID, startedAt, store.RunRunning)
	if err != nil {
		return fmt.Errorf("failed to upsert run start: %w", err)
	}
	return nil
}

// CompleteRun marks a run as finished with a status and optional error message.
func (s *RunStore) CompleteRun(
	ctx context.Context,
	runID uuid.UUID,
	finishedAt time.Time,
	status store.RunStatus,
	errMsg *string,
) error {
	query := `
		UPDATE crawl_runs
		SET finished_at = $1, status = $2, error_message = $3
		WHERE run_id = $4;
	`
	_, err := s.pool.Exec(ctx, query, finishedAt, status, errMsg, runID)
	if err != nil {
		return fmt.Errorf("failed to complete run: %w", err)
	}
	return nil
}

// UpsertSiteStats applies visit/byte deltas for a site within a run.
func (s *RunStore) UpsertSiteStats(
	ctx context.Context,
	runID uuid.UUID,
	site string,
	deltaVisits,
	deltaBytes int64,
	statusClass string,
	at time.Time,
) error {
	var fetch2xx, fetch3xx, fetch4xx, fetch5xx int64
	switch statusClass {
	case "2xx":
		fetch2xx = deltaVisits
	case "3xx":
		fetch3xx = deltaVisits
	case "4xx":
		fetch4xx = deltaVisits
	case "5xx":
		fetch5xx = deltaVisits
	case "other":
	default:
		return fmt.Errorf("unknown status class: %s", statusClass)
	}

	query := `
		INSERT INTO crawl_run_sites (run_id, site, last_update, visits, bytes_total, fetch_2xx, fetch_3xx, fetch_4xx, fetch_5xx)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (run_id, site) DO UPDATE SET
			visits = crawl_run_sites.visits + EXCLUDED.visits,
			bytes_total = crawl_run_sites.bytes_total + EXCLUDED.bytes_total,
			fetch_2xx = crawl_run_sites.fetch_2xx + EXCLUDED.fetch_2xx,
			fetch_3xx = crawl_run_sites.fetch_3xx + EXCLUDED.fetch_3xx,
			fetch_4xx = crawl_run_sites.fetch_4xx + EXCLUDED.fetch_4xx,
			fetch_5xx = crawl_run_sites.fetch_5xx + EXCLUDED.fetch_5xx,
			last_update = GREATEST(crawl_run_sites.last_update, EXCLUDED.last_update);
	`
	_, err := s.pool.Exec(
		ctx,
		query,
		runID,
		site,
		at,
		deltaVisits,
		deltaBytes,
		fetch2xx,
		fetch3xx,
		fetch4xx,
		fetch5xx,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert site stats: %w", err)
	}
	return nil
}

// GetRun retrieves a single crawl run by its ID.
func (s *RunStore) GetRun(ctx context.Context, runID uuid.UUID) (store.CrawlRun, error) {
	query := `
		SELECT run_id, started_at, finished_at, status, error_message
		FROM crawl_runs
		WHERE run_id = $1;
	`
	var run store.CrawlRun
	err := s.pool.QueryRow(ctx, query, runID).Scan(
		&run.RunID,
		&run.StartedAt,
		&run.FinishedAt,
		&run.Status,
		&run.ErrorMessage,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return store.CrawlRun{}, store.ErrNotFound
		}
		return store.CrawlRun{}, fmt.Errorf("failed to get run: %w", err)
	}
	return run, nil
}

// ListRuns retrieves a list of crawl runs, with optional status filtering.
func (s *RunStore) ListRuns(
	ctx context.Context,
	status *store.RunStatus,
	limit,
	offset int,
) ([]store.CrawlRun, error) {
	query := `
		SELECT run_id, started_at, finished_at, status, error_message
		FROM crawl_runs
		WHERE ($1::text IS NULL OR status = $1)
		ORDER BY started_at DESC
		LIMIT $2 OFFSET $3;
	`
	rows, err := s.pool.Query(ctx, query, status, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var runs []store.CrawlRun
	for rows.Next() {
		var run store.CrawlRun
		err := rows.Scan(
			&run.RunID,
			&run.StartedAt,
			&run.FinishedAt,
			&run.Status,
			&run.ErrorMessage,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run row: %w", err)
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate run rows: %w", err)
	}
	return runs, nil
}

// ListRunSites retrieves aggregated site statistics for a given run.
func (s *RunStore) ListRunSites(
	ctx context.Context,
	runID uuid.UUID,
	limit,
	offset int,
) ([]store.SiteStats, error) {
	query := `
		SELECT run_id, site, last_update, visits, bytes_total, fetch_2xx, fetch_3xx, fetch_4xx, fetch_5xx
		FROM crawl_run_sites
		WHERE run_id = $1
		ORDER BY last_update DESC
		LIMIT $2 OFFSET $3;
	`
	rows, err := s.pool.Query(ctx, query, runID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list run sites: %w", err)
	}
	defer rows.Close()

	var stats []store.SiteStats
	for rows.Next() {
		var stat store.SiteStats
		err := rows.Scan(
			&stat.RunID,
			&stat.Site,
			&stat.LastUpdate,
			&stat.Visits,
			&stat.BytesTotal,
			&stat.Fetch2xx,
			&stat.Fetch3xx,
			&stat.Fetch4xx,
			&stat.Fetch5xx,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan site stats row: %w", err)
		}
		stats = append(stats, stat)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate site stats rows: %w", err)
	}
	return stats, nil
}
