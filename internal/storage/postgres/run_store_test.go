package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/require"

	"github.com/JakeFAU/linkhound/internal/store"
)

func TestNewWithPoolRequiresPool(t *testing.T) {
	t.Parallel()

	_, err := NewWithPool(nil)
	require.Error(t, err)
}

func TestUpsertRunStartInsertsRow(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	rs, err := NewWithPool(mock)
	require.NoError(t, err)

	runID := uuid.New()
	startedAt := time.Unix(1700000000, 0).UTC()

	mock.ExpectExec("INSERT INTO crawl_runs").
		WithArgs(runID, startedAt, store.RunRunning).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	require.NoError(t, rs.UpsertRunStart(context.Background(), runID, startedAt))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCompleteRunUpdatesRow(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	rs, err := NewWithPool(mock)
	require.NoError(t, err)

	runID := uuid.New()
	finishedAt := time.Unix(1700000100, 0).UTC()
	msg := "crawl interrupted: context canceled"

	mock.ExpectExec("UPDATE crawl_runs").
		WithArgs(finishedAt, store.RunError, &msg, runID).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	require.NoError(t, rs.CompleteRun(context.Background(), runID, finishedAt, store.RunError, &msg))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUpsertSiteStatsAppliesClassDeltas(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	rs, err := NewWithPool(mock)
	require.NoError(t, err)

	runID := uuid.New()
	at := time.Unix(1700000200, 0).UTC()

	mock.ExpectExec("INSERT INTO crawl_run_sites").
		WithArgs(runID, "example.com", at, int64(3), int64(4096), int64(3), int64(0), int64(0), int64(0)).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	err = rs.UpsertSiteStats(context.Background(), runID, "example.com", 3, 4096, "2xx", at)
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUpsertSiteStatsRejectsUnknownClass(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	rs, err := NewWithPool(mock)
	require.NoError(t, err)

	err = rs.UpsertSiteStats(context.Background(), uuid.New(), "example.com", 1, 10, "9xx", time.Now())
	require.Error(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetRunMapsNoRowsToNotFound(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	rs, err := NewWithPool(mock)
	require.NoError(t, err)

	runID := uuid.New()
	mock.ExpectQuery("SELECT run_id, started_at, finished_at, status, error_message").
		WithArgs(runID).
		WillReturnError(pgx.ErrNoRows)

	_, err = rs.GetRun(context.Background(), runID)
	require.ErrorIs(t, err, store.ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestListRunsPropagatesQueryError(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	rs, err := NewWithPool(mock)
	require.NoError(t, err)

	boom := errors.New("connection refused")
	mock.ExpectQuery("SELECT run_id, started_at, finished_at, status, error_message").
		WithArgs((*store.RunStatus)(nil), 10, 0).
		WillReturnError(boom)

	_, err = rs.ListRuns(context.Background(), nil, 10, 0)
	require.ErrorIs(t, err, boom)
	require.NoError(t, mock.ExpectationsWereMet())
}
