package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/JakeFAU/linkhound/internal/store"
)

func TestRunHandlerListRuns(t *testing.T) {
	t.Parallel()

	finished := time.Now().Add(-time.Minute)
	repo := &mockRunRepo{
		runs: []store.CrawlRun{
			{
				RunID:      uuid.New(),
				Status:     store.RunCompleted,
				StartedAt:  time.Now().Add(-time.Hour),
				FinishedAt: &finished,
			},
		},
	}
	handler := NewRunHandler(repo, zap.NewNop())

	req := httptest.NewRequest(http.MethodGet, "/v1/runs?status=completed&limit=10", nil)
	rec := httptest.NewRecorder()

	handler.ListRuns(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Contains(t, body, "runs")
}

func TestRunHandlerListRunsInvalidStatus(t *testing.T) {
	t.Parallel()

	handler := NewRunHandler(&mockRunRepo{}, zap.NewNop())
	req := httptest.NewRequest(http.MethodGet, "/v1/runs?status=queued", nil)
	rec := httptest.NewRecorder()

	handler.ListRuns(rec, req)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRunHandlerListRunsWithoutRepo(t *testing.T) {
	t.Parallel()

	handler := NewRunHandler(nil, zap.NewNop())
	req := httptest.NewRequest(http.MethodGet, "/v1/runs", nil)
	rec := httptest.NewRecorder()

	handler.ListRuns(rec, req)
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestRunHandlerGetRunNotFound(t *testing.T) {
	t.Parallel()

	repo := &mockRunRepo{err: store.ErrNotFound}
	handler := NewRunHandler(repo, zap.NewNop())

	runID := uuid.New()
	req := httptest.NewRequest(http.MethodGet, "/v1/runs/"+runID.String(), nil)
	req = withRunIDParam(req, runID.String())
	rec := httptest.NewRecorder()

	handler.GetRun(rec, req)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRunHandlerGetRunInvalidID(t *testing.T) {
	t.Parallel()

	handler := NewRunHandler(&mockRunRepo{}, zap.NewNop())
	req := httptest.NewRequest(http.MethodGet, "/v1/runs/not-a-uuid", nil)
	req = withRunIDParam(req, "not-a-uuid")
	rec := httptest.NewRecorder()

	handler.GetRun(rec, req)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRunHandlerListRunSitesInvalidLimit(t *testing.T) {
	t.Parallel()

	handler := NewRunHandler(&mockRunRepo{}, zap.NewNop())
	runID := uuid.New()
	req := httptest.NewRequest(http.MethodGet, "/v1/runs/"+runID.String()+"/sites?limit=-1", nil)
	req = withRunIDParam(req, runID.String())
	rec := httptest.NewRecorder()

	handler.ListRunSites(rec, req)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

type mockRunRepo struct {
	runs  []store.CrawlRun
	sites []store.SiteStats
	err   error
}

func (m *mockRunRepo) UpsertRunStart(context.Context, uuid.UUID, time.Time) error {
	return m.err
}

func (m *mockRunRepo) CompleteRun(context.Context, uuid.UUID, time.Time, store.RunStatus, *string) error {
	return m.err
}

func (m *mockRunRepo) UpsertSiteStats(context.Context, uuid.UUID, string, int64, int64, string, time.Time) error {
	return m.err
}

func (m *mockRunRepo) GetRun(context.Context, uuid.UUID) (store.CrawlRun, error) {
	if len(m.runs) > 0 {
		return m.runs[0], nil
	}
	return store.CrawlRun{}, m.err
}

func (m *mockRunRepo) ListRuns(context.Context, *store.RunStatus, int, int) ([]store.CrawlRun, error) {
	return m.runs, m.err
}

func (m *mockRunRepo) ListRunSites(context.Context, uuid.UUID, int, int) ([]store.SiteStats, error) {
	return m.sites, m.err
}

func withRunIDParam(r *http.Request, runID string) *http.Request {
	ctx := chi.NewRouteContext()
	ctx.URLParams.Add("run_id", runID)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, ctx))
}
