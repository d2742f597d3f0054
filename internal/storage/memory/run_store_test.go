package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/JakeFAU/linkhound/internal/store"
)

func TestRunStoreLifecycle(t *testing.T) {
	t.Parallel()

	rs := NewRunStore()
	ctx := context.Background()
	runID := uuid.New()
	started := time.Now().UTC()

	if err := rs.UpsertRunStart(ctx, runID, started); err != nil {
		t.Fatalf("UpsertRunStart() error = %v", err)
	}
	// A second start keeps the original timestamp.
	if err := rs.UpsertRunStart(ctx, runID, started.Add(time.Hour)); err != nil {
		t.Fatalf("UpsertRunStart() repeat error = %v", err)
	}

	if err := rs.UpsertSiteStats(ctx, runID, "example.com", 2, 300, "2xx", started.Add(time.Second)); err != nil {
		t.Fatalf("UpsertSiteStats() error = %v", err)
	}
	if err := rs.UpsertSiteStats(ctx, runID, "example.com", 1, 100, "4xx", started.Add(2*time.Second)); err != nil {
		t.Fatalf("UpsertSiteStats() second error = %v", err)
	}
	if err := rs.UpsertSiteStats(ctx, runID, "example.com", 1, 0, "bogus", started); err == nil {
		t.Fatal("expected unknown status class error")
	}

	note := "crawl interrupted"
	if err := rs.CompleteRun(ctx, runID, started.Add(time.Minute), store.RunError, &note); err != nil {
		t.Fatalf("CompleteRun() error = %v", err)
	}
	if err := rs.CompleteRun(ctx, uuid.New(), started, store.RunCompleted, nil); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("CompleteRun() missing run error = %v, want ErrNotFound", err)
	}

	run, err := rs.GetRun(ctx, runID)
	if err != nil {
		t.Fatalf("GetRun() error = %v", err)
	}
	if !run.StartedAt.Equal(started) {
		t.Fatalf("expected original start time, got %v", run.StartedAt)
	}
	if run.Status != store.RunError || run.FinishedAt == nil || run.ErrorMessage == nil {
		t.Fatalf("expected completed error run, got %+v", run)
	}
	if _, err := rs.GetRun(ctx, uuid.New()); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("GetRun() missing run error = %v, want ErrNotFound", err)
	}

	sites, err := rs.ListRunSites(ctx, runID, 10, 0)
	if err != nil {
		t.Fatalf("ListRunSites() error = %v", err)
	}
	if len(sites) != 1 {
		t.Fatalf("expected one site aggregate, got %d", len(sites))
	}
	stat := sites[0]
	if stat.Visits != 3 || stat.BytesTotal != 400 || stat.Fetch2xx != 2 || stat.Fetch4xx != 1 {
		t.Fatalf("unexpected aggregate %+v", stat)
	}
}

func TestRunStoreListRunsFiltersAndPaginates(t *testing.T) {
	t.Parallel()

	rs := NewRunStore()
	ctx := context.Background()
	base := time.Now().UTC()

	ids := make([]uuid.UUID, 3)
	for i := range ids {
		ids[i] = uuid.New()
		if err := rs.UpsertRunStart(ctx, ids[i], base.Add(time.Duration(i)*time.Minute)); err != nil {
			t.Fatalf("UpsertRunStart() error = %v", err)
		}
	}
	if err := rs.CompleteRun(ctx, ids[0], base.Add(time.Hour), store.RunCompleted, nil); err != nil {
		t.Fatalf("CompleteRun() error = %v", err)
	}

	all, err := rs.ListRuns(ctx, nil, 10, 0)
	if err != nil {
		t.Fatalf("ListRuns() error = %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("expected 3 runs, got %d", len(all))
	}
	if !all[0].StartedAt.After(all[1].StartedAt) {
		t.Fatal("expected newest-first ordering")
	}

	running := store.RunRunning
	filtered, err := rs.ListRuns(ctx, &running, 10, 0)
	if err != nil {
		t.Fatalf("ListRuns() filtered error = %v", err)
	}
	if len(filtered) != 2 {
		t.Fatalf("expected 2 running runs, got %d", len(filtered))
	}

	page, err := rs.ListRuns(ctx, nil, 1, 1)
	if err != nil {
		t.Fatalf("ListRuns() paged error = %v", err)
	}
	if len(page) != 1 {
		t.Fatalf("expected single page entry, got %d", len(page))
	}
	if empty, err := rs.ListRuns(ctx, nil, 10, 99); err != nil || len(empty) != 0 {
		t.Fatalf("expected empty page, got %v err %v", empty, err)
	}
}
