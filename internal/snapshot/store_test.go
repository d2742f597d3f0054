package snapshot_test

import (
	"context"
	"io/fs"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/JakeFAU/linkhound/internal/crawl"
	"github.com/JakeFAU/linkhound/internal/hash/sha256"
	"github.com/JakeFAU/linkhound/internal/snapshot"
)

func sampleSnapshot() crawl.Snapshot {
	saved := time.Date(2024, 6, 10, 9, 30, 0, 0, time.UTC)
	return crawl.Snapshot{
		RunID:   "0190a5a1-0000-7000-8000-000000000001",
		SavedAt: saved,
		Fingerprint: crawl.Fingerprint{
			Seeds:      []string{"https://a.example/", "https://b.example/"},
			Depth:      2,
			Percentage: 80,
		},
		Visited: []crawl.VisitedRecord{
			{Key: "https://a.example/", FirstSeen: saved, Depth: 0},
			{Key: "https://b.example/", FirstSeen: saved, Depth: 0},
			{Key: "https://b.example/inner", FirstSeen: saved, Depth: 1},
		},
		Frontier: []crawl.Target{
			{Key: "https://b.example/inner", Depth: 1, Parent: "https://b.example/"},
		},
		Paths: &crawl.PathState{
			Nodes: map[string]crawl.PathRecord{
				"https://a.example/":      {},
				"https://b.example/":      {},
				"https://b.example/inner": {ChainLen: 1, Pred: "https://b.example/"},
			},
			LongestKey: "https://b.example/inner",
			LongestLen: 1,
		},
		Stats: crawl.SnapshotStats{
			Fetched: 2,
			Failed:  []crawl.FailedURL{{URL: "https://dead.example/", Reason: "connection refused"}},
		},
	}
}

func TestStoreRoundTrip(t *testing.T) {
	t.Parallel()

	store, err := snapshot.New(t.TempDir(), sha256.New())
	require.NoError(t, err)

	want := sampleSnapshot()
	require.NoError(t, store.Save(context.Background(), want))

	got, err := store.Load()
	require.NoError(t, err)
	require.Equal(t, want.RunID, got.RunID)
	require.True(t, want.SavedAt.Equal(got.SavedAt))
	require.Equal(t, want.Visited, got.Visited)
	require.Equal(t, want.Frontier, got.Frontier)
	require.Equal(t, want.Paths, got.Paths)
	require.Equal(t, want.Stats, got.Stats)
	require.Equal(t, want.Fingerprint.Seeds, got.Fingerprint.Seeds)
	require.NotEmpty(t, got.Fingerprint.Digest, "saving signs the fingerprint")
}

func TestStoreLoadMissing(t *testing.T) {
	t.Parallel()

	store, err := snapshot.New(t.TempDir(), nil)
	require.NoError(t, err)

	_, err = store.Load()
	require.ErrorIs(t, err, fs.ErrNotExist)
}

func TestStoreLoadCorrupt(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	store, err := snapshot.New(dir, nil)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(store.Path(), []byte("{not json"), 0o600))

	_, err = store.Load()
	var storageErr *crawl.StorageError
	require.ErrorAs(t, err, &storageErr)
}

func TestStoreLoadTamperedFingerprint(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	store, err := snapshot.New(dir, sha256.New())
	require.NoError(t, err)
	require.NoError(t, store.Save(context.Background(), sampleSnapshot()))

	payload, err := os.ReadFile(store.Path())
	require.NoError(t, err)
	require.Contains(t, string(payload), `"depth": 2`)
	tampered := strings.Replace(string(payload), `"depth": 2`, `"depth": 5`, 1)
	require.NoError(t, os.WriteFile(store.Path(), []byte(tampered), 0o600))

	_, err = store.Load()
	require.ErrorIs(t, err, crawl.ErrIncompatibleSnapshot)
}

func TestStoreSaveReplacesAtomically(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	store, err := snapshot.New(dir, nil)
	require.NoError(t, err)

	first := sampleSnapshot()
	require.NoError(t, store.Save(context.Background(), first))

	second := first
	second.Stats.Fetched = 9
	require.NoError(t, store.Save(context.Background(), second))

	got, err := store.Load()
	require.NoError(t, err)
	require.Equal(t, 9, got.Stats.Fetched)

	// No temp leftovers after successful saves.
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, snapshot.FileName, entries[0].Name())
}

func TestStoreDiscard(t *testing.T) {
	t.Parallel()

	store, err := snapshot.New(t.TempDir(), nil)
	require.NoError(t, err)
	require.NoError(t, store.Save(context.Background(), sampleSnapshot()))
	require.NoError(t, store.Discard())

	_, err = store.Load()
	require.ErrorIs(t, err, fs.ErrNotExist)
	require.NoError(t, store.Discard(), "discard is idempotent")
}
