// Package snapshot persists crawl checkpoints to the local filesystem.
//
// The on-disk form is a single JSON document replaced atomically: each save
// writes a temp file in the same directory, fsyncs it, then renames it over
// the previous checkpoint. A crash mid-save leaves the prior checkpoint
// intact, never a half-written one.
package snapshot

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/JakeFAU/linkhound/internal/crawl"
)

// FileName is the checkpoint file kept inside the crawl output directory.
const FileName = "checkpoint.json"

// Store reads and writes one crawl checkpoint under a fixed directory.
type Store struct {
	dir    string
	path   string
	hasher crawl.Hasher

	mu sync.Mutex
}

// New creates the output directory if needed and returns a store for its
// checkpoint. The hasher, when non-nil, signs fingerprints so a hand-edited
// checkpoint is refused at load time.
func New(dir string, hasher crawl.Hasher) (*Store, error) {
	if dir == "" {
		return nil, &crawl.ConfigError{Field: "output", Reason: "output directory is required"}
	}
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, &crawl.StorageError{Op: "mkdir", Path: dir, Err: err}
	}
	return &Store{
		dir:    dir,
		path:   filepath.Join(dir, FileName),
		hasher: hasher,
	}, nil
}

// Path returns the checkpoint file location.
func (s *Store) Path() string { return s.path }

// Save writes snap, replacing any previous checkpoint atomically.
func (s *Store) Save(ctx context.Context, snap crawl.Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return &crawl.StorageError{Op: "checkpoint", Path: s.path, Err: err}
	}
	if s.hasher != nil {
		digest, err := s.hasher.Hash(snap.Fingerprint.Canonical())
		if err != nil {
			return &crawl.StorageError{Op: "checkpoint", Path: s.path, Err: fmt.Errorf("fingerprint digest: %w", err)}
		}
		snap.Fingerprint.Digest = digest
	}

	payload, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return &crawl.StorageError{Op: "checkpoint", Path: s.path, Err: fmt.Errorf("marshal: %w", err)}
	}

	tmp, err := os.CreateTemp(s.dir, FileName+".tmp-*")
	if err != nil {
		return &crawl.StorageError{Op: "checkpoint", Path: s.path, Err: err}
	}
	tmpName := tmp.Name()
	if err := writeAndSync(tmp, payload); err != nil {
		os.Remove(tmpName)
		return &crawl.StorageError{Op: "checkpoint", Path: tmpName, Err: err}
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return &crawl.StorageError{Op: "checkpoint", Path: s.path, Err: err}
	}
	return nil
}

func writeAndSync(f *os.File, payload []byte) error {
	if _, err := f.Write(payload); err != nil {
		f.Close()
		return err
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// Load reads the checkpoint. A missing file surfaces as fs.ErrNotExist so
// callers can distinguish "nothing to resume" from a broken checkpoint.
func (s *Store) Load() (crawl.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	payload, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return crawl.Snapshot{}, fmt.Errorf("no checkpoint at %s: %w", s.path, fs.ErrNotExist)
		}
		return crawl.Snapshot{}, &crawl.StorageError{Op: "load", Path: s.path, Err: err}
	}

	var snap crawl.Snapshot
	if err := json.Unmarshal(payload, &snap); err != nil {
		return crawl.Snapshot{}, &crawl.StorageError{Op: "load", Path: s.path, Err: fmt.Errorf("corrupt checkpoint: %w", err)}
	}

	if s.hasher != nil && snap.Fingerprint.Digest != "" {
		digest, err := s.hasher.Hash(snap.Fingerprint.Canonical())
		if err != nil {
			return crawl.Snapshot{}, &crawl.StorageError{Op: "load", Path: s.path, Err: fmt.Errorf("fingerprint digest: %w", err)}
		}
		if digest != snap.Fingerprint.Digest {
			return crawl.Snapshot{}, fmt.Errorf("%w: fingerprint digest mismatch in %s",
				crawl.ErrIncompatibleSnapshot, s.path)
		}
	}
	return snap, nil
}

// Discard removes the checkpoint after a completed crawl. Missing files are
// not an error.
func (s *Store) Discard() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return &crawl.StorageError{Op: "discard", Path: s.path, Err: err}
	}
	return nil
}
