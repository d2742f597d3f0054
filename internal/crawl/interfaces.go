package crawl

import (
	"context"
	"time"
)

// Fetcher retrieves a single page within the request's timeout. Failures are
// reported as *FetchError so callers can separate timeouts from transport
// faults.
type Fetcher interface {
	Fetch(ctx context.Context, req FetchRequest) (FetchResponse, error)
}

// LinkExtractor pulls candidate links out of a fetched body. Implementations
// resolve relative references against the final page URL and drop non-http
// schemes.
type LinkExtractor interface {
	Extract(baseURL string, body []byte) ([]string, error)
}

// Queue hands targets from the coordinator to fetch workers. Dequeue blocks
// until an item arrives, the queue closes, or ctx ends.
type Queue interface {
	Enqueue(ctx context.Context, t Target) error
	Dequeue(ctx context.Context) (Target, error)
	Close()
}

// Limiter throttles fetches per destination host.
type Limiter interface {
	Wait(ctx context.Context, rawURL string) error
}

// Archive stores fetched page bodies under an object name.
type Archive interface {
	Save(ctx context.Context, objectName string, data []byte) error
}

// Snapshotter persists and restores crawl snapshots with atomic replace
// semantics. Discard removes the snapshot after a completed crawl.
type Snapshotter interface {
	Save(ctx context.Context, snap Snapshot) error
	Load() (Snapshot, error)
	Discard() error
}

// Publisher announces a finished run to downstream consumers.
type Publisher interface {
	Publish(ctx context.Context, runID string) error
	Close() error
}

// Hasher produces hex digests for fingerprints and archive object names.
type Hasher interface {
	Hash(data []byte) (string, error)
}

// Clock supplies timestamps; injected so tests control time.
type Clock interface {
	Now() time.Time
}

// IDGenerator mints run identifiers.
type IDGenerator interface {
	NewID() (string, error)
}

// wallClock is the fallback Clock when callers pass nil.
type wallClock struct{}

func (wallClock) Now() time.Time { return time.Now().UTC() }
