// Package storage defines the interface for archiving fetched page bodies.
// This abstraction keeps the crawl engine independent of a specific backend
// (e.g., Google Cloud Storage or the local filesystem).
package storage

import (
	"context"
)

// Provider defines the common interface for a page archive backend.
// It abstracts the operation of saving data.
type Provider interface {
	// Save uploads data to a specified object path/key in the archive.
	Save(ctx context.Context, objectName string, data []byte) error
}

// NoOpProvider is an archive backend that performs no operations. It is
// useful for testing or running the crawler in a dry-run mode where content
// is fetched but not saved.
type NoOpProvider struct{}

// Save for NoOpProvider does nothing and always returns nil.
func (n *NoOpProvider) Save(_ context.Context, _ string, _ []byte) error {
	return nil
}
