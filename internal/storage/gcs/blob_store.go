// Package gcs provides a page archive backed by Google Cloud Storage.
package gcs

import (
	"context"
	"fmt"

	"cloud.google.com/go/storage"
)

// Config captures the parameters required to connect to GCS.
type Config struct {
	// Bucket is the destination bucket for archived page bodies.
	Bucket string `mapstructure:"bucket" yaml:"bucket"`
}

// BlobStore writes fetched page bodies to a configured GCS bucket.
type BlobStore struct {
	client *storage.Client
	bucket string
}

// New initializes a GCS client and verifies the bucket is reachable.
// Authentication is handled via Google's Application Default Credentials.
func New(ctx context.Context, cfg Config) (*BlobStore, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("bucket name is required")
	}
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCS client: %w", err)
	}

	// Fail fast on startup when the bucket is missing or unreadable.
	if _, err := client.Bucket(cfg.Bucket).Attrs(ctx); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to get GCS bucket %q attributes: %w", cfg.Bucket, err)
	}

	return &BlobStore{
		client: client,
		bucket: cfg.Bucket,
	}, nil
}

// NewWithClient constructs a store from an existing client (primarily for
// testing against emulators).
func NewWithClient(client *storage.Client, cfg Config) (*BlobStore, error) {
	if client == nil {
		return nil, fmt.Errorf("storage client is required")
	}
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("bucket name is required")
	}
	return &BlobStore{
		client: client,
		bucket: cfg.Bucket,
	}, nil
}

// Save uploads the given data to an object in the GCS bucket.
func (s *BlobStore) Save(ctx context.Context, objectName string, data []byte) error {
	if objectName == "" {
		return fmt.Errorf("object name is required")
	}
	writer := s.client.Bucket(s.bucket).Object(objectName).NewWriter(ctx)
	writer.ContentType = "text/html; charset=utf-8"
	if _, err := writer.Write(data); err != nil {
		closeErr := writer.Close()
		if closeErr != nil {
			return fmt.Errorf("write object %s: %w (close writer: %v)", objectName, err, closeErr)
		}
		return fmt.Errorf("write object %s: %w", objectName, err)
	}
	// Close finalizes the upload and flushes any buffered data.
	if err := writer.Close(); err != nil {
		return fmt.Errorf("close writer for object %s: %w", objectName, err)
	}
	return nil
}

// Close releases the underlying client resources.
func (s *BlobStore) Close() error {
	if s == nil || s.client == nil {
		return nil
	}
	if err := s.client.Close(); err != nil {
		return fmt.Errorf("close GCS client: %w", err)
	}
	return nil
}
