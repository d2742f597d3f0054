// Package memory stores archived pages and run records in-memory for
// development and tests.
package memory

import (
	"context"
	"sync"
)

// BlobStore keeps archived page bodies in a map.
type BlobStore struct {
	mu   sync.RWMutex
	data map[string][]byte
}

// NewBlobStore creates a new in-memory archive.
func NewBlobStore() *BlobStore {
	return &BlobStore{
		data: make(map[string][]byte),
	}
}

// Save persists the content under the object name.
func (s *BlobStore) Save(_ context.Context, objectName string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[objectName] = append([]byte(nil), data...)
	return nil
}

// Object returns the stored content for an object name.
func (s *BlobStore) Object(objectName string) ([]byte, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	data, ok := s.data[objectName]
	if !ok {
		return nil, false
	}
	return append([]byte(nil), data...), true
}

// Len reports how many objects have been stored.
func (s *BlobStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.data)
}
