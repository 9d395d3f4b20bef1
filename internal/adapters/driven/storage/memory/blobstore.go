package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/custodia-labs/policy-store/internal/core/domain"
	"github.com/custodia-labs/policy-store/internal/core/ports/driven"
)

// Ensure BlobStore implements the interface.
var _ driven.BlobStore = (*BlobStore)(nil)

// BlobStore is an in-memory implementation of driven.BlobStore.
// Payloads are copied on Put and Get so callers never share buffers.
type BlobStore struct {
	mu    sync.RWMutex
	blobs map[domain.Location][]byte
}

// NewBlobStore creates a new in-memory blob store.
func NewBlobStore() *BlobStore {
	return &BlobStore{
		blobs: make(map[domain.Location][]byte),
	}
}

// Put stores a copy of data, replacing any previous payload.
func (s *BlobStore) Put(ctx context.Context, loc domain.Location, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.blobs[loc] = append([]byte{}, data...)
	return nil
}

// Get returns a copy of the stored payload.
func (s *BlobStore) Get(_ context.Context, loc domain.Location) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	data, ok := s.blobs[loc]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return append([]byte{}, data...), nil
}

// Exists reports whether a payload is stored at loc.
func (s *BlobStore) Exists(_ context.Context, loc domain.Location) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.blobs[loc]
	return ok, nil
}

// List returns the sorted identifiers of every record in ns.
func (s *BlobStore) List(_ context.Context, ns domain.Namespace) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	seen := make(map[string]struct{})
	for loc := range s.blobs {
		if loc.Namespace == ns {
			seen[loc.ID] = struct{}{}
		}
	}
	ids := make([]string, 0, len(seen))
	for id := range seen {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

// DeleteRecord removes every artifact of a record. Deleting an absent
// record returns domain.ErrNotFound.
func (s *BlobStore) DeleteRecord(_ context.Context, ns domain.Namespace, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	found := false
	for loc := range s.blobs {
		if loc.Namespace == ns && loc.ID == id {
			delete(s.blobs, loc)
			found = true
		}
	}
	if !found {
		return domain.ErrNotFound
	}
	return nil
}

// Close is a no-op.
func (s *BlobStore) Close() error {
	return nil
}

// Len returns the number of stored artifacts.
func (s *BlobStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.blobs)
}
