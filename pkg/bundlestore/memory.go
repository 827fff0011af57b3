package bundlestore

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/morphid/biodid-middleware/pkg/bundle"
)

// memoryStore is an in-memory bundle store for development and tests.
type memoryStore struct {
	mu      sync.RWMutex
	bundles map[string]*bundle.MetadataBundle
}

// NewMemoryStore creates an in-memory implementation of the bundle store.
func NewMemoryStore() *memoryStore {
	return &memoryStore{bundles: make(map[string]*bundle.MetadataBundle)}
}

func (s *memoryStore) Create(_ context.Context, b *bundle.MetadataBundle) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.bundles[b.DID]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateDID, b.DID)
	}
	cp := *b
	s.bundles[b.DID] = &cp
	return nil
}

func (s *memoryStore) GetByDID(_ context.Context, did string) (*bundle.MetadataBundle, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	b, ok := s.bundles[did]
	if !ok {
		return nil, ErrBundleNotFound
	}
	cp := *b
	return &cp, nil
}

func (s *memoryStore) Update(_ context.Context, b *bundle.MetadataBundle) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.bundles[b.DID]; !ok {
		return ErrBundleNotFound
	}
	cp := *b
	s.bundles[b.DID] = &cp
	return nil
}

func (s *memoryStore) List(_ context.Context) ([]*bundle.MetadataBundle, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	bundles := make([]*bundle.MetadataBundle, 0, len(s.bundles))
	for _, b := range s.bundles {
		cp := *b
		bundles = append(bundles, &cp)
	}
	sort.Slice(bundles, func(i, j int) bool {
		return bundles[i].EnrolledAt.Before(bundles[j].EnrolledAt)
	})
	return bundles, nil
}
