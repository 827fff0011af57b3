package helperstore

import (
	"context"
	"sync"

	"github.com/morphid/biodid-middleware/pkg/biometric"
	"github.com/morphid/biodid-middleware/pkg/fuzzy"
)

// memoryStore is an in-memory helper data store for development and tests.
type memoryStore struct {
	mu      sync.RWMutex
	helpers map[string]map[biometric.Finger]fuzzy.HelperDataEntry
}

// NewMemoryStore creates an in-memory implementation of the helper store.
func NewMemoryStore() *memoryStore {
	return &memoryStore{helpers: make(map[string]map[biometric.Finger]fuzzy.HelperDataEntry)}
}

func (s *memoryStore) Put(_ context.Context, did string, helpers map[biometric.Finger]fuzzy.HelperDataEntry) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := make(map[biometric.Finger]fuzzy.HelperDataEntry, len(helpers))
	for finger, entry := range helpers {
		cp[finger] = entry
	}
	s.helpers[did] = cp
	return URIScheme + did, nil
}

func (s *memoryStore) Delete(_ context.Context, did string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.helpers, did)
	return nil
}

func (s *memoryStore) Get(_ context.Context, uri string) (map[biometric.Finger]fuzzy.HelperDataEntry, error) {
	did, err := didFromURI(uri)
	if err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	helpers, ok := s.helpers[did]
	if !ok {
		return nil, ErrNotFound
	}
	cp := make(map[biometric.Finger]fuzzy.HelperDataEntry, len(helpers))
	for finger, entry := range helpers {
		cp[finger] = entry
	}
	return cp, nil
}
