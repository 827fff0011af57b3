package registry

import (
	"context"
	"sync"
	"time"

	"github.com/morphid/biodid-middleware/pkg/bundle"
)

// InMemory is a non-durable registry used by tests and standalone runs.
type InMemory struct {
	mu      sync.RWMutex
	records map[string]*Record

	// FailWith, when set, makes every lookup fail. Lets tests exercise the
	// fail-closed path.
	FailWith error
}

// NewInMemory creates an empty in-memory registry.
func NewInMemory() *InMemory {
	return &InMemory{records: make(map[string]*Record)}
}

// Lookup implements Registry.
func (r *InMemory) Lookup(_ context.Context, did string) (*Record, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.FailWith != nil {
		return nil, r.FailWith
	}
	record, ok := r.records[did]
	if !ok {
		return nil, ErrNotFound
	}
	return record, nil
}

// Register binds a bundle to its DID.
func (r *InMemory) Register(b *bundle.MetadataBundle) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records[b.DID] = &Record{DID: b.DID, Bundle: b, EnrolledAt: b.EnrolledAt}
}

// RegisterRecord binds a prebuilt record, for tests that need full control.
func (r *InMemory) RegisterRecord(did string, at time.Time, b *bundle.MetadataBundle) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records[did] = &Record{DID: did, Bundle: b, EnrolledAt: at}
}
