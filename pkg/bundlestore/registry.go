package bundlestore

import (
	"context"
	"errors"

	"github.com/morphid/biodid-middleware/pkg/registry"
)

// Index adapts a bundle store to the registry lookup interface used by the
// duplicate guard.
type Index struct {
	store Store
}

// NewIndex wraps the store for registry lookups.
func NewIndex(store Store) *Index {
	return &Index{store: store}
}

// Lookup resolves a DID to its enrollment record.
func (i *Index) Lookup(ctx context.Context, did string) (*registry.Record, error) {
	b, err := i.store.GetByDID(ctx, did)
	if err != nil {
		if errors.Is(err, ErrBundleNotFound) {
			return nil, registry.ErrNotFound
		}
		return nil, err
	}
	return &registry.Record{
		DID:        b.DID,
		Bundle:     b,
		EnrolledAt: b.EnrolledAt,
	}, nil
}
