// Package bundlestore persists metadata bundles and serves as the on-chain
// registry stand-in for duplicate detection and verification lookups.
package bundlestore

import (
	"context"
	"errors"

	"github.com/morphid/biodid-middleware/pkg/bundle"
)

// ErrBundleNotFound is returned when a bundle lookup finds no matching record.
var ErrBundleNotFound = errors.New("bundle not found")

// ErrDuplicateDID is returned when a create collides with an existing DID.
var ErrDuplicateDID = errors.New("bundle already exists for did")

// Store defines the interface for bundle persistence.
type Store interface {
	Create(ctx context.Context, b *bundle.MetadataBundle) error
	GetByDID(ctx context.Context, did string) (*bundle.MetadataBundle, error)
	Update(ctx context.Context, b *bundle.MetadataBundle) error
	List(ctx context.Context) ([]*bundle.MetadataBundle, error)
}
