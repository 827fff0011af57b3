// Package registry implements the duplicate-identifier guard that turns
// "same biometric, same DID" into a one-identity-per-person guarantee.
//
// The identity registry itself is an injected capability: production wires
// the durable bundle index, tests substitute an in-memory implementation.
package registry

import (
	"context"
	"errors"
	"time"

	"github.com/morphid/biodid-middleware/pkg/bundle"
)

var (
	// ErrNotFound is returned by Lookup when no record is bound to the DID.
	ErrNotFound = errors.New("did not found in registry")

	// ErrUnavailable reports a registry that could not be consulted. The
	// guard fails closed: unavailability is never treated as uniqueness.
	ErrUnavailable = errors.New("identity registry unavailable")
)

// Record is what the registry knows about an enrolled DID. It carries enough
// of the existing enrollment for a caller to decide next steps; the guard
// itself never merges or overwrites.
type Record struct {
	DID        string
	Bundle     *bundle.MetadataBundle
	EnrolledAt time.Time
}

// Registry is the external identity index consulted before finalizing an
// enrollment. Lookup must return ErrNotFound when the DID is unknown and is
// a pure read, safe to retry.
type Registry interface {
	Lookup(ctx context.Context, did string) (*Record, error)
}
