// Package helperstore holds externally referenced helper data. Helper data is
// public and non-reversing, so the store needs durability, not secrecy; the
// bundle carries only the returned URI.
package helperstore

import (
	"context"
	"errors"

	"github.com/morphid/biodid-middleware/pkg/biometric"
	"github.com/morphid/biodid-middleware/pkg/fuzzy"
)

// URIScheme prefixes every reference issued by this store.
const URIScheme = "helper://"

var (
	// ErrNotFound is returned when a URI resolves to no stored helper set.
	ErrNotFound = errors.New("helper data not found")

	// ErrInvalidURI is returned for references this store did not issue.
	ErrInvalidURI = errors.New("invalid helper data uri")
)

// Store persists helper data sets referenced by bundles in external storage
// mode.
type Store interface {
	Put(ctx context.Context, did string, helpers map[biometric.Finger]fuzzy.HelperDataEntry) (string, error)
	Get(ctx context.Context, uri string) (map[biometric.Finger]fuzzy.HelperDataEntry, error)
	Delete(ctx context.Context, did string) error
}

// didFromURI strips the scheme and validates the reference shape.
func didFromURI(uri string) (string, error) {
	if len(uri) <= len(URIScheme) || uri[:len(URIScheme)] != URIScheme {
		return "", ErrInvalidURI
	}
	return uri[len(URIScheme):], nil
}
