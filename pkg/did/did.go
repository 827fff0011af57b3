// Package did encodes commitments into decentralized identifiers of the form
// did:cardano:<network>:<base58(BLAKE2b-256(commitment))>.
//
// Encoding is a pure function of the commitment and network: no I/O, no
// randomness, no wallet or device material. Identical commitments on the same
// network always produce byte-identical identifier strings.
package did

import (
	"crypto/subtle"
	"errors"
	"fmt"
	"strings"

	"github.com/mr-tron/base58"
	"golang.org/x/crypto/blake2b"
)

// Method is the DID method tag.
const Method = "cardano"

// Network selects the chain environment an identifier is anchored to.
type Network string

const (
	Mainnet Network = "mainnet"
	Testnet Network = "testnet"
	Preprod Network = "preprod"
)

// Valid reports whether n names a known network.
func (n Network) Valid() bool {
	switch n {
	case Mainnet, Testnet, Preprod:
		return true
	}
	return false
}

// ErrMalformed reports an identifier string that does not parse as a
// did:cardano identifier.
var ErrMalformed = errors.New("malformed DID")

// DID is a parsed identifier.
type DID struct {
	Network Network
	// IDHash is the base58-encoded digest segment.
	IDHash string
}

// String renders the identifier in its canonical four-segment form.
func (d DID) String() string {
	return fmt.Sprintf("did:%s:%s:%s", Method, d.Network, d.IDHash)
}

// Encode hashes the commitment with BLAKE2b-256 and renders the canonical
// identifier string for the given network.
func Encode(commitment []byte, network Network) (string, error) {
	if len(commitment) == 0 {
		return "", errors.New("empty commitment")
	}
	if !network.Valid() {
		return "", fmt.Errorf("unknown network %q", network)
	}
	digest := blake2b.Sum256(commitment)
	return DID{Network: network, IDHash: base58.Encode(digest[:])}.String(), nil
}

// Parse validates an identifier string and splits it into its parts. It
// requires exactly four colon-delimited segments, the cardano method tag, a
// known network, and a non-empty base58 digest segment.
func Parse(s string) (DID, error) {
	parts := strings.Split(s, ":")
	if len(parts) != 4 {
		return DID{}, fmt.Errorf("%w: expected 4 segments, got %d", ErrMalformed, len(parts))
	}
	if parts[0] != "did" {
		return DID{}, fmt.Errorf("%w: missing did prefix", ErrMalformed)
	}
	if parts[1] != Method {
		return DID{}, fmt.Errorf("%w: unsupported method %q", ErrMalformed, parts[1])
	}
	network := Network(parts[2])
	if !network.Valid() {
		return DID{}, fmt.Errorf("%w: unknown network %q", ErrMalformed, parts[2])
	}
	if parts[3] == "" {
		return DID{}, fmt.Errorf("%w: empty identifier segment", ErrMalformed)
	}
	if _, err := base58.Decode(parts[3]); err != nil {
		return DID{}, fmt.Errorf("%w: identifier segment is not base58", ErrMalformed)
	}
	return DID{Network: network, IDHash: parts[3]}, nil
}

// Equal compares two identifier strings in constant time. Used by the
// verifier so a mismatch reveals nothing about where the strings diverge.
func Equal(a, b string) bool {
	if subtle.ConstantTimeEq(int32(len(a)), int32(len(b))) == 0 {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}
