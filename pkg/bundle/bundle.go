// Package bundle builds and mutates the versioned metadata record bound to a
// DID. The bundle is the only durable artifact of an enrollment: it carries
// the identifier, controller set, and public helper data (inline or by
// reference) and never touches raw biometric samples or commitments.
package bundle

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/morphid/biodid-middleware/pkg/biometric"
	"github.com/morphid/biodid-middleware/pkg/fuzzy"
)

// Version is the metadata bundle schema version.
const Version = "1.1"

// StorageMode distinguishes inline helper data from an external reference.
type StorageMode string

const (
	StorageInline   StorageMode = "inline"
	StorageExternal StorageMode = "external"
)

// Valid reports whether m is a known storage mode.
func (m StorageMode) Valid() bool {
	return m == StorageInline || m == StorageExternal
}

var (
	// ErrAlreadyRevoked reports a second revocation of the same bundle.
	// Revocation is terminal; surfacing the repeat avoids masking
	// double-revocation bugs upstream.
	ErrAlreadyRevoked = errors.New("bundle is already revoked")

	// ErrControllerRequired reports a build or append without a controller.
	ErrControllerRequired = errors.New("controller identifier is required")

	// ErrInvalidStorage reports helper storage whose mode and payload
	// disagree.
	ErrInvalidStorage = errors.New("invalid helper storage")
)

// HelperStorage is a tagged variant: either an inline helper map or an
// external URI, never both. The constructors are the only way to build one,
// so an inconsistent bundle cannot be represented.
type HelperStorage struct {
	mode   StorageMode
	inline map[biometric.Finger]fuzzy.HelperDataEntry
	uri    string
}

// InlineStorage embeds the helper map directly in the bundle.
func InlineStorage(helpers map[biometric.Finger]fuzzy.HelperDataEntry) (HelperStorage, error) {
	if len(helpers) == 0 {
		return HelperStorage{}, fmt.Errorf("%w: empty helper map", ErrInvalidStorage)
	}
	return HelperStorage{mode: StorageInline, inline: helpers}, nil
}

// ExternalStorage records only a reference to externally stored helper data.
func ExternalStorage(uri string) (HelperStorage, error) {
	if uri == "" {
		return HelperStorage{}, fmt.Errorf("%w: empty helper URI", ErrInvalidStorage)
	}
	return HelperStorage{mode: StorageExternal, uri: uri}, nil
}

// Mode returns the storage mode.
func (s HelperStorage) Mode() StorageMode { return s.mode }

// Inline returns the helper map when the mode is inline.
func (s HelperStorage) Inline() (map[biometric.Finger]fuzzy.HelperDataEntry, bool) {
	return s.inline, s.mode == StorageInline
}

// URI returns the external reference when the mode is external.
func (s HelperStorage) URI() (string, bool) {
	return s.uri, s.mode == StorageExternal
}

// Revocation is a two-state enum: active, or revoked at a fixed instant.
// There is no way back from revoked, and no way to be revoked without a
// timestamp.
type Revocation struct {
	at *time.Time
}

// Active returns the non-revoked state.
func Active() Revocation { return Revocation{} }

// RevokedAt returns the revoked state pinned to the given instant.
func RevokedAt(at time.Time) Revocation {
	t := at.UTC()
	return Revocation{at: &t}
}

// Revoked reports whether the state is terminal.
func (r Revocation) Revoked() bool { return r.at != nil }

// At returns the revocation instant when revoked.
func (r Revocation) At() (time.Time, bool) {
	if r.at == nil {
		return time.Time{}, false
	}
	return *r.at, true
}

// MetadataBundle is the versioned, revocable, multi-controller metadata
// record for one enrolled identity.
type MetadataBundle struct {
	Version     string
	DID         string
	Controllers []string
	Helper      HelperStorage
	EnrolledAt  time.Time
	Revocation  Revocation
}

// Build creates the bundle for a fresh enrollment with a single controller.
func Build(didStr string, storage HelperStorage, controller string, at time.Time) (*MetadataBundle, error) {
	if didStr == "" {
		return nil, errors.New("did is required")
	}
	if controller == "" {
		return nil, ErrControllerRequired
	}
	if !storage.mode.Valid() {
		return nil, ErrInvalidStorage
	}
	return &MetadataBundle{
		Version:     Version,
		DID:         didStr,
		Controllers: []string{controller},
		Helper:      storage,
		EnrolledAt:  at.UTC(),
		Revocation:  Active(),
	}, nil
}

// AddController appends a controller unless it is already present. The DID
// itself never changes when controllers are added. Returns whether the set
// grew.
func (b *MetadataBundle) AddController(controller string) bool {
	if controller == "" {
		return false
	}
	for _, c := range b.Controllers {
		if c == controller {
			return false
		}
	}
	b.Controllers = append(b.Controllers, controller)
	return true
}

// HasController reports whether the controller is authorized for this DID.
func (b *MetadataBundle) HasController(controller string) bool {
	for _, c := range b.Controllers {
		if c == controller {
			return true
		}
	}
	return false
}

// Revoke moves the bundle to its terminal state. A second call fails with
// ErrAlreadyRevoked.
func (b *MetadataBundle) Revoke(at time.Time) error {
	if b.Revocation.Revoked() {
		return ErrAlreadyRevoked
	}
	b.Revocation = RevokedAt(at)
	return nil
}

// Wire shape is normative for chain-metadata compatibility.
type wireBiometric struct {
	HelperStorage StorageMode                                `json:"helperStorage"`
	HelperData    map[biometric.Finger]fuzzy.HelperDataEntry `json:"helperData,omitempty"`
	HelperURI     string                                     `json:"helperUri,omitempty"`
}

type wireBundle struct {
	Version             string        `json:"version"`
	DID                 string        `json:"did"`
	Controllers         []string      `json:"controllers"`
	Biometric           wireBiometric `json:"biometric"`
	EnrollmentTimestamp string        `json:"enrollmentTimestamp"`
	Revoked             bool          `json:"revoked"`
	RevokedAt           *string       `json:"revokedAt"`
}

// MarshalJSON renders the normative bundle shape.
func (b *MetadataBundle) MarshalJSON() ([]byte, error) {
	wire := wireBundle{
		Version:             b.Version,
		DID:                 b.DID,
		Controllers:         b.Controllers,
		EnrollmentTimestamp: b.EnrolledAt.UTC().Format(time.RFC3339),
	}

	switch b.Helper.mode {
	case StorageInline:
		wire.Biometric = wireBiometric{HelperStorage: StorageInline, HelperData: b.Helper.inline}
	case StorageExternal:
		wire.Biometric = wireBiometric{HelperStorage: StorageExternal, HelperURI: b.Helper.uri}
	default:
		return nil, ErrInvalidStorage
	}

	if at, ok := b.Revocation.At(); ok {
		wire.Revoked = true
		s := at.Format(time.RFC3339)
		wire.RevokedAt = &s
	}

	return json.Marshal(wire)
}

// UnmarshalJSON parses and validates the normative bundle shape, rejecting
// payloads whose storage mode and payload disagree or whose revocation fields
// are inconsistent.
func (b *MetadataBundle) UnmarshalJSON(data []byte) error {
	var wire wireBundle
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}

	var storage HelperStorage
	var err error
	switch wire.Biometric.HelperStorage {
	case StorageInline:
		if wire.Biometric.HelperURI != "" {
			return fmt.Errorf("%w: inline storage with helper URI", ErrInvalidStorage)
		}
		storage, err = InlineStorage(wire.Biometric.HelperData)
	case StorageExternal:
		if len(wire.Biometric.HelperData) != 0 {
			return fmt.Errorf("%w: external storage with inline helper data", ErrInvalidStorage)
		}
		storage, err = ExternalStorage(wire.Biometric.HelperURI)
	default:
		return fmt.Errorf("%w: unknown mode %q", ErrInvalidStorage, wire.Biometric.HelperStorage)
	}
	if err != nil {
		return err
	}

	enrolledAt, err := time.Parse(time.RFC3339, wire.EnrollmentTimestamp)
	if err != nil {
		return fmt.Errorf("invalid enrollment timestamp: %w", err)
	}

	revocation := Active()
	if wire.Revoked {
		if wire.RevokedAt == nil {
			return errors.New("revoked bundle without revocation timestamp")
		}
		at, err := time.Parse(time.RFC3339, *wire.RevokedAt)
		if err != nil {
			return fmt.Errorf("invalid revocation timestamp: %w", err)
		}
		revocation = RevokedAt(at)
	} else if wire.RevokedAt != nil {
		return errors.New("revocation timestamp on active bundle")
	}

	*b = MetadataBundle{
		Version:     wire.Version,
		DID:         wire.DID,
		Controllers: wire.Controllers,
		Helper:      storage,
		EnrolledAt:  enrolledAt.UTC(),
		Revocation:  revocation,
	}
	return nil
}
