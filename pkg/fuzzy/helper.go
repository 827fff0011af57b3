package fuzzy

import (
	"crypto/sha256"
	"fmt"
	"io"

	"golang.org/x/crypto/blake2b"
	"golang.org/x/crypto/hkdf"

	"github.com/morphid/biodid-middleware/pkg/biometric"
)

// HelperSchemaVersion identifies the quantization and locker construction
// used below. Bump it whenever the construction changes; entries with an
// unknown version fail closed at reproduction.
const HelperSchemaVersion = "1"

const (
	saltSize   = 16
	tagSize    = 16
	lockedSize = 1 + shareSize // x coordinate byte + share body
	shareSize  = 32
)

var lockerInfo = []byte("biodid/helper/locker/v1")

// HelperDataEntry is the public per-finger helper record. It carries only the
// quantization parameters and salted locker material; on its own it reveals
// neither minutiae coordinates nor any share of the commitment.
//
// Entries are immutable once issued for an enrollment.
type HelperDataEntry struct {
	Finger              biometric.Finger `json:"fingerId"`
	SchemaVersion       string           `json:"schemaVersion"`
	Salt                []byte           `json:"salt"`
	AuxiliaryCommitment []byte           `json:"auxiliaryCommitment"`
	GridSize            float64          `json:"gridSize"`
	AngleBins           int              `json:"angleBins"`
}

// Validate checks the entry is structurally sound for reproduction. Callers
// treat a failure as a per-finger no-match, never as a partial match.
func (h *HelperDataEntry) Validate() error {
	if !h.Finger.Valid() {
		return fmt.Errorf("unknown finger id %q", h.Finger)
	}
	if h.SchemaVersion != HelperSchemaVersion {
		return fmt.Errorf("unsupported helper schema version %q", h.SchemaVersion)
	}
	if len(h.Salt) != saltSize {
		return fmt.Errorf("salt must be %d bytes, got %d", saltSize, len(h.Salt))
	}
	if h.GridSize <= 0 {
		return fmt.Errorf("grid size must be positive")
	}
	if h.AngleBins < 1 {
		return fmt.Errorf("angle bins must be at least 1")
	}
	if len(h.AuxiliaryCommitment) < tagSize+lockedSize {
		return fmt.Errorf("auxiliary commitment too short")
	}
	if (len(h.AuxiliaryCommitment)-tagSize)%lockedSize != 0 {
		return fmt.Errorf("auxiliary commitment has invalid layout")
	}
	return nil
}

// tag returns the verification tag stored in the auxiliary commitment.
func (h *HelperDataEntry) tag() []byte {
	return h.AuxiliaryCommitment[:tagSize]
}

// lockers returns the per-minutia locker ciphertexts.
func (h *HelperDataEntry) lockers() [][]byte {
	body := h.AuxiliaryCommitment[tagSize:]
	n := len(body) / lockedSize
	out := make([][]byte, n)
	for i := 0; i < n; i++ {
		out[i] = body[i*lockedSize : (i+1)*lockedSize]
	}
	return out
}

// lockerPad derives the keystream that locks a share under one cell token.
// The token is the only secret input; the salt binds pads to one enrollment.
func lockerPad(salt []byte, token string) ([]byte, error) {
	r := hkdf.New(sha256.New, []byte(token), salt, lockerInfo)
	pad := make([]byte, lockedSize)
	if _, err := io.ReadFull(r, pad); err != nil {
		return nil, fmt.Errorf("derive locker pad: %w", err)
	}
	return pad, nil
}

// lockedTag binds the locked share value to the enrollment salt so that an
// unlock attempt with a wrong pad is recognizably garbage.
func lockedTag(salt, locked []byte) []byte {
	sum := blake2b.Sum256(append(append([]byte{}, salt...), locked...))
	return sum[:tagSize]
}

func xorBytes(a, b []byte) []byte {
	out := make([]byte, len(a))
	for i := range a {
		out[i] = a[i] ^ b[i]
	}
	return out
}
