// Package fuzzy implements the fuzzy extractor that turns noisy per-finger
// minutiae into a stable secret commitment plus public helper data.
//
// Construction (helper schema version 1): at enrollment a 32-byte master
// secret is derived from the quantized minutiae of all fingers and split into
// one share per finger with k-of-n secret sharing (k = minimum finger
// matches). Each finger's share is sealed in digital lockers keyed by the
// finger's quantized minutiae cells, so reproducing enough cells of enough
// fingers recovers enough shares to rebuild the master secret. The commitment
// is the BLAKE2b-256 digest of the master secret and never leaves the
// generate/reproduce call that computed it.
//
// The master derivation is deterministic on purpose: enrolling the identical
// samples twice yields the identical commitment, which is what lets the
// duplicate guard catch a re-enrollment by DID alone.
package fuzzy

import (
	"crypto/rand"
	"crypto/subtle"
	"errors"
	"fmt"

	"github.com/corvus-ch/shamir"
	"golang.org/x/crypto/blake2b"

	"github.com/morphid/biodid-middleware/pkg/biometric"
)

const (
	// MinSamples and MaxSamples bound the number of fingers per enrollment.
	MinSamples = 2
	MaxSamples = 10

	masterSize = 32
)

// CommitmentSize is the byte length of every commitment.
const CommitmentSize = blake2b.Size256

var (
	// ErrInsufficientSamples reports fewer than two usable finger samples
	// or a finger with no minutiae.
	ErrInsufficientSamples = errors.New("at least two finger samples with minutiae are required")

	// ErrTooManySamples reports more than ten finger samples.
	ErrTooManySamples = errors.New("at most ten finger samples are allowed")

	// ErrDuplicateFinger reports the same finger submitted twice.
	ErrDuplicateFinger = errors.New("duplicate finger sample")

	// ErrTooFewMinutiae reports a finger whose distinct quantized minutiae
	// cannot satisfy the configured overlap threshold, which would make the
	// enrollment unverifiable.
	ErrTooFewMinutiae = errors.New("finger has too few distinct minutiae for the match threshold")

	// ErrThresholdExceedsSamples reports a finger-match threshold larger
	// than the number of enrolled fingers.
	ErrThresholdExceedsSamples = errors.New("minimum finger matches exceeds the number of samples")
)

// Commitment is the reproducible secret derived from an enrollment. It is
// fixed length, lives only in memory, and must be wiped by its consumer.
type Commitment []byte

// Wipe overwrites the commitment bytes.
func (c Commitment) Wipe() {
	biometric.Zero(c)
}

// ReproduceOutcome is the result of a reproduction attempt. A nil Commitment
// means no match; that is an expected outcome, not a fault.
type ReproduceOutcome struct {
	Commitment Commitment
	Matched    []biometric.Finger
	Unmatched  []biometric.Finger
}

// NoMatch reports whether reproduction fell below the finger-match threshold.
func (o *ReproduceOutcome) NoMatch() bool {
	return o.Commitment == nil
}

// Extractor derives and reproduces commitments under a fixed parameter set.
// It is stateless and safe for concurrent use.
type Extractor struct {
	params Params
}

// NewExtractor validates the parameter set and returns an extractor.
func NewExtractor(params Params) (*Extractor, error) {
	if err := params.Validate(); err != nil {
		return nil, fmt.Errorf("invalid extractor params: %w", err)
	}
	return &Extractor{params: params}, nil
}

// Params returns the extractor's parameter set.
func (e *Extractor) Params() Params {
	return e.params
}

// Generate derives a fresh commitment and one helper entry per finger from
// 2..10 finger samples. The master secret is wiped before returning on every
// path; the caller owns wiping the returned commitment.
func (e *Extractor) Generate(samples []biometric.FingerSample) (Commitment, []HelperDataEntry, error) {
	if len(samples) < MinSamples {
		return nil, nil, ErrInsufficientSamples
	}
	if len(samples) > MaxSamples {
		return nil, nil, ErrTooManySamples
	}

	seen := make(map[biometric.Finger]struct{}, len(samples))
	for i := range samples {
		if err := samples[i].Validate(); err != nil {
			return nil, nil, fmt.Errorf("%w: %v", ErrInsufficientSamples, err)
		}
		if _, dup := seen[samples[i].Finger]; dup {
			return nil, nil, fmt.Errorf("%w: %s", ErrDuplicateFinger, samples[i].Finger)
		}
		seen[samples[i].Finger] = struct{}{}
	}

	if e.params.MinFingerMatches > len(samples) {
		return nil, nil, ErrThresholdExceedsSamples
	}

	// Quantize every finger first so validation failures happen before any
	// secret material exists.
	ordered := make([]biometric.FingerSample, len(samples))
	copy(ordered, samples)
	biometric.SortSamples(ordered)

	tokensByFinger := make([][]string, len(ordered))
	for i := range ordered {
		tokens := quantizeSet(ordered[i].Minutiae, e.params.GridSize, e.params.AngleBins)
		if len(tokens) < e.params.MinMinutiaOverlap {
			return nil, nil, fmt.Errorf("%w: %s", ErrTooFewMinutiae, ordered[i].Finger)
		}
		tokensByFinger[i] = tokens
	}

	master, err := deriveMaster(ordered, tokensByFinger)
	if err != nil {
		return nil, nil, err
	}
	defer biometric.Zero(master)

	shares, err := shamir.Split(master, len(ordered), e.params.MinFingerMatches)
	if err != nil {
		return nil, nil, fmt.Errorf("split master secret: %w", err)
	}

	// Deterministic share assignment: x coordinates in ascending order
	// paired with fingers in canonical order.
	xs := make([]byte, 0, len(shares))
	for x := range shares {
		xs = append(xs, x)
	}
	sortBytes(xs)

	helpers := make([]HelperDataEntry, len(ordered))
	for i := range ordered {
		locked := make([]byte, 0, lockedSize)
		locked = append(locked, xs[i])
		locked = append(locked, shares[xs[i]]...)

		entry, err := e.sealShare(ordered[i].Finger, tokensByFinger[i], locked)
		biometric.Zero(locked)
		if err != nil {
			wipeShares(shares)
			return nil, nil, err
		}
		helpers[i] = *entry
	}
	wipeShares(shares)

	digest := blake2b.Sum256(master)
	return Commitment(digest[:]), helpers, nil
}

// Reproduce attempts to rebuild the enrollment commitment from fresh samples
// and the public helper entries. Fingers with missing samples, malformed
// helper parameters, or insufficient minutiae overlap fail closed and are
// reported as unmatched.
func (e *Extractor) Reproduce(samples []biometric.FingerSample, helpers []HelperDataEntry) (*ReproduceOutcome, error) {
	if len(helpers) == 0 {
		return nil, errors.New("no helper data entries provided")
	}

	byFinger := make(map[biometric.Finger]*biometric.FingerSample, len(samples))
	for i := range samples {
		byFinger[samples[i].Finger] = &samples[i]
	}

	outcome := &ReproduceOutcome{}
	recovered := make(map[byte][]byte)
	defer wipeShares(recovered)

	for i := range helpers {
		h := &helpers[i]
		share, ok := e.reproduceFinger(byFinger[h.Finger], h)
		if !ok {
			outcome.Unmatched = append(outcome.Unmatched, h.Finger)
			continue
		}
		outcome.Matched = append(outcome.Matched, h.Finger)
		recovered[share[0]] = append([]byte{}, share[1:]...)
		biometric.Zero(share)
	}

	if len(outcome.Matched) < e.params.MinFingerMatches {
		return outcome, nil
	}

	master, err := shamir.Combine(recovered)
	if err != nil {
		// Inconsistent shares cannot be distinguished from noise here;
		// fail closed.
		outcome.Matched, outcome.Unmatched = nil, fingersOf(helpers)
		return outcome, nil
	}
	defer biometric.Zero(master)

	digest := blake2b.Sum256(master)
	outcome.Commitment = Commitment(digest[:])
	return outcome, nil
}

// reproduceFinger trial-unlocks the helper's lockers with the fresh sample's
// cell tokens. It returns the locked share value only when the number of
// unlocked cells meets the overlap threshold.
func (e *Extractor) reproduceFinger(sample *biometric.FingerSample, h *HelperDataEntry) ([]byte, bool) {
	if sample == nil || len(sample.Minutiae) == 0 {
		return nil, false
	}
	if err := h.Validate(); err != nil {
		return nil, false
	}

	tokens := quantizeSet(sample.Minutiae, h.GridSize, h.AngleBins)
	lockers := h.lockers()
	tag := h.tag()

	used := make([]bool, len(lockers))
	var locked []byte
	matches := 0

	for _, token := range tokens {
		pad, err := lockerPad(h.Salt, token)
		if err != nil {
			continue
		}
		for i, c := range lockers {
			if used[i] {
				continue
			}
			cand := xorBytes(c, pad)
			if subtle.ConstantTimeCompare(lockedTag(h.Salt, cand), tag) == 1 {
				used[i] = true
				matches++
				if locked == nil {
					locked = cand
				} else {
					biometric.Zero(cand)
				}
				break
			}
			biometric.Zero(cand)
		}
		biometric.Zero(pad)
	}

	if locked == nil || matches < e.params.MinMinutiaOverlap {
		biometric.Zero(locked)
		return nil, false
	}
	return locked, true
}

// sealShare builds the helper entry that locks one finger's share under its
// enrollment cell tokens.
func (e *Extractor) sealShare(finger biometric.Finger, tokens []string, locked []byte) (*HelperDataEntry, error) {
	salt := make([]byte, saltSize)
	if _, err := rand.Read(salt); err != nil {
		return nil, fmt.Errorf("generate salt: %w", err)
	}

	aux := make([]byte, 0, tagSize+len(tokens)*lockedSize)
	aux = append(aux, lockedTag(salt, locked)...)
	for _, token := range tokens {
		pad, err := lockerPad(salt, token)
		if err != nil {
			return nil, err
		}
		aux = append(aux, xorBytes(locked, pad)...)
		biometric.Zero(pad)
	}

	return &HelperDataEntry{
		Finger:              finger,
		SchemaVersion:       HelperSchemaVersion,
		Salt:                salt,
		AuxiliaryCommitment: aux,
		GridSize:            e.params.GridSize,
		AngleBins:           e.params.AngleBins,
	}, nil
}

const masterInfo = "biodid/master/v1"

// deriveMaster digests the canonical finger order and each finger's sorted
// cell tokens into the master secret. Identical samples always derive the
// identical secret, and with it the identical commitment and DID.
func deriveMaster(ordered []biometric.FingerSample, tokensByFinger [][]string) ([]byte, error) {
	h, err := blake2b.New256([]byte(masterInfo))
	if err != nil {
		return nil, fmt.Errorf("derive master secret: %w", err)
	}
	for i := range ordered {
		h.Write([]byte(ordered[i].Finger))
		h.Write([]byte{0})
		for _, token := range tokensByFinger[i] {
			h.Write([]byte(token))
			h.Write([]byte{0})
		}
		h.Write([]byte{0xff})
	}
	return h.Sum(nil), nil
}

func fingersOf(helpers []HelperDataEntry) []biometric.Finger {
	out := make([]biometric.Finger, len(helpers))
	for i := range helpers {
		out[i] = helpers[i].Finger
	}
	return out
}

func wipeShares(shares map[byte][]byte) {
	for _, s := range shares {
		biometric.Zero(s)
	}
}

func sortBytes(b []byte) {
	for i := 1; i < len(b); i++ {
		for j := i; j > 0 && b[j-1] > b[j]; j-- {
			b[j-1], b[j] = b[j], b[j-1]
		}
	}
}
