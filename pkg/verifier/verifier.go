// Package verifier decides whether fresh finger samples belong to a
// previously enrolled identity.
//
// The decision is a two-terminal state machine: reproduce the commitment from
// samples and helper data, re-derive the identifier, and compare it to the
// expected one in constant time. Only the binary outcome and a coarse reason
// leave this package; nothing reports how close a failed attempt came to the
// fuzzy threshold.
package verifier

import (
	"errors"
	"fmt"

	"github.com/morphid/biodid-middleware/pkg/biometric"
	"github.com/morphid/biodid-middleware/pkg/did"
	"github.com/morphid/biodid-middleware/pkg/fuzzy"
)

// Reason is the coarse explanation attached to a NotMatched result.
type Reason string

const (
	// ReasonNone accompanies a match.
	ReasonNone Reason = ""

	// ReasonInsufficientMatchingFingers means reproduction fell below the
	// finger-match threshold. The expected outcome for a wrong finger.
	ReasonInsufficientMatchingFingers Reason = "insufficient_matching_fingers"

	// ReasonHashMismatch means a commitment was reproduced but derived a
	// different identifier: corrupted helper data or a parameter mismatch,
	// since reproduction already passed the fuzzy threshold.
	ReasonHashMismatch Reason = "hash_mismatch"
)

// Result is the terminal verification outcome.
type Result struct {
	Matched          bool
	Reason           Reason
	MatchedFingers   []biometric.Finger
	UnmatchedFingers []biometric.Finger
}

// ErrInvalidExpectedDID reports an expected identifier that does not parse;
// an input error, not a verification outcome.
var ErrInvalidExpectedDID = errors.New("expected DID is malformed")

// Verifier reproduces commitments and compares derived identifiers.
// Stateless; safe for concurrent use.
type Verifier struct {
	extractor *fuzzy.Extractor
}

// New creates a verifier around the given extractor. The extractor's
// parameters must match the deployment that produced the helper data.
func New(extractor *fuzzy.Extractor) *Verifier {
	return &Verifier{extractor: extractor}
}

// Verify runs the full decision flow. The network for re-encoding is taken
// from the expected identifier itself, so enrollment and verification can
// never silently disagree about it. The reproduced commitment is wiped on
// every path.
func (v *Verifier) Verify(samples []biometric.FingerSample, helpers []fuzzy.HelperDataEntry, expectedDID string) (*Result, error) {
	parsed, err := did.Parse(expectedDID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidExpectedDID, err)
	}

	outcome, err := v.extractor.Reproduce(samples, helpers)
	if err != nil {
		return nil, err
	}
	defer outcome.Commitment.Wipe()

	if outcome.NoMatch() {
		return &Result{
			Matched:          false,
			Reason:           ReasonInsufficientMatchingFingers,
			MatchedFingers:   outcome.Matched,
			UnmatchedFingers: outcome.Unmatched,
		}, nil
	}

	candidate, err := did.Encode(outcome.Commitment, parsed.Network)
	if err != nil {
		return nil, fmt.Errorf("encode candidate DID: %w", err)
	}

	if !did.Equal(candidate, expectedDID) {
		return &Result{
			Matched:          false,
			Reason:           ReasonHashMismatch,
			MatchedFingers:   outcome.Matched,
			UnmatchedFingers: outcome.Unmatched,
		}, nil
	}

	return &Result{
		Matched:          true,
		Reason:           ReasonNone,
		MatchedFingers:   outcome.Matched,
		UnmatchedFingers: outcome.Unmatched,
	}, nil
}
