// Package biometric defines the ephemeral biometric input types shared by the
// fuzzy extractor and the verifier.
//
// FingerSample and MinutiaPoint values exist only for the duration of a single
// generate or verify call. They must never be persisted, logged, or carried in
// error messages; callers are expected to wipe them on every exit path.
package biometric

import (
	"fmt"
	"sort"
)

// Finger identifies one of the ten fingers a sample can be captured from.
type Finger string

const (
	LeftThumb   Finger = "left_thumb"
	LeftIndex   Finger = "left_index"
	LeftMiddle  Finger = "left_middle"
	LeftRing    Finger = "left_ring"
	LeftPinky   Finger = "left_pinky"
	RightThumb  Finger = "right_thumb"
	RightIndex  Finger = "right_index"
	RightMiddle Finger = "right_middle"
	RightRing   Finger = "right_ring"
	RightPinky  Finger = "right_pinky"
)

// Fingers lists all valid finger identifiers in canonical order.
var Fingers = []Finger{
	LeftThumb, LeftIndex, LeftMiddle, LeftRing, LeftPinky,
	RightThumb, RightIndex, RightMiddle, RightRing, RightPinky,
}

// Valid reports whether f is one of the ten known finger identifiers.
func (f Finger) Valid() bool {
	for _, known := range Fingers {
		if f == known {
			return true
		}
	}
	return false
}

// MinutiaPoint describes a single fingerprint ridge feature: its position on
// the capture plane and its ridge orientation in radians.
type MinutiaPoint struct {
	X     float64
	Y     float64
	Angle float64
}

// FingerSample is the set of minutiae extracted from one finger capture.
type FingerSample struct {
	Finger   Finger
	Minutiae []MinutiaPoint
}

// Validate checks that the sample names a known finger and carries at least
// one minutia.
func (s *FingerSample) Validate() error {
	if !s.Finger.Valid() {
		return fmt.Errorf("unknown finger id %q", s.Finger)
	}
	if len(s.Minutiae) == 0 {
		return fmt.Errorf("finger %s has no minutiae", s.Finger)
	}
	return nil
}

// Wipe overwrites the sample's minutiae so the raw biometric does not linger
// in memory after the call that consumed it.
func (s *FingerSample) Wipe() {
	for i := range s.Minutiae {
		s.Minutiae[i] = MinutiaPoint{}
	}
	s.Minutiae = s.Minutiae[:0]
}

// WipeSamples wipes every sample in the slice.
func WipeSamples(samples []FingerSample) {
	for i := range samples {
		samples[i].Wipe()
	}
}

// Zero overwrites b with zero bytes. Used for commitment and share material.
func Zero(b []byte) {
	for i := range b {
		b[i] = 0
	}
}

// SortSamples orders samples by finger id so that per-finger processing is
// deterministic regardless of capture order.
func SortSamples(samples []FingerSample) {
	sort.Slice(samples, func(i, j int) bool {
		return samples[i].Finger < samples[j].Finger
	})
}
