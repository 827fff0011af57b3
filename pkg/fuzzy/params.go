package fuzzy

import "fmt"

// Params controls minutiae quantization and the fuzzy matching policy.
//
// GridSize and AngleBins are baked into every HelperDataEntry at enrollment
// and reused verbatim at reproduction, so changing them only affects new
// enrollments. MinMinutiaOverlap and MinFingerMatches are deployment policy:
// MinFingerMatches is also the secret-sharing threshold chosen at enrollment,
// which means lowering it later cannot unlock identities enrolled with a
// stricter setting.
type Params struct {
	// GridSize is the side length, in capture units, of the square cell a
	// minutia position is snapped to.
	GridSize float64

	// AngleBins is the number of equal partitions of the full ridge
	// orientation circle.
	AngleBins int

	// MinMinutiaOverlap is the number of quantized minutiae of a fresh
	// sample that must coincide with the enrolled sample for a single
	// finger to count as reproduced.
	MinMinutiaOverlap int

	// MinFingerMatches is the number of reproduced fingers required before
	// a commitment is reconstructed.
	MinFingerMatches int
}

// DefaultParams returns the standard quantization profile. The values are
// part of helper-data schema version 1: enrollments made with them can only
// be reproduced with them.
func DefaultParams() Params {
	return Params{
		GridSize:          20.0,
		AngleBins:         8,
		MinMinutiaOverlap: 8,
		MinFingerMatches:  2,
	}
}

// Validate checks the parameter set for values the extractor can operate on.
func (p Params) Validate() error {
	if p.GridSize <= 0 {
		return fmt.Errorf("grid size must be positive, got %v", p.GridSize)
	}
	if p.AngleBins < 1 {
		return fmt.Errorf("angle bins must be at least 1, got %d", p.AngleBins)
	}
	if p.MinMinutiaOverlap < 1 {
		return fmt.Errorf("minimum minutia overlap must be at least 1, got %d", p.MinMinutiaOverlap)
	}
	if p.MinFingerMatches < 2 {
		return fmt.Errorf("minimum finger matches must be at least 2, got %d", p.MinFingerMatches)
	}
	return nil
}
