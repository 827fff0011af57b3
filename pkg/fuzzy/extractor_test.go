package fuzzy

import (
	"bytes"
	"errors"
	"testing"

	"github.com/morphid/biodid-middleware/pkg/biometric"
)

// sample builds a finger sample whose minutiae sit at grid cell centers, so
// noise tests can perturb them without crossing a cell boundary.
func sample(finger biometric.Finger, seed int) biometric.FingerSample {
	minutiae := make([]biometric.MinutiaPoint, 12)
	for i := range minutiae {
		minutiae[i] = biometric.MinutiaPoint{
			X:     float64(i*3+seed)*20 + 10,
			Y:     float64(i*2)*20 + 10,
			Angle: (float64(i%8) + 0.5) * 0.785398,
		}
	}
	return biometric.FingerSample{Finger: finger, Minutiae: minutiae}
}

// perturb shifts every minutia by a small offset that stays inside its grid
// cell and angle bin.
func perturb(s biometric.FingerSample, dx, dy, dAngle float64) biometric.FingerSample {
	minutiae := make([]biometric.MinutiaPoint, len(s.Minutiae))
	for i, m := range s.Minutiae {
		minutiae[i] = biometric.MinutiaPoint{X: m.X + dx, Y: m.Y + dy, Angle: m.Angle + dAngle}
	}
	return biometric.FingerSample{Finger: s.Finger, Minutiae: minutiae}
}

func newExtractor(t *testing.T) *Extractor {
	t.Helper()
	e, err := NewExtractor(DefaultParams())
	if err != nil {
		t.Fatalf("NewExtractor() failed: %v", err)
	}
	return e
}

func enrollment(t *testing.T, e *Extractor, samples []biometric.FingerSample) (Commitment, []HelperDataEntry) {
	t.Helper()
	commitment, helpers, err := e.Generate(samples)
	if err != nil {
		t.Fatalf("Generate() failed: %v", err)
	}
	return commitment, helpers
}

func TestGenerate_Shape(t *testing.T) {
	e := newExtractor(t)
	samples := []biometric.FingerSample{sample(biometric.LeftThumb, 1), sample(biometric.RightIndex, 40)}

	commitment, helpers := enrollment(t, e, samples)

	if len(commitment) != CommitmentSize {
		t.Fatalf("expected %d-byte commitment, got %d", CommitmentSize, len(commitment))
	}
	if len(helpers) != 2 {
		t.Fatalf("expected one helper entry per finger, got %d", len(helpers))
	}
	for _, h := range helpers {
		if err := h.Validate(); err != nil {
			t.Fatalf("helper entry for %s invalid: %v", h.Finger, err)
		}
		if h.SchemaVersion != HelperSchemaVersion {
			t.Fatalf("unexpected schema version %q", h.SchemaVersion)
		}
		if h.GridSize != 20.0 || h.AngleBins != 8 {
			t.Fatalf("helper must pin quantization params, got %v/%v", h.GridSize, h.AngleBins)
		}
	}
}

func TestGenerate_Deterministic(t *testing.T) {
	e := newExtractor(t)
	samples := []biometric.FingerSample{sample(biometric.LeftThumb, 1), sample(biometric.RightIndex, 40)}

	first, _ := enrollment(t, e, samples)
	second, _ := enrollment(t, e, samples)

	if !bytes.Equal(first, second) {
		t.Fatalf("identical samples must derive identical commitments")
	}

	other, _ := enrollment(t, e, []biometric.FingerSample{sample(biometric.LeftThumb, 7), sample(biometric.RightIndex, 90)})
	if bytes.Equal(first, other) {
		t.Fatalf("different samples must derive different commitments")
	}
}

func TestGenerate_InputValidation(t *testing.T) {
	e := newExtractor(t)

	tests := []struct {
		name    string
		samples []biometric.FingerSample
		want    error
	}{
		{"no samples", nil, ErrInsufficientSamples},
		{"one sample", []biometric.FingerSample{sample(biometric.LeftThumb, 1)}, ErrInsufficientSamples},
		{
			"duplicate finger",
			[]biometric.FingerSample{sample(biometric.LeftThumb, 1), sample(biometric.LeftThumb, 40)},
			ErrDuplicateFinger,
		},
		{
			"empty minutiae",
			[]biometric.FingerSample{{Finger: biometric.LeftThumb}, sample(biometric.RightIndex, 40)},
			ErrInsufficientSamples,
		},
		{
			"too few minutiae",
			[]biometric.FingerSample{
				{Finger: biometric.LeftThumb, Minutiae: sample(biometric.LeftThumb, 1).Minutiae[:3]},
				sample(biometric.RightIndex, 40),
			},
			ErrTooFewMinutiae,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if _, _, err := e.Generate(tc.samples); !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}

	tooMany := make([]biometric.FingerSample, 0, len(biometric.Fingers))
	for i, f := range biometric.Fingers {
		tooMany = append(tooMany, sample(f, i*13+1))
	}
	if _, _, err := e.Generate(append(tooMany, sample(biometric.LeftThumb, 99))); !errors.Is(err, ErrTooManySamples) {
		t.Fatalf("expected ErrTooManySamples, got %v", err)
	}
}

func TestGenerate_ThresholdExceedsSamples(t *testing.T) {
	params := DefaultParams()
	params.MinFingerMatches = 3
	e, err := NewExtractor(params)
	if err != nil {
		t.Fatalf("NewExtractor() failed: %v", err)
	}

	_, _, err = e.Generate([]biometric.FingerSample{sample(biometric.LeftThumb, 1), sample(biometric.RightIndex, 40)})
	if !errors.Is(err, ErrThresholdExceedsSamples) {
		t.Fatalf("expected ErrThresholdExceedsSamples, got %v", err)
	}
}

func TestReproduce_ExactSamples(t *testing.T) {
	e := newExtractor(t)
	samples := []biometric.FingerSample{sample(biometric.LeftThumb, 1), sample(biometric.RightIndex, 40)}
	commitment, helpers := enrollment(t, e, samples)

	outcome, err := e.Reproduce(samples, helpers)
	if err != nil {
		t.Fatalf("Reproduce() failed: %v", err)
	}
	if outcome.NoMatch() {
		t.Fatalf("exact samples must reproduce: %+v", outcome)
	}
	if !bytes.Equal(outcome.Commitment, commitment) {
		t.Fatalf("reproduced commitment differs from enrollment")
	}
	if len(outcome.Matched) != 2 || len(outcome.Unmatched) != 0 {
		t.Fatalf("unexpected match sets: %v / %v", outcome.Matched, outcome.Unmatched)
	}
}

func TestReproduce_ToleratesNoise(t *testing.T) {
	e := newExtractor(t)
	samples := []biometric.FingerSample{sample(biometric.LeftThumb, 1), sample(biometric.RightIndex, 40)}
	commitment, helpers := enrollment(t, e, samples)

	noisy := []biometric.FingerSample{
		perturb(samples[0], 4.0, -3.5, 0.2),
		perturb(samples[1], -2.0, 5.0, -0.15),
	}

	outcome, err := e.Reproduce(noisy, helpers)
	if err != nil {
		t.Fatalf("Reproduce() failed: %v", err)
	}
	if outcome.NoMatch() {
		t.Fatalf("in-cell noise must still reproduce")
	}
	if !bytes.Equal(outcome.Commitment, commitment) {
		t.Fatalf("noisy reproduction derived a different commitment")
	}
}

func TestReproduce_PartialFingers(t *testing.T) {
	e := newExtractor(t)
	samples := []biometric.FingerSample{
		sample(biometric.LeftThumb, 1),
		sample(biometric.RightIndex, 40),
		sample(biometric.RightThumb, 80),
	}
	commitment, helpers := enrollment(t, e, samples)

	// Two of three fingers correct clears the default threshold.
	partial := []biometric.FingerSample{
		samples[0],
		samples[1],
		sample(biometric.RightThumb, 200),
	}
	outcome, err := e.Reproduce(partial, helpers)
	if err != nil {
		t.Fatalf("Reproduce() failed: %v", err)
	}
	if outcome.NoMatch() {
		t.Fatalf("two of three fingers must reproduce")
	}
	if !bytes.Equal(outcome.Commitment, commitment) {
		t.Fatalf("partial reproduction derived a different commitment")
	}
	if len(outcome.Matched) != 2 || len(outcome.Unmatched) != 1 {
		t.Fatalf("unexpected match sets: %v / %v", outcome.Matched, outcome.Unmatched)
	}
}

func TestReproduce_BelowThreshold(t *testing.T) {
	e := newExtractor(t)
	samples := []biometric.FingerSample{
		sample(biometric.LeftThumb, 1),
		sample(biometric.RightIndex, 40),
		sample(biometric.RightThumb, 80),
	}
	_, helpers := enrollment(t, e, samples)

	// Only one correct finger: below the threshold of two.
	outcome, err := e.Reproduce([]biometric.FingerSample{
		samples[0],
		sample(biometric.RightIndex, 150),
		sample(biometric.RightThumb, 200),
	}, helpers)
	if err != nil {
		t.Fatalf("Reproduce() failed: %v", err)
	}
	if !outcome.NoMatch() {
		t.Fatalf("one of three fingers must not reproduce")
	}
	if outcome.Commitment != nil {
		t.Fatalf("no-match outcome must carry no commitment")
	}
}

func TestReproduce_WrongPerson(t *testing.T) {
	e := newExtractor(t)
	_, helpers := enrollment(t, e, []biometric.FingerSample{sample(biometric.LeftThumb, 1), sample(biometric.RightIndex, 40)})

	outcome, err := e.Reproduce([]biometric.FingerSample{
		sample(biometric.LeftThumb, 300),
		sample(biometric.RightIndex, 350),
	}, helpers)
	if err != nil {
		t.Fatalf("Reproduce() failed: %v", err)
	}
	if !outcome.NoMatch() {
		t.Fatalf("a different person's minutiae must not reproduce")
	}
}

func TestReproduce_MissingSamples(t *testing.T) {
	e := newExtractor(t)
	samples := []biometric.FingerSample{sample(biometric.LeftThumb, 1), sample(biometric.RightIndex, 40)}
	_, helpers := enrollment(t, e, samples)

	outcome, err := e.Reproduce(samples[:1], helpers)
	if err != nil {
		t.Fatalf("Reproduce() failed: %v", err)
	}
	if !outcome.NoMatch() {
		t.Fatalf("a single presented finger must not clear a threshold of two")
	}
	if len(outcome.Unmatched) != 1 {
		t.Fatalf("missing sample must be reported unmatched: %v", outcome.Unmatched)
	}
}

func TestReproduce_CorruptedHelper(t *testing.T) {
	e := newExtractor(t)
	samples := []biometric.FingerSample{sample(biometric.LeftThumb, 1), sample(biometric.RightIndex, 40)}
	_, helpers := enrollment(t, e, samples)

	// Corrupt one finger's verification tag: no locker unlocks, the finger
	// fails closed, and the attempt drops below the threshold.
	helpers[0].AuxiliaryCommitment[3] ^= 0xff
	outcome, err := e.Reproduce(samples, helpers)
	if err != nil {
		t.Fatalf("Reproduce() failed: %v", err)
	}
	if !outcome.NoMatch() {
		t.Fatalf("corrupted helper data must not reproduce")
	}
}

func TestReproduce_UnknownSchemaVersion(t *testing.T) {
	e := newExtractor(t)
	samples := []biometric.FingerSample{sample(biometric.LeftThumb, 1), sample(biometric.RightIndex, 40)}
	_, helpers := enrollment(t, e, samples)

	helpers[0].SchemaVersion = "2"
	outcome, err := e.Reproduce(samples, helpers)
	if err != nil {
		t.Fatalf("Reproduce() failed: %v", err)
	}
	if !outcome.NoMatch() {
		t.Fatalf("unknown helper schema must fail closed")
	}
}

func TestReproduce_NoHelpers(t *testing.T) {
	e := newExtractor(t)
	if _, err := e.Reproduce([]biometric.FingerSample{sample(biometric.LeftThumb, 1)}, nil); err == nil {
		t.Fatalf("expected error for empty helper set")
	}
}

func TestHelperData_DoesNotLeakMinutiae(t *testing.T) {
	e := newExtractor(t)
	samples := []biometric.FingerSample{sample(biometric.LeftThumb, 1), sample(biometric.RightIndex, 40)}
	_, helpers := enrollment(t, e, samples)

	for i := range samples {
		tokens := quantizeSet(samples[i].Minutiae, e.params.GridSize, e.params.AngleBins)
		for _, h := range helpers {
			for _, token := range tokens {
				if bytes.Contains(h.AuxiliaryCommitment, []byte(token)) {
					t.Fatalf("helper data contains raw cell token %q", token)
				}
			}
		}
	}
}
