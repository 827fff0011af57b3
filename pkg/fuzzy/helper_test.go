package fuzzy

import (
	"testing"

	"github.com/morphid/biodid-middleware/pkg/biometric"
)

func validEntry() HelperDataEntry {
	return HelperDataEntry{
		Finger:              biometric.LeftThumb,
		SchemaVersion:       HelperSchemaVersion,
		Salt:                make([]byte, saltSize),
		AuxiliaryCommitment: make([]byte, tagSize+3*lockedSize),
		GridSize:            20.0,
		AngleBins:           8,
	}
}

func TestHelperDataEntry_Validate(t *testing.T) {
	entry := validEntry()
	if err := entry.Validate(); err != nil {
		t.Fatalf("valid entry rejected: %v", err)
	}

	tests := []struct {
		name   string
		mutate func(*HelperDataEntry)
	}{
		{"unknown finger", func(h *HelperDataEntry) { h.Finger = "left_elbow" }},
		{"unknown schema", func(h *HelperDataEntry) { h.SchemaVersion = "0" }},
		{"short salt", func(h *HelperDataEntry) { h.Salt = h.Salt[:8] }},
		{"zero grid", func(h *HelperDataEntry) { h.GridSize = 0 }},
		{"zero bins", func(h *HelperDataEntry) { h.AngleBins = 0 }},
		{"truncated auxiliary", func(h *HelperDataEntry) { h.AuxiliaryCommitment = h.AuxiliaryCommitment[:tagSize] }},
		{"ragged auxiliary", func(h *HelperDataEntry) { h.AuxiliaryCommitment = h.AuxiliaryCommitment[:tagSize+lockedSize+7] }},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			entry := validEntry()
			tc.mutate(&entry)
			if err := entry.Validate(); err == nil {
				t.Fatalf("expected validation error")
			}
		})
	}
}

func TestLockerPad_DependsOnSaltAndToken(t *testing.T) {
	saltA := []byte("0123456789abcdef")
	saltB := []byte("fedcba9876543210")

	padA, err := lockerPad(saltA, "3:4:5")
	if err != nil {
		t.Fatalf("lockerPad() failed: %v", err)
	}
	padB, err := lockerPad(saltA, "3:4:6")
	if err != nil {
		t.Fatalf("lockerPad() failed: %v", err)
	}
	padC, err := lockerPad(saltB, "3:4:5")
	if err != nil {
		t.Fatalf("lockerPad() failed: %v", err)
	}

	if string(padA) == string(padB) {
		t.Fatalf("pads for different tokens must differ")
	}
	if string(padA) == string(padC) {
		t.Fatalf("pads for different salts must differ")
	}

	again, err := lockerPad(saltA, "3:4:5")
	if err != nil {
		t.Fatalf("lockerPad() failed: %v", err)
	}
	if string(padA) != string(again) {
		t.Fatalf("pad derivation must be deterministic")
	}
}
