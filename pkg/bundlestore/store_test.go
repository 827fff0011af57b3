package bundlestore

import (
	"testing"
	"time"

	"github.com/morphid/biodid-middleware/pkg/biometric"
	"github.com/morphid/biodid-middleware/pkg/bundle"
	"github.com/morphid/biodid-middleware/pkg/fuzzy"
)

func testHelpers() map[biometric.Finger]fuzzy.HelperDataEntry {
	return map[biometric.Finger]fuzzy.HelperDataEntry{
		biometric.LeftThumb: {
			Finger:              biometric.LeftThumb,
			SchemaVersion:       fuzzy.HelperSchemaVersion,
			Salt:                []byte("0123456789abcdef"),
			AuxiliaryCommitment: make([]byte, 16+3*33),
			GridSize:            20,
			AngleBins:           8,
		},
		biometric.RightIndex: {
			Finger:              biometric.RightIndex,
			SchemaVersion:       fuzzy.HelperSchemaVersion,
			Salt:                []byte("fedcba9876543210"),
			AuxiliaryCommitment: make([]byte, 16+3*33),
			GridSize:            20,
			AngleBins:           8,
		},
	}
}

func externalStorageForTest() (bundle.HelperStorage, error) {
	return bundle.ExternalStorage("helper://did:cardano:mainnet:8mNvBsGu5")
}

func newTestBundle(t *testing.T, did, controller string) *bundle.MetadataBundle {
	t.Helper()

	storage, err := bundle.InlineStorage(testHelpers())
	if err != nil {
		t.Fatalf("InlineStorage() failed: %v", err)
	}
	b, err := bundle.Build(did, storage, controller, time.Now())
	if err != nil {
		t.Fatalf("Build() failed: %v", err)
	}
	return b
}
