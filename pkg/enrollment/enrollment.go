// Package enrollment defines the wire contract for biometric enrollment.
package enrollment

import (
	"fmt"

	"github.com/morphid/biodid-middleware/pkg/biometric"
	"github.com/morphid/biodid-middleware/pkg/bundle"
	"github.com/morphid/biodid-middleware/pkg/fuzzy"
)

// MinutiaPayload is one minutia point as submitted by a capture client.
type MinutiaPayload struct {
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Angle float64 `json:"angle"`
}

// FingerPayload is one finger sample as submitted by a capture client.
type FingerPayload struct {
	FingerID string           `json:"fingerId" validate:"required"`
	Minutiae []MinutiaPayload `json:"minutiae" validate:"required,min=1"`
}

// GenerateRequest represents an enrollment request.
// The controller proof (signature + message) binds the enrollment to a wallet
// the caller actually holds; it is required for EVM-address controllers.
type GenerateRequest struct {
	Controller    string          `json:"controller" validate:"required"`
	HelperStorage string          `json:"helperStorage" validate:"omitempty,oneof=inline external"`
	Fingers       []FingerPayload `json:"fingers" validate:"required,min=2,max=10,dive"`

	Signature string `json:"signature,omitempty"`
	Message   string `json:"message,omitempty"`
}

// GenerateResponse represents an enrollment response. HelperData always
// carries the per-finger helper entries, regardless of the bundle's storage
// mode, so the caller can keep a local copy for later verification.
type GenerateResponse struct {
	DID        string                                     `json:"did"`
	HelperData map[biometric.Finger]fuzzy.HelperDataEntry `json:"helperData"`
	Metadata   *bundle.MetadataBundle                     `json:"metadata"`
}

// Samples converts the wire payload into domain samples. The caller owns the
// returned slice and must wipe it when done.
func (r *GenerateRequest) Samples() ([]biometric.FingerSample, error) {
	samples := make([]biometric.FingerSample, 0, len(r.Fingers))
	for _, f := range r.Fingers {
		finger := biometric.Finger(f.FingerID)
		if !finger.Valid() {
			return nil, fmt.Errorf("unknown finger id %q", f.FingerID)
		}
		minutiae := make([]biometric.MinutiaPoint, len(f.Minutiae))
		for i, m := range f.Minutiae {
			minutiae[i] = biometric.MinutiaPoint{X: m.X, Y: m.Y, Angle: m.Angle}
		}
		samples = append(samples, biometric.FingerSample{Finger: finger, Minutiae: minutiae})
	}
	return samples, nil
}
