// Package attention turns noisy per-frame facial landmark observations
// into a debounced driver attention state.
//
// The package has three pieces: a Debouncer that counts consecutive
// closed-eye and lost-face frames, a Machine that owns the driver state
// and applies debounced transition requests, and a Monitor that runs the
// fixed-cadence detection loop against an external landmark detector.
package attention

import (
	"context"

	"github.com/driveguard/driveguard/pkg/ear"
)

// Sample is one fixed-cadence observation from the landmark detector.
// Eye landmark sets are only meaningful when FaceFound is true.
type Sample struct {
	FaceFound bool        `json:"face_found"`
	LeftEye   []ear.Point `json:"left_eye,omitempty"`
	RightEye  []ear.Point `json:"right_eye,omitempty"`
}

// Sampler produces detection samples on demand.
// Implemented by the gocv-backed detector in pkg/vision and by mocks in
// tests.
type Sampler interface {
	// Sample captures one frame and extracts face presence plus eye
	// landmarks. A missing face is a valid sample, not an error.
	Sample(ctx context.Context) (Sample, error)
}
