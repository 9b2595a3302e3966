package attention

import (
	"github.com/driveguard/driveguard/pkg/ear"
)

// Debounce thresholds. At the nominal 200 ms sample period, drowsiness
// requires just over two seconds of closed eyes and unresponsiveness
// just over five seconds without a face.
const (
	// EARThreshold is the averaged EAR below which eyes count as closed.
	EARThreshold = 0.25

	// DrowsyFrames is the consecutive closed-eye frame count that must be
	// exceeded before a drowsy request fires.
	DrowsyFrames = 10

	// UnresponsiveFrames is the consecutive no-face frame count that must
	// be exceeded before an unresponsive request fires.
	UnresponsiveFrames = 25
)

// Signal is a debounced state-transition request.
type Signal int

const (
	// SignalNone means the sample produced no transition request.
	SignalNone Signal = iota

	// SignalDrowsy requests the MONITORING -> DROWSY transition.
	SignalDrowsy

	// SignalUnresponsive requests the MONITORING -> UNRESPONSIVE transition.
	SignalUnresponsive
)

func (s Signal) String() string {
	switch s {
	case SignalDrowsy:
		return "drowsy"
	case SignalUnresponsive:
		return "unresponsive"
	default:
		return "none"
	}
}

// Debouncer suppresses noise-driven false triggers by requiring the
// closed-eye and lost-face conditions to persist across consecutive
// samples. The two counters are independent: losing the face does not
// reset the closed-eye count, only open-eye evidence does.
//
// Signals are edge-triggered on each sample and may repeat while the
// condition holds; the state machine treats repeats as no-ops.
//
// Not goroutine-safe. The Monitor is the single caller.
type Debouncer struct {
	eyeClosedFrames int
	noFaceFrames    int
}

// NewDebouncer returns a Debouncer with zeroed counters.
func NewDebouncer() *Debouncer {
	return &Debouncer{}
}

// Observe consumes one detection sample and returns the resulting
// signal, if any. A malformed landmark set rejects the sample with
// ear.ErrInvalidLandmarkSet and leaves the closed-eye counter untouched;
// the face-presence evidence is still applied.
func (d *Debouncer) Observe(s Sample) (Signal, error) {
	if !s.FaceFound {
		d.noFaceFrames++
		if d.noFaceFrames > UnresponsiveFrames {
			return SignalUnresponsive, nil
		}
		return SignalNone, nil
	}

	d.noFaceFrames = 0

	avg, err := ear.Averaged(s.LeftEye, s.RightEye)
	if err != nil {
		return SignalNone, err
	}

	if avg < EARThreshold {
		d.eyeClosedFrames++
	} else {
		d.eyeClosedFrames = 0
	}

	if d.eyeClosedFrames > DrowsyFrames {
		return SignalDrowsy, nil
	}
	return SignalNone, nil
}

// Reset zeroes both counters. Called when monitoring resumes so stale
// evidence from before an escalation does not carry over.
func (d *Debouncer) Reset() {
	d.eyeClosedFrames = 0
	d.noFaceFrames = 0
}

// EyeClosedFrames returns the current consecutive closed-eye count.
func (d *Debouncer) EyeClosedFrames() int { return d.eyeClosedFrames }

// NoFaceFrames returns the current consecutive lost-face count.
func (d *Debouncer) NoFaceFrames() int { return d.noFaceFrames }
