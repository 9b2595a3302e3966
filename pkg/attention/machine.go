package attention

import (
	"sync"
)

// State is the driver's current attention classification.
// Exactly one value is live at a time and the Machine is its only
// writer; everything else reads it or requests transitions.
type State int

const (
	// StateMonitoring means the detection loop is watching the driver.
	StateMonitoring State = iota

	// StateDrowsy is the transient escalation state. It is never
	// externally observable: entering it immediately engages the
	// conversational session and lands in StateEngaged.
	StateDrowsy

	// StateUnresponsive means the driver's face has been lost long
	// enough to start the emergency countdown.
	StateUnresponsive

	// StateEngaged means a conversational session with the driver is
	// active.
	StateEngaged
)

func (s State) String() string {
	switch s {
	case StateMonitoring:
		return "monitoring"
	case StateDrowsy:
		return "drowsy"
	case StateUnresponsive:
		return "unresponsive"
	case StateEngaged:
		return "engaged"
	default:
		return "unknown"
	}
}

// Machine owns the driver attention state and applies debounced signals
// and session events to it. All transitions are serialized behind a
// mutex; callbacks fire after the transition has been committed, so no
// observer ever sees a half-applied state.
type Machine struct {
	mu    sync.Mutex
	state State

	// onEngage fires on the MONITORING -> (DROWSY ->) ENGAGED edge and
	// is expected to start the audio session. The drowsy state is
	// collapsed into the same transition so no drowsy driver exists
	// without a session start in flight.
	onEngage func()

	// onEscalate fires on the MONITORING -> UNRESPONSIVE edge and is
	// expected to start the emergency countdown.
	onEscalate func()

	// onChange fires after every committed transition.
	onChange func(State)
}

// NewMachine returns a Machine in StateMonitoring.
func NewMachine() *Machine {
	return &Machine{state: StateMonitoring}
}

// OnEngage sets the session-start side effect. Set before Apply is used.
func (m *Machine) OnEngage(fn func()) { m.onEngage = fn }

// OnEscalate sets the countdown-start side effect. Set before Apply is used.
func (m *Machine) OnEscalate(fn func()) { m.onEscalate = fn }

// OnChange sets the transition observer. Set before Apply is used.
func (m *Machine) OnChange(fn func(State)) { m.onChange = fn }

// State returns the current driver state.
func (m *Machine) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Monitoring reports whether the detection loop should be sampling.
func (m *Machine) Monitoring() bool {
	return m.State() == StateMonitoring
}

// Apply handles a debounced transition request. Requests are only valid
// from StateMonitoring; anything arriving while already escalated is an
// idempotent no-op, not buffered. Returns true when a transition was
// committed.
func (m *Machine) Apply(sig Signal) bool {
	m.mu.Lock()

	if m.state != StateMonitoring || sig == SignalNone {
		m.mu.Unlock()
		return false
	}

	var side func()
	switch sig {
	case SignalDrowsy:
		// DROWSY collapses straight into ENGAGED with the session start
		// as the transition's side effect.
		m.state = StateEngaged
		side = m.onEngage
	case SignalUnresponsive:
		m.state = StateUnresponsive
		side = m.onEscalate
	}

	next := m.state
	change := m.onChange
	m.mu.Unlock()

	if side != nil {
		side()
	}
	if change != nil {
		change(next)
	}
	return true
}

// ResumeMonitoring returns the machine to StateMonitoring from an
// escalated state. Called when the emergency countdown reaches a
// terminal action (expiry or cancellation) or when the conversational
// session ends. A no-op when already monitoring.
func (m *Machine) ResumeMonitoring() bool {
	m.mu.Lock()
	if m.state == StateMonitoring {
		m.mu.Unlock()
		return false
	}
	m.state = StateMonitoring
	change := m.onChange
	m.mu.Unlock()

	if change != nil {
		change(StateMonitoring)
	}
	return true
}
