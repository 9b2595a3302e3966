package attention

import (
	"testing"
)

func TestMachine_DrowsyEngagesImmediately(t *testing.T) {
	m := NewMachine()

	engaged := 0
	m.OnEngage(func() { engaged++ })

	if !m.Apply(SignalDrowsy) {
		t.Fatal("expected transition to apply")
	}
	if m.State() != StateEngaged {
		t.Errorf("state: got %v, want engaged", m.State())
	}
	if engaged != 1 {
		t.Errorf("engage side effect: got %d calls, want 1", engaged)
	}
}

func TestMachine_RepeatedSignalsAreNoOps(t *testing.T) {
	m := NewMachine()

	engaged := 0
	escalated := 0
	m.OnEngage(func() { engaged++ })
	m.OnEscalate(func() { escalated++ })

	m.Apply(SignalDrowsy)

	// Held-above-threshold repeats and cross-signals while engaged.
	if m.Apply(SignalDrowsy) {
		t.Error("repeat drowsy applied, want no-op")
	}
	if m.Apply(SignalUnresponsive) {
		t.Error("unresponsive while engaged applied, want no-op")
	}
	if engaged != 1 || escalated != 0 {
		t.Errorf("side effects: engage=%d escalate=%d, want 1/0", engaged, escalated)
	}
}

func TestMachine_UnresponsiveStartsEscalation(t *testing.T) {
	m := NewMachine()

	escalated := 0
	m.OnEscalate(func() { escalated++ })

	if !m.Apply(SignalUnresponsive) {
		t.Fatal("expected transition to apply")
	}
	if m.State() != StateUnresponsive {
		t.Errorf("state: got %v, want unresponsive", m.State())
	}
	if escalated != 1 {
		t.Errorf("escalate side effect: got %d calls, want 1", escalated)
	}

	// All signals are ignored while unresponsive.
	if m.Apply(SignalDrowsy) || m.Apply(SignalUnresponsive) {
		t.Error("signal applied while unresponsive, want ignored")
	}
	if escalated != 1 {
		t.Errorf("escalate fired again: got %d calls, want 1", escalated)
	}
}

func TestMachine_ResumeMonitoring(t *testing.T) {
	m := NewMachine()

	var seen []State
	m.OnChange(func(s State) { seen = append(seen, s) })

	m.Apply(SignalUnresponsive)
	if !m.ResumeMonitoring() {
		t.Fatal("expected resume to apply")
	}
	if m.State() != StateMonitoring {
		t.Errorf("state: got %v, want monitoring", m.State())
	}
	if m.ResumeMonitoring() {
		t.Error("resume while monitoring applied, want no-op")
	}

	want := []State{StateUnresponsive, StateMonitoring}
	if len(seen) != len(want) {
		t.Fatalf("observed transitions: got %v, want %v", seen, want)
	}
	for i := range want {
		if seen[i] != want[i] {
			t.Errorf("transition %d: got %v, want %v", i, seen[i], want[i])
		}
	}
}

func TestMachine_MonitoringReflectsState(t *testing.T) {
	m := NewMachine()
	if !m.Monitoring() {
		t.Error("fresh machine should be monitoring")
	}
	m.Apply(SignalDrowsy)
	if m.Monitoring() {
		t.Error("engaged machine should not be monitoring")
	}
}
