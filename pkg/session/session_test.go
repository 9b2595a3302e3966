package session

import (
	"context"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/driveguard/driveguard/pkg/audioio"
)

// newTestManager builds a manager whose dispatch loop can be driven
// directly through the event channel, without a live transport.
func newTestManager(t *testing.T) *Manager {
	t.Helper()
	cfg := DefaultConfig()
	cfg.APIKey = "test"

	source := audioio.NewMockSource(audioio.Config{
		Backend: audioio.BackendMock, SampleRate: audioio.CaptureRate, Channels: 1, BlockSamples: 4096,
	})
	sink := audioio.NewMockSink(audioio.DefaultPlaybackConfig())
	sink.Start(context.Background())

	m, err := New(cfg, source, sink, NewRegistry(), WithClock(clockwork.NewFakeClock()))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return m
}

func TestDispatch_TurnLifecycle(t *testing.T) {
	m := newTestManager(t)

	var entries []Entry
	var states []ConvState
	m.OnEntry(func(e Entry) { entries = append(entries, e) })
	m.OnState(func(s ConvState) { states = append(states, s) })

	closed := make(chan struct{})
	m.OnClose(func(err error) { close(closed) })

	go m.dispatchLoop(context.Background())

	m.events <- serverEvent{kind: evInputDelta, text: "I'm "}
	m.events <- serverEvent{kind: evInputDelta, text: "fine"}
	m.events <- serverEvent{kind: evOutputDelta, text: "Good to hear."}
	m.events <- serverEvent{kind: evTurnComplete}
	m.events <- serverEvent{kind: evClosed}

	select {
	case <-closed:
	case <-time.After(time.Second):
		t.Fatal("dispatch loop did not finish")
	}

	if len(entries) != 2 {
		t.Fatalf("entries: got %d, want 2", len(entries))
	}
	if entries[0].Role != RoleDriver || entries[0].Text != "I'm fine" {
		t.Errorf("entry 0: got %q/%q", entries[0].Role, entries[0].Text)
	}
	if entries[1].Role != RoleAgent || entries[1].Text != "Good to hear." {
		t.Errorf("entry 1: got %q/%q", entries[1].Role, entries[1].Text)
	}

	// Speaking on output, Listening on turn complete, Idle on close.
	want := []ConvState{StateSpeaking, StateListening, StateIdle}
	if len(states) != len(want) {
		t.Fatalf("states: got %v, want %v", states, want)
	}
	for i := range want {
		if states[i] != want[i] {
			t.Errorf("state %d: got %v, want %v", i, states[i], want[i])
		}
	}
	if m.State() != StateIdle {
		t.Errorf("final state: got %v, want idle", m.State())
	}
}

func TestDispatch_BlankTurnEmitsNothing(t *testing.T) {
	m := newTestManager(t)

	var entries []Entry
	m.OnEntry(func(e Entry) { entries = append(entries, e) })
	closed := make(chan struct{})
	m.OnClose(func(err error) { close(closed) })

	go m.dispatchLoop(context.Background())

	m.events <- serverEvent{kind: evInputDelta, text: "   "}
	m.events <- serverEvent{kind: evTurnComplete}
	m.events <- serverEvent{kind: evClosed}
	<-closed

	if len(entries) != 0 {
		t.Errorf("blank turn emitted %d entries", len(entries))
	}
}

func TestDispatch_AudioSchedulesGaplessly(t *testing.T) {
	m := newTestManager(t)

	closed := make(chan struct{})
	m.OnClose(func(err error) { close(closed) })

	go m.dispatchLoop(context.Background())

	m.events <- serverEvent{kind: evAudio, audio: pcmOf(500 * time.Millisecond)}
	m.events <- serverEvent{kind: evAudio, audio: pcmOf(300 * time.Millisecond)}
	m.events <- serverEvent{kind: evAudio, audio: pcmOf(400 * time.Millisecond)}
	m.events <- serverEvent{kind: evClosed}
	<-closed

	// Cursor released on close.
	if !m.scheduler.NextStart().IsZero() {
		t.Error("scheduler clock not released on close")
	}
}

func TestDispatch_TransportErrorReportsAndIdles(t *testing.T) {
	m := newTestManager(t)

	var closeErr error
	closed := make(chan struct{})
	m.OnClose(func(err error) { closeErr = err; close(closed) })

	go m.dispatchLoop(context.Background())

	m.events <- serverEvent{kind: evClosed, err: ErrTransport}
	<-closed

	if closeErr == nil {
		t.Error("transport failure not surfaced to OnClose")
	}
	if m.State() != StateIdle {
		t.Errorf("state after transport error: got %v, want idle", m.State())
	}
}

func TestManager_CloseIsIdempotent(t *testing.T) {
	m := newTestManager(t)
	if err := m.Close(); err != nil {
		t.Errorf("first close: %v", err)
	}
	if err := m.Close(); err != nil {
		t.Errorf("second close: %v", err)
	}
	if err := m.Start(context.Background()); err != ErrClosed {
		t.Errorf("start after close: got %v, want ErrClosed", err)
	}
}
