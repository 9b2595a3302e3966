// Package session manages the duplex streaming conversation with the
// live voice agent.
//
// A session owns four concerns: the capture pump (microphone blocks,
// resampled to the agent's input rate and sent as realtime media), the
// ordered receive loop (transcription deltas, turn markers, tool-call
// batches, inline audio), tool dispatch (each call answered exactly
// once, failures included), and gapless playback scheduling.
package session

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/driveguard/driveguard/pkg/audioio"
)

// Manager is one conversational session. Create with New, run with
// Start, end with Close. A Manager is single-use; start a fresh one for
// a new conversation.
type Manager struct {
	cfg       Config
	registry  *Registry
	source    audioio.Source
	sink      audioio.Sink
	scheduler *Scheduler
	clock     clockwork.Clock
	logger    *slog.Logger

	id     string
	client *client

	mu      sync.Mutex
	state   ConvState
	started bool
	closed  bool
	cancel  context.CancelFunc

	// events buffers decoded server events between the transport reader
	// and the dispatch goroutine, so a pending tool handler never blocks
	// or reorders the stream.
	events chan serverEvent

	// turn is owned exclusively by the dispatch goroutine.
	turn turn

	onState func(ConvState)
	onEntry func(Entry)
	onClose func(err error)
}

// Option configures a Manager.
type Option func(*Manager)

// WithClock sets the clock used for timestamps and playback scheduling.
func WithClock(c clockwork.Clock) Option {
	return func(m *Manager) { m.clock = c }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(m *Manager) { m.logger = l }
}

// New creates a session manager over the given audio devices and tool
// registry.
func New(cfg Config, source audioio.Source, sink audioio.Sink, registry *Registry, opts ...Option) (*Manager, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if registry == nil {
		registry = NewRegistry()
	}

	m := &Manager{
		cfg:      cfg,
		registry: registry,
		source:   source,
		sink:     sink,
		clock:    clockwork.NewRealClock(),
		logger:   slog.Default(),
		id:       uuid.NewString(),
		state:    StateIdle,
		events:   make(chan serverEvent, 256),
	}
	for _, opt := range opts {
		opt(m)
	}

	m.logger = m.logger.With("session_id", m.id)
	m.scheduler = NewScheduler(sink, cfg.OutputSampleRate, m.clock, m.logger)
	m.client = newClient(cfg, m.logger)
	return m, nil
}

// ID returns the session identifier.
func (m *Manager) ID() string { return m.id }

// OnState sets the conversational-state observer. Set before Start.
func (m *Manager) OnState(fn func(ConvState)) { m.onState = fn }

// OnEntry sets the finalized-transcript observer. Set before Start.
func (m *Manager) OnEntry(fn func(Entry)) { m.onEntry = fn }

// OnClose sets the session-end observer. err is nil for a clean close
// and wraps ErrTransport when the transport failed. Set before Start.
func (m *Manager) OnClose(fn func(err error)) { m.onClose = fn }

// State returns the current conversational state.
func (m *Manager) State() ConvState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Start connects to the agent and begins both audio flows.
func (m *Manager) Start(ctx context.Context) error {
	m.mu.Lock()
	if m.started {
		m.mu.Unlock()
		return ErrAlreadyStarted
	}
	if m.closed {
		m.mu.Unlock()
		return ErrClosed
	}
	m.started = true
	m.mu.Unlock()

	ctx, cancel := context.WithCancel(ctx)
	m.mu.Lock()
	m.cancel = cancel
	m.mu.Unlock()

	if err := m.client.dial(ctx, m.registry.Declarations()); err != nil {
		cancel()
		return err
	}
	if err := m.source.Start(ctx); err != nil {
		m.client.close()
		cancel()
		return fmt.Errorf("session: start capture: %w", err)
	}
	if err := m.sink.Start(ctx); err != nil {
		m.source.Stop()
		m.client.close()
		cancel()
		return fmt.Errorf("session: start playback: %w", err)
	}

	go m.client.readLoop(m.events)
	go m.capturePump()
	go m.dispatchLoop(ctx)

	m.setState(StateListening)
	m.logger.Info("session started", "model", m.cfg.Model, "tools", m.registry.Len())
	return nil
}

// InjectText sends a host-triggered text prompt into the conversation
// and records it as a system transcript entry.
func (m *Manager) InjectText(text string) error {
	if err := m.client.sendText(text); err != nil {
		return err
	}
	m.Note(text)
	return nil
}

// Note records a system transcript entry without sending anything to
// the agent (e.g. the driver's "I'm okay" acknowledgment).
func (m *Manager) Note(text string) {
	m.emitEntry(Entry{
		ID:   uuid.NewString(),
		Role: RoleSystem,
		Text: text,
		Time: m.clock.Now(),
	})
}

// capturePump forwards microphone blocks to the agent until capture
// stops. Blocks are resampled to the agent's input rate when the device
// runs at a different one.
func (m *Manager) capturePump() {
	for chunk := range m.source.Stream() {
		if m.isClosed() {
			return
		}
		samples := chunk.Samples
		if chunk.SampleRate != m.cfg.InputSampleRate {
			samples = audioio.Resample(samples, chunk.SampleRate, m.cfg.InputSampleRate)
		}
		if m.cfg.Debug {
			m.logger.Debug("capture block", "rms", audioio.RMS(samples))
		}
		if err := m.client.sendAudio(audioio.SamplesToBytes(samples)); err != nil {
			if !m.isClosed() {
				m.logger.Warn("capture send failed", "error", err)
			}
			return
		}
	}
}

// dispatchLoop processes server events strictly in arrival order.
// Tool-call batches fan out to handler goroutines; everything else is
// handled inline so transcript and audio ordering is preserved.
func (m *Manager) dispatchLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			m.finish(nil)
			return
		case ev := <-m.events:
			switch ev.kind {
			case evSetupComplete:
				m.logger.Debug("live session ready")
			case evInputDelta:
				m.turn.appendInput(ev.text)
			case evOutputDelta:
				m.turn.appendOutput(ev.text)
				m.setState(StateSpeaking)
			case evAudio:
				m.scheduler.Schedule(ev.audio)
				m.setState(StateSpeaking)
			case evTurnComplete:
				for _, e := range m.turn.flush(m.clock.Now()) {
					m.emitEntry(e)
				}
				m.setState(StateListening)
			case evInterrupted:
				// Driver barge-in: drop not-yet-played audio and let the
				// cursor restart from now.
				m.scheduler.Interrupt()
				m.setState(StateListening)
			case evToolCall:
				m.setState(StateThinking)
				for _, call := range ev.calls {
					go m.dispatchTool(ctx, call)
				}
			case evClosed:
				m.finish(ev.err)
				return
			}
		}
	}
}

// dispatchTool invokes one handler and returns exactly one correlated
// result. Handler failures become textual results; they never abort the
// rest of the batch. Results arriving after close are discarded.
func (m *Manager) dispatchTool(ctx context.Context, call ToolCall) {
	res := resolveToolCall(ctx, m.registry, call)

	if m.isClosed() {
		m.logger.Debug("discarding tool result after close", "tool", call.Name)
		return
	}
	if err := m.client.sendToolResult(res); err != nil && !m.isClosed() {
		m.logger.Warn("tool result send failed", "tool", call.Name, "error", err)
	}
}

// resolveToolCall produces the single correlated result for one call.
// Unknown tools and handler failures become textual results; no call is
// ever left unanswered.
func resolveToolCall(ctx context.Context, registry *Registry, call ToolCall) ToolResult {
	res := ToolResult{ID: call.ID, Name: call.Name}

	handler, ok := registry.Lookup(call.Name)
	if !ok {
		res.Result = fmt.Sprintf("Tool %q is not available", call.Name)
		return res
	}

	out, err := safeInvoke(ctx, handler, call.Args)
	if err != nil {
		res.Result = fmt.Sprintf("Error: %v", err)
		return res
	}
	res.Result = out
	return res
}

// safeInvoke runs a handler, converting panics into errors so one bad
// tool cannot take the session down.
func safeInvoke(ctx context.Context, h Handler, args map[string]any) (out string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("tool panicked: %v", r)
		}
	}()
	return h.Invoke(ctx, args)
}

// Close ends the session: capture stops immediately, pending playback
// is released, and the transport is torn down.
func (m *Manager) Close() error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil
	}
	m.closed = true
	cancel := m.cancel
	m.mu.Unlock()

	m.source.Stop()
	err := m.client.close()
	if cancel != nil {
		cancel()
	}
	return err
}

// finish is the common teardown run by the dispatch goroutine when the
// session ends, cleanly or not.
func (m *Manager) finish(err error) {
	m.mu.Lock()
	alreadyClosed := m.closed
	m.closed = true
	m.mu.Unlock()

	if !alreadyClosed {
		m.source.Stop()
		m.client.close()
	}
	m.scheduler.Release()
	m.sink.Stop()
	m.setState(StateIdle)

	if err != nil {
		m.logger.Error("session ended", "error", err)
	} else {
		m.logger.Info("session ended")
	}
	if m.onClose != nil {
		m.onClose(err)
	}
}

func (m *Manager) isClosed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

func (m *Manager) setState(s ConvState) {
	m.mu.Lock()
	if m.state == s {
		m.mu.Unlock()
		return
	}
	m.state = s
	m.mu.Unlock()

	if m.onState != nil {
		m.onState(s)
	}
}

func (m *Manager) emitEntry(e Entry) {
	if m.onEntry != nil {
		m.onEntry(e)
	}
}
