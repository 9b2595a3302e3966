package audioio

import (
	"context"
	"io"
	"math"
	"sync"
)

// MockSource is an in-memory audio source for testing. Blocks are fed
// in by the test (Push) or generated as a sine wave.
type MockSource struct {
	cfg Config

	mu       sync.Mutex
	running  bool
	closed   bool
	streamCh chan Chunk

	// Synthetic generation state, used by PushSine.
	phase     float64
	frequency float64
	amplitude float64
}

// NewMockSource creates a mock source.
func NewMockSource(cfg Config) *MockSource {
	return &MockSource{
		cfg:       cfg,
		streamCh:  make(chan Chunk, 16),
		frequency: 440,
		amplitude: 0.5,
	}
}

// Start marks the source running.
func (m *MockSource) Start(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return io.ErrClosedPipe
	}
	m.running = true
	return nil
}

// Push delivers a block to consumers.
func (m *MockSource) Push(chunk Chunk) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.running {
		return
	}
	m.streamCh <- chunk
}

// PushSine generates and delivers one sine-wave block of the configured
// block size.
func (m *MockSource) PushSine() {
	m.mu.Lock()
	n := m.cfg.BlockSamples
	samples := make([]int16, n)
	step := 2 * math.Pi * m.frequency / float64(m.cfg.SampleRate)
	for i := range samples {
		samples[i] = int16(m.amplitude * 32767 * math.Sin(m.phase))
		m.phase += step
	}
	running := m.running
	m.mu.Unlock()

	if running {
		m.streamCh <- Chunk{Samples: samples, SampleRate: m.cfg.SampleRate, Channels: m.cfg.Channels}
	}
}

// Stop halts delivery and closes the stream.
func (m *MockSource) Stop() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.running {
		return nil
	}
	m.running = false
	close(m.streamCh)
	return nil
}

// Stream returns the block channel.
func (m *MockSource) Stream() <-chan Chunk { return m.streamCh }

// Config returns the capture configuration.
func (m *MockSource) Config() Config { return m.cfg }

// Name returns "mock".
func (m *MockSource) Name() string { return string(BackendMock) }

// Close stops the source permanently.
func (m *MockSource) Close() error {
	err := m.Stop()
	m.mu.Lock()
	m.closed = true
	m.mu.Unlock()
	return err
}

// MockSink records written chunks for inspection in tests.
type MockSink struct {
	cfg Config

	mu      sync.Mutex
	running bool
	chunks  []Chunk
}

// NewMockSink creates a mock sink.
func NewMockSink(cfg Config) *MockSink {
	return &MockSink{cfg: cfg}
}

// Start marks the sink running.
func (m *MockSink) Start(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.running = true
	return nil
}

// Write records the chunk.
func (m *MockSink) Write(ctx context.Context, chunk Chunk) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.running {
		return io.ErrClosedPipe
	}
	m.chunks = append(m.chunks, chunk)
	return nil
}

// Written returns a copy of all recorded chunks.
func (m *MockSink) Written() []Chunk {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Chunk, len(m.chunks))
	copy(out, m.chunks)
	return out
}

// Stop halts the sink.
func (m *MockSink) Stop() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.running = false
	return nil
}

// Config returns the playback configuration.
func (m *MockSink) Config() Config { return m.cfg }

// Name returns "mock".
func (m *MockSink) Name() string { return string(BackendMock) }

// Close stops the sink.
func (m *MockSink) Close() error { return m.Stop() }

var (
	_ Source = (*MockSource)(nil)
	_ Sink   = (*MockSink)(nil)
)
