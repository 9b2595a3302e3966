package audioio

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os/exec"
	"strconv"
	"sync"
)

// CmdSource captures audio by piping raw PCM from an external capture
// command (arecord by default): no cgo, just a child process and a
// pipe.
type CmdSource struct {
	cfg    Config
	logger *slog.Logger

	mu       sync.Mutex
	cmd      *exec.Cmd
	stdout   io.ReadCloser
	running  bool
	closed   bool
	streamCh chan Chunk
}

// NewCmdSource creates a capture source backed by arecord.
func NewCmdSource(cfg Config, logger *slog.Logger) *CmdSource {
	if logger == nil {
		logger = slog.Default()
	}
	return &CmdSource{cfg: cfg, logger: logger}
}

// Start launches the capture command and begins reading blocks.
func (s *CmdSource) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return io.ErrClosedPipe
	}
	if s.running {
		return nil
	}

	cmd := exec.CommandContext(ctx, "arecord",
		"-D", s.cfg.Device,
		"-f", "S16_LE",
		"-r", strconv.Itoa(s.cfg.SampleRate),
		"-c", strconv.Itoa(s.cfg.Channels),
		"-t", "raw",
		"-q",
	)

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("audioio: stdout pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("audioio: start capture command: %w", err)
	}

	s.cmd = cmd
	s.stdout = stdout
	s.running = true
	s.streamCh = make(chan Chunk, 8)

	go s.readLoop(stdout)

	s.logger.Info("audio capture started",
		"backend", s.Name(),
		"device", s.cfg.Device,
		"sample_rate", s.cfg.SampleRate,
		"block_samples", s.cfg.BlockSamples,
	)
	return nil
}

func (s *CmdSource) readLoop(r io.Reader) {
	defer func() {
		s.mu.Lock()
		close(s.streamCh)
		s.running = false
		s.mu.Unlock()
	}()

	block := make([]byte, s.cfg.BlockBytes())
	for {
		if _, err := io.ReadFull(r, block); err != nil {
			if err != io.EOF && err != io.ErrClosedPipe {
				s.logger.Warn("audio capture read failed", "error", err)
			}
			return
		}
		chunk := ChunkFromBytes(block, s.cfg.SampleRate, s.cfg.Channels)
		select {
		case s.streamCh <- chunk:
		default:
			// Consumer is behind; drop the block rather than stall the
			// capture pipe.
		}
	}
}

// Stop terminates the capture command.
func (s *CmdSource) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running {
		return nil
	}
	s.running = false
	if s.stdout != nil {
		s.stdout.Close()
	}
	if s.cmd != nil && s.cmd.Process != nil {
		s.cmd.Process.Kill()
		s.cmd.Wait()
	}
	return nil
}

// Stream returns the channel of captured blocks.
func (s *CmdSource) Stream() <-chan Chunk {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.streamCh
}

// Config returns the capture configuration.
func (s *CmdSource) Config() Config { return s.cfg }

// Name returns "cmd".
func (s *CmdSource) Name() string { return string(BackendCmd) }

// Close stops capture and marks the source unusable.
func (s *CmdSource) Close() error {
	err := s.Stop()
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	return err
}

// CmdSink plays audio by piping raw PCM into an external playback
// command (aplay by default).
type CmdSink struct {
	cfg    Config
	logger *slog.Logger

	mu      sync.Mutex
	cmd     *exec.Cmd
	stdin   io.WriteCloser
	running bool
	closed  bool
}

// NewCmdSink creates a playback sink backed by aplay.
func NewCmdSink(cfg Config, logger *slog.Logger) *CmdSink {
	if logger == nil {
		logger = slog.Default()
	}
	return &CmdSink{cfg: cfg, logger: logger}
}

// Start launches the playback command.
func (s *CmdSink) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return io.ErrClosedPipe
	}
	if s.running {
		return nil
	}

	cmd := exec.CommandContext(ctx, "aplay",
		"-D", s.cfg.Device,
		"-f", "S16_LE",
		"-r", strconv.Itoa(s.cfg.SampleRate),
		"-c", strconv.Itoa(s.cfg.Channels),
		"-t", "raw",
		"-q",
	)

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return fmt.Errorf("audioio: stdin pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("audioio: start playback command: %w", err)
	}

	s.cmd = cmd
	s.stdin = stdin
	s.running = true

	s.logger.Info("audio playback started",
		"backend", s.Name(),
		"device", s.cfg.Device,
		"sample_rate", s.cfg.SampleRate,
	)
	return nil
}

// Write pipes a chunk into the playback command.
func (s *CmdSink) Write(ctx context.Context, chunk Chunk) error {
	s.mu.Lock()
	stdin := s.stdin
	running := s.running
	s.mu.Unlock()

	if !running || stdin == nil {
		return io.ErrClosedPipe
	}
	if _, err := stdin.Write(chunk.Bytes()); err != nil {
		return fmt.Errorf("audioio: write playback: %w", err)
	}
	return nil
}

// Stop terminates the playback command.
func (s *CmdSink) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running {
		return nil
	}
	s.running = false
	if s.stdin != nil {
		s.stdin.Close()
	}
	if s.cmd != nil {
		s.cmd.Wait()
	}
	return nil
}

// Config returns the playback configuration.
func (s *CmdSink) Config() Config { return s.cfg }

// Name returns "cmd".
func (s *CmdSink) Name() string { return string(BackendCmd) }

// Close stops playback and marks the sink unusable.
func (s *CmdSink) Close() error {
	err := s.Stop()
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	return err
}

var (
	_ Source = (*CmdSource)(nil)
	_ Sink   = (*CmdSink)(nil)
)
