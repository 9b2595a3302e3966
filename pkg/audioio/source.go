package audioio

import (
	"context"
	"io"
)

// Source captures audio from a microphone or other input device.
type Source interface {
	// Start begins audio capture. After Start, blocks are delivered on
	// the Stream channel.
	Start(ctx context.Context) error

	// Stop halts audio capture. Safe to call multiple times; no further
	// blocks are delivered after Stop returns.
	Stop() error

	// Stream returns the channel of captured blocks. Closed when the
	// source stops.
	Stream() <-chan Chunk

	// Config returns the capture configuration.
	Config() Config

	// Name returns the backend name (e.g. "cmd", "mock").
	Name() string

	// Close releases all resources. After Close the source cannot be
	// restarted.
	io.Closer
}

// Sink plays audio to a speaker or other output device.
type Sink interface {
	// Start begins audio playback.
	Start(ctx context.Context) error

	// Stop halts audio playback.
	Stop() error

	// Write sends a chunk to the output device. May block while the
	// device buffer is full.
	Write(ctx context.Context, chunk Chunk) error

	// Config returns the playback configuration.
	Config() Config

	// Name returns the backend name.
	Name() string

	io.Closer
}
