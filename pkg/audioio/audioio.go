// Package audioio provides audio capture and playback plumbing for the
// conversational session.
//
// Capture runs at 16 kHz mono (the realtime input format of the voice
// agent) in fixed 4096-sample blocks; playback runs at 24 kHz mono.
// Two backends are provided: a command-line backend that shells out to
// arecord/aplay, and a mock backend for CI and tests.
package audioio

import (
	"fmt"
)

// Backend represents the audio backend type.
type Backend string

const (
	// BackendCmd pipes PCM through external capture/playback commands.
	BackendCmd Backend = "cmd"
	// BackendMock uses an in-memory implementation for testing.
	BackendMock Backend = "mock"
)

// Standard session rates.
const (
	// CaptureRate is the microphone sample rate expected by the agent.
	CaptureRate = 16000
	// PlaybackRate is the agent's output sample rate.
	PlaybackRate = 24000
	// CaptureBlockSamples is the per-callback capture block size.
	CaptureBlockSamples = 4096
)

// Config holds audio configuration.
type Config struct {
	// Backend specifies which audio backend to use.
	Backend Backend `json:"backend"`

	// SampleRate is the audio sample rate in Hz.
	SampleRate int `json:"sample_rate"`

	// Channels is the number of audio channels.
	Channels int `json:"channels"`

	// BlockSamples is the number of samples per capture block.
	BlockSamples int `json:"block_samples"`

	// Device is the platform-specific device identifier passed to the
	// backend command ("default", "hw:0,0", ...).
	Device string `json:"device"`
}

// DefaultCaptureConfig returns the capture-side defaults.
func DefaultCaptureConfig() Config {
	return Config{
		Backend:      BackendCmd,
		SampleRate:   CaptureRate,
		Channels:     1,
		BlockSamples: CaptureBlockSamples,
		Device:       "default",
	}
}

// DefaultPlaybackConfig returns the playback-side defaults.
func DefaultPlaybackConfig() Config {
	return Config{
		Backend:    BackendCmd,
		SampleRate: PlaybackRate,
		Channels:   1,
		Device:     "default",
	}
}

// Validate checks that the configuration is valid.
func (c *Config) Validate() error {
	if c.SampleRate <= 0 {
		return fmt.Errorf("audioio: sample_rate must be positive, got %d", c.SampleRate)
	}
	if c.Channels <= 0 {
		return fmt.Errorf("audioio: channels must be positive, got %d", c.Channels)
	}
	if c.BlockSamples < 0 {
		return fmt.Errorf("audioio: block_samples must not be negative, got %d", c.BlockSamples)
	}
	return nil
}

// BlockBytes returns the size of one capture block in bytes.
func (c *Config) BlockBytes() int {
	return c.BlockSamples * c.Channels * 2
}
