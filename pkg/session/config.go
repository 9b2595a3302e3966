package session

import (
	"errors"

	"github.com/driveguard/driveguard/pkg/audioio"
)

// Default model and voice for the live agent.
const (
	defaultModel = "models/gemini-2.0-flash-exp"
	defaultVoice = "Puck"
)

// Config holds all tunable parameters for the conversational session.
type Config struct {
	// APIKey is the Google API key for the Live API.
	APIKey string

	// Model is the live model name.
	Model string

	// Voice selects the agent's prebuilt voice.
	Voice string

	// SystemPrompt is the agent's system instruction.
	SystemPrompt string

	// InputSampleRate is the microphone rate sent to the agent.
	InputSampleRate int

	// OutputSampleRate is the agent's audio output rate.
	OutputSampleRate int

	// Debug enables verbose protocol logging.
	Debug bool
}

// DefaultConfig returns a Config with the Live API defaults.
func DefaultConfig() Config {
	return Config{
		Model:            defaultModel,
		Voice:            defaultVoice,
		InputSampleRate:  audioio.CaptureRate,
		OutputSampleRate: audioio.PlaybackRate,
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if c.APIKey == "" {
		return ErrMissingAPIKey
	}
	if c.InputSampleRate <= 0 {
		return errors.New("session: input sample rate must be positive")
	}
	if c.OutputSampleRate <= 0 {
		return errors.New("session: output sample rate must be positive")
	}
	return nil
}
