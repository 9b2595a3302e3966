package session

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// ConvState is the conversational state of the session.
type ConvState int

const (
	// StateIdle means no session is active.
	StateIdle ConvState = iota

	// StateListening means the agent is waiting for driver speech.
	StateListening

	// StateThinking means the agent is executing tool calls.
	StateThinking

	// StateSpeaking means the agent is producing audio output.
	StateSpeaking
)

func (s ConvState) String() string {
	switch s {
	case StateListening:
		return "listening"
	case StateThinking:
		return "thinking"
	case StateSpeaking:
		return "speaking"
	default:
		return "idle"
	}
}

// Role identifies the author of a transcript entry.
type Role string

const (
	// RoleDriver marks transcribed driver speech.
	RoleDriver Role = "driver"
	// RoleAgent marks the agent's spoken responses.
	RoleAgent Role = "agent"
	// RoleSystem marks host-injected entries (prompts, acknowledgments).
	RoleSystem Role = "system"
)

// Entry is one finalized transcript line.
type Entry struct {
	ID   string    `json:"id"`
	Role Role      `json:"role"`
	Text string    `json:"text"`
	Time time.Time `json:"time"`
}

// turn accumulates transcription deltas for the current exchange and
// flushes them into finalized entries on the turn-complete marker.
// Owned by the session's dispatch goroutine; no locking needed.
type turn struct {
	input  strings.Builder
	output strings.Builder
}

func (t *turn) appendInput(text string)  { t.input.WriteString(text) }
func (t *turn) appendOutput(text string) { t.output.WriteString(text) }

// flush finalizes the accumulated text and resets both accumulators.
// Blank-only accumulations produce no entries.
func (t *turn) flush(now time.Time) []Entry {
	var entries []Entry

	if text := strings.TrimSpace(t.input.String()); text != "" {
		entries = append(entries, Entry{
			ID:   uuid.NewString(),
			Role: RoleDriver,
			Text: text,
			Time: now,
		})
	}
	if text := strings.TrimSpace(t.output.String()); text != "" {
		entries = append(entries, Entry{
			ID:   uuid.NewString(),
			Role: RoleAgent,
			Text: text,
			Time: now,
		})
	}

	t.input.Reset()
	t.output.Reset()
	return entries
}
