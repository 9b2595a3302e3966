package guardian

import (
	"context"

	"github.com/driveguard/driveguard/pkg/session"
)

// noArgs is the schema for tools that take no arguments.
var noArgs = map[string]any{
	"type":       "object",
	"properties": map[string]any{},
}

// controlTools returns the built-in session-control handlers: the
// driver's "I'm okay" acknowledgment and the conversation-ending
// signal.
func (a *App) controlTools() []session.Handler {
	return []session.Handler{
		session.HandlerFunc{
			ToolName:        "confirm_ok",
			ToolDescription: "Confirm the driver is okay and responsive. Cancels the emergency countdown. Call this the moment the driver responds coherently during an emergency.",
			ToolParameters:  noArgs,
			Fn:              a.confirmOK,
		},
		session.HandlerFunc{
			ToolName:        "end_conversation",
			ToolDescription: "End the conversation and return to silent monitoring. Call when the driver says goodbye or asks you to stop talking.",
			ToolParameters:  noArgs,
			Fn:              a.endConversation,
		},
	}
}

func (a *App) confirmOK(ctx context.Context, _ map[string]any) (string, error) {
	if a.timer.Cancel() {
		return "Emergency countdown cancelled. Glad the driver is okay.", nil
	}
	return "No emergency countdown is active.", nil
}

// endConversation schedules the close after a short grace period so
// the agent's goodbye still plays.
func (a *App) endConversation(ctx context.Context, _ map[string]any) (string, error) {
	a.clock.AfterFunc(goodbyeGrace, a.closeSession)
	return "Say a brief goodbye; the conversation is ending.", nil
}
