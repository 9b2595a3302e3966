package session

import "errors"

// Common errors returned by the session manager.
var (
	ErrNotConnected   = errors.New("session: not connected")
	ErrAlreadyStarted = errors.New("session: already started")
	ErrMissingAPIKey  = errors.New("session: missing API key")
	ErrClosed         = errors.New("session: closed")

	// ErrTransport wraps network or protocol failures that terminate a
	// session. The session ends cleanly (state back to Idle); callers
	// may start a fresh one.
	ErrTransport = errors.New("session: transport failure")
)
