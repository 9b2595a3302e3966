package session

import (
	"context"
	"fmt"
)

// Handler is one tool the agent can invoke during conversation. The
// tool set is fixed and known at build time, so handlers are a closed
// set of implementations rather than a dynamic name lookup.
type Handler interface {
	// Name is the unique tool identifier (e.g. "find_nearby_places").
	Name() string

	// Description explains what the tool does, helping the agent decide
	// when to use it.
	Description() string

	// Parameters defines the JSON schema for the tool's arguments.
	Parameters() map[string]any

	// Invoke executes the tool with the parsed arguments and returns a
	// result string for the agent.
	Invoke(ctx context.Context, args map[string]any) (string, error)
}

// ToolCall is an invocation request issued by the agent.
type ToolCall struct {
	// ID correlates the result back to this call.
	ID string

	// Name is the tool being invoked.
	Name string

	// Args contains the parsed arguments.
	Args map[string]any
}

// ToolResult is the correlated response for one ToolCall. Every
// dispatched call produces exactly one result, even on handler failure.
type ToolResult struct {
	ID     string
	Name   string
	Result string
}

// Registry holds the session's tool handlers.
type Registry struct {
	ordered  []Handler
	handlers map[string]Handler
}

// NewRegistry builds a registry from the fixed handler set.
// Duplicate names panic: that is a programming error, not input.
func NewRegistry(handlers ...Handler) *Registry {
	r := &Registry{handlers: make(map[string]Handler, len(handlers))}
	for _, h := range handlers {
		if _, dup := r.handlers[h.Name()]; dup {
			panic(fmt.Sprintf("session: duplicate tool handler %q", h.Name()))
		}
		r.handlers[h.Name()] = h
		r.ordered = append(r.ordered, h)
	}
	return r
}

// Lookup returns the handler for a tool name.
func (r *Registry) Lookup(name string) (Handler, bool) {
	h, ok := r.handlers[name]
	return h, ok
}

// Declarations renders the handler set as Live API function
// declarations for the session setup message.
func (r *Registry) Declarations() []map[string]any {
	decls := make([]map[string]any, 0, len(r.ordered))
	for _, h := range r.ordered {
		decls = append(decls, map[string]any{
			"name":        h.Name(),
			"description": h.Description(),
			"parameters":  h.Parameters(),
		})
	}
	return decls
}

// Len returns the number of registered handlers.
func (r *Registry) Len() int { return len(r.ordered) }

// HandlerFunc adapts a named function to the Handler interface.
// Used by the orchestrator for small session-control tools.
type HandlerFunc struct {
	ToolName        string
	ToolDescription string
	ToolParameters  map[string]any
	Fn              func(ctx context.Context, args map[string]any) (string, error)
}

// Name returns the tool name.
func (h HandlerFunc) Name() string { return h.ToolName }

// Description returns the tool description.
func (h HandlerFunc) Description() string { return h.ToolDescription }

// Parameters returns the argument schema.
func (h HandlerFunc) Parameters() map[string]any { return h.ToolParameters }

// Invoke calls the wrapped function.
func (h HandlerFunc) Invoke(ctx context.Context, args map[string]any) (string, error) {
	return h.Fn(ctx, args)
}
