package session

import (
	"context"
	"errors"
	"strings"
	"testing"
)

func stubHandler(name string, fn func(ctx context.Context, args map[string]any) (string, error)) Handler {
	return HandlerFunc{
		ToolName:        name,
		ToolDescription: "test tool",
		ToolParameters:  map[string]any{"type": "object"},
		Fn:              fn,
	}
}

func TestResolveToolCall_Success(t *testing.T) {
	reg := NewRegistry(stubHandler("echo", func(ctx context.Context, args map[string]any) (string, error) {
		q, _ := args["q"].(string)
		return "echo: " + q, nil
	}))

	res := resolveToolCall(context.Background(), reg, ToolCall{
		ID:   "call-1",
		Name: "echo",
		Args: map[string]any{"q": "hello"},
	})

	if res.ID != "call-1" {
		t.Errorf("id: got %q, want call-1", res.ID)
	}
	if res.Result != "echo: hello" {
		t.Errorf("result: got %q", res.Result)
	}
}

func TestResolveToolCall_FailureBecomesTextualResult(t *testing.T) {
	reg := NewRegistry(stubHandler("boom", func(ctx context.Context, args map[string]any) (string, error) {
		return "", errors.New("upstream unavailable")
	}))

	res := resolveToolCall(context.Background(), reg, ToolCall{ID: "call-2", Name: "boom"})

	if res.ID != "call-2" {
		t.Errorf("id: got %q, want call-2", res.ID)
	}
	if !strings.Contains(res.Result, "upstream unavailable") {
		t.Errorf("failure result: got %q, want error text", res.Result)
	}
}

func TestResolveToolCall_PanicBecomesTextualResult(t *testing.T) {
	reg := NewRegistry(stubHandler("panic", func(ctx context.Context, args map[string]any) (string, error) {
		panic("bad state")
	}))

	res := resolveToolCall(context.Background(), reg, ToolCall{ID: "call-3", Name: "panic"})

	if res.ID != "call-3" {
		t.Errorf("id: got %q, want call-3", res.ID)
	}
	if !strings.Contains(res.Result, "bad state") {
		t.Errorf("panic result: got %q", res.Result)
	}
}

func TestResolveToolCall_UnknownTool(t *testing.T) {
	reg := NewRegistry()

	res := resolveToolCall(context.Background(), reg, ToolCall{ID: "call-4", Name: "nope"})

	if res.ID != "call-4" {
		t.Errorf("id: got %q, want call-4", res.ID)
	}
	if !strings.Contains(res.Result, "not available") {
		t.Errorf("unknown tool result: got %q", res.Result)
	}
}

func TestResolveToolCall_EveryCallInBatchAnswered(t *testing.T) {
	reg := NewRegistry(
		stubHandler("ok", func(ctx context.Context, args map[string]any) (string, error) {
			return "fine", nil
		}),
		stubHandler("bad", func(ctx context.Context, args map[string]any) (string, error) {
			return "", errors.New("nope")
		}),
	)

	batch := []ToolCall{
		{ID: "a", Name: "ok"},
		{ID: "b", Name: "bad"},
		{ID: "c", Name: "missing"},
	}

	seen := map[string]bool{}
	for _, call := range batch {
		res := resolveToolCall(context.Background(), reg, call)
		if res.ID != call.ID {
			t.Errorf("call %s: result id %q", call.ID, res.ID)
		}
		if res.Result == "" {
			t.Errorf("call %s: empty result", call.ID)
		}
		seen[res.ID] = true
	}
	if len(seen) != 3 {
		t.Errorf("answered calls: got %d, want 3", len(seen))
	}
}

func TestRegistry_Declarations(t *testing.T) {
	reg := NewRegistry(
		stubHandler("first", nil),
		stubHandler("second", nil),
	)

	decls := reg.Declarations()
	if len(decls) != 2 {
		t.Fatalf("declarations: got %d, want 2", len(decls))
	}
	if decls[0]["name"] != "first" || decls[1]["name"] != "second" {
		t.Errorf("declaration order: got %v, %v", decls[0]["name"], decls[1]["name"])
	}
}

func TestRegistry_DuplicatePanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("duplicate handler did not panic")
		}
	}()
	NewRegistry(stubHandler("dup", nil), stubHandler("dup", nil))
}

func TestConfigValidate(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); !errors.Is(err, ErrMissingAPIKey) {
		t.Errorf("missing key: got %v, want ErrMissingAPIKey", err)
	}

	cfg.APIKey = "k"
	if err := cfg.Validate(); err != nil {
		t.Errorf("valid config: got %v", err)
	}

	cfg.InputSampleRate = 0
	if err := cfg.Validate(); err == nil {
		t.Error("zero input rate accepted")
	}
}
