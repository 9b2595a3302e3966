package session

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const liveURL = "wss://generativelanguage.googleapis.com/ws/google.ai.generativelanguage.v1beta.GenerativeService.BidiGenerateContent"

// eventKind tags a decoded server event.
type eventKind int

const (
	evSetupComplete eventKind = iota
	evInputDelta
	evOutputDelta
	evTurnComplete
	evToolCall
	evAudio
	evInterrupted
	evClosed
)

// serverEvent is one decoded event from the agent, in arrival order.
type serverEvent struct {
	kind  eventKind
	text  string     // transcription delta
	audio []byte     // decoded PCM16 payload
	calls []ToolCall // tool-call batch
	err   error      // set for evClosed on transport failure
}

// client owns the Live API WebSocket. It decodes inbound frames into
// serverEvents and serializes all outbound writes behind a mutex so the
// capture pump and concurrent tool-result sends never interleave.
type client struct {
	cfg    Config
	logger *slog.Logger

	ws     *websocket.Conn
	wsMu   sync.Mutex
	closed bool
	mu     sync.Mutex
}

func newClient(cfg Config, logger *slog.Logger) *client {
	return &client{cfg: cfg, logger: logger}
}

// dial establishes the WebSocket connection and sends the session setup.
func (c *client) dial(ctx context.Context, decls []map[string]any) error {
	url := fmt.Sprintf("%s?key=%s", liveURL, c.cfg.APIKey)

	header := make(http.Header)
	header.Set("Content-Type", "application/json")

	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	ws, _, err := dialer.DialContext(ctx, url, header)
	if err != nil {
		return fmt.Errorf("%w: connect: %v", ErrTransport, err)
	}
	c.ws = ws

	if err := c.sendSetup(decls); err != nil {
		ws.Close()
		return fmt.Errorf("%w: setup: %v", ErrTransport, err)
	}
	return nil
}

func (c *client) sendSetup(decls []map[string]any) error {
	setup := map[string]any{
		"model": c.cfg.Model,
		"generation_config": map[string]any{
			"response_modalities": []string{"AUDIO"},
			"speech_config": map[string]any{
				"voice_config": map[string]any{
					"prebuilt_voice_config": map[string]any{
						"voice_name": c.cfg.Voice,
					},
				},
			},
		},
		"system_instruction": map[string]any{
			"parts": []map[string]any{
				{"text": c.cfg.SystemPrompt},
			},
		},
		"input_audio_transcription":  map[string]any{},
		"output_audio_transcription": map[string]any{},
	}
	if len(decls) > 0 {
		setup["tools"] = []map[string]any{
			{"function_declarations": decls},
		}
	}
	return c.sendJSON(map[string]any{"setup": setup})
}

// sendAudio transmits one captured PCM16 block as realtime input.
func (c *client) sendAudio(pcm []byte) error {
	return c.sendJSON(map[string]any{
		"realtime_input": map[string]any{
			"media_chunks": []map[string]any{
				{
					"data":      base64.StdEncoding.EncodeToString(pcm),
					"mime_type": "audio/pcm",
				},
			},
		},
	})
}

// sendText injects a text message into the conversation (used for
// host-triggered prompts such as the drowsiness opener).
func (c *client) sendText(text string) error {
	return c.sendJSON(map[string]any{
		"client_content": map[string]any{
			"turns": []map[string]any{
				{
					"role":  "user",
					"parts": []map[string]any{{"text": text}},
				},
			},
			"turn_complete": true,
		},
	})
}

// sendToolResult returns one correlated tool result to the agent.
func (c *client) sendToolResult(res ToolResult) error {
	return c.sendJSON(map[string]any{
		"tool_response": map[string]any{
			"function_responses": []map[string]any{
				{
					"id":       res.ID,
					"name":     res.Name,
					"response": map[string]any{"result": res.Result},
				},
			},
		},
	})
}

func (c *client) sendJSON(v any) error {
	c.wsMu.Lock()
	defer c.wsMu.Unlock()

	if c.ws == nil {
		return ErrNotConnected
	}
	if c.isClosed() {
		return ErrClosed
	}
	if err := c.ws.WriteJSON(v); err != nil {
		return fmt.Errorf("%w: write: %v", ErrTransport, err)
	}
	return nil
}

// readLoop decodes inbound frames into events until the connection
// drops. Malformed frames are logged and skipped, never fatal. The
// events channel is buffered by the caller so a pending tool handler
// does not stall the transport.
func (c *client) readLoop(events chan<- serverEvent) {
	for {
		_, message, err := c.ws.ReadMessage()
		if err != nil {
			if c.isClosed() {
				events <- serverEvent{kind: evClosed}
			} else {
				events <- serverEvent{kind: evClosed, err: fmt.Errorf("%w: read: %v", ErrTransport, err)}
			}
			return
		}

		var msg map[string]any
		if err := json.Unmarshal(message, &msg); err != nil {
			c.logger.Warn("unparseable server frame skipped", "error", err)
			continue
		}

		for _, ev := range c.decode(msg) {
			events <- ev
		}
	}
}

// decode turns one server message into zero or more ordered events.
func (c *client) decode(msg map[string]any) []serverEvent {
	if _, ok := msg["setupComplete"]; ok {
		return []serverEvent{{kind: evSetupComplete}}
	}

	if tc, ok := msg["toolCall"].(map[string]any); ok {
		if calls := decodeToolCalls(tc); len(calls) > 0 {
			return []serverEvent{{kind: evToolCall, calls: calls}}
		}
		return nil
	}

	if _, ok := msg["toolCallCancellation"]; ok {
		c.logger.Debug("tool call cancelled by agent")
		return nil
	}

	if content, ok := msg["serverContent"].(map[string]any); ok {
		return c.decodeContent(content)
	}

	if c.cfg.Debug {
		c.logger.Debug("unrecognized server message skipped")
	}
	return nil
}

func (c *client) decodeContent(content map[string]any) []serverEvent {
	var events []serverEvent

	if t, ok := content["inputTranscription"].(map[string]any); ok {
		if text, ok := t["text"].(string); ok && text != "" {
			events = append(events, serverEvent{kind: evInputDelta, text: text})
		}
	}
	if t, ok := content["outputTranscription"].(map[string]any); ok {
		if text, ok := t["text"].(string); ok && text != "" {
			events = append(events, serverEvent{kind: evOutputDelta, text: text})
		}
	}

	if modelTurn, ok := content["modelTurn"].(map[string]any); ok {
		parts, _ := modelTurn["parts"].([]any)
		for _, part := range parts {
			partMap, ok := part.(map[string]any)
			if !ok {
				continue
			}
			inline, ok := partMap["inlineData"].(map[string]any)
			if !ok {
				continue
			}
			mime, _ := inline["mimeType"].(string)
			if !strings.HasPrefix(mime, "audio/pcm") {
				continue
			}
			data, _ := inline["data"].(string)
			audio, err := base64.StdEncoding.DecodeString(data)
			if err != nil {
				c.logger.Warn("undecodable audio payload skipped", "error", err)
				continue
			}
			if len(audio) > 0 {
				events = append(events, serverEvent{kind: evAudio, audio: audio})
			}
		}
	}

	if interrupted, ok := content["interrupted"].(bool); ok && interrupted {
		events = append(events, serverEvent{kind: evInterrupted})
	}
	if turnComplete, ok := content["turnComplete"].(bool); ok && turnComplete {
		events = append(events, serverEvent{kind: evTurnComplete})
	}

	return events
}

func decodeToolCalls(tc map[string]any) []ToolCall {
	raw, _ := tc["functionCalls"].([]any)
	calls := make([]ToolCall, 0, len(raw))
	for _, fc := range raw {
		fcMap, ok := fc.(map[string]any)
		if !ok {
			continue
		}
		id, _ := fcMap["id"].(string)
		name, _ := fcMap["name"].(string)
		args, _ := fcMap["args"].(map[string]any)
		if name == "" {
			continue
		}
		calls = append(calls, ToolCall{ID: id, Name: name, Args: args})
	}
	return calls
}

func (c *client) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// close terminates the connection. Safe to call multiple times.
func (c *client) close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	c.mu.Unlock()

	if c.ws != nil {
		return c.ws.Close()
	}
	return nil
}
