package session

import (
	"encoding/base64"
	"log/slog"
	"testing"
)

func newTestClient() *client {
	cfg := DefaultConfig()
	cfg.APIKey = "test"
	return newClient(cfg, slog.Default())
}

func TestDecode_SetupComplete(t *testing.T) {
	c := newTestClient()
	events := c.decode(map[string]any{"setupComplete": map[string]any{}})
	if len(events) != 1 || events[0].kind != evSetupComplete {
		t.Fatalf("events: got %+v, want one setupComplete", events)
	}
}

func TestDecode_TranscriptionDeltas(t *testing.T) {
	c := newTestClient()

	events := c.decode(map[string]any{
		"serverContent": map[string]any{
			"inputTranscription":  map[string]any{"text": "hel"},
			"outputTranscription": map[string]any{"text": "I hear"},
		},
	})

	if len(events) != 2 {
		t.Fatalf("events: got %d, want 2", len(events))
	}
	if events[0].kind != evInputDelta || events[0].text != "hel" {
		t.Errorf("event 0: got %v %q", events[0].kind, events[0].text)
	}
	if events[1].kind != evOutputDelta || events[1].text != "I hear" {
		t.Errorf("event 1: got %v %q", events[1].kind, events[1].text)
	}
}

func TestDecode_InlineAudio(t *testing.T) {
	c := newTestClient()
	pcm := []byte{1, 2, 3, 4}

	events := c.decode(map[string]any{
		"serverContent": map[string]any{
			"modelTurn": map[string]any{
				"parts": []any{
					map[string]any{
						"inlineData": map[string]any{
							"mimeType": "audio/pcm;rate=24000",
							"data":     base64.StdEncoding.EncodeToString(pcm),
						},
					},
				},
			},
		},
	})

	if len(events) != 1 || events[0].kind != evAudio {
		t.Fatalf("events: got %+v, want one audio event", events)
	}
	if string(events[0].audio) != string(pcm) {
		t.Errorf("audio payload: got %v, want %v", events[0].audio, pcm)
	}
}

func TestDecode_DeltasPrecedeTurnComplete(t *testing.T) {
	c := newTestClient()

	events := c.decode(map[string]any{
		"serverContent": map[string]any{
			"outputTranscription": map[string]any{"text": "bye"},
			"turnComplete":        true,
		},
	})

	if len(events) != 2 {
		t.Fatalf("events: got %d, want 2", len(events))
	}
	if events[0].kind != evOutputDelta {
		t.Errorf("event 0: got %v, want output delta", events[0].kind)
	}
	if events[1].kind != evTurnComplete {
		t.Errorf("event 1: got %v, want turn complete", events[1].kind)
	}
}

func TestDecode_ToolCallBatch(t *testing.T) {
	c := newTestClient()

	events := c.decode(map[string]any{
		"toolCall": map[string]any{
			"functionCalls": []any{
				map[string]any{
					"id":   "1",
					"name": "find_nearby_places",
					"args": map[string]any{"query": "coffee"},
				},
				map[string]any{
					"id":   "2",
					"name": "play_spotify_song",
					"args": map[string]any{"songName": "x"},
				},
			},
		},
	})

	if len(events) != 1 || events[0].kind != evToolCall {
		t.Fatalf("events: got %+v, want one tool-call event", events)
	}
	calls := events[0].calls
	if len(calls) != 2 {
		t.Fatalf("calls: got %d, want 2", len(calls))
	}
	if calls[0].ID != "1" || calls[0].Name != "find_nearby_places" {
		t.Errorf("call 0: got %+v", calls[0])
	}
	if q, _ := calls[0].Args["query"].(string); q != "coffee" {
		t.Errorf("call 0 args: got %v", calls[0].Args)
	}
	if calls[1].ID != "2" || calls[1].Name != "play_spotify_song" {
		t.Errorf("call 1: got %+v", calls[1])
	}
}

func TestDecode_MalformedPiecesSkipped(t *testing.T) {
	c := newTestClient()

	// Nameless calls, non-map parts and bogus base64 must all be
	// dropped without producing events or panicking.
	events := c.decode(map[string]any{
		"toolCall": map[string]any{
			"functionCalls": []any{
				"not a map",
				map[string]any{"id": "x"}, // missing name
			},
		},
	})
	if len(events) != 0 {
		t.Errorf("malformed tool call produced events: %+v", events)
	}

	events = c.decode(map[string]any{
		"serverContent": map[string]any{
			"modelTurn": map[string]any{
				"parts": []any{
					map[string]any{
						"inlineData": map[string]any{
							"mimeType": "audio/pcm",
							"data":     "!!!not-base64!!!",
						},
					},
				},
			},
		},
	})
	if len(events) != 0 {
		t.Errorf("bogus audio produced events: %+v", events)
	}

	if events := c.decode(map[string]any{"mystery": true}); len(events) != 0 {
		t.Errorf("unknown message produced events: %+v", events)
	}
}

func TestDecode_InterruptedFlag(t *testing.T) {
	c := newTestClient()
	events := c.decode(map[string]any{
		"serverContent": map[string]any{"interrupted": true},
	})
	if len(events) != 1 || events[0].kind != evInterrupted {
		t.Fatalf("events: got %+v, want one interrupted", events)
	}
}
