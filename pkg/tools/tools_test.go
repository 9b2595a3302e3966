package tools

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"google.golang.org/api/places/v1"
)

func TestFormatPlaces(t *testing.T) {
	results := []*places.GoogleMapsPlacesV1Place{
		{
			DisplayName:      &places.GoogleTypeLocalizedText{Text: "Highway Rest Stop"},
			FormattedAddress: "1 Motorway Exit 12",
			Rating:           4.3,
		},
		{
			DisplayName: &places.GoogleTypeLocalizedText{Text: "Roadside Diner"},
		},
	}

	got := FormatPlaces("rest stop", results)
	for _, want := range []string{
		`Found 2 places for "rest stop"`,
		"1. Highway Rest Stop, 1 Motorway Exit 12 (rated 4.3)",
		"2. Roadside Diner",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("FormatPlaces output missing %q:\n%s", want, got)
		}
	}
}

func TestSpotifyPlayerInvoke(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("type"); got != "track" {
			t.Errorf("type = %q, want track", got)
		}
		if q := r.URL.Query().Get("q"); !strings.Contains(q, "track:Mr. Blue Sky") {
			t.Errorf("query missing track term: %q", q)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"tracks":{"items":[{"name":"Mr. Blue Sky","uri":"spotify:track:abc123","artists":[{"name":"Electric Light Orchestra"}]}]}}`))
	}))
	defer srv.Close()

	var played string
	s := &SpotifyPlayer{
		http:      srv.Client(),
		searchURL: srv.URL,
		play: func(_ context.Context, uri string) error {
			played = uri
			return nil
		},
	}

	got, err := s.Invoke(context.Background(), map[string]any{
		"songName": "Mr. Blue Sky",
		"artist":   "Electric Light Orchestra",
	})
	if err != nil {
		t.Fatalf("Invoke: %v", err)
	}
	if want := `Playing "Mr. Blue Sky" by Electric Light Orchestra.`; got != want {
		t.Errorf("Invoke = %q, want %q", got, want)
	}
	if played != "spotify:track:abc123" {
		t.Errorf("played URI = %q", played)
	}
}

func TestSpotifyPlayerInvokeMissingSong(t *testing.T) {
	s := &SpotifyPlayer{}
	if _, err := s.Invoke(context.Background(), map[string]any{}); err == nil {
		t.Fatal("expected error for missing songName")
	}
}

func TestSpotifyPlayerSchemaNamesSongName(t *testing.T) {
	s := &SpotifyPlayer{}
	params := s.Parameters()

	props, ok := params["properties"].(map[string]any)
	if !ok {
		t.Fatal("schema has no properties object")
	}
	if _, ok := props["songName"]; !ok {
		t.Error("schema missing songName property")
	}
	required, ok := params["required"].([]string)
	if !ok || len(required) != 1 || required[0] != "songName" {
		t.Errorf("required = %v, want [songName]", params["required"])
	}
}

func TestSpotifyPlayerInvokeNoMatch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"tracks":{"items":[]}}`))
	}))
	defer srv.Close()

	s := &SpotifyPlayer{http: srv.Client(), searchURL: srv.URL}
	got, err := s.Invoke(context.Background(), map[string]any{"songName": "Nonexistent"})
	if err != nil {
		t.Fatalf("Invoke: %v", err)
	}
	if !strings.Contains(got, "Could not find") {
		t.Errorf("Invoke = %q, want a not-found message", got)
	}
}
