package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"golang.org/x/oauth2/clientcredentials"
)

const (
	spotifyTokenURL  = "https://accounts.spotify.com/api/token"
	spotifySearchURL = "https://api.spotify.com/v1/search"
)

// SpotifyPlayer implements the play_spotify_song tool. It resolves the
// requested track through the Spotify search API using the
// client-credentials flow and hands the track URI to the configured
// player callback.
type SpotifyPlayer struct {
	http      *http.Client
	searchURL string
	play      func(ctx context.Context, trackURI string) error
}

// PlayOption customises a SpotifyPlayer.
type PlayOption func(*SpotifyPlayer)

// WithPlayback sets the callback that actually starts playback, for
// example a head-unit bridge. Without one the handler reports the
// resolved track so the agent can confirm it verbally.
func WithPlayback(play func(ctx context.Context, trackURI string) error) PlayOption {
	return func(s *SpotifyPlayer) { s.play = play }
}

// NewSpotifyPlayer creates the handler from Spotify app credentials.
func NewSpotifyPlayer(ctx context.Context, clientID, clientSecret string, opts ...PlayOption) *SpotifyPlayer {
	conf := &clientcredentials.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		TokenURL:     spotifyTokenURL,
	}
	s := &SpotifyPlayer{http: conf.Client(ctx), searchURL: spotifySearchURL}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Name returns the tool identifier.
func (s *SpotifyPlayer) Name() string { return "play_spotify_song" }

// Description explains the tool to the agent.
func (s *SpotifyPlayer) Description() string {
	return "Play a song on Spotify. Use when the driver asks for music or an upbeat song would help them stay alert."
}

// Parameters returns the argument schema.
func (s *SpotifyPlayer) Parameters() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"songName": map[string]any{
				"type":        "string",
				"description": "Song title to play",
			},
			"artist": map[string]any{
				"type":        "string",
				"description": "Artist name, if the driver mentioned one",
			},
		},
		"required": []string{"songName"},
	}
}

type spotifySearchResponse struct {
	Tracks struct {
		Items []spotifyTrack `json:"items"`
	} `json:"tracks"`
}

type spotifyTrack struct {
	Name    string `json:"name"`
	URI     string `json:"uri"`
	Artists []struct {
		Name string `json:"name"`
	} `json:"artists"`
}

// Invoke searches for the track and starts playback.
func (s *SpotifyPlayer) Invoke(ctx context.Context, args map[string]any) (string, error) {
	song, _ := args["songName"].(string)
	if strings.TrimSpace(song) == "" {
		return "", fmt.Errorf("missing songName")
	}
	artist, _ := args["artist"].(string)

	track, err := s.search(ctx, song, artist)
	if err != nil {
		return "", err
	}
	if track == nil {
		return fmt.Sprintf("Could not find %q on Spotify.", song), nil
	}

	if s.play != nil {
		if err := s.play(ctx, track.URI); err != nil {
			return "", fmt.Errorf("playback failed: %w", err)
		}
	}

	by := ""
	if len(track.Artists) > 0 {
		by = " by " + track.Artists[0].Name
	}
	return fmt.Sprintf("Playing %q%s.", track.Name, by), nil
}

func (s *SpotifyPlayer) search(ctx context.Context, song, artist string) (*spotifyTrack, error) {
	q := "track:" + song
	if artist != "" {
		q += " artist:" + artist
	}
	params := url.Values{}
	params.Set("q", q)
	params.Set("type", "track")
	params.Set("limit", "1")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.searchURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}
	resp, err := s.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("spotify search failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("spotify search returned %s", resp.Status)
	}

	var parsed spotifySearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("spotify search decode failed: %w", err)
	}
	if len(parsed.Tracks.Items) == 0 {
		return nil, nil
	}
	return &parsed.Tracks.Items[0], nil
}
