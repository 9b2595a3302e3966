// Package tools implements the external tool handlers the voice agent
// can invoke: nearby-place search and Spotify playback. Both are thin
// collaborators; the session only guarantees dispatch and correlated
// responses.
package tools

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/api/option"
	"google.golang.org/api/places/v1"

	"github.com/driveguard/driveguard/pkg/escalation"
)

// searchRadiusMeters biases place results to the vehicle's surroundings.
const searchRadiusMeters = 5000

// PlacesFinder implements the find_nearby_places tool using the Google
// Places text-search endpoint, biased to the last reported vehicle
// location.
type PlacesFinder struct {
	svc      *places.Service
	location *escalation.LocationStore
}

// NewPlacesFinder creates the handler with the given API key.
func NewPlacesFinder(ctx context.Context, apiKey string, location *escalation.LocationStore) (*PlacesFinder, error) {
	svc, err := places.NewService(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("tools: places service: %w", err)
	}
	return &PlacesFinder{svc: svc, location: location}, nil
}

// Name returns the tool identifier.
func (p *PlacesFinder) Name() string { return "find_nearby_places" }

// Description explains the tool to the agent.
func (p *PlacesFinder) Description() string {
	return "Find places near the vehicle, such as rest stops, gas stations or coffee shops. Use when the driver needs a break."
}

// Parameters returns the argument schema.
func (p *PlacesFinder) Parameters() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"query": map[string]any{
				"type":        "string",
				"description": "What to search for, e.g. 'rest stop' or 'coffee'",
			},
		},
		"required": []string{"query"},
	}
}

// Invoke runs the search and formats the top results for the agent to
// speak back.
func (p *PlacesFinder) Invoke(ctx context.Context, args map[string]any) (string, error) {
	query, _ := args["query"].(string)
	if strings.TrimSpace(query) == "" {
		return "", fmt.Errorf("missing query")
	}

	req := &places.GoogleMapsPlacesV1SearchTextRequest{
		TextQuery:      query,
		MaxResultCount: 5,
	}
	if loc, ok := p.location.Last(); ok {
		req.LocationBias = &places.GoogleMapsPlacesV1SearchTextRequestLocationBias{
			Circle: &places.GoogleMapsPlacesV1Circle{
				Center: &places.GoogleTypeLatLng{
					Latitude:  loc.Latitude,
					Longitude: loc.Longitude,
				},
				Radius: searchRadiusMeters,
			},
		}
	}

	resp, err := p.svc.Places.SearchText(req).
		Fields("places.displayName", "places.formattedAddress", "places.rating").
		Context(ctx).
		Do()
	if err != nil {
		return "", fmt.Errorf("place search failed: %w", err)
	}
	if len(resp.Places) == 0 {
		return fmt.Sprintf("No places found for %q nearby.", query), nil
	}

	return FormatPlaces(query, resp.Places), nil
}

// FormatPlaces renders search results as a short spoken-friendly list.
func FormatPlaces(query string, results []*places.GoogleMapsPlacesV1Place) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Found %d places for %q:", len(results), query)
	for i, pl := range results {
		name := ""
		if pl.DisplayName != nil {
			name = pl.DisplayName.Text
		}
		fmt.Fprintf(&b, "\n%d. %s", i+1, name)
		if pl.FormattedAddress != "" {
			fmt.Fprintf(&b, ", %s", pl.FormattedAddress)
		}
		if pl.Rating > 0 {
			fmt.Fprintf(&b, " (rated %.1f)", pl.Rating)
		}
	}
	return b.String()
}
