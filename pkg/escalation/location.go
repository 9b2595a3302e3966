// Package escalation manages the emergency-contact countdown that fires
// when the driver becomes unresponsive.
package escalation

import "sync"

// Location is the last reported vehicle position.
type Location struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// LocationStore keeps the most recent location update, last-value-wins.
// Written by the geolocation collaborator, read by the emergency
// notifier and the nearby-places tool handler.
type LocationStore struct {
	mu  sync.RWMutex
	loc Location
	set bool
}

// NewLocationStore returns an empty store.
func NewLocationStore() *LocationStore {
	return &LocationStore{}
}

// Update replaces the stored location.
func (s *LocationStore) Update(loc Location) {
	s.mu.Lock()
	s.loc = loc
	s.set = true
	s.mu.Unlock()
}

// Last returns the most recent location and whether one has been
// reported yet.
func (s *LocationStore) Last() (Location, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loc, s.set
}
