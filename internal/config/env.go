// Package config provides configuration helpers for driveguard commands.
package config

import (
	"fmt"
	"os"
)

// Env returns the value of the named environment variable.
// Falls back to the provided default if not set.
func Env(name, fallback string) string {
	if v := os.Getenv(name); v != "" {
		return v
	}
	return fallback
}

// EnvRequired returns the value of the named environment variable.
// Exits with a usage hint if not set.
func EnvRequired(name string) string {
	v := os.Getenv(name)
	if v == "" {
		fmt.Fprintf(os.Stderr, "Error: %s environment variable is required\n", name)
		fmt.Fprintf(os.Stderr, "Usage: %s=... go run ./cmd/driveguard\n", name)
		os.Exit(1)
	}
	return v
}

// GoogleAPIKey returns the Gemini/Places API key from GOOGLE_API_KEY.
func GoogleAPIKey() string {
	return EnvRequired("GOOGLE_API_KEY")
}

// SpotifyCredentials returns the Spotify client id and secret.
// Both are optional; the play_spotify_song tool reports unavailability
// when they are missing rather than failing startup.
func SpotifyCredentials() (id, secret string) {
	return os.Getenv("SPOTIFY_CLIENT_ID"), os.Getenv("SPOTIFY_CLIENT_SECRET")
}

// EmergencyContact returns the configured emergency contact identifier
// (phone number or webhook target) from EMERGENCY_CONTACT.
func EmergencyContact() string {
	return EnvRequired("EMERGENCY_CONTACT")
}

// CameraDevice returns the camera device id from CAMERA_DEVICE (default 0).
func CameraDevice() string {
	return Env("CAMERA_DEVICE", "0")
}

// LandmarkModelPath returns the path to the facial landmark ONNX model.
func LandmarkModelPath() string {
	return Env("LANDMARK_MODEL", "models/face_landmarks.onnx")
}
