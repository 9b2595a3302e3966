// Package vision captures camera frames and extracts per-eye facial
// landmarks for the attention monitor.
package vision

import (
	"errors"
	"fmt"
)

// Config holds the camera and model settings for the landmark sampler.
type Config struct {
	// Device is the camera to open, either an index ("0") or a device
	// path ("/dev/video0").
	Device string

	// FaceModelPath points at the YuNet face-detection ONNX model.
	FaceModelPath string

	// LandmarkModelPath points at the 68-point facial-landmark ONNX
	// model applied to the detected face crop.
	LandmarkModelPath string

	// ConfidenceThresh is the minimum face-detection score.
	ConfidenceThresh float64

	// InputWidth and InputHeight are the face detector's initial input
	// size; it is resized per frame.
	InputWidth  int
	InputHeight int
}

// DefaultConfig returns production defaults.
func DefaultConfig() Config {
	return Config{
		Device:            "0",
		FaceModelPath:     "models/face_detection_yunet.onnx",
		LandmarkModelPath: "models/face_landmarks_68.onnx",
		ConfidenceThresh:  0.5,
		InputWidth:        320,
		InputHeight:       320,
	}
}

// Validate checks the configuration.
func (c Config) Validate() error {
	if c.Device == "" {
		return errors.New("vision: device not set")
	}
	if c.FaceModelPath == "" {
		return errors.New("vision: face model path not set")
	}
	if c.LandmarkModelPath == "" {
		return errors.New("vision: landmark model path not set")
	}
	if c.ConfidenceThresh <= 0 || c.ConfidenceThresh >= 1 {
		return fmt.Errorf("vision: confidence threshold %v out of range", c.ConfidenceThresh)
	}
	return nil
}
