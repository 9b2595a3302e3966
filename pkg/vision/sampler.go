package vision

import (
	"context"
	"fmt"
	"sync"

	"gocv.io/x/gocv"

	"github.com/driveguard/driveguard/pkg/attention"
)

// CameraSampler reads frames from a cabin camera and produces eye
// landmark samples. It implements attention.Sampler.
type CameraSampler struct {
	capture   *gocv.VideoCapture
	faces     *FaceDetector
	landmarks *LandmarkNet

	mu    sync.Mutex
	frame gocv.Mat
}

// NewCameraSampler opens the camera and loads both models.
func NewCameraSampler(cfg Config) (*CameraSampler, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	capture, err := gocv.OpenVideoCapture(cfg.Device)
	if err != nil {
		return nil, fmt.Errorf("vision: open camera %s: %w", cfg.Device, err)
	}

	faces, err := NewFaceDetector(cfg)
	if err != nil {
		capture.Close()
		return nil, err
	}

	landmarks, err := NewLandmarkNet(cfg)
	if err != nil {
		capture.Close()
		faces.Close()
		return nil, err
	}

	return &CameraSampler{
		capture:   capture,
		faces:     faces,
		landmarks: landmarks,
		frame:     gocv.NewMat(),
	}, nil
}

// Sample grabs one frame and extracts eye landmarks for the driver's
// face. A frame with no detectable face yields FaceFound=false rather
// than an error; errors are reserved for camera or model failures.
func (s *CameraSampler) Sample(ctx context.Context) (attention.Sample, error) {
	if err := ctx.Err(); err != nil {
		return attention.Sample{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if ok := s.capture.Read(&s.frame); !ok {
		return attention.Sample{}, fmt.Errorf("vision: camera read failed")
	}
	if s.frame.Empty() {
		return attention.Sample{}, fmt.Errorf("vision: camera produced empty frame")
	}

	detected, err := s.faces.Detect(s.frame)
	if err != nil {
		return attention.Sample{}, err
	}
	face := SelectBest(detected)
	if face == nil {
		return attention.Sample{FaceFound: false}, nil
	}

	points, err := s.landmarks.Extract(s.frame, face.Rect)
	if err != nil {
		return attention.Sample{}, err
	}
	left, right, err := EyePoints(points)
	if err != nil {
		return attention.Sample{}, err
	}

	return attention.Sample{
		FaceFound: true,
		LeftEye:   left,
		RightEye:  right,
	}, nil
}

// Close releases the camera and model resources.
func (s *CameraSampler) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var first error
	if err := s.capture.Close(); err != nil {
		first = err
	}
	if err := s.faces.Close(); err != nil && first == nil {
		first = err
	}
	if err := s.landmarks.Close(); err != nil && first == nil {
		first = err
	}
	s.frame.Close()
	return first
}
