package vision

import (
	"fmt"
	"image"
	"os"
	"sync"

	"gocv.io/x/gocv"

	"github.com/driveguard/driveguard/pkg/ear"
)

// LandmarkCount is the number of points in the 68-point facial
// landmark scheme.
const LandmarkCount = 68

// Eye landmark index ranges in the 68-point scheme.
const (
	leftEyeStart  = 36
	leftEyeEnd    = 42
	rightEyeStart = 42
	rightEyeEnd   = 48
)

// landmarkInputSize is the crop size the landmark model expects.
const landmarkInputSize = 112

// LandmarkNet runs a 68-point facial-landmark model on a face crop.
type LandmarkNet struct {
	net gocv.Net
	mu  sync.Mutex // Protects inference
}

// NewLandmarkNet loads the ONNX model from cfg.LandmarkModelPath.
func NewLandmarkNet(cfg Config) (*LandmarkNet, error) {
	if _, err := os.Stat(cfg.LandmarkModelPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("vision: landmark model not found: %s", cfg.LandmarkModelPath)
	}

	net := gocv.ReadNet(cfg.LandmarkModelPath, "")
	if net.Empty() {
		return nil, fmt.Errorf("vision: failed to load landmark model: %s", cfg.LandmarkModelPath)
	}
	return &LandmarkNet{net: net}, nil
}

// Extract runs the model on the face region of img and returns all 68
// landmarks in frame coordinates.
func (l *LandmarkNet) Extract(img gocv.Mat, face image.Rectangle) ([]ear.Point, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	bounds := image.Rect(0, 0, img.Cols(), img.Rows())
	roi := face.Intersect(bounds)
	if roi.Empty() {
		return nil, fmt.Errorf("vision: face region outside frame")
	}

	crop := img.Region(roi)
	defer crop.Close()

	blob := gocv.BlobFromImage(crop, 1.0/255.0,
		image.Pt(landmarkInputSize, landmarkInputSize),
		gocv.NewScalar(0, 0, 0, 0), true, false)
	defer blob.Close()

	l.net.SetInput(blob, "")
	out := l.net.Forward("")
	defer out.Close()

	// The model emits 136 floats: x,y pairs normalized to the crop.
	flat := out.Reshape(1, 1)
	defer flat.Close()
	if flat.Cols() < LandmarkCount*2 {
		return nil, fmt.Errorf("vision: landmark output has %d values, want %d", flat.Cols(), LandmarkCount*2)
	}

	points := make([]ear.Point, LandmarkCount)
	w := float64(roi.Dx())
	h := float64(roi.Dy())
	for i := 0; i < LandmarkCount; i++ {
		nx := float64(flat.GetFloatAt(0, i*2))
		ny := float64(flat.GetFloatAt(0, i*2+1))
		points[i] = ear.Point{
			X: float64(roi.Min.X) + nx*w,
			Y: float64(roi.Min.Y) + ny*h,
		}
	}
	return points, nil
}

// Close releases the network resources.
func (l *LandmarkNet) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.net.Close()
}

// EyePoints slices the left and right eye contours out of a full
// 68-point landmark set, ordered p1..p6 as the aspect-ratio
// computation expects.
func EyePoints(landmarks []ear.Point) (left, right []ear.Point, err error) {
	if len(landmarks) != LandmarkCount {
		return nil, nil, fmt.Errorf("vision: got %d landmarks, want %d", len(landmarks), LandmarkCount)
	}
	left = landmarks[leftEyeStart:leftEyeEnd]
	right = landmarks[rightEyeStart:rightEyeEnd]
	return left, right, nil
}
