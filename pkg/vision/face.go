package vision

import (
	"fmt"
	"image"
	"os"
	"sync"

	"gocv.io/x/gocv"
)

// Face is a detected face in frame coordinates.
type Face struct {
	Rect       image.Rectangle
	Confidence float64
}

// Area returns the bounding-box area in pixels.
func (f Face) Area() float64 {
	return float64(f.Rect.Dx() * f.Rect.Dy())
}

// FaceDetector wraps OpenCV's FaceDetectorYN.
type FaceDetector struct {
	detector gocv.FaceDetectorYN
	thresh   float64
	mu       sync.Mutex // Protects inference
}

// NewFaceDetector loads the YuNet model from cfg.FaceModelPath.
func NewFaceDetector(cfg Config) (*FaceDetector, error) {
	if _, err := os.Stat(cfg.FaceModelPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("vision: face model not found: %s", cfg.FaceModelPath)
	}

	detector := gocv.NewFaceDetectorYNWithParams(
		cfg.FaceModelPath,
		"", // No config file needed for ONNX
		image.Pt(cfg.InputWidth, cfg.InputHeight),
		float32(cfg.ConfidenceThresh),
		0.3,  // NMS threshold
		5000, // Top K
		int(gocv.NetBackendDefault),
		int(gocv.NetTargetCPU),
	)

	return &FaceDetector{detector: detector, thresh: cfg.ConfidenceThresh}, nil
}

// Detect finds faces in the frame.
func (d *FaceDetector) Detect(img gocv.Mat) ([]Face, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if img.Empty() {
		return nil, fmt.Errorf("vision: empty frame")
	}

	d.detector.SetInputSize(image.Pt(img.Cols(), img.Rows()))

	faces := gocv.NewMat()
	defer faces.Close()

	d.detector.Detect(img, &faces)

	// YuNet output format (15 columns):
	// 0-3: x, y, w, h (bounding box in pixels)
	// 4-13: 5 facial landmarks (x,y pairs)
	// 14: face score
	var out []Face
	for r := 0; r < faces.Rows(); r++ {
		score := float64(faces.GetFloatAt(r, 14))
		if score < d.thresh {
			continue
		}
		x := int(faces.GetFloatAt(r, 0))
		y := int(faces.GetFloatAt(r, 1))
		w := int(faces.GetFloatAt(r, 2))
		h := int(faces.GetFloatAt(r, 3))
		out = append(out, Face{
			Rect:       image.Rect(x, y, x+w, y+h),
			Confidence: score,
		})
	}
	return out, nil
}

// Close releases the detector resources.
func (d *FaceDetector) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.detector.Close()
	return nil
}

// SelectBest picks the face to track from multiple detections,
// weighting confidence over size. The driver's face is normally the
// largest and most confident detection in a cabin camera.
func SelectBest(faces []Face) *Face {
	if len(faces) == 0 {
		return nil
	}
	if len(faces) == 1 {
		return &faces[0]
	}

	maxArea := 0.0
	for _, f := range faces {
		if f.Area() > maxArea {
			maxArea = f.Area()
		}
	}

	bestScore := -1.0
	var best *Face
	for i := range faces {
		score := faces[i].Confidence*0.7 + (faces[i].Area()/maxArea)*0.3
		if score > bestScore {
			bestScore = score
			best = &faces[i]
		}
	}
	return best
}
