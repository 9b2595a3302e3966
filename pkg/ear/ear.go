// Package ear computes the eye aspect ratio used as a drowsiness signal.
//
// The eye aspect ratio (EAR) is a geometric proxy for eye openness. It is
// computed from six landmark points per eye, ordered by the usual
// anatomical convention: p1 outer corner, p2/p3 upper lid, p4 inner
// corner, p5/p6 lower lid. Open eyes sit around 0.3; closed eyes drop
// toward 0.
package ear

import (
	"errors"
	"math"
)

// EyePointCount is the number of landmark points required per eye.
const EyePointCount = 6

// ErrInvalidLandmarkSet is returned when an eye landmark set does not
// contain exactly six points.
var ErrInvalidLandmarkSet = errors.New("ear: eye landmark set must contain exactly 6 points")

// Point is a single facial landmark coordinate in frame space.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Dist returns the Euclidean distance to another point.
func (p Point) Dist(q Point) float64 {
	dx := p.X - q.X
	dy := p.Y - q.Y
	return math.Sqrt(dx*dx + dy*dy)
}

// Compute calculates the eye aspect ratio for one eye:
//
//	EAR = (|p2-p6| + |p3-p5|) / (2 * |p1-p4|)
//
// The input must contain exactly six points in anatomical order.
func Compute(eye []Point) (float64, error) {
	if len(eye) != EyePointCount {
		return 0, ErrInvalidLandmarkSet
	}

	vertical := eye[1].Dist(eye[5]) + eye[2].Dist(eye[4])
	horizontal := eye[0].Dist(eye[3])

	return vertical / (2 * horizontal), nil
}

// Averaged computes the mean EAR over both eyes.
// Either eye failing validation fails the whole computation.
func Averaged(left, right []Point) (float64, error) {
	l, err := Compute(left)
	if err != nil {
		return 0, err
	}
	r, err := Compute(right)
	if err != nil {
		return 0, err
	}
	return (l + r) / 2, nil
}
