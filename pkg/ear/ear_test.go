package ear

import (
	"errors"
	"math"
	"testing"
)

const floatTolerance = 1e-9

func floatEquals(a, b float64) bool {
	return math.Abs(a-b) < floatTolerance
}

// openEye is a symmetric, well-formed six point eye.
// Horizontal span 4.0, both vertical spans 1.0 -> EAR = 2/(2*4) = 0.25.
var openEye = []Point{
	{X: 0, Y: 0},    // p1 outer corner
	{X: 1, Y: 0.5},  // p2 upper lid
	{X: 3, Y: 0.5},  // p3 upper lid
	{X: 4, Y: 0},    // p4 inner corner
	{X: 3, Y: -0.5}, // p5 lower lid
	{X: 1, Y: -0.5}, // p6 lower lid
}

func TestCompute_KnownValue(t *testing.T) {
	got, err := Compute(openEye)
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}
	if !floatEquals(got, 0.25) {
		t.Errorf("EAR: got %v, want 0.25", got)
	}
}

func TestCompute_InvalidLength(t *testing.T) {
	for _, n := range []int{0, 1, 5, 7, 12} {
		pts := make([]Point, n)
		if _, err := Compute(pts); !errors.Is(err, ErrInvalidLandmarkSet) {
			t.Errorf("len %d: got err %v, want ErrInvalidLandmarkSet", n, err)
		}
	}
}

func TestCompute_TranslationInvariant(t *testing.T) {
	base, err := Compute(openEye)
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}

	for _, shift := range []Point{{X: 10, Y: -3}, {X: -100, Y: 250}, {X: 0.001, Y: 0.001}} {
		moved := make([]Point, len(openEye))
		for i, p := range openEye {
			moved[i] = Point{X: p.X + shift.X, Y: p.Y + shift.Y}
		}
		got, err := Compute(moved)
		if err != nil {
			t.Fatalf("Compute translated: %v", err)
		}
		if !floatEquals(got, base) {
			t.Errorf("translation %+v: got %v, want %v", shift, got, base)
		}
	}
}

func TestCompute_ScaleInvariant(t *testing.T) {
	base, err := Compute(openEye)
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}

	for _, scale := range []float64{0.01, 2, 640} {
		scaled := make([]Point, len(openEye))
		for i, p := range openEye {
			scaled[i] = Point{X: p.X * scale, Y: p.Y * scale}
		}
		got, err := Compute(scaled)
		if err != nil {
			t.Fatalf("Compute scaled: %v", err)
		}
		if math.Abs(got-base) > 1e-6 {
			t.Errorf("scale %v: got %v, want %v", scale, got, base)
		}
	}
}

func TestAveraged(t *testing.T) {
	// Right eye squeezed to half the vertical span of the left.
	narrow := make([]Point, len(openEye))
	for i, p := range openEye {
		narrow[i] = Point{X: p.X, Y: p.Y / 2}
	}

	got, err := Averaged(openEye, narrow)
	if err != nil {
		t.Fatalf("Averaged: %v", err)
	}
	want := (0.25 + 0.125) / 2
	if !floatEquals(got, want) {
		t.Errorf("Averaged: got %v, want %v", got, want)
	}
}

func TestAveraged_PropagatesInvalid(t *testing.T) {
	if _, err := Averaged(openEye, openEye[:5]); !errors.Is(err, ErrInvalidLandmarkSet) {
		t.Errorf("got err %v, want ErrInvalidLandmarkSet", err)
	}
	if _, err := Averaged(nil, openEye); !errors.Is(err, ErrInvalidLandmarkSet) {
		t.Errorf("got err %v, want ErrInvalidLandmarkSet", err)
	}
}
