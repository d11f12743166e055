// Package detector finds hand landmarks in camera frames.
package detector

import (
	"math"

	"gocv.io/x/gocv"
)

// Landmark indices follow the MediaPipe hand model.
const (
	Wrist        = 0
	MiddleMCP    = 9
	NumLandmarks = 21
)

// Point3D is a landmark position. X and Y are normalized to the frame, Z is
// relative depth.
type Point3D struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Finite reports whether X and Y are usable numbers.
func (p Point3D) Finite() bool {
	return !math.IsNaN(p.X) && !math.IsNaN(p.Y) && !math.IsInf(p.X, 0) && !math.IsInf(p.Y, 0)
}

// HandLandmarks is one detected hand.
type HandLandmarks struct {
	Points     [NumLandmarks]Point3D `json:"points"`
	Handedness string                `json:"handedness"` // "Left" or "Right"
	Score      float64               `json:"score"`
}

// Wrist returns the wrist landmark.
func (h HandLandmarks) Wrist() Point3D {
	return h.Points[Wrist]
}

// FirstWrist returns the wrist of the first detected hand. It reports false
// when no hand was found.
func FirstWrist(hands []HandLandmarks) (Point3D, bool) {
	if len(hands) == 0 {
		return Point3D{}, false
	}
	return hands[0].Wrist(), true
}

// Detector finds hands in a frame.
type Detector interface {
	// Detect returns the hands found in frame, or an empty slice.
	Detect(frame *gocv.Mat) ([]HandLandmarks, error)
	Close() error
}

// Config holds detection options.
type Config struct {
	// MaxHands is the maximum number of hands reported per frame.
	MaxHands int

	// MinConfidence is the minimum detection confidence (0.0-1.0).
	MinConfidence float64

	// MinTrackingConf is the minimum tracking confidence (0.0-1.0).
	MinTrackingConf float64
}

// DefaultConfig tracks a single hand.
func DefaultConfig() Config {
	return Config{
		MaxHands:        1,
		MinConfidence:   0.5,
		MinTrackingConf: 0.5,
	}
}
