package gesture

import "math"

// Default thresholds, as fractions of the frame size.
const (
	DefaultHorizontalThreshold = 0.10
	DefaultVerticalThreshold   = 0.10
)

// Classifier maps a displacement to a swipe kind.
type Classifier struct {
	Horizontal float64
	Vertical   float64
}

// NewClassifier creates a Classifier with the given axis thresholds.
func NewClassifier(horizontal, vertical float64) Classifier {
	return Classifier{Horizontal: horizontal, Vertical: vertical}
}

// Classify returns the swipe described by d, or false when d is too small or
// diagonal. The horizontal axis is checked first and wins ties.
//
// Sign convention assumes a mirrored camera view: positive DX is toward the
// viewer's right and negative DY is toward the top of the frame.
func (c Classifier) Classify(d Delta) (Kind, bool) {
	adx := math.Abs(d.DX)
	ady := math.Abs(d.DY)

	if adx > c.Horizontal && ady < c.Horizontal/2 {
		if d.DX > 0 {
			return SwipeRight, true
		}
		return SwipeLeft, true
	}

	if ady > c.Vertical && adx < c.Vertical/2 {
		if d.DY < 0 {
			return SwipeUp, true
		}
		return SwipeDown, true
	}

	return 0, false
}
