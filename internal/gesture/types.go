// Package gesture turns a stream of hand reference points into discrete swipe events.
package gesture

import (
	"fmt"
	"math"
	"time"
)

// Kind identifies one of the four cardinal swipes.
type Kind int

const (
	// SwipeLeft is a hand movement toward the viewer's left.
	SwipeLeft Kind = iota + 1
	// SwipeRight is a hand movement toward the viewer's right.
	SwipeRight
	// SwipeUp is a hand movement toward the top of the frame.
	SwipeUp
	// SwipeDown is a hand movement toward the bottom of the frame.
	SwipeDown
)

// Kinds lists every swipe in declaration order.
var Kinds = []Kind{SwipeLeft, SwipeRight, SwipeUp, SwipeDown}

var kindLabels = map[Kind]string{
	SwipeLeft:  "Swipe Left",
	SwipeRight: "Swipe Right",
	SwipeUp:    "Swipe Up",
	SwipeDown:  "Swipe Down",
}

var kindSlugs = map[Kind]string{
	SwipeLeft:  "swipe-left",
	SwipeRight: "swipe-right",
	SwipeUp:    "swipe-up",
	SwipeDown:  "swipe-down",
}

// String returns the human readable label used for display.
func (k Kind) String() string {
	if label, ok := kindLabels[k]; ok {
		return label
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Slug returns the machine identifier used on the wire (e.g. "swipe-left").
func (k Kind) Slug() string {
	return kindSlugs[k]
}

// Valid reports whether k is one of the four swipes.
func (k Kind) Valid() bool {
	_, ok := kindSlugs[k]
	return ok
}

// MarshalText encodes the kind as its slug.
func (k Kind) MarshalText() ([]byte, error) {
	if !k.Valid() {
		return nil, fmt.Errorf("invalid gesture kind %d", int(k))
	}
	return []byte(k.Slug()), nil
}

// UnmarshalText decodes a slug or label.
func (k *Kind) UnmarshalText(text []byte) error {
	parsed, err := ParseKind(string(text))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// ParseKind accepts either the slug ("swipe-up") or the label ("Swipe Up").
func ParseKind(s string) (Kind, error) {
	for _, k := range Kinds {
		if s == kindSlugs[k] || s == kindLabels[k] {
			return k, nil
		}
	}
	return 0, fmt.Errorf("unknown gesture %q", s)
}

// Sample is a reference point in normalized frame coordinates.
type Sample struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Valid reports whether both coordinates are finite and inside [0,1].
func (s Sample) Valid() bool {
	return inUnitRange(s.X) && inUnitRange(s.Y)
}

func inUnitRange(v float64) bool {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return false
	}
	return v >= 0 && v <= 1
}

// Delta is the displacement of the current sample from the baseline.
type Delta struct {
	DX float64 `json:"dx"`
	DY float64 `json:"dy"`
}

// Event is an emitted swipe. It is handed to the dispatcher and never stored.
type Event struct {
	ID    string    `json:"id"`
	Kind  Kind      `json:"gesture"`
	At    time.Time `json:"at"`
	Delta Delta     `json:"delta"`
}
