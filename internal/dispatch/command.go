// Package dispatch delivers swipe commands to the target device.
package dispatch

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/ayusman/swipectl/internal/gesture"
)

// ErrUnknownGesture is returned for a kind with no command mapping.
var ErrUnknownGesture = errors.New("no command for gesture")

// SwipeDuration is the drag duration of every swipe command.
const SwipeDuration = 100 * time.Millisecond

// Command is a simulated drag on the device screen, in device pixels.
type Command struct {
	Gesture  gesture.Kind  `json:"gesture"`
	StartX   int           `json:"start_x"`
	StartY   int           `json:"start_y"`
	EndX     int           `json:"end_x"`
	EndY     int           `json:"end_y"`
	Duration time.Duration `json:"-"`
	// DurationMs mirrors Duration on the wire.
	DurationMs int64 `json:"duration_ms"`
}

func swipe(kind gesture.Kind, x1, y1, x2, y2 int) Command {
	return Command{
		Gesture:    kind,
		StartX:     x1,
		StartY:     y1,
		EndX:       x2,
		EndY:       y2,
		Duration:   SwipeDuration,
		DurationMs: SwipeDuration.Milliseconds(),
	}
}

var commands = map[gesture.Kind]Command{
	gesture.SwipeLeft:  swipe(gesture.SwipeLeft, 900, 1200, 200, 1200),
	gesture.SwipeRight: swipe(gesture.SwipeRight, 200, 1200, 900, 1200),
	gesture.SwipeUp:    swipe(gesture.SwipeUp, 540, 1800, 540, 600),
	gesture.SwipeDown:  swipe(gesture.SwipeDown, 540, 600, 540, 1800),
}

// CommandFor returns the fixed drag command for a swipe kind.
func CommandFor(kind gesture.Kind) (Command, error) {
	cmd, ok := commands[kind]
	if !ok {
		return Command{}, fmt.Errorf("%w: %v", ErrUnknownGesture, kind)
	}
	return cmd, nil
}

// ADBArgs returns the adb arguments for the command. An empty serial targets
// the only attached device.
func (c Command) ADBArgs(serial string) []string {
	args := make([]string, 0, 11)
	if serial != "" {
		args = append(args, "-s", serial)
	}
	return append(args,
		"shell", "input", "swipe",
		strconv.Itoa(c.StartX),
		strconv.Itoa(c.StartY),
		strconv.Itoa(c.EndX),
		strconv.Itoa(c.EndY),
		strconv.FormatInt(c.Duration.Milliseconds(), 10),
	)
}

func (c Command) String() string {
	return fmt.Sprintf("%s (%d,%d)->(%d,%d) %s", c.Gesture, c.StartX, c.StartY, c.EndX, c.EndY, c.Duration)
}
