package gesture

import (
	"time"

	"github.com/google/uuid"
)

// Outcome is the per-frame result of Engine.Step.
type Outcome int

const (
	// NoHand means the frame had no usable sample and the baseline was cleared.
	NoHand Outcome = iota
	// NoGesture means a sample was tracked but nothing was emitted.
	NoGesture
	// GestureFired means a swipe was emitted and the baseline was cleared.
	GestureFired
)

func (o Outcome) String() string {
	switch o {
	case NoHand:
		return "no-hand"
	case NoGesture:
		return "no-gesture"
	case GestureFired:
		return "gesture-fired"
	default:
		return "unknown"
	}
}

// Result describes what happened to one frame.
type Result struct {
	Outcome Outcome
	// Event is set when Outcome is GestureFired.
	Event Event
	// Suppressed is set when a swipe was classified but the cooldown held it back.
	Suppressed     bool
	SuppressedKind Kind
}

// Config holds the classification parameters.
type Config struct {
	HorizontalThreshold float64
	VerticalThreshold   float64
	Cooldown            time.Duration
}

// DefaultConfig returns thresholds of 10% of the frame and a one second cooldown.
func DefaultConfig() Config {
	return Config{
		HorizontalThreshold: DefaultHorizontalThreshold,
		VerticalThreshold:   DefaultVerticalThreshold,
		Cooldown:            DefaultCooldown,
	}
}

// Engine runs the per-frame state machine: tracker, classifier and cooldown.
// It is not safe for concurrent use; one goroutine owns it.
type Engine struct {
	tracker    Tracker
	classifier Classifier
	cooldown   *Cooldown
	newID      func() string
}

// NewEngine creates an Engine in the no-baseline state.
func NewEngine(cfg Config) *Engine {
	return &Engine{
		classifier: NewClassifier(cfg.HorizontalThreshold, cfg.VerticalThreshold),
		cooldown:   NewCooldown(cfg.Cooldown),
		newID:      uuid.NewString,
	}
}

// SetIDFunc overrides how event IDs are generated.
func (e *Engine) SetIDFunc(fn func() string) {
	if fn != nil {
		e.newID = fn
	}
}

// Step processes one frame. A nil or invalid sample counts as hand loss.
func (e *Engine) Step(s *Sample, now time.Time) Result {
	if s == nil || !s.Valid() {
		e.tracker.Clear()
		return Result{Outcome: NoHand}
	}

	delta, ok := e.tracker.Observe(*s)
	if !ok {
		return Result{Outcome: NoGesture}
	}

	kind, ok := e.classifier.Classify(delta)
	if ok && e.cooldown.TryEmit(now) {
		e.tracker.Clear()
		return Result{
			Outcome: GestureFired,
			Event: Event{
				ID:    e.newID(),
				Kind:  kind,
				At:    now,
				Delta: delta,
			},
		}
	}

	// Keep tracking incrementally instead of diffing against a stale point.
	e.tracker.Rebase(*s)
	return Result{Outcome: NoGesture, Suppressed: ok, SuppressedKind: kind}
}

// Reset clears the baseline, as if the hand had been lost.
func (e *Engine) Reset() {
	e.tracker.Clear()
}

// Baseline exposes the tracker's reference point.
func (e *Engine) Baseline() (Sample, bool) {
	return e.tracker.Baseline()
}

// LastEmit returns the time of the last emitted swipe.
func (e *Engine) LastEmit() (time.Time, bool) {
	return e.cooldown.LastEmit()
}
