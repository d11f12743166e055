// Package app runs the swipectl detection loop: frames in, swipe commands out.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ayusman/swipectl/internal/dispatch"
	"github.com/ayusman/swipectl/internal/display"
	"github.com/ayusman/swipectl/internal/gesture"
	"github.com/ayusman/swipectl/internal/source"
)

// DefaultDrainTimeout bounds how long Run waits for queued commands on exit.
const DefaultDrainTimeout = 5 * time.Second

// Config holds the collaborators of an App.
type Config struct {
	Source source.Provider
	Engine gesture.Config
	// Queue receives every emitted event. Nil disables dispatch.
	Queue *dispatch.Queue
	// Display is updated on every emission. Nil disables it.
	Display *display.Last
	// StartPaused starts with detection disabled.
	StartPaused  bool
	DrainTimeout time.Duration
	// IDFunc overrides event ID generation.
	IDFunc func() string
	Logger *slog.Logger
}

// Counters summarise the frames seen by Run.
type Counters struct {
	Frames     uint64 `json:"frames"`
	HandFrames uint64 `json:"hand_frames"`
	Emitted    uint64 `json:"emitted"`
	Suppressed uint64 `json:"suppressed"`
}

// App owns the gesture engine and feeds it from a single goroutine.
type App struct {
	config  Config
	source  source.Provider
	engine  *gesture.Engine
	queue   *dispatch.Queue
	display *display.Last
	logger  *slog.Logger

	enabled atomic.Bool

	mu      sync.RWMutex
	last    gesture.Event
	hasLast bool

	frames     atomic.Uint64
	handFrames atomic.Uint64
	emitted    atomic.Uint64
	suppressed atomic.Uint64
}

// New creates an App. The source is required.
func New(config Config) (*App, error) {
	if config.Source == nil {
		return nil, fmt.Errorf("app: %w", source.ErrNoInput)
	}
	if config.DrainTimeout <= 0 {
		config.DrainTimeout = DefaultDrainTimeout
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}

	engine := gesture.NewEngine(config.Engine)
	engine.SetIDFunc(config.IDFunc)

	a := &App{
		config:  config,
		source:  config.Source,
		engine:  engine,
		queue:   config.Queue,
		display: config.Display,
		logger:  logger.With("component", "app"),
	}
	a.enabled.Store(!config.StartPaused)
	return a, nil
}

// Run reads frames until the source ends or ctx is cancelled, then drains
// the dispatch queue. A finished source is not an error.
func (a *App) Run(ctx context.Context) error {
	a.logger.Info("pipeline started",
		"horizontal_threshold", a.config.Engine.HorizontalThreshold,
		"vertical_threshold", a.config.Engine.VerticalThreshold,
		"cooldown", a.config.Engine.Cooldown,
		"enabled", a.Enabled(),
	)

	err := a.loop(ctx)

	if a.queue != nil {
		drainCtx, cancel := context.WithTimeout(context.Background(), a.config.DrainTimeout)
		defer cancel()
		if cerr := a.queue.Close(drainCtx); cerr != nil {
			a.logger.Warn("dispatch queue not drained", "error", cerr)
		}
	}

	c := a.Counters()
	a.logger.Info("pipeline stopped", "frames", c.Frames, "emitted", c.Emitted)
	return err
}

func (a *App) loop(ctx context.Context) error {
	for {
		obs, err := a.source.Next(ctx)
		if err != nil {
			switch {
			case errors.Is(err, io.EOF):
				a.logger.Info("frame source ended")
				return nil
			case ctx.Err() != nil:
				return nil
			default:
				a.logger.Error("frame source failed", "error", err)
				return fmt.Errorf("next frame: %w", err)
			}
		}
		a.process(obs)
	}
}

// process runs one observation through the engine. While paused the engine
// is reset on every frame so the baseline never spans a pause.
func (a *App) process(obs source.Observation) gesture.Result {
	a.frames.Add(1)

	if !a.enabled.Load() {
		a.engine.Reset()
		return gesture.Result{Outcome: gesture.NoHand}
	}
	sample := obs.Sample
	if sample != nil {
		a.handFrames.Add(1)
	}

	now := obs.At
	if now.IsZero() {
		now = time.Now()
	}

	res := a.engine.Step(sample, now)
	switch {
	case res.Outcome == gesture.GestureFired:
		a.emit(res.Event)
	case res.Suppressed:
		a.suppressed.Add(1)
		a.logger.Debug("gesture suppressed by cooldown", "gesture", res.SuppressedKind.Slug())
	}
	return res
}

func (a *App) emit(ev gesture.Event) {
	a.emitted.Add(1)

	a.mu.Lock()
	a.last = ev
	a.hasLast = true
	a.mu.Unlock()

	a.logger.Info("gesture emitted",
		"gesture", ev.Kind.Slug(),
		"event_id", ev.ID,
		"dx", ev.Delta.DX,
		"dy", ev.Delta.DY,
	)

	if a.display != nil {
		a.display.Set(ev)
	}
	if a.queue != nil {
		if err := a.queue.Enqueue(ev); err != nil {
			a.logger.Warn("swipe not dispatched", "gesture", ev.Kind.Slug(), "event_id", ev.ID, "error", err)
		}
	}
}

// SetEnabled pauses or resumes detection. It is safe to call from any
// goroutine; the change takes effect on the next frame.
func (a *App) SetEnabled(enabled bool) {
	if a.enabled.Swap(enabled) != enabled {
		a.logger.Info("detection toggled", "enabled", enabled)
	}
}

// Enabled reports whether detection is running.
func (a *App) Enabled() bool {
	return a.enabled.Load()
}

// LastGesture returns the most recently emitted event.
func (a *App) LastGesture() (gesture.Event, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.last, a.hasLast
}

// DispatchStats returns the queue counters, or zeros without a queue.
func (a *App) DispatchStats() dispatch.Stats {
	if a.queue == nil {
		return dispatch.Stats{}
	}
	return a.queue.Stats()
}

// Counters returns frame and emission counts.
func (a *App) Counters() Counters {
	return Counters{
		Frames:     a.frames.Load(),
		HandFrames: a.handFrames.Load(),
		Emitted:    a.emitted.Load(),
		Suppressed: a.suppressed.Load(),
	}
}
