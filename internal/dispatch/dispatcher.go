package dispatch

import (
	"context"
	"log/slog"
	"sync"
)

// Dispatcher delivers one command to the device.
type Dispatcher interface {
	Submit(ctx context.Context, cmd Command) error
}

// Func adapts a function to the Dispatcher interface.
type Func func(ctx context.Context, cmd Command) error

// Submit calls f.
func (f Func) Submit(ctx context.Context, cmd Command) error {
	return f(ctx, cmd)
}

// Log is a dry-run dispatcher that only logs commands.
type Log struct {
	Logger *slog.Logger
}

// Submit logs cmd.
func (l Log) Submit(_ context.Context, cmd Command) error {
	logger := l.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.Info("dry-run swipe",
		"gesture", cmd.Gesture.Slug(),
		"start_x", cmd.StartX, "start_y", cmd.StartY,
		"end_x", cmd.EndX, "end_y", cmd.EndY,
		"duration_ms", cmd.Duration.Milliseconds(),
	)
	return nil
}

// Recorder keeps every submitted command. Failures can be scripted with Fail.
type Recorder struct {
	mu       sync.Mutex
	commands []Command
	calls    int
	failures []error
}

// Fail queues errors returned by the next Submit calls, in order.
func (r *Recorder) Fail(errs ...error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failures = append(r.failures, errs...)
}

// Submit records cmd unless a scripted failure is pending.
func (r *Recorder) Submit(_ context.Context, cmd Command) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.calls++
	if len(r.failures) > 0 {
		err := r.failures[0]
		r.failures = r.failures[1:]
		if err != nil {
			return err
		}
	}
	r.commands = append(r.commands, cmd)
	return nil
}

// Commands returns the successfully submitted commands.
func (r *Recorder) Commands() []Command {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Command, len(r.commands))
	copy(out, r.commands)
	return out
}

// Calls returns the number of Submit calls, including failed ones.
func (r *Recorder) Calls() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls
}
