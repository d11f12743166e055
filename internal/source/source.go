// Package source turns a frame stream into per-frame wrist samples.
package source

import (
	"context"
	"errors"
	"time"

	"github.com/ayusman/swipectl/internal/gesture"
)

// ErrNoInput is returned when the frame source cannot be started.
var ErrNoInput = errors.New("no input available")

// Observation is one frame's result. A nil Sample means no hand was seen.
type Observation struct {
	Sample *gesture.Sample
	At     time.Time
}

// HandPresent reports whether the frame carried a sample.
func (o Observation) HandPresent() bool {
	return o.Sample != nil
}

// Provider yields one Observation per frame. Next blocks until the next
// frame is available and returns io.EOF once the stream has ended.
type Provider interface {
	Next(ctx context.Context) (Observation, error)
	Close() error
}
