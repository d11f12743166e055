package source

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/ayusman/swipectl/internal/gesture"
)

// Record is one line of a JSONL trace. T is seconds from the trace start.
// A record with hand=false, or without coordinates, is a frame with no hand.
type Record struct {
	T    float64  `json:"t"`
	X    *float64 `json:"x,omitempty"`
	Y    *float64 `json:"y,omitempty"`
	Hand *bool    `json:"hand,omitempty"`
}

func (r Record) sample() *gesture.Sample {
	if r.Hand != nil && !*r.Hand {
		return nil
	}
	if r.X == nil || r.Y == nil {
		return nil
	}
	return &gesture.Sample{X: *r.X, Y: *r.Y}
}

// ReplayOptions control trace playback.
type ReplayOptions struct {
	// Base is the wall time of t=0; time.Now when zero.
	Base time.Time
	// Pace sleeps between records so playback runs in real time.
	Pace bool
}

// Replay plays a recorded JSONL trace of wrist positions.
type Replay struct {
	scanner *bufio.Scanner
	closer  io.Closer
	opts    ReplayOptions
	started time.Time
	line    int
}

// NewReplay reads records from r.
func NewReplay(r io.Reader, opts ReplayOptions) *Replay {
	if opts.Base.IsZero() {
		opts.Base = time.Now()
	}
	rp := &Replay{
		scanner: bufio.NewScanner(r),
		opts:    opts,
		started: time.Now(),
	}
	if c, ok := r.(io.Closer); ok {
		rp.closer = c
	}
	return rp
}

// OpenReplay opens a trace file. A missing or unreadable file is ErrNoInput.
func OpenReplay(path string, opts ReplayOptions) (*Replay, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNoInput, err)
	}
	return NewReplay(f, opts), nil
}

// Next returns the next record. Blank lines are skipped; malformed lines
// are an error.
func (r *Replay) Next(ctx context.Context) (Observation, error) {
	for r.scanner.Scan() {
		r.line++
		text := r.scanner.Bytes()
		if len(bytes.TrimSpace(text)) == 0 {
			continue
		}

		var rec Record
		if err := json.Unmarshal(text, &rec); err != nil {
			return Observation{}, fmt.Errorf("trace line %d: %w", r.line, err)
		}

		offset := time.Duration(rec.T * float64(time.Second))
		if r.opts.Pace {
			if err := r.wait(ctx, offset); err != nil {
				return Observation{}, err
			}
		} else if err := ctx.Err(); err != nil {
			return Observation{}, err
		}

		return Observation{Sample: rec.sample(), At: r.opts.Base.Add(offset)}, nil
	}
	if err := r.scanner.Err(); err != nil {
		return Observation{}, fmt.Errorf("read trace: %w", err)
	}
	return Observation{}, io.EOF
}

func (r *Replay) wait(ctx context.Context, offset time.Duration) error {
	delay := time.Until(r.started.Add(offset))
	if delay <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Close closes the underlying reader if it is closable.
func (r *Replay) Close() error {
	if r.closer == nil {
		return nil
	}
	return r.closer.Close()
}
