package source

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sync"
	"time"
)

// Tee passes observations through from a Provider and writes each one as a
// trace record, producing a file Replay can play back.
type Tee struct {
	src   Provider
	enc   *json.Encoder
	w     io.Writer
	start time.Time

	mu sync.Mutex
}

// NewTee records src to w. Record times are relative to the first frame.
func NewTee(src Provider, w io.Writer) *Tee {
	return &Tee{src: src, enc: json.NewEncoder(w), w: w}
}

func (t *Tee) Next(ctx context.Context) (Observation, error) {
	obs, err := t.src.Next(ctx)
	if err != nil {
		return obs, err
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if t.start.IsZero() {
		t.start = obs.At
	}
	rec := Record{T: obs.At.Sub(t.start).Seconds()}
	if obs.Sample != nil {
		x, y := obs.Sample.X, obs.Sample.Y
		rec.X, rec.Y = &x, &y
	} else {
		hand := false
		rec.Hand = &hand
	}
	if err := t.enc.Encode(rec); err != nil {
		return obs, fmt.Errorf("write trace: %w", err)
	}
	return obs, nil
}

// Close closes the wrapped provider and, if closable, the trace writer.
func (t *Tee) Close() error {
	err := t.src.Close()
	if c, ok := t.w.(io.Closer); ok {
		if cerr := c.Close(); err == nil {
			err = cerr
		}
	}
	return err
}
