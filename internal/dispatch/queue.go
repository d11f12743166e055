package dispatch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cenkalti/backoff/v5"

	"github.com/ayusman/swipectl/internal/gesture"
)

var (
	// ErrQueueClosed is returned by Enqueue after Close.
	ErrQueueClosed = errors.New("dispatch queue closed")
	// ErrQueueFull is returned when the buffer cannot take another event.
	ErrQueueFull = errors.New("dispatch queue full")
)

// QueueConfig controls buffering and retry of deliveries.
type QueueConfig struct {
	// Size is the number of events buffered ahead of the worker.
	Size int
	// Timeout bounds each delivery attempt.
	Timeout time.Duration
	// MaxAttempts is the total number of tries per event; 1 disables retry.
	MaxAttempts int
	// RetryInterval is the first backoff delay; it doubles per attempt.
	RetryInterval time.Duration
	// MaxRetryInterval caps the backoff delay.
	MaxRetryInterval time.Duration
	Logger           *slog.Logger
}

// DefaultQueueConfig returns the production defaults.
func DefaultQueueConfig() QueueConfig {
	return QueueConfig{
		Size:             16,
		Timeout:          5 * time.Second,
		MaxAttempts:      3,
		RetryInterval:    200 * time.Millisecond,
		MaxRetryInterval: 2 * time.Second,
	}
}

// Stats counts queue activity since start.
type Stats struct {
	Enqueued  uint64 `json:"enqueued"`
	Delivered uint64 `json:"delivered"`
	Failed    uint64 `json:"failed"`
	Dropped   uint64 `json:"dropped"`
	Retries   uint64 `json:"retries"`
}

// Queue delivers events to a Dispatcher on a background worker, in
// emission order. Delivery failures are logged and counted; they never flow
// back to the caller of Enqueue.
type Queue struct {
	dispatcher Dispatcher
	cfg        QueueConfig
	logger     *slog.Logger

	jobs   chan gesture.Event
	done   chan struct{}
	ctx    context.Context
	cancel context.CancelFunc

	mu     sync.RWMutex
	closed bool

	enqueued  atomic.Uint64
	delivered atomic.Uint64
	failed    atomic.Uint64
	dropped   atomic.Uint64
	retries   atomic.Uint64
}

// NewQueue starts a worker delivering to d.
func NewQueue(d Dispatcher, cfg QueueConfig) *Queue {
	defaults := DefaultQueueConfig()
	if cfg.Size <= 0 {
		cfg.Size = defaults.Size
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 1
	}
	if cfg.RetryInterval <= 0 {
		cfg.RetryInterval = defaults.RetryInterval
	}
	if cfg.MaxRetryInterval < cfg.RetryInterval {
		cfg.MaxRetryInterval = cfg.RetryInterval
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	ctx, cancel := context.WithCancel(context.Background())
	q := &Queue{
		dispatcher: d,
		cfg:        cfg,
		logger:     logger.With("component", "dispatch"),
		jobs:       make(chan gesture.Event, cfg.Size),
		done:       make(chan struct{}),
		ctx:        ctx,
		cancel:     cancel,
	}
	go q.run()
	return q
}

// Enqueue hands ev to the worker without blocking.
func (q *Queue) Enqueue(ev gesture.Event) error {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		return ErrQueueClosed
	}

	select {
	case q.jobs <- ev:
		q.enqueued.Add(1)
		return nil
	default:
		q.dropped.Add(1)
		q.logger.Error("dropping swipe, dispatch backlog full",
			"event_id", ev.ID, "gesture", ev.Kind.Slug(), "backlog", cap(q.jobs))
		return ErrQueueFull
	}
}

// Close stops accepting events and waits for the backlog to drain. If ctx
// expires first, in-flight delivery is cancelled and ctx's error returned.
func (q *Queue) Close(ctx context.Context) error {
	q.mu.Lock()
	if !q.closed {
		q.closed = true
		close(q.jobs)
	}
	q.mu.Unlock()

	select {
	case <-q.done:
		q.cancel()
		return nil
	case <-ctx.Done():
		q.cancel()
		<-q.done
		return ctx.Err()
	}
}

// Stats returns a snapshot of the counters.
func (q *Queue) Stats() Stats {
	return Stats{
		Enqueued:  q.enqueued.Load(),
		Delivered: q.delivered.Load(),
		Failed:    q.failed.Load(),
		Dropped:   q.dropped.Load(),
		Retries:   q.retries.Load(),
	}
}

func (q *Queue) run() {
	defer close(q.done)
	for ev := range q.jobs {
		if q.ctx.Err() != nil {
			q.failed.Add(1)
			continue
		}
		q.deliver(ev)
	}
}

func (q *Queue) deliver(ev gesture.Event) {
	log := q.logger.With("event_id", ev.ID, "gesture", ev.Kind.Slug())

	cmd, err := CommandFor(ev.Kind)
	if err != nil {
		q.failed.Add(1)
		log.Error("swipe not dispatched", "error", err)
		return
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = q.cfg.RetryInterval
	b.MaxInterval = q.cfg.MaxRetryInterval

	ctx := WithEventID(q.ctx, ev.ID)
	attempts := 0
	start := time.Now()

	_, err = backoff.Retry(ctx, func() (struct{}, error) {
		attempts++
		if attempts > 1 {
			q.retries.Add(1)
		}
		return struct{}{}, q.attempt(ctx, cmd)
	},
		backoff.WithBackOff(b),
		backoff.WithMaxTries(uint(q.cfg.MaxAttempts)),
		backoff.WithNotify(func(err error, wait time.Duration) {
			log.Warn("swipe dispatch failed, retrying", "error", err, "attempt", attempts, "wait", wait)
		}),
	)
	if err != nil {
		q.failed.Add(1)
		log.Error("swipe dispatch failed", "error", err, "attempts", attempts)
		return
	}

	q.delivered.Add(1)
	log.Debug("swipe dispatched", "attempts", attempts, "latency", time.Since(start))
}

func (q *Queue) attempt(ctx context.Context, cmd Command) error {
	if q.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, q.cfg.Timeout)
		defer cancel()
	}
	if err := q.dispatcher.Submit(ctx, cmd); err != nil {
		if errors.Is(err, ErrUnknownGesture) {
			return backoff.Permanent(err)
		}
		return fmt.Errorf("submit %s: %w", cmd.Gesture.Slug(), err)
	}
	return nil
}
