package dispatch

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/ayusman/swipectl/internal/gesture"
)

func testQueueConfig() QueueConfig {
	return QueueConfig{
		Size:             8,
		Timeout:          time.Second,
		MaxAttempts:      3,
		RetryInterval:    time.Millisecond,
		MaxRetryInterval: 5 * time.Millisecond,
	}
}

func event(id string, kind gesture.Kind) gesture.Event {
	return gesture.Event{ID: id, Kind: kind, At: time.Now()}
}

func closeQueue(t *testing.T, q *Queue) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := q.Close(ctx); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
}

func TestQueue_DeliversInOrder(t *testing.T) {
	rec := &Recorder{}
	q := NewQueue(rec, testQueueConfig())

	kinds := []gesture.Kind{gesture.SwipeLeft, gesture.SwipeUp, gesture.SwipeRight, gesture.SwipeDown}
	for i, k := range kinds {
		if err := q.Enqueue(event(fmt.Sprintf("e%d", i), k)); err != nil {
			t.Fatalf("Enqueue() error = %v", err)
		}
	}
	closeQueue(t, q)

	cmds := rec.Commands()
	if len(cmds) != len(kinds) {
		t.Fatalf("delivered %d commands, want %d", len(cmds), len(kinds))
	}
	for i, k := range kinds {
		if cmds[i].Gesture != k {
			t.Errorf("command %d = %v, want %v", i, cmds[i].Gesture, k)
		}
	}

	stats := q.Stats()
	if stats.Enqueued != 4 || stats.Delivered != 4 || stats.Failed != 0 {
		t.Errorf("stats = %+v", stats)
	}
}

func TestQueue_RetriesThenSucceeds(t *testing.T) {
	rec := &Recorder{}
	rec.Fail(errors.New("device offline"), errors.New("device offline"))

	q := NewQueue(rec, testQueueConfig())
	if err := q.Enqueue(event("e1", gesture.SwipeRight)); err != nil {
		t.Fatalf("Enqueue() error = %v", err)
	}
	closeQueue(t, q)

	if rec.Calls() != 3 {
		t.Errorf("calls = %d, want 3", rec.Calls())
	}
	if len(rec.Commands()) != 1 {
		t.Errorf("delivered %d, want 1", len(rec.Commands()))
	}

	stats := q.Stats()
	if stats.Delivered != 1 || stats.Retries != 2 {
		t.Errorf("stats = %+v, want 1 delivered and 2 retries", stats)
	}
}

func TestQueue_GivesUpAfterMaxAttempts(t *testing.T) {
	rec := &Recorder{}
	rec.Fail(errors.New("boom"), errors.New("boom"), errors.New("boom"))

	q := NewQueue(rec, testQueueConfig())
	q.Enqueue(event("e1", gesture.SwipeLeft))
	q.Enqueue(event("e2", gesture.SwipeDown))
	closeQueue(t, q)

	// First event exhausts its three attempts, the second still goes through.
	if rec.Calls() != 4 {
		t.Errorf("calls = %d, want 4", rec.Calls())
	}
	cmds := rec.Commands()
	if len(cmds) != 1 || cmds[0].Gesture != gesture.SwipeDown {
		t.Errorf("commands = %v, want only swipe-down", cmds)
	}

	stats := q.Stats()
	if stats.Failed != 1 || stats.Delivered != 1 {
		t.Errorf("stats = %+v", stats)
	}
}

func TestQueue_NoRetryWithSingleAttempt(t *testing.T) {
	rec := &Recorder{}
	rec.Fail(errors.New("boom"))

	cfg := testQueueConfig()
	cfg.MaxAttempts = 1
	q := NewQueue(rec, cfg)
	q.Enqueue(event("e1", gesture.SwipeUp))
	closeQueue(t, q)

	if rec.Calls() != 1 {
		t.Errorf("calls = %d, want 1", rec.Calls())
	}
}

func TestQueue_EnqueueNeverBlocks(t *testing.T) {
	release := make(chan struct{})
	blocking := Func(func(ctx context.Context, cmd Command) error {
		select {
		case <-release:
		case <-ctx.Done():
		}
		return nil
	})

	cfg := testQueueConfig()
	cfg.Size = 1
	cfg.Timeout = 0
	q := NewQueue(blocking, cfg)

	// One event in flight, one buffered, the rest must be dropped immediately.
	var fullErrs int
	start := time.Now()
	for i := 0; i < 5; i++ {
		if err := q.Enqueue(event(fmt.Sprintf("e%d", i), gesture.SwipeLeft)); errors.Is(err, ErrQueueFull) {
			fullErrs++
		}
		time.Sleep(5 * time.Millisecond)
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("Enqueue blocked for %v", elapsed)
	}
	if fullErrs < 3 {
		t.Errorf("expected at least 3 dropped events, got %d", fullErrs)
	}

	close(release)
	closeQueue(t, q)

	if q.Stats().Dropped != uint64(fullErrs) {
		t.Errorf("dropped = %d, want %d", q.Stats().Dropped, fullErrs)
	}
}

func TestQueue_EnqueueAfterClose(t *testing.T) {
	q := NewQueue(&Recorder{}, testQueueConfig())
	closeQueue(t, q)

	if err := q.Enqueue(event("late", gesture.SwipeUp)); !errors.Is(err, ErrQueueClosed) {
		t.Errorf("Enqueue() after close = %v, want ErrQueueClosed", err)
	}
	// Closing twice is harmless.
	closeQueue(t, q)
}

func TestQueue_CloseDeadlineCancelsDelivery(t *testing.T) {
	var once sync.Once
	started := make(chan struct{})
	stuck := Func(func(ctx context.Context, cmd Command) error {
		once.Do(func() { close(started) })
		<-ctx.Done()
		return ctx.Err()
	})

	cfg := testQueueConfig()
	cfg.Timeout = 0
	cfg.MaxAttempts = 1
	q := NewQueue(stuck, cfg)
	q.Enqueue(event("e1", gesture.SwipeLeft))
	<-started

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if err := q.Close(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Close() error = %v, want deadline exceeded", err)
	}
	if q.Stats().Failed != 1 {
		t.Errorf("failed = %d, want 1", q.Stats().Failed)
	}
}

func TestQueue_AttemptTimeout(t *testing.T) {
	slow := Func(func(ctx context.Context, cmd Command) error {
		<-ctx.Done()
		return ctx.Err()
	})

	cfg := testQueueConfig()
	cfg.Timeout = 10 * time.Millisecond
	cfg.MaxAttempts = 2
	q := NewQueue(slow, cfg)
	q.Enqueue(event("e1", gesture.SwipeDown))
	closeQueue(t, q)

	stats := q.Stats()
	if stats.Failed != 1 || stats.Retries != 1 {
		t.Errorf("stats = %+v, want 1 failed after 1 retry", stats)
	}
}

func TestQueue_UnknownGestureNotRetried(t *testing.T) {
	rec := &Recorder{}
	q := NewQueue(rec, testQueueConfig())
	q.Enqueue(event("bad", gesture.Kind(0)))
	closeQueue(t, q)

	if rec.Calls() != 0 {
		t.Errorf("calls = %d, want 0", rec.Calls())
	}
	if q.Stats().Failed != 1 {
		t.Errorf("failed = %d, want 1", q.Stats().Failed)
	}
}

func TestQueue_PassesEventID(t *testing.T) {
	var got string
	d := Func(func(ctx context.Context, cmd Command) error {
		got = EventIDFrom(ctx)
		return nil
	})

	q := NewQueue(d, testQueueConfig())
	q.Enqueue(event("evt-42", gesture.SwipeUp))
	closeQueue(t, q)

	if got != "evt-42" {
		t.Errorf("event id = %q, want evt-42", got)
	}
}
