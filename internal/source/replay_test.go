package source

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

var base = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func TestReplay_Next(t *testing.T) {
	trace := `{"t":0,"x":0.5,"y":0.5}
{"t":0.1,"x":0.65,"y":0.5}

{"t":0.2,"hand":false}
{"t":0.3}
`
	r := NewReplay(strings.NewReader(trace), ReplayOptions{Base: base})
	ctx := context.Background()

	tests := []struct {
		hand   bool
		x, y   float64
		offset time.Duration
	}{
		{true, 0.5, 0.5, 0},
		{true, 0.65, 0.5, 100 * time.Millisecond},
		{false, 0, 0, 200 * time.Millisecond},
		{false, 0, 0, 300 * time.Millisecond},
	}

	for i, tt := range tests {
		obs, err := r.Next(ctx)
		if err != nil {
			t.Fatalf("record %d: Next() error = %v", i, err)
		}
		if obs.HandPresent() != tt.hand {
			t.Fatalf("record %d: hand = %v, want %v", i, obs.HandPresent(), tt.hand)
		}
		if tt.hand && (obs.Sample.X != tt.x || obs.Sample.Y != tt.y) {
			t.Errorf("record %d: sample = %+v", i, *obs.Sample)
		}
		if want := base.Add(tt.offset); !obs.At.Equal(want) {
			t.Errorf("record %d: At = %v, want %v", i, obs.At, want)
		}
	}

	if _, err := r.Next(ctx); !errors.Is(err, io.EOF) {
		t.Errorf("Next() at end = %v, want io.EOF", err)
	}
}

func TestReplay_Malformed(t *testing.T) {
	r := NewReplay(strings.NewReader("{\"t\":0,\"x\":0.1,\"y\":0.1}\nnot json\n"), ReplayOptions{Base: base})

	if _, err := r.Next(context.Background()); err != nil {
		t.Fatalf("first record: %v", err)
	}
	_, err := r.Next(context.Background())
	if err == nil || !strings.Contains(err.Error(), "line 2") {
		t.Errorf("Next() error = %v, want line 2 parse error", err)
	}
}

func TestReplay_CancelledContext(t *testing.T) {
	r := NewReplay(strings.NewReader(`{"t":0,"x":0.1,"y":0.1}`), ReplayOptions{Base: base})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := r.Next(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("Next() error = %v, want context.Canceled", err)
	}
}

func TestReplay_Pace(t *testing.T) {
	trace := "{\"t\":0,\"x\":0.1,\"y\":0.1}\n{\"t\":0.05,\"x\":0.2,\"y\":0.1}\n"
	r := NewReplay(strings.NewReader(trace), ReplayOptions{Base: base, Pace: true})

	start := time.Now()
	for i := 0; i < 2; i++ {
		if _, err := r.Next(context.Background()); err != nil {
			t.Fatalf("Next() error = %v", err)
		}
	}
	if elapsed := time.Since(start); elapsed < 40*time.Millisecond {
		t.Errorf("paced replay finished in %v, want >= 50ms", elapsed)
	}
}

func TestReplay_PaceInterrupted(t *testing.T) {
	trace := "{\"t\":10,\"x\":0.1,\"y\":0.1}\n"
	r := NewReplay(strings.NewReader(trace), ReplayOptions{Pace: true})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if _, err := r.Next(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Next() error = %v, want deadline exceeded", err)
	}
}

func TestOpenReplay(t *testing.T) {
	if _, err := OpenReplay(filepath.Join(t.TempDir(), "missing.jsonl"), ReplayOptions{}); !errors.Is(err, ErrNoInput) {
		t.Errorf("OpenReplay() error = %v, want ErrNoInput", err)
	}

	path := filepath.Join(t.TempDir(), "trace.jsonl")
	if err := os.WriteFile(path, []byte(`{"t":0,"hand":false}`+"\n"), 0644); err != nil {
		t.Fatal(err)
	}
	r, err := OpenReplay(path, ReplayOptions{Base: base})
	if err != nil {
		t.Fatalf("OpenReplay() error = %v", err)
	}
	defer r.Close()

	obs, err := r.Next(context.Background())
	if err != nil || obs.HandPresent() {
		t.Errorf("Next() = %+v, %v; want empty frame", obs, err)
	}
}
