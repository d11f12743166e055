package display

import (
	"testing"
	"time"

	"github.com/ayusman/swipectl/internal/gesture"
)

var t0 = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

func TestLast_Expiry(t *testing.T) {
	l := NewLast(2 * time.Second)

	if _, ok := l.Current(t0); ok {
		t.Fatal("expected nothing before first Set")
	}
	if got := l.Label(t0); got != "" {
		t.Errorf("Label() = %q, want empty", got)
	}

	l.Set(gesture.Event{ID: "a", Kind: gesture.SwipeLeft, At: t0})

	tests := []struct {
		name  string
		at    time.Time
		label string
	}{
		{"at emission", t0, "Swipe Left"},
		{"before ttl", t0.Add(1999 * time.Millisecond), "Swipe Left"},
		{"at ttl", t0.Add(2 * time.Second), ""},
		{"long after", t0.Add(time.Minute), ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := l.Label(tt.at); got != tt.label {
				t.Errorf("Label() = %q, want %q", got, tt.label)
			}
		})
	}

	if ev, ok := l.Current(t0); !ok || ev.ID != "a" {
		t.Errorf("Current() = %+v, %v", ev, ok)
	}
}

func TestLast_NoTTL(t *testing.T) {
	l := NewLast(0)
	l.Set(gesture.Event{Kind: gesture.SwipeUp, At: t0})

	if got := l.Label(t0.Add(24 * time.Hour)); got != "Swipe Up" {
		t.Errorf("Label() = %q, want label kept forever", got)
	}
}

func TestLast_Replace(t *testing.T) {
	l := NewLast(DefaultTTL)
	l.Set(gesture.Event{Kind: gesture.SwipeLeft, At: t0})
	l.Set(gesture.Event{Kind: gesture.SwipeDown, At: t0.Add(1500 * time.Millisecond)})

	// The TTL restarts from the newer event.
	if got := l.Label(t0.Add(3 * time.Second)); got != "Swipe Down" {
		t.Errorf("Label() = %q, want Swipe Down", got)
	}
}

func TestLast_Subscribe(t *testing.T) {
	l := NewLast(DefaultTTL)

	var order []string
	unsubA := l.Subscribe(func(ev gesture.Event) { order = append(order, "a:"+ev.ID) })
	l.Subscribe(func(ev gesture.Event) { order = append(order, "b:"+ev.ID) })

	l.Set(gesture.Event{ID: "1", Kind: gesture.SwipeRight, At: t0})
	unsubA()
	l.Set(gesture.Event{ID: "2", Kind: gesture.SwipeLeft, At: t0})

	want := []string{"a:1", "b:1", "b:2"}
	if len(order) != len(want) {
		t.Fatalf("notifications = %v, want %v", order, want)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Errorf("notification %d = %q, want %q", i, order[i], want[i])
		}
	}
}
