// Package display holds the most recent emitted gesture for overlays, the
// tray and the status API. Nothing here feeds back into classification.
package display

import (
	"sync"
	"time"

	"github.com/ayusman/swipectl/internal/gesture"
)

// DefaultTTL is how long a label stays visible.
const DefaultTTL = 2 * time.Second

// Last is the "last gesture, with optional expiry" holder. The label is
// replaced on every emission and disappears only once the TTL passes.
type Last struct {
	mu     sync.RWMutex
	ttl    time.Duration
	event  gesture.Event
	set    bool
	nextID int
	subs   map[int]func(gesture.Event)
}

// NewLast creates a holder. A ttl of zero keeps the label forever.
func NewLast(ttl time.Duration) *Last {
	if ttl < 0 {
		ttl = 0
	}
	return &Last{ttl: ttl, subs: make(map[int]func(gesture.Event))}
}

// Set records ev and notifies subscribers in registration order.
func (l *Last) Set(ev gesture.Event) {
	l.mu.Lock()
	l.event = ev
	l.set = true
	subs := make([]func(gesture.Event), 0, len(l.subs))
	for id := 0; id < l.nextID; id++ {
		if fn, ok := l.subs[id]; ok {
			subs = append(subs, fn)
		}
	}
	l.mu.Unlock()

	for _, fn := range subs {
		fn(ev)
	}
}

// Current returns the last event if it has not expired at now.
func (l *Last) Current(now time.Time) (gesture.Event, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if !l.set {
		return gesture.Event{}, false
	}
	if l.ttl > 0 && now.Sub(l.event.At) >= l.ttl {
		return gesture.Event{}, false
	}
	return l.event, true
}

// Label returns the display text for now, or "" when nothing is shown.
func (l *Last) Label(now time.Time) string {
	ev, ok := l.Current(now)
	if !ok {
		return ""
	}
	return ev.Kind.String()
}

// TTL returns the configured expiry.
func (l *Last) TTL() time.Duration {
	return l.ttl
}

// Subscribe registers fn for every future Set. The returned func removes it.
func (l *Last) Subscribe(fn func(gesture.Event)) (unsubscribe func()) {
	l.mu.Lock()
	defer l.mu.Unlock()

	id := l.nextID
	l.nextID++
	l.subs[id] = fn

	return func() {
		l.mu.Lock()
		defer l.mu.Unlock()
		delete(l.subs, id)
	}
}
