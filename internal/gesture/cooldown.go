package gesture

import "time"

// DefaultCooldown is the minimum interval between two emitted swipes.
const DefaultCooldown = time.Second

// Cooldown gates emission on wall-clock time since the last emitted swipe.
type Cooldown struct {
	interval time.Duration
	last     time.Time
	emitted  bool
}

// NewCooldown creates a gate that admits one emission per interval.
func NewCooldown(interval time.Duration) *Cooldown {
	if interval < 0 {
		interval = 0
	}
	return &Cooldown{interval: interval}
}

// Ready reports whether an emission at now would be admitted.
// The elapsed time must strictly exceed the interval.
func (c *Cooldown) Ready(now time.Time) bool {
	if !c.emitted {
		return true
	}
	return now.Sub(c.last) > c.interval
}

// TryEmit records an emission at now when the gate is open.
func (c *Cooldown) TryEmit(now time.Time) bool {
	if !c.Ready(now) {
		return false
	}
	c.last = now
	c.emitted = true
	return true
}

// LastEmit returns the time of the last admitted emission.
func (c *Cooldown) LastEmit() (time.Time, bool) {
	return c.last, c.emitted
}

// Interval returns the configured cooldown.
func (c *Cooldown) Interval() time.Duration {
	return c.interval
}
