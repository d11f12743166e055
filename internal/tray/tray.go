// Package tray provides a system tray menu for swipectl.
package tray

import (
	"context"
	"sync"
	"time"

	"github.com/getlantern/systray"
)

// RefreshInterval is how often the last-gesture item is redrawn.
const RefreshInterval = 250 * time.Millisecond

// LabelFunc returns the text to show for the last gesture at now, or "".
type LabelFunc func(now time.Time) string

// Tray represents the system tray application.
type Tray struct {
	onToggle   func(enabled bool)
	onSettings func()
	onQuit     func()
	label      LabelFunc
	state      func() bool
	enabled    bool
	mu         sync.RWMutex

	menuToggle      *systray.MenuItem
	menuLastGesture *systray.MenuItem
	shown           string
	shownEnabled    bool
}

// New creates a new Tray. enabled is the initial detection state.
func New(enabled bool) *Tray {
	return &Tray{enabled: enabled, shownEnabled: enabled}
}

// OnToggle sets the callback called when detection is paused or resumed.
func (t *Tray) OnToggle(fn func(enabled bool)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onToggle = fn
}

// OnSettings sets the callback called when the settings menu item is clicked.
// Without one the item is hidden.
func (t *Tray) OnSettings(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onSettings = fn
}

// OnQuit sets the callback called when the quit menu item is clicked.
func (t *Tray) OnQuit(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onQuit = fn
}

// SetLabelSource sets where the last-gesture item reads its text from.
func (t *Tray) SetLabelSource(fn LabelFunc) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.label = fn
}

// SetStateSource makes the tray read detection state from fn instead of
// keeping its own copy, so changes made elsewhere show up on refresh.
func (t *Tray) SetStateSource(fn func() bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.state = fn
}

// Run starts the tray and blocks until the quit item is clicked or ctx is
// done.
// It must be called from the main goroutine.
func (t *Tray) Run(ctx context.Context) {
	ready := func() {
		t.onReady()
		go t.loop(ctx)
	}
	systray.Run(ready, func() {})
}

func (t *Tray) onReady() {
	systray.SetTitle("swipectl")
	systray.SetTooltip("swipectl hand swipe control")

	t.mu.Lock()
	t.shownEnabled = t.enabledLocked()
	t.menuToggle = systray.AddMenuItem(toggleTitle(t.shownEnabled), "Pause or resume swipe detection")
	systray.AddSeparator()
	t.menuLastGesture = systray.AddMenuItem(lastTitle(""), "Last detected swipe")
	t.menuLastGesture.Disable()
	t.mu.Unlock()
}

func (t *Tray) loop(ctx context.Context) {
	systray.AddSeparator()
	menuSettings := systray.AddMenuItem("Open Settings...", "Open settings in browser")
	t.mu.RLock()
	if t.onSettings == nil {
		menuSettings.Hide()
	}
	t.mu.RUnlock()
	systray.AddSeparator()
	menuQuit := systray.AddMenuItem("Quit", "Quit swipectl")

	ticker := time.NewTicker(RefreshInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			systray.Quit()
			return
		case now := <-ticker.C:
			t.refresh(now)
		case <-t.menuToggle.ClickedCh:
			t.handleToggle()
		case <-menuSettings.ClickedCh:
			t.handleSettings()
		case <-menuQuit.ClickedCh:
			t.handleQuit()
			return
		}
	}
}

func toggleTitle(enabled bool) string {
	if enabled {
		return "● Detecting"
	}
	return "○ Paused"
}

func lastTitle(label string) string {
	if label == "" {
		return "Last: none"
	}
	return "Last: " + label
}

// refresh redraws the toggle and last-gesture items if their text changed.
func (t *Tray) refresh(now time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if enabled := t.enabledLocked(); enabled != t.shownEnabled {
		t.shownEnabled = enabled
		if t.menuToggle != nil {
			t.menuToggle.SetTitle(toggleTitle(enabled))
		}
	}
	if t.label == nil || t.menuLastGesture == nil {
		return
	}
	text := lastTitle(t.label(now))
	if text == t.shown {
		return
	}
	t.shown = text
	t.menuLastGesture.SetTitle(text)
}

func (t *Tray) handleToggle() {
	t.mu.Lock()
	enabled := !t.enabledLocked()
	t.enabled = enabled
	t.shownEnabled = enabled
	if t.menuToggle != nil {
		t.menuToggle.SetTitle(toggleTitle(enabled))
	}
	callback := t.onToggle
	t.mu.Unlock()

	if callback != nil {
		callback(enabled)
	}
}

func (t *Tray) handleSettings() {
	t.mu.RLock()
	callback := t.onSettings
	t.mu.RUnlock()

	if callback != nil {
		callback()
	}
}

func (t *Tray) handleQuit() {
	t.mu.RLock()
	callback := t.onQuit
	t.mu.RUnlock()

	if callback != nil {
		callback()
	}

	systray.Quit()
}

// IsEnabled returns the current enabled state.
func (t *Tray) IsEnabled() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.enabledLocked()
}

func (t *Tray) enabledLocked() bool {
	if t.state != nil {
		return t.state()
	}
	return t.enabled
}
