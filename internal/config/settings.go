package config

import (
	"errors"
	"fmt"
	"math"
	"os"
	"sort"
	"strconv"
	"time"

	"github.com/ayusman/swipectl/internal/store"
)

// Settings are the user-editable values kept in the database. Nil fields
// are unset.
type Settings struct {
	HorizontalThreshold *float64 `json:"horizontal_threshold,omitempty"`
	VerticalThreshold   *float64 `json:"vertical_threshold,omitempty"`
	CooldownSeconds     *float64 `json:"cooldown_seconds,omitempty"`
}

// ParseSettings reads stored key/value pairs. Unknown keys are ignored.
func ParseSettings(stored map[string]string) (Settings, error) {
	var s Settings
	var errs []error

	parse := func(key string, dst **float64) {
		raw, ok := stored[key]
		if !ok {
			return
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
			errs = append(errs, fmt.Errorf("setting %s: invalid number %q", key, raw))
			return
		}
		*dst = &v
	}
	parse(store.KeyHorizontalThreshold, &s.HorizontalThreshold)
	parse(store.KeyVerticalThreshold, &s.VerticalThreshold)
	parse(store.KeyCooldownSeconds, &s.CooldownSeconds)

	return s, errors.Join(errs...)
}

// Apply overlays the set fields onto g.
func (s Settings) Apply(g *GestureConfig) {
	if s.HorizontalThreshold != nil {
		g.HorizontalThreshold = *s.HorizontalThreshold
	}
	if s.VerticalThreshold != nil {
		g.VerticalThreshold = *s.VerticalThreshold
	}
	if s.CooldownSeconds != nil {
		g.Cooldown = time.Duration(*s.CooldownSeconds * float64(time.Second))
	}
}

// Encode returns the set fields as stored key/value pairs.
func (s Settings) Encode() map[string]string {
	out := make(map[string]string)
	put := func(key string, v *float64) {
		if v != nil {
			out[key] = strconv.FormatFloat(*v, 'f', -1, 64)
		}
	}
	put(store.KeyHorizontalThreshold, s.HorizontalThreshold)
	put(store.KeyVerticalThreshold, s.VerticalThreshold)
	put(store.KeyCooldownSeconds, s.CooldownSeconds)
	return out
}

// settingEnv names the variable that overrides each stored key.
var settingEnv = map[string]string{
	store.KeyHorizontalThreshold: "SWIPECTL_HORIZONTAL_THRESHOLD",
	store.KeyVerticalThreshold:   "SWIPECTL_VERTICAL_THRESHOLD",
	store.KeyCooldownSeconds:     "SWIPECTL_COOLDOWN",
}

// EnvPinned returns the stored keys, sorted, whose values are overridden by
// the environment. Writing them has no effect until the variable is unset.
func EnvPinned() []string {
	var keys []string
	for key, name := range settingEnv {
		if _, ok := os.LookupEnv(name); ok {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)
	return keys
}

// Without returns s with the given stored keys unset.
func (s Settings) Without(keys ...string) Settings {
	for _, key := range keys {
		switch key {
		case store.KeyHorizontalThreshold:
			s.HorizontalThreshold = nil
		case store.KeyVerticalThreshold:
			s.VerticalThreshold = nil
		case store.KeyCooldownSeconds:
			s.CooldownSeconds = nil
		}
	}
	return s
}
