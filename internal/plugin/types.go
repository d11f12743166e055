// Package plugin discovers and runs external dispatch plugins.
// A plugin is an executable that reads one JSON Request on stdin and writes one
// JSON Response on stdout.
package plugin

import "encoding/json"

// ActionSwipe is the action name used for swipe commands.
const ActionSwipe = "swipe"

// Manifest describes a plugin's metadata and capabilities.
type Manifest struct {
	Name        string          `json:"name"`
	Version     string          `json:"version"`
	Description string          `json:"description"`
	Executable  string          `json:"executable"`
	Actions     []string        `json:"actions"`
	Config      json.RawMessage `json:"config,omitempty"`
}

// Supports reports whether the manifest declares the given action.
func (m Manifest) Supports(action string) bool {
	for _, a := range m.Actions {
		if a == action {
			return true
		}
	}
	return false
}

// Request is sent to a plugin on stdin.
type Request struct {
	Action  string          `json:"action"`
	Gesture string          `json:"gesture"`
	EventID string          `json:"event_id,omitempty"`
	Config  json.RawMessage `json:"config,omitempty"`
	Params  json.RawMessage `json:"params"`
}

// Response is read from a plugin's stdout.
type Response struct {
	Success bool            `json:"success"`
	Error   string          `json:"error,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// Plugin is a discovered plugin with its manifest and location.
type Plugin struct {
	Manifest   Manifest
	Path       string
	Executable string
}
