// Package main provides an Android input plugin.
// It performs swipe commands on a device with `adb shell input swipe`.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"time"
)

// Request represents the input from the plugin executor.
type Request struct {
	Action  string          `json:"action"`
	Gesture string          `json:"gesture"`
	EventID string          `json:"event_id,omitempty"`
	Config  json.RawMessage `json:"config"`
	Params  json.RawMessage `json:"params"`
}

// Response represents the output to the plugin executor.
type Response struct {
	Success bool            `json:"success"`
	Error   string          `json:"error,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// Config comes from the manifest.
type Config struct {
	ADBPath string `json:"adb_path"`
	Serial  string `json:"serial"`
}

// SwipeParams is a drag in device pixels.
type SwipeParams struct {
	StartX     int   `json:"start_x"`
	StartY     int   `json:"start_y"`
	EndX       int   `json:"end_x"`
	EndY       int   `json:"end_y"`
	DurationMs int64 `json:"duration_ms"`
}

const runTimeout = 4 * time.Second

func main() {
	var req Request
	if err := json.NewDecoder(os.Stdin).Decode(&req); err != nil {
		writeResponse(Response{Error: fmt.Sprintf("failed to decode request: %v", err)})
		return
	}

	if err := handle(req); err != nil {
		writeResponse(Response{Error: err.Error()})
		return
	}
	writeResponse(Response{Success: true})
}

func handle(req Request) error {
	if req.Action != "swipe" {
		return fmt.Errorf("unknown action: %s", req.Action)
	}

	cfg, err := parseConfig(req.Config)
	if err != nil {
		return err
	}
	args, err := swipeArgs(cfg.Serial, req.Params)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), runTimeout)
	defer cancel()

	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, cfg.ADBPath, args...)
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return fmt.Errorf("%s %s: %w: %s", req.Gesture, strings.Join(args, " "), err, msg)
		}
		return fmt.Errorf("%s %s: %w", req.Gesture, strings.Join(args, " "), err)
	}
	return nil
}

func parseConfig(raw json.RawMessage) (Config, error) {
	cfg := Config{ADBPath: "adb"}
	if len(raw) > 0 && string(raw) != "null" {
		if err := json.Unmarshal(raw, &cfg); err != nil {
			return Config{}, fmt.Errorf("failed to parse config: %w", err)
		}
	}
	if cfg.ADBPath == "" {
		cfg.ADBPath = "adb"
	}
	if cfg.Serial == "" {
		cfg.Serial = os.Getenv("ANDROID_SERIAL")
	}
	return cfg, nil
}

// swipeArgs builds `[-s serial] shell input swipe x1 y1 x2 y2 ms`.
func swipeArgs(serial string, params json.RawMessage) ([]string, error) {
	var p SwipeParams
	if err := json.Unmarshal(params, &p); err != nil {
		return nil, fmt.Errorf("failed to parse params: %w", err)
	}
	if p.DurationMs <= 0 {
		return nil, errors.New("duration_ms must be positive")
	}

	var args []string
	if serial != "" {
		args = append(args, "-s", serial)
	}
	return append(args, "shell", "input", "swipe",
		strconv.Itoa(p.StartX), strconv.Itoa(p.StartY),
		strconv.Itoa(p.EndX), strconv.Itoa(p.EndY),
		strconv.FormatInt(p.DurationMs, 10),
	), nil
}

func writeResponse(resp Response) {
	json.NewEncoder(os.Stdout).Encode(resp)
}
