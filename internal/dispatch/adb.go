package dispatch

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

// ADB sends swipes with `adb shell input swipe`.
type ADB struct {
	// Path is the adb binary, "adb" when empty.
	Path string
	// Serial selects a device when several are attached.
	Serial string
}

// NewADB creates an ADB dispatcher.
func NewADB(path, serial string) *ADB {
	if path == "" {
		path = "adb"
	}
	return &ADB{Path: path, Serial: serial}
}

// Submit runs adb and returns its stderr on failure. The caller's context
// bounds the call.
func (a *ADB) Submit(ctx context.Context, cmd Command) error {
	c := exec.CommandContext(ctx, a.Path, cmd.ADBArgs(a.Serial)...)
	c.WaitDelay = time.Second

	var stderr bytes.Buffer
	c.Stderr = &stderr

	err := c.Run()
	return runResult(ctx, cmd, err, stderr.String())
}

// runResult maps the outcome of one adb run to an error. A run that exited
// cleanly is a success even if the deadline passed while it was exiting.
func runResult(ctx context.Context, cmd Command, err error, stderr string) error {
	if err == nil {
		return nil
	}
	if ctxErr := ctx.Err(); errors.Is(ctxErr, context.DeadlineExceeded) {
		return fmt.Errorf("adb %s timed out: %w", cmd.Gesture.Slug(), ctxErr)
	}
	if msg := strings.TrimSpace(stderr); msg != "" {
		return fmt.Errorf("adb %s: %w: %s", cmd.Gesture.Slug(), err, msg)
	}
	return fmt.Errorf("adb %s: %w", cmd.Gesture.Slug(), err)
}
