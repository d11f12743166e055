package dispatch

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/ayusman/swipectl/internal/gesture"
)

// fakeADB writes a shell script standing in for adb and returns its path and
// the file it records arguments to.
func fakeADB(t *testing.T, body string) (string, string) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("skipping shell script test on Windows")
	}

	dir := t.TempDir()
	argsFile := filepath.Join(dir, "args")
	script := "#!/bin/sh\necho \"$@\" > " + argsFile + "\n" + body
	path := filepath.Join(dir, "adb")
	if err := os.WriteFile(path, []byte(script), 0755); err != nil {
		t.Fatalf("failed to write fake adb: %v", err)
	}
	return path, argsFile
}

func TestADB_Submit(t *testing.T) {
	path, argsFile := fakeADB(t, "exit 0\n")

	cmd, _ := CommandFor(gesture.SwipeRight)
	if err := NewADB(path, "").Submit(context.Background(), cmd); err != nil {
		t.Fatalf("Submit() error = %v", err)
	}

	got, err := os.ReadFile(argsFile)
	if err != nil {
		t.Fatalf("failed to read args: %v", err)
	}
	if want := "shell input swipe 200 1200 900 1200 100"; strings.TrimSpace(string(got)) != want {
		t.Errorf("args = %q, want %q", strings.TrimSpace(string(got)), want)
	}
}

func TestADB_Submit_Serial(t *testing.T) {
	path, argsFile := fakeADB(t, "exit 0\n")

	cmd, _ := CommandFor(gesture.SwipeDown)
	if err := NewADB(path, "R58M123").Submit(context.Background(), cmd); err != nil {
		t.Fatalf("Submit() error = %v", err)
	}

	got, _ := os.ReadFile(argsFile)
	if !strings.HasPrefix(string(got), "-s R58M123 shell input swipe 540 600 540 1800") {
		t.Errorf("args = %q", got)
	}
}

func TestADB_Submit_Failure(t *testing.T) {
	path, _ := fakeADB(t, "echo 'error: no devices/emulators found' >&2\nexit 1\n")

	cmd, _ := CommandFor(gesture.SwipeLeft)
	err := NewADB(path, "").Submit(context.Background(), cmd)
	if err == nil {
		t.Fatal("expected error from failing adb")
	}
	if !strings.Contains(err.Error(), "no devices/emulators found") {
		t.Errorf("error %q does not include stderr", err)
	}
}

func TestADB_Submit_Timeout(t *testing.T) {
	path, _ := fakeADB(t, "exec sleep 10\n")

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	cmd, _ := CommandFor(gesture.SwipeUp)
	start := time.Now()
	err := NewADB(path, "").Submit(ctx, cmd)
	if err == nil || !strings.Contains(err.Error(), "timed out") {
		t.Errorf("Submit() error = %v, want timeout", err)
	}
	if elapsed := time.Since(start); elapsed > 3*time.Second {
		t.Errorf("Submit took %v after timeout", elapsed)
	}
}

func TestADB_MissingBinary(t *testing.T) {
	cmd, _ := CommandFor(gesture.SwipeUp)
	err := NewADB(filepath.Join(t.TempDir(), "missing-adb"), "").Submit(context.Background(), cmd)
	if err == nil {
		t.Fatal("expected error for missing adb binary")
	}
}

func TestNewADB_DefaultPath(t *testing.T) {
	if got := NewADB("", "").Path; got != "adb" {
		t.Errorf("Path = %q, want adb", got)
	}
}

func TestRunResult_SuccessAtDeadline(t *testing.T) {
	ctx, cancel := context.WithDeadline(context.Background(), time.Now().Add(-time.Millisecond))
	defer cancel()

	cmd, _ := CommandFor(gesture.SwipeLeft)
	if err := runResult(ctx, cmd, nil, ""); err != nil {
		t.Errorf("runResult(nil) after deadline = %v, want nil", err)
	}

	err := runResult(ctx, cmd, errors.New("signal: killed"), "")
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("runResult(killed) after deadline = %v, want deadline exceeded", err)
	}
}
