package plugin

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"
)

// writeScriptPlugin creates an executable shell plugin in a temp dir.
func writeScriptPlugin(t *testing.T, name, script string) *Plugin {
	t.Helper()

	if runtime.GOOS == "windows" {
		t.Skip("skipping shell plugin test on Windows")
	}

	dir := t.TempDir()
	scriptPath := filepath.Join(dir, name+".sh")
	if err := os.WriteFile(scriptPath, []byte(script), 0755); err != nil {
		t.Fatalf("failed to write script: %v", err)
	}

	return &Plugin{
		Manifest: Manifest{
			Name:       name,
			Version:    "1.0.0",
			Executable: name + ".sh",
			Actions:    []string{ActionSwipe},
		},
		Path:       dir,
		Executable: scriptPath,
	}
}

func TestExecutor_Execute(t *testing.T) {
	p := writeScriptPlugin(t, "ok-plugin", `#!/bin/sh
cat <<'EOF'
{"success":true,"data":{"message":"swiped"}}
EOF
`)

	req := &Request{
		Action:  ActionSwipe,
		Gesture: "swipe-left",
		Params:  json.RawMessage(`{"start_x":900,"start_y":1200,"end_x":200,"end_y":1200,"duration_ms":100}`),
	}

	resp, err := NewExecutor(5 * time.Second).Execute(context.Background(), p, req)
	if err != nil {
		t.Fatalf("Execute() failed: %v", err)
	}

	if !resp.Success {
		t.Errorf("expected success=true, got false")
	}
	if resp.Error != "" {
		t.Errorf("expected empty error, got %q", resp.Error)
	}

	var data map[string]any
	if err := json.Unmarshal(resp.Data, &data); err != nil {
		t.Fatalf("failed to unmarshal response data: %v", err)
	}
	if data["message"] != "swiped" {
		t.Errorf("expected message 'swiped', got %v", data["message"])
	}
}

func TestExecutor_Execute_ReadsStdin(t *testing.T) {
	p := writeScriptPlugin(t, "echo-plugin", `#!/bin/sh
INPUT=$(cat)
echo "{\"success\":true,\"data\":{\"received\":$INPUT}}"
`)

	req := &Request{
		Action:  ActionSwipe,
		Gesture: "swipe-up",
		EventID: "evt-1",
		Params:  json.RawMessage(`{"start_x":540}`),
	}

	resp, err := NewExecutor(5*time.Second).Execute(context.Background(), p, req)
	if err != nil {
		t.Fatalf("Execute() failed: %v", err)
	}

	var data struct {
		Received Request `json:"received"`
	}
	if err := json.Unmarshal(resp.Data, &data); err != nil {
		t.Fatalf("failed to unmarshal response data: %v", err)
	}

	if data.Received.Action != ActionSwipe {
		t.Errorf("action = %q, want %q", data.Received.Action, ActionSwipe)
	}
	if data.Received.Gesture != "swipe-up" {
		t.Errorf("gesture = %q, want swipe-up", data.Received.Gesture)
	}
	if data.Received.EventID != "evt-1" {
		t.Errorf("event_id = %q, want evt-1", data.Received.EventID)
	}
}

func TestExecutor_Timeout(t *testing.T) {
	p := writeScriptPlugin(t, "slow-plugin", `#!/bin/sh
exec sleep 10
`)

	start := time.Now()
	_, err := NewExecutor(100*time.Millisecond).Execute(context.Background(), p, &Request{Action: ActionSwipe})
	if err == nil {
		t.Fatal("expected timeout error, got nil")
	}
	if !strings.Contains(err.Error(), "timed out") {
		t.Errorf("expected timeout error, got: %v", err)
	}
	if elapsed := time.Since(start); elapsed > 5*time.Second {
		t.Errorf("timeout took %v", elapsed)
	}
}

func TestExecutor_ContextCancelled(t *testing.T) {
	p := writeScriptPlugin(t, "slow-plugin", `#!/bin/sh
exec sleep 10
`)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := NewExecutor(0).Execute(ctx, p, &Request{Action: ActionSwipe}); err == nil {
		t.Fatal("expected error for cancelled context")
	}
}

func TestExecutor_Execute_ErrorResponse(t *testing.T) {
	p := writeScriptPlugin(t, "error-plugin", `#!/bin/sh
echo '{"success":false,"error":"device offline"}'
`)

	resp, err := NewExecutor(5*time.Second).Execute(context.Background(), p, &Request{Action: ActionSwipe})
	if err != nil {
		t.Fatalf("Execute() failed: %v", err)
	}
	if resp.Success {
		t.Errorf("expected success=false, got true")
	}
	if resp.Error != "device offline" {
		t.Errorf("expected error 'device offline', got %q", resp.Error)
	}
}

func TestExecutor_Execute_InvalidJSON(t *testing.T) {
	p := writeScriptPlugin(t, "bad-plugin", `#!/bin/sh
echo 'not valid json'
`)

	if _, err := NewExecutor(5*time.Second).Execute(context.Background(), p, &Request{Action: ActionSwipe}); err == nil {
		t.Fatal("expected error for invalid JSON, got nil")
	}
}

func TestExecutor_Execute_NonZeroExit(t *testing.T) {
	p := writeScriptPlugin(t, "exit-plugin", `#!/bin/sh
echo "error: no devices/emulators found" >&2
exit 1
`)

	_, err := NewExecutor(5*time.Second).Execute(context.Background(), p, &Request{Action: ActionSwipe})
	if err == nil {
		t.Fatal("expected error for non-zero exit, got nil")
	}
	if !strings.Contains(err.Error(), "no devices") {
		t.Errorf("expected stderr in error, got: %v", err)
	}
}
