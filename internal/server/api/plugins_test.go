package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/ayusman/swipectl/internal/plugin"
)

func TestPluginsHandler(t *testing.T) {
	root := t.TempDir()
	mgr := plugin.NewManager(root, nil)
	if err := mgr.Discover(); err != nil {
		t.Fatal(err)
	}
	h := NewPluginsHandler(mgr)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/plugins", nil))
	var resp pluginsResponse
	json.NewDecoder(rec.Body).Decode(&resp)
	if len(resp.Plugins) != 0 {
		t.Fatalf("plugins = %v, want none", resp.Plugins)
	}

	// Install a plugin, then ask for a rescan.
	dir := filepath.Join(root, "adb-input")
	os.MkdirAll(dir, 0755)
	manifest := `{"name":"adb-input","version":"1.0.0","executable":"adb-input","actions":["swipe"]}`
	if err := os.WriteFile(filepath.Join(dir, plugin.ManifestFile), []byte(manifest), 0644); err != nil {
		t.Fatal(err)
	}

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/plugins", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	resp = pluginsResponse{}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	if resp.Dir != root {
		t.Errorf("dir = %q, want %q", resp.Dir, root)
	}
	if len(resp.Plugins) != 1 || resp.Plugins[0].Name != "adb-input" || !resp.Plugins[0].Swipe {
		t.Errorf("plugins = %+v", resp.Plugins)
	}

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/api/plugins", nil))
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("DELETE status = %d", rec.Code)
	}
}
