package api

import (
	"net/http"

	"github.com/ayusman/swipectl/internal/plugin"
)

// PluginsHandler lists dispatch plugins and triggers rediscovery.
type PluginsHandler struct {
	manager *plugin.Manager
}

// NewPluginsHandler creates a PluginsHandler.
func NewPluginsHandler(m *plugin.Manager) *PluginsHandler {
	return &PluginsHandler{manager: m}
}

type pluginResponse struct {
	Name        string   `json:"name"`
	Version     string   `json:"version"`
	Description string   `json:"description,omitempty"`
	Actions     []string `json:"actions"`
	Swipe       bool     `json:"swipe"`
}

type pluginsResponse struct {
	Dir     string           `json:"dir"`
	Plugins []pluginResponse `json:"plugins"`
}

// ServeHTTP handles GET (list) and POST (rescan then list).
func (h *PluginsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
	case http.MethodPost:
		if err := h.manager.Discover(); err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	list := h.manager.List()
	resp := pluginsResponse{
		Dir:     h.manager.PluginDir(),
		Plugins: make([]pluginResponse, 0, len(list)),
	}
	for _, p := range list {
		actions := p.Manifest.Actions
		if actions == nil {
			actions = []string{}
		}
		resp.Plugins = append(resp.Plugins, pluginResponse{
			Name:        p.Manifest.Name,
			Version:     p.Manifest.Version,
			Description: p.Manifest.Description,
			Actions:     actions,
			Swipe:       p.Manifest.Supports(plugin.ActionSwipe),
		})
	}
	writeJSON(w, http.StatusOK, resp)
}
