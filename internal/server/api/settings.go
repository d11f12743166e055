package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sort"

	"github.com/ayusman/swipectl/internal/config"
)

// SettingsStore is the persistence behind the settings endpoint.
type SettingsStore interface {
	All() (map[string]string, error)
	SetMany(values map[string]string) error
	Delete(key string) error
}

// SettingsHandler serves /api/settings. Stored values take effect on the
// next start; the running engine is not changed.
type SettingsHandler struct {
	store  SettingsStore
	base   config.GestureConfig
	logger *slog.Logger
}

// NewSettingsHandler creates a handler. base is the file and environment
// configuration, before any stored values are applied.
func NewSettingsHandler(s SettingsStore, base config.GestureConfig, logger *slog.Logger) *SettingsHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &SettingsHandler{store: s, base: base, logger: logger}
}

type settingsResponse struct {
	HorizontalThreshold float64 `json:"horizontal_threshold"`
	VerticalThreshold   float64 `json:"vertical_threshold"`
	CooldownSeconds     float64 `json:"cooldown_seconds"`
	// Stored lists the keys that override the file and default values.
	Stored []string `json:"stored"`
	// EnvPinned lists the keys held by environment variables. Stored
	// values for them are kept but do not take effect.
	EnvPinned []string `json:"env_pinned"`
}

func (h *SettingsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.get(w, r)
	case http.MethodPut:
		h.update(w, r)
	case http.MethodDelete:
		h.reset(w, r)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// effective returns base overlaid with what is stored, skipping keys the
// environment pins.
func (h *SettingsHandler) effective() (config.GestureConfig, config.Settings, error) {
	g := h.base
	stored, err := h.store.All()
	if err != nil {
		return g, config.Settings{}, err
	}
	s, err := config.ParseSettings(stored)
	if err != nil {
		return g, config.Settings{}, err
	}
	s.Without(config.EnvPinned()...).Apply(&g)
	return g, s, nil
}

func toSettingsResponse(g config.GestureConfig, stored config.Settings) settingsResponse {
	keys := make([]string, 0, 3)
	for k := range stored.Encode() {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	pinned := config.EnvPinned()
	if pinned == nil {
		pinned = []string{}
	}
	return settingsResponse{
		HorizontalThreshold: g.HorizontalThreshold,
		VerticalThreshold:   g.VerticalThreshold,
		CooldownSeconds:     g.Cooldown.Seconds(),
		Stored:              keys,
		EnvPinned:           pinned,
	}
}

func (h *SettingsHandler) get(w http.ResponseWriter, r *http.Request) {
	g, stored, err := h.effective()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load settings")
		return
	}
	writeJSON(w, http.StatusOK, toSettingsResponse(g, stored))
}

// update handles PUT with a partial object; absent fields keep their value.
func (h *SettingsHandler) update(w http.ResponseWriter, r *http.Request) {
	var req config.Settings
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}

	g, stored, err := h.effective()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load settings")
		return
	}

	candidate := g
	req.Apply(&candidate)
	if err := candidate.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	values := req.Encode()
	if len(values) == 0 {
		writeError(w, http.StatusBadRequest, "no settings given")
		return
	}
	if err := h.store.SetMany(values); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to save settings")
		return
	}

	merged := mergeSettings(stored, req)
	req.Without(config.EnvPinned()...).Apply(&g)
	h.logger.Info("settings changed", "values", values)
	writeJSON(w, http.StatusOK, toSettingsResponse(g, merged))
}

// reset handles DELETE by removing every stored override.
func (h *SettingsHandler) reset(w http.ResponseWriter, r *http.Request) {
	_, stored, err := h.effective()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load settings")
		return
	}
	for key := range stored.Encode() {
		if err := h.store.Delete(key); err != nil {
			writeError(w, http.StatusInternalServerError, "failed to reset settings")
			return
		}
	}
	h.logger.Info("settings reset")
	w.WriteHeader(http.StatusNoContent)
}

func mergeSettings(a, b config.Settings) config.Settings {
	if b.HorizontalThreshold != nil {
		a.HorizontalThreshold = b.HorizontalThreshold
	}
	if b.VerticalThreshold != nil {
		a.VerticalThreshold = b.VerticalThreshold
	}
	if b.CooldownSeconds != nil {
		a.CooldownSeconds = b.CooldownSeconds
	}
	return a
}
