// Package server provides the local HTTP API of swipectl.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/ayusman/swipectl/internal/config"
	"github.com/ayusman/swipectl/internal/dispatch"
	"github.com/ayusman/swipectl/internal/gesture"
	"github.com/ayusman/swipectl/internal/plugin"
	"github.com/ayusman/swipectl/internal/server/api"
)

// StatusReporter exposes the running pipeline to the status endpoint.
type StatusReporter interface {
	Enabled() bool
	SetEnabled(enabled bool)
	LastGesture() (gesture.Event, bool)
	DispatchStats() dispatch.Stats
}

// Config holds the server configuration. Nil fields disable their routes.
type Config struct {
	Status   StatusReporter
	Settings api.SettingsStore
	// Gesture is the file and environment configuration that stored
	// settings are layered on.
	Gesture config.GestureConfig
	Plugins *plugin.Manager
	Events  *EventHub
	// StaticDir, when set, is served at /.
	StaticDir string
	Logger    *slog.Logger
}

// Server is the HTTP handler tree.
type Server struct {
	config Config
	mux    *http.ServeMux
	start  time.Time
	logger *slog.Logger
	http   *http.Server
}

// New creates a new Server with the given configuration.
func New(config Config) *Server {
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		config: config,
		mux:    http.NewServeMux(),
		start:  time.Now(),
		logger: logger.With("component", "server"),
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.mux.HandleFunc("/api/health", s.handleHealth)

	if s.config.Status != nil {
		s.mux.HandleFunc("/api/status", s.handleStatus)
	}
	if s.config.Settings != nil {
		s.mux.Handle("/api/settings", api.NewSettingsHandler(s.config.Settings, s.config.Gesture, s.logger))
	}
	if s.config.Plugins != nil {
		s.mux.Handle("/api/plugins", api.NewPluginsHandler(s.config.Plugins))
	}
	if s.config.Events != nil {
		s.mux.Handle("/api/events", s.config.Events)
	}
	if s.config.StaticDir != "" {
		s.mux.Handle("/", http.FileServer(http.Dir(s.config.StaticDir)))
	}
}

// ServeHTTP implements the http.Handler interface.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
	}
}

// handleHealth handles GET requests to /api/health.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"status": "ok",
		"uptime": time.Since(s.start).String(),
	})
}

type statusResponse struct {
	Enabled       bool           `json:"enabled"`
	LastGesture   *gesture.Kind  `json:"last_gesture"`
	LastEventID   string         `json:"last_event_id,omitempty"`
	LastGestureAt *time.Time     `json:"last_gesture_at"`
	Dispatch      dispatch.Stats `json:"dispatch"`
	FeedClients   int            `json:"feed_clients"`
}

type statusRequest struct {
	Enabled *bool `json:"enabled"`
}

// handleStatus reports pipeline state on GET and pauses or resumes on PUT.
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
	case http.MethodPut:
		var req statusRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Enabled == nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "expected {\"enabled\": bool}"})
			return
		}
		s.config.Status.SetEnabled(*req.Enabled)
		s.logger.Info("detection toggled", "enabled", *req.Enabled)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	st := s.config.Status
	resp := statusResponse{
		Enabled:  st.Enabled(),
		Dispatch: st.DispatchStats(),
	}
	if ev, ok := st.LastGesture(); ok {
		kind, at := ev.Kind, ev.At
		resp.LastGesture = &kind
		resp.LastEventID = ev.ID
		resp.LastGestureAt = &at
	}
	if s.config.Events != nil {
		resp.FeedClients = s.config.Events.ClientCount()
	}
	writeJSON(w, http.StatusOK, resp)
}

// Run serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	s.http = &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http server listening", "addr", addr)
		errCh <- s.http.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.http.Shutdown(shutdownCtx); err != nil {
			return err
		}
		<-errCh
		return nil
	}
}
