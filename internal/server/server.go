// Package server exposes the bridge over a local HTTP API so the desktop
// configurator and scripts can talk to agents without a chat channel.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/openclaw/bridge/internal/bridge"
	"github.com/openclaw/bridge/internal/config"
	"github.com/openclaw/bridge/internal/history"
	"github.com/openclaw/bridge/internal/provider"
)

// Version is reported by /health and /info.
const Version = "1.0.0"

// Handler is the message pipeline behind POST /message.
type Handler interface {
	HandleMessage(ctx context.Context, in bridge.Inbound, typing func()) (bridge.Outbound, error)
}

// Server is the bridge's HTTP API server.
type Server struct {
	watcher *config.Watcher
	store   *history.Store
	handler Handler
	mux     *http.ServeMux
	server  *http.Server
}

// New wires the API routes.
func New(watcher *config.Watcher, store *history.Store, handler Handler) *Server {
	s := &Server{
		watcher: watcher,
		store:   store,
		handler: handler,
		mux:     http.NewServeMux(),
	}
	s.registerRoutes()
	return s
}

// Start blocks serving on the configured address.
func (s *Server) Start() error {
	cfg := s.watcher.Current()
	port := cfg.Server.Port
	if port == 0 {
		port = 8787
	}
	hostname := cfg.Server.Hostname
	if hostname == "" {
		hostname = "localhost"
	}

	addr := fmt.Sprintf("%s:%d", hostname, port)
	s.server = &http.Server{
		Addr:    addr,
		Handler: s.corsMiddleware(s.mux),
	}

	slog.Info("API server listening", "addr", addr)
	return s.server.ListenAndServe()
}

// Stop gracefully stops the server.
func (s *Server) Stop() error {
	if s.server == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.server.Shutdown(ctx)
}

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("GET /health", s.handleHealth)
	s.mux.HandleFunc("GET /info", s.handleInfo)

	s.mux.HandleFunc("POST /message", s.handleMessage)
	s.mux.HandleFunc("GET /history/{id}", s.handleHistory)

	s.mux.HandleFunc("GET /agent", s.handleListAgents)
	s.mux.HandleFunc("GET /provider", s.handleListProviders)
	s.mux.HandleFunc("GET /model", s.handleListModels)
}

// Handler returns the routed handler for tests.
func (s *Server) Handler() http.Handler {
	return s.corsMiddleware(s.mux)
}

func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]string{"status": "ok", "version": Version})
}

func (s *Server) handleInfo(w http.ResponseWriter, r *http.Request) {
	cfg := s.watcher.Current()
	writeJSON(w, map[string]any{
		"name":    "openclaw-bridge",
		"version": Version,
		"agents":  cfg.AgentNames(),
	})
}

func (s *Server) handleMessage(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ConversationID string `json:"conversation_id"`
		Sender         string `json:"sender"`
		Text           string `json:"text"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		writeError(w, http.StatusBadRequest, "text is required")
		return
	}
	if req.ConversationID == "" {
		req.ConversationID = "api"
	}

	out, err := s.handler.HandleMessage(r.Context(), bridge.Inbound{
		ConversationID: req.ConversationID,
		Sender:         req.Sender,
		Text:           req.Text,
	}, nil)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, map[string]string{
		"id":    out.ID,
		"agent": out.Agent,
		"text":  out.Text,
	})
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	maxChars := 0
	if q := r.URL.Query().Get("max_chars"); q != "" {
		n, err := strconv.Atoi(q)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "max_chars must be a non-negative integer")
			return
		}
		maxChars = n
	}

	tail, err := s.store.ReadTail(id, maxChars)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, map[string]string{
		"conversation_id": id,
		"history":         tail,
	})
}

func (s *Server) handleListAgents(w http.ResponseWriter, r *http.Request) {
	cfg := s.watcher.Current()
	result := make([]map[string]string, 0)
	for _, name := range cfg.AgentNames() {
		result = append(result, map[string]string{
			"name":  name,
			"model": cfg.ModelFor(name),
		})
	}
	writeJSON(w, result)
}

func (s *Server) handleListProviders(w http.ResponseWriter, r *http.Request) {
	descriptors := provider.Descriptors()
	result := make([]map[string]any, 0, len(descriptors))
	for _, d := range descriptors {
		result = append(result, map[string]any{
			"tag":     d.Tag,
			"label":   d.Label,
			"key_url": d.KeyURL,
			"models":  len(d.Models),
		})
	}
	writeJSON(w, result)
}

func (s *Server) handleListModels(w http.ResponseWriter, r *http.Request) {
	models := map[string][]string{}
	for _, d := range provider.Descriptors() {
		models[d.Tag] = d.Models
	}
	writeJSON(w, models)
}

func writeJSON(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
