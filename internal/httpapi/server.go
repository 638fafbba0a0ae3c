// internal/httpapi/server.go

// Package httpapi exposes the chat control plane over HTTP. Turn
// submission is asynchronous; clients poll the read-only views for
// streamed progress.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	"github.com/user/aetherchat/internal/chat"
	"github.com/user/aetherchat/internal/gateway"
	"github.com/user/aetherchat/internal/telemetry"
	"github.com/user/aetherchat/internal/types"
)

// ModelLister fetches the gateway model catalog.
type ModelLister interface {
	ListModels(ctx context.Context) ([]gateway.Model, error)
}

// Server routes control-plane requests to a chat service.
type Server struct {
	chat      *chat.Service
	models    ModelLister
	telemetry *telemetry.Poller
	router    chi.Router
}

// NewServer creates the HTTP API server. models and telemetry are
// optional; their endpoints report unavailable when absent.
func NewServer(chatService *chat.Service, models ModelLister, poller *telemetry.Poller) *Server {
	s := &Server{
		chat:      chatService,
		models:    models,
		telemetry: poller,
	}

	r := chi.NewRouter()
	r.Use(RecovererMiddleware)
	r.Use(LoggingMiddleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
	}))

	r.Get("/health", s.handleHealth)
	r.Post("/api/chat", s.handleChat)
	r.Post("/api/chat/stop", s.handleStop)
	r.Get("/api/messages", s.handleMessages)
	r.Get("/api/activity", s.handleActivity)
	r.Get("/api/files", s.handleFiles)
	r.Get("/api/usage", s.handleUsage)
	r.Get("/api/tokens", s.handleTokens)
	r.Get("/api/models", s.handleModels)

	s.router = r
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"streaming": s.chat.Streaming(),
	})
}

// chatRequest is the JSON body for POST /api/chat.
type chatRequest struct {
	Message string `json:"message"`
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if req.Message == "" {
		writeError(w, http.StatusBadRequest, "message is required")
		return
	}

	if err := s.chat.Submit(r.Context(), req.Message); err != nil {
		if errors.Is(err, chat.ErrBusy) {
			writeError(w, http.StatusConflict, err.Error())
			return
		}
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "streaming"})
}

func (s *Server) handleStop(w http.ResponseWriter, r *http.Request) {
	s.chat.Stop()
	writeJSON(w, http.StatusOK, map[string]string{"status": "stopped"})
}

func (s *Server) handleMessages(w http.ResponseWriter, r *http.Request) {
	msgs := s.chat.Messages()
	if msgs == nil {
		msgs = []*types.Message{}
	}
	writeJSON(w, http.StatusOK, msgs)
}

func (s *Server) handleActivity(w http.ResponseWriter, r *http.Request) {
	events := s.chat.Activity()
	if q := r.URL.Query().Get("limit"); q != "" {
		if n, err := strconv.Atoi(q); err == nil && n > 0 && n < len(events) {
			events = events[len(events)-n:]
		}
	}
	if events == nil {
		events = []*types.ActivityEvent{}
	}
	writeJSON(w, http.StatusOK, events)
}

func (s *Server) handleFiles(w http.ResponseWriter, r *http.Request) {
	files := s.chat.GeneratedFiles()
	if files == nil {
		files = []*types.FileArtifact{}
	}
	writeJSON(w, http.StatusOK, files)
}

func (s *Server) handleUsage(w http.ResponseWriter, r *http.Request) {
	resp := map[string]any{
		"conversation": s.chat.UsageTotals(),
	}
	if s.telemetry != nil {
		snap := s.telemetry.Snapshot()
		resp["gateway"] = snap
		if snap.Err != nil {
			resp["gateway_error"] = snap.Err.Error()
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleTokens(w http.ResponseWriter, r *http.Request) {
	breakdown := s.chat.TokenBreakdown(r.URL.Query().Get("input"))
	writeJSON(w, http.StatusOK, map[string]any{
		"breakdown": breakdown,
		"used":      breakdown.Used(),
		"remaining": breakdown.Remaining(),
	})
}

func (s *Server) handleModels(w http.ResponseWriter, r *http.Request) {
	if s.models == nil {
		writeError(w, http.StatusServiceUnavailable, "model catalog not configured")
		return
	}
	models, err := s.models.ListModels(r.Context())
	if err != nil {
		slog.Error("list models failed", "error", err)
		writeError(w, http.StatusBadGateway, "model catalog unavailable")
		return
	}
	if models == nil {
		models = []gateway.Model{}
	}
	writeJSON(w, http.StatusOK, models)
}
