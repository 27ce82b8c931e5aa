// Package server exposes the chat flow over a small JSON HTTP API.
//
// Information Hiding:
// - Route table and request decoding
// - Error to status mapping
// - Middleware order (recovery, logging, rate limiting)

package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/richinex/genlo/flow"
	"github.com/richinex/genlo/handler"
	"github.com/richinex/genlo/internal/errx"
	"github.com/richinex/genlo/internal/logx"
	"github.com/richinex/genlo/model"
	"github.com/richinex/genlo/session"
)

// maxBodyBytes bounds request bodies, which may carry data URI images.
const maxBodyBytes = 25 << 20

// Sessions is the session layer the server drives.
type Sessions interface {
	Process(ctx context.Context, id string, req flow.Request) model.Envelope
	History(ctx context.Context, id string) ([]model.Turn, error)
	Clear(ctx context.Context, id string) error
}

var _ Sessions = (*session.Manager)(nil)

// Config configures the HTTP server.
type Config struct {
	Addr               string
	RateLimitPerMinute int
	RateLimitBurst     int
	// WriteTimeout should exceed the provider timeout.
	WriteTimeout time.Duration
}

// Server is the HTTP front end of the chat flow.
type Server struct {
	sessions Sessions
	cfg      Config
	router   *http.ServeMux
	handler  http.Handler
	server   *http.Server
}

// New creates a server with routes and middleware installed.
func New(sessions Sessions, cfg Config) *Server {
	if cfg.Addr == "" {
		cfg.Addr = "127.0.0.1:8080"
	}
	if cfg.WriteTimeout == 0 {
		cfg.WriteTimeout = 2 * time.Minute
	}
	s := &Server{sessions: sessions, cfg: cfg, router: http.NewServeMux()}
	s.setupRoutes()
	s.handler = Chain(
		RecoveryMiddleware(),
		LoggingMiddleware(),
		RateLimitMiddleware(NewRateLimiter(cfg.RateLimitPerMinute, cfg.RateLimitBurst)),
	)(s.router)
	return s
}

func (s *Server) setupRoutes() {
	s.router.HandleFunc("POST /api/chat", s.handleChat)
	s.router.HandleFunc("GET /api/chat/{id}", s.handleHistory)
	s.router.HandleFunc("DELETE /api/chat/{id}", s.handleClear)
	s.router.HandleFunc("GET /health", s.handleHealth)
}

// Handler returns the full middleware-wrapped handler.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Start listens on the configured address until Shutdown.
func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      s.cfg.WriteTimeout,
		IdleTimeout:       120 * time.Second,
	}
	logx.Info().Str("addr", s.cfg.Addr).Msg("server starting")
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("listen: %w", err)
	}
	return nil
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	logx.Info().Msg("server shutting down")
	return s.server.Shutdown(ctx)
}

// ChatRequest is the body of POST /api/chat.
type ChatRequest struct {
	SessionID         string                     `json:"session_id,omitempty"`
	Message           string                     `json:"message"`
	ReferenceImageURL string                     `json:"reference_image_url,omitempty"`
	WebSearch         *bool                      `json:"web_search,omitempty"`
	WebSearchOptions  *handler.WebSearchOptions  `json:"web_search_options,omitempty"`
	FileSearch        *bool                      `json:"file_search,omitempty"`
	FileSearchOptions *handler.FileSearchOptions `json:"file_search_options,omitempty"`
	History           []model.Turn               `json:"history,omitempty"`
}

// ChatResponse is the envelope plus the session it belongs to.
type ChatResponse struct {
	SessionID string `json:"session_id"`
	model.Envelope
}

// HistoryResponse is the body of GET /api/chat/{id}.
type HistoryResponse struct {
	SessionID string       `json:"session_id"`
	History   []model.Turn `json:"history"`
}

type errorBody struct {
	Error string `json:"error"`
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	var req ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, errx.BadRequest("invalid JSON body: "+err.Error()))
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		writeError(w, errx.BadRequest("message is required"))
		return
	}
	if req.SessionID == "" {
		req.SessionID = session.NewID()
	}

	env := s.sessions.Process(r.Context(), req.SessionID, flow.Request{
		Message:           req.Message,
		ReferenceImageURL: req.ReferenceImageURL,
		WebSearchOptions:  req.WebSearchOptions,
		FileSearchOptions: req.FileSearchOptions,
		History:           req.History,
		WebSearch:         req.WebSearch,
		FileSearch:        req.FileSearch,
	})
	writeJSON(w, http.StatusOK, ChatResponse{SessionID: req.SessionID, Envelope: env})
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	history, err := s.sessions.History(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, HistoryResponse{SessionID: id, History: history})
}

func (s *Server) handleClear(w http.ResponseWriter, r *http.Request) {
	if err := s.sessions.Clear(r.Context(), r.PathValue("id")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logx.Warn().Err(err).Msg("failed to write response")
	}
}

func writeError(w http.ResponseWriter, err error) {
	status := errx.StatusOf(err)
	msg := http.StatusText(status)
	var appErr *errx.AppError
	if errors.As(err, &appErr) && appErr.Message != "" {
		msg = appErr.Message
	}
	if status >= 500 {
		logx.Error().Err(err).Int("status", status).Msg("request failed")
	}
	writeJSON(w, status, errorBody{Error: msg})
}
