package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"copilotmcp/internal/copilot"
	"copilotmcp/internal/mcp"
	"copilotmcp/internal/session"
)

// Server provides the REST API handlers. It mirrors the MCP tool surface
// for callers that prefer plain HTTP.
type Server struct {
	exec     mcp.Executor
	catalog  mcp.Discoverer
	probe    mcp.Prober
	sessions *session.Store
	log      *slog.Logger
}

// NewServer creates a new API server.
func NewServer(exec mcp.Executor, catalog mcp.Discoverer, probe mcp.Prober, sessions *session.Store, log *slog.Logger) *Server {
	if log == nil {
		log = slog.Default()
	}
	return &Server{
		exec:     exec,
		catalog:  catalog,
		probe:    probe,
		sessions: sessions,
		log:      log,
	}
}

// Router returns an http.Handler for the API routes.
func (s *Server) Router() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/v1/execute", s.execute)
	mux.HandleFunc("GET /api/v1/models", s.listModels)
	mux.HandleFunc("GET /api/v1/sessions", s.listSessions)
	mux.HandleFunc("POST /api/v1/sessions", s.createSession)
	mux.HandleFunc("GET /api/v1/sessions/{id}", s.getSession)
	mux.HandleFunc("GET /api/v1/status", s.status)

	return corsMiddleware(s.logMiddleware(mux))
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) logMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.log.Debug("api request",
			"method", r.Method,
			"path", r.URL.Path,
			"duration_ms", time.Since(start).Milliseconds(),
		)
	})
}

type executeRequest struct {
	Prompt         string   `json:"prompt"`
	Context        string   `json:"context"`
	Model          string   `json:"model"`
	AllowAllTools  *bool    `json:"allow_all_tools"`
	SessionID      string   `json:"session_id"`
	AdditionalArgs []string `json:"additional_args"`
}

func (s *Server) execute(w http.ResponseWriter, r *http.Request) {
	var body executeRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if body.Prompt == "" {
		writeError(w, http.StatusBadRequest, "prompt is required")
		return
	}

	req := copilot.Request{
		Prompt:         body.Prompt,
		Context:        body.Context,
		Model:          body.Model,
		AllowAllTools:  body.AllowAllTools,
		SessionID:      body.SessionID,
		AdditionalArgs: body.AdditionalArgs,
	}
	if req.SessionID == "" {
		req.SessionID = s.sessions.Current()
	}

	result, err := s.exec.Execute(r.Context(), req)
	if err != nil {
		writeError(w, failureStatus(err), err.Error())
		return
	}

	writeJSON(w, http.StatusOK, struct {
		*copilot.Result
		SessionID string `json:"session_id,omitempty"`
	}{Result: result, SessionID: req.SessionID})
}

// failureStatus maps the execution failure taxonomy onto HTTP status codes.
func failureStatus(err error) int {
	switch {
	case errors.Is(err, copilot.ErrPromptTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, copilot.ErrAuthRequired):
		return http.StatusUnauthorized
	case errors.Is(err, copilot.ErrTimeout):
		return http.StatusGatewayTimeout
	case errors.Is(err, copilot.ErrSpawnFailure):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) listModels(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.catalog.Discover(r.Context()))
}

func (s *Server) listSessions(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"sessions": s.sessions.List(),
		"current":  s.sessions.Current(),
	})
}

func (s *Server) createSession(w http.ResponseWriter, _ *http.Request) {
	id := s.sessions.Create()
	s.log.Info("session created", "session_id", id)
	writeJSON(w, http.StatusCreated, map[string]string{"session_id": id})
}

func (s *Server) getSession(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	sess, ok := s.sessions.Get(id)
	if !ok {
		writeError(w, http.StatusNotFound, "session not found: "+id)
		return
	}
	writeJSON(w, http.StatusOK, sess)
}

func (s *Server) status(w http.ResponseWriter, r *http.Request) {
	out := map[string]any{"installed": false}
	if version, err := s.probe.Version(r.Context()); err == nil {
		out["installed"] = true
		out["version"] = version
	}
	writeJSON(w, http.StatusOK, out)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
