package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/charmbracelet/log"

	"github.com/kurobon/nexusvc/internal/git"
	"github.com/kurobon/nexusvc/internal/mission"
)

type Server struct {
	SessionManager *git.SessionManager
	MissionEngine  *mission.Engine
	Mux            *http.ServeMux

	logger      *log.Logger
	hub         *hub
	unsubscribe func()
}

// NewServer wires the HTTP routes and starts forwarding session events to
// WebSocket clients. missions may be nil.
func NewServer(sm *git.SessionManager, missions *mission.Engine, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.Default()
	}
	logger = logger.WithPrefix("server")
	s := &Server{
		SessionManager: sm,
		MissionEngine:  missions,
		Mux:            http.NewServeMux(),
		logger:         logger,
		hub:            newHub(logger),
	}
	s.unsubscribe = sm.Subscribe(s.hub.publish)
	s.routes()
	return s
}

func (s *Server) routes() {
	s.Mux.HandleFunc("/ping", s.handlePing)
	s.Mux.HandleFunc("/api/session/init", s.handleInitSession)
	s.Mux.HandleFunc("/api/command", s.handleExecCommand)
	s.Mux.HandleFunc("/api/commands", s.handleListCommands)
	s.Mux.HandleFunc("/api/tasks", s.handleGetTaskTypes)
	s.Mux.HandleFunc("/api/state", s.handleGetGraphState)
	s.Mux.HandleFunc("/api/reflog", s.handleGetReflog)
	s.Mux.HandleFunc("/api/files", s.handleFiles)
	s.Mux.HandleFunc("/api/stageable", s.handleGetStageable)
	s.Mux.HandleFunc("/api/diff", s.handleGetDiff)
	s.Mux.HandleFunc("/api/export", s.handleExport)
	s.Mux.HandleFunc("/api/merge/view", s.handleGetMergeView)
	s.Mux.HandleFunc("/api/resolve", s.handleResolve)
	s.Mux.HandleFunc("/api/assistant/context", s.handleAssistantContext)
	s.Mux.HandleFunc("/api/assistant/apply", s.handleAssistantApply)
	s.Mux.HandleFunc("/api/assistant/project", s.handleAssistantProject)
	s.Mux.HandleFunc("/api/missions", s.handleListMissions)
	s.Mux.HandleFunc("/api/missions/start", s.handleStartMission)
	s.Mux.HandleFunc("/api/missions/verify", s.handleVerifyMission)
	s.Mux.HandleFunc("/api/ws", s.handleWebSocket)
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.Mux.ServeHTTP(w, r)
}

// Close stops forwarding events and disconnects every WebSocket client.
func (s *Server) Close() {
	s.unsubscribe()
	s.hub.close()
}

func (s *Server) handlePing(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"message": "pong",
		"system":  "NexusVC Backend",
	})
}

type InitSessionRequest struct {
	SessionID string `json:"sessionId"`
}

func (s *Server) handleInitSession(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodPost) {
		return
	}
	var req InitSessionRequest
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
	}

	session, err := s.SessionManager.CreateSession(r.Context(), req.SessionID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"status":    "session created",
		"sessionId": session.ID,
	})
}

// session looks up id, recreating the session when it is unknown (the
// backend may have restarted under a live client).
func (s *Server) session(w http.ResponseWriter, r *http.Request, id string) (*git.Session, bool) {
	if id == "" {
		writeError(w, http.StatusBadRequest, errors.New("sessionId required"))
		return nil, false
	}
	if session, ok := s.SessionManager.GetSession(id); ok {
		return session, true
	}
	s.logger.Info("session not found, recreating", "session", id)
	session, err := s.SessionManager.CreateSession(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return nil, false
	}
	return session, true
}

func allowMethod(w http.ResponseWriter, r *http.Request, methods ...string) bool {
	for _, m := range methods {
		if r.Method == m {
			return true
		}
	}
	http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	return false
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// ErrorResponse is the body of every failed API call. Action names a
// corrective command when one is obvious.
type ErrorResponse struct {
	Error  string `json:"error"`
	Action string `json:"action,omitempty"`
}

func writeError(w http.ResponseWriter, code int, err error) {
	resp := ErrorResponse{Error: err.Error()}
	var oe *git.OpError
	if errors.As(err, &oe) {
		resp.Error = oe.Message()
		resp.Action = oe.Action
	}
	writeJSON(w, code, resp)
}
