package server

import (
	"encoding/json"
	"net/http"

	"github.com/kurobon/nexusvc/internal/git"
	"github.com/kurobon/nexusvc/internal/state"
)

type CommandRequest struct {
	SessionID string `json:"sessionId"`
	Command   string `json:"command"`
}

type CommandResponse struct {
	Output string `json:"output"`
	Error  string `json:"error,omitempty"`
}

func (s *Server) handleExecCommand(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodPost) {
		return
	}

	var req CommandRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	cmdName, args := git.ParseCommand(req.Command)
	if cmdName == "" {
		writeJSON(w, http.StatusOK, CommandResponse{})
		return
	}

	session, ok := s.session(w, r, req.SessionID)
	if !ok {
		return
	}
	s.logger.Debug("command received", "session", session.ID, "cmd", req.Command)

	// Command failures are part of the terminal transcript, not HTTP errors.
	output, err := git.Dispatch(r.Context(), session, cmdName, args)
	if err != nil {
		writeJSON(w, http.StatusOK, CommandResponse{Output: output, Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, CommandResponse{Output: output})
}

func (s *Server) handleListCommands(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodGet) {
		return
	}
	writeJSON(w, http.StatusOK, git.GetSupportedCommands())
}

func (s *Server) handleGetGraphState(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodGet) {
		return
	}
	session, ok := s.session(w, r, r.URL.Query().Get("sessionId"))
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, session.Engine.GraphState())
}

func (s *Server) handleGetReflog(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodGet) {
		return
	}
	session, ok := s.session(w, r, r.URL.Query().Get("sessionId"))
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, session.History())
}

func (s *Server) handleGetTaskTypes(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, state.GetTaskTypes())
}
