package server

import (
	"io"
	"net/http"

	"github.com/kurobon/nexusvc/internal/assistant"
)

const maxAssistantBody = 8 << 20

type AssistantContextResponse struct {
	Context string `json:"context"`
	Patch   string `json:"patch"`
}

// handleAssistantContext returns what the assistant backend is given: the
// working tree and the pending changes as a unified diff.
func (s *Server) handleAssistantContext(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodGet) {
		return
	}
	session, ok := s.session(w, r, r.URL.Query().Get("sessionId"))
	if !ok {
		return
	}
	patch, err := session.Engine.WorkingDiff()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, AssistantContextResponse{
		Context: assistant.Context(session.Engine.Snapshot().Files),
		Patch:   patch,
	})
}

type AssistantApplyResponse struct {
	Messages []assistant.Message `json:"messages"`
}

// handleAssistantApply consumes an assistant stream (newline-delimited JSON
// chunks in the body) and applies its update_file calls.
func (s *Server) handleAssistantApply(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodPost) {
		return
	}
	session, ok := s.session(w, r, r.URL.Query().Get("sessionId"))
	if !ok {
		return
	}
	c := assistant.NewConsumer(session.Engine, s.logger.With("session", session.ID))
	msgs, err := c.Consume(r.Context(), http.MaxBytesReader(w, r.Body, maxAssistantBody))
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if msgs == nil {
		msgs = []assistant.Message{}
	}
	writeJSON(w, http.StatusOK, AssistantApplyResponse{Messages: msgs})
}

type AssistantProjectResponse struct {
	Written []string `json:"written"`
}

// handleAssistantProject writes a project-shaping response: a JSON array of
// files.
func (s *Server) handleAssistantProject(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodPost) {
		return
	}
	session, ok := s.session(w, r, r.URL.Query().Get("sessionId"))
	if !ok {
		return
	}
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxAssistantBody))
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	files, err := assistant.ParseProject(body)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	c := assistant.NewConsumer(session.Engine, s.logger.With("session", session.ID))
	written, err := c.ApplyProject(r.Context(), files)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err)
		return
	}
	writeJSON(w, http.StatusOK, AssistantProjectResponse{Written: written})
}
