package server

import (
	"encoding/json"
	"net/http"
)

func (s *Server) handleGetMergeView(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodGet) {
		return
	}
	q := r.URL.Query()
	session, ok := s.session(w, r, q.Get("sessionId"))
	if !ok {
		return
	}
	view, err := session.Engine.ThreeWay(q.Get("file"))
	if err != nil {
		writeError(w, http.StatusConflict, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

type ResolveRequest struct {
	SessionID string `json:"sessionId"`
	File      string `json:"file"`
	Content   string `json:"content"`
}

func (s *Server) handleResolve(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodPost) {
		return
	}
	var req ResolveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	session, ok := s.session(w, r, req.SessionID)
	if !ok {
		return
	}
	f, err := session.Engine.ResolveConflict(req.File, req.Content)
	if _, ok := wait(r.Context(), w, f, err); !ok {
		return
	}
	writeJSON(w, http.StatusOK, session.Engine.GraphState().Merge)
}
