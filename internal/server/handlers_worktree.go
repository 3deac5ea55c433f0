package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/kurobon/nexusvc/internal/diff"
	"github.com/kurobon/nexusvc/internal/git"
	"github.com/kurobon/nexusvc/internal/queue"
	"github.com/kurobon/nexusvc/internal/status"
)

// FilesResponse is the working tree with the status of every file.
type FilesResponse struct {
	Files    map[string]string      `json:"files"`
	Statuses map[string]status.Code `json:"statuses"`
}

type WriteFileRequest struct {
	SessionID string `json:"sessionId"`
	Name      string `json:"name"`
	Content   string `json:"content"`
}

// handleFiles reads (GET), writes (PUT) or deletes (DELETE) working files.
func (s *Server) handleFiles(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodGet, http.MethodPut, http.MethodDelete) {
		return
	}

	switch r.Method {
	case http.MethodGet:
		session, ok := s.session(w, r, r.URL.Query().Get("sessionId"))
		if !ok {
			return
		}
		codes, _ := session.Engine.RefreshStatus(r.Context())
		writeJSON(w, http.StatusOK, FilesResponse{
			Files:    session.Engine.Snapshot().Files,
			Statuses: codes,
		})

	case http.MethodPut:
		var req WriteFileRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		session, ok := s.session(w, r, req.SessionID)
		if !ok {
			return
		}
		f, err := session.Engine.WriteFile(req.Name, req.Content)
		if _, ok := wait(r.Context(), w, f, err); ok {
			writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
		}

	case http.MethodDelete:
		q := r.URL.Query()
		session, ok := s.session(w, r, q.Get("sessionId"))
		if !ok {
			return
		}
		f, err := session.Engine.DeleteFile(q.Get("name"))
		if _, ok := wait(r.Context(), w, f, err); ok {
			writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
		}
	}
}

func (s *Server) handleGetStageable(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodGet) {
		return
	}
	session, ok := s.session(w, r, r.URL.Query().Get("sessionId"))
	if !ok {
		return
	}
	st, err := session.Engine.Stageable()
	if err != nil {
		writeError(w, http.StatusConflict, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

// DiffResponse carries the line diff of one file, or only the patch of the
// whole working tree when no file is named.
type DiffResponse struct {
	File  string      `json:"file,omitempty"`
	Lines []diff.Line `json:"lines,omitempty"`
	Stats diff.Stats  `json:"stats"`
	Patch string      `json:"patch"`
}

func (s *Server) handleGetDiff(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodGet) {
		return
	}
	q := r.URL.Query()
	session, ok := s.session(w, r, q.Get("sessionId"))
	if !ok {
		return
	}

	name := q.Get("file")
	if name == "" {
		patch, err := session.Engine.WorkingDiff()
		if err != nil {
			writeError(w, http.StatusInternalServerError, err)
			return
		}
		writeJSON(w, http.StatusOK, DiffResponse{Patch: patch})
		return
	}

	lines := session.Engine.Diff(name)
	patch, err := session.Engine.UnifiedDiff(name)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, DiffResponse{
		File:  name,
		Lines: lines,
		Stats: diff.Stat(lines),
		Patch: patch,
	})
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodGet) {
		return
	}
	session, ok := s.session(w, r, r.URL.Query().Get("sessionId"))
	if !ok {
		return
	}
	res, err := session.Engine.Export()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// wait settles a queued operation and writes the error response when it
// failed. Policy violations (nothing queued) are 409; failed tasks are 422.
func wait[T any](ctx context.Context, w http.ResponseWriter, f *queue.Future[T], err error) (T, bool) {
	var zero T
	if err != nil {
		writeError(w, http.StatusConflict, err)
		return zero, false
	}
	v, err := f.Wait(ctx)
	if err != nil {
		code := http.StatusUnprocessableEntity
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			code = http.StatusServiceUnavailable
		}
		var oe *git.OpError
		if !errors.As(err, &oe) && code != http.StatusServiceUnavailable {
			code = http.StatusInternalServerError
		}
		writeError(w, code, err)
		return zero, false
	}
	return v, true
}
