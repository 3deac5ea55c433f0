package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/kurobon/nexusvc/internal/mission"
)

var errNoMissions = errors.New("missions are not available")

type StartMissionRequest struct {
	MissionID string `json:"missionId"`
}

type StartMissionResponse struct {
	SessionID string `json:"sessionId"`
	MissionID string `json:"missionId"`
}

type VerifyMissionRequest struct {
	SessionID string `json:"sessionId"`
	MissionID string `json:"missionId"`
}

func (s *Server) handleListMissions(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodGet) {
		return
	}
	if s.MissionEngine == nil {
		writeError(w, http.StatusNotFound, errNoMissions)
		return
	}
	missions, err := s.MissionEngine.Loader.ListMissions()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, missions)
}

func (s *Server) handleStartMission(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodPost) {
		return
	}
	if s.MissionEngine == nil {
		writeError(w, http.StatusNotFound, errNoMissions)
		return
	}

	var req StartMissionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	sessionID, err := s.MissionEngine.StartMission(r.Context(), req.MissionID)
	if err != nil {
		writeError(w, missionStatus(err), err)
		return
	}
	s.logger.Info("mission started", "mission", req.MissionID, "session", sessionID)
	writeJSON(w, http.StatusOK, StartMissionResponse{
		SessionID: sessionID,
		MissionID: req.MissionID,
	})
}

func (s *Server) handleVerifyMission(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodPost) {
		return
	}
	if s.MissionEngine == nil {
		writeError(w, http.StatusNotFound, errNoMissions)
		return
	}

	var req VerifyMissionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	result, err := s.MissionEngine.VerifyMission(req.SessionID, req.MissionID)
	if err != nil {
		writeError(w, missionStatus(err), err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func missionStatus(err error) int {
	if errors.Is(err, mission.ErrNotFound) {
		return http.StatusNotFound
	}
	return http.StatusInternalServerError
}
