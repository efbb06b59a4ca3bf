package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/ocx/rmos/internal/workflow"
)

type createSessionRequest struct {
	Mode   string `json:"mode"`
	ToolID string `json:"tool_id,omitempty"`
}

type sessionResponse struct {
	SessionID string `json:"session_id"`
	State     string `json:"state"`
	NextStep  string `json:"next_step,omitempty"`
}

func nextStepFor(state workflow.State) string {
	switch state {
	case workflow.StateDraft:
		return "set_context"
	case workflow.StateContextReady:
		return "request_feasibility"
	case workflow.StateFeasibilityRequested:
		return "await_feasibility"
	case workflow.StateFeasibilityReady:
		return "approve"
	case workflow.StateApproved:
		return "request_toolpaths"
	case workflow.StateToolpathsRequested:
		return "await_toolpaths"
	case workflow.StateToolpathsReady:
		return "archive"
	default:
		return ""
	}
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req createSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION", err.Error())
		return
	}
	mode := workflow.Mode(req.Mode)
	if mode != workflow.ModeFeasibility && mode != workflow.ModeToolpaths {
		writeError(w, http.StatusBadRequest, "VALIDATION", "mode must be \"feasibility\" or \"toolpaths\"")
		return
	}
	sess, err := s.machine.CreateSession(mode)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "STORE_IO", err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, sessionResponse{
		SessionID: sess.SessionID,
		State:     string(sess.State),
		NextStep:  nextStepFor(sess.State),
	})
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	sess, err := s.machine.GetSession(id)
	if err != nil {
		status, code := statusForError(err)
		writeError(w, status, code, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, sessionResponse{
		SessionID: sess.SessionID,
		State:     string(sess.State),
		NextStep:  nextStepFor(sess.State),
	})
}

type approveRequest struct {
	SessionID     string `json:"session_id"`
	Actor         string `json:"actor"`
	Note          string `json:"note,omitempty"`
	OverrideToken string `json:"override_token,omitempty"`
}

type approveResponse struct {
	SessionID string `json:"session_id"`
	State     string `json:"state"`
	Approved  bool   `json:"approved"`
}

func (s *Server) handleApprove(w http.ResponseWriter, r *http.Request) {
	var req approveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION", err.Error())
		return
	}
	sess, err := s.machine.Approve(req.SessionID, req.Actor, req.OverrideToken)
	if err != nil {
		if s.metrics != nil {
			s.metrics.RecordApproval("blocked")
		}
		status, code := statusForError(err)
		writeJSON(w, status, errorBody{Error: code, Message: err.Error()})
		return
	}
	if s.metrics != nil {
		s.metrics.RecordApproval("approved")
	}
	writeJSON(w, http.StatusOK, approveResponse{
		SessionID: sess.SessionID,
		State:     string(sess.State),
		Approved:  true,
	})
}
