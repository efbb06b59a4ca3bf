package httpapi

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/ocx/rmos/internal/store"
)

func (s *Server) handleFeasibility(w http.ResponseWriter, r *http.Request) {
	var req feasibilityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION", err.Error())
		return
	}

	start := time.Now()
	result, err := s.engine.Compute(req.ToolID, req.MaterialID, req.MachineID, req.OpKind, req.OpParams.toFeasibilityOp(), req.Design.summary())
	elapsed := time.Since(start).Seconds()
	if err != nil {
		s.persistError(w, req, err)
		return
	}
	if s.metrics != nil {
		s.metrics.RecordFeasibility(string(result.RiskBucket), elapsed)
	}

	artifact := store.RunArtifact{
		RunID:          store.NewRunID(),
		CreatedAtUTC:   time.Now().UTC(),
		SessionID:      req.SessionID,
		Kind:           store.KindFeasibility,
		Status:         store.StatusOK,
		ToolID:         req.ToolID,
		MaterialID:     req.MaterialID,
		MachineID:      req.MachineID,
		EventType:      "feasibility.computed",
		Feasibility:    result,
		Hashes:         store.Hashes{FeasibilitySHA256: result.Meta.FeasibilityHash},
		RequestSummary: requestSummary(req),
	}
	if err := s.runs.Put(artifact); err != nil {
		writeError(w, http.StatusInternalServerError, "STORE_IO", err.Error())
		return
	}
	if s.events != nil {
		s.events.Created(artifact)
	}

	writeJSON(w, http.StatusOK, result)
}

func requestSummary(req feasibilityRequest) map[string]interface{} {
	return map[string]interface{}{
		"tool_id":     req.ToolID,
		"material_id": req.MaterialID,
		"machine_id":  req.MachineID,
		"op_kind":     req.OpKind,
	}
}

// persistError writes an ERROR artifact for an unexpected internal
// failure and responds 500, per the propagation policy: safety-critical
// paths never swallow unexpected errors.
func (s *Server) persistError(w http.ResponseWriter, req feasibilityRequest, err error) {
	artifact := store.RunArtifact{
		RunID:          store.NewRunID(),
		CreatedAtUTC:   time.Now().UTC(),
		SessionID:      req.SessionID,
		Kind:           store.KindFeasibility,
		Status:         store.StatusError,
		ToolID:         req.ToolID,
		MaterialID:     req.MaterialID,
		MachineID:      req.MachineID,
		EventType:      "feasibility.error",
		RequestSummary: requestSummary(req),
		Error:          &store.ErrorInfo{Code: "INTERNAL", Message: err.Error()},
	}
	_ = s.runs.Put(artifact)
	if s.events != nil {
		s.events.Errored(artifact)
	}
	writeError(w, http.StatusInternalServerError, "INTERNAL", err.Error())
}
