package httpapi

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/ocx/rmos/internal/feasibility"
	"github.com/ocx/rmos/internal/kernel"
	"github.com/ocx/rmos/internal/postproc"
	"github.com/ocx/rmos/internal/store"
)

type toolpathsResponse struct {
	Mode       string            `json:"mode"`
	GCodeText  string            `json:"gcode_text"`
	RunID      string            `json:"_run_id"`
	Hashes     store.Hashes      `json:"_hashes"`
}

type safetyBlockedResponse struct {
	Error                  string                        `json:"error"`
	RunID                  string                        `json:"run_id"`
	Decision               string                        `json:"decision"`
	AuthoritativeFeasibility feasibility.FeasibilityResult `json:"authoritative_feasibility"`
}

// handleToolpaths strips any client-supplied feasibility by construction
// (feasibilityRequest has no such field) and recomputes it itself before
// ever touching the kernel. On RED/UNKNOWN it persists a BLOCKED artifact
// and returns 409; on GREEN/YELLOW it runs the kernel and emitter and
// persists an OK artifact carrying all three content hashes.
func (s *Server) handleToolpaths(w http.ResponseWriter, r *http.Request) {
	var req feasibilityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION", err.Error())
		return
	}

	start := time.Now()
	result, err := s.engine.Compute(req.ToolID, req.MaterialID, req.MachineID, req.OpKind, req.OpParams.toFeasibilityOp(), req.Design.summary())
	if err != nil {
		s.persistError(w, req, err)
		return
	}

	if result.RiskBucket == feasibility.BucketRed || result.RiskBucket == feasibility.BucketUnknown {
		if s.metrics != nil {
			s.metrics.RecordSafetyBlocked(string(result.RiskBucket))
			s.metrics.RecordToolpaths("blocked", time.Since(start).Seconds())
		}
		artifact := store.RunArtifact{
			RunID:          store.NewRunID(),
			CreatedAtUTC:   time.Now().UTC(),
			SessionID:      req.SessionID,
			Kind:           store.KindToolpaths,
			Status:         store.StatusBlocked,
			ToolID:         req.ToolID,
			MaterialID:     req.MaterialID,
			MachineID:      req.MachineID,
			EventType:      "toolpaths.blocked",
			Feasibility:    result,
			Hashes:         store.Hashes{FeasibilitySHA256: result.Meta.FeasibilityHash},
			RequestSummary: requestSummary(req),
		}
		if err := s.runs.Put(artifact); err != nil {
			writeError(w, http.StatusInternalServerError, "STORE_IO", err.Error())
			return
		}
		if s.events != nil {
			s.events.Blocked(artifact)
		}
		writeJSON(w, http.StatusConflict, safetyBlockedResponse{
			Error:                    "SAFETY_BLOCKED",
			RunID:                    artifact.RunID,
			Decision:                 string(result.RiskBucket),
			AuthoritativeFeasibility: result,
		})
		return
	}

	tool, err := s.reg.GetTool(req.ToolID)
	if err != nil {
		s.persistError(w, req, err)
		return
	}

	outer, islands := req.Design.outerAndIslands()
	kp := req.OpParams.toKernelParams(tool.DiameterMM)

	plan, err := s.pool.Run(r.Context(), func() (kernel.ToolpathPlan, error) {
		return kernel.Pocket(outer, islands, kp)
	})
	if err != nil {
		s.persistKernelFailure(w, req, result, err)
		return
	}

	postID := req.PostID
	if postID == "" {
		postID = "GRBL"
	}
	gcodeText, err := postproc.Emit(plan.Moves, postID)
	if err != nil {
		s.persistKernelFailure(w, req, result, err)
		return
	}
	sum := sha256.Sum256([]byte(gcodeText))
	gcodeHash := hex.EncodeToString(sum[:])

	toolpathsHash := plan.ToolpathsHash
	artifact := store.RunArtifact{
		RunID:        store.NewRunID(),
		CreatedAtUTC: time.Now().UTC(),
		SessionID:    req.SessionID,
		Kind:         store.KindToolpaths,
		Status:       store.StatusOK,
		ToolID:       req.ToolID,
		MaterialID:   req.MaterialID,
		MachineID:    req.MachineID,
		EventType:    "toolpaths.computed",
		Feasibility:  result,
		Hashes: store.Hashes{
			FeasibilitySHA256: result.Meta.FeasibilityHash,
			ToolpathsSHA256:   toolpathsHash,
			GCodeSHA256:       gcodeHash,
		},
		RequestSummary: requestSummary(req),
		GCodeText:      gcodeText,
	}
	if err := s.runs.Put(artifact); err != nil {
		writeError(w, http.StatusInternalServerError, "STORE_IO", err.Error())
		return
	}
	if s.events != nil {
		s.events.Created(artifact)
	}
	if s.metrics != nil {
		s.metrics.RecordToolpaths("ok", time.Since(start).Seconds())
	}
	s.advanceSessionToolpaths(req.SessionID)

	writeJSON(w, http.StatusOK, toolpathsResponse{
		Mode:      "toolpaths",
		GCodeText: gcodeText,
		RunID:     artifact.RunID,
		Hashes:    artifact.Hashes,
	})
}

// advanceSessionToolpaths moves sessionID from APPROVED through
// TOOLPATHS_REQUESTED to TOOLPATHS_READY once this request has produced
// an OK artifact, so a session-tracked request actually reaches the state
// its G-code was generated for instead of staying APPROVED forever. A
// caller that doesn't attach a session_id, or that isn't running the
// workflow machine at all, skips this entirely: best-effort, since the
// G-code has already been computed and persisted regardless of whether
// the session bookkeeping succeeds.
func (s *Server) advanceSessionToolpaths(sessionID string) {
	if sessionID == "" || s.machine == nil {
		return
	}
	if _, err := s.machine.RequestToolpaths(sessionID); err != nil {
		log.Printf("httpapi: session %s RequestToolpaths: %v", sessionID, err)
		return
	}
	if _, err := s.machine.CompleteToolpaths(sessionID); err != nil {
		log.Printf("httpapi: session %s CompleteToolpaths: %v", sessionID, err)
	}
}

// persistKernelFailure handles the kernel/emitter's own classified
// errors (POCKET_TOO_SMALL, TOOL_TOO_LARGE, GEOMETRY_INVALID,
// PARAMETER_OUT_OF_RANGE, POST_NOT_FOUND): these are expected, recovered
// at the façade, and persisted as BLOCKED rather than ERROR.
func (s *Server) persistKernelFailure(w http.ResponseWriter, req feasibilityRequest, result feasibility.FeasibilityResult, err error) {
	status, code := statusForError(err)
	artifact := store.RunArtifact{
		RunID:          store.NewRunID(),
		CreatedAtUTC:   time.Now().UTC(),
		SessionID:      req.SessionID,
		Kind:           store.KindToolpaths,
		Status:         store.StatusBlocked,
		ToolID:         req.ToolID,
		MaterialID:     req.MaterialID,
		MachineID:      req.MachineID,
		EventType:      "toolpaths.blocked",
		Feasibility:    result,
		Hashes:         store.Hashes{FeasibilitySHA256: result.Meta.FeasibilityHash},
		RequestSummary: requestSummary(req),
		Error:          &store.ErrorInfo{Code: code, Message: err.Error()},
	}
	_ = s.runs.Put(artifact)
	if s.events != nil {
		s.events.Blocked(artifact)
	}
	writeError(w, status, code, err.Error())
}
