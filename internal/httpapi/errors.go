package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/ocx/rmos/internal/kernel"
	"github.com/ocx/rmos/internal/postproc"
	"github.com/ocx/rmos/internal/registry"
	"github.com/ocx/rmos/internal/store"
	"github.com/ocx/rmos/internal/workflow"
)

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorBody{Error: code, Message: message})
}

// statusForError classifies an error from registry/kernel/postproc/store
// per the error taxonomy (spec §7) and returns the HTTP status and a
// stable code string. It never returns a 2xx.
func statusForError(err error) (int, string) {
	switch {
	case errors.Is(err, registry.ErrLookupMissing):
		return http.StatusBadRequest, "LOOKUP_MISSING"
	case errors.Is(err, kernel.ErrPocketTooSmall):
		return http.StatusBadRequest, "POCKET_TOO_SMALL"
	case errors.Is(err, kernel.ErrToolTooLarge):
		return http.StatusBadRequest, "TOOL_TOO_LARGE"
	case errors.Is(err, kernel.ErrGeometryInvalid):
		return http.StatusBadRequest, "GEOMETRY_INVALID"
	case errors.Is(err, kernel.ErrParameterOutOfRange):
		return http.StatusBadRequest, "PARAMETER_OUT_OF_RANGE"
	case errors.Is(err, postproc.ErrPostNotFound):
		return http.StatusBadRequest, "POST_NOT_FOUND"
	case errors.Is(err, workflow.ErrApprovalBlocked):
		return http.StatusConflict, "APPROVAL_BLOCKED"
	case errors.Is(err, workflow.ErrInvalidTransition):
		return http.StatusConflict, "INVALID_TRANSITION"
	case errors.Is(err, workflow.ErrNotFound), errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound, "NOT_FOUND"
	case errors.Is(err, store.ErrPathTraversal):
		return http.StatusBadRequest, "VALIDATION"
	default:
		return http.StatusInternalServerError, "INTERNAL"
	}
}
