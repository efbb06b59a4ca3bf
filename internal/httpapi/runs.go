package httpapi

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/ocx/rmos/internal/store"
)

type runsListResponse struct {
	Items      []store.Summary `json:"items"`
	NextCursor string           `json:"next_cursor,omitempty"`
}

func (s *Server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := store.Filter{
		Status:     store.Status(q.Get("status")),
		Kind:       store.Kind(q.Get("kind")),
		ToolID:     q.Get("tool_id"),
		MaterialID: q.Get("material_id"),
		MachineID:  q.Get("machine_id"),
	}
	limit := 50
	if v := q.Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			limit = n
		}
	}
	items, next, err := s.runs.List(filter, q.Get("cursor"), limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "STORE_IO", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, runsListResponse{Items: items, NextCursor: next})
}

func (s *Server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	a, err := s.runs.Get(id)
	if err != nil {
		status, code := statusForError(err)
		writeError(w, status, code, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, a)
}

func (s *Server) handleDownloadRun(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	a, err := s.runs.Get(id)
	if err != nil {
		status, code := statusForError(err)
		writeError(w, status, code, err.Error())
		return
	}
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s.json"`, id))
	writeJSON(w, http.StatusOK, a)
}

type diffResponse struct {
	AID           string               `json:"a_id"`
	BID           string               `json:"b_id"`
	Summary       diffRunsSummary      `json:"summary"`
	ChangedFields []store.ChangedField `json:"changed_fields"`
}

type diffRunsSummary struct {
	AKind   string `json:"a_kind"`
	BKind   string `json:"b_kind"`
	AStatus string `json:"a_status"`
	BStatus string `json:"b_status"`
}

func (s *Server) handleDiffRuns(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	aID, bID := vars["a"], vars["b"]

	a, err := s.runs.Get(aID)
	if err != nil {
		status, code := statusForError(err)
		writeError(w, status, code, err.Error())
		return
	}
	b, err := s.runs.Get(bID)
	if err != nil {
		status, code := statusForError(err)
		writeError(w, status, code, err.Error())
		return
	}
	diff, err := s.runs.Diff(aID, bID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "STORE_IO", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, diffResponse{
		AID: aID,
		BID: bID,
		Summary: diffRunsSummary{
			AKind: string(a.Kind), BKind: string(b.Kind),
			AStatus: string(a.Status), BStatus: string(b.Status),
		},
		ChangedFields: diff.ChangedFields,
	})
}
