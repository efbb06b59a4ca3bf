// Package store implements the Run Artifact Store (C6): an append-only,
// UTC-date-partitioned JSON file store with an in-process index rebuilt
// from disk in full when the store is opened (New); the rebuild is not
// deferred to first use. Once written, an artifact is never mutated.
package store

import (
	"time"

	"github.com/ocx/rmos/internal/feasibility"
)

// Kind discriminates what a RunArtifact records.
type Kind string

const (
	KindFeasibility Kind = "feasibility"
	KindToolpaths   Kind = "toolpaths"
)

// Status is the outcome of the request that produced the artifact.
type Status string

const (
	StatusOK      Status = "OK"
	StatusBlocked Status = "BLOCKED"
	StatusError   Status = "ERROR"
)

// ErrorInfo describes an ERROR-status artifact's failure.
type ErrorInfo struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Hashes carries the content addresses a RunArtifact is identified by.
type Hashes struct {
	FeasibilitySHA256 string `json:"feasibility_sha256"`
	ToolpathsSHA256   string `json:"toolpaths_sha256,omitempty"`
	GCodeSHA256       string `json:"gcode_sha256,omitempty"`
}

// RunArtifact is the immutable audit record of one feasibility or
// toolpath request.
type RunArtifact struct {
	RunID          string                        `json:"run_id"`
	CreatedAtUTC   time.Time                     `json:"created_at_utc"`
	SessionID      string                        `json:"session_id,omitempty"`
	Kind           Kind                          `json:"kind"`
	Status         Status                        `json:"status"`
	ToolID         string                        `json:"tool_id"`
	MaterialID     string                        `json:"material_id"`
	MachineID      string                        `json:"machine_id"`
	EventType      string                        `json:"event_type"`
	Feasibility    feasibility.FeasibilityResult `json:"feasibility"`
	Hashes         Hashes                        `json:"hashes"`
	RequestSummary map[string]interface{}        `json:"request_summary,omitempty"`
	GCodeText      string                        `json:"gcode_text,omitempty"`
	Error          *ErrorInfo                    `json:"error,omitempty"`
}

// Summary is the trimmed view returned by List, everything but the
// large payload fields (gcode_text, full request_summary).
type Summary struct {
	RunID        string    `json:"run_id"`
	CreatedAtUTC time.Time `json:"created_at_utc"`
	Kind         Kind      `json:"kind"`
	Status       Status    `json:"status"`
	ToolID       string    `json:"tool_id"`
	MaterialID   string    `json:"material_id"`
	MachineID    string    `json:"machine_id"`
	RiskBucket   feasibility.RiskBucket `json:"risk_bucket"`
}

func (a RunArtifact) summary() Summary {
	return Summary{
		RunID:        a.RunID,
		CreatedAtUTC: a.CreatedAtUTC,
		Kind:         a.Kind,
		Status:       a.Status,
		ToolID:       a.ToolID,
		MaterialID:   a.MaterialID,
		MachineID:    a.MachineID,
		RiskBucket:   a.Feasibility.RiskBucket,
	}
}
