// Package workflow implements the Workflow State Machine (C7): the
// per-session states and transitions gating a design's progress from
// draft through feasibility, approval, and toolpath generation.
package workflow

import (
	"time"

	"github.com/ocx/rmos/internal/feasibility"
)

// State is one node of the session lifecycle.
type State string

const (
	StateDraft                  State = "DRAFT"
	StateContextReady           State = "CONTEXT_READY"
	StateFeasibilityRequested   State = "FEASIBILITY_REQUESTED"
	StateFeasibilityReady       State = "FEASIBILITY_READY"
	StateDesignRevisionRequired State = "DESIGN_REVISION_REQUIRED"
	StateApproved               State = "APPROVED"
	StateRejected               State = "REJECTED"
	StateToolpathsRequested     State = "TOOLPATHS_REQUESTED"
	StateToolpathsReady         State = "TOOLPATHS_READY"
	StateArchived               State = "ARCHIVED"
)

// IsTerminal reports whether no further transition is ever valid from s.
func (s State) IsTerminal() bool {
	return s == StateRejected || s == StateArchived
}

// Mode is the kind of job a session is driving (mirrors the façade's
// request mode so a session can be created ahead of its first request).
type Mode string

const (
	ModeFeasibility Mode = "feasibility"
	ModeToolpaths   Mode = "toolpaths"
)

// Session is the mutable, persisted record of one design's progress
// through the lifecycle. It is never held in a process-global map;
// every operation loads it fresh from the store and writes it back
// under optimistic locking on UpdatedAt.
type Session struct {
	SessionID      string
	Mode           Mode
	State          State
	ToolID         string
	MaterialID     string
	MachineID      string
	FeasibilityHash string
	Feasibility    *feasibility.FeasibilityResult
	CreatedAtUTC   time.Time
	UpdatedAtUTC   time.Time
}

// Transition records one state change for a session's audit trail.
type Transition struct {
	From      State
	To        State
	Actor     string
	Note      string
	Timestamp time.Time
}
