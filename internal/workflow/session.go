package workflow

import (
	"errors"
	"fmt"
	"time"

	"github.com/ocx/rmos/internal/feasibility"
)

// ErrApprovalBlocked is returned by Approve when the session's bucket
// is RED/UNKNOWN and no valid override token was supplied, or when the
// session has no feasibility attached yet.
var ErrApprovalBlocked = errors.New("APPROVAL_BLOCKED")

// sessionStore is the persistence surface Machine needs. *Store (the
// sql.DB/lib-pq backed implementation) satisfies it; tests substitute
// an in-memory fake so Machine's transition logic is exercised without
// a live database.
type sessionStore interface {
	Create(mode Mode) (Session, error)
	Get(sessionID string) (Session, error)
	Save(sess *Session, expectedUpdatedAt time.Time) error
}

// Machine drives Session transitions against a sessionStore, enforcing
// the transition contracts and the mentor-override rule for risky
// approvals. It holds no session state itself, every call reloads and
// persists through store.
type Machine struct {
	store     sessionStore
	overrides *OverrideIssuer
}

// NewMachine builds a Machine over store, using overrides to validate
// mentor override tokens presented at approval time.
func NewMachine(store sessionStore, overrides *OverrideIssuer) *Machine {
	return &Machine{store: store, overrides: overrides}
}

// CreateSession starts a brand-new session in DRAFT.
func (m *Machine) CreateSession(mode Mode) (Session, error) {
	return m.store.Create(mode)
}

// GetSession loads a session by id.
func (m *Machine) GetSession(sessionID string) (Session, error) {
	return m.store.Get(sessionID)
}

// SetContext attaches the resolved tool/material/machine ids to a
// DRAFT session and moves it to CONTEXT_READY.
func (m *Machine) SetContext(sessionID, toolID, materialID, machineID string) (Session, error) {
	sess, err := m.store.Get(sessionID)
	if err != nil {
		return Session{}, err
	}
	if err := requireTransition(&sess, StateDraft, StateContextReady); err != nil {
		return Session{}, err
	}
	expected := sess.UpdatedAtUTC
	sess.ToolID, sess.MaterialID, sess.MachineID = toolID, materialID, machineID
	sess.State = StateContextReady
	if err := m.store.Save(&sess, expected); err != nil {
		return Session{}, err
	}
	return sess, nil
}

// RequestFeasibility moves a CONTEXT_READY session to
// FEASIBILITY_REQUESTED. The actual compute happens out-of-band (the
// façade calls the feasibility engine and then CompleteFeasibility).
func (m *Machine) RequestFeasibility(sessionID string) (Session, error) {
	sess, err := m.store.Get(sessionID)
	if err != nil {
		return Session{}, err
	}
	if err := requireTransition(&sess, StateContextReady, StateFeasibilityRequested); err != nil {
		return Session{}, err
	}
	expected := sess.UpdatedAtUTC
	sess.State = StateFeasibilityRequested
	if err := m.store.Save(&sess, expected); err != nil {
		return Session{}, err
	}
	return sess, nil
}

// CompleteFeasibility attaches a computed result and moves the session
// from FEASIBILITY_REQUESTED to FEASIBILITY_READY.
func (m *Machine) CompleteFeasibility(sessionID string, result feasibility.FeasibilityResult) (Session, error) {
	sess, err := m.store.Get(sessionID)
	if err != nil {
		return Session{}, err
	}
	if err := requireTransition(&sess, StateFeasibilityRequested, StateFeasibilityReady); err != nil {
		return Session{}, err
	}
	expected := sess.UpdatedAtUTC
	sess.Feasibility = &result
	sess.FeasibilityHash = result.Meta.FeasibilityHash
	sess.State = StateFeasibilityReady
	if err := m.store.Save(&sess, expected); err != nil {
		return Session{}, err
	}
	return sess, nil
}

// RequestDesignRevision moves a FEASIBILITY_READY session back to
// CONTEXT_READY, e.g. after a mentor asks for a design change instead
// of approving or rejecting outright.
func (m *Machine) RequestDesignRevision(sessionID string) (Session, error) {
	sess, err := m.store.Get(sessionID)
	if err != nil {
		return Session{}, err
	}
	if _, err := m.transitionTo(&sess, StateDesignRevisionRequired); err != nil {
		return Session{}, err
	}
	return m.transitionTo(&sess, StateContextReady)
}

func (m *Machine) transitionTo(sess *Session, to State) (Session, error) {
	if err := requireTransition(sess, sess.State, to); err != nil {
		return Session{}, err
	}
	expected := sess.UpdatedAtUTC
	sess.State = to
	if err := m.store.Save(sess, expected); err != nil {
		return Session{}, err
	}
	return *sess, nil
}

// Approve requires FEASIBILITY_READY with an attached feasibility
// result. RED/UNKNOWN buckets additionally require a valid, unexpired,
// single-use mentor override token; redeeming it here consumes it.
// Any failure returns ErrApprovalBlocked and transitions the session to
// REJECTED only when the actor explicitly rejects, a blocked approval
// otherwise leaves the session in FEASIBILITY_READY so the actor can
// retry with a token.
func (m *Machine) Approve(sessionID, actor, overrideToken string) (Session, error) {
	sess, err := m.store.Get(sessionID)
	if err != nil {
		return Session{}, err
	}
	if sess.State != StateFeasibilityReady || sess.Feasibility == nil {
		return sess, fmt.Errorf("%w: session not ready for approval", ErrApprovalBlocked)
	}
	bucket := sess.Feasibility.RiskBucket
	if bucket == feasibility.BucketRed || bucket == feasibility.BucketUnknown {
		if overrideToken == "" {
			return sess, fmt.Errorf("%w: risk bucket %s requires mentor override", ErrApprovalBlocked, bucket)
		}
		if err := m.overrides.Redeem(overrideToken, sessionID, actor); err != nil {
			return sess, fmt.Errorf("%w: %v", ErrApprovalBlocked, err)
		}
	}
	return m.transitionTo(&sess, StateApproved)
}

// Reject moves a FEASIBILITY_READY session to the terminal REJECTED
// state.
func (m *Machine) Reject(sessionID string) (Session, error) {
	sess, err := m.store.Get(sessionID)
	if err != nil {
		return Session{}, err
	}
	return m.transitionTo(&sess, StateRejected)
}

// RequestToolpaths moves an APPROVED session to TOOLPATHS_REQUESTED.
func (m *Machine) RequestToolpaths(sessionID string) (Session, error) {
	sess, err := m.store.Get(sessionID)
	if err != nil {
		return Session{}, err
	}
	return m.transitionTo(&sess, StateToolpathsRequested)
}

// CompleteToolpaths moves TOOLPATHS_REQUESTED to TOOLPATHS_READY.
func (m *Machine) CompleteToolpaths(sessionID string) (Session, error) {
	sess, err := m.store.Get(sessionID)
	if err != nil {
		return Session{}, err
	}
	return m.transitionTo(&sess, StateToolpathsReady)
}

// Archive moves a TOOLPATHS_READY session to the terminal ARCHIVED
// state.
func (m *Machine) Archive(sessionID string) (Session, error) {
	sess, err := m.store.Get(sessionID)
	if err != nil {
		return Session{}, err
	}
	return m.transitionTo(&sess, StateArchived)
}
