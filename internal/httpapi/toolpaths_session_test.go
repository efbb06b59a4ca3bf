package httpapi

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/ocx/rmos/internal/feasibility"
	"github.com/ocx/rmos/internal/kernel"
	"github.com/ocx/rmos/internal/registry"
	"github.com/ocx/rmos/internal/store"
	"github.com/ocx/rmos/internal/workflow"

	"testing"
)

// fakeSessionStore mirrors workflow.Store's optimistic-locking contract
// in memory, the same shape as workflow's own test fake, so the façade
// can drive a Machine end to end without a live Postgres connection.
type fakeSessionStore struct {
	mu       sync.Mutex
	sessions map[string]workflow.Session
}

func newFakeSessionStore() *fakeSessionStore {
	return &fakeSessionStore{sessions: make(map[string]workflow.Session)}
}

func (f *fakeSessionStore) Create(mode workflow.Mode) (workflow.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	now := time.Now().UTC()
	sess := workflow.Session{
		SessionID:    uuid.NewString(),
		Mode:         mode,
		State:        workflow.StateDraft,
		CreatedAtUTC: now,
		UpdatedAtUTC: now,
	}
	f.sessions[sess.SessionID] = sess
	return sess, nil
}

func (f *fakeSessionStore) Get(sessionID string) (workflow.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	sess, ok := f.sessions[sessionID]
	if !ok {
		return workflow.Session{}, workflow.ErrNotFound
	}
	return sess, nil
}

func (f *fakeSessionStore) Save(sess *workflow.Session, expectedUpdatedAt time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cur, ok := f.sessions[sess.SessionID]
	if !ok {
		return workflow.ErrNotFound
	}
	if !cur.UpdatedAtUTC.Equal(expectedUpdatedAt) {
		return workflow.ErrStaleSession
	}
	sess.UpdatedAtUTC = time.Now().UTC()
	f.sessions[sess.SessionID] = *sess
	return nil
}

func testServerWithMachine(t *testing.T) (*Server, *workflow.Machine) {
	t.Helper()
	reg := testRegistry(t)
	engine := feasibility.NewEngine(reg)
	st, err := store.New(t.TempDir())
	require.NoError(t, err)
	pool := kernel.NewWorkerPool(2)
	machine := workflow.NewMachine(newFakeSessionStore(), workflow.NewOverrideIssuer("test-secret", time.Minute))
	return NewServer(reg, engine, st, machine, pool, nil, nil), machine
}

// approvedSession drives a brand-new session through DRAFT -> ... ->
// APPROVED, the only state from which toolpath generation is valid.
func approvedSession(t *testing.T, machine *workflow.Machine) workflow.Session {
	t.Helper()
	sess, err := machine.CreateSession(workflow.ModeToolpaths)
	require.NoError(t, err)
	_, err = machine.SetContext(sess.SessionID, "bit-6mm", "maple-hard", "shop-grbl-1")
	require.NoError(t, err)
	_, err = machine.RequestFeasibility(sess.SessionID)
	require.NoError(t, err)
	_, err = machine.CompleteFeasibility(sess.SessionID, feasibility.FeasibilityResult{RiskBucket: feasibility.BucketGreen})
	require.NoError(t, err)
	approved, err := machine.Approve(sess.SessionID, "mentor", "")
	require.NoError(t, err)
	return approved
}

func TestToolpathsAdvancesApprovedSessionToToolpathsReady(t *testing.T) {
	s, machine := testServerWithMachine(t)
	sess := approvedSession(t, machine)

	body := goodFeasibilityBody()
	body.SessionID = sess.SessionID
	rec := postJSON(t, s, "/api/rmos/toolpaths", body)
	require.Equal(t, 200, rec.Code)

	got, err := machine.GetSession(sess.SessionID)
	require.NoError(t, err)
	require.Equal(t, workflow.StateToolpathsReady, got.State)
}

func TestToolpathsWithoutSessionIDSkipsWorkflowAdvance(t *testing.T) {
	s, _ := testServerWithMachine(t)
	rec := postJSON(t, s, "/api/rmos/toolpaths", goodFeasibilityBody())
	require.Equal(t, 200, rec.Code)
}

func TestToolpathsWithUnknownSessionIDIsBestEffort(t *testing.T) {
	s, _ := testServerWithMachine(t)
	body := goodFeasibilityBody()
	body.SessionID = "does-not-exist"
	rec := postJSON(t, s, "/api/rmos/toolpaths", body)
	require.Equal(t, 200, rec.Code)
}
