package workflow

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/ocx/rmos/internal/feasibility"
)

// ErrNotFound is returned when a session_id has no matching row.
var ErrNotFound = errors.New("workflow: session not found")

// ErrStaleSession is returned by Save when the row's updated_at no
// longer matches what the caller last read, another request won the
// race and the caller must reload and retry.
var ErrStaleSession = errors.New("workflow: session modified concurrently")

// Store persists Sessions in a small relational table with optimistic
// locking on updated_at. No session state is ever held in a
// process-global map; every operation round-trips through db.
type Store struct {
	db *sql.DB
}

// NewStore wraps an already-open *sql.DB. Schema is created with
// EnsureSchema, not implicitly, so callers control migrations.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// EnsureSchema creates the sessions table if absent. Safe to call on
// every startup.
func (s *Store) EnsureSchema() error {
	const ddl = `
CREATE TABLE IF NOT EXISTS rmos_workflow_sessions (
	session_id       TEXT PRIMARY KEY,
	mode             TEXT NOT NULL,
	state            TEXT NOT NULL,
	tool_id          TEXT NOT NULL DEFAULT '',
	material_id      TEXT NOT NULL DEFAULT '',
	machine_id       TEXT NOT NULL DEFAULT '',
	feasibility_hash TEXT NOT NULL DEFAULT '',
	feasibility_json JSONB,
	created_at       TIMESTAMPTZ NOT NULL,
	updated_at       TIMESTAMPTZ NOT NULL
)`
	_, err := s.db.Exec(ddl)
	return err
}

// Create inserts a new session in DRAFT and returns its generated id.
func (s *Store) Create(mode Mode) (Session, error) {
	now := time.Now().UTC()
	sess := Session{
		SessionID:    uuid.NewString(),
		Mode:         mode,
		State:        StateDraft,
		CreatedAtUTC: now,
		UpdatedAtUTC: now,
	}
	const q = `
INSERT INTO rmos_workflow_sessions
	(session_id, mode, state, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5)`
	_, err := s.db.Exec(q, sess.SessionID, string(sess.Mode), string(sess.State), sess.CreatedAtUTC, sess.UpdatedAtUTC)
	if err != nil {
		return Session{}, fmt.Errorf("workflow: create session: %w", err)
	}
	return sess, nil
}

// Get loads a session by id.
func (s *Store) Get(sessionID string) (Session, error) {
	const q = `
SELECT session_id, mode, state, tool_id, material_id, machine_id,
       feasibility_hash, feasibility_json, created_at, updated_at
FROM rmos_workflow_sessions WHERE session_id = $1`
	row := s.db.QueryRow(q, sessionID)
	return scanSession(row)
}

func scanSession(row *sql.Row) (Session, error) {
	var sess Session
	var mode, state string
	var feasJSON []byte
	err := row.Scan(&sess.SessionID, &mode, &state, &sess.ToolID, &sess.MaterialID, &sess.MachineID,
		&sess.FeasibilityHash, &feasJSON, &sess.CreatedAtUTC, &sess.UpdatedAtUTC)
	if err == sql.ErrNoRows {
		return Session{}, ErrNotFound
	}
	if err != nil {
		return Session{}, fmt.Errorf("workflow: scan session: %w", err)
	}
	sess.Mode = Mode(mode)
	sess.State = State(state)
	if len(feasJSON) > 0 {
		var fr feasibility.FeasibilityResult
		if err := json.Unmarshal(feasJSON, &fr); err != nil {
			return Session{}, fmt.Errorf("workflow: decode feasibility: %w", err)
		}
		sess.Feasibility = &fr
	}
	return sess, nil
}

// Save writes sess back, requiring that the row's current updated_at
// still equals expectedUpdatedAt (the value the caller last observed).
// On success sess.UpdatedAtUTC is advanced to the new timestamp.
func (s *Store) Save(sess *Session, expectedUpdatedAt time.Time) error {
	var feasJSON []byte
	if sess.Feasibility != nil {
		b, err := json.Marshal(sess.Feasibility)
		if err != nil {
			return fmt.Errorf("workflow: encode feasibility: %w", err)
		}
		feasJSON = b
	}
	now := time.Now().UTC()
	const q = `
UPDATE rmos_workflow_sessions
SET mode = $1, state = $2, tool_id = $3, material_id = $4, machine_id = $5,
    feasibility_hash = $6, feasibility_json = $7, updated_at = $8
WHERE session_id = $9 AND updated_at = $10`
	res, err := s.db.Exec(q, string(sess.Mode), string(sess.State), sess.ToolID, sess.MaterialID, sess.MachineID,
		sess.FeasibilityHash, feasJSON, now, sess.SessionID, expectedUpdatedAt)
	if err != nil {
		return fmt.Errorf("workflow: save session: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("workflow: save session: %w", err)
	}
	if n == 0 {
		return ErrStaleSession
	}
	sess.UpdatedAtUTC = now
	return nil
}
