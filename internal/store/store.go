package store

import (
	"crypto/rand"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// ErrNotFound is returned by Get for an unknown run_id.
var ErrNotFound = fmt.Errorf("run artifact not found")

// ErrPathTraversal is returned when a run_id would resolve outside the
// store's partition root.
var ErrPathTraversal = fmt.Errorf("invalid run_id")

// indexEntry is the in-memory pointer to one artifact's location.
type indexEntry struct {
	date string // YYYY-MM-DD partition
	Summary
}

// Store is the append-only, date-partitioned RunArtifact store.
type Store struct {
	root string

	idxMu sync.RWMutex
	index map[string]indexEntry // run_id -> entry

	partMu sync.Mutex
	parts  map[string]*sync.Mutex // date -> per-partition write lock
}

// New opens (creating if absent) the store rooted at root and rebuilds
// its in-memory index by walking the partitions already on disk.
func New(root string) (*Store, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("store: create root: %w", err)
	}
	s := &Store{
		root:  root,
		index: make(map[string]indexEntry),
		parts: make(map[string]*sync.Mutex),
	}
	if err := s.rebuildIndex(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Store) rebuildIndex() error {
	entries, err := os.ReadDir(s.root)
	if err != nil {
		return err
	}
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		date := e.Name()
		files, err := os.ReadDir(filepath.Join(s.root, date))
		if err != nil {
			continue
		}
		for _, f := range files {
			if f.IsDir() || !strings.HasSuffix(f.Name(), ".json") {
				continue
			}
			data, err := os.ReadFile(filepath.Join(s.root, date, f.Name()))
			if err != nil {
				continue
			}
			var a RunArtifact
			if err := json.Unmarshal(data, &a); err != nil {
				continue
			}
			s.index[a.RunID] = indexEntry{date: date, Summary: a.summary()}
		}
	}
	return nil
}

// NewRunID generates a time-sortable run_id (ULID).
func NewRunID() string {
	return ulid.MustNew(ulid.Timestamp(time.Now()), rand.Reader).String()
}

func (s *Store) partitionLock(date string) *sync.Mutex {
	s.partMu.Lock()
	defer s.partMu.Unlock()
	m, ok := s.parts[date]
	if !ok {
		m = &sync.Mutex{}
		s.parts[date] = m
	}
	return m
}

func (s *Store) pathFor(date, runID string) (string, error) {
	p := filepath.Join(s.root, date, runID+".json")
	absRoot, err := filepath.Abs(s.root)
	if err != nil {
		return "", err
	}
	absP, err := filepath.Abs(p)
	if err != nil {
		return "", err
	}
	if !strings.HasPrefix(absP, absRoot+string(os.PathSeparator)) {
		return "", ErrPathTraversal
	}
	return absP, nil
}

// Put writes artifact, indexing it under its creation date. Idempotent
// by run_id: re-putting the same id is a no-op once the file exists,
// the stored bytes are never overwritten.
func (s *Store) Put(a RunArtifact) error {
	if strings.ContainsAny(a.RunID, "/\\.") {
		return ErrPathTraversal
	}
	date := a.CreatedAtUTC.UTC().Format("2006-01-02")
	lock := s.partitionLock(date)
	lock.Lock()
	defer lock.Unlock()

	dir := filepath.Join(s.root, date)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("store: mkdir partition: %w", err)
	}
	path, err := s.pathFor(date, a.RunID)
	if err != nil {
		return err
	}
	if _, err := os.Stat(path); err == nil {
		return nil // already written; never overwrite
	}

	data, err := json.MarshalIndent(a, "", "  ")
	if err != nil {
		return fmt.Errorf("store: marshal artifact: %w", err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("store: write temp: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("store: rename into place: %w", err)
	}

	s.idxMu.Lock()
	s.index[a.RunID] = indexEntry{date: date, Summary: a.summary()}
	s.idxMu.Unlock()
	return nil
}

// Get retrieves one artifact by run_id.
func (s *Store) Get(runID string) (RunArtifact, error) {
	s.idxMu.RLock()
	entry, ok := s.index[runID]
	s.idxMu.RUnlock()
	if !ok {
		return RunArtifact{}, ErrNotFound
	}
	path, err := s.pathFor(entry.date, runID)
	if err != nil {
		return RunArtifact{}, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return RunArtifact{}, fmt.Errorf("store: read %s: %w", runID, err)
	}
	var a RunArtifact
	if err := json.Unmarshal(data, &a); err != nil {
		return RunArtifact{}, fmt.Errorf("store: decode %s: %w", runID, err)
	}
	return a, nil
}

// Filter narrows List to matching artifacts; zero-value fields are
// wildcards.
type Filter struct {
	Status     Status
	Kind       Kind
	ToolID     string
	MaterialID string
	MachineID  string
	From, To   time.Time
}

func (f Filter) matches(s Summary) bool {
	if f.Status != "" && f.Status != s.Status {
		return false
	}
	if f.Kind != "" && f.Kind != s.Kind {
		return false
	}
	if f.ToolID != "" && f.ToolID != s.ToolID {
		return false
	}
	if f.MaterialID != "" && f.MaterialID != s.MaterialID {
		return false
	}
	if f.MachineID != "" && f.MachineID != s.MachineID {
		return false
	}
	if !f.From.IsZero() && s.CreatedAtUTC.Before(f.From) {
		return false
	}
	if !f.To.IsZero() && s.CreatedAtUTC.After(f.To) {
		return false
	}
	return true
}

// List returns artifacts matching filter, newest first, starting after
// cursor (an opaque "date|run_id" token), capped at limit (clamped to
// [1,200]).
func (s *Store) List(filter Filter, cursor string, limit int) ([]Summary, string, error) {
	if limit < 1 {
		limit = 1
	}
	if limit > 200 {
		limit = 200
	}

	s.idxMu.RLock()
	all := make([]indexEntry, 0, len(s.index))
	for _, e := range s.index {
		all = append(all, e)
	}
	s.idxMu.RUnlock()

	sort.Slice(all, func(i, j int) bool {
		return all[i].RunID > all[j].RunID // ULIDs sort lexicographically by time
	})

	startIdx := 0
	if cursor != "" {
		for i, e := range all {
			if cursorToken(e) == cursor {
				startIdx = i + 1
				break
			}
		}
	}

	var out []Summary
	var next string
	for i := startIdx; i < len(all); i++ {
		if !filter.matches(all[i].Summary) {
			continue
		}
		out = append(out, all[i].Summary)
		if len(out) == limit {
			if i+1 < len(all) {
				next = cursorToken(all[i])
			}
			break
		}
	}
	return out, next, nil
}

func cursorToken(e indexEntry) string {
	return e.date + "|" + e.RunID
}

// DiffResult is the structured comparison produced by Diff, over a fixed
// set of governance-relevant fields. Large payloads (gcode_text) are
// never compared.
type DiffResult struct {
	AID           string         `json:"a_id"`
	BID           string         `json:"b_id"`
	ChangedFields []ChangedField `json:"changed_fields"`
}

// ChangedField names one differing field and its two values.
type ChangedField struct {
	Field string      `json:"field"`
	A     interface{} `json:"a"`
	B     interface{} `json:"b"`
}

// Diff compares two artifacts by run_id over kind, status, risk_bucket,
// score, the three hashes, tool_id, and material_id.
func (s *Store) Diff(aID, bID string) (DiffResult, error) {
	a, err := s.Get(aID)
	if err != nil {
		return DiffResult{}, err
	}
	b, err := s.Get(bID)
	if err != nil {
		return DiffResult{}, err
	}

	result := DiffResult{AID: aID, BID: bID}
	add := func(field string, av, bv interface{}) {
		if fmt.Sprintf("%v", av) != fmt.Sprintf("%v", bv) {
			result.ChangedFields = append(result.ChangedFields, ChangedField{Field: field, A: av, B: bv})
		}
	}
	add("kind", a.Kind, b.Kind)
	add("status", a.Status, b.Status)
	add("risk_bucket", a.Feasibility.RiskBucket, b.Feasibility.RiskBucket)
	add("score", a.Feasibility.Score, b.Feasibility.Score)
	add("feasibility_sha256", a.Hashes.FeasibilitySHA256, b.Hashes.FeasibilitySHA256)
	add("toolpaths_sha256", a.Hashes.ToolpathsSHA256, b.Hashes.ToolpathsSHA256)
	add("gcode_sha256", a.Hashes.GCodeSHA256, b.Hashes.GCodeSHA256)
	add("tool_id", a.ToolID, b.ToolID)
	add("material_id", a.MaterialID, b.MaterialID)
	return result, nil
}
