package registry

import (
	"fmt"
	"os"
	"sort"
	"sync"

	"github.com/ocx/rmos/internal/canonical"
	"gopkg.in/yaml.v2"
)

// ErrLookupMissing is returned by Get* when an id has no entry. The
// façade surfaces this as a 400 validation error, a missing id is never
// silently defaulted.
var ErrLookupMissing = fmt.Errorf("LOOKUP_MISSING")

// Registry is the process-wide, read-only Tool/Material/Machine lookup.
// It is populated once via Load and never mutated afterward; the RWMutex
// guards against the theoretical case of concurrent Load/Get racing
// during startup, not ongoing writes.
type Registry struct {
	mu        sync.RWMutex
	tools     map[string]Tool
	materials map[string]Material
	machines  map[string]Machine
	snapshot  string
}

// Load reads a YAML catalog file and returns a populated Registry. A
// malformed file or one that fails to decode aborts startup, callers
// should treat any error here as fatal.
func Load(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("registry: read %s: %w", path, err)
	}
	var cf catalogFile
	if err := yaml.Unmarshal(data, &cf); err != nil {
		return nil, fmt.Errorf("registry: parse %s: %w", path, err)
	}
	return newFromCatalog(cf)
}

func newFromCatalog(cf catalogFile) (*Registry, error) {
	r := &Registry{
		tools:     make(map[string]Tool, len(cf.Tools)),
		materials: make(map[string]Material, len(cf.Materials)),
		machines:  make(map[string]Machine, len(cf.Machines)),
	}
	for _, t := range cf.Tools {
		if t.ToolID == "" {
			return nil, fmt.Errorf("registry: tool entry missing tool_id")
		}
		r.tools[t.ToolID] = t
	}
	for _, m := range cf.Materials {
		if m.MaterialID == "" {
			return nil, fmt.Errorf("registry: material entry missing material_id")
		}
		r.materials[m.MaterialID] = m
	}
	for _, m := range cf.Machines {
		if m.MachineID == "" {
			return nil, fmt.Errorf("registry: machine entry missing machine_id")
		}
		r.machines[m.MachineID] = m
	}
	r.snapshot = computeSnapshotHash(r.tools, r.materials, r.machines)
	return r, nil
}

// NewFromEntries builds a Registry directly from in-memory entries,
// bypassing YAML, used by tests and by embedding callers that assemble
// the catalog programmatically.
func NewFromEntries(tools []Tool, materials []Material, machines []Machine) (*Registry, error) {
	return newFromCatalog(catalogFile{Tools: tools, Materials: materials, Machines: machines})
}

// GetTool returns the tool with the given id, or ErrLookupMissing.
func (r *Registry) GetTool(id string) (Tool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.tools[id]
	if !ok {
		return Tool{}, fmt.Errorf("%w: tool %q", ErrLookupMissing, id)
	}
	return t, nil
}

// GetMaterial returns the material with the given id, or ErrLookupMissing.
func (r *Registry) GetMaterial(id string) (Material, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	m, ok := r.materials[id]
	if !ok {
		return Material{}, fmt.Errorf("%w: material %q", ErrLookupMissing, id)
	}
	return m, nil
}

// GetMachine returns the machine with the given id, or ErrLookupMissing.
func (r *Registry) GetMachine(id string) (Machine, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	m, ok := r.machines[id]
	if !ok {
		return Machine{}, fmt.Errorf("%w: machine %q", ErrLookupMissing, id)
	}
	return m, nil
}

// SnapshotHash returns the SHA-256 over the canonical JSON of every
// entry active at load time, used to version feasibility decisions.
func (r *Registry) SnapshotHash() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.snapshot
}

func computeSnapshotHash(tools map[string]Tool, materials map[string]Material, machines map[string]Machine) string {
	toolIDs := sortedKeysTool(tools)
	sortedTools := make([]Tool, 0, len(tools))
	for _, id := range toolIDs {
		sortedTools = append(sortedTools, tools[id])
	}
	materialIDs := sortedKeysMaterial(materials)
	sortedMaterials := make([]Material, 0, len(materials))
	for _, id := range materialIDs {
		sortedMaterials = append(sortedMaterials, materials[id])
	}
	machineIDs := sortedKeysMachine(machines)
	sortedMachines := make([]Machine, 0, len(machines))
	for _, id := range machineIDs {
		sortedMachines = append(sortedMachines, machines[id])
	}

	return canonical.MustHash(catalogFile{
		Tools:     sortedTools,
		Materials: sortedMaterials,
		Machines:  sortedMachines,
	})
}

func sortedKeysTool(m map[string]Tool) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func sortedKeysMaterial(m map[string]Material) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func sortedKeysMachine(m map[string]Machine) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
